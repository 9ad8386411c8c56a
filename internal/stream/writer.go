package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
)

// DefaultQueueSize bounds the chunks buffered between the producer and the
// disk worker.
const DefaultQueueSize = 50

// ErrKind classifies writer failures.
type ErrKind int

const (
	KindIO      ErrKind = iota // Creating or writing the file failed.
	KindMkDir                  // Creating the parent directory failed.
	KindChannel                // The producer/worker plumbing broke.
)

func (k ErrKind) String() string {
	switch k {
	case KindMkDir:
		return "mkdir"
	case KindChannel:
		return "channel"
	default:
		return "io"
	}
}

// Error is returned by Writer operations other than context cancellation,
// which is returned as the context's error.
type Error struct {
	Kind ErrKind
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("stream %s %s: %v", e.Kind, e.Path, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

var (
	// ErrClosed is wrapped in a KindChannel Error when a closed Writer is used.
	ErrClosed = errors.New("writer closed")
	// errWorkerGone is wrapped in a KindChannel Error when the worker stopped
	// without reporting why.
	errWorkerGone = errors.New("worker exited early")
)

// Options configures Open. Zero values select defaults.
type Options struct {
	QueueSize int
	DirPerm   os.FileMode // default 0o755
	FilePerm  os.FileMode // default 0o644
	// OpenFile creates the destination. Defaults to a truncating os.OpenFile.
	OpenFile func(path string, perm os.FileMode) (io.WriteCloser, error)
}

// Stats describes the bytes a worker flushed.
type Stats struct {
	Size     int64
	Checksum uint64 // xxh3-64 of the bytes, in write order
}

// Writer streams chunks to a single file. Write hands chunks to a worker
// goroutine that owns the file through a queue of fixed capacity; when the
// queue is full Write blocks until the worker catches up.
//
// A Writer has a single producer: Write, Close and Abort must not be called
// concurrently.
type Writer struct {
	path   string
	queue  chan []byte
	ctx    context.Context // canceled when the worker fails
	parent context.Context
	g      *errgroup.Group
	open   func(string, os.FileMode) (io.WriteCloser, error)
	perm   os.FileMode

	closed bool
	err    error
	stats  Stats
}

// Open creates the parent directory of path and starts the worker. The file
// itself is created fresh by the worker; a failure there surfaces from the
// next Write or from Close.
func Open(ctx context.Context, path string, opt Options) (*Writer, error) {
	if opt.QueueSize <= 0 {
		opt.QueueSize = DefaultQueueSize
	}
	if opt.DirPerm == 0 {
		opt.DirPerm = 0o755
	}
	if opt.FilePerm == 0 {
		opt.FilePerm = 0o644
	}
	if opt.OpenFile == nil {
		opt.OpenFile = createFile
	}
	if err := os.MkdirAll(filepath.Dir(path), opt.DirPerm); err != nil {
		return nil, &Error{Kind: KindMkDir, Path: path, Err: err}
	}
	g, gctx := errgroup.WithContext(ctx)
	w := &Writer{
		path:   path,
		queue:  make(chan []byte, opt.QueueSize),
		ctx:    gctx,
		parent: ctx,
		g:      g,
		open:   opt.OpenFile,
		perm:   opt.FilePerm,
	}
	g.Go(func() error { return w.run(gctx) })
	return w, nil
}

func createFile(path string, perm os.FileMode) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
}

// Path returns the destination path.
func (w *Writer) Path() string { return w.path }

// Write queues a copy of p. It blocks while the queue is full and fails once
// the worker has stopped or ctx is done.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		if w.err != nil {
			return 0, w.err
		}
		return 0, &Error{Kind: KindChannel, Path: w.path, Err: ErrClosed}
	}
	if len(p) == 0 {
		return 0, nil
	}
	chunk := append([]byte(nil), p...)
	select {
	case w.queue <- chunk:
		return len(p), nil
	case <-w.ctx.Done():
		if err := w.finish(); err != nil {
			return 0, err
		}
		// The worker drained and exited cleanly, but this chunk never reached it.
		if err := w.parent.Err(); err != nil {
			w.err = err
		} else {
			w.err = &Error{Kind: KindChannel, Path: w.path, Err: errWorkerGone}
		}
		return 0, w.err
	}
}

// Close signals the end of input, waits for the worker to flush and close the
// file, and returns what was written.
func (w *Writer) Close() (Stats, error) {
	if w.closed {
		if w.err != nil {
			return Stats{}, w.err
		}
		return Stats{}, &Error{Kind: KindChannel, Path: w.path, Err: ErrClosed}
	}
	if err := w.finish(); err != nil {
		return Stats{}, err
	}
	return w.stats, nil
}

// Abort stops the writer and, when remove is set, deletes the file. Already
// queued chunks are still flushed before the file is closed.
func (w *Writer) Abort(remove bool) error {
	if !w.closed {
		_ = w.finish()
	}
	if !remove {
		return nil
	}
	if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &Error{Kind: KindIO, Path: w.path, Err: err}
	}
	return nil
}

func (w *Writer) finish() error {
	w.closed = true
	close(w.queue)
	err := w.g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		var se *Error
		if !errors.As(err, &se) {
			err = &Error{Kind: KindChannel, Path: w.path, Err: err}
		}
	}
	w.err = err
	return err
}

func (w *Writer) run(ctx context.Context) error {
	f, err := w.open(w.path, w.perm)
	if err != nil {
		return &Error{Kind: KindIO, Path: w.path, Err: err}
	}
	h := xxh3.New()
	var size int64
	for {
		select {
		case chunk, ok := <-w.queue:
			if !ok {
				if err := f.Close(); err != nil {
					return &Error{Kind: KindIO, Path: w.path, Err: err}
				}
				w.stats = Stats{Size: size, Checksum: h.Sum64()}
				return nil
			}
			if err := writeFull(f, chunk); err != nil {
				_ = f.Close()
				return &Error{Kind: KindIO, Path: w.path, Err: err}
			}
			_, _ = h.Write(chunk)
			size += int64(len(chunk))
		case <-ctx.Done():
			_ = f.Close()
			return ctx.Err()
		}
	}
}

// writeFull loops until p is flushed. A write that makes no progress is fatal.
func writeFull(dst io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := dst.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}
