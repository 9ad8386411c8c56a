package formdata

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	eng "github.com/reoring/formdata/internal/engine"
	"github.com/reoring/formdata/internal/stream"
)

// Defaults applied when ProcessOpt leaves a size unset.
const (
	DefaultQueueSize = stream.DefaultQueueSize
	DefaultChunkSize = eng.DefaultChunkSize
)

// ProcessOpt bundles processing options. Zero values select defaults.
type ProcessOpt struct {
	// Logger receives debug events for accepted and rejected fields.
	// Defaults to zap.NewNop().
	Logger *zap.Logger
	// QueueSize bounds the chunks buffered per upload between the part reader
	// and the disk writer (default 50).
	QueueSize int
	// ChunkSize is the read size for upload bodies (default 32 KiB).
	ChunkSize int
	// RetainOnError keeps files stored by a rejected submission, including a
	// truncated file for the upload that was being written. By default they are
	// removed before Process returns.
	RetainOnError bool
}

// Process consumes every part of src, validates it against form and returns
// the consolidated value. Files are written to disk as their parts arrive.
//
// Parts are handled one at a time in arrival order. The first problem aborts
// the whole submission: Process returns Issues holding a single Issue and no
// value.
//
// Count limits are checked after a part has been handled by incrementing the
// matching counter and requiring it to stay strictly below the limit. With
// MaxFiles = N the N-th file is rejected, so at most N-1 files (and
// MaxFields-1 other fields) are accepted.
func Process(ctx context.Context, src PartSource, form *Form, opts ...ProcessOpt) (Map, error) {
	var opt ProcessOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if form == nil {
		return nil, singleIssue(CodeInternal, errors.New("nil form"))
	}
	if err := form.Err(); err != nil {
		return nil, singleIssue(CodeInternal, err)
	}
	p := &processor{form: form, opt: opt, log: opt.Logger}
	v, err := p.run(ctx, src)
	if err != nil {
		p.log.Debug("submission rejected", zap.Error(err))
		p.cleanup()
		return nil, err
	}
	p.log.Debug("submission accepted",
		zap.Int("fields", p.fieldCount),
		zap.Int("files", p.fileCount))
	return v, nil
}

type processor struct {
	form *Form
	opt  ProcessOpt
	log  *zap.Logger

	entries    []Entry
	fileCount  int
	fieldCount int
	stored     []string // upload paths opened by this submission
}

func (p *processor) run(ctx context.Context, src PartSource) (Map, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, singleIssue(CodeCanceled, err)
		}
		part, err := src.NextPart(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, p.classify(err, 0)
		}
		e, err := p.handlePart(ctx, part)
		if err != nil {
			return nil, err
		}
		if err := p.accept(e); err != nil {
			return nil, err
		}
	}
	return Consolidate(p.entries)
}

func (p *processor) handlePart(ctx context.Context, part Part) (Entry, error) {
	cd := part.ContentDisposition()
	if cd.Name == "" {
		return Entry{}, singleIssue(CodeContentDisposition, errors.New("part has no name"))
	}
	name, err := ParseName(cd.Name)
	if err != nil {
		return Entry{}, at(err, cd.Name, nil)
	}
	f, err := p.form.Match(name)
	if err != nil {
		return Entry{}, at(err, cd.Name, name)
	}
	var c Content
	if f.kind == KindFile {
		c, err = p.handleFile(ctx, part, f, cd)
	} else {
		c, err = p.handleField(part, f)
	}
	if err != nil {
		return Entry{}, at(err, cd.Name, name)
	}
	return Entry{Name: name, Content: c}, nil
}

// accept counts e against the form limits and records it.
func (p *processor) accept(e Entry) error {
	limits := p.form.limits
	if _, ok := e.Content.(File); ok {
		p.fileCount++
		if p.fileCount >= limits.MaxFiles {
			return countExceeded(CodeFileCount, limits.MaxFiles, e.Name)
		}
	} else {
		p.fieldCount++
		if p.fieldCount >= limits.MaxFields {
			return countExceeded(CodeFieldCount, limits.MaxFields, e.Name)
		}
	}
	p.entries = append(p.entries, e)
	p.log.Debug("field accepted",
		zap.String("path", Pointer(e.Name)),
		zap.Int("fields", p.fieldCount),
		zap.Int("files", p.fileCount))
	return nil
}

func countExceeded(code string, limit int, name []NamePart) error {
	it := newIssue(code, nil, map[string]any{"max": limit})
	it.Path = Pointer(name)
	return Issues{it}
}

func (p *processor) cleanup() {
	if p.opt.RetainOnError {
		return
	}
	for _, path := range p.stored {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.log.Warn("could not remove upload", zap.String("path", path), zap.Error(err))
		}
	}
}
