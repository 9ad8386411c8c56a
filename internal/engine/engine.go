package engine

import "io"

// SimpleIssue is a lightweight issue raised inside the engine. The public
// package converts it into a formdata.Issue.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// ReadChunks reads r into fresh buffers of chunkSize bytes and hands each
// non-empty chunk to fn until r is exhausted. The chunk passed to fn is not
// reused by ReadChunks.
func ReadChunks(r io.Reader, chunkSize int, fn func([]byte) error) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	for {
		buf := make([]byte, chunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := fn(buf[:n]); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 32 << 10
