package engine

import (
	"io"
	"strconv"
)

// Enforcement wrapper for a part body to apply byte budgets while the data is
// still arriving.

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	// MaxBytes is the inclusive byte budget; negative disables the check.
	MaxBytes int64
	// Code is reported when the budget is exceeded.
	Code string
	// Path is copied into the raised issue.
	Path string
}

// WrapWithEnforcement returns a reader that counts the bytes read from inner
// and fails with an IssueError as soon as the count exceeds opt.MaxBytes.
// Reading exactly MaxBytes succeeds. After a violation every Read returns the
// same error and inner is not consumed further.
func WrapWithEnforcement(inner io.Reader, opt EnforceOptions) *EnforcingReader {
	return &EnforcingReader{inner: inner, opt: opt}
}

// EnforcingReader is the reader returned by WrapWithEnforcement.
type EnforcingReader struct {
	inner io.Reader
	opt   EnforceOptions
	n     int64
	err   error
}

func (e *EnforcingReader) Read(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.inner.Read(p)
	e.n += int64(n)
	if e.opt.MaxBytes >= 0 && e.n > e.opt.MaxBytes {
		e.err = IssueError{SimpleIssue{
			Code:    e.opt.Code,
			Path:    e.opt.Path,
			Message: "max bytes exceeded (" + strconv.FormatInt(e.opt.MaxBytes, 10) + ")",
		}}
		return 0, e.err
	}
	return n, err
}

// Count returns the number of bytes read so far, including a chunk that broke
// the budget.
func (e *EnforcingReader) Count() int64 { return e.n }
