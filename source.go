package formdata

import (
	"context"
	"io"
)

// ContentDisposition is the naming metadata of one part. Empty strings mean
// the parameter was absent.
type ContentDisposition struct {
	Name     string
	Filename string
}

// Part is one field of a multipart body. Read yields the field's bytes and
// returns io.EOF at its end; a part cannot be rewound.
type Part interface {
	io.Reader
	ContentDisposition() ContentDisposition
	ContentType() string
}

// PartSource yields the parts of one body in order. NextPart returns io.EOF
// once the body is exhausted. Only the most recent part is readable:
// asking for the next part invalidates the previous one.
type PartSource interface {
	NextPart(ctx context.Context) (Part, error)
}

// PartSourceFunc adapts a function to PartSource.
type PartSourceFunc func(ctx context.Context) (Part, error)

// NextPart calls fn(ctx).
func (fn PartSourceFunc) NextPart(ctx context.Context) (Part, error) { return fn(ctx) }
