// Package multipart adapts mime/multipart readers to formdata.PartSource.
package multipart

import (
	"context"
	mimemp "mime/multipart"
	"net/http"

	"github.com/reoring/formdata"
)

// Source yields the parts of a multipart body.
type Source struct {
	r *mimemp.Reader
}

// New wraps r.
func New(r *mimemp.Reader) *Source { return &Source{r: r} }

// FromRequest wraps the body of a multipart/form-data request. It fails when
// the request is not multipart or carries no boundary.
func FromRequest(req *http.Request) (*Source, error) {
	r, err := req.MultipartReader()
	if err != nil {
		return nil, err
	}
	return New(r), nil
}

// NextPart implements formdata.PartSource.
func (s *Source) NextPart(ctx context.Context) (formdata.Part, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.r.NextPart()
	if err != nil {
		return nil, err
	}
	return part{p}, nil
}

type part struct{ *mimemp.Part }

func (p part) ContentDisposition() formdata.ContentDisposition {
	return formdata.ContentDisposition{Name: p.FormName(), Filename: p.FileName()}
}

func (p part) ContentType() string { return p.Header.Get("Content-Type") }
