// Package middleware wires formdata into net/http servers.
package middleware

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/reoring/formdata"
	mpsource "github.com/reoring/formdata/source/multipart"
)

// ctxKeyValue is a typed context key for the processed submission.
type ctxKeyValue struct{}

// ContextWithValue attaches a processed submission to the context.
func ContextWithValue(ctx context.Context, v formdata.Map) context.Context {
	return context.WithValue(ctx, ctxKeyValue{}, v)
}

// ValueFromContext retrieves the submission stored by ContextWithValue.
func ValueFromContext(ctx context.Context) (formdata.Map, bool) {
	v, ok := ctx.Value(ctxKeyValue{}).(formdata.Map)
	return v, ok
}

// Parse runs formdata.Process over the multipart body of r. A request that is
// not multipart/form-data is rejected with CodeMultipart.
func Parse(r *http.Request, form *formdata.Form, opts ...formdata.ProcessOpt) (formdata.Map, error) {
	src, err := mpsource.FromRequest(r)
	if err != nil {
		return nil, formdata.Issues{formdata.IssueAt(nil, formdata.CodeMultipart, err, nil)}
	}
	return formdata.Process(r.Context(), src, form, opts...)
}

// IssueView is the JSON shape of one Issue.
type IssueView struct {
	Path    string         `json:"path,omitempty"`
	Field   string         `json:"field,omitempty"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues []formdata.Issue) map[string]any {
	views := make([]IssueView, 0, len(issues))
	for _, it := range issues {
		views = append(views, IssueView{Path: it.Path, Field: it.Field, Code: it.Code, Message: it.Message, Params: it.Params})
	}
	return map[string]any{"issues": views}
}

// StatusCode maps a Process error to an HTTP status: 413 for limit
// violations, 500 for server-side storage failures, 400 otherwise.
func StatusCode(err error) int {
	iss, ok := formdata.AsIssues(err)
	if !ok || len(iss) == 0 {
		return http.StatusInternalServerError
	}
	switch iss[0].Code {
	case formdata.CodeFieldSize, formdata.CodeFileSize, formdata.CodeFieldCount, formdata.CodeFileCount:
		return http.StatusRequestEntityTooLarge
	case formdata.CodeMkDir, formdata.CodeIO, formdata.CodeChannel, formdata.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// WriteError writes err as a JSON issues payload with the status from
// StatusCode.
func WriteError(w http.ResponseWriter, err error) {
	iss, ok := formdata.AsIssues(err)
	if !ok {
		iss = formdata.Issues{formdata.IssueAt(nil, formdata.CodeInternal, err, nil)}
	}
	writeJSON(w, StatusCode(err), ErrorPayload(iss))
}

// Handler processes each request body with form before calling next; the
// result is available through ValueFromContext. Rejected submissions get a
// JSON issues payload and next is not called.
func Handler(form *formdata.Form, next http.Handler, opts ...formdata.ProcessOpt) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := Parse(r, form, opts...)
		if err != nil {
			WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithValue(r.Context(), v)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
