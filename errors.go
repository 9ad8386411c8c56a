package formdata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/formdata/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Schema
	CodeContentDisposition = "content_disposition"
	CodeFieldType          = "field_type"
	CodeDuplicateField     = "duplicate_field"
	// Limits
	CodeFieldSize  = "field_size"
	CodeFileSize   = "file_size"
	CodeFieldCount = "field_count"
	CodeFileCount  = "file_count"
	// Parsing
	CodeParseField = "parse_field"
	CodeParseInt   = "parse_int"
	CodeParseFloat = "parse_float"
	// Naming
	CodeFilename    = "filename"
	CodeGenFilename = "gen_filename"
	// Storage
	CodeMkDir = "mkdir"
	CodeIO    = "io"
	// Plumbing between the part reader and the disk writer broke.
	CodeChannel = "channel"
	// Failure reported by the part source (transport passthrough).
	CodeMultipart = "multipart"
	CodeCanceled  = "canceled"
	CodeInternal  = "internal"
)

// Issue represents a single rejection of a submission.
type Issue struct {
	Path    string // JSON Pointer derived from the field name (for example: /files/-).
	Field   string // Raw field name as sent by the client, when known.
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	// Params carries structured parameters (e.g., {"max":10000}) for i18n and
	// observability.
	Params map[string]any
}

// Issues is a collection of rejections that implements error. Process is
// fail-fast, so the Issues it returns always hold exactly one entry.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. field_size at /Hi/One
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Cause != nil {
			fmt.Fprintf(b, ": %v", it.Cause)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the underlying causes to errors.Is and errors.As.
func (iss Issues) Unwrap() []error {
	var errs []error
	for _, it := range iss {
		if it.Cause != nil {
			errs = append(errs, it.Cause)
		}
	}
	return errs
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// HasCode reports whether err carries an Issue with the given code.
func HasCode(err error, code string) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

func newIssue(code string, cause error, params map[string]any) Issue {
	return Issue{Code: code, Message: i18n.T(code, stringParams(params)), Cause: cause, Params: params}
}

func singleIssue(code string, cause error) Issues {
	return AppendIssues(nil, newIssue(code, cause, nil))
}

// at stamps the field name and pointer onto every issue in err.
func at(err error, field string, parts []NamePart) error {
	iss, ok := AsIssues(err)
	if !ok {
		iss = singleIssue(CodeInternal, err)
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		if it.Field == "" {
			it.Field = field
		}
		if it.Path == "" && parts != nil {
			it.Path = Pointer(parts)
		}
		out[i] = it
	}
	return out
}

func stringParams(params map[string]any) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = fmt.Sprint(v)
	}
	return out
}
