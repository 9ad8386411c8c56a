package formdata

import "fmt"

// Default limits applied by NewForm.
const (
	DefaultMaxFields    = 100
	DefaultMaxFiles     = 20
	DefaultMaxFieldSize = 10_000
	DefaultMaxFileSize  = 10_000_000
)

// Limits bounds a single submission.
type Limits struct {
	MaxFields    int   // Non-file fields; see Process for the exact boundary.
	MaxFiles     int   // File fields; see Process for the exact boundary.
	MaxFieldSize int64 // Bytes per non-file field (inclusive).
	MaxFileSize  int64 // Bytes per file (inclusive).
}

// DefaultLimits returns the limits NewForm starts with.
func DefaultLimits() Limits {
	return Limits{
		MaxFields:    DefaultMaxFields,
		MaxFiles:     DefaultMaxFiles,
		MaxFieldSize: DefaultMaxFieldSize,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// Form declares the accepted shape of a submission together with its limits.
//
// A Form is configured with chained calls at startup and must not be mutated
// once it is handed to Process; from then on it may be shared by any number of
// concurrent submissions.
type Form struct {
	fields map[string]*Field
	limits Limits
	err    error
}

// NewForm returns an empty form with DefaultLimits.
func NewForm() *Form {
	return &Form{fields: map[string]*Field{}, limits: DefaultLimits()}
}

// Field registers a top-level field.
func (f *Form) Field(name string, field *Field) *Form {
	if f.err != nil {
		return f
	}
	if err := checkChild(name, field); err != nil {
		f.err = err
		return f
	}
	f.fields[name] = field
	return f
}

// MaxFields sets the non-file field limit.
func (f *Form) MaxFields(n int) *Form { f.limits.MaxFields = n; return f }

// MaxFiles sets the file limit.
func (f *Form) MaxFiles(n int) *Form { f.limits.MaxFiles = n; return f }

// MaxFieldSize sets the per-field byte limit.
func (f *Form) MaxFieldSize(n int64) *Form { f.limits.MaxFieldSize = n; return f }

// MaxFileSize sets the per-file byte limit.
func (f *Form) MaxFileSize(n int64) *Form { f.limits.MaxFileSize = n; return f }

// WithLimits replaces all four limits at once.
func (f *Form) WithLimits(l Limits) *Form { f.limits = l; return f }

// Limits returns the configured limits.
func (f *Form) Limits() Limits { return f.limits }

// Root returns the top-level fields as a map node.
func (f *Form) Root() *Field { return newMapField(f.fields) }

// Err reports the first error recorded while building the form.
func (f *Form) Err() error {
	if f.err != nil {
		return f.err
	}
	l := f.limits
	if l.MaxFields < 0 || l.MaxFiles < 0 || l.MaxFieldSize < 0 || l.MaxFileSize < 0 {
		return fmt.Errorf("formdata: negative limit in %+v", l)
	}
	return nil
}
