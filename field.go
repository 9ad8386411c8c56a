package formdata

import (
	"fmt"
	"sort"
)

// Kind enumerates the node kinds of a form schema.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindBytes
	KindMap
	KindArray
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindMap:
		return "map"
	case KindArray:
		return "array"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Field is one node of a form schema. It is pure data: build it once (usually
// through the dsl package) and share it read-only.
type Field struct {
	kind     Kind
	children map[string]*Field // KindMap
	keys     []string          // sorted children keys
	elem     *Field            // KindArray
	gen      FilenameGenerator // KindFile
}

// NewScalarField returns a text, int, float or bytes field.
// Prefer the dsl package helpers.
func NewScalarField(k Kind) *Field {
	switch k {
	case KindText, KindInt, KindFloat, KindBytes:
		return &Field{kind: k}
	default:
		panic("formdata.NewScalarField: " + k.String() + " is not a scalar kind")
	}
}

// NewFileField returns an upload field streamed to the path chosen by gen.
func NewFileField(gen FilenameGenerator) *Field {
	if gen == nil {
		panic("formdata.NewFileField: generator must not be nil")
	}
	return &Field{kind: KindFile, gen: gen}
}

// NewArrayField returns a repeated field addressed as name[] on the wire.
func NewArrayField(elem *Field) *Field {
	if elem == nil {
		panic("formdata.NewArrayField: element must not be nil")
	}
	return &Field{kind: KindArray, elem: elem}
}

// NewMapField returns a nested field addressed as name[key] on the wire. The
// children map is copied.
func NewMapField(children map[string]*Field) (*Field, error) {
	for k, v := range children {
		if err := checkChild(k, v); err != nil {
			return nil, err
		}
	}
	return newMapField(children), nil
}

// Kind reports the node kind.
func (f *Field) Kind() Kind { return f.kind }

// Child returns the named child of a map field.
func (f *Field) Child(name string) (*Field, bool) {
	if f.kind != KindMap {
		return nil, false
	}
	c, ok := f.children[name]
	return c, ok
}

// Keys returns the sorted child names of a map field.
func (f *Field) Keys() []string { return append([]string(nil), f.keys...) }

// Elem returns the element schema of an array field.
func (f *Field) Elem() *Field { return f.elem }

// Generator returns the filename generator of a file field.
func (f *Field) Generator() FilenameGenerator { return f.gen }

// IsTerminal reports whether the node ends a field path (scalar or file).
func (f *Field) IsTerminal() bool { return f.kind != KindMap && f.kind != KindArray }

func newMapField(children map[string]*Field) *Field {
	cp := make(map[string]*Field, len(children))
	keys := make([]string, 0, len(children))
	for k, v := range children {
		cp[k] = v
		keys = append(keys, k)
	}
	// cache sorted keys for deterministic traversal
	sort.Strings(keys)
	return &Field{kind: KindMap, children: cp, keys: keys}
}

func checkChild(name string, f *Field) error {
	if name == "" {
		return fmt.Errorf("formdata: empty field name")
	}
	if f == nil {
		return fmt.Errorf("formdata: field %q is nil", name)
	}
	return nil
}
