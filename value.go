package formdata

import (
	"fmt"
	"sort"
)

// Value is a node of a processed submission: Map, Array, Text, Int, Float,
// Bytes or File. The set is closed; use a type switch to inspect it.
type Value interface {
	isValue()
}

// Content is the realized value of one field: Text, Int, Float, Bytes or File.
type Content interface {
	Value
	isContent()
}

// Map holds the children of a name[key] level. The root of every submission
// is a Map.
type Map map[string]Value

// Array holds name[] elements in arrival order.
type Array []Value

// Text is a UTF-8 text field.
type Text string

// Int is an integer field.
type Int int64

// Float is a floating point field.
type Float float64

// Bytes is a raw byte field.
type Bytes []byte

// File describes an upload persisted to disk.
type File struct {
	Filename string `json:"filename"`  // Client-supplied base name.
	StoredAs string `json:"stored_as"` // Path chosen by the FilenameGenerator.
	Size     int64  `json:"size"`
	Checksum uint64 `json:"checksum"` // xxh3-64 of the stored bytes.
}

func (Map) isValue()   {}
func (Array) isValue() {}
func (Text) isValue()  {}
func (Int) isValue()   {}
func (Float) isValue() {}
func (Bytes) isValue() {}
func (File) isValue()  {}

func (Text) isContent()  {}
func (Int) isContent()   {}
func (Float) isContent() {}
func (Bytes) isContent() {}
func (File) isContent()  {}

// Keys returns the map keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Files collects every File in the tree in deterministic order (sorted map
// keys, array order).
func Files(v Value) []File {
	var out []File
	var walk func(Value)
	walk = func(v Value) {
		switch t := v.(type) {
		case Map:
			for _, k := range t.Keys() {
				walk(t[k])
			}
		case Array:
			for _, e := range t {
				walk(e)
			}
		case File:
			out = append(out, t)
		}
	}
	walk(v)
	return out
}

// Merge combines two values built from the same form. Maps are unioned with
// keys present on both sides merged recursively; arrays are concatenated
// (a's elements first). Two leaves at the same path fail with
// CodeDuplicateField; a map meeting a non-map (or an array meeting a
// non-array) fails with CodeInternal.
//
// Merge takes ownership of a and b: a's map may be updated in place.
func Merge(a, b Value) (Value, error) {
	switch at := a.(type) {
	case Map:
		bt, ok := b.(Map)
		if !ok {
			return nil, shapeConflict(a, b)
		}
		for k, bv := range bt {
			av, ok := at[k]
			if !ok {
				at[k] = bv
				continue
			}
			mv, err := Merge(av, bv)
			if err != nil {
				return nil, prefix(err, k)
			}
			at[k] = mv
		}
		return at, nil
	case Array:
		bt, ok := b.(Array)
		if !ok {
			return nil, shapeConflict(a, b)
		}
		out := make(Array, 0, len(at)+len(bt))
		out = append(out, at...)
		return append(out, bt...), nil
	default:
		switch b.(type) {
		case Map, Array:
			return nil, shapeConflict(a, b)
		}
		it := newIssue(CodeDuplicateField, nil, nil)
		it.Path = "/"
		return nil, Issues{it}
	}
}

func shapeConflict(a, b Value) error {
	it := newIssue(CodeInternal, fmt.Errorf("cannot merge %T with %T", a, b), nil)
	it.Path = "/"
	return Issues{it}
}

// prefix pushes key in front of the pointer of every issue in err.
func prefix(err error, key string) error {
	iss, ok := AsIssues(err)
	if !ok {
		return err
	}
	seg := Pointer([]NamePart{MapKey(key)})
	out := make(Issues, len(iss))
	for i, it := range iss {
		if it.Path == "/" || it.Path == "" {
			it.Path = seg
		} else {
			it.Path = seg + it.Path
		}
		out[i] = it
	}
	return out
}
