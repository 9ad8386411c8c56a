// Package formspec loads form declarations from YAML documents.
//
// A document has two top-level keys:
//
//	limits:
//	  max_fields: 100
//	  max_files: 20
//	  max_field_size: 10 KB     # integer bytes or a human size
//	  max_file_size: 10 MB
//	fields:
//	  Hey: text
//	  Hi:
//	    type: map
//	    fields:
//	      One: int
//	      Two: float
//	  files:
//	    type: array
//	    of:
//	      type: file
//	      generator: uploads
//
// A field is either a bare kind (text, int, float, bytes) or a mapping with a
// type key. File fields name a generator from the Registry passed to Load;
// "file:<name>" is accepted as a shorthand. Limits not given keep the
// formdata defaults.
package formspec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/reoring/formdata"
)

// Registry maps generator names used in documents to generators.
type Registry map[string]formdata.FilenameGenerator

// Error reports an invalid document with the position of the offending node.
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("formspec: %d:%d: %s", e.Line, e.Col, e.Msg) }

// DuplicateKeyError reports a key repeated in one YAML mapping with both
// positions.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("formspec: duplicate key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// Parse is Load over a byte slice.
func Parse(b []byte, reg Registry) (*formdata.Form, error) {
	return Load(bytes.NewReader(b), reg)
}

// Load decodes the first YAML document of r into a Form.
func Load(r io.Reader, reg Registry) (*formdata.Form, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("formspec: empty document")
		}
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, errors.New("formspec: empty document")
	}
	l := loader{reg: reg}
	return l.form(root.Content[0])
}

type loader struct {
	reg Registry
}

func (l loader) form(n *yaml.Node) (*formdata.Form, error) {
	top, err := entries(n, "limits", "fields")
	if err != nil {
		return nil, err
	}
	form := formdata.NewForm()
	if ln, ok := top["limits"]; ok {
		lim, err := limits(ln, form.Limits())
		if err != nil {
			return nil, err
		}
		form.WithLimits(lim)
	}
	fn, ok := top["fields"]
	if !ok {
		return nil, nodeErr(n, "missing fields")
	}
	if fn.Kind != yaml.MappingNode {
		return nil, nodeErr(fn, "fields must be a mapping")
	}
	if err := checkDuplicates(fn); err != nil {
		return nil, err
	}
	for i := 0; i < len(fn.Content); i += 2 {
		f, err := l.field(fn.Content[i+1])
		if err != nil {
			return nil, err
		}
		form.Field(fn.Content[i].Value, f)
	}
	if err := form.Err(); err != nil {
		return nil, err
	}
	return form, nil
}

func (l loader) field(n *yaml.Node) (*formdata.Field, error) {
	if n.Kind == yaml.ScalarNode {
		kind, gen, _ := strings.Cut(n.Value, ":")
		return l.typed(n, kind, gen, nil, nil)
	}
	m, err := entries(n, "type", "fields", "of", "generator")
	if err != nil {
		return nil, err
	}
	t, ok := m["type"]
	if !ok || t.Kind != yaml.ScalarNode {
		return nil, nodeErr(n, "field needs a type")
	}
	var gen string
	if g, ok := m["generator"]; ok {
		gen = g.Value
	}
	return l.typed(t, t.Value, gen, m["fields"], m["of"])
}

func (l loader) typed(at *yaml.Node, kind, gen string, fields, of *yaml.Node) (*formdata.Field, error) {
	switch kind {
	case "text":
		return formdata.NewScalarField(formdata.KindText), nil
	case "int":
		return formdata.NewScalarField(formdata.KindInt), nil
	case "float":
		return formdata.NewScalarField(formdata.KindFloat), nil
	case "bytes":
		return formdata.NewScalarField(formdata.KindBytes), nil
	case "file":
		g, ok := l.reg[gen]
		if !ok || g == nil {
			return nil, nodeErr(at, fmt.Sprintf("unknown generator %q", gen))
		}
		return formdata.NewFileField(g), nil
	case "array":
		if of == nil {
			return nil, nodeErr(at, "array needs of")
		}
		elem, err := l.field(of)
		if err != nil {
			return nil, err
		}
		return formdata.NewArrayField(elem), nil
	case "map":
		if fields == nil || fields.Kind != yaml.MappingNode {
			return nil, nodeErr(at, "map needs fields")
		}
		if err := checkDuplicates(fields); err != nil {
			return nil, err
		}
		children := make(map[string]*formdata.Field, len(fields.Content)/2)
		for i := 0; i < len(fields.Content); i += 2 {
			c, err := l.field(fields.Content[i+1])
			if err != nil {
				return nil, err
			}
			children[fields.Content[i].Value] = c
		}
		f, err := formdata.NewMapField(children)
		if err != nil {
			return nil, nodeErr(fields, err.Error())
		}
		return f, nil
	default:
		return nil, nodeErr(at, fmt.Sprintf("unknown field type %q", kind))
	}
}

func limits(n *yaml.Node, lim formdata.Limits) (formdata.Limits, error) {
	m, err := entries(n, "max_fields", "max_files", "max_field_size", "max_file_size")
	if err != nil {
		return lim, err
	}
	if v, ok := m["max_fields"]; ok {
		c, err := count(v)
		if err != nil {
			return lim, err
		}
		lim.MaxFields = c
	}
	if v, ok := m["max_files"]; ok {
		c, err := count(v)
		if err != nil {
			return lim, err
		}
		lim.MaxFiles = c
	}
	if v, ok := m["max_field_size"]; ok {
		s, err := size(v)
		if err != nil {
			return lim, err
		}
		lim.MaxFieldSize = s
	}
	if v, ok := m["max_file_size"]; ok {
		s, err := size(v)
		if err != nil {
			return lim, err
		}
		lim.MaxFileSize = s
	}
	return lim, nil
}

func count(n *yaml.Node) (int, error) {
	if n.Kind != yaml.ScalarNode || n.Tag != "!!int" {
		return 0, nodeErr(n, "count must be an integer")
	}
	c, err := strconv.Atoi(n.Value)
	if err != nil || c < 0 {
		return 0, nodeErr(n, "count must be a non-negative integer")
	}
	return c, nil
}

// size accepts plain byte counts and human sizes such as "10 MB" or "1MiB".
func size(n *yaml.Node) (int64, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, nodeErr(n, "size must be a scalar")
	}
	if n.Tag == "!!int" {
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil || v < 0 {
			return 0, nodeErr(n, "size must be a non-negative integer")
		}
		return v, nil
	}
	v, err := humanize.ParseBytes(n.Value)
	if err != nil {
		return 0, nodeErr(n, err.Error())
	}
	if v > 1<<62 {
		return 0, nodeErr(n, "size too large")
	}
	return int64(v), nil
}

// entries indexes a mapping node by key, rejecting unknown and repeated keys.
func entries(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeErr(n, "expected a mapping")
	}
	if err := checkDuplicates(n); err != nil {
		return nil, err
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		k := n.Content[i]
		known := false
		for _, a := range allowed {
			if a == k.Value {
				known = true
				break
			}
		}
		if !known {
			return nil, nodeErr(k, fmt.Sprintf("unknown key %q", k.Value))
		}
		out[k.Value] = n.Content[i+1]
	}
	return out, nil
}

func checkDuplicates(n *yaml.Node) error {
	first := make(map[string][2]int, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		k := n.Content[i]
		if pos, dup := first[k.Value]; dup {
			return &DuplicateKeyError{Key: k.Value, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
		}
		first[k.Value] = [2]int{k.Line, k.Column}
	}
	return nil
}

func nodeErr(n *yaml.Node, msg string) error {
	return &Error{Line: n.Line, Col: n.Column, Msg: msg}
}
