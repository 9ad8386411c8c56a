package formdata

import "github.com/reoring/formdata/jsonschema"

// JSONSchema projects the form into a JSON Schema document describing the
// value Process returns. File fields are described by their stored metadata.
func (f *Form) JSONSchema() (*jsonschema.Schema, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := f.Root().jsonSchema(f.limits)
	s.Schema = jsonschema.Draft
	return s, nil
}

func (f *Field) jsonSchema(l Limits) *jsonschema.Schema {
	switch f.kind {
	case KindText:
		limit := l.MaxFieldSize
		return &jsonschema.Schema{Type: "string", MaxLength: &limit}
	case KindInt:
		return &jsonschema.Schema{Type: "integer"}
	case KindFloat:
		return &jsonschema.Schema{Type: "number"}
	case KindBytes:
		return &jsonschema.Schema{Type: "string", Format: "binary"}
	case KindFile:
		return &jsonschema.Schema{
			Type:   "object",
			Format: "binary",
			Properties: map[string]*jsonschema.Schema{
				"filename":  {Type: "string"},
				"stored_as": {Type: "string"},
				"size":      {Type: "integer"},
				"checksum":  {Type: "integer"},
			},
			AdditionalProperties: false,
		}
	case KindArray:
		return &jsonschema.Schema{Type: "array", Items: f.elem.jsonSchema(l)}
	default:
		props := make(map[string]*jsonschema.Schema, len(f.keys))
		for _, k := range f.keys {
			props[k] = f.children[k].jsonSchema(l)
		}
		return &jsonschema.Schema{Type: "object", Properties: props, AdditionalProperties: false}
	}
}
