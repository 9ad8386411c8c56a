package jsonschema

// Schema is a minimal JSON Schema representation used for export.
type Schema struct {
	Schema      string `json:"$schema,omitempty"`
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`

	// String
	MaxLength *int64 `json:"maxLength,omitempty"`
}

// Draft is the dialect URI stamped on root documents.
const Draft = "https://json-schema.org/draft/2020-12/schema"
