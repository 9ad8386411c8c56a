package dsl

import (
	formdata "github.com/reoring/formdata"
)

// Text declares a UTF-8 text field.
func Text() *formdata.Field { return formdata.NewScalarField(formdata.KindText) }

// Int declares a base-10 signed 64-bit integer field.
func Int() *formdata.Field { return formdata.NewScalarField(formdata.KindInt) }

// Float declares a 64-bit floating point field.
func Float() *formdata.Field { return formdata.NewScalarField(formdata.KindFloat) }

// Bytes declares a raw byte field. It is held in memory and bounded by the
// form's MaxFieldSize.
func Bytes() *formdata.Field { return formdata.NewScalarField(formdata.KindBytes) }

// File declares an upload streamed to disk at the path chosen by gen.
func File(gen formdata.FilenameGenerator) *formdata.Field { return formdata.NewFileField(gen) }

// FileFunc is File with a plain function as the generator.
func FileFunc(fn func(contentType string) (string, bool)) *formdata.Field {
	return formdata.NewFileField(formdata.GeneratorFunc(fn))
}

// Array declares a repeated field; elements are sent as name[] and kept in
// arrival order.
func Array(elem *formdata.Field) *formdata.Field { return formdata.NewArrayField(elem) }

type mapBuilder struct {
	children map[string]*formdata.Field
}

// Map creates a builder for a nested field sent as name[key].
func Map() *mapBuilder {
	return &mapBuilder{children: map[string]*formdata.Field{}}
}

// Field registers a child. Later registrations of the same key win.
func (b *mapBuilder) Field(name string, f *formdata.Field) *mapBuilder {
	b.children[name] = f
	return b
}

// Build validates the children and returns the map field.
func (b *mapBuilder) Build() (*formdata.Field, error) {
	return formdata.NewMapField(b.children)
}

// MustBuild is like Build but panics on error.
func (b *mapBuilder) MustBuild() *formdata.Field {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}
