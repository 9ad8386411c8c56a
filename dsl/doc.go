// Package dsl provides the builder API for form schemas.
//
// Overview
//   - Scalars: Text()/Int()/Float()/Bytes() are parsed in memory under the form's MaxFieldSize.
//   - Files: File(gen)/FileFunc(fn) stream to disk under MaxFileSize; gen picks the path.
//   - Nesting: Map().Field(...).MustBuild() for name[key], Array(elem) for name[].
//
// Example
//
//	form := formdata.NewForm().
//	    Field("Hey", g.Text()).
//	    Field("Hi", g.Map().
//	        Field("One", g.Int()).
//	        Field("Two", g.Float()).
//	        MustBuild()).
//	    Field("files", g.Array(g.File(naming.Counter("uploads")))).
//	    MaxFiles(5)
//
//	v, err := formdata.Process(ctx, src, form)
//	// v["Hi"] == formdata.Map{"One": formdata.Int(42)} for Hi[One]=42
package dsl
