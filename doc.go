package formdata

// Package formdata provides:
//
// - Declarative form schemas (Form, Field) for multipart/form-data bodies with bracket-notation names
// - Streaming ingestion: file parts are written to disk through a bounded queue as they arrive
// - Limit enforcement (field and file counts, per-field and per-file bytes) while data is still being read
// - A stable error model via Issues (JSON Pointer, code, message)
//
// Design policy:
// - Keep only public APIs in the root package; put the writer and byte budgets under internal/.
// - Place the builder DSL under dsl/, multipart framing adapters under source/, HTTP glue under middleware/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  form := formdata.NewForm().
//      Field("title", g.Text()).
//      Field("files", g.Array(g.File(naming.Counter("uploads"))))
//
//  src, err := multipart.FromRequest(req)
//  v, err := formdata.Process(ctx, src, form)
//  for _, f := range formdata.Files(v) { ... }
