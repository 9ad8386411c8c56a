package formdata

// FilenameGenerator chooses where an upload is stored.
//
// contentType is the part's declared type, or a guess from the client
// filename's extension when the part declares none, so it should not be
// trusted as a content check. Returning false declines the upload, which
// rejects the submission with CodeGenFilename.
//
// Implementations are shared by concurrent submissions and must be safe for
// concurrent use.
type FilenameGenerator interface {
	NextFilename(contentType string) (string, bool)
}

// GeneratorFunc adapts a function to FilenameGenerator.
type GeneratorFunc func(contentType string) (string, bool)

// NextFilename calls fn(contentType).
func (fn GeneratorFunc) NextFilename(contentType string) (string, bool) { return fn(contentType) }
