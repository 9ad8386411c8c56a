// Package naming provides ready-made filename generators for file fields.
package naming

import (
	"mime"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/reoring/formdata"
)

// preferred overrides the extension picked for types with several candidates.
var preferred = map[string]string{
	"image/jpeg":               ".jpg",
	"text/plain":               ".txt",
	"application/octet-stream": ".bin",
}

// Ext returns the file extension (with dot) for a content type, or ".bin" when
// none is registered.
func Ext(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".bin"
	}
	if ext, ok := preferred[mt]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mt)
	if err != nil || len(exts) == 0 {
		return ".bin"
	}
	return exts[0]
}

// CounterGenerator names uploads dir/<prefix><n><ext> with n counting up from
// zero. It is safe for concurrent use.
type CounterGenerator struct {
	dir    string
	prefix string
	n      atomic.Uint64
}

// Counter returns a CounterGenerator writing to dir with the "filename" prefix.
func Counter(dir string) *CounterGenerator {
	return &CounterGenerator{dir: dir, prefix: "filename"}
}

// WithPrefix replaces the name prefix.
func (g *CounterGenerator) WithPrefix(p string) *CounterGenerator {
	g.prefix = p
	return g
}

// NextFilename implements formdata.FilenameGenerator.
func (g *CounterGenerator) NextFilename(contentType string) (string, bool) {
	n := g.n.Add(1) - 1
	return filepath.Join(g.dir, g.prefix+strconv.FormatUint(n, 10)+Ext(contentType)), true
}

// UUID returns a generator naming uploads dir/<random uuid><ext>.
func UUID(dir string) formdata.FilenameGenerator {
	return formdata.GeneratorFunc(func(contentType string) (string, bool) {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", false
		}
		return filepath.Join(dir, id.String()+Ext(contentType)), true
	})
}

// Fixed always returns path. Successive uploads overwrite each other.
func Fixed(path string) formdata.FilenameGenerator {
	return formdata.GeneratorFunc(func(string) (string, bool) { return path, true })
}

// Only restricts g to the given media types; other uploads are declined.
func Only(g formdata.FilenameGenerator, mediaTypes ...string) formdata.FilenameGenerator {
	allowed := make(map[string]struct{}, len(mediaTypes))
	for _, t := range mediaTypes {
		allowed[t] = struct{}{}
	}
	return formdata.GeneratorFunc(func(contentType string) (string, bool) {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", false
		}
		if _, ok := allowed[mt]; !ok {
			return "", false
		}
		return g.NextFilename(contentType)
	})
}
