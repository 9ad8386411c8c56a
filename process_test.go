package formdata_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reoring/formdata"
	g "github.com/reoring/formdata/dsl"
)

type fakePart struct {
	io.Reader
	cd formdata.ContentDisposition
	ct string
}

func (p *fakePart) ContentDisposition() formdata.ContentDisposition { return p.cd }
func (p *fakePart) ContentType() string                             { return p.ct }

func textPart(name, body string) formdata.Part {
	return &fakePart{Reader: strings.NewReader(body), cd: formdata.ContentDisposition{Name: name}}
}

func rawPart(name string, body []byte) formdata.Part {
	return &fakePart{Reader: bytes.NewReader(body), cd: formdata.ContentDisposition{Name: name}}
}

func filePart(name, filename, ct, body string) formdata.Part {
	return &fakePart{
		Reader: strings.NewReader(body),
		cd:     formdata.ContentDisposition{Name: name, Filename: filename},
		ct:     ct,
	}
}

func parts(ps ...formdata.Part) formdata.PartSource {
	i := 0
	return formdata.PartSourceFunc(func(context.Context) (formdata.Part, error) {
		if i >= len(ps) {
			return nil, io.EOF
		}
		p := ps[i]
		i++
		return p, nil
	})
}

// recorder names uploads dir/<n>.bin and remembers the content types it saw.
type recorder struct {
	dir string
	mu  sync.Mutex
	cts []string
}

func (r *recorder) NextFilename(ct string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cts = append(r.cts, ct)
	return filepath.Join(r.dir, "up", string(rune('0'+len(r.cts)-1))+".bin"), true
}

func uploadForm(gen formdata.FilenameGenerator) *formdata.Form {
	return formdata.NewForm().
		Field("Hey", g.Text()).
		Field("Hi", g.Map().
			Field("One", g.Int()).
			Field("Two", g.Float()).
			MustBuild()).
		Field("raw", g.Bytes()).
		Field("files", g.Array(g.File(gen)))
}

func singleIssue(t *testing.T, err error) formdata.Issue {
	t.Helper()
	iss, ok := formdata.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("want exactly one issue, got %v", err)
	}
	return iss[0]
}

func TestProcess_UploadForm(t *testing.T) {
	rec := &recorder{dir: t.TempDir()}
	got, err := formdata.Process(context.Background(), parts(
		textPart("Hey", "hello"),
		textPart("Hi[One]", "5"),
		textPart("Hi[Two]", "6.5"),
		filePart("files[]", "a.png", "image/png", "first"),
		filePart("files[]", "b.png", "image/png", "second file"),
	), uploadForm(rec))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	p0 := filepath.Join(rec.dir, "up", "0.bin")
	p1 := filepath.Join(rec.dir, "up", "1.bin")
	want := formdata.Map{
		"Hey": formdata.Text("hello"),
		"Hi": formdata.Map{
			"One": formdata.Int(5),
			"Two": formdata.Float(6.5),
		},
		"files": formdata.Array{
			formdata.File{Filename: "a.png", StoredAs: p0, Size: 5, Checksum: xxh3.HashString("first")},
			formdata.File{Filename: "b.png", StoredAs: p1, Size: 11, Checksum: xxh3.HashString("second file")},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	for path, body := range map[string]string{p0: "first", p1: "second file"} {
		b, err := os.ReadFile(path)
		if err != nil || string(b) != body {
			t.Fatalf("%s = %q, %v; want %q", path, b, err, body)
		}
	}
}

func TestProcess_EmptyBody(t *testing.T) {
	got, err := formdata.Process(context.Background(), parts(), uploadForm(&recorder{dir: t.TempDir()}))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty map, got %v", got)
	}
}

func TestProcess_FieldSizeBoundary(t *testing.T) {
	form := uploadForm(&recorder{dir: t.TempDir()}).MaxFieldSize(5)
	if _, err := formdata.Process(context.Background(), parts(textPart("Hey", "12345")), form); err != nil {
		t.Fatalf("field at the limit should pass: %v", err)
	}
	_, err := formdata.Process(context.Background(), parts(textPart("Hey", "123456")), form)
	it := singleIssue(t, err)
	if it.Code != formdata.CodeFieldSize || it.Path != "/Hey" || it.Field != "Hey" {
		t.Fatalf("unexpected issue %+v", it)
	}
	if diff := cmp.Diff(map[string]any{"max": int64(5)}, it.Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_FileSizeBoundary(t *testing.T) {
	rec := &recorder{dir: t.TempDir()}
	form := uploadForm(rec).MaxFileSize(4)
	got, err := formdata.Process(context.Background(), parts(filePart("files[]", "a.txt", "text/plain", "abcd")), form)
	if err != nil {
		t.Fatalf("file at the limit should pass: %v", err)
	}
	if fs := formdata.Files(got); len(fs) != 1 || fs[0].Size != 4 {
		t.Fatalf("unexpected files %+v", fs)
	}

	_, err = formdata.Process(context.Background(), parts(filePart("files[]", "a.txt", "text/plain", "abcde")), form)
	if it := singleIssue(t, err); it.Code != formdata.CodeFileSize || it.Path != "/files/-" {
		t.Fatalf("unexpected issue %+v", it)
	}
	if _, err := os.Stat(filepath.Join(rec.dir, "up", "1.bin")); !os.IsNotExist(err) {
		t.Fatalf("oversized upload should be removed, stat err = %v", err)
	}
}

func TestProcess_RetainOnError(t *testing.T) {
	rec := &recorder{dir: t.TempDir()}
	form := uploadForm(rec).MaxFileSize(4)
	_, err := formdata.Process(context.Background(), parts(
		filePart("files[]", "a.txt", "", "ok"),
		filePart("files[]", "b.txt", "", "too large"),
	), form, formdata.ProcessOpt{RetainOnError: true})
	if !formdata.HasCode(err, formdata.CodeFileSize) {
		t.Fatalf("want file_size, got %v", err)
	}
	for _, name := range []string{"0.bin", "1.bin"} {
		if _, err := os.Stat(filepath.Join(rec.dir, "up", name)); err != nil {
			t.Fatalf("%s should be retained: %v", name, err)
		}
	}
}

func TestProcess_CleanupEarlierFiles(t *testing.T) {
	rec := &recorder{dir: t.TempDir()}
	_, err := formdata.Process(context.Background(), parts(
		filePart("files[]", "a.txt", "", "kept until failure"),
		textPart("Hi[One]", "not a number"),
	), uploadForm(rec))
	if it := singleIssue(t, err); it.Code != formdata.CodeParseInt || it.Path != "/Hi/One" {
		t.Fatalf("unexpected issue %+v", it)
	}
	if _, err := os.Stat(filepath.Join(rec.dir, "up", "0.bin")); !os.IsNotExist(err) {
		t.Fatalf("stored file should be removed, stat err = %v", err)
	}
}

func TestProcess_FileCountBoundary(t *testing.T) {
	form := uploadForm(&recorder{dir: t.TempDir()}).MaxFiles(2)
	if _, err := formdata.Process(context.Background(), parts(
		filePart("files[]", "a", "", "1"),
	), form); err != nil {
		t.Fatalf("one file under MaxFiles(2) should pass: %v", err)
	}
	_, err := formdata.Process(context.Background(), parts(
		filePart("files[]", "a", "", "1"),
		filePart("files[]", "b", "", "2"),
	), form)
	it := singleIssue(t, err)
	if it.Code != formdata.CodeFileCount {
		t.Fatalf("unexpected issue %+v", it)
	}
	if diff := cmp.Diff(map[string]any{"max": 2}, it.Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_FieldCountBoundary(t *testing.T) {
	form := uploadForm(&recorder{dir: t.TempDir()}).MaxFields(3)
	if _, err := formdata.Process(context.Background(), parts(
		textPart("Hey", "a"),
		textPart("Hi[One]", "1"),
	), form); err != nil {
		t.Fatalf("two fields under MaxFields(3) should pass: %v", err)
	}
	_, err := formdata.Process(context.Background(), parts(
		textPart("Hey", "a"),
		textPart("Hi[One]", "1"),
		textPart("Hi[Two]", "2"),
	), form)
	if it := singleIssue(t, err); it.Code != formdata.CodeFieldCount || it.Path != "/Hi/Two" {
		t.Fatalf("unexpected issue %+v", it)
	}
}

func TestProcess_ScalarParsing(t *testing.T) {
	cases := []struct {
		part formdata.Part
		code string
	}{
		{textPart("Hi[One]", "abc"), formdata.CodeParseInt},
		{textPart("Hi[One]", "1.5"), formdata.CodeParseInt},
		{textPart("Hi[Two]", "x"), formdata.CodeParseFloat},
		{rawPart("Hey", []byte{0xff, 0xfe}), formdata.CodeParseField},
		{rawPart("Hi[One]", []byte{0xff}), formdata.CodeParseField},
	}
	for _, tc := range cases {
		_, err := formdata.Process(context.Background(), parts(tc.part), uploadForm(&recorder{dir: t.TempDir()}))
		if it := singleIssue(t, err); it.Code != tc.code {
			t.Fatalf("%s: got %+v, want %s", tc.part.ContentDisposition().Name, it, tc.code)
		}
	}
}

func TestProcess_BytesKeepsInvalidUTF8(t *testing.T) {
	raw := []byte{0xff, 0x00, 0xfe}
	got, err := formdata.Process(context.Background(), parts(rawPart("raw", raw)), uploadForm(&recorder{dir: t.TempDir()}))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if diff := cmp.Diff(formdata.Map{"raw": formdata.Bytes(raw)}, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_NameErrors(t *testing.T) {
	rec := &recorder{dir: t.TempDir()}
	cases := []struct {
		part formdata.Part
		code string
	}{
		{textPart("", "x"), formdata.CodeContentDisposition},
		{textPart("[]", "x"), formdata.CodeContentDisposition},
		{textPart("nope", "x"), formdata.CodeFieldType},
		{textPart("Hi", "x"), formdata.CodeFieldType},
		{filePart("Hey[]", "a.png", "image/png", "x"), formdata.CodeFieldType},
	}
	for _, tc := range cases {
		_, err := formdata.Process(context.Background(), parts(tc.part), uploadForm(rec))
		if it := singleIssue(t, err); it.Code != tc.code {
			t.Fatalf("%q: got %+v, want %s", tc.part.ContentDisposition().Name, it, tc.code)
		}
	}
	if len(rec.cts) != 0 {
		t.Fatalf("generator must not run for rejected names, saw %v", rec.cts)
	}
}

func TestProcess_Filename(t *testing.T) {
	rec := &recorder{dir: t.TempDir()}
	_, err := formdata.Process(context.Background(), parts(filePart("files[]", "", "image/png", "x")), uploadForm(rec))
	if it := singleIssue(t, err); it.Code != formdata.CodeFilename {
		t.Fatalf("unexpected issue %+v", it)
	}

	got, err := formdata.Process(context.Background(), parts(filePart("files[]", `..\..\C:\evil/x.png`, "", "x")), uploadForm(rec))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if fs := formdata.Files(got); len(fs) != 1 || fs[0].Filename != "x.png" {
		t.Fatalf("want base name x.png, got %+v", fs)
	}
}

func TestProcess_ContentTypeGuess(t *testing.T) {
	rec := &recorder{dir: t.TempDir()}
	_, err := formdata.Process(context.Background(), parts(
		filePart("files[]", "a.png", "", "x"),
		filePart("files[]", "noext", "", "x"),
		filePart("files[]", "a.png", "text/plain", "x"),
	), uploadForm(rec))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []string{"image/png", "application/octet-stream", "text/plain"}
	if diff := cmp.Diff(want, rec.cts); diff != "" {
		t.Fatalf("content types mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_GeneratorDeclines(t *testing.T) {
	form := formdata.NewForm().Field("f", g.FileFunc(func(string) (string, bool) { return "", false }))
	_, err := formdata.Process(context.Background(), parts(filePart("f", "a", "", "x")), form)
	if it := singleIssue(t, err); it.Code != formdata.CodeGenFilename || it.Path != "/f" {
		t.Fatalf("unexpected issue %+v", it)
	}
}

func TestProcess_MkDirFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	form := formdata.NewForm().Field("f", g.FileFunc(func(string) (string, bool) {
		return filepath.Join(blocker, "sub", "x.bin"), true
	}))
	_, err := formdata.Process(context.Background(), parts(filePart("f", "a", "", "x")), form)
	if it := singleIssue(t, err); it.Code != formdata.CodeMkDir || it.Cause == nil {
		t.Fatalf("unexpected issue %+v", it)
	}
}

func TestProcess_DuplicateField(t *testing.T) {
	_, err := formdata.Process(context.Background(), parts(
		textPart("Hey", "a"),
		textPart("Hey", "b"),
	), uploadForm(&recorder{dir: t.TempDir()}))
	if it := singleIssue(t, err); it.Code != formdata.CodeDuplicateField || it.Path != "/Hey" {
		t.Fatalf("unexpected issue %+v", it)
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestProcess_SourceErrors(t *testing.T) {
	boom := errors.New("boom")
	src := formdata.PartSourceFunc(func(context.Context) (formdata.Part, error) { return nil, boom })
	_, err := formdata.Process(context.Background(), src, uploadForm(&recorder{dir: t.TempDir()}))
	if it := singleIssue(t, err); it.Code != formdata.CodeMultipart || !errors.Is(err, boom) {
		t.Fatalf("unexpected issue %+v", it)
	}

	broken := &fakePart{Reader: failingReader{boom}, cd: formdata.ContentDisposition{Name: "Hey"}}
	_, err = formdata.Process(context.Background(), parts(broken), uploadForm(&recorder{dir: t.TempDir()}))
	if it := singleIssue(t, err); it.Code != formdata.CodeMultipart || it.Path != "/Hey" {
		t.Fatalf("unexpected issue %+v", it)
	}
}

func TestProcess_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := formdata.Process(ctx, parts(textPart("Hey", "x")), uploadForm(&recorder{dir: t.TempDir()}))
	if it := singleIssue(t, err); it.Code != formdata.CodeCanceled || !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected issue %+v", it)
	}
}

func TestProcess_InvalidForm(t *testing.T) {
	_, err := formdata.Process(context.Background(), parts(), formdata.NewForm().Field("", g.Text()))
	if !formdata.HasCode(err, formdata.CodeInternal) {
		t.Fatalf("want internal, got %v", err)
	}
	_, err = formdata.Process(context.Background(), parts(), nil)
	if !formdata.HasCode(err, formdata.CodeInternal) {
		t.Fatalf("want internal, got %v", err)
	}
}

func TestProcess_LogsAcceptedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	_, err := formdata.Process(context.Background(), parts(
		textPart("Hey", "a"),
		textPart("Hi[One]", "1"),
	), uploadForm(&recorder{dir: t.TempDir()}), formdata.ProcessOpt{Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n := logs.FilterMessage("field accepted").Len(); n != 2 {
		t.Fatalf("want 2 field events, got %d", n)
	}
	if n := logs.FilterMessage("submission accepted").Len(); n != 1 {
		t.Fatalf("want 1 summary event, got %d", n)
	}
}

func TestProcess_ChunkBoundaries(t *testing.T) {
	body := strings.Repeat("0123456789", 1000)
	for _, chunk := range []int{1, 7, 4096, 1 << 20} {
		rec := &recorder{dir: t.TempDir()}
		got, err := formdata.Process(context.Background(), parts(filePart("files[]", "a", "", body)),
			uploadForm(rec), formdata.ProcessOpt{ChunkSize: chunk, QueueSize: 2})
		if err != nil {
			t.Fatalf("chunk %d: %v", chunk, err)
		}
		f := formdata.Files(got)[0]
		if f.Size != int64(len(body)) || f.Checksum != xxh3.HashString(body) {
			t.Fatalf("chunk %d: unexpected file %+v", chunk, f)
		}
		b, _ := os.ReadFile(f.StoredAs)
		if string(b) != body {
			t.Fatalf("chunk %d: stored bytes differ", chunk)
		}
	}
}
