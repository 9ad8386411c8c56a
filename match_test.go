package formdata_test

import (
	"testing"

	"github.com/reoring/formdata"
	g "github.com/reoring/formdata/dsl"
)

func matchForm() *formdata.Form {
	return formdata.NewForm().
		Field("Hey", g.Text()).
		Field("Hi", g.Map().
			Field("One", g.Int()).
			Field("Two", g.Float()).
			MustBuild()).
		Field("files", g.Array(g.FileFunc(func(string) (string, bool) { return "x", true }))).
		Field("rows", g.Array(g.Map().Field("n", g.Int()).MustBuild()))
}

func mustParse(t *testing.T, name string) []formdata.NamePart {
	t.Helper()
	parts, err := formdata.ParseName(name)
	if err != nil {
		t.Fatalf("ParseName(%q): %v", name, err)
	}
	return parts
}

func TestMatch_Terminals(t *testing.T) {
	form := matchForm()
	cases := map[string]formdata.Kind{
		"Hey":       formdata.KindText,
		"Hi[One]":   formdata.KindInt,
		"Hi[Two]":   formdata.KindFloat,
		"files[]":   formdata.KindFile,
		"rows[][n]": formdata.KindInt,
	}
	for name, want := range cases {
		f, err := form.Match(mustParse(t, name))
		if err != nil {
			t.Fatalf("Match(%q): %v", name, err)
		}
		if f.Kind() != want {
			t.Fatalf("Match(%q) kind = %v, want %v", name, f.Kind(), want)
		}
	}
}

func TestMatch_Mismatch(t *testing.T) {
	form := matchForm()
	cases := map[string]string{
		"Hi":         "/Hi",
		"files":      "/files",
		"Hey[x]":     "/Hey/x",
		"Hey[]":      "/Hey/-",
		"Hi[]":       "/Hi/-",
		"Hi[Three]":  "/Hi/Three",
		"files[x]":   "/files/x",
		"files[][a]": "/files/-/a",
		"rows[]":     "/rows/-",
		"unknown":    "/unknown",
	}
	for name, path := range cases {
		_, err := form.Match(mustParse(t, name))
		iss, ok := formdata.AsIssues(err)
		if !ok || len(iss) != 1 {
			t.Fatalf("Match(%q): want one issue, got %v", name, err)
		}
		if iss[0].Code != formdata.CodeFieldType || iss[0].Path != path {
			t.Fatalf("Match(%q): got %+v, want field_type at %s", name, iss[0], path)
		}
	}
}

func TestMatch_Empty(t *testing.T) {
	if _, err := matchForm().Match(nil); !formdata.HasCode(err, formdata.CodeFieldType) {
		t.Fatalf("want field_type, got %v", err)
	}
}
