package formdata

import (
	"strings"
)

// PartKind distinguishes the two kinds of name segments.
type PartKind int

const (
	PartMapKey PartKind = iota
	PartArrayIndex
)

// NamePart is one decoded segment of a bracket-notation field name.
type NamePart struct {
	Kind PartKind
	Key  string // Set for PartMapKey only.
}

// MapKey returns a map segment.
func MapKey(key string) NamePart { return NamePart{Kind: PartMapKey, Key: key} }

// ArrayIndex returns the unindexed array placeholder produced by "[]".
func ArrayIndex() NamePart { return NamePart{Kind: PartArrayIndex} }

// IsMap reports whether the segment addresses a map key.
func (p NamePart) IsMap() bool { return p.Kind == PartMapKey }

func (p NamePart) String() string {
	if p.Kind == PartArrayIndex {
		return "[]"
	}
	return p.Key
}

// ParseName splits a bracket-notation field name into segments, outermost
// first:
//
//	"Hi[One]"  -> [MapKey("Hi"), MapKey("One")]
//	"files[]"  -> [MapKey("files"), ArrayIndex]
//	"a[b][c]"  -> [MapKey("a"), MapKey("b"), MapKey("c")]
//
// The first segment must be a non-empty map key; otherwise the name is
// rejected with CodeContentDisposition.
func ParseName(name string) ([]NamePart, error) {
	pieces := strings.Split(name, "[")
	if pieces[0] == "" {
		return nil, malformedName(name)
	}
	parts := make([]NamePart, 0, len(pieces))
	for _, piece := range pieces {
		switch {
		case piece == "]":
			parts = append(parts, ArrayIndex())
		case strings.HasSuffix(piece, "]"):
			parts = append(parts, MapKey(strings.TrimRight(piece, "]")))
		default:
			parts = append(parts, MapKey(piece))
		}
	}
	if !parts[0].IsMap() {
		return nil, malformedName(name)
	}
	return parts, nil
}

func malformedName(name string) error {
	it := newIssue(CodeContentDisposition, nil, nil)
	it.Field = name
	return Issues{it}
}

// Pointer renders segments as a JSON Pointer. Array placeholders render as "-"
// (the element appended at the end).
func Pointer(parts []NamePart) string {
	if len(parts) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, p := range parts {
		b.WriteByte('/')
		if p.Kind == PartArrayIndex {
			b.WriteByte('-')
			continue
		}
		// escape '~' -> '~0', '/' -> '~1' per RFC6901
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(p.Key, "~", "~0"), "/", "~1"))
	}
	return b.String()
}
