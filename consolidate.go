package formdata

// Entry pairs a parsed field name with the content realized for it.
type Entry struct {
	Name    []NamePart
	Content Content
}

// Wrap builds the single-path value for an entry: the content is placed at
// the innermost position and wrapped outward, an array placeholder becoming a
// one-element Array and a map key a one-entry Map.
func Wrap(name []NamePart, c Content) Value {
	var v Value = c
	for i := len(name) - 1; i >= 0; i-- {
		if name[i].Kind == PartArrayIndex {
			v = Array{v}
			continue
		}
		v = Map{name[i].Key: v}
	}
	return v
}

// Consolidate merges entries, in order, into one nested Map. Array elements
// keep the order their entries appear in.
func Consolidate(entries []Entry) (Map, error) {
	acc := Map{}
	for _, e := range entries {
		merged, err := Merge(acc, Wrap(e.Name, e.Content))
		if err != nil {
			return nil, err
		}
		acc = merged.(Map)
	}
	return acc, nil
}
