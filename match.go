package formdata

// Match walks the form schema along parts and returns the terminal field the
// path ends at. Map keys must name a declared child, array placeholders must
// meet an array node, and the walk must end at a scalar or file node; any
// other shape fails with CodeFieldType.
func (f *Form) Match(parts []NamePart) (*Field, error) {
	if len(parts) == 0 || !parts[0].IsMap() {
		return nil, mismatch(parts)
	}
	cur, ok := f.fields[parts[0].Key]
	if !ok {
		return nil, mismatch(parts)
	}
	for _, p := range parts[1:] {
		switch {
		case p.Kind == PartMapKey && cur.kind == KindMap:
			next, ok := cur.children[p.Key]
			if !ok {
				return nil, mismatch(parts)
			}
			cur = next
		case p.Kind == PartArrayIndex && cur.kind == KindArray:
			cur = cur.elem
		default:
			return nil, mismatch(parts)
		}
	}
	if !cur.IsTerminal() {
		return nil, mismatch(parts)
	}
	return cur, nil
}

func mismatch(parts []NamePart) error {
	it := newIssue(CodeFieldType, nil, nil)
	it.Path = Pointer(parts)
	return Issues{it}
}
