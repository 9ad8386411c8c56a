package formdata

// IssueAt creates an Issue for the field at parts with a translated message.
// It lets adapters outside this package report problems in the same shape as
// Process.
func IssueAt(parts []NamePart, code string, cause error, params map[string]any) Issue {
	it := newIssue(code, cause, params)
	if parts != nil {
		it.Path = Pointer(parts)
	}
	return it
}
