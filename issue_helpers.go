package hwbits

// IssueAt creates an Issue at the given path with provided code and params map.
func IssueAt(p PathRef, code string, params map[string]any) Issue {
	return p.Issue(code, params)
}

func fieldIssue(schema, field, code string, params map[string]any) Issue {
	it := IssueAt(RootPath().Field(field), code, params)
	it.Schema = schema
	return it
}

func stringParams(params map[string]any) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = toString(v)
	}
	return out
}
