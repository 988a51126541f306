package llm

// BuildPaperJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the model as a structured-output constraint and
// also use it locally to validate the response. Conclusions and formulas
// accept either a string or a list of strings at this boundary; the lenient
// pass normalizes to a list before anything is stored.
func BuildPaperJSONSchema() map[string]any {
	props := map[string]any{
		"title":       map[string]any{"type": "string", "minLength": 1},
		"purpose":     map[string]any{"type": "string"},
		"conclusions": stringOrListProp(),
		"parameters":  map[string]any{"type": "string"},
		"formulas":    stringOrListProp(),
		"comments":    map[string]any{"type": "string"},
		"tags":        map[string]any{"type": "string"},
		"page_source": map[string]any{"type": "string"},
	}

	required := []string{"title", "purpose", "conclusions"}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func stringOrListProp() map[string]any {
	return map[string]any{
		"oneOf": []any{
			map[string]any{"type": "string"},
			map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}
}
