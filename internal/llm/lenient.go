package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// listFields may legally arrive as a bare string from the model; storage
// always uses an ordered list.
var listFields = []string{"conclusions", "formulas"}

// optStrings are optional fields we silently drop when malformed, so the
// overall document can still validate.
var optStrings = []string{"comments", "tags", "page_source", "parameters", "purpose"}

// NormalizeFlexibleFields rewrites a raw model response so it satisfies the
// strict storage shape: bare strings in list positions become one-element
// lists, list elements are coerced to strings, and malformed optionals are
// dropped. Returns the rewritten JSON plus the names of touched fields.
func NormalizeFlexibleFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var touched []string

	for _, k := range listFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			m[k] = []string{}
			touched = append(touched, k)
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				m[k] = []string{}
			} else {
				m[k] = []string{s}
			}
			touched = append(touched, k)
		case []any:
			out := make([]string, 0, len(t))
			coerced := false
			for _, el := range t {
				switch e := el.(type) {
				case string:
					out = append(out, e)
				case float64:
					out = append(out, fmt.Sprintf("%v", e))
					coerced = true
				default:
					coerced = true // drop objects and the like
				}
			}
			m[k] = out
			if coerced {
				touched = append(touched, k)
			}
		default:
			m[k] = []string{}
			touched = append(touched, k)
		}
	}

	for _, k := range optStrings {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			// fine as-is
		case nil:
			delete(m, k)
			touched = append(touched, k)
		case float64:
			// page numbers sometimes come back numeric
			m[k] = strings.TrimSuffix(fmt.Sprintf("%v", t), ".0")
			touched = append(touched, k)
		default:
			delete(m, k)
			touched = append(touched, k)
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, touched, nil
}
