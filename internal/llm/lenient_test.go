package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalize(t *testing.T, in string) (map[string]any, []string) {
	t.Helper()
	out, touched, err := NormalizeFlexibleFields([]byte(in))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	return m, touched
}

func TestNormalize_BareStringBecomesSingletonList(t *testing.T) {
	m, touched := normalize(t, `{"title":"T","conclusions":"one finding"}`)

	assert.Equal(t, []any{"one finding"}, m["conclusions"])
	assert.Contains(t, touched, "conclusions")
}

func TestNormalize_ListPassesUntouched(t *testing.T) {
	m, touched := normalize(t, `{"conclusions":["a","b"],"formulas":["E=mc^2"]}`)

	assert.Equal(t, []any{"a", "b"}, m["conclusions"])
	assert.Equal(t, []any{"E=mc^2"}, m["formulas"])
	assert.Empty(t, touched)
}

func TestNormalize_NullListBecomesEmpty(t *testing.T) {
	m, touched := normalize(t, `{"formulas":null}`)

	assert.Equal(t, []any{}, m["formulas"])
	assert.Contains(t, touched, "formulas")
}

func TestNormalize_MixedElementsCoerced(t *testing.T) {
	m, touched := normalize(t, `{"conclusions":["a",42,{"nested":true}]}`)

	assert.Equal(t, []any{"a", "42"}, m["conclusions"])
	assert.Contains(t, touched, "conclusions")
}

func TestNormalize_NumericPageSource(t *testing.T) {
	m, touched := normalize(t, `{"page_source":3}`)

	assert.Equal(t, "3", m["page_source"])
	assert.Contains(t, touched, "page_source")
}

func TestNormalize_MalformedOptionalDropped(t *testing.T) {
	m, touched := normalize(t, `{"comments":{"oops":true},"tags":null,"title":"T"}`)

	assert.NotContains(t, m, "comments")
	assert.NotContains(t, m, "tags")
	assert.Equal(t, "T", m["title"])
	assert.ElementsMatch(t, []string{"comments", "tags"}, touched)
}

func TestNormalize_InvalidJSONRejected(t *testing.T) {
	_, _, err := NormalizeFlexibleFields([]byte("{nope"))
	assert.Error(t, err)
}

func TestNormalizedOutputValidatesStrictly(t *testing.T) {
	raw := `{"title":"T","purpose":"P","conclusions":"single","formulas":null,"page_source":2}`
	out, _, err := NormalizeFlexibleFields([]byte(raw))
	require.NoError(t, err)

	assert.NoError(t, ValidatePaper(out))
}
