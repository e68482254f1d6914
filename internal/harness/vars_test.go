package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	vars := map[string]any{
		"id":   "abc",
		"list": []any{"x", "y"},
	}
	got, err := substitute(map[string]any{
		"base":  "$id",
		"alts":  []any{"$id", "plain"},
		"all":   "$list",
		"label": "entity ${id} here",
		"n":     3,
	}, vars)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"base":  "abc",
		"alts":  []any{"abc", "plain"},
		"all":   []any{"x", "y"},
		"label": "entity abc here",
		"n":     3,
	}, got)
}

func TestSubstitute_Errors(t *testing.T) {
	vars := map[string]any{"list": []any{"x"}}

	_, err := substitute("$missing", vars)
	assert.ErrorContains(t, err, "undefined variable $missing")

	_, err = substitute(map[string]any{"a": []any{"${missing}"}}, vars)
	assert.ErrorContains(t, err, "a: [0]: undefined variable ${missing}")

	_, err = substitute("x${list}", vars)
	assert.ErrorContains(t, err, "not a string")
}

func TestSubstitute_LeavesDollarLiterals(t *testing.T) {
	got, err := substitute("costs $5", nil)
	require.NoError(t, err)
	assert.Equal(t, "costs $5", got)
}

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"id": "abc",
		"items": []any{
			map[string]any{"id": "first"},
		},
	}
	v, err := lookup(doc, "id")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	v, err = lookup(doc, "items.0.id")
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	_, err = lookup(doc, "items.1.id")
	assert.ErrorContains(t, err, "bad index")
	_, err = lookup(doc, "nope")
	assert.ErrorContains(t, err, `no key "nope"`)
	_, err = lookup(doc, "id.deeper")
	assert.ErrorContains(t, err, "cannot descend")
}

func TestNormalizeAndMatch(t *testing.T) {
	type content struct {
		Name  string `json:"name"`
		Count int64  `json:"count"`
	}
	actual, err := normalize(map[string]any{"content": content{Name: "Acme", Count: 101}, "tags": []string{"a", "b"}})
	require.NoError(t, err)

	expected, err := normalize(map[string]any{"content": map[string]any{"count": 101}})
	require.NoError(t, err)
	assert.True(t, matches(actual, expected))
	assert.Equal(t, json.Number("101"), actual.(map[string]any)["content"].(map[string]any)["count"])

	tests := []struct {
		name     string
		expected any
		want     bool
	}{
		{"subset of keys", map[string]any{"content": map[string]any{"name": "Acme"}}, true},
		{"wrong scalar", map[string]any{"content": map[string]any{"name": "Other"}}, false},
		{"missing key", map[string]any{"missing": true}, false},
		{"array exact", map[string]any{"tags": []any{"a", "b"}}, true},
		{"array shorter", map[string]any{"tags": []any{"a"}}, false},
		{"map against array", map[string]any{"tags": map[string]any{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := normalize(tt.expected)
			require.NoError(t, err)
			assert.Equal(t, tt.want, matches(actual, exp))
		})
	}
}

func TestMemberIDs(t *testing.T) {
	ids, err := memberIDs([]any{map[string]any{"id": "a"}, map[string]any{"id": "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	_, err = memberIDs(map[string]any{"id": "a"})
	assert.ErrorContains(t, err, "not a collection")
}
