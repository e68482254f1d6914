package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Name)
			assert.NotEmpty(t, s.Steps)
		})
	}
}

func TestParseScenario_Fields(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: demo
description: "demo"
steps:
  - op: create_publisher
    as: alice
    at: 50
    input: { name: Acme }
    save: { acme: id }
  - op: get_publisher
    input: { id: $acme }
    expect: { type: failure, error: NotFound }
assertions:
  - type: trace_count
    op: get_publisher
    count: 0
`))
	require.NoError(t, err)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "alice", s.Steps[0].As)
	require.NotNil(t, s.Steps[0].At)
	assert.Equal(t, int64(50), *s.Steps[0].At)
	assert.Equal(t, map[string]string{"acme": "id"}, s.Steps[0].Save)
	assert.Equal(t, map[string]any{"id": "$acme"}, s.Steps[1].Input)
	assert.Equal(t, OutcomeFailure, s.Steps[1].Expect.Type)
	require.NotNil(t, s.Assertions[0].Count)
	assert.Equal(t, 0, *s.Assertions[0].Count)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"unknown key", "name: x\ndescription: y\nstep: []\n", "field step not found"},
		{"missing name", "description: y\nsteps: [{op: whoami}]\n", "name is required"},
		{"missing description", "name: x\nsteps: [{op: whoami}]\n", "description is required"},
		{"no steps", "name: x\ndescription: y\n", "steps list is required"},
		{"missing op", "name: x\ndescription: y\nsteps: [{as: alice}]\n", "op is required"},
		{"bad expect type", "name: x\ndescription: y\nsteps: [{op: whoami, expect: {type: maybe}}]\n", "type must be success or failure"},
		{"error on success", "name: x\ndescription: y\nsteps: [{op: whoami, expect: {error: NotFound}}]\n", "only valid with type failure"},
		{"unknown kind", "name: x\ndescription: y\nsteps: [{op: whoami, expect: {type: failure, error: Oops}}]\n", "unknown error kind"},
		{"save on failure", "name: x\ndescription: y\nsteps: [{op: whoami, expect: {type: failure}, save: {a: id}}]\n", "save needs a success payload"},
		{"bad var name", "name: x\ndescription: y\nsteps: [{op: whoami, save: {1a: id}}]\n", "invalid variable name"},
		{"unknown assertion", "name: x\ndescription: y\nsteps: [{op: whoami}]\nassertions: [{type: final_state}]\n", "unknown assertion type"},
		{"trace_count without count", "name: x\ndescription: y\nsteps: [{op: whoami}]\nassertions: [{type: trace_count, op: whoami}]\n", "non-negative count"},
		{"empty collection check", "name: x\ndescription: y\nsteps: [{op: whoami}]\nassertions: [{type: collection, op: get_all_apps}]\n", "needs count, contains or excludes"},
		{"trace_order without ops", "name: x\ndescription: y\nsteps: [{op: whoami}]\nassertions: [{type: trace_order}]\n", "ops list is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
