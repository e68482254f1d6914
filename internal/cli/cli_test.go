package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/appstore/internal/apperror"
)

const publisherInput = `{
	"name": "Acme",
	"location": {"country": "Canada", "region": "Ontario", "city": "Toronto"},
	"website": {"url": "https://acme.example"},
	"icon_src": ""
}`

// writeConfig writes a config backed by a sqlite file in a temp dir.
func writeConfig(t *testing.T, secret string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "storage:\n" +
		"  driver: sqlite3\n" +
		"  dsn: " + filepath.Join(dir, "appstore.db") + "\n" +
		"log:\n" +
		"  level: error\n"
	if secret != "" {
		cfg += "auth:\n  secret: " + secret + "\n"
	}
	path := filepath.Join(dir, "appstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type envelope struct {
	Type     string          `json:"type"`
	Metadata map[string]any  `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

func decodeEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	return env
}

func TestRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"call", "ops", "serve", "reindex", "token", "test"} {
		assert.Contains(t, names, want)
	}
	for _, flag := range []string{"verbose", "format", "config", "as", "token"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := execute(t, "", "--format", "xml", "ops")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCall_CreateThenGet(t *testing.T) {
	cfg := writeConfig(t, "")

	out, err := execute(t, "", "-c", cfg, "--as", "alice", "call", "create_publisher", publisherInput)
	require.NoError(t, err)
	env := decodeEnvelope(t, out)
	assert.Equal(t, "success", env.Type)
	assert.Equal(t, "entity", env.Metadata["composition"])
	assert.NotEmpty(t, env.Metadata["request_id"])

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &created))
	require.NotEmpty(t, created.ID)

	// A second process sees the same file.
	out, err = execute(t, "", "-c", cfg, "call", "get_publisher", `{"id":"`+created.ID+`"}`)
	require.NoError(t, err)
	env = decodeEnvelope(t, out)
	assert.Equal(t, "success", env.Type)
	assert.Contains(t, string(env.Payload), `"Acme"`)
}

func TestCall_Stdin(t *testing.T) {
	cfg := writeConfig(t, "")

	out, err := execute(t, publisherInput, "-c", cfg, "--as", "alice", "call", "create_publisher", "-")
	require.NoError(t, err)
	assert.Equal(t, "success", decodeEnvelope(t, out).Type)

	out, err = execute(t, "", "-c", cfg, "call", "get_all_publishers")
	require.NoError(t, err)
	var all []json.RawMessage
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, out).Payload, &all))
	assert.Len(t, all, 1)
}

func TestCall_FailureEnvelope(t *testing.T) {
	cfg := writeConfig(t, "")

	tests := []struct {
		name  string
		args  []string
		error string
	}{
		{"invalid hash", []string{"call", "get_publisher", `{"id":"nope"}`}, "ValidationError"},
		{"unknown operation", []string{"call", "drop_tables"}, "UserError"},
		{"no caller", []string{"call", "whoami"}, "UserError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", append([]string{"-c", cfg}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			env := decodeEnvelope(t, out)
			assert.Equal(t, "failure", env.Type)
			var f struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(env.Payload, &f))
			assert.Equal(t, tt.error, f.Error)
		})
	}
}

func TestCall_CommandErrors(t *testing.T) {
	_, err := execute(t, "", "-c", filepath.Join(t.TempDir(), "missing.yaml"), "call", "get_all_apps")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "call")
	require.Error(t, err)
}

func TestToken_AndCallWithToken(t *testing.T) {
	cfg := writeConfig(t, "cli-test-secret")

	out, err := execute(t, "", "-c", cfg, "token", "alice")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	out, err = execute(t, "", "-c", cfg, "--as", "mallory", "--token", token, "call", "whoami")
	require.NoError(t, err)
	assert.JSONEq(t, `{"agent":"alice"}`, string(decodeEnvelope(t, out).Payload))

	_, err = execute(t, "", "-c", cfg, "--token", "not-a-token", "call", "whoami")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, apperror.IsKind(err, apperror.Unauthorized))
}

func TestToken_JSON(t *testing.T) {
	cfg := writeConfig(t, "cli-test-secret")

	out, err := execute(t, "", "-c", cfg, "--format", "json", "token", "bob")
	require.NoError(t, err)
	var resp struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "bob", resp.Data["agent"])
	assert.NotEmpty(t, resp.Data["token"])
}

func TestToken_RequiresSecret(t *testing.T) {
	cfg := writeConfig(t, "")

	_, err := execute(t, "", "-c", cfg, "token", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "-c", cfg, "--token", "abc", "call", "whoami")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestOps(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "ops")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			Name        string `json:"name"`
			Composition string `json:"composition"`
			Caller      bool   `json:"requires_caller"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	byName := map[string]bool{}
	for _, op := range resp.Data {
		byName[op.Name] = op.Caller
	}
	assert.True(t, byName["create_app"])
	assert.Contains(t, byName, "get_all_publishers")
	assert.False(t, byName["get_all_publishers"])

	out, err = execute(t, "", "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "get_apps_for_publisher")
	assert.Contains(t, out, "entity_collection")
}

func TestReindex(t *testing.T) {
	cfg := writeConfig(t, "")

	out, err := execute(t, "", "-c", cfg, "--as", "alice", "call", "create_publisher", publisherInput)
	require.NoError(t, err)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, out).Payload, &created))

	out, err = execute(t, "", "-c", cfg, "--format", "json", "reindex", "publisher", created.ID)
	require.NoError(t, err)
	var resp struct {
		Data struct {
			ID      string   `json:"id"`
			Anchors []string `json:"anchors"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, created.ID, resp.Data.ID)
	assert.Len(t, resp.Data.Anchors, 2)

	out, err = execute(t, "", "-c", cfg, "reindex", "publisher", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "into 2 collections")

	out, err = execute(t, "", "-c", cfg, "reindex", "widget", created.ID)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "ValidationError")
}

func TestTest_Scenarios(t *testing.T) {
	out, err := execute(t, "", "test", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err)
	assert.Contains(t, out, "3 scenarios: 3 passed, 0 failed")
}

func TestTest_FailingScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: broken
description: whoami answers with the wrong agent
steps:
  - op: whoami
    as: alice
    expect: { payload: { agent: bob } }
`), 0o644))

	out, err := execute(t, "", "test", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "1 scenarios: 0 passed, 1 failed")
	assert.Contains(t, out, "FAIL "+path+" (broken)")
}

func TestTest_CommandErrors(t *testing.T) {
	_, err := execute(t, "", "test", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "test", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped", WrapExitError(ExitFailure, "call", errors.New("x")), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestOutputFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Error(apperror.New(apperror.NotFound, "app not found").With("id", "abc")))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, apperror.NotFound, resp.Error.Kind)
	assert.Equal(t, "abc", resp.Error.Details["id"])

	buf.Reset()
	f.Format = "text"
	require.NoError(t, f.Error(apperror.New(apperror.NotFound, "app not found")))
	assert.True(t, strings.HasPrefix(buf.String(), "Error [NotFound]:"))
}
