package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/appstore/internal/blob"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "sqlite3", cfg.Storage.Driver)
	assert.Equal(t, LedgerSQL, cfg.Ledger.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TTL)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: postgres
  dsn: postgres://localhost/appstore
ledger:
  backend: blob
  blob:
    driver: s3
    s3:
      bucket: records
      region: eu-west-1
      path_style: true
auth:
  secret: s3cret
  ttl: 2h
log:
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/appstore", cfg.Storage.DSN)
	assert.Equal(t, LedgerBlob, cfg.Ledger.Backend)
	assert.Equal(t, "records", cfg.Ledger.Blob.S3.Bucket)
	assert.True(t, cfg.Ledger.Blob.S3.PathStyle)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TTL)
	assert.Equal(t, "appstore", cfg.Auth.Issuer, "unset keys keep their defaults")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "http:\n  addr: \":9000\"\nauth:\n  secret: from-file\n")
	t.Setenv("APPSTORE_AUTH_SECRET", "from-env")
	t.Setenv("APPSTORE_LOG_LEVEL", "debug")
	t.Setenv("APPSTORE_TELEMETRY_ENDPOINT", "http://collector:4318")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "http://collector:4318", cfg.Telemetry.Endpoint)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "storage:\n  engine: sqlite\n"},
		{"unknown driver", "storage:\n  driver: mysql\n"},
		{"unknown backend", "ledger:\n  backend: tape\n"},
		{"fs without root", "ledger:\n  backend: blob\n  blob:\n    driver: fs\n"},
		{"s3 without bucket", "ledger:\n  backend: blob\n  blob:\n    driver: s3\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"negative ttl", "auth:\n  ttl: -1h\n"},
		{"bad log level", "log:\n  level: verbose\n"},
		{"memory ledger over file store", "ledger:\n  backend: blob\n  blob:\n    driver: memory\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MemoryLedgerWithMemoryStore(t *testing.T) {
	cfg, err := Load(writeConfig(t, "storage:\n  dsn: \":memory:\"\nledger:\n  backend: blob\n  blob:\n    driver: memory\n"))
	require.NoError(t, err)
	assert.Equal(t, string(blob.DriverMemory), cfg.Ledger.Blob.Driver)
}

func TestLog_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := Log{Level: tt.level}.SlogLevel()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Log{Level: "verbose"}.SlogLevel()
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestBlobStore(t *testing.T) {
	cfg := Default()
	cfg.Ledger.Blob = BlobConfig{Driver: "fs", Root: "/var/lib/appstore"}
	bc := cfg.BlobStore()
	assert.Equal(t, blob.DriverFilesystem, bc.Driver)
	assert.Equal(t, "/var/lib/appstore", bc.Root)
}
