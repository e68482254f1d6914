// Package config loads appstore configuration: built-in defaults, then an
// optional YAML file, then APPSTORE_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/appstore/internal/blob"
	"github.com/roach88/appstore/internal/store"
)

// memoryDSN is the SQLite DSN of a store that lives only as long as the
// process.
const memoryDSN = ":memory:"

// Ledger backends.
const (
	LedgerSQL  = "sql"
	LedgerBlob = "blob"
)

// Config is the full process configuration.
type Config struct {
	Storage   Storage   `yaml:"storage" envPrefix:"STORAGE_"`
	Ledger    Ledger    `yaml:"ledger" envPrefix:"LEDGER_"`
	Auth      Auth      `yaml:"auth" envPrefix:"AUTH_"`
	HTTP      HTTP      `yaml:"http" envPrefix:"HTTP_"`
	Telemetry Telemetry `yaml:"telemetry" envPrefix:"TELEMETRY_"`
	Log       Log       `yaml:"log" envPrefix:"LOG_"`
}

// Storage selects the SQL substrate holding links (and records, unless
// the ledger is a blob store).
type Storage struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	DSN    string `yaml:"dsn" env:"DSN"`
}

// Ledger selects where revision records are written.
type Ledger struct {
	Backend string     `yaml:"backend" env:"BACKEND"`
	Blob    BlobConfig `yaml:"blob" envPrefix:"BLOB_"`
}

// BlobConfig configures the blob ledger.
type BlobConfig struct {
	Driver string   `yaml:"driver" env:"DRIVER"`
	Root   string   `yaml:"root" env:"ROOT"`
	S3     S3Config `yaml:"s3" envPrefix:"S3_"`
}

// S3Config configures the S3 blob driver. Credentials fall back to the
// default AWS chain when empty.
type S3Config struct {
	Bucket          string `yaml:"bucket" env:"BUCKET"`
	Region          string `yaml:"region" env:"REGION"`
	Prefix          string `yaml:"prefix" env:"PREFIX"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"`
	PathStyle       bool   `yaml:"path_style" env:"PATH_STYLE"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
}

// Auth configures identity tokens.
type Auth struct {
	Secret string        `yaml:"secret" env:"SECRET"`
	Issuer string        `yaml:"issuer" env:"ISSUER"`
	TTL    time.Duration `yaml:"ttl" env:"TTL"`
}

// HTTP configures the gateway.
type HTTP struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// Telemetry configures tracing. An empty endpoint disables it.
type Telemetry struct {
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration: a local SQLite file and no
// telemetry.
func Default() Config {
	return Config{
		Storage: Storage{Driver: string(store.DriverSQLite3), DSN: "appstore.db"},
		Ledger:  Ledger{Backend: LedgerSQL, Blob: BlobConfig{Driver: string(blob.DriverMemory)}},
		Auth:    Auth{Issuer: "appstore", TTL: 24 * time.Hour},
		HTTP:    HTTP{Addr: ":8080"},
		Telemetry: Telemetry{
			ServiceName: "appstore",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path may be empty; a named file that
// does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "APPSTORE_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeYAML decodes data over cfg, rejecting unknown keys.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks values the loaders cannot.
func (c Config) Validate() error {
	if _, err := store.ParseDriver(c.Storage.Driver); err != nil {
		return fmt.Errorf("storage.driver: %w", err)
	}
	if c.Storage.DSN == "" {
		return errors.New("storage.dsn is required")
	}
	switch c.Ledger.Backend {
	case LedgerSQL:
	case LedgerBlob:
		switch blob.Driver(c.Ledger.Blob.Driver) {
		case blob.DriverMemory:
			// Links persist in SQL; records kept in memory would not.
			if c.Storage.DSN != memoryDSN {
				return fmt.Errorf("ledger.blob.driver: memory needs storage.dsn %q, got %q", memoryDSN, c.Storage.DSN)
			}
		case blob.DriverFilesystem:
			if c.Ledger.Blob.Root == "" {
				return errors.New("ledger.blob.root is required for the fs driver")
			}
		case blob.DriverS3:
			if c.Ledger.Blob.S3.Bucket == "" {
				return errors.New("ledger.blob.s3.bucket is required for the s3 driver")
			}
		default:
			return fmt.Errorf("ledger.blob.driver: unknown driver %q", c.Ledger.Blob.Driver)
		}
	default:
		return fmt.Errorf("ledger.backend: want %q or %q, got %q", LedgerSQL, LedgerBlob, c.Ledger.Backend)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: want text or json, got %q", c.Log.Format)
	}
	if c.Auth.TTL < 0 {
		return errors.New("auth.ttl must not be negative")
	}
	return nil
}

// SlogLevel parses Level. Empty means info.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// BlobStore converts the blob section into a blob.Config.
func (c Config) BlobStore() blob.Config {
	b := c.Ledger.Blob
	return blob.Config{
		Driver: blob.Driver(b.Driver),
		Root:   b.Root,
		S3: blob.S3Config{
			Region:          b.S3.Region,
			Bucket:          b.S3.Bucket,
			Prefix:          b.S3.Prefix,
			Endpoint:        b.S3.Endpoint,
			AccessKeyID:     b.S3.AccessKeyID,
			SecretAccessKey: b.S3.SecretAccessKey,
			PathStyle:       b.S3.PathStyle,
		},
	}
}
