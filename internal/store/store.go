package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/roach88/appstore/internal/ir"
)

//go:embed schema_sqlite.sql
var schemaSQLite string

//go:embed schema_postgres.sql
var schemaPostgres string

// Schema version tracking:
// 1 - records + links tables
const currentSchemaVersion = 1

// Driver names a database/sql driver the store can run on.
type Driver string

const (
	DriverSQLite3  Driver = "sqlite3" // github.com/mattn/go-sqlite3
	DriverSQLite   Driver = "sqlite"  // modernc.org/sqlite
	DriverPostgres Driver = "pgx"     // github.com/jackc/pgx/v5/stdlib
)

// ParseDriver accepts the driver names above plus "postgres".
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DriverSQLite3):
		return DriverSQLite3, nil
	case string(DriverSQLite):
		return DriverSQLite, nil
	case string(DriverPostgres), "postgres", "postgresql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unknown store driver %q", s)
}

func (d Driver) postgres() bool { return d == DriverPostgres }

// Store provides durable storage for records and links.
// It implements ir.ImmutableStore and ir.LinkGraph.
type Store struct {
	db     *sql.DB
	driver Driver
}

var (
	_ ir.ImmutableStore = (*Store)(nil)
	_ ir.LinkGraph      = (*Store)(nil)
)

// Open creates or opens a SQLite database at the given path using the
// default driver. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	return OpenDriver(DriverSQLite3, path)
}

// OpenDriver opens dsn with the given driver, applies pragmas (SQLite only)
// and the schema. This function is idempotent - safe to call multiple times.
func OpenDriver(driver Driver, dsn string) (*Store, error) {
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !driver.postgres() {
		// SQLite only supports one writer at a time; a single connection
		// also keeps a ":memory:" database alive for the Store's lifetime.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	s := &Store{db: db, driver: driver}
	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver reports which driver the store runs on.
func (s *Store) Driver() Driver {
	return s.driver
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if !s.driver.postgres() {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps the version.
func (s *Store) applySchema() error {
	ddl := schemaSQLite
	if s.driver.postgres() {
		ddl = schemaPostgres
	}
	for _, stmt := range splitStatements(ddl) {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// splitStatements splits a DDL file on semicolons. The schema files hold no
// string literals containing ';'.
func splitStatements(ddl string) []string {
	var out []string
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// runMigrations reads the stored schema version and refuses databases
// written by a newer build.
func (s *Store) runMigrations() error {
	version, err := s.schemaVersion()
	if err != nil {
		return err
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if version == currentSchemaVersion {
		return nil
	}
	return s.setSchemaVersion(currentSchemaVersion)
}

func (s *Store) schemaVersion() (int, error) {
	var version int
	if s.driver.postgres() {
		err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("get schema version: %w", err)
		}
		return version, nil
	}
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

func (s *Store) setSchemaVersion(version int) error {
	if s.driver.postgres() {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		defer tx.Rollback()
		if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES ($1)", version); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return tx.Commit()
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// Counts reports table sizes, for metrics.
type Counts struct {
	Records int64
	Links   int64
}

// Counts returns the number of stored records and links.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&c.Records); err != nil {
		return Counts{}, fmt.Errorf("count records: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM links").Scan(&c.Links); err != nil {
		return Counts{}, fmt.Errorf("count links: %w", err)
	}
	return c, nil
}
