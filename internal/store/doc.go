// Package store provides SQL-backed durable storage for the catalog: a
// content-addressed record table (ir.ImmutableStore) and an append-only
// edge table (ir.LinkGraph).
//
// # Critical Patterns
//
// Content Addressing
//   - records.hash is ir.ContentHash(body); identical bodies collapse to one row
//   - Put never overwrites: INSERT ... ON CONFLICT(hash) DO NOTHING
//
// Idempotent Edges
//   - UNIQUE(base, target, link_type, tag)
//   - Re-adding an identical edge is a silent no-op, so index retries are safe
//
// Deterministic Query Results
//   - LinksFrom orders by insertion id, so readers see edges in write order
//   - Empty results are empty slices, never nil
//
// # Drivers
//
//   - sqlite3: github.com/mattn/go-sqlite3 (cgo, default)
//   - sqlite:  modernc.org/sqlite (pure Go)
//   - pgx:     github.com/jackc/pgx/v5/stdlib (PostgreSQL)
//
// SQLite databases are configured with WAL mode, synchronous=NORMAL, a
// 5-second busy timeout and a single open connection.
package store
