package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/appstore/internal/ir"
)

// Put stores data under its content hash.
// Uses ON CONFLICT(hash) DO NOTHING: identical bodies are written once and
// every writer gets the same hash back.
func (s *Store) Put(ctx context.Context, data []byte) (ir.Hash, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("put record: empty body")
	}
	hash := ir.ContentHash(data)

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO records (hash, body)
		VALUES (?, ?)
		ON CONFLICT(hash) DO NOTHING
	`), string(hash), data)
	if err != nil {
		return "", fmt.Errorf("put record: %w", err)
	}
	return hash, nil
}

// Get returns the body stored under hash, or an error wrapping
// ir.ErrNotFound.
func (s *Store) Get(ctx context.Context, hash ir.Hash) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT body FROM records WHERE hash = ?
	`), string(hash)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get record %s: %w", hash.Short(), ir.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", hash.Short(), err)
	}
	return body, nil
}

// Has reports whether a record is stored under hash.
func (s *Store) Has(ctx context.Context, hash ir.Hash) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM records WHERE hash = ?
	`), string(hash)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has record %s: %w", hash.Short(), err)
	}
	return n > 0, nil
}
