package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/appstore/internal/ir"
)

const recordContentType = "application/json"

// Ledger serves a blob Store as an ir.ImmutableStore: every record lives at
// records/<first two hash chars>/<hash>. Create-only backends make Put
// naturally idempotent; an ErrExists from a concurrent writer of the same
// bytes is success.
type Ledger struct {
	store Store
}

var _ ir.ImmutableStore = (*Ledger)(nil)

// NewLedger wraps store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// RecordKey returns the object key for a record hash.
func RecordKey(h ir.Hash) string {
	prefix := "xx"
	if len(h) >= 2 {
		prefix = string(h[:2])
	}
	return "records/" + prefix + "/" + string(h)
}

// Put writes data under its content hash.
func (l *Ledger) Put(ctx context.Context, data []byte) (ir.Hash, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("put record: empty body")
	}
	hash := ir.ContentHash(data)
	if _, err := l.store.Put(ctx, RecordKey(hash), data, recordContentType); err != nil && !errors.Is(err, ErrExists) {
		return "", fmt.Errorf("put record: %w", err)
	}
	return hash, nil
}

// Get reads the record stored under hash. A missing object maps to
// ir.ErrNotFound.
func (l *Ledger) Get(ctx context.Context, hash ir.Hash) ([]byte, error) {
	data, err := l.store.Get(ctx, RecordKey(hash))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get record %s: %w", hash.Short(), ir.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", hash.Short(), err)
	}
	if got := ir.ContentHash(data); got != hash {
		return nil, fmt.Errorf("get record %s: content hash mismatch (got %s)", hash.Short(), got.Short())
	}
	return data, nil
}

// Count returns how many records the ledger holds.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	infos, err := l.store.List(ctx, "records/")
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return int64(len(infos)), nil
}
