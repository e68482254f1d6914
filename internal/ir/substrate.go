package ir

import (
	"context"
	"errors"
)

// ErrNotFound is returned by substrates when a hash has no visible record.
// Under eventual consistency it may mean "not yet propagated".
var ErrNotFound = errors.New("not found")

// ImmutableStore is write-once, content-addressed storage.
// Put must be idempotent: identical bytes always yield the same Hash.
type ImmutableStore interface {
	Put(ctx context.Context, data []byte) (Hash, error)
	Get(ctx context.Context, hash Hash) ([]byte, error)
}

// LinkGraph holds typed directed edges. Edges are append-only; adding an
// identical edge (same base, target, type and tag) is a no-op.
// LinksFrom returns edges in insertion order and an empty slice, not nil,
// when there are none.
type LinkGraph interface {
	Link(ctx context.Context, base, target Hash, lt LinkType, tag string) error
	LinksFrom(ctx context.Context, base Hash, lt LinkType) ([]Link, error)
}
