package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/appstore/internal/apperror"
	"github.com/roach88/appstore/internal/ir"
)

// Failure is one anchor that could not be written.
type Failure struct {
	Anchor Anchor
	Err    error
}

// PartialError reports that an entity was placed into some of its
// collections but not all. The entity itself exists; calling Index again
// with the same relations completes the placement.
type PartialError struct {
	ID       ir.Hash
	Failures []Failure
}

func (e *PartialError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Anchor.String()
	}
	return fmt.Sprintf("index %s: %d anchor(s) failed: %s", e.ID.Short(), len(e.Failures), strings.Join(names, ", "))
}

// Unwrap exposes the per-anchor causes to errors.Is and errors.As.
func (e *PartialError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Err
	}
	return out
}

// Indexer writes and reads collection membership.
type Indexer struct {
	records ir.ImmutableStore
	links   ir.LinkGraph
	logger  *slog.Logger

	// written remembers anchor nodes already put by this process.
	written sync.Map
}

// New creates an Indexer over the given substrate.
func New(records ir.ImmutableStore, links ir.LinkGraph, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{records: records, links: links, logger: logger}
}

// Index adds id to every collection derived from rel. Every anchor is
// attempted even when an earlier one fails; failures are returned together
// as a *PartialError. Re-indexing is a no-op for edges that already exist.
func (x *Indexer) Index(ctx context.Context, id ir.Hash, rel Relations) error {
	lt := ir.MembershipLink(rel.Kind)
	var failures []Failure
	for _, a := range Anchors(rel) {
		if err := x.place(ctx, a, id, lt); err != nil {
			x.logger.Warn("index anchor failed", "id", id.Short(), "anchor", a.String(), "error", err)
			failures = append(failures, Failure{Anchor: a, Err: err})
		}
	}
	if len(failures) > 0 {
		return &PartialError{ID: id, Failures: failures}
	}
	x.logger.Debug("entity indexed", "id", id.Short(), "kind", string(rel.Kind))
	return nil
}

func (x *Indexer) place(ctx context.Context, a Anchor, id ir.Hash, lt ir.LinkType) error {
	h, data, err := a.Record()
	if err != nil {
		return fmt.Errorf("anchor %s: %w", a, err)
	}
	if _, ok := x.written.Load(h); !ok {
		if _, err := x.records.Put(ctx, data); err != nil {
			return fmt.Errorf("put anchor %s: %w", a, err)
		}
		x.written.Store(h, struct{}{})
	}
	if err := x.links.Link(ctx, h, id, lt, ""); err != nil {
		return fmt.Errorf("link %s -> %s: %w", a, id.Short(), err)
	}
	return nil
}

// Collection returns the ids linked under a, in store order, without
// duplicates. Reading never writes the anchor node.
func (x *Indexer) Collection(ctx context.Context, a Anchor) ([]ir.Hash, error) {
	h, _, err := a.Record()
	if err != nil {
		return nil, apperror.Wrap(apperror.AppError, fmt.Sprintf("anchor %s", a), err)
	}
	links, err := x.links.LinksFrom(ctx, h, ir.MembershipLink(a.Kind()))
	if err != nil {
		return nil, apperror.Wrap(apperror.StorageFailure, fmt.Sprintf("read collection %s", a), err)
	}
	out := make([]ir.Hash, 0, len(links))
	seen := make(map[ir.Hash]bool, len(links))
	for _, l := range links {
		if seen[l.Target] {
			continue
		}
		seen[l.Target] = true
		out = append(out, l.Target)
	}
	return out, nil
}
