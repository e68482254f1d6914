// Package substrate opens the record store and link graph named by the
// configuration.
package substrate

import (
	"context"
	"fmt"

	"github.com/roach88/appstore/internal/blob"
	"github.com/roach88/appstore/internal/config"
	"github.com/roach88/appstore/internal/ir"
	"github.com/roach88/appstore/internal/store"
)

// Substrate pairs an immutable record store with a link graph.
type Substrate struct {
	Records ir.ImmutableStore
	Links   ir.LinkGraph

	sql    *store.Store
	ledger *blob.Ledger
}

// Open opens the SQL store and, for the blob backend, the blob ledger.
// The SQL store always holds the links.
func Open(ctx context.Context, cfg config.Config) (*Substrate, error) {
	driver, err := store.ParseDriver(cfg.Storage.Driver)
	if err != nil {
		return nil, err
	}
	st, err := store.OpenDriver(driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	sub := &Substrate{Records: st, Links: st, sql: st}

	if cfg.Ledger.Backend == config.LedgerBlob {
		bs, err := blob.Open(ctx, cfg.BlobStore())
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open blob ledger: %w", err)
		}
		sub.ledger = blob.NewLedger(bs)
		sub.Records = sub.ledger
	}
	return sub, nil
}

// Stats reports object counts keyed by storage type, for the
// storage-count gauge.
func (s *Substrate) Stats(ctx context.Context) (map[string]int64, error) {
	c, err := s.sql.Counts(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]int64{"links": c.Links}
	if s.ledger == nil {
		out["records"] = c.Records
		return out, nil
	}
	n, err := s.ledger.Count(ctx)
	if err != nil {
		return nil, err
	}
	out["records"] = n
	return out, nil
}

// Close closes the SQL store.
func (s *Substrate) Close() error {
	return s.sql.Close()
}
