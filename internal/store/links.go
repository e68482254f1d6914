package store

import (
	"context"
	"fmt"

	"github.com/roach88/appstore/internal/ir"
)

// Link adds a typed edge from base to target.
// Uses ON CONFLICT DO NOTHING on UNIQUE(base, target, link_type, tag):
// adding an identical edge twice is a no-op.
func (s *Store) Link(ctx context.Context, base, target ir.Hash, lt ir.LinkType, tag string) error {
	if base.IsZero() || target.IsZero() {
		return fmt.Errorf("link %s: base and target are required", lt)
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO links (base, target, link_type, tag)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (base, target, link_type, tag) DO NOTHING
	`), string(base), string(target), string(lt), tag)
	if err != nil {
		return fmt.Errorf("link %s %s -> %s: %w", lt, base.Short(), target.Short(), err)
	}
	return nil
}

// LinksFrom returns all edges of type lt leaving base, in insertion order.
// Returns an empty slice (not nil) when there are none.
func (s *Store) LinksFrom(ctx context.Context, base ir.Hash, lt ir.LinkType) ([]ir.Link, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT base, target, link_type, tag
		FROM links
		WHERE base = ? AND link_type = ?
		ORDER BY id ASC
	`), string(base), string(lt))
	if err != nil {
		return nil, fmt.Errorf("links from %s: %w", base.Short(), err)
	}
	defer rows.Close()

	links := make([]ir.Link, 0)
	for rows.Next() {
		var l ir.Link
		var b, t, typ string
		if err := rows.Scan(&b, &t, &typ, &l.Tag); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.Base, l.Target, l.Type = ir.Hash(b), ir.Hash(t), ir.LinkType(typ)
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("links from %s: %w", base.Short(), err)
	}
	return links, nil
}
