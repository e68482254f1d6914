package entity

import (
	"slices"
	"strings"

	"github.com/roach88/appstore/internal/ir"
)

// Version is one revision as seen by a reader: its hash, where it sits in
// the chain, who wrote it, and its content.
type Version[P any] struct {
	Hash     ir.Hash        `json:"hash"`
	Entity   ir.Hash        `json:"entity"`
	Prev     ir.Hash        `json:"prev,omitempty"`
	Editor   ir.AgentID     `json:"editor"`
	Revision ir.Revision[P] `json:"revision"`
}

// Newer reports whether a wins the tie-break over b: the larger
// last_updated wins, and equal timestamps go to the lexicographically
// larger hash. The order is total, so every reader picks the same head.
func Newer[P any](a, b Version[P]) bool {
	if a.Revision.LastUpdated != b.Revision.LastUpdated {
		return a.Revision.LastUpdated > b.Revision.LastUpdated
	}
	return strings.Compare(string(a.Hash), string(b.Hash)) > 0
}

// Chain is the revision DAG of one entity. It holds no I/O: a resolver
// adds versions as it discovers them and asks for the current head.
type Chain[P any] struct {
	root     ir.Hash
	versions map[ir.Hash]Version[P]
	next     map[ir.Hash][]ir.Hash
	order    []ir.Hash
}

// NewChain starts a chain at the creation version.
func NewChain[P any](root Version[P]) *Chain[P] {
	return &Chain[P]{
		root:     root.Hash,
		versions: map[ir.Hash]Version[P]{root.Hash: root},
		next:     make(map[ir.Hash][]ir.Hash),
		order:    []ir.Hash{root.Hash},
	}
}

// Root returns the creation version hash (the EntityId).
func (c *Chain[P]) Root() ir.Hash { return c.root }

// Has reports whether h is already part of the chain.
func (c *Chain[P]) Has(h ir.Hash) bool {
	_, ok := c.versions[h]
	return ok
}

// Version returns the version stored under h.
func (c *Chain[P]) Version(h ir.Hash) (Version[P], bool) {
	v, ok := c.versions[h]
	return v, ok
}

// Add records v as a successor of v.Prev. It returns false when v is
// already present or its predecessor is unknown.
func (c *Chain[P]) Add(v Version[P]) bool {
	if c.Has(v.Hash) || !c.Has(v.Prev) {
		return false
	}
	c.versions[v.Hash] = v
	c.next[v.Prev] = append(c.next[v.Prev], v.Hash)
	c.order = append(c.order, v.Hash)
	return true
}

// Leaves returns versions with no successor, current head first.
func (c *Chain[P]) Leaves() []Version[P] {
	leaves := make([]Version[P], 0, 1)
	for _, h := range c.order {
		if len(c.next[h]) == 0 {
			leaves = append(leaves, c.versions[h])
		}
	}
	slices.SortFunc(leaves, func(a, b Version[P]) int {
		if Newer(a, b) {
			return -1
		}
		if Newer(b, a) {
			return 1
		}
		return 0
	})
	return leaves
}

// Current returns the resolved head: the leaf that wins the tie-break.
func (c *Chain[P]) Current() Version[P] {
	return c.Leaves()[0]
}

// Forked reports whether more than one leaf exists.
func (c *Chain[P]) Forked() bool {
	return len(c.Leaves()) > 1
}

// Versions returns every version ordered oldest first by
// (last_updated, hash).
func (c *Chain[P]) Versions() []Version[P] {
	out := make([]Version[P], 0, len(c.order))
	for _, h := range c.order {
		out = append(out, c.versions[h])
	}
	slices.SortFunc(out, func(a, b Version[P]) int {
		if Newer(b, a) {
			return -1
		}
		if Newer(a, b) {
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of versions in the chain.
func (c *Chain[P]) Len() int { return len(c.order) }
