// Package index places entity ids into discoverable collections.
//
// A collection is named by an Anchor: a structured path such as
// [apps], [agents, <agent>, apps] or [publishers, <id>, apps]. Each anchor
// is a small canonical record in the ImmutableStore; membership is a typed
// edge from the anchor's hash to the member's EntityId.
package index

import (
	"slices"
	"strings"

	"github.com/roach88/appstore/internal/ir"
)

// Scope says which family of collection an Anchor belongs to.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeAgent
	ScopeParent
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeAgent:
		return "agent"
	case ScopeParent:
		return "parent"
	}
	return "unknown"
}

// Anchor names one collection of entities of a single kind.
type Anchor struct {
	scope      Scope
	kind       ir.Kind
	agent      ir.AgentID
	parentKind ir.Kind
	parent     ir.Hash
}

// Global is the collection of every entity of kind.
func Global(kind ir.Kind) Anchor {
	return Anchor{scope: ScopeGlobal, kind: kind}
}

// ForAgent is the collection of entities of kind that agent was a founding
// editor of.
func ForAgent(agent ir.AgentID, kind ir.Kind) Anchor {
	return Anchor{scope: ScopeAgent, kind: kind, agent: agent}
}

// ForParent is the collection of entities of kind that reference parent.
func ForParent(parentKind ir.Kind, parent ir.Hash, kind ir.Kind) Anchor {
	return Anchor{scope: ScopeParent, kind: kind, parentKind: parentKind, parent: parent}
}

// Scope returns the anchor family.
func (a Anchor) Scope() Scope { return a.scope }

// Kind returns the member kind.
func (a Anchor) Kind() ir.Kind { return a.kind }

// Path returns the structured path segments.
func (a Anchor) Path() []string {
	switch a.scope {
	case ScopeAgent:
		return []string{"agents", string(a.agent), a.kind.Plural()}
	case ScopeParent:
		return []string{a.parentKind.Plural(), string(a.parent), a.kind.Plural()}
	}
	return []string{a.kind.Plural()}
}

// String joins the path with "/". For display only: agent ids may contain
// "/" so the string form is not a key.
func (a Anchor) String() string {
	return strings.Join(a.Path(), "/")
}

// Equal reports whether a and b name the same collection.
func (a Anchor) Equal(b Anchor) bool {
	return a.kind == b.kind && slices.Equal(a.Path(), b.Path())
}

// anchorBody is the content of an anchor node.
type anchorBody struct {
	Path []string `json:"path"`
}

// anchorRecord is the envelope written for an anchor node.
type anchorRecord struct {
	Kind ir.Kind    `json:"kind"`
	Body anchorBody `json:"body"`
}

// Record returns the canonical bytes of the anchor node and their hash.
// Equal anchors always yield the same bytes.
func (a Anchor) Record() (ir.Hash, []byte, error) {
	return ir.HashOf(anchorRecord{Kind: ir.KindAnchor, Body: anchorBody{Path: a.Path()}})
}

// Key returns the canonical JSON of the path, usable as a map key.
func (a Anchor) Key() string {
	data, err := ir.Canonicalize(a.Path())
	if err != nil {
		// unreachable: a []string always canonicalizes
		return a.String()
	}
	return string(data)
}

// Parent identifies the entity a record hangs under, if any.
type Parent struct {
	Kind ir.Kind
	ID   ir.Hash
}

// Relations are the facts about a record that decide where it is indexed.
type Relations struct {
	Kind    ir.Kind
	Editors []ir.AgentID
	Parent  *Parent
}

// Anchors derives the collections a record belongs to: the global one,
// one per founding editor, and one for its parent when present.
func Anchors(rel Relations) []Anchor {
	out := []Anchor{Global(rel.Kind)}
	seen := make(map[ir.AgentID]bool, len(rel.Editors))
	for _, e := range rel.Editors {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, ForAgent(e, rel.Kind))
	}
	if rel.Parent != nil && !rel.Parent.ID.IsZero() {
		out = append(out, ForParent(rel.Parent.Kind, rel.Parent.ID, rel.Kind))
	}
	return out
}
