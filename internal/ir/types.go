package ir

import (
	"encoding/json"
	"fmt"
	"slices"
)

// AgentID is the opaque identity of a caller.
type AgentID string

// Kind is the record type tag stored in every envelope.
type Kind string

const (
	KindPublisher Kind = "publisher"
	KindApp       Kind = "app"
	KindAnchor    Kind = "anchor"
)

// Plural returns the collection segment used in anchor paths.
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Valid reports whether k is a catalogable kind (not an anchor).
func (k Kind) Valid() bool {
	return k == KindPublisher || k == KindApp
}

// LinkType tags an edge in the LinkGraph.
type LinkType string

const (
	// LinkUpdate goes from a revision to a successor revision.
	LinkUpdate LinkType = "update"
	// LinkPublisher goes from an anchor to a publisher EntityId.
	LinkPublisher LinkType = "publisher"
	// LinkApp goes from an anchor to an app EntityId.
	LinkApp LinkType = "app"
)

// MembershipLink returns the membership link type for entities of kind k.
func MembershipLink(k Kind) LinkType {
	switch k {
	case KindPublisher:
		return LinkPublisher
	case KindApp:
		return LinkApp
	}
	return LinkType(k)
}

// Link is a typed edge as returned by LinkGraph.LinksFrom.
type Link struct {
	Base   Hash     `json:"base"`
	Target Hash     `json:"target"`
	Type   LinkType `json:"type"`
	Tag    string   `json:"tag,omitempty"`
}

// Deprecation marks an entity as no longer recommended.
type Deprecation struct {
	Message                 string `json:"message"`
	RecommendedAlternatives []Hash `json:"recommended_alternatives,omitempty"`
}

// Revision is one immutable version of an entity: the fields every kind
// shares plus the kind-specific Content.
type Revision[P any] struct {
	Author      AgentID      `json:"author"`
	PublishedAt int64        `json:"published_at"`
	LastUpdated int64        `json:"last_updated"`
	Metadata    *string      `json:"metadata,omitempty"`
	Editors     []AgentID    `json:"editors"`
	Deprecation *Deprecation `json:"deprecation,omitempty"`
	Content     P            `json:"content"`
}

// Deprecated reports whether the revision carries a deprecation notice.
func (r Revision[P]) Deprecated() bool {
	return r.Deprecation != nil
}

// HasEditor reports whether agent is in the editor set.
func (r Revision[P]) HasEditor(agent AgentID) bool {
	return slices.Contains(r.Editors, agent)
}

// Clone returns a copy that shares no mutable state with r.
// Content is copied by value: payload pointer fields are shared, so
// mutators must replace them rather than write through them.
func (r Revision[P]) Clone() Revision[P] {
	out := r
	out.Editors = slices.Clone(r.Editors)
	if r.Metadata != nil {
		m := *r.Metadata
		out.Metadata = &m
	}
	if r.Deprecation != nil {
		d := *r.Deprecation
		d.RecommendedAlternatives = slices.Clone(r.Deprecation.RecommendedAlternatives)
		out.Deprecation = &d
	}
	return out
}

// Entity is the resolved view of an entity: its stable ID, the hash of
// the revision currently resolved as head, and that revision.
type Entity[P any] struct {
	ID      Hash        `json:"id"`
	Head    Hash        `json:"head"`
	Kind    Kind        `json:"kind"`
	Content Revision[P] `json:"content"`
}

// Record is the envelope written to the ImmutableStore for every revision.
// Entity and Prev are empty on the creation record, which carries a Nonce
// instead. Editor is the agent that wrote this revision.
type Record[P any] struct {
	Kind   Kind        `json:"kind"`
	Nonce  string      `json:"nonce,omitempty"`
	Entity Hash        `json:"entity,omitempty"`
	Prev   Hash        `json:"prev,omitempty"`
	Editor AgentID     `json:"editor"`
	Body   Revision[P] `json:"body"`
}

// Origin returns the EntityId this record belongs to, given its own hash.
func (r Record[P]) Origin(self Hash) Hash {
	if r.Entity.IsZero() {
		return self
	}
	return r.Entity
}

// RecordHeader is the kind-independent part of any stored record.
type RecordHeader struct {
	Kind   Kind    `json:"kind"`
	Entity Hash    `json:"entity,omitempty"`
	Prev   Hash    `json:"prev,omitempty"`
	Editor AgentID `json:"editor,omitempty"`
}

// DecodeHeader reads only the envelope fields of a stored record.
func DecodeHeader(data []byte) (RecordHeader, error) {
	var h RecordHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return RecordHeader{}, fmt.Errorf("decode record header: %w", err)
	}
	return h, nil
}

// DecodeRecord reads a full record envelope.
func DecodeRecord[P any](data []byte) (Record[P], error) {
	var rec Record[P]
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record[P]{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
