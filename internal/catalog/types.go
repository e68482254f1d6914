// Package catalog is the publisher and app catalog built on the entity
// store and the indexer.
package catalog

import (
	"encoding/json"

	"github.com/roach88/appstore/internal/entity"
	"github.com/roach88/appstore/internal/ir"
)

// Location is where a publisher is based.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

// WebAddress is a URL with an optional hint about what it points at
// (github, gitlab, ...).
type WebAddress struct {
	URL     string  `json:"url"`
	Context *string `json:"context,omitempty"`
}

// Publisher is the payload of a publisher revision.
type Publisher struct {
	Name        string     `json:"name"`
	Location    Location   `json:"location"`
	Website     WebAddress `json:"website"`
	IconSrc     string     `json:"icon_src"`
	Description *string    `json:"description,omitempty"`
	Email       *string    `json:"email,omitempty"`
}

// App is the payload of an app revision. Publisher is the EntityId of the
// owning publisher; Hashes is an opaque JSON string describing the build
// artifacts.
type App struct {
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Description string  `json:"description"`
	IconSrc     string  `json:"icon_src"`
	Publisher   ir.Hash `json:"publisher"`
	Source      string  `json:"source"`
	Hashes      string  `json:"hashes"`
	Changelog   *string `json:"changelog,omitempty"`
}

type (
	PublisherEntity  = ir.Entity[Publisher]
	AppEntity        = ir.Entity[App]
	PublisherVersion = entity.Version[Publisher]
	AppVersion       = entity.Version[App]
)

// Common holds the optional fields every create input accepts.
type Common struct {
	Editors     []ir.AgentID `json:"editors,omitempty"`
	PublishedAt *int64       `json:"published_at,omitempty"`
	LastUpdated *int64       `json:"last_updated,omitempty"`
	Metadata    *string      `json:"metadata,omitempty"`
}

// seed copies the create-time common fields onto rev. Zero timestamps are
// defaulted by the entity store.
func seed[P any](c Common, rev *ir.Revision[P]) {
	rev.Editors = c.Editors
	if c.PublishedAt != nil {
		rev.PublishedAt = *c.PublishedAt
	}
	if c.LastUpdated != nil {
		rev.LastUpdated = *c.LastUpdated
	}
	rev.Metadata = c.Metadata
}

// patch applies the common update properties to rev.
func patch[P any](p Properties, rev *ir.Revision[P]) {
	if p.Editors != nil {
		rev.Editors = p.Editors
	}
	if p.PublishedAt != nil {
		rev.PublishedAt = *p.PublishedAt
	}
	if p.LastUpdated != nil {
		rev.LastUpdated = *p.LastUpdated
	}
	rev.Metadata = p.Metadata
}

// CreatePublisherInput creates a publisher.
type CreatePublisherInput struct {
	Publisher
	Common
}

// CreateAppInput creates an app.
type CreateAppInput struct {
	App
	Common
}

// Properties holds the optional common fields of an update. Absent fields
// keep their current value, except Metadata which is always replaced.
type Properties struct {
	Editors     []ir.AgentID `json:"editors,omitempty"`
	PublishedAt *int64       `json:"published_at,omitempty"`
	LastUpdated *int64       `json:"last_updated,omitempty"`
	Metadata    *string      `json:"metadata,omitempty"`
}

// PublisherProperties is the patch applied by UpdatePublisher.
type PublisherProperties struct {
	Name        *string     `json:"name,omitempty"`
	Location    *Location   `json:"location,omitempty"`
	Website     *WebAddress `json:"website,omitempty"`
	IconSrc     *string     `json:"icon_src,omitempty"`
	Description *string     `json:"description,omitempty"`
	Email       *string     `json:"email,omitempty"`
	Properties
}

// AppProperties is the patch applied by UpdateApp. The publisher
// reference is fixed at creation.
type AppProperties struct {
	Title       *string `json:"title,omitempty"`
	Subtitle    *string `json:"subtitle,omitempty"`
	Description *string `json:"description,omitempty"`
	IconSrc     *string `json:"icon_src,omitempty"`
	Source      *string `json:"source,omitempty"`
	Hashes      *string `json:"hashes,omitempty"`
	Changelog   *string `json:"changelog,omitempty"`
	Properties
}

// UpdatePublisherInput updates the publisher Base.
type UpdatePublisherInput struct {
	Base       ir.Hash             `json:"base"`
	Properties PublisherProperties `json:"properties"`
}

// UpdateAppInput updates the app Base.
type UpdateAppInput struct {
	Base       ir.Hash       `json:"base"`
	Properties AppProperties `json:"properties"`
}

// DeprecateInput marks Base deprecated.
type DeprecateInput struct {
	Base                    ir.Hash   `json:"base"`
	Message                 string    `json:"message"`
	RecommendedAlternatives []ir.Hash `json:"recommended_alternatives,omitempty"`
}

// UndeprecateInput clears the deprecation of Base.
type UndeprecateInput struct {
	Base ir.Hash `json:"base"`
}

// GetEntityInput names one entity.
type GetEntityInput struct {
	ID ir.Hash `json:"id"`
}

// GetForAgentInput names an agent whose collection to list.
type GetForAgentInput struct {
	ForAgent ir.AgentID `json:"for_agent"`
}

// GetForPublisherInput names a publisher whose apps to list.
type GetForPublisherInput struct {
	ForPublisher ir.Hash `json:"for_publisher"`
}

// GetRecordInput names a single revision by its own hash.
type GetRecordInput struct {
	Hash ir.Hash `json:"hash"`
}

// ReindexInput names an entity whose collection placement to repair.
type ReindexInput struct {
	Kind ir.Kind `json:"kind"`
	ID   ir.Hash `json:"id"`
}

// StoredRecord is a raw revision as returned by Record.
type StoredRecord struct {
	Hash   ir.Hash         `json:"hash"`
	Kind   ir.Kind         `json:"kind"`
	Entity ir.Hash         `json:"entity,omitempty"`
	Prev   ir.Hash         `json:"prev,omitempty"`
	Editor ir.AgentID      `json:"editor,omitempty"`
	Body   json.RawMessage `json:"body"`
}

// ReindexResult lists the collections an entity was placed into.
type ReindexResult struct {
	ID      ir.Hash  `json:"id"`
	Kind    ir.Kind  `json:"kind"`
	Anchors []string `json:"anchors"`
}

// Identity is returned by Whoami.
type Identity struct {
	Agent ir.AgentID `json:"agent"`
}
