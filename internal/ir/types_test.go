package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name string `json:"name"`
}

func TestRevisionClone(t *testing.T) {
	meta := "meta"
	rev := Revision[testPayload]{
		Author:   "alice",
		Editors:  []AgentID{"alice", "bob"},
		Metadata: &meta,
		Deprecation: &Deprecation{
			Message:                 "old",
			RecommendedAlternatives: []Hash{"h1"},
		},
		Content: testPayload{Name: "x"},
	}

	clone := rev.Clone()
	clone.Editors[0] = "mallory"
	*clone.Metadata = "changed"
	clone.Deprecation.RecommendedAlternatives[0] = "h2"
	clone.Content.Name = "y"

	assert.Equal(t, AgentID("alice"), rev.Editors[0])
	assert.Equal(t, "meta", *rev.Metadata)
	assert.Equal(t, Hash("h1"), rev.Deprecation.RecommendedAlternatives[0])
	assert.Equal(t, "x", rev.Content.Name)
}

func TestRevisionHelpers(t *testing.T) {
	rev := Revision[testPayload]{Editors: []AgentID{"alice"}}

	assert.True(t, rev.HasEditor("alice"))
	assert.False(t, rev.HasEditor("bob"))
	assert.False(t, rev.Deprecated())

	rev.Deprecation = &Deprecation{Message: "gone"}
	assert.True(t, rev.Deprecated())
}

func TestRecordRoundTripThroughCanonical(t *testing.T) {
	rec := Record[testPayload]{
		Kind:   KindPublisher,
		Editor: "alice",
		Body: Revision[testPayload]{
			Author:      "alice",
			PublishedAt: 10,
			LastUpdated: 10,
			Editors:     []AgentID{"alice"},
			Content:     testPayload{Name: "Acme"},
		},
	}

	hash, data, err := HashOf(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"body":{"author":"alice","content":{"name":"Acme"},"editors":["alice"],"last_updated":10,"published_at":10},"editor":"alice","kind":"publisher"}`, string(data))

	header, err := DecodeHeader(data)
	require.NoError(t, err)
	assert.Equal(t, KindPublisher, header.Kind)
	assert.True(t, header.Entity.IsZero())

	decoded, err := DecodeRecord[testPayload](data)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
	assert.Equal(t, hash, decoded.Origin(hash))

	decoded.Entity = "origin"
	assert.Equal(t, Hash("origin"), decoded.Origin(hash))
}

func TestKindHelpers(t *testing.T) {
	assert.Equal(t, "apps", KindApp.Plural())
	assert.Equal(t, "publishers", KindPublisher.Plural())
	assert.True(t, KindApp.Valid())
	assert.False(t, KindAnchor.Valid())
	assert.Equal(t, LinkApp, MembershipLink(KindApp))
	assert.Equal(t, LinkPublisher, MembershipLink(KindPublisher))
}
