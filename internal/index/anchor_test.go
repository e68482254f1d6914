package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/appstore/internal/ir"
)

const pubID = ir.Hash("0f3c9a5b7e1d2c4f6a8b0c1d2e3f4a5b6c7d8e9f0a1b2c3d4e5f6a7b8c9d0e1f")

func TestAnchor_Paths(t *testing.T) {
	assert.Equal(t, []string{"apps"}, Global(ir.KindApp).Path())
	assert.Equal(t, []string{"agents", "alice", "publishers"}, ForAgent("alice", ir.KindPublisher).Path())
	assert.Equal(t, []string{"publishers", string(pubID), "apps"}, ForParent(ir.KindPublisher, pubID, ir.KindApp).Path())
	assert.Equal(t, "agents/alice/apps", ForAgent("alice", ir.KindApp).String())
}

func TestAnchor_KeyIsStructured(t *testing.T) {
	// "a/b" as one agent id must not collide with a two-segment path.
	slashy := ForAgent("a/b", ir.KindApp)
	assert.Equal(t, `["agents","a/b","apps"]`, slashy.Key())
	assert.NotEqual(t, ForAgent("a", ir.KindApp).Key(), slashy.Key())
}

func TestAnchor_RecordIsDeterministic(t *testing.T) {
	h1, data, err := ForAgent("alice", ir.KindApp).Record()
	require.NoError(t, err)
	h2, _, err := ForAgent("alice", ir.KindApp).Record()
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, `{"body":{"path":["agents","alice","apps"]},"kind":"anchor"}`, string(data))

	other, _, err := ForAgent("alice", ir.KindPublisher).Record()
	require.NoError(t, err)
	assert.NotEqual(t, h1, other)
}

func TestAnchor_Equal(t *testing.T) {
	assert.True(t, Global(ir.KindApp).Equal(Global(ir.KindApp)))
	assert.False(t, Global(ir.KindApp).Equal(Global(ir.KindPublisher)))
	assert.False(t, ForAgent("alice", ir.KindApp).Equal(ForAgent("bob", ir.KindApp)))
}

func TestAnchors_Publisher(t *testing.T) {
	got := Anchors(Relations{Kind: ir.KindPublisher, Editors: []ir.AgentID{"alice", "bob", "alice"}})

	require.Len(t, got, 3)
	assert.Equal(t, "publishers", got[0].String())
	assert.Equal(t, "agents/alice/publishers", got[1].String())
	assert.Equal(t, "agents/bob/publishers", got[2].String())
}

func TestAnchors_AppWithParent(t *testing.T) {
	got := Anchors(Relations{
		Kind:    ir.KindApp,
		Editors: []ir.AgentID{"alice"},
		Parent:  &Parent{Kind: ir.KindPublisher, ID: pubID},
	})

	require.Len(t, got, 3)
	assert.Equal(t, ScopeGlobal, got[0].Scope())
	assert.Equal(t, ScopeAgent, got[1].Scope())
	assert.Equal(t, ScopeParent, got[2].Scope())
	assert.Equal(t, ir.KindApp, got[2].Kind())
}

func TestAnchors_EmptyParentIgnored(t *testing.T) {
	got := Anchors(Relations{Kind: ir.KindApp, Parent: &Parent{Kind: ir.KindPublisher}})
	assert.Len(t, got, 1)
}
