package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/appstore/internal/ir"
)

func version(hash, prev string, lastUpdated int64) Version[note] {
	return Version[note]{
		Hash:     ir.Hash(hash),
		Prev:     ir.Hash(prev),
		Revision: ir.Revision[note]{LastUpdated: lastUpdated},
	}
}

func TestNewer(t *testing.T) {
	assert.True(t, Newer(version("a", "", 2), version("b", "", 1)), "larger last_updated wins")
	assert.False(t, Newer(version("z", "", 1), version("a", "", 2)))
	assert.True(t, Newer(version("b", "", 1), version("a", "", 1)), "tie goes to larger hash")
	assert.False(t, Newer(version("a", "", 1), version("a", "", 1)))
}

func TestChain_LinearHasOneLeaf(t *testing.T) {
	c := NewChain(version("r", "", 1))
	assert.True(t, c.Add(version("s", "r", 2)))
	assert.True(t, c.Add(version("t", "s", 3)))

	assert.False(t, c.Forked())
	assert.Equal(t, ir.Hash("t"), c.Current().Hash)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, ir.Hash("r"), c.Root())
}

func TestChain_RejectsUnknownPredecessorAndDuplicates(t *testing.T) {
	c := NewChain(version("r", "", 1))
	assert.False(t, c.Add(version("x", "missing", 2)))
	assert.True(t, c.Add(version("s", "r", 2)))
	assert.False(t, c.Add(version("s", "r", 2)))
	assert.Equal(t, 2, c.Len())
}

func TestChain_ForkResolution(t *testing.T) {
	c := NewChain(version("r", "", 1))
	c.Add(version("a", "r", 5))
	c.Add(version("b", "r", 7))
	c.Add(version("c", "a", 6))

	assert.True(t, c.Forked())
	leaves := c.Leaves()
	assert.Equal(t, []ir.Hash{"b", "c"}, []ir.Hash{leaves[0].Hash, leaves[1].Hash})
	assert.Equal(t, ir.Hash("b"), c.Current().Hash)
}

func TestChain_VersionsOldestFirst(t *testing.T) {
	c := NewChain(version("r", "", 1))
	c.Add(version("b", "r", 3))
	c.Add(version("a", "r", 3))
	c.Add(version("c", "b", 2))

	var got []ir.Hash
	for _, v := range c.Versions() {
		got = append(got, v.Hash)
	}
	assert.Equal(t, []ir.Hash{"r", "c", "a", "b"}, got)
}

func TestAuthorize(t *testing.T) {
	rev := ir.Revision[note]{Author: "alice", Editors: []ir.AgentID{"bob"}}

	assert.True(t, Authorize("bob", rev))
	assert.False(t, Authorize("alice", rev), "authorship alone grants nothing")
	assert.False(t, Authorize("", rev))
	assert.NoError(t, Guard("bob", "id", rev))
	assert.Error(t, Guard("carol", "id", rev))
}

func TestFoundingEditors(t *testing.T) {
	assert.Equal(t, []ir.AgentID{"alice"}, foundingEditors("alice", nil))
	assert.Equal(t, []ir.AgentID{"alice", "bob"}, foundingEditors("alice", []ir.AgentID{"bob"}))
	assert.Equal(t, []ir.AgentID{"bob", "alice"}, foundingEditors("alice", []ir.AgentID{"bob", "alice", "bob"}))
}
