package assets

import (
	"testing"

	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameTable_AddGetRemove(t *testing.T) {
	nt := NewNameTable(4, core.NewSerialCounter(1))

	a := nt.AddName("brick")
	require.NotEqual(t, metadata.InvalidAssetID, a)
	assert.Equal(t, a, nt.GetID("brick"))
	assert.Equal(t, metadata.InvalidAssetID, nt.AddName("brick"), "duplicate names are rejected")
	assert.Equal(t, metadata.InvalidAssetID, nt.AddName(""))

	b := nt.AddName("moss")
	assert.Greater(t, b, a)
	assert.Equal(t, 2, nt.Len())

	nt.RemoveName("brick")
	assert.Equal(t, metadata.InvalidAssetID, nt.GetID("brick"))
	assert.Greater(t, nt.AddName("brick"), b)

	assert.Panics(t, func() { nt.RemoveName("never-added") })
}

func TestNameTable_SharedCounter(t *testing.T) {
	serial := core.NewSerialCounter(1)
	meshes := NewNameTable(4, serial)
	textures := NewNameTable(4, serial)

	m := meshes.AddName("rock")
	tx := textures.AddName("rock")
	assert.Equal(t, m+1, tx)
	assert.False(t, meshes.Collides("rock"))
}

func TestNameTable_Grows(t *testing.T) {
	nt := NewNameTable(2, core.NewSerialCounter(1))
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for _, n := range names {
		require.NotEqual(t, metadata.InvalidAssetID, nt.AddName(n), n)
	}
	for _, n := range names {
		assert.NotEqual(t, metadata.InvalidAssetID, nt.GetID(n), n)
	}
}
