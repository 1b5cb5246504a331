package loaders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAAB_EncodeDecode(t *testing.T) {
	src := twoQuadMesh()
	data, err := EncodeAAB(src)
	require.NoError(t, err)

	h, err := ProbeAAB(data)
	require.NoError(t, err)
	assert.Equal(t, AABVersion, h.Version)
	assert.Equal(t, uint64(len(data)), h.AssetSize)
	assert.Zero(t, h.NormalsOffset)

	mesh, err := DecodeAAB(data, "crate")
	require.NoError(t, err)
	require.Len(t, mesh.SubMeshes, 1)
	assert.Equal(t, "crate", mesh.Name)
	assert.Equal(t, src.Data.Positions[:4], mesh.Data.Positions)
	assert.Equal(t, src.Data.UVs[:4], mesh.Data.UVs)
	assert.Equal(t, src.Data.Indices[:6], mesh.Data.Indices)
}

func TestAAB_WrongMagic(t *testing.T) {
	data, err := EncodeAAB(twoQuadMesh())
	require.NoError(t, err)
	data[0] ^= 0xff
	_, err = ProbeAAB(data)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestAAB_OtherVersionStillAccepted(t *testing.T) {
	data, err := EncodeAAB(twoQuadMesh())
	require.NoError(t, err)
	data[4] = 3
	_, err = DecodeAAB(data, "v3")
	assert.NoError(t, err)
}
