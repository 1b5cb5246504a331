package loaders

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlux_EncodeDecode(t *testing.T) {
	src := twoQuadMesh()
	data, err := EncodeFlux(src)
	require.NoError(t, err)

	h, err := ProbeFlux(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), h.EntryCount)
	assert.Equal(t, "quads", h.Name)

	mesh, err := DecodeFlux(data)
	require.NoError(t, err)
	require.Len(t, mesh.SubMeshes, 2)
	assert.Equal(t, src.Data.Positions, mesh.Data.Positions)
	assert.Equal(t, src.Data.UVs, mesh.Data.UVs)
	assert.Equal(t, src.Data.Indices, mesh.Data.Indices)
	assert.Empty(t, mesh.Data.Normals)

	back := mesh.SubMeshes[1]
	assert.Equal(t, "back", back.Name)
	assert.Equal(t, uint32(4), back.VertexOffset)
	assert.Equal(t, uint32(6), back.IndexOffset)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, mesh.AABBMin)
	assert.Equal(t, mgl32.Vec3{2, 2, 1}, mesh.AABBMax)
}

func TestFlux_PartialAttributesStayParallel(t *testing.T) {
	src := twoQuadMesh()
	// give only the second sub-mesh normals
	src.Data.Normals = make([]mgl32.Vec3, 8)
	for i := 4; i < 8; i++ {
		src.Data.Normals[i] = mgl32.Vec3{0, 0, 1}
	}
	data, err := EncodeFlux(src)
	require.NoError(t, err)

	mesh, err := DecodeFlux(data)
	require.NoError(t, err)
	require.Len(t, mesh.Data.Normals, 8)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, mesh.Data.Normals[5])
}

func TestFlux_RejectsHeaderMismatch(t *testing.T) {
	data, err := EncodeFlux(twoQuadMesh())
	require.NoError(t, err)

	cases := map[string]struct {
		offset int
		value  uint32
		want   error
	}{
		"magic":   {0, 0xdeadbeef, ErrBadMagic},
		"type":    {4, 7, ErrBadAssetType},
		"version": {8, 2, ErrBadVersion},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			corrupt := append([]byte(nil), data...)
			binary.LittleEndian.PutUint32(corrupt[tc.offset:], tc.value)
			_, err := DecodeFlux(corrupt)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFlux_Truncated(t *testing.T) {
	data, err := EncodeFlux(twoQuadMesh())
	require.NoError(t, err)

	_, err = ProbeFlux(data[:FluxHeaderSize-1])
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = DecodeFlux(data[:len(data)-4])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestFlux_BadIndex(t *testing.T) {
	src := twoQuadMesh()
	src.Data.Indices[2] = 9
	data, err := EncodeFlux(src)
	require.NoError(t, err)
	_, err = DecodeFlux(data)
	assert.ErrorIs(t, err, ErrBadIndex)
}

func TestFlux_EntryCountBeyondFile(t *testing.T) {
	data, err := EncodeFlux(twoQuadMesh())
	require.NoError(t, err)

	// the header alone still probes fine
	binary.LittleEndian.PutUint32(data[12:], 0xffffffff)
	_, err = ProbeFlux(data[:FluxHeaderSize])
	require.NoError(t, err)

	_, err = DecodeFlux(data)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestFlux_EntryChainCycle(t *testing.T) {
	data, err := EncodeFlux(twoQuadMesh())
	require.NoError(t, err)

	// point the second entry back at the first
	second := FluxHeaderSize + FluxEntrySize
	binary.LittleEndian.PutUint64(data[second:], FluxHeaderSize)
	binary.LittleEndian.PutUint32(data[12:], 3)

	_, err = DecodeFlux(data)
	assert.ErrorIs(t, err, ErrEntryCycle)
}
