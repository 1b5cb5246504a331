package opengl

import (
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterleave_DefaultsMissingAttributes(t *testing.T) {
	data := &metadata.MeshData{
		Positions: []mgl32.Vec3{{1, 2, 3}, {4, 5, 6}},
		UVs:       []mgl32.Vec2{{0.25, 0.75}, {1, 0}},
	}
	out := interleave(data)
	require.Len(t, out, 2*vertexFloats)

	assert.Equal(t, []float32{
		1, 2, 3,
		0, 1, 0,
		0.25, 0.75,
		1, 0, 0,
		1, 1, 1, 1,
	}, out[:vertexFloats])
	assert.Equal(t, float32(4), out[vertexFloats])
}

func TestInterleave_IgnoresShortAttributeArrays(t *testing.T) {
	data := &metadata.MeshData{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}},
		Normals:   []mgl32.Vec3{{0, 0, 1}},
	}
	out := interleave(data)
	assert.Equal(t, []float32{0, 1, 0}, out[3:6])
}

func TestPixelFormat(t *testing.T) {
	cases := []struct {
		format   metadata.TextureFormat
		rng      metadata.TextureRange
		upload   uint32
		internal int32
	}{
		{metadata.TextureFormatR8, metadata.TextureRangeSRGB, gl.RED, gl.R8},
		{metadata.TextureFormatRG8, metadata.TextureRangeLinear, gl.RG, gl.RG8},
		{metadata.TextureFormatRGB8, metadata.TextureRangeLinear, gl.RGB, gl.RGB8},
		{metadata.TextureFormatRGB8, metadata.TextureRangeSRGB, gl.RGB, gl.SRGB8},
		{metadata.TextureFormatRGBA8, metadata.TextureRangeSRGB, gl.RGBA, gl.SRGB8_ALPHA8},
	}
	for _, c := range cases {
		upload, internal, err := pixelFormat(&metadata.Texture{Format: c.format, Range: c.rng})
		require.NoError(t, err)
		assert.Equal(t, c.upload, upload, c.format.String())
		assert.Equal(t, c.internal, internal, c.format.String())
	}

	_, _, err := pixelFormat(&metadata.Texture{Format: metadata.TextureFormatUnknown})
	assert.Error(t, err)
}

func TestWrapMode(t *testing.T) {
	assert.Equal(t, int32(gl.REPEAT), wrapMode(metadata.TextureWrapRepeat))
	assert.Equal(t, int32(gl.CLAMP_TO_EDGE), wrapMode(metadata.TextureWrapClampToEdge))
	assert.Equal(t, int32(gl.MIRRORED_REPEAT), wrapMode(metadata.TextureWrapMirroredRepeat))
}
