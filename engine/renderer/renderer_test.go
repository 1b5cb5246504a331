package renderer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/assets"
	"github.com/spaghettifunk/flux/engine/assets/loaders"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/platform/filesystem"
	"github.com/spaghettifunk/flux/engine/renderer"
	"github.com/spaghettifunk/flux/engine/renderer/components"
	"github.com/spaghettifunk/flux/engine/renderer/headless"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// residentAssets serves whatever the test put in it and records misses.
type residentAssets struct {
	meshes   map[metadata.AssetID]*metadata.Mesh
	textures map[metadata.AssetID]*metadata.Texture
	misses   int
}

func (a *residentAssets) GetMesh(id metadata.AssetID) *metadata.Mesh {
	m, ok := a.meshes[id]
	if !ok {
		a.misses++
	}
	return m
}

func (a *residentAssets) GetTexture(id metadata.AssetID) *metadata.Texture {
	t, ok := a.textures[id]
	if !ok {
		a.misses++
	}
	return t
}

func newResident() *residentAssets {
	return &residentAssets{
		meshes:   map[metadata.AssetID]*metadata.Mesh{1: {ID: 1}, 2: {ID: 2}},
		textures: map[metadata.AssetID]*metadata.Texture{10: {ID: 10}},
	}
}

func frame(t *testing.T, r *renderer.Renderer, group *renderer.RenderGroup) {
	t.Helper()
	require.NoError(t, r.Begin(components.NewCamera(), 1.0/60))
	require.NoError(t, r.Render(group))
}

func TestRenderer_Passes(t *testing.T) {
	backend := headless.New(core.NewDiscardLogger())
	res := newResident()
	r := renderer.NewRenderer(backend, res, core.NewDiscardLogger(), renderer.DefaultSettings())
	group := r.NewRenderGroup(64, 0)

	phong := metadata.DefaultPhongMaterial()
	phong.DiffuseMap = 10
	pbr := metadata.DefaultPBRMaterial()
	pbr.AlbedoMap = 10
	pbr.NormalMap = 11

	group.PushDrawMesh(renderer.DrawMeshCmd{Mesh: 1, Material: phong, CastShadows: true})
	group.PushDrawMesh(renderer.DrawMeshCmd{Mesh: 2, Material: pbr})
	group.PushDrawMesh(renderer.DrawMeshCmd{Mesh: 99, CastShadows: true})
	group.PushLineBegin(renderer.LineBeginCmd{Width: 1})
	group.PushLineVertex(mgl32.Vec3{0, 0, 0})
	group.PushLineVertex(mgl32.Vec3{0, 1, 0})
	group.PushLineEnd()
	group.PushDrawWater(renderer.DrawWaterCmd{NormalMap: 12})

	frame(t, r, group)

	shadow := backend.DrawsIn("shadow")
	require.Len(t, shadow, renderer.CascadeCount, "one caster drawn once per cascade")
	for c, d := range shadow {
		assert.Equal(t, c, d.Cascade)
		assert.Equal(t, metadata.AssetID(1), d.Mesh)
	}

	main := backend.DrawsIn("main")
	require.Len(t, main, 2)
	assert.Equal(t, metadata.MaterialWorkflowPhong, main[0].Material)
	assert.Zero(t, main[0].Fallbacks)
	assert.Equal(t, metadata.MaterialWorkflowPBR, main[1].Material)
	assert.Equal(t, 1, main[1].Fallbacks, "missing normal map falls back to constants")

	assert.Equal(t, 1, backend.Lines)
	assert.Equal(t, 1, backend.Water)
	require.Len(t, backend.Post, 1)
	assert.True(t, backend.Post[0].FXAA)

	stats := r.Stats()
	assert.Equal(t, renderer.PassStats{Draws: 3, Skipped: 3}, stats.Shadow)
	assert.Equal(t, renderer.PassStats{Draws: 2, Skipped: 1}, stats.Main)
	assert.Equal(t, 1, stats.Fallbacks)

	require.NoError(t, r.End(group, 1.0/60))
	assert.Zero(t, group.Len())
	assert.Len(t, backend.LastFrame, 5)
}

func TestRenderer_RenderOutsideFrame(t *testing.T) {
	r := renderer.NewRenderer(headless.New(core.NewDiscardLogger()), newResident(), core.NewDiscardLogger(), renderer.DefaultSettings())
	assert.ErrorIs(t, r.Render(r.NewRenderGroup(4, 0)), renderer.ErrFrameNotBegun)
}

func TestRenderer_LightPushedAfterBeginIsUsed(t *testing.T) {
	backend := headless.New(core.NewDiscardLogger())
	r := renderer.NewRenderer(backend, newResident(), core.NewDiscardLogger(), renderer.DefaultSettings())
	group := r.NewRenderGroup(4, 0)

	require.NoError(t, r.Begin(components.NewCamera(), 0))
	group.PushSetDirLight(renderer.DirectionalLight{Direction: mgl32.Vec3{0, -1, 0}, Intensity: 7})
	require.NoError(t, r.Render(group))

	require.NotNil(t, backend.Frame)
	assert.Equal(t, float32(7), backend.Frame.Light.Intensity)
	assert.Equal(t, float32(7), r.Light().Intensity)
}

func TestRenderer_Settings(t *testing.T) {
	backend := headless.New(core.NewDiscardLogger())
	r := renderer.NewRenderer(backend, newResident(), core.NewDiscardLogger(), renderer.DefaultSettings())

	r.SetFXAA(false)
	r.SetExposure(2.5)
	r.SetExposure(-1)
	r.SetDebugCascade(1)
	r.SetStableCascades(false)

	s := r.Settings()
	assert.False(t, s.FXAA)
	assert.Equal(t, float32(2.5), s.Exposure)
	assert.Equal(t, 1, s.DebugCascade)
	assert.False(t, s.StableCascades)

	r.SetDebugCascade(renderer.CascadeCount)
	assert.Equal(t, -1, r.Settings().DebugCascade)

	group := r.NewRenderGroup(4, 0)
	frame(t, r, group)
	assert.Equal(t, renderer.PostSettings{Exposure: 2.5, FXAA: false, DebugCascade: -1}, backend.Post[0])
}

// inlineQueue runs work immediately on the caller.
type inlineQueue struct{}

func (inlineQueue) PushWork(fn func()) bool {
	fn()
	return true
}

func TestRenderer_StreamsMeshesThroughAssetManager(t *testing.T) {
	dir := t.TempDir()
	mesh := &metadata.Mesh{
		Name: "tri",
		Data: &metadata.MeshData{
			Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Indices:   []uint32{0, 1, 2},
		},
		SubMeshes: []metadata.SubMesh{{Name: "tri", VertexCount: 3, IndexCount: 3}},
	}
	data, err := loaders.EncodeFlux(mesh)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.flux"), data, 0o644))

	logger := core.NewDiscardLogger()
	backend := headless.New(logger)
	config := assets.DefaultAssetsConfig()
	config.Dir = dir
	am, err := assets.NewAssetManager(config, backend, inlineQueue{}, filesystem.OS{}, logger)
	require.NoError(t, err)

	id := am.AddMesh("tri.flux", metadata.MeshFormatUnknown).ID
	r := renderer.NewRenderer(backend, am, logger, renderer.DefaultSettings())
	group := r.NewRenderGroup(8, 0)

	// first frame only starts the load
	group.PushDrawMesh(renderer.DrawMeshCmd{Mesh: id})
	frame(t, r, group)
	assert.Empty(t, backend.DrawsIn("main"))
	require.NoError(t, r.End(group, 0))

	assert.Equal(t, 1, am.CompletePendingLoads())
	group.PushDrawMesh(renderer.DrawMeshCmd{Mesh: id})
	frame(t, r, group)
	require.Len(t, backend.DrawsIn("main"), 1)
	require.NoError(t, r.End(group, 0))

	require.NoError(t, am.Shutdown())
	assert.NoError(t, backend.Shutdown())
}
