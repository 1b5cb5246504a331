package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/flux/engine/assets/loaders"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/platform/filesystem"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMesh_NameIsInternedOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "props/crate.flux", triangleFlux(t, "crate"))
	h.write(t, "backup/crate.flux", triangleFlux(t, "crate"))

	first := h.am.AddMesh("props/crate.flux", metadata.MeshFormatUnknown)
	require.Equal(t, AddOk, first.Status)
	assert.NotEqual(t, metadata.InvalidAssetID, first.ID)

	again := h.am.AddMesh("props/crate.flux", metadata.MeshFormatFlux)
	assert.Equal(t, AddAlreadyExists, again.Status)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.OK())

	// same stem in another directory resolves to the same name
	other := h.am.AddMesh("backup/crate.flux", metadata.MeshFormatUnknown)
	assert.Equal(t, AddAlreadyExists, other.Status)
	assert.Equal(t, first.ID, other.ID)

	assert.Equal(t, first.ID, h.am.FindMesh("crate"))
	assert.Equal(t, []metadata.AssetID{first.ID}, h.am.MeshIDs())

	state, ok := h.am.MeshState(first.ID)
	require.True(t, ok)
	assert.Equal(t, AssetStateUnloaded, state)
}

func TestAddMesh_Rejections(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "notes.txt", []byte("hello"))
	h.write(t, "broken.flux", []byte("this is not a flux container at all, just some text padding it out"))

	res := h.am.AddMesh("notes.txt", metadata.MeshFormatUnknown)
	assert.Equal(t, AddUnknownFormat, res.Status)

	res = h.am.AddMesh("missing.flux", metadata.MeshFormatUnknown)
	assert.Equal(t, AddOpenFailed, res.Status)
	assert.Error(t, res.Err)

	res = h.am.AddMesh("broken.flux", metadata.MeshFormatUnknown)
	assert.Equal(t, AddInvalidFile, res.Status)
	assert.False(t, res.OK())

	// nothing failed leaves a name or slot behind
	assert.Equal(t, metadata.InvalidAssetID, h.am.FindMesh("broken"))
	assert.Equal(t, metadata.InvalidAssetID, h.am.FindMesh("missing"))
	assert.Empty(t, h.am.MeshIDs())
}

func TestAddTexture_Rejections(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "fake.png", []byte("definitely not an image, only characters"))

	res := h.am.AddTexture("fake.png", metadata.TextureFormatRGBA8, metadata.TextureWrapRepeat, metadata.TextureFilterLinear, metadata.TextureRangeSRGB)
	assert.Equal(t, AddInvalidFile, res.Status)
	assert.ErrorIs(t, res.Err, loaders.ErrNotAnImage)
	assert.Equal(t, metadata.InvalidAssetID, h.am.FindTexture("fake"))

	res = h.am.AddTexture("fake.png", metadata.TextureFormatUnknown, metadata.TextureWrapRepeat, metadata.TextureFilterLinear, metadata.TextureRangeSRGB)
	assert.Equal(t, AddUnknownFormat, res.Status)
}

func TestRemoveMesh_IDsNeverReused(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "rock.flux", triangleFlux(t, "rock"))

	first := h.am.AddMesh("rock.flux", metadata.MeshFormatUnknown)
	require.Equal(t, AddOk, first.Status)
	require.NoError(t, h.am.RemoveMesh(first.ID))
	assert.Equal(t, metadata.InvalidAssetID, h.am.FindMesh("rock"))

	second := h.am.AddMesh("rock.flux", metadata.MeshFormatUnknown)
	require.Equal(t, AddOk, second.Status)
	assert.Greater(t, second.ID, first.ID)

	_, ok := h.am.MeshState(first.ID)
	assert.False(t, ok, "stale ID must not resolve")
	assert.Nil(t, h.am.GetMesh(first.ID))

	assert.ErrorIs(t, h.am.RemoveMesh(first.ID), ErrUnknownAsset)
}

func TestMeshAndTextureIDsShareOneSpace(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "brick.flux", triangleFlux(t, "brick"))
	h.write(t, "brick.png", pngBytes(t, 4, 4))

	mesh := h.am.AddMesh("brick.flux", metadata.MeshFormatUnknown)
	tex := h.am.AddTexture("brick.png", metadata.TextureFormatRGBA8, metadata.TextureWrapRepeat, metadata.TextureFilterLinear, metadata.TextureRangeSRGB)
	require.Equal(t, AddOk, mesh.Status)
	require.Equal(t, AddOk, tex.Status)
	assert.NotEqual(t, mesh.ID, tex.ID)
}

func TestGetMesh_StreamsOnFirstUse(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "crate.flux", triangleFlux(t, "crate"))
	id := h.am.AddMesh("crate.flux", metadata.MeshFormatUnknown).ID

	assert.Nil(t, h.am.GetMesh(id))
	state, _ := h.am.MeshState(id)
	assert.Equal(t, AssetStateQueued, state)

	// repeated reads while queued never submit twice
	for i := 0; i < 5; i++ {
		assert.Nil(t, h.am.GetMesh(id))
	}
	assert.Len(t, h.queue.work, 1)
	assert.False(t, h.am.LoadMesh(id))

	// decoded but not finalized yet
	h.queue.runAll()
	assert.Nil(t, h.am.GetMesh(id))

	assert.Equal(t, 1, h.am.CompletePendingLoads())
	mesh := h.am.GetMesh(id)
	require.NotNil(t, mesh)
	assert.Equal(t, id, mesh.ID)
	assert.Equal(t, "crate", mesh.Name)
	assert.Equal(t, metadata.MeshFormatFlux, mesh.Format)
	assert.NotNil(t, mesh.GPUHandle)
	assert.Equal(t, 3, mesh.VertexCount())
	assert.Same(t, mesh, h.gpu.meshes[id])

	stats := h.am.Stats()
	assert.Equal(t, uint64(1), stats.Completed)
	assert.Zero(t, stats.InFlight)
	assert.Zero(t, h.am.CompletePendingLoads())
}

func TestGetTexture_StreamsThroughTransferBuffer(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "textures/brick.png", pngBytes(t, 64, 32))

	res := h.am.AddTexture("textures/brick.png", metadata.TextureFormatRGBA8, metadata.TextureWrapRepeat, metadata.TextureFilterLinearMipmap, metadata.TextureRangeSRGB)
	require.Equal(t, AddOk, res.Status)

	// dimensions are known from the header probe before any load
	info, ok := h.am.TextureInfo(res.ID)
	require.True(t, ok)
	assert.Equal(t, uint32(64), info.Width)
	assert.Equal(t, uint32(32), info.Height)
	assert.Equal(t, "brick", info.Name)

	assert.Nil(t, h.am.GetTexture(res.ID))
	assert.Equal(t, 1, h.am.Stats().TransfersInUse)
	assert.Equal(t, 1, h.pump())

	tex := h.am.GetTexture(res.ID)
	require.NotNil(t, tex)
	assert.Equal(t, uint32(64), tex.Width)
	assert.Equal(t, uint32(32), tex.Height)
	assert.Equal(t, metadata.TextureFilterLinearMipmap, tex.Filter)
	assert.Equal(t, 1, h.gpu.transfers)
	assert.Zero(t, h.gpu.directUploads)
	assert.Len(t, tex.Pixels, 64*32*4)
	assert.Zero(t, h.am.Stats().TransfersInUse)
	assert.Zero(t, h.gpu.mapped)
}

func TestGetTexture_TransferBuffersBoundInFlightLoads(t *testing.T) {
	h := newHarness(t, nil)
	var ids []metadata.AssetID
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		h.write(t, name, pngBytes(t, 8, 8))
		res := h.am.AddTexture(name, metadata.TextureFormatRGBA8, metadata.TextureWrapRepeat, metadata.TextureFilterLinear, metadata.TextureRangeSRGB)
		require.Equal(t, AddOk, res.Status)
		ids = append(ids, res.ID)
	}

	for _, id := range ids {
		assert.Nil(t, h.am.GetTexture(id))
	}
	assert.Len(t, h.queue.work, 2)
	state, _ := h.am.TextureState(ids[2])
	assert.Equal(t, AssetStateUnloaded, state, "third load waits for a free transfer buffer")
	assert.Equal(t, uint64(1), h.am.Stats().Deferred)

	assert.Equal(t, 2, h.pump())
	assert.Nil(t, h.am.GetTexture(ids[2]))
	assert.Equal(t, 1, h.pump())
	for _, id := range ids {
		assert.NotNil(t, h.am.GetTexture(id))
	}
}

func TestGetTexture_OversizedFallsBackToDirectUpload(t *testing.T) {
	h := newHarness(t, func(c *AssetsConfig) {
		c.TransferBufferSize = 16
	})
	h.write(t, "huge.png", pngBytes(t, 32, 32))
	id := h.am.AddTexture("huge.png", metadata.TextureFormatRGB8, metadata.TextureWrapClampToEdge, metadata.TextureFilterNearest, metadata.TextureRangeLinear).ID

	h.am.GetTexture(id)
	assert.Equal(t, 1, h.pump())

	tex := h.am.GetTexture(id)
	require.NotNil(t, tex)
	assert.Equal(t, 1, h.gpu.directUploads)
	assert.Zero(t, h.gpu.transfers)
	assert.Len(t, tex.Pixels, 32*32*3)
	assert.Zero(t, h.am.Stats().TransfersInUse)
	assert.Zero(t, h.gpu.mapped)
}

func TestLoadMesh_QueueBackPressure(t *testing.T) {
	h := newHarness(t, func(c *AssetsConfig) {
		c.QueueCapacity = 2
		c.TransferBuffers = 1
	})
	var ids []metadata.AssetID
	for _, name := range []string{"a.flux", "b.flux", "c.flux"} {
		h.write(t, name, triangleFlux(t, name))
		ids = append(ids, h.am.AddMesh(name, metadata.MeshFormatUnknown).ID)
	}

	assert.True(t, h.am.LoadMesh(ids[0]))
	assert.True(t, h.am.LoadMesh(ids[1]))
	assert.False(t, h.am.LoadMesh(ids[2]), "full queue defers")
	state, _ := h.am.MeshState(ids[2])
	assert.Equal(t, AssetStateUnloaded, state)
	assert.Equal(t, 2, h.am.Stats().InFlight)

	assert.Equal(t, 2, h.pump())
	assert.True(t, h.am.LoadMesh(ids[2]))
	assert.Equal(t, 1, h.pump())
}

func TestNewAssetManager_TransferBuffersFitInQueue(t *testing.T) {
	config := DefaultAssetsConfig()
	config.QueueCapacity = 4
	config.TransferBuffers = 8
	_, err := NewAssetManager(config, newFakeGPU(), &manualQueue{}, filesystem.OS{}, core.NewDiscardLogger())
	assert.Error(t, err)
}

func TestLoadMesh_DecodeFailureIsTerminal(t *testing.T) {
	h := newHarness(t, nil)
	data := triangleFlux(t, "cliff")
	h.write(t, "cliff.flux", data)
	id := h.am.AddMesh("cliff.flux", metadata.MeshFormatUnknown).ID

	// header still valid, entries cut off
	h.write(t, "cliff.flux", data[:loaders.FluxHeaderSize])
	assert.Nil(t, h.am.GetMesh(id))
	assert.Equal(t, 1, h.pump())

	state, _ := h.am.MeshState(id)
	assert.Equal(t, AssetStateError, state)
	assert.Nil(t, h.am.GetMesh(id))
	assert.Empty(t, h.queue.work, "error state is never retried")
	assert.Equal(t, uint64(1), h.am.Stats().Failed)

	require.NoError(t, h.am.RemoveMesh(id))
	assert.Equal(t, metadata.InvalidAssetID, h.am.FindMesh("cliff"))
}

func TestLoadMesh_UploadFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.gpu.failMeshUpload = true
	h.write(t, "bridge.flux", triangleFlux(t, "bridge"))
	id := h.am.AddMesh("bridge.flux", metadata.MeshFormatUnknown).ID

	h.am.GetMesh(id)
	h.pump()
	state, _ := h.am.MeshState(id)
	assert.Equal(t, AssetStateError, state)
}

func TestLoadTexture_DecodeFailureReleasesTransferBuffer(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "moss.png", pngBytes(t, 8, 8))
	id := h.am.AddTexture("moss.png", metadata.TextureFormatRGBA8, metadata.TextureWrapRepeat, metadata.TextureFilterLinear, metadata.TextureRangeSRGB).ID

	require.NoError(t, os.Remove(filepath.Join(h.dir, "moss.png")))
	h.am.GetTexture(id)
	h.pump()

	state, _ := h.am.TextureState(id)
	assert.Equal(t, AssetStateError, state)
	assert.Zero(t, h.am.Stats().TransfersInUse)
	assert.Zero(t, h.gpu.mapped)
}

func TestUnloadAndRemove_StateRules(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "lamp.flux", triangleFlux(t, "lamp"))
	id := h.am.AddMesh("lamp.flux", metadata.MeshFormatUnknown).ID

	assert.Panics(t, func() { h.am.UnloadMesh(id) }, "unloading an unloaded mesh")

	h.am.GetMesh(id)
	assert.ErrorIs(t, h.am.RemoveMesh(id), ErrAssetBusy)
	assert.Panics(t, func() { h.am.UnloadMesh(id) }, "unloading a queued mesh")

	h.pump()
	require.NotNil(t, h.am.GetMesh(id))
	h.am.UnloadMesh(id)
	assert.Empty(t, h.gpu.meshes)
	state, _ := h.am.MeshState(id)
	assert.Equal(t, AssetStateUnloaded, state)

	// reload and remove while resident
	h.am.GetMesh(id)
	h.pump()
	require.NoError(t, h.am.RemoveMesh(id))
	assert.Empty(t, h.gpu.meshes)
	assert.Empty(t, h.am.MeshIDs())
}

func TestCompletePendingLoads_FiresAssetLoaded(t *testing.T) {
	bus := core.NewEventBus()
	h := newHarness(t, nil)
	WithEventBus(bus)(h.am)

	var got []core.EventContext
	require.NoError(t, bus.Register(core.EVENT_CODE_ASSET_LOADED, t, func(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
		got = append(got, data)
		return false
	}))

	h.write(t, "tree.flux", triangleFlux(t, "tree"))
	id := h.am.AddMesh("tree.flux", metadata.MeshFormatUnknown).ID
	h.am.GetMesh(id)
	h.pump()

	require.Len(t, got, 1)
	assert.Equal(t, uint32(id), got[0].Data.U32[0])
	assert.Equal(t, uint32(metadata.AssetKindMesh), got[0].Data.U32[1])
	assert.Zero(t, got[0].Data.U32[2])
}

// goQueue runs every job on its own goroutine.
type goQueue struct{}

func (goQueue) PushWork(fn func()) bool {
	go fn()
	return true
}

func TestShutdown_DrainsInFlightLoads(t *testing.T) {
	dir := t.TempDir()
	gpu := newFakeGPU()
	config := DefaultAssetsConfig()
	config.Dir = dir
	config.TransferBuffers = 2
	am, err := NewAssetManager(config, gpu, goQueue{}, filesystem.OS{}, core.NewDiscardLogger())
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c", "d"} {
		path := filepath.Join(dir, name+".flux")
		require.NoError(t, os.WriteFile(path, triangleFlux(t, name), 0o644))
		id := am.AddMesh(name+".flux", metadata.MeshFormatUnknown).ID
		am.GetMesh(id)
	}

	require.NoError(t, am.Shutdown())
	assert.Zero(t, am.Stats().InFlight)
	assert.Empty(t, gpu.meshes)
	assert.Equal(t, 2, gpu.destroyed)
}

func TestHotReload_UnloadsChangedFiles(t *testing.T) {
	h := newHarness(t, func(c *AssetsConfig) {
		c.Watch = true
	})
	defer h.am.Shutdown()

	h.write(t, "statue.flux", triangleFlux(t, "statue"))
	id := h.am.AddMesh("statue.flux", metadata.MeshFormatUnknown).ID
	h.am.GetMesh(id)
	h.pump()
	require.NotNil(t, h.am.GetMesh(id))

	h.write(t, "statue.flux", triangleFlux(t, "statue"))
	require.Eventually(t, func() bool {
		h.am.CompletePendingLoads()
		state, _ := h.am.MeshState(id)
		return state != AssetStateLoaded
	}, 5*time.Second, 10*time.Millisecond)

	// the next read streams the new contents
	assert.Nil(t, h.am.GetMesh(id))
	h.pump()
	assert.NotNil(t, h.am.GetMesh(id))
}

func TestHotReload_ChangeDuringLoadAppliesAfterFinalize(t *testing.T) {
	h := newHarness(t, nil)

	file := h.write(t, "statue.flux", triangleFlux(t, "statue"))
	id := h.am.AddMesh(file, metadata.MeshFormatUnknown).ID
	assert.Nil(t, h.am.GetMesh(id))
	state, _ := h.am.MeshState(id)
	require.Equal(t, AssetStateQueued, state)

	// the file changes while the decode is still queued
	h.am.reload(canonical(h.am.resolve(file)))
	state, _ = h.am.MeshState(id)
	assert.Equal(t, AssetStateQueued, state)

	h.pump()
	state, _ = h.am.MeshState(id)
	assert.Equal(t, AssetStateUnloaded, state, "stale contents are dropped once loaded")
	assert.Empty(t, h.gpu.meshes)

	assert.Nil(t, h.am.GetMesh(id))
	h.pump()
	assert.NotNil(t, h.am.GetMesh(id))
	h.am.CompletePendingLoads()
	state, _ = h.am.MeshState(id)
	assert.Equal(t, AssetStateLoaded, state, "a reload is applied only once")
}
