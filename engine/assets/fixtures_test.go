package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/assets/loaders"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/platform/filesystem"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
	"github.com/stretchr/testify/require"
)

// fakeGPU records what the manager asks of the backend.
type fakeGPU struct {
	meshes         map[metadata.AssetID]*metadata.Mesh
	textures       map[metadata.AssetID]*metadata.Texture
	directUploads  int
	transfers      int
	mapped         int
	failMeshUpload bool
	destroyed      int
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{
		meshes:   make(map[metadata.AssetID]*metadata.Mesh),
		textures: make(map[metadata.AssetID]*metadata.Texture),
	}
}

func (g *fakeGPU) CreateMesh(mesh *metadata.Mesh) error {
	if g.failMeshUpload {
		return errors.New("out of video memory")
	}
	mesh.GPUHandle = len(g.meshes) + 1
	g.meshes[mesh.ID] = mesh
	return nil
}

func (g *fakeGPU) DestroyMesh(mesh *metadata.Mesh) {
	delete(g.meshes, mesh.ID)
}

func (g *fakeGPU) CreateTexture(texture *metadata.Texture, pixels []byte) error {
	g.directUploads++
	texture.Pixels = pixels
	g.textures[texture.ID] = texture
	return nil
}

func (g *fakeGPU) DestroyTexture(texture *metadata.Texture) {
	delete(g.textures, texture.ID)
}

func (g *fakeGPU) CreateTransferBuffer(index int, size int) (*metadata.TransferBuffer, error) {
	return &metadata.TransferBuffer{Index: index, Size: size}, nil
}

func (g *fakeGPU) MapTransferBuffer(buffer *metadata.TransferBuffer) error {
	g.mapped++
	buffer.Mapped = make([]byte, buffer.Size)
	return nil
}

func (g *fakeGPU) UnmapTransferBuffer(buffer *metadata.TransferBuffer) {
	g.mapped--
}

func (g *fakeGPU) CompleteTextureTransfer(buffer *metadata.TransferBuffer, texture *metadata.Texture) error {
	g.mapped--
	g.transfers++
	texture.Pixels = append([]byte(nil), buffer.Mapped[:texture.ByteSize()]...)
	g.textures[texture.ID] = texture
	return nil
}

func (g *fakeGPU) DestroyTransferBuffer(buffer *metadata.TransferBuffer) {
	g.destroyed++
}

// manualQueue holds work until the test runs it, so every interleaving is explicit.
type manualQueue struct {
	work  []func()
	limit int
}

func (q *manualQueue) PushWork(fn func()) bool {
	if q.limit > 0 && len(q.work) >= q.limit {
		return false
	}
	q.work = append(q.work, fn)
	return true
}

func (q *manualQueue) runAll() int {
	n := len(q.work)
	for len(q.work) > 0 {
		fn := q.work[0]
		q.work = q.work[1:]
		fn()
	}
	return n
}

type harness struct {
	dir   string
	gpu   *fakeGPU
	queue *manualQueue
	am    *AssetManager
}

func newHarness(t *testing.T, mutate func(*AssetsConfig)) *harness {
	t.Helper()
	h := &harness{
		dir:   t.TempDir(),
		gpu:   newFakeGPU(),
		queue: &manualQueue{},
	}
	config := DefaultAssetsConfig()
	config.Dir = h.dir
	config.TransferBuffers = 2
	config.TransferBufferSize = 64 * 64 * 4
	if mutate != nil {
		mutate(&config)
	}
	am, err := NewAssetManager(config, h.gpu, h.queue, filesystem.OS{}, core.NewDiscardLogger())
	require.NoError(t, err)
	h.am = am
	return h
}

// pump runs every queued job and finalizes the results.
func (h *harness) pump() int {
	h.queue.runAll()
	return h.am.CompletePendingLoads()
}

func (h *harness) write(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return name
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func triangleFlux(t *testing.T, name string) []byte {
	t.Helper()
	mesh := &metadata.Mesh{
		Name: name,
		Data: &metadata.MeshData{
			Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
			Indices:   []uint32{0, 1, 2},
		},
		SubMeshes: []metadata.SubMesh{
			{Name: "tri", AABBMax: mgl32.Vec3{1, 1, 0}, VertexCount: 3, IndexCount: 3},
		},
	}
	data, err := loaders.EncodeFlux(mesh)
	require.NoError(t, err)
	return data
}
