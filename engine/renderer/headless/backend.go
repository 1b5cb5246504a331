package headless

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/renderer"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

var ErrNotMapped = errors.New("transfer buffer is not mapped")

// handle is what the backend stores in GPUHandle.
type handle struct {
	serial uint32
}

/** @brief One replayed draw, kept for inspection. */
type Draw struct {
	Pass     string
	Cascade  int
	Mesh     metadata.AssetID
	Material metadata.MaterialWorkflow
	// Fallbacks of the material binding, main pass only.
	Fallbacks int
}

/**
 * @brief Backend without a GPU. Resources live in plain memory and every
 * pass call is recorded, which is what tests and the headless run mode use.
 */
type Backend struct {
	logger *core.Logger
	serial *core.SerialCounter

	width, height uint32

	Meshes   map[metadata.AssetID]*metadata.Mesh
	Textures map[metadata.AssetID]*metadata.Texture

	MappedBuffers int
	Uploads       int
	Frames        uint64

	// Draws holds the calls of the current frame, LastFrame those of the previous one.
	Draws     []Draw
	LastFrame []Draw
	Lines     int
	Water     int
	Post      []renderer.PostSettings
	Frame     *renderer.FrameData

	activeCascade int
	inFrame       bool
}

func New(logger *core.Logger) *Backend {
	return &Backend{
		logger:        logger,
		serial:        core.NewSerialCounter(1),
		Meshes:        make(map[metadata.AssetID]*metadata.Mesh),
		Textures:      make(map[metadata.AssetID]*metadata.Texture),
		activeCascade: -1,
	}
}

func (b *Backend) Initialize(appName string, width, height uint32) error {
	b.width, b.height = width, height
	b.logger.Infof("headless backend for %s (%dx%d)", appName, width, height)
	return nil
}

func (b *Backend) Shutdown() error {
	if len(b.Meshes) > 0 || len(b.Textures) > 0 {
		return fmt.Errorf("headless backend shut down with %d meshes and %d textures alive", len(b.Meshes), len(b.Textures))
	}
	return nil
}

func (b *Backend) Resized(width, height uint32) error {
	b.width, b.height = width, height
	return nil
}

func (b *Backend) Size() (uint32, uint32) {
	return b.width, b.height
}

func (b *Backend) CreateMesh(mesh *metadata.Mesh) error {
	if mesh.Data == nil || len(mesh.SubMeshes) == 0 {
		return fmt.Errorf("mesh %q has no geometry", mesh.Name)
	}
	mesh.GPUHandle = &handle{serial: b.serial.Next()}
	b.Meshes[mesh.ID] = mesh
	return nil
}

func (b *Backend) DestroyMesh(mesh *metadata.Mesh) {
	delete(b.Meshes, mesh.ID)
	mesh.GPUHandle = nil
}

func (b *Backend) CreateTexture(texture *metadata.Texture, pixels []byte) error {
	if len(pixels) < texture.ByteSize() {
		return fmt.Errorf("texture %q needs %d bytes, got %d", texture.Name, texture.ByteSize(), len(pixels))
	}
	texture.GPUHandle = &handle{serial: b.serial.Next()}
	b.Textures[texture.ID] = texture
	b.Uploads++
	return nil
}

func (b *Backend) DestroyTexture(texture *metadata.Texture) {
	delete(b.Textures, texture.ID)
	texture.GPUHandle = nil
}

func (b *Backend) CreateTransferBuffer(index int, size int) (*metadata.TransferBuffer, error) {
	return &metadata.TransferBuffer{Index: index, Size: size, InternalData: make([]byte, size)}, nil
}

func (b *Backend) MapTransferBuffer(buffer *metadata.TransferBuffer) error {
	buffer.Mapped = buffer.InternalData.([]byte)
	b.MappedBuffers++
	return nil
}

func (b *Backend) UnmapTransferBuffer(buffer *metadata.TransferBuffer) {
	if buffer.Mapped != nil {
		b.MappedBuffers--
	}
	buffer.Mapped = nil
}

func (b *Backend) CompleteTextureTransfer(buffer *metadata.TransferBuffer, texture *metadata.Texture) error {
	if buffer.Mapped == nil {
		return ErrNotMapped
	}
	size := texture.ByteSize()
	if size > buffer.Size {
		return fmt.Errorf("texture %q needs %d bytes, transfer buffer holds %d", texture.Name, size, buffer.Size)
	}
	b.UnmapTransferBuffer(buffer)
	texture.GPUHandle = &handle{serial: b.serial.Next()}
	b.Textures[texture.ID] = texture
	b.Uploads++
	return nil
}

func (b *Backend) DestroyTransferBuffer(buffer *metadata.TransferBuffer) {
	buffer.InternalData = nil
	buffer.Mapped = nil
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	if b.inFrame {
		return errors.New("headless frame already begun")
	}
	b.inFrame = true
	b.Draws = b.Draws[:0]
	b.Lines, b.Water = 0, 0
	b.Post = b.Post[:0]
	return nil
}

func (b *Backend) EndFrame(deltaTime float64) error {
	if !b.inFrame {
		return errors.New("headless frame not begun")
	}
	b.inFrame = false
	b.LastFrame = append(b.LastFrame[:0], b.Draws...)
	b.Frames++
	return nil
}

func (b *Backend) BeginShadowPass(cascade int, lightSpace mgl32.Mat4) {
	b.activeCascade = cascade
}

func (b *Backend) DrawMeshDepth(mesh *metadata.Mesh, transform mgl32.Mat4) {
	b.Draws = append(b.Draws, Draw{Pass: "shadow", Cascade: b.activeCascade, Mesh: mesh.ID})
}

func (b *Backend) EndShadowPass(cascade int) {
	b.activeCascade = -1
}

func (b *Backend) BeginMainPass(frame *renderer.FrameData) {
	b.Frame = frame
}

func (b *Backend) DrawMesh(mesh *metadata.Mesh, transform mgl32.Mat4, material *renderer.MaterialBinding) {
	b.Draws = append(b.Draws, Draw{
		Pass:      "main",
		Cascade:   -1,
		Mesh:      mesh.ID,
		Material:  material.Workflow,
		Fallbacks: material.Fallbacks,
	})
}

func (b *Backend) DrawLines(cmd renderer.LineBeginCmd, vertices []mgl32.Vec3) {
	b.Lines++
}

func (b *Backend) DrawWater(cmd renderer.DrawWaterCmd, normalMap *metadata.Texture) {
	b.Water++
}

func (b *Backend) EndMainPass() {}

func (b *Backend) PostProcess(settings renderer.PostSettings) {
	b.Post = append(b.Post, settings)
}

// DrawsIn filters the current frame's draws by pass name.
func (b *Backend) DrawsIn(pass string) []Draw {
	var out []Draw
	for _, d := range b.Draws {
		if d.Pass == pass {
			out = append(out, d)
		}
	}
	return out
}

var _ renderer.Backend = (*Backend)(nil)
