package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/containers"
)

const (
	DefaultMaxCommands = 4096
	DefaultArenaSize   = 1024 * 1024
)

const noBatch = -1

/**
 * @brief Index record of one command. Offset points at its payload in the
 * arena; Count is the number of line vertices for a line batch.
 */
type CommandEntry struct {
	Offset uint32
	Type   CommandType
	Count  uint32
}

/**
 * @brief Per-frame command buffer. Scene code records draw intents here and
 * the renderer replays them in push order, once per pass. Nothing survives
 * Reset, which runs after the frame has been rendered.
 */
type RenderGroup struct {
	arena       *containers.FlatBuffer[byte]
	entries     *containers.FlatBuffer[CommandEntry]
	maxCommands int
	light       *DirectionalLight
	// index of the open LineBegin entry, noBatch when none is open
	batch int
}

/**
 * @param light Renderer owned light that PushSetDirLight writes through.
 */
func NewRenderGroup(maxCommands int, arenaSize int, light *DirectionalLight) *RenderGroup {
	if maxCommands <= 0 {
		maxCommands = DefaultMaxCommands
	}
	if arenaSize <= 0 {
		arenaSize = DefaultArenaSize
	}
	if light == nil {
		l := DefaultDirectionalLight()
		light = &l
	}
	return &RenderGroup{
		arena:       containers.NewFlatBuffer[byte](arenaSize),
		entries:     containers.NewFlatBuffer[CommandEntry](maxCommands),
		maxCommands: maxCommands,
		light:       light,
		batch:       noBatch,
	}
}

func (rg *RenderGroup) requireNoBatch(t CommandType) {
	if rg.batch != noBatch {
		panic(fmt.Sprintf("renderer: %s pushed while a line batch is open", t))
	}
}

func (rg *RenderGroup) requireBatch(t CommandType) {
	if rg.batch == noBatch {
		panic(fmt.Sprintf("renderer: %s pushed without an open line batch", t))
	}
}

func (rg *RenderGroup) push(t CommandType, size int, record any) {
	if rg.entries.Len() >= rg.maxCommands {
		panic(fmt.Sprintf("renderer: render group full at %d commands", rg.maxCommands))
	}
	offset := rg.arena.Len()
	encodeRecord(rg.arena.PushArray(size), record)
	rg.entries.Push(CommandEntry{Offset: uint32(offset), Type: t})
}

func (rg *RenderGroup) PushDrawMesh(cmd DrawMeshCmd) {
	rg.requireNoBatch(CommandDrawMesh)
	rg.push(CommandDrawMesh, drawMeshSize, &drawMeshRecord{
		Mesh:        cmd.Mesh,
		CastShadows: boolWord(cmd.CastShadows),
		Transform:   cmd.Transform,
		Material:    encodeMaterial(cmd.Material),
	})
}

/**
 * @brief Replaces the directional light right away. Nothing is recorded, so
 * the last call of a frame wins for every pass of that frame.
 */
func (rg *RenderGroup) PushSetDirLight(light DirectionalLight) {
	rg.requireNoBatch(CommandSetDirLight)
	if light.Direction.Len() > 0 {
		light.Direction = light.Direction.Normalize()
	}
	*rg.light = light
}

func (rg *RenderGroup) PushLineBegin(cmd LineBeginCmd) {
	rg.requireNoBatch(CommandLineBegin)
	rg.push(CommandLineBegin, lineBeginSize, &lineBeginRecord{
		Color:     cmd.Color,
		Width:     cmd.Width,
		DepthTest: boolWord(cmd.DepthTest),
	})
	rg.batch = rg.entries.Len() - 1
}

// PushLineVertex appends a vertex to the open batch. Vertices are stored
// right after the LineBegin payload.
func (rg *RenderGroup) PushLineVertex(v mgl32.Vec3) {
	rg.requireBatch(CommandLineVertex)
	encodeRecord(rg.arena.PushArray(lineVertexSize), &v)
	rg.entries.At(rg.batch).Count++
}

func (rg *RenderGroup) PushLineEnd() {
	rg.requireBatch(CommandLineEnd)
	rg.batch = noBatch
}

func (rg *RenderGroup) PushDrawWater(cmd DrawWaterCmd) {
	rg.requireNoBatch(CommandDrawWater)
	rg.push(CommandDrawWater, drawWaterSize, &drawWaterRecord{
		Transform:    cmd.Transform,
		ShallowColor: cmd.ShallowColor,
		DeepColor:    cmd.DeepColor,
		WaveScale:    cmd.WaveScale,
		WaveSpeed:    cmd.WaveSpeed,
		NormalMap:    cmd.NormalMap,
	})
}

// Reset rewinds the arena and the index. An open batch is a programming error.
func (rg *RenderGroup) Reset() {
	if rg.batch != noBatch {
		panic("renderer: render group reset with an open line batch")
	}
	rg.arena.Clear()
	rg.entries.Clear()
}

func (rg *RenderGroup) Len() int {
	return rg.entries.Len()
}

func (rg *RenderGroup) Command(i int) CommandEntry {
	return *rg.entries.At(i)
}

// Each visits the commands in push order until fn returns false.
func (rg *RenderGroup) Each(fn func(i int, e CommandEntry) bool) {
	for i, e := range rg.entries.Slice() {
		if !fn(i, e) {
			return
		}
	}
}

// Light returns the light PushSetDirLight writes to.
func (rg *RenderGroup) Light() DirectionalLight {
	return *rg.light
}

// BatchOpen reports whether a LineBegin is waiting for its LineEnd.
func (rg *RenderGroup) BatchOpen() bool {
	return rg.batch != noBatch
}

// ArenaLen is the number of payload bytes recorded this frame.
func (rg *RenderGroup) ArenaLen() int {
	return rg.arena.Len()
}

func (rg *RenderGroup) payload(e CommandEntry, want CommandType, size int) []byte {
	if e.Type != want {
		panic(fmt.Sprintf("renderer: reading %s payload from a %s command", want, e.Type))
	}
	return rg.arena.Slice()[e.Offset : int(e.Offset)+size]
}

func (rg *RenderGroup) DrawMesh(e CommandEntry) DrawMeshCmd {
	var rec drawMeshRecord
	decodeRecord(rg.payload(e, CommandDrawMesh, drawMeshSize), &rec)
	return DrawMeshCmd{
		Mesh:        rec.Mesh,
		Transform:   rec.Transform,
		Material:    rec.Material.material(),
		CastShadows: rec.CastShadows != 0,
	}
}

func (rg *RenderGroup) LineBegin(e CommandEntry) LineBeginCmd {
	var rec lineBeginRecord
	decodeRecord(rg.payload(e, CommandLineBegin, lineBeginSize), &rec)
	return LineBeginCmd{Color: rec.Color, Width: rec.Width, DepthTest: rec.DepthTest != 0}
}

// LineVertices decodes the vertices of a line batch.
func (rg *RenderGroup) LineVertices(e CommandEntry) []mgl32.Vec3 {
	raw := rg.payload(e, CommandLineBegin, lineBeginSize+int(e.Count)*lineVertexSize)
	if e.Count == 0 {
		return nil
	}
	out := make([]mgl32.Vec3, e.Count)
	decodeRecord(raw[lineBeginSize:], out)
	return out
}

func (rg *RenderGroup) DrawWater(e CommandEntry) DrawWaterCmd {
	var rec drawWaterRecord
	decodeRecord(rg.payload(e, CommandDrawWater, drawWaterSize), &rec)
	return DrawWaterCmd{
		Transform:    rec.Transform,
		ShallowColor: rec.ShallowColor,
		DeepColor:    rec.DeepColor,
		WaveScale:    rec.WaveScale,
		WaveSpeed:    rec.WaveSpeed,
		NormalMap:    rec.NormalMap,
	}
}
