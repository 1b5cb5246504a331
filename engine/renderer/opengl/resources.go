package opengl

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

var ErrNotMapped = errors.New("transfer buffer is not mapped")

// Interleaved vertex layout: position, normal, uv, tangent, color.
const (
	vertexFloats = 3 + 3 + 2 + 3 + 4
	vertexStride = vertexFloats * 4
)

type glMesh struct {
	vao, vbo, ebo uint32
	subMeshes     []metadata.SubMesh
}

type glTexture struct {
	id uint32
}

type glTransfer struct {
	pbo uint32
}

// interleave packs data into the vertex layout, filling missing attributes with defaults.
func interleave(data *metadata.MeshData) []float32 {
	n := len(data.Positions)
	out := make([]float32, 0, n*vertexFloats)
	for i := 0; i < n; i++ {
		p := data.Positions[i]
		normal := mgl32.Vec3{0, 1, 0}
		if len(data.Normals) == n {
			normal = data.Normals[i]
		}
		var uv mgl32.Vec2
		if len(data.UVs) == n {
			uv = data.UVs[i]
		}
		tangent := mgl32.Vec3{1, 0, 0}
		if len(data.Tangents) == n {
			tangent = data.Tangents[i]
		}
		color := mgl32.Vec4{1, 1, 1, 1}
		if len(data.Colors) == n {
			color = data.Colors[i]
		}
		out = append(out,
			p[0], p[1], p[2],
			normal[0], normal[1], normal[2],
			uv[0], uv[1],
			tangent[0], tangent[1], tangent[2],
			color[0], color[1], color[2], color[3])
	}
	return out
}

func (b *Backend) CreateMesh(mesh *metadata.Mesh) error {
	if mesh.Data == nil || len(mesh.Data.Positions) == 0 || len(mesh.SubMeshes) == 0 {
		return fmt.Errorf("mesh %q has no geometry", mesh.Name)
	}
	vertices := interleave(mesh.Data)

	m := &glMesh{subMeshes: append([]metadata.SubMesh(nil), mesh.SubMeshes...)}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	if len(mesh.Data.Indices) > 0 {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Data.Indices)*4, gl.Ptr(mesh.Data.Indices), gl.STATIC_DRAW)
	}

	sizes := []int32{3, 3, 2, 3, 4}
	offset := 0
	for loc, size := range sizes {
		gl.EnableVertexAttribArray(uint32(loc))
		gl.VertexAttribPointer(uint32(loc), size, gl.FLOAT, false, vertexStride, gl.PtrOffset(offset))
		offset += int(size) * 4
	}
	gl.BindVertexArray(0)

	if err := glError("create mesh"); err != nil {
		b.deleteMesh(m)
		return fmt.Errorf("mesh %q: %w", mesh.Name, err)
	}
	mesh.GPUHandle = m
	b.meshes++
	return nil
}

func (b *Backend) DestroyMesh(mesh *metadata.Mesh) {
	m, ok := mesh.GPUHandle.(*glMesh)
	if !ok {
		return
	}
	b.deleteMesh(m)
	mesh.GPUHandle = nil
	b.meshes--
}

func (b *Backend) deleteMesh(m *glMesh) {
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteVertexArrays(1, &m.vao)
}

// draw issues one draw per sub-mesh. Indices are local to their sub-mesh.
func (m *glMesh) draw() {
	gl.BindVertexArray(m.vao)
	for _, sm := range m.subMeshes {
		if sm.IndexCount == 0 {
			gl.DrawArrays(gl.TRIANGLES, int32(sm.VertexOffset), int32(sm.VertexCount))
			continue
		}
		gl.DrawElementsBaseVertex(gl.TRIANGLES, int32(sm.IndexCount), gl.UNSIGNED_INT,
			gl.PtrOffset(int(sm.IndexOffset)*4), int32(sm.VertexOffset))
	}
}

// pixelFormat maps a texture format onto GL's upload format and internal format.
func pixelFormat(t *metadata.Texture) (format uint32, internal int32, err error) {
	srgb := t.Range == metadata.TextureRangeSRGB
	switch t.Format {
	case metadata.TextureFormatR8:
		return gl.RED, gl.R8, nil
	case metadata.TextureFormatRG8:
		return gl.RG, gl.RG8, nil
	case metadata.TextureFormatRGB8:
		if srgb {
			return gl.RGB, gl.SRGB8, nil
		}
		return gl.RGB, gl.RGB8, nil
	case metadata.TextureFormatRGBA8:
		if srgb {
			return gl.RGBA, gl.SRGB8_ALPHA8, nil
		}
		return gl.RGBA, gl.RGBA8, nil
	}
	return 0, 0, fmt.Errorf("unsupported texture format %s", t.Format)
}

func wrapMode(w metadata.TextureWrap) int32 {
	switch w {
	case metadata.TextureWrapMirroredRepeat:
		return gl.MIRRORED_REPEAT
	case metadata.TextureWrapClampToEdge:
		return gl.CLAMP_TO_EDGE
	case metadata.TextureWrapClampToBorder:
		return gl.CLAMP_TO_BORDER
	default:
		return gl.REPEAT
	}
}

// uploadTexture creates the GL texture from pixels, which is either client
// memory or an offset into the bound pixel unpack buffer.
func (b *Backend) uploadTexture(texture *metadata.Texture, pixels unsafe.Pointer) error {
	format, internal, err := pixelFormat(texture)
	if err != nil {
		return err
	}
	t := &glTexture{}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(texture.Width), int32(texture.Height), 0, format, gl.UNSIGNED_BYTE, pixels)

	wrap := wrapMode(texture.Wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	switch texture.Filter {
	case metadata.TextureFilterNearest:
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	case metadata.TextureFilterLinear:
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	default:
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glError("upload texture"); err != nil {
		gl.DeleteTextures(1, &t.id)
		return fmt.Errorf("texture %q: %w", texture.Name, err)
	}
	texture.GPUHandle = t
	b.textures++
	return nil
}

func (b *Backend) CreateTexture(texture *metadata.Texture, pixels []byte) error {
	if len(pixels) < texture.ByteSize() || len(pixels) == 0 {
		return fmt.Errorf("texture %q needs %d bytes, got %d", texture.Name, texture.ByteSize(), len(pixels))
	}
	return b.uploadTexture(texture, gl.Ptr(pixels))
}

func (b *Backend) DestroyTexture(texture *metadata.Texture) {
	t, ok := texture.GPUHandle.(*glTexture)
	if !ok {
		return
	}
	gl.DeleteTextures(1, &t.id)
	texture.GPUHandle = nil
	b.textures--
}

func (b *Backend) CreateTransferBuffer(index int, size int) (*metadata.TransferBuffer, error) {
	t := &glTransfer{}
	gl.GenBuffers(1, &t.pbo)
	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, t.pbo)
	gl.BufferData(gl.PIXEL_UNPACK_BUFFER, size, nil, gl.STREAM_DRAW)
	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, 0)
	if err := glError("create transfer buffer"); err != nil {
		gl.DeleteBuffers(1, &t.pbo)
		return nil, err
	}
	return &metadata.TransferBuffer{Index: index, Size: size, InternalData: t}, nil
}

/**
 * @brief Maps the whole buffer unsynchronized. The pool guarantees GL never
 * reads a buffer while a worker owns its mapping.
 */
func (b *Backend) MapTransferBuffer(buffer *metadata.TransferBuffer) error {
	t := buffer.InternalData.(*glTransfer)
	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, t.pbo)
	ptr := gl.MapBufferRange(gl.PIXEL_UNPACK_BUFFER, 0, buffer.Size,
		gl.MAP_WRITE_BIT|gl.MAP_INVALIDATE_BUFFER_BIT|gl.MAP_UNSYNCHRONIZED_BIT)
	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, 0)
	if ptr == nil {
		return fmt.Errorf("map transfer buffer %d: gl error 0x%x", buffer.Index, gl.GetError())
	}
	buffer.Mapped = unsafe.Slice((*byte)(ptr), buffer.Size)
	return nil
}

func (b *Backend) UnmapTransferBuffer(buffer *metadata.TransferBuffer) {
	if buffer.Mapped == nil {
		return
	}
	t := buffer.InternalData.(*glTransfer)
	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, t.pbo)
	gl.UnmapBuffer(gl.PIXEL_UNPACK_BUFFER)
	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, 0)
	buffer.Mapped = nil
}

func (b *Backend) CompleteTextureTransfer(buffer *metadata.TransferBuffer, texture *metadata.Texture) error {
	if buffer.Mapped == nil {
		return ErrNotMapped
	}
	if size := texture.ByteSize(); size > buffer.Size {
		b.UnmapTransferBuffer(buffer)
		return fmt.Errorf("texture %q needs %d bytes, transfer buffer holds %d", texture.Name, size, buffer.Size)
	}
	t := buffer.InternalData.(*glTransfer)
	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, t.pbo)
	gl.UnmapBuffer(gl.PIXEL_UNPACK_BUFFER)
	buffer.Mapped = nil
	err := b.uploadTexture(texture, gl.PtrOffset(0))
	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, 0)
	return err
}

func (b *Backend) DestroyTransferBuffer(buffer *metadata.TransferBuffer) {
	t, ok := buffer.InternalData.(*glTransfer)
	if !ok {
		return
	}
	b.UnmapTransferBuffer(buffer)
	gl.DeleteBuffers(1, &t.pbo)
	buffer.InternalData = nil
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: gl error 0x%x", op, code)
	}
	return nil
}
