package loaders

import (
	"encoding/binary"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

const (
	FluxMagic         uint32 = 0xffaabbcc
	FluxAssetTypeMesh uint32 = 1
	FluxVersion       uint32 = 1

	fluxNameSize   = 128
	FluxHeaderSize = 4 + 4 + 4 + 4 + 8 + 8 + 8 + fluxNameSize
	FluxEntrySize  = 8 + fluxNameSize + 12 + 12 + 4 + 4 + 7*8
)

/**
 * @brief Header of a Flux container. All offsets are absolute from the start
 * of the file, little-endian, without padding.
 */
type FluxHeader struct {
	Magic         uint32
	Type          uint32
	Version       uint32
	EntryCount    uint32
	EntriesOffset uint64
	DataOffset    uint64
	DataSize      uint64
	Name          string
}

/**
 * @brief Describes one sub-mesh. Next is the offset of the following entry,
 * 0 on the last one. A zero attribute offset means the attribute is absent.
 */
type FluxEntry struct {
	Next             uint64
	Name             string
	AABBMin          mgl32.Vec3
	AABBMax          mgl32.Vec3
	VertexCount      uint32
	IndexCount       uint32
	VerticesOffset   uint64
	NormalsOffset    uint64
	UVOffset         uint64
	TangentsOffset   uint64
	BitangentsOffset uint64
	ColorsOffset     uint64
	IndicesOffset    uint64
}

/**
 * @brief Validates the Flux header without touching the entry data.
 * @param data At least the first FluxHeaderSize bytes of the file.
 */
func ProbeFlux(data []byte) (*FluxHeader, error) {
	if len(data) < FluxHeaderSize {
		return nil, fmt.Errorf("flux header: %w", ErrTruncated)
	}
	h := &FluxHeader{
		Magic:         binary.LittleEndian.Uint32(data[0:]),
		Type:          binary.LittleEndian.Uint32(data[4:]),
		Version:       binary.LittleEndian.Uint32(data[8:]),
		EntryCount:    binary.LittleEndian.Uint32(data[12:]),
		EntriesOffset: binary.LittleEndian.Uint64(data[16:]),
		DataOffset:    binary.LittleEndian.Uint64(data[24:]),
		DataSize:      binary.LittleEndian.Uint64(data[32:]),
		Name:          fixedString(data[40 : 40+fluxNameSize]),
	}
	if h.Magic != FluxMagic {
		return nil, fmt.Errorf("flux: %w 0x%08x", ErrBadMagic, h.Magic)
	}
	if h.Type != FluxAssetTypeMesh {
		return nil, fmt.Errorf("flux: %w %d", ErrBadAssetType, h.Type)
	}
	if h.Version != FluxVersion {
		return nil, fmt.Errorf("flux: %w %d", ErrBadVersion, h.Version)
	}
	return h, nil
}

func readFluxEntry(b blob, offset uint64) (*FluxEntry, error) {
	raw, err := b.span(offset, FluxEntrySize)
	if err != nil {
		return nil, fmt.Errorf("flux entry at %d: %w", offset, err)
	}
	e := &FluxEntry{Next: binary.LittleEndian.Uint64(raw)}
	off := 8
	e.Name = fixedString(raw[off : off+fluxNameSize])
	off += fluxNameSize
	bounds, _ := blob(raw).f32s(uint64(off), 6)
	e.AABBMin = mgl32.Vec3{bounds[0], bounds[1], bounds[2]}
	e.AABBMax = mgl32.Vec3{bounds[3], bounds[4], bounds[5]}
	off += 24
	e.VertexCount = binary.LittleEndian.Uint32(raw[off:])
	e.IndexCount = binary.LittleEndian.Uint32(raw[off+4:])
	off += 8
	offsets := []*uint64{&e.VerticesOffset, &e.NormalsOffset, &e.UVOffset, &e.TangentsOffset,
		&e.BitangentsOffset, &e.ColorsOffset, &e.IndicesOffset}
	for i, o := range offsets {
		*o = binary.LittleEndian.Uint64(raw[off+i*8:])
	}
	return e, nil
}

/**
 * @brief Decodes a whole Flux file into a mesh. Every sub-mesh entry becomes a
 * range of the shared vertex and index arena; indices stay local to their
 * sub-mesh.
 */
func DecodeFlux(data []byte) (*metadata.Mesh, error) {
	h, err := ProbeFlux(data)
	if err != nil {
		return nil, err
	}
	if h.EntryCount == 0 {
		return nil, fmt.Errorf("flux %q: no entries", h.Name)
	}
	// every entry is a fixed-size record, so the file bounds the count
	if uint64(h.EntryCount) > uint64(len(data))/FluxEntrySize {
		return nil, fmt.Errorf("flux %q: %d entries do not fit in %d bytes: %w", h.Name, h.EntryCount, len(data), ErrTruncated)
	}

	b := blob(data)
	md := &metadata.MeshData{}
	mesh := &metadata.Mesh{
		Name:      h.Name,
		Format:    metadata.MeshFormatFlux,
		SubMeshes: make([]metadata.SubMesh, 0, h.EntryCount),
		Data:      md,
	}

	visited := make(map[uint64]struct{}, h.EntryCount)
	offset := h.EntriesOffset
	for i := uint32(0); i < h.EntryCount; i++ {
		if offset == 0 {
			return nil, fmt.Errorf("flux %q: entry chain ends after %d of %d entries: %w", h.Name, i, h.EntryCount, ErrTruncated)
		}
		if _, seen := visited[offset]; seen {
			return nil, fmt.Errorf("flux %q: entry chain revisits offset %d: %w", h.Name, offset, ErrEntryCycle)
		}
		visited[offset] = struct{}{}
		e, err := readFluxEntry(b, offset)
		if err != nil {
			return nil, err
		}
		if err := appendFluxEntry(b, e, md, mesh); err != nil {
			return nil, fmt.Errorf("flux %q entry %q: %w", h.Name, e.Name, err)
		}
		offset = e.Next
	}

	mesh.ComputeBounds()
	return mesh, nil
}

func appendFluxEntry(b blob, e *FluxEntry, md *metadata.MeshData, mesh *metadata.Mesh) error {
	if e.VerticesOffset == 0 || e.VertexCount == 0 {
		return ErrMissingVertex
	}
	base := uint32(len(md.Positions))
	positions, err := b.vec3s(e.VerticesOffset, e.VertexCount)
	if err != nil {
		return err
	}

	// optional attributes are padded so every array stays parallel to Positions
	normals, err := optionalVec3s(b, e.NormalsOffset, e.VertexCount)
	if err != nil {
		return err
	}
	tangents, err := optionalVec3s(b, e.TangentsOffset, e.VertexCount)
	if err != nil {
		return err
	}
	bitangents, err := optionalVec3s(b, e.BitangentsOffset, e.VertexCount)
	if err != nil {
		return err
	}
	var uvs []mgl32.Vec2
	if e.UVOffset != 0 {
		if uvs, err = b.vec2s(e.UVOffset, e.VertexCount); err != nil {
			return err
		}
	}
	var colors []mgl32.Vec4
	if e.ColorsOffset != 0 {
		if colors, err = b.vec4s(e.ColorsOffset, e.VertexCount); err != nil {
			return err
		}
	}
	var indices []uint32
	if e.IndicesOffset != 0 && e.IndexCount > 0 {
		if indices, err = b.u32s(e.IndicesOffset, e.IndexCount); err != nil {
			return err
		}
		if err := checkIndices(indices, e.VertexCount); err != nil {
			return err
		}
	}

	md.Normals = appendAttribute(md.Normals, normals, int(base), len(positions))
	md.Tangents = appendAttribute(md.Tangents, tangents, int(base), len(positions))
	md.Bitangents = appendAttribute(md.Bitangents, bitangents, int(base), len(positions))
	md.UVs = appendAttribute(md.UVs, uvs, int(base), len(positions))
	md.Colors = appendAttribute(md.Colors, colors, int(base), len(positions))
	md.Positions = append(md.Positions, positions...)

	indexBase := uint32(len(md.Indices))
	md.Indices = append(md.Indices, indices...)

	mesh.SubMeshes = append(mesh.SubMeshes, metadata.SubMesh{
		Name:         e.Name,
		AABBMin:      e.AABBMin,
		AABBMax:      e.AABBMax,
		VertexOffset: base,
		VertexCount:  e.VertexCount,
		IndexOffset:  indexBase,
		IndexCount:   uint32(len(indices)),
	})
	return nil
}

func optionalVec3s(b blob, offset uint64, count uint32) ([]mgl32.Vec3, error) {
	if offset == 0 {
		return nil, nil
	}
	return b.vec3s(offset, count)
}

// appendAttribute keeps dst parallel to the position array. Attributes absent
// from every sub-mesh stay empty, otherwise gaps are zero filled.
func appendAttribute[T any](dst, src []T, base, count int) []T {
	if len(src) == 0 && len(dst) == 0 {
		return dst
	}
	if len(dst) < base {
		dst = append(dst, make([]T, base-len(dst))...)
	}
	if len(src) == 0 {
		return append(dst, make([]T, count)...)
	}
	return append(dst, src...)
}

/**
 * @brief Serialises mesh as a Flux container. Each sub-mesh gets its own
 * entry and its own copy of the vertex range it references.
 */
func EncodeFlux(mesh *metadata.Mesh) ([]byte, error) {
	if mesh.Data == nil || len(mesh.SubMeshes) == 0 {
		return nil, fmt.Errorf("flux encode %q: %w", mesh.Name, ErrMissingVertex)
	}
	md := mesh.Data
	entriesOffset := uint64(FluxHeaderSize)
	dataOffset := entriesOffset + uint64(len(mesh.SubMeshes))*FluxEntrySize

	var entries, payload []byte
	cursor := dataOffset
	put := func(raw []byte) uint64 {
		if len(raw) == 0 {
			return 0
		}
		at := cursor
		payload = append(payload, raw...)
		cursor += uint64(len(raw))
		return at
	}

	for i, sm := range mesh.SubMeshes {
		lo, hi := int(sm.VertexOffset), int(sm.VertexOffset+sm.VertexCount)
		if hi > len(md.Positions) || sm.VertexCount == 0 {
			return nil, fmt.Errorf("flux encode %q sub-mesh %d: %w", mesh.Name, i, ErrMissingVertex)
		}
		var verts, normals, uvs, tangents, bitangents, colors, indices []byte
		for _, v := range md.Positions[lo:hi] {
			verts = appendVec3(verts, v)
		}
		if len(md.Normals) >= hi {
			for _, v := range md.Normals[lo:hi] {
				normals = appendVec3(normals, v)
			}
		}
		if len(md.UVs) >= hi {
			for _, v := range md.UVs[lo:hi] {
				uvs = appendFloats(uvs, v[0], v[1])
			}
		}
		if len(md.Tangents) >= hi {
			for _, v := range md.Tangents[lo:hi] {
				tangents = appendVec3(tangents, v)
			}
		}
		if len(md.Bitangents) >= hi {
			for _, v := range md.Bitangents[lo:hi] {
				bitangents = appendVec3(bitangents, v)
			}
		}
		if len(md.Colors) >= hi {
			for _, v := range md.Colors[lo:hi] {
				colors = appendFloats(colors, v[0], v[1], v[2], v[3])
			}
		}
		for _, idx := range md.Indices[sm.IndexOffset : sm.IndexOffset+sm.IndexCount] {
			indices = binary.LittleEndian.AppendUint32(indices, idx)
		}

		next := uint64(0)
		if i+1 < len(mesh.SubMeshes) {
			next = entriesOffset + uint64(i+1)*FluxEntrySize
		}
		entries = binary.LittleEndian.AppendUint64(entries, next)
		entries = appendFixedString(entries, sm.Name, fluxNameSize)
		entries = appendVec3(entries, sm.AABBMin)
		entries = appendVec3(entries, sm.AABBMax)
		entries = binary.LittleEndian.AppendUint32(entries, sm.VertexCount)
		entries = binary.LittleEndian.AppendUint32(entries, sm.IndexCount)
		for _, raw := range [][]byte{verts, normals, uvs, tangents, bitangents, colors, indices} {
			entries = binary.LittleEndian.AppendUint64(entries, put(raw))
		}
	}

	out := make([]byte, 0, int(dataOffset)+len(payload))
	out = binary.LittleEndian.AppendUint32(out, FluxMagic)
	out = binary.LittleEndian.AppendUint32(out, FluxAssetTypeMesh)
	out = binary.LittleEndian.AppendUint32(out, FluxVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(mesh.SubMeshes)))
	out = binary.LittleEndian.AppendUint64(out, entriesOffset)
	out = binary.LittleEndian.AppendUint64(out, dataOffset)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(payload)))
	out = appendFixedString(out, mesh.Name, fluxNameSize)
	out = append(out, entries...)
	out = append(out, payload...)
	return out, nil
}
