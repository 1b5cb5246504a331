package loaders

import (
	"encoding/binary"
	"fmt"

	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

const (
	AABMagic      uint32 = 0xaabaabaa
	AABVersion    uint32 = 2
	AABTypeMesh   uint32 = 1
	AABHeaderSize        = 4 + 4 + 8 + 4 + 4 + 4 + 5*8
)

// AABHeader is the packed header of a version 2 AAB mesh asset.
type AABHeader struct {
	Magic          uint32
	Version        uint32
	AssetSize      uint64
	AssetType      uint32
	VertexCount    uint32
	IndexCount     uint32
	VertexOffset   uint64
	NormalsOffset  uint64
	UVOffset       uint64
	IndicesOffset  uint64
	TangentsOffset uint64
}

// ProbeAAB only checks the magic number, the version field is informational.
func ProbeAAB(data []byte) (*AABHeader, error) {
	if len(data) < AABHeaderSize {
		return nil, fmt.Errorf("aab header: %w", ErrTruncated)
	}
	h := &AABHeader{
		Magic:          binary.LittleEndian.Uint32(data[0:]),
		Version:        binary.LittleEndian.Uint32(data[4:]),
		AssetSize:      binary.LittleEndian.Uint64(data[8:]),
		AssetType:      binary.LittleEndian.Uint32(data[16:]),
		VertexCount:    binary.LittleEndian.Uint32(data[20:]),
		IndexCount:     binary.LittleEndian.Uint32(data[24:]),
		VertexOffset:   binary.LittleEndian.Uint64(data[28:]),
		NormalsOffset:  binary.LittleEndian.Uint64(data[36:]),
		UVOffset:       binary.LittleEndian.Uint64(data[44:]),
		IndicesOffset:  binary.LittleEndian.Uint64(data[52:]),
		TangentsOffset: binary.LittleEndian.Uint64(data[60:]),
	}
	if h.Magic != AABMagic {
		return nil, fmt.Errorf("aab: %w 0x%08x", ErrBadMagic, h.Magic)
	}
	return h, nil
}

// DecodeAAB decodes a single mesh AAB file into a one sub-mesh mesh named name.
func DecodeAAB(data []byte, name string) (*metadata.Mesh, error) {
	h, err := ProbeAAB(data)
	if err != nil {
		return nil, err
	}
	if h.VertexCount == 0 || h.VertexOffset == 0 {
		return nil, fmt.Errorf("aab %q: %w", name, ErrMissingVertex)
	}

	b := blob(data)
	md := &metadata.MeshData{}
	if md.Positions, err = b.vec3s(h.VertexOffset, h.VertexCount); err != nil {
		return nil, fmt.Errorf("aab %q positions: %w", name, err)
	}
	if h.NormalsOffset != 0 {
		if md.Normals, err = b.vec3s(h.NormalsOffset, h.VertexCount); err != nil {
			return nil, fmt.Errorf("aab %q normals: %w", name, err)
		}
	}
	if h.UVOffset != 0 {
		if md.UVs, err = b.vec2s(h.UVOffset, h.VertexCount); err != nil {
			return nil, fmt.Errorf("aab %q uvs: %w", name, err)
		}
	}
	if h.TangentsOffset != 0 {
		if md.Tangents, err = b.vec3s(h.TangentsOffset, h.VertexCount); err != nil {
			return nil, fmt.Errorf("aab %q tangents: %w", name, err)
		}
	}
	if h.IndicesOffset != 0 && h.IndexCount > 0 {
		if md.Indices, err = b.u32s(h.IndicesOffset, h.IndexCount); err != nil {
			return nil, fmt.Errorf("aab %q indices: %w", name, err)
		}
		if err := checkIndices(md.Indices, h.VertexCount); err != nil {
			return nil, fmt.Errorf("aab %q: %w", name, err)
		}
	}

	lo, hi := metadata.BoundsOf(md.Positions)
	mesh := &metadata.Mesh{
		Name:   name,
		Format: metadata.MeshFormatAAB,
		Data:   md,
		SubMeshes: []metadata.SubMesh{{
			Name:        name,
			AABBMin:     lo,
			AABBMax:     hi,
			VertexCount: h.VertexCount,
			IndexCount:  uint32(len(md.Indices)),
		}},
	}
	mesh.ComputeBounds()
	return mesh, nil
}

// EncodeAAB writes the first sub-mesh range of mesh as a version 2 AAB file.
func EncodeAAB(mesh *metadata.Mesh) ([]byte, error) {
	if mesh.Data == nil || len(mesh.SubMeshes) == 0 || mesh.SubMeshes[0].VertexCount == 0 {
		return nil, fmt.Errorf("aab encode %q: %w", mesh.Name, ErrMissingVertex)
	}
	md := mesh.Data
	sm := mesh.SubMeshes[0]
	lo, hi := int(sm.VertexOffset), int(sm.VertexOffset+sm.VertexCount)

	var payload []byte
	cursor := uint64(AABHeaderSize)
	section := func(write func([]byte) []byte) uint64 {
		before := len(payload)
		payload = write(payload)
		if len(payload) == before {
			return 0
		}
		at := cursor
		cursor += uint64(len(payload) - before)
		return at
	}

	vertexOffset := section(func(p []byte) []byte {
		for _, v := range md.Positions[lo:hi] {
			p = appendVec3(p, v)
		}
		return p
	})
	normalsOffset := section(func(p []byte) []byte {
		if len(md.Normals) >= hi {
			for _, v := range md.Normals[lo:hi] {
				p = appendVec3(p, v)
			}
		}
		return p
	})
	uvOffset := section(func(p []byte) []byte {
		if len(md.UVs) >= hi {
			for _, v := range md.UVs[lo:hi] {
				p = appendFloats(p, v[0], v[1])
			}
		}
		return p
	})
	indicesOffset := section(func(p []byte) []byte {
		for _, idx := range md.Indices[sm.IndexOffset : sm.IndexOffset+sm.IndexCount] {
			p = binary.LittleEndian.AppendUint32(p, idx)
		}
		return p
	})
	tangentsOffset := section(func(p []byte) []byte {
		if len(md.Tangents) >= hi {
			for _, v := range md.Tangents[lo:hi] {
				p = appendVec3(p, v)
			}
		}
		return p
	})

	out := make([]byte, 0, AABHeaderSize+len(payload))
	out = binary.LittleEndian.AppendUint32(out, AABMagic)
	out = binary.LittleEndian.AppendUint32(out, AABVersion)
	out = binary.LittleEndian.AppendUint64(out, uint64(AABHeaderSize+len(payload)))
	out = binary.LittleEndian.AppendUint32(out, AABTypeMesh)
	out = binary.LittleEndian.AppendUint32(out, sm.VertexCount)
	out = binary.LittleEndian.AppendUint32(out, sm.IndexCount)
	for _, o := range []uint64{vertexOffset, normalsOffset, uvOffset, indicesOffset, tangentsOffset} {
		out = binary.LittleEndian.AppendUint64(out, o)
	}
	out = append(out, payload...)
	return out, nil
}
