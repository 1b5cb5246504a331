package metadata

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief Vertex and index storage shared by every sub-mesh of a mesh.
 * Attribute slices are either empty or as long as Positions.
 */
type MeshData struct {
	Positions  []mgl32.Vec3
	Normals    []mgl32.Vec3
	UVs        []mgl32.Vec2
	Tangents   []mgl32.Vec3
	Bitangents []mgl32.Vec3
	Colors     []mgl32.Vec4
	Indices    []uint32
}

// ByteSize is the CPU memory held by the vertex and index arrays.
func (d *MeshData) ByteSize() int {
	if d == nil {
		return 0
	}
	return len(d.Positions)*12 + len(d.Normals)*12 + len(d.UVs)*8 + len(d.Tangents)*12 +
		len(d.Bitangents)*12 + len(d.Colors)*16 + len(d.Indices)*4
}

/**
 * @brief A range of the shared MeshData drawn as one unit.
 */
type SubMesh struct {
	Name         string
	AABBMin      mgl32.Vec3
	AABBMax      mgl32.Vec3
	VertexOffset uint32
	VertexCount  uint32
	IndexOffset  uint32
	IndexCount   uint32
}

/**
 * @brief A mesh asset. Sub-mesh descriptors live in one contiguous slice and
 * all of them index into the same Data arena, so the whole mesh is released
 * as a unit.
 */
type Mesh struct {
	ID        AssetID
	Name      string
	Format    MeshFormat
	SubMeshes []SubMesh
	Data      *MeshData
	AABBMin   mgl32.Vec3
	AABBMax   mgl32.Vec3
	/** @brief Backend specific GPU state. Set by the renderer backend on upload. */
	GPUHandle interface{}
}

// ComputeBounds recomputes the mesh AABB from its sub-meshes.
func (m *Mesh) ComputeBounds() {
	if len(m.SubMeshes) == 0 {
		m.AABBMin, m.AABBMax = mgl32.Vec3{}, mgl32.Vec3{}
		return
	}
	m.AABBMin, m.AABBMax = m.SubMeshes[0].AABBMin, m.SubMeshes[0].AABBMax
	for _, sm := range m.SubMeshes[1:] {
		for i := 0; i < 3; i++ {
			m.AABBMin[i] = min(m.AABBMin[i], sm.AABBMin[i])
			m.AABBMax[i] = max(m.AABBMax[i], sm.AABBMax[i])
		}
	}
}

// BoundsOf returns the AABB of positions.
func BoundsOf(positions []mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	if len(positions) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo, hi := positions[0], positions[0]
	for _, p := range positions[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], p[i])
			hi[i] = max(hi[i], p[i])
		}
	}
	return lo, hi
}

func (m *Mesh) VertexCount() int {
	if m.Data == nil {
		return 0
	}
	return len(m.Data.Positions)
}

func (m *Mesh) IndexCount() int {
	if m.Data == nil {
		return 0
	}
	return len(m.Data.Indices)
}

// Release drops the CPU side arrays. GPU state is released by the backend.
func (m *Mesh) Release() {
	m.SubMeshes = nil
	m.Data = nil
}
