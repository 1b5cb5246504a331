package loaders

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

// twoQuadMesh builds a mesh with two sub-meshes sharing one arena, the second
// one without normals.
func twoQuadMesh() *metadata.Mesh {
	md := &metadata.MeshData{
		Positions: []mgl32.Vec3{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {2, 0, 1}, {2, 2, 1}, {0, 2, 1},
		},
		UVs: []mgl32.Vec2{
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3, 0, 1, 2, 0, 2, 3},
	}
	return &metadata.Mesh{
		Name: "quads",
		Data: md,
		SubMeshes: []metadata.SubMesh{
			{Name: "front", AABBMin: mgl32.Vec3{0, 0, 0}, AABBMax: mgl32.Vec3{1, 1, 0}, VertexOffset: 0, VertexCount: 4, IndexOffset: 0, IndexCount: 6},
			{Name: "back", AABBMin: mgl32.Vec3{0, 0, 1}, AABBMax: mgl32.Vec3{2, 2, 1}, VertexOffset: 4, VertexCount: 4, IndexOffset: 6, IndexCount: 6},
		},
	}
}
