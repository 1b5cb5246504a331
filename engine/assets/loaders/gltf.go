package loaders

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

var glbMagic = []byte("glTF")

// ProbeGLTF accepts a binary .glb header (version 2) or a JSON document.
func ProbeGLTF(prefix []byte) error {
	if bytes.HasPrefix(prefix, glbMagic) {
		if len(prefix) < 12 {
			return fmt.Errorf("glb header: %w", ErrTruncated)
		}
		if v := binary.LittleEndian.Uint32(prefix[4:]); v != 2 {
			return fmt.Errorf("glb: %w %d", ErrBadVersion, v)
		}
		return nil
	}
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(prefix, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("gltf: %w", ErrBadMagic)
	}
	return nil
}

/**
 * @brief Loads every triangle primitive of a glTF document as one sub-mesh.
 * External buffers are resolved relative to path.
 */
func DecodeGLTF(path string, name string) (*metadata.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}

	md := &metadata.MeshData{}
	mesh := &metadata.Mesh{
		Name:   name,
		Format: metadata.MeshFormatGLTF,
		Data:   md,
	}
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if err := appendGLTFPrimitive(doc, prim, md, mesh, fmt.Sprintf("%s_%d_%d", gm.Name, mi, pi)); err != nil {
				return nil, fmt.Errorf("gltf %q mesh %d primitive %d: %w", name, mi, pi, err)
			}
		}
	}
	if len(mesh.SubMeshes) == 0 {
		return nil, fmt.Errorf("gltf %q: %w", name, ErrMissingVertex)
	}
	mesh.ComputeBounds()
	return mesh, nil
}

func appendGLTFPrimitive(doc *gltf.Document, prim *gltf.Primitive, md *metadata.MeshData, mesh *metadata.Mesh, subName string) error {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return ErrMissingVertex
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	count := len(positions)
	base := len(md.Positions)

	var normals [][3]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("uvs: %w", err)
		}
	}
	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return fmt.Errorf("indices: %w", err)
		}
		if err := checkIndices(indices, uint32(count)); err != nil {
			return err
		}
	}

	pos := make([]mgl32.Vec3, count)
	for i, p := range positions {
		pos[i] = mgl32.Vec3(p)
	}
	var nrm []mgl32.Vec3
	if len(normals) == count {
		nrm = make([]mgl32.Vec3, count)
		for i, n := range normals {
			nrm[i] = mgl32.Vec3(n)
		}
	}
	var tex []mgl32.Vec2
	if len(uvs) == count {
		tex = make([]mgl32.Vec2, count)
		for i, uv := range uvs {
			tex[i] = mgl32.Vec2(uv)
		}
	}

	md.Normals = appendAttribute(md.Normals, nrm, base, count)
	md.UVs = appendAttribute(md.UVs, tex, base, count)
	md.Positions = append(md.Positions, pos...)
	indexBase := len(md.Indices)
	md.Indices = append(md.Indices, indices...)

	lo, hi := metadata.BoundsOf(pos)
	mesh.SubMeshes = append(mesh.SubMeshes, metadata.SubMesh{
		Name:         subName,
		AABBMin:      lo,
		AABBMax:      hi,
		VertexOffset: uint32(base),
		VertexCount:  uint32(count),
		IndexOffset:  uint32(indexBase),
		IndexCount:   uint32(len(indices)),
	})
	return nil
}
