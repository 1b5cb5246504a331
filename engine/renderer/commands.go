package renderer

import (
	"encoding/binary"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

/** @brief Kind of a recorded render command. */
type CommandType uint32

const (
	CommandNone CommandType = iota
	CommandDrawMesh
	/** @brief Never stored, the light is applied at push time. */
	CommandSetDirLight
	CommandLineBegin
	CommandLineVertex
	CommandLineEnd
	CommandDrawWater
)

func (t CommandType) String() string {
	switch t {
	case CommandDrawMesh:
		return "draw-mesh"
	case CommandSetDirLight:
		return "set-dir-light"
	case CommandLineBegin:
		return "line-begin"
	case CommandLineVertex:
		return "line-vertex"
	case CommandLineEnd:
		return "line-end"
	case CommandDrawWater:
		return "draw-water"
	default:
		return fmt.Sprintf("CommandType(%d)", uint32(t))
	}
}

type DirectionalLight struct {
	// Direction the light travels in, normalized on push.
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	Ambient   mgl32.Vec3
}

func DefaultDirectionalLight() DirectionalLight {
	return DirectionalLight{
		Direction: mgl32.Vec3{-0.3, -1, -0.4}.Normalize(),
		Color:     mgl32.Vec3{1, 0.96, 0.9},
		Intensity: 3,
		Ambient:   mgl32.Vec3{0.08, 0.09, 0.11},
	}
}

type DrawMeshCmd struct {
	Mesh      metadata.AssetID
	Transform mgl32.Mat4
	// Material is nil for the default Phong material.
	Material    metadata.Material
	CastShadows bool
}

type LineBeginCmd struct {
	Color     mgl32.Vec4
	Width     float32
	DepthTest bool
}

type DrawWaterCmd struct {
	Transform    mgl32.Mat4
	ShallowColor mgl32.Vec4
	DeepColor    mgl32.Vec4
	WaveScale    float32
	WaveSpeed    float32
	// NormalMap is optional. Without it the surface is flat.
	NormalMap metadata.AssetID
}

// Fixed-size wire records. They are what actually lands in the arena.

type materialRecord struct {
	Workflow  metadata.MaterialWorkflow
	Color     mgl32.Vec4
	Specular  mgl32.Vec3
	Shininess float32
	Metallic  float32
	Roughness float32
	AO        float32
	Maps      [5]metadata.AssetID
}

type drawMeshRecord struct {
	Mesh        metadata.AssetID
	CastShadows uint32
	Transform   mgl32.Mat4
	Material    materialRecord
}

type lineBeginRecord struct {
	Color     mgl32.Vec4
	Width     float32
	DepthTest uint32
}

type drawWaterRecord struct {
	Transform    mgl32.Mat4
	ShallowColor mgl32.Vec4
	DeepColor    mgl32.Vec4
	WaveScale    float32
	WaveSpeed    float32
	NormalMap    metadata.AssetID
}

var (
	drawMeshSize   = binary.Size(drawMeshRecord{})
	lineBeginSize  = binary.Size(lineBeginRecord{})
	lineVertexSize = binary.Size(mgl32.Vec3{})
	drawWaterSize  = binary.Size(drawWaterRecord{})
)

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func encodeMaterial(m metadata.Material) materialRecord {
	switch m := m.(type) {
	case metadata.PhongMaterial:
		return materialRecord{
			Workflow:  metadata.MaterialWorkflowPhong,
			Color:     m.DiffuseColor,
			Specular:  m.SpecularColor,
			Shininess: m.Shininess,
			Maps:      [5]metadata.AssetID{m.DiffuseMap, m.SpecularMap, m.NormalMap},
		}
	case *metadata.PhongMaterial:
		return encodeMaterial(*m)
	case metadata.PBRMaterial:
		return materialRecord{
			Workflow:  metadata.MaterialWorkflowPBR,
			Color:     m.Albedo,
			Metallic:  m.Metallic,
			Roughness: m.Roughness,
			AO:        m.AO,
			Maps:      [5]metadata.AssetID{m.AlbedoMap, m.NormalMap, m.MetallicMap, m.RoughnessMap, m.AOMap},
		}
	case *metadata.PBRMaterial:
		return encodeMaterial(*m)
	default:
		return encodeMaterial(metadata.DefaultPhongMaterial())
	}
}

func (r materialRecord) material() metadata.Material {
	if r.Workflow == metadata.MaterialWorkflowPBR {
		return metadata.PBRMaterial{
			Albedo:       r.Color,
			Metallic:     r.Metallic,
			Roughness:    r.Roughness,
			AO:           r.AO,
			AlbedoMap:    r.Maps[0],
			NormalMap:    r.Maps[1],
			MetallicMap:  r.Maps[2],
			RoughnessMap: r.Maps[3],
			AOMap:        r.Maps[4],
		}
	}
	return metadata.PhongMaterial{
		DiffuseColor:  r.Color,
		SpecularColor: r.Specular,
		Shininess:     r.Shininess,
		DiffuseMap:    r.Maps[0],
		SpecularMap:   r.Maps[1],
		NormalMap:     r.Maps[2],
	}
}

func encodeRecord(dst []byte, record any) {
	if _, err := binary.Encode(dst, binary.LittleEndian, record); err != nil {
		panic(fmt.Sprintf("renderer: encoding %T: %s", record, err))
	}
}

func decodeRecord(src []byte, record any) {
	if _, err := binary.Decode(src, binary.LittleEndian, record); err != nil {
		panic(fmt.Sprintf("renderer: decoding %T: %s", record, err))
	}
}
