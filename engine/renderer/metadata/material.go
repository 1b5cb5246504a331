package metadata

import "github.com/go-gl/mathgl/mgl32"

/** @brief Shading workflow of a material. Values are persisted in world files. */
type MaterialWorkflow uint32

const (
	MaterialWorkflowNone MaterialWorkflow = iota
	MaterialWorkflowPhong
	MaterialWorkflowPBR
)

func (w MaterialWorkflow) String() string {
	switch w {
	case MaterialWorkflowPhong:
		return "phong"
	case MaterialWorkflowPBR:
		return "pbr"
	default:
		return "none"
	}
}

/**
 * @brief Material is a closed sum of PhongMaterial and PBRMaterial.
 */
type Material interface {
	Workflow() MaterialWorkflow
	// TextureIDs returns every texture map slot, InvalidAssetID for unused ones.
	TextureIDs() []AssetID
}

type PhongMaterial struct {
	DiffuseColor  mgl32.Vec4
	SpecularColor mgl32.Vec3
	Shininess     float32
	DiffuseMap    AssetID
	SpecularMap   AssetID
	NormalMap     AssetID
}

func (PhongMaterial) Workflow() MaterialWorkflow { return MaterialWorkflowPhong }

func (m PhongMaterial) TextureIDs() []AssetID {
	return []AssetID{m.DiffuseMap, m.SpecularMap, m.NormalMap}
}

type PBRMaterial struct {
	Albedo       mgl32.Vec4
	Metallic     float32
	Roughness    float32
	AO           float32
	AlbedoMap    AssetID
	NormalMap    AssetID
	MetallicMap  AssetID
	RoughnessMap AssetID
	AOMap        AssetID
}

func (PBRMaterial) Workflow() MaterialWorkflow { return MaterialWorkflowPBR }

func (m PBRMaterial) TextureIDs() []AssetID {
	return []AssetID{m.AlbedoMap, m.NormalMap, m.MetallicMap, m.RoughnessMap, m.AOMap}
}

// DefaultPhongMaterial is a plain light grey surface.
func DefaultPhongMaterial() PhongMaterial {
	return PhongMaterial{
		DiffuseColor:  mgl32.Vec4{0.8, 0.8, 0.8, 1},
		SpecularColor: mgl32.Vec3{0.5, 0.5, 0.5},
		Shininess:     32,
	}
}

func DefaultPBRMaterial() PBRMaterial {
	return PBRMaterial{
		Albedo:    mgl32.Vec4{0.8, 0.8, 0.8, 1},
		Metallic:  0,
		Roughness: 0.5,
		AO:        1,
	}
}
