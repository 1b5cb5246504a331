package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/assets"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

type RendererType uint8

const (
	Headless RendererType = iota
	OpenGL
)

/**
 * @brief Everything the main pass needs that does not change per draw.
 */
type FrameData struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	CameraPosition mgl32.Vec3
	Light          DirectionalLight
	Cascades       [CascadeCount]Cascade
	ClearColor     mgl32.Vec4
	// Skybox is nil while unset or still streaming.
	Skybox    *metadata.Texture
	DeltaTime float64
	Time      float64
}

/**
 * @brief Material constants and resolved maps for one draw. A nil map means
 * the backend samples the matching constant instead.
 */
type MaterialBinding struct {
	Workflow metadata.MaterialWorkflow
	Phong    metadata.PhongMaterial
	PBR      metadata.PBRMaterial
	// Same order as Material.TextureIDs.
	Maps [5]*metadata.Texture
	// Fallbacks counts maps that were requested but are not resident.
	Fallbacks int
}

type PostSettings struct {
	Exposure float32
	FXAA     bool
	// DebugCascade blits that shadow cascade on screen, -1 disables it.
	DebugCascade int
}

/**
 * @brief A GPU API implementation. Besides the resource calls the asset
 * manager drives, it exposes the three passes the renderer replays the render
 * group through. All calls happen on the main thread.
 */
type Backend interface {
	assets.GPU

	Initialize(appName string, width, height uint32) error
	Shutdown() error
	Resized(width, height uint32) error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error

	BeginShadowPass(cascade int, lightSpace mgl32.Mat4)
	DrawMeshDepth(mesh *metadata.Mesh, transform mgl32.Mat4)
	EndShadowPass(cascade int)

	BeginMainPass(frame *FrameData)
	DrawMesh(mesh *metadata.Mesh, transform mgl32.Mat4, material *MaterialBinding)
	DrawLines(cmd LineBeginCmd, vertices []mgl32.Vec3)
	DrawWater(cmd DrawWaterCmd, normalMap *metadata.Texture)
	EndMainPass()

	PostProcess(settings PostSettings)
}
