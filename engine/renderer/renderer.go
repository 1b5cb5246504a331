package renderer

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/renderer/components"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

var ErrFrameNotBegun = errors.New("render called outside Begin/End")

/**
 * @brief Resolves asset IDs for drawing. GetMesh and GetTexture return nil
 * for anything not resident yet and may start streaming it.
 */
type AssetSource interface {
	GetMesh(id metadata.AssetID) *metadata.Mesh
	GetTexture(id metadata.AssetID) *metadata.Texture
}

type Settings struct {
	ShadowMapSize  int
	StableCascades bool
	CascadeLambda  float32
	ShadowDistance float32
	Exposure       float32
	FXAA           bool
	DebugCascade   int
	ClearColor     mgl32.Vec4
}

func DefaultSettings() Settings {
	return Settings{
		ShadowMapSize:  2048,
		StableCascades: true,
		CascadeLambda:  0.75,
		ShadowDistance: 150,
		Exposure:       1,
		FXAA:           true,
		DebugCascade:   -1,
		ClearColor:     mgl32.Vec4{0.05, 0.06, 0.08, 1},
	}
}

type PassStats struct {
	Draws   int
	Skipped int
}

type Stats struct {
	Frames uint64
	Shadow PassStats
	Main   PassStats
	Lines  int
	Water  int
	// Fallbacks counts material maps replaced by constants this frame.
	Fallbacks int
}

/**
 * @brief Replays a render group through the backend once per frame. Begin
 * prepares per-frame state, Render runs the shadow, main and post passes,
 * End presents and resets the group.
 */
type Renderer struct {
	backend  Backend
	assets   AssetSource
	logger   *core.Logger
	settings Settings

	light   DirectionalLight
	skybox  metadata.AssetID
	frame   FrameData
	inFrame bool
	time    float64

	stats Stats
}

func NewRenderer(backend Backend, assets AssetSource, logger *core.Logger, settings Settings) *Renderer {
	return &Renderer{
		backend:  backend,
		assets:   assets,
		logger:   logger,
		settings: settings,
		light:    DefaultDirectionalLight(),
	}
}

func (r *Renderer) Initialize(appName string, width, height uint32) error {
	if err := r.backend.Initialize(appName, width, height); err != nil {
		r.logger.Error(err.Error())
		return err
	}
	r.logger.Infof("renderer initialized (%dx%d)", width, height)
	return nil
}

// SetAssets swaps the asset source. The asset manager can only be created
// once the backend is initialized, so the engine attaches it afterwards.
func (r *Renderer) SetAssets(assets AssetSource) {
	r.assets = assets
}

func (r *Renderer) Shutdown() error {
	return r.backend.Shutdown()
}

func (r *Renderer) OnResize(width, height uint32) error {
	return r.backend.Resized(width, height)
}

// NewRenderGroup creates a command buffer whose SetDirLight writes this renderer's light.
func (r *Renderer) NewRenderGroup(maxCommands, arenaSize int) *RenderGroup {
	return NewRenderGroup(maxCommands, arenaSize, &r.light)
}

func (r *Renderer) Light() DirectionalLight {
	return r.light
}

func (r *Renderer) SetSkybox(id metadata.AssetID) {
	r.skybox = id
}

func (r *Renderer) Settings() Settings {
	return r.settings
}

func (r *Renderer) SetStableCascades(stable bool) {
	r.settings.StableCascades = stable
}

func (r *Renderer) SetFXAA(enabled bool) {
	r.settings.FXAA = enabled
}

func (r *Renderer) SetExposure(exposure float32) {
	if exposure > 0 {
		r.settings.Exposure = exposure
	}
}

// SetDebugCascade shows a shadow cascade on screen; out of range values disable it.
func (r *Renderer) SetDebugCascade(cascade int) {
	if cascade < 0 || cascade >= CascadeCount {
		cascade = -1
	}
	r.settings.DebugCascade = cascade
}

// Stats reports the last rendered frame.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Cascades returns the cascades computed by the last Begin.
func (r *Renderer) Cascades() [CascadeCount]Cascade {
	return r.frame.Cascades
}

/**
 * @brief Starts a frame: computes cascade splits and light matrices once and
 * snapshots the camera.
 */
func (r *Renderer) Begin(camera *components.Camera, deltaTime float64) error {
	if err := r.backend.BeginFrame(deltaTime); err != nil {
		r.logger.Error(err.Error())
		return err
	}
	r.time += deltaTime
	r.frame = FrameData{
		View:           camera.GetView(),
		Projection:     camera.Projection(),
		CameraPosition: camera.Position,
		Light:          r.light,
		ClearColor:     r.settings.ClearColor,
		DeltaTime:      deltaTime,
		Time:           r.time,
		Cascades: ComputeCascades(camera, r.light, CascadeSettings{
			Stable:   r.settings.StableCascades,
			Lambda:   r.settings.CascadeLambda,
			Distance: r.settings.ShadowDistance,
			MapSize:  r.settings.ShadowMapSize,
		}),
	}
	r.inFrame = true
	r.stats = Stats{Frames: r.stats.Frames + 1}
	return nil
}

/**
 * @brief Replays group through the shadow, main and post passes. Each pass is
 * a linear scan in push order. Commands whose assets are not resident are
 * skipped for this frame.
 */
func (r *Renderer) Render(group *RenderGroup) error {
	if !r.inFrame {
		return ErrFrameNotBegun
	}
	// a SetDirLight pushed after Begin still counts for this frame
	r.frame.Light = r.light
	if r.skybox != metadata.InvalidAssetID {
		r.frame.Skybox = r.assets.GetTexture(r.skybox)
	}

	r.shadowPass(group)
	r.mainPass(group)
	r.backend.PostProcess(PostSettings{
		Exposure:     r.settings.Exposure,
		FXAA:         r.settings.FXAA,
		DebugCascade: r.settings.DebugCascade,
	})
	return nil
}

func (r *Renderer) shadowPass(group *RenderGroup) {
	for c := 0; c < CascadeCount; c++ {
		r.backend.BeginShadowPass(c, r.frame.Cascades[c].LightSpace)
		group.Each(func(_ int, e CommandEntry) bool {
			if e.Type != CommandDrawMesh {
				return true
			}
			cmd := group.DrawMesh(e)
			if !cmd.CastShadows {
				return true
			}
			mesh := r.assets.GetMesh(cmd.Mesh)
			if mesh == nil {
				r.stats.Shadow.Skipped++
				return true
			}
			r.backend.DrawMeshDepth(mesh, cmd.Transform)
			r.stats.Shadow.Draws++
			return true
		})
		r.backend.EndShadowPass(c)
	}
}

func (r *Renderer) mainPass(group *RenderGroup) {
	r.backend.BeginMainPass(&r.frame)
	group.Each(func(_ int, e CommandEntry) bool {
		switch e.Type {
		case CommandDrawWater:
			cmd := group.DrawWater(e)
			var normalMap *metadata.Texture
			if cmd.NormalMap != metadata.InvalidAssetID {
				normalMap = r.assets.GetTexture(cmd.NormalMap)
			}
			r.backend.DrawWater(cmd, normalMap)
			r.stats.Water++

		case CommandLineBegin:
			if e.Count < 2 {
				return true
			}
			r.backend.DrawLines(group.LineBegin(e), group.LineVertices(e))
			r.stats.Lines++

		case CommandDrawMesh:
			cmd := group.DrawMesh(e)
			mesh := r.assets.GetMesh(cmd.Mesh)
			if mesh == nil {
				r.stats.Main.Skipped++
				return true
			}
			binding := r.bindMaterial(cmd.Material)
			r.stats.Fallbacks += binding.Fallbacks
			r.backend.DrawMesh(mesh, cmd.Transform, &binding)
			r.stats.Main.Draws++
		}
		return true
	})
	r.backend.EndMainPass()
}

/**
 * @brief Resolves the texture maps of material. A map that is not resident
 * stays nil and the backend falls back to the material constants.
 */
func (r *Renderer) bindMaterial(material metadata.Material) MaterialBinding {
	if material == nil {
		material = metadata.DefaultPhongMaterial()
	}
	binding := MaterialBinding{Workflow: material.Workflow()}
	switch m := material.(type) {
	case metadata.PhongMaterial:
		binding.Phong = m
	case metadata.PBRMaterial:
		binding.PBR = m
	}
	for i, id := range material.TextureIDs() {
		if id == metadata.InvalidAssetID {
			continue
		}
		if binding.Maps[i] = r.assets.GetTexture(id); binding.Maps[i] == nil {
			binding.Fallbacks++
		}
	}
	return binding
}

// End presents the frame and resets group for the next one.
func (r *Renderer) End(group *RenderGroup, deltaTime float64) error {
	r.inFrame = false
	group.Reset()
	if err := r.backend.EndFrame(deltaTime); err != nil {
		r.logger.Error(err.Error())
		return err
	}
	return nil
}
