package testbed

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine"
	"github.com/spaghettifunk/flux/engine/assets"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/renderer"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
	"github.com/spaghettifunk/flux/engine/world"
)

const defaultWorldFile = "testbed.world"

// Orbit speed of the camera in radians per second.
const orbitSpeed = 0.15

type TestGame struct {
	*engine.Game
}

type gameState struct {
	world     *world.World
	worldPath string

	orbitAngle  float32
	orbitRadius float32
	sunAngle    float32
	paused      bool

	waterNormals metadata.AssetID
	quit         <-chan struct{}
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{orbitRadius: 18},
		},
	}

	tg.FnBoot = tg.Boot
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

// QuitOn makes the game fire EVENT_CODE_APPLICATION_QUIT once ch is closed.
func (g *TestGame) QuitOn(ch <-chan struct{}) {
	g.State.(*gameState).quit = ch
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Boot() error {
	state := g.state()
	state.worldPath = g.Config.Application.World
	if state.worldPath == "" {
		state.worldPath = defaultWorldFile
	}
	return nil
}

func (g *TestGame) Initialize() error {
	if g.Systems == nil {
		return fmt.Errorf("the engine is not yet initialized with all the systems")
	}
	state := g.state()
	logger := g.Systems.Logger.Named("testbed")

	w, err := world.LoadWorldFromDisc(g.Systems.Files, state.worldPath, g.Systems.Assets, logger)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Infof("no world at %s, building the demo world", state.worldPath)
		w = g.demoWorld(logger)
	case err != nil:
		logger.Error(err.Error())
		return err
	}
	state.world = w

	sky := g.Systems.Assets.AddTexture("sky.png", metadata.TextureFormatRGB8, metadata.TextureWrapClampToEdge, metadata.TextureFilterLinear, metadata.TextureRangeSRGB)
	if sky.OK() {
		g.Systems.Renderer.SetSkybox(sky.ID)
	}
	normals := g.Systems.Assets.AddTexture("water_normal.png", metadata.TextureFormatRGB8, metadata.TextureWrapRepeat, metadata.TextureFilterLinearMipmap, metadata.TextureRangeLinear)
	if normals.OK() {
		state.waterNormals = normals.ID
	}

	for code, fn := range map[core.SystemEventCode]core.FnOnEvent{
		core.EVENT_CODE_KEY_PRESSED:  g.onKey,
		core.EVENT_CODE_ASSET_LOADED: g.onAssetLoaded,
		core.EVENT_CODE_WORLD_SAVED:  g.onWorldSaved,
	} {
		if err := g.Systems.Events.Register(code, g, fn); err != nil {
			return err
		}
	}

	g.Systems.Camera.SetPosition(mgl32.Vec3{state.orbitRadius, 6, 0})
	g.Systems.Camera.LookAt(mgl32.Vec3{})
	return nil
}

// demoWorld places whatever demo meshes are present in the asset directory.
func (g *TestGame) demoWorld(logger *core.Logger) *world.World {
	w := world.New("testbed")
	am := g.Systems.Assets

	add := func(res assets.AddResult, file string) metadata.AssetID {
		if !res.OK() {
			logger.Warnf("demo asset %s unavailable: %s", file, res.Status)
			return metadata.InvalidAssetID
		}
		return res.ID
	}
	texture := func(file string, rng metadata.TextureRange) metadata.AssetID {
		return add(am.AddTexture(file, metadata.TextureFormatRGBA8, metadata.TextureWrapRepeat, metadata.TextureFilterLinearMipmap, rng), file)
	}

	ground := add(am.AddMesh("ground.flux", metadata.MeshFormatFlux), "ground.flux")
	crate := add(am.AddMesh("crate.flux", metadata.MeshFormatFlux), "crate.flux")
	helmet := add(am.AddMesh("helmet.glb", metadata.MeshFormatGLTF), "helmet.glb")

	if ground != metadata.InvalidAssetID {
		material := metadata.DefaultPhongMaterial()
		material.DiffuseMap = texture("ground_diffuse.png", metadata.TextureRangeSRGB)
		w.AddEntity(world.Entity{Scale: mgl32.Vec3{20, 1, 20}, Mesh: ground, Material: material})
	}
	if crate != metadata.InvalidAssetID {
		material := metadata.DefaultPhongMaterial()
		material.DiffuseMap = texture("crate_diffuse.png", metadata.TextureRangeSRGB)
		material.SpecularMap = texture("crate_specular.png", metadata.TextureRangeLinear)
		for i := 0; i < 5; i++ {
			angle := float32(i) * 2 * math32.Pi / 5
			w.AddEntity(world.Entity{
				P:              mgl32.Vec3{6 * math32.Cos(angle), 1, 6 * math32.Sin(angle)},
				RotationAngles: mgl32.Vec3{0, angle, 0},
				Mesh:           crate,
				Material:       material,
				CastShadows:    true,
			})
		}
	}
	if helmet != metadata.InvalidAssetID {
		material := metadata.DefaultPBRMaterial()
		material.AlbedoMap = texture("helmet_albedo.png", metadata.TextureRangeSRGB)
		material.NormalMap = texture("helmet_normal.png", metadata.TextureRangeLinear)
		material.Metallic = 0.8
		material.Roughness = 0.3
		w.AddEntity(world.Entity{P: mgl32.Vec3{0, 2, 0}, Scale: mgl32.Vec3{2, 2, 2}, Mesh: helmet, Material: material, CastShadows: true})
	}
	return w
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()

	select {
	case <-state.quit:
		g.Systems.Events.Fire(core.EVENT_CODE_APPLICATION_QUIT, g, core.EventContext{})
		return nil
	default:
	}

	if state.paused {
		return nil
	}
	dt := float32(deltaTime)
	state.orbitAngle += orbitSpeed * dt
	state.sunAngle += orbitSpeed * 0.25 * dt

	camera := g.Systems.Camera
	camera.SetPosition(mgl32.Vec3{
		state.orbitRadius * math32.Cos(state.orbitAngle),
		6,
		state.orbitRadius * math32.Sin(state.orbitAngle),
	})
	camera.LookAt(mgl32.Vec3{0, 1, 0})
	return nil
}

func (g *TestGame) Render(group *renderer.RenderGroup, deltaTime float64) error {
	state := g.state()

	sun := renderer.DefaultDirectionalLight()
	sun.Direction = mgl32.Vec3{math32.Cos(state.sunAngle), -1, math32.Sin(state.sunAngle)}
	group.PushSetDirLight(sun)

	world.PushToRenderGroup(state.world, group)

	// ground grid
	const half = 10
	grid := renderer.LineBeginCmd{Color: mgl32.Vec4{0.35, 0.35, 0.4, 1}, Width: 1, DepthTest: true}
	for i := -half; i <= half; i++ {
		f := float32(i)
		group.PushLineBegin(grid)
		group.PushLineVertex(mgl32.Vec3{f, 0.01, -half})
		group.PushLineVertex(mgl32.Vec3{f, 0.01, half})
		group.PushLineEnd()
		group.PushLineBegin(grid)
		group.PushLineVertex(mgl32.Vec3{-half, 0.01, f})
		group.PushLineVertex(mgl32.Vec3{half, 0.01, f})
		group.PushLineEnd()
	}

	group.PushDrawWater(renderer.DrawWaterCmd{
		Transform:    mgl32.Translate3D(0, -0.5, 0).Mul4(mgl32.Scale3D(60, 1, 60)),
		ShallowColor: mgl32.Vec4{0.1, 0.45, 0.5, 0.7},
		DeepColor:    mgl32.Vec4{0.02, 0.1, 0.2, 0.9},
		WaveScale:    0.08,
		WaveSpeed:    0.6,
		NormalMap:    state.waterNormals,
	})
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	return nil
}

func (g *TestGame) Shutdown() error {
	for _, code := range []core.SystemEventCode{core.EVENT_CODE_KEY_PRESSED, core.EVENT_CODE_ASSET_LOADED, core.EVENT_CODE_WORLD_SAVED} {
		g.Systems.Events.Unregister(code, g)
	}
	return nil
}

func (g *TestGame) saveWorld() {
	state := g.state()
	if err := world.SaveToDisk(g.Systems.Files, state.worldPath, state.world, g.Systems.Assets); err != nil {
		g.Systems.Logger.Error(err.Error())
		return
	}
	var ctx core.EventContext
	ctx.Data.S = state.worldPath
	g.Systems.Events.Fire(core.EVENT_CODE_WORLD_SAVED, g, ctx)
}

func (g *TestGame) reloadWorld() {
	state := g.state()
	w, err := world.LoadWorldFromDisc(g.Systems.Files, state.worldPath, g.Systems.Assets, g.Systems.Logger.Named("testbed"))
	if err != nil {
		g.Systems.Logger.Error(err.Error())
		return
	}
	state.world = w
}

func (g *TestGame) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	r := g.Systems.Renderer
	switch core.KeyCode(context.Data.U16[0]) {
	case core.KEY_S:
		g.saveWorld()
	case core.KEY_L:
		g.reloadWorld()
	case core.KEY_F:
		r.SetFXAA(!r.Settings().FXAA)
	case core.KEY_R:
		r.SetStableCascades(!r.Settings().StableCascades)
	case core.KEY_SPACE:
		g.state().paused = !g.state().paused
	case core.KEY_F1:
		// -1 (off), 0, 1, 2, back to off
		next := r.Settings().DebugCascade + 1
		if next >= renderer.CascadeCount {
			next = -1
		}
		r.SetDebugCascade(next)
	case core.KEY_F2:
		s := g.Systems.Assets.Stats()
		fps, ms := g.Systems.Metrics.Frame()
		g.Systems.Logger.Infof("%.0f fps (%.2f ms) meshes=%d textures=%d in flight=%d transfers=%d failed=%d",
			fps, ms, s.Meshes, s.Textures, s.InFlight, s.TransfersInUse, s.Failed)
	default:
		return false
	}
	return true
}

func (g *TestGame) onAssetLoaded(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if context.Data.U32[2] != 0 {
		g.Systems.Logger.Warnf("%s %d failed to load", metadata.AssetKind(context.Data.U32[1]), context.Data.U32[0])
	}
	return false
}

func (g *TestGame) onWorldSaved(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	g.Systems.Logger.Infof("world saved to %s", context.Data.S)
	return false
}
