package engine

import (
	"fmt"

	"github.com/spaghettifunk/flux/engine/assets"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/platform"
	"github.com/spaghettifunk/flux/engine/platform/filesystem"
	"github.com/spaghettifunk/flux/engine/renderer"
	"github.com/spaghettifunk/flux/engine/renderer/components"
	"github.com/spaghettifunk/flux/engine/renderer/headless"
	"github.com/spaghettifunk/flux/engine/renderer/opengl"
	"github.com/spaghettifunk/flux/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const (
	// suspendedSleepMS is how long a minimized window waits between message pumps.
	suspendedSleepMS = 16
	// maxFrameDelta caps the simulation step after a stall.
	maxFrameDelta = 0.25
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       Config
	isRunning    bool
	isSuspended  bool

	logger       *core.Logger
	events       *core.EventBus
	files        filesystem.FileIO
	window       platform.Window
	jobs         *systems.JobSystem
	backend      renderer.Backend
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer
	group        *renderer.RenderGroup
	camera       *components.Camera

	width   uint32
	height  uint32
	clock   *core.Clock
	metrics *core.Metrics
	frames  uint64
}

/**
 * @brief Builds the engine around g. Nothing touches the OS or the GPU until
 * Initialize.
 */
func New(g *Game, config Config, logger *core.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		logger.Error(err.Error())
		return nil, err
	}
	events := core.NewEventBus()

	var window platform.Window
	var backend renderer.Backend
	switch config.Renderer.Backend {
	case "headless":
		window = platform.NewHeadless()
		backend = headless.New(logger.Named("headless"))
	default:
		window = platform.New(events, logger.Named("platform"), config.Renderer.VSync)
		backend = opengl.New(logger.Named("opengl"), config.Renderer.ShadowMapSize)
	}

	g.Config = &config
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       config,
		logger:       logger,
		events:       events,
		files:        filesystem.OS{},
		window:       window,
		backend:      backend,
		camera:       components.NewCamera(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        config.Application.StartWidth,
		height:       config.Application.StartHeight,
	}, nil
}

func (e *Engine) Initialize() error {
	app := e.config.Application

	e.currentStage = EngineStageBooting
	if e.gameInstance.FnBoot != nil {
		if err := e.gameInstance.FnBoot(); err != nil {
			e.logger.Error(err.Error())
			return err
		}
	}
	e.currentStage = EngineStageBootComplete

	e.currentStage = EngineStageInitializing
	for code, fn := range map[core.SystemEventCode]core.FnOnEvent{
		core.EVENT_CODE_APPLICATION_QUIT: e.onEvent,
		core.EVENT_CODE_KEY_PRESSED:      e.onKey,
		core.EVENT_CODE_RESIZED:          e.onResized,
	} {
		if err := e.events.Register(code, e, fn); err != nil {
			return err
		}
	}

	if err := e.window.Startup(app.Name, app.StartPosX, app.StartPosY, app.StartWidth, app.StartHeight); err != nil {
		return err
	}
	e.width, e.height = e.window.FramebufferSize()
	e.camera.Aspect = float32(e.width) / float32(max(e.height, 1))

	e.renderer = renderer.NewRenderer(e.backend, nil, e.logger.Named("renderer"), e.config.RendererSettings())
	if err := e.renderer.Initialize(app.Name, e.width, e.height); err != nil {
		return err
	}

	jobs, err := systems.NewJobSystem(e.logger.Named("jobs"), e.config.Jobs.Workers, e.config.Jobs.QueueSize)
	if err != nil {
		e.logger.Error(err.Error())
		return err
	}
	e.jobs = jobs

	am, err := assets.NewAssetManager(e.config.AssetsConfig(), e.backend, e.jobs, e.files, e.logger.Named("assets"), assets.WithEventBus(e.events))
	if err != nil {
		e.logger.Error(err.Error())
		return err
	}
	e.assetManager = am
	e.renderer.SetAssets(am)
	e.group = e.renderer.NewRenderGroup(e.config.Renderer.MaxCommands, e.config.Renderer.ArenaSize)

	e.gameInstance.Systems = &Systems{
		Logger:   e.logger,
		Events:   e.events,
		Files:    e.files,
		Assets:   e.assetManager,
		Renderer: e.renderer,
		Camera:   e.camera,
		Metrics:  e.metrics,
	}
	if err := e.gameInstance.FnInitialize(); err != nil {
		e.logger.Error(err.Error())
		return err
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

/**
 * @brief Runs frames until quit: pump messages, finalize finished loads,
 * update the game, record and replay the render group, present.
 */
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return core.ErrNotInitialized
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.SetMaxDelta(maxFrameDelta)
	e.clock.Start()

	for e.isRunning {
		if !e.window.PumpMessages() {
			e.isRunning = false
			break
		}
		if e.isSuspended {
			platform.Sleep(suspendedSleepMS)
			// the time spent minimized is not simulated
			e.clock.Tick()
			continue
		}

		delta := e.clock.Tick()
		frameStartTime := platform.GetAbsoluteTime()

		if n := e.assetManager.CompletePendingLoads(); n > 0 {
			e.logger.Debugf("%d asset loads completed", n)
		}

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			e.logger.Error(fmt.Sprintf("game update failed, shutting down: %s", err))
			return err
		}
		if err := e.frame(delta); err != nil {
			return err
		}
		e.window.SwapBuffers()

		e.metrics.Update(platform.GetAbsoluteTime() - frameStartTime)
		e.frames++
		if limit := e.config.Application.Frames; limit > 0 && e.frames >= limit {
			e.isRunning = false
		}
	}
	return nil
}

func (e *Engine) frame(delta float64) error {
	if err := e.renderer.Begin(e.camera, delta); err != nil {
		return err
	}
	renderErr := e.gameInstance.FnRender(e.group, delta)
	if renderErr == nil {
		renderErr = e.renderer.Render(e.group)
	}
	// End always runs so the group is reset even when the game failed
	if err := e.renderer.End(e.group, delta); err != nil {
		return err
	}
	if renderErr != nil {
		e.logger.Error(fmt.Sprintf("game render failed, shutting down: %s", renderErr))
	}
	return renderErr
}

// Shutdown tears the systems down in reverse creation order.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	var firstErr error
	keep := func(err error) {
		if err != nil {
			e.logger.Error(err.Error())
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if e.gameInstance.FnShutdown != nil {
		keep(e.gameInstance.FnShutdown())
	}
	if e.assetManager != nil {
		keep(e.assetManager.Shutdown())
	}
	if e.jobs != nil {
		keep(e.jobs.Shutdown())
	}
	if e.renderer != nil {
		keep(e.renderer.Shutdown())
	}
	keep(e.window.Shutdown())
	e.events.Shutdown()
	e.clock.Stop()

	fps, ms := e.metrics.Frame()
	e.logger.Infof("shut down after %d frames in %.1fs (%.0f fps, %.2f ms)", e.frames, e.clock.Elapsed(), fps, ms)
	return firstErr
}

// GetFramebufferSize returns the width and height (in this order) of the application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Frames() uint64 {
	return e.frames
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Events() *core.EventBus {
	return e.events
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		e.logger.Info("EVENT_CODE_APPLICATION_QUIT received, shutting down")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if core.KeyCode(context.Data.U16[0]) == core.KEY_ESCAPE {
		// firing to ourselves, but there may be other listeners
		e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	width, height := context.Data.U32[0], context.Data.U32[1]
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	e.logger.Debugf("window resize: %d, %d", width, height)

	if width == 0 || height == 0 {
		e.logger.Info("window minimized, suspending application")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		e.logger.Info("window restored, resuming application")
		e.isSuspended = false
	}
	e.camera.Aspect = float32(width) / float32(height)
	e.camera.IsDirty = true
	if err := e.renderer.OnResize(width, height); err != nil {
		e.logger.Error(err.Error())
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			e.logger.Error(err.Error())
		}
	}
	return false
}
