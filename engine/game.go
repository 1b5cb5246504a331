package engine

import (
	"github.com/spaghettifunk/flux/engine/assets"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/platform/filesystem"
	"github.com/spaghettifunk/flux/engine/renderer"
	"github.com/spaghettifunk/flux/engine/renderer/components"
)

/**
 * @brief The engine systems a game talks to. Set on Game before
 * FnInitialize runs.
 */
type Systems struct {
	Logger   *core.Logger
	Events   *core.EventBus
	Files    filesystem.FileIO
	Assets   *assets.AssetManager
	Renderer *renderer.Renderer
	// Camera is the camera the frame is rendered from.
	Camera  *components.Camera
	Metrics *core.Metrics
}

type Game struct {
	Config       *Config
	Systems      *Systems
	State        interface{}
	FnBoot       Boot
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Boot func() error
type Initialize func() error
type Update func(deltaTime float64) error
type Render func(group *renderer.RenderGroup, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
