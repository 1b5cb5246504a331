package platform

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/flux/engine/core"
)

var startTime = time.Now()

func init() {
	// GLFW event handling and the GL context must stay on the main OS thread
	runtime.LockOSThread()
}

/**
 * @brief A window and its presentation surface. The engine drives either the
 * glfw implementation or Headless.
 */
type Window interface {
	Startup(applicationName string, x, y, width, height uint32) error
	// PumpMessages processes pending OS events and returns false once the window should close.
	PumpMessages() bool
	SwapBuffers()
	FramebufferSize() (uint32, uint32)
	Shutdown() error
}

/**
 * @brief glfw window with an OpenGL 4.1 core context. Input and window
 * events are forwarded to the event bus.
 */
type Platform struct {
	Window *glfw.Window
	events *core.EventBus
	logger *core.Logger
	vsync  bool
}

func New(events *core.EventBus, logger *core.Logger, vsync bool) *Platform {
	return &Platform{events: events, logger: logger, vsync: vsync}
}

func (p *Platform) Startup(applicationName string, x, y, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		p.logger.Error(fmt.Sprintf("failed to initialize glfw: %s", err))
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		p.logger.Error(fmt.Sprintf("failed to create window: %s", err))
		glfw.Terminate()
		return err
	}
	window.MakeContextCurrent()
	if p.vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

func (p *Platform) SwapBuffers() {
	p.Window.SwapBuffers()
}

func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// translateKey maps glfw keys onto engine key codes. Printable keys share their ASCII value.
func translateKey(key glfw.Key) (core.KeyCode, bool) {
	switch key {
	case glfw.KeyEscape:
		return core.KEY_ESCAPE, true
	case glfw.KeyF1:
		return core.KEY_F1, true
	case glfw.KeyF2:
		return core.KEY_F2, true
	}
	if key >= glfw.KeySpace && key <= glfw.KeyZ {
		return core.KeyCode(key), true
	}
	return 0, false
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	code, ok := translateKey(key)
	if !ok || action == glfw.Repeat {
		return
	}
	var ctx core.EventContext
	ctx.Data.U16[0] = uint16(code)
	if action == glfw.Press {
		p.events.Fire(core.EVENT_CODE_KEY_PRESSED, p, ctx)
	} else {
		p.events.Fire(core.EVENT_CODE_KEY_RELEASED, p, ctx)
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	var ctx core.EventContext
	ctx.Data.U32[0] = uint32(width)
	ctx.Data.U32[1] = uint32(height)
	p.events.Fire(core.EVENT_CODE_RESIZED, p, ctx)
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, p, core.EventContext{})
}

// GetAbsoluteTime returns the seconds since the process started.
func GetAbsoluteTime() float64 {
	return time.Since(startTime).Seconds()
}

// Sleep yields the remaining frame time back to the OS.
func Sleep(ms float64) {
	time.Sleep(time.Duration(ms * float64(time.Millisecond)))
}
