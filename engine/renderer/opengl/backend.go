package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/renderer"
)

// waterQuad is a unit quad on the XZ plane, two triangles.
var waterQuad = []float32{
	-0.5, 0, -0.5, 0.5, 0, 0.5, 0.5, 0, -0.5,
	-0.5, 0, -0.5, -0.5, 0, 0.5, 0.5, 0, 0.5,
}

/**
 * @brief OpenGL 4.1 core backend. Requires a current context on the calling
 * thread before Initialize, which the platform layer provides.
 */
type Backend struct {
	logger        *core.Logger
	shadowMapSize int
	width, height uint32

	phong, pbr   *program
	depth        *program
	lines        *program
	water        *program
	sky          *program
	toneMap      *program
	fxaa         *program
	cascadeDebug *program

	shadow *shadowTarget
	hdr    *colorTarget
	ldr    *colorTarget

	emptyVAO       uint32
	lineVAO        uint32
	lineVBO        uint32
	waterVAO       uint32
	waterVBO       uint32
	lineWidthRange [2]float32
	frame          *renderer.FrameData
	meshes         int
	textures       int
	initialized    bool
}

func New(logger *core.Logger, shadowMapSize int) *Backend {
	return &Backend{logger: logger, shadowMapSize: shadowMapSize}
}

func (b *Backend) Initialize(appName string, width, height uint32) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}
	b.logger.Infof("%s: OpenGL %s (%s)", appName, gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	b.width, b.height = width, height

	sources := []struct {
		dst        **program
		name       string
		vert, frag string
	}{
		{&b.phong, "phong", litVertSrc, phongFragSrc},
		{&b.pbr, "pbr", litVertSrc, pbrFragSrc},
		{&b.depth, "depth", depthVertSrc, depthFragSrc},
		{&b.lines, "lines", lineVertSrc, lineFragSrc},
		{&b.water, "water", waterVertSrc, waterFragSrc},
		{&b.sky, "sky", fullscreenVertSrc, skyFragSrc},
		{&b.toneMap, "tone map", fullscreenVertSrc, toneMapFragSrc},
		{&b.fxaa, "fxaa", fullscreenVertSrc, fxaaFragSrc},
		{&b.cascadeDebug, "cascade debug", fullscreenVertSrc, cascadeDebugFragSrc},
	}
	for _, s := range sources {
		p, err := newProgram(s.vert, s.frag)
		if err != nil {
			return fmt.Errorf("%s program: %w", s.name, err)
		}
		*s.dst = p
	}

	var err error
	if b.shadow, err = newShadowTarget(b.shadowMapSize); err != nil {
		return err
	}
	if err := b.createScreenTargets(); err != nil {
		return err
	}

	gl.GenVertexArrays(1, &b.emptyVAO)

	gl.GenVertexArrays(1, &b.lineVAO)
	gl.BindVertexArray(b.lineVAO)
	gl.GenBuffers(1, &b.lineVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.lineVBO)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))

	gl.GenVertexArrays(1, &b.waterVAO)
	gl.BindVertexArray(b.waterVAO)
	gl.GenBuffers(1, &b.waterVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.waterVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(waterQuad)*4, gl.Ptr(waterQuad), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	gl.GetFloatv(gl.ALIASED_LINE_WIDTH_RANGE, &b.lineWidthRange[0])
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)

	if err := glError("initialize"); err != nil {
		return err
	}
	b.initialized = true
	return nil
}

func (b *Backend) createScreenTargets() error {
	var err error
	if b.hdr, err = newColorTarget(b.width, b.height, true); err != nil {
		return err
	}
	if b.ldr, err = newColorTarget(b.width, b.height, false); err != nil {
		b.hdr.destroy()
		return err
	}
	return nil
}

func (b *Backend) Shutdown() error {
	if !b.initialized {
		return nil
	}
	for _, p := range []*program{b.phong, b.pbr, b.depth, b.lines, b.water, b.sky, b.toneMap, b.fxaa, b.cascadeDebug} {
		p.destroy()
	}
	b.shadow.destroy()
	b.hdr.destroy()
	b.ldr.destroy()
	gl.DeleteBuffers(1, &b.lineVBO)
	gl.DeleteBuffers(1, &b.waterVBO)
	vaos := []uint32{b.emptyVAO, b.lineVAO, b.waterVAO}
	gl.DeleteVertexArrays(int32(len(vaos)), &vaos[0])
	b.initialized = false

	if b.meshes > 0 || b.textures > 0 {
		return fmt.Errorf("opengl backend shut down with %d meshes and %d textures alive", b.meshes, b.textures)
	}
	return nil
}

func (b *Backend) Resized(width, height uint32) error {
	if width == 0 || height == 0 || (width == b.width && height == b.height) {
		return nil
	}
	b.width, b.height = width, height
	b.hdr.destroy()
	b.ldr.destroy()
	return b.createScreenTargets()
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	if !b.initialized {
		return fmt.Errorf("opengl backend not initialized")
	}
	return nil
}

// EndFrame leaves the composed image in the default framebuffer; the platform swaps.
func (b *Backend) EndFrame(deltaTime float64) error {
	b.frame = nil
	return nil
}

var _ renderer.Backend = (*Backend)(nil)
