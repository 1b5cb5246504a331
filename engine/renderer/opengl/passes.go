package opengl

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/renderer"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

// Texture units. Material maps use 0..4 in TextureIDs order.
const (
	shadowUnit = 5
	postUnit   = 0
)

var (
	phongMapUniforms = [...]string{"diffuseMap", "specularMap", "normalMap"}
	phongHasUniforms = [...]string{"hasDiffuseMap", "hasSpecularMap", "hasNormalMap"}
	pbrMapUniforms   = [...]string{"albedoMap", "normalMap", "metallicMap", "roughnessMap", "aoMap"}
	pbrHasUniforms   = [...]string{"hasAlbedoMap", "hasNormalMap", "hasMetallicMap", "hasRoughnessMap", "hasAOMap"}
)

func setMat4(p *program, name string, m mgl32.Mat4) {
	gl.UniformMatrix4fv(p.loc(name), 1, false, &m[0])
}

func setVec3(p *program, name string, v mgl32.Vec3) {
	gl.Uniform3fv(p.loc(name), 1, &v[0])
}

func setVec4(p *program, name string, v mgl32.Vec4) {
	gl.Uniform4fv(p.loc(name), 1, &v[0])
}

func bindTexture(unit uint32, target uint32, id uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(target, id)
}

func textureID(t *metadata.Texture) (uint32, bool) {
	if t == nil {
		return 0, false
	}
	gt, ok := t.GPUHandle.(*glTexture)
	if !ok {
		return 0, false
	}
	return gt.id, true
}

func (b *Backend) BeginShadowPass(cascade int, lightSpace mgl32.Mat4) {
	b.shadow.bindLayer(cascade)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(true)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	// front face culling keeps acne off lit surfaces
	gl.CullFace(gl.FRONT)
	b.depth.use()
	setMat4(b.depth, "lightSpace", lightSpace)
}

func (b *Backend) DrawMeshDepth(mesh *metadata.Mesh, transform mgl32.Mat4) {
	m, ok := mesh.GPUHandle.(*glMesh)
	if !ok {
		return
	}
	setMat4(b.depth, "model", transform)
	m.draw()
}

func (b *Backend) EndShadowPass(cascade int) {
	gl.CullFace(gl.BACK)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

/**
 * @brief Binds the HDR target, draws the sky and uploads the per-frame state
 * of both lit programs so DrawMesh only sets per-draw uniforms.
 */
func (b *Backend) BeginMainPass(frame *renderer.FrameData) {
	b.frame = frame
	b.hdr.bind()
	c := frame.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if id, ok := textureID(frame.Skybox); ok {
		gl.Disable(gl.DEPTH_TEST)
		gl.DepthMask(false)
		b.sky.use()
		// the sky ignores camera translation
		view := frame.View
		view[12], view[13], view[14] = 0, 0, 0
		setMat4(b.sky, "inverseViewProjection", frame.Projection.Mul4(view).Inv())
		bindTexture(0, gl.TEXTURE_2D, id)
		gl.Uniform1i(b.sky.loc("panorama"), 0)
		gl.BindVertexArray(b.emptyVAO)
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
		gl.DepthMask(true)
	}
	gl.Enable(gl.DEPTH_TEST)

	var lightSpace [renderer.CascadeCount]mgl32.Mat4
	var far [renderer.CascadeCount]float32
	for i, cascade := range frame.Cascades {
		lightSpace[i] = cascade.LightSpace
		far[i] = cascade.SplitFar
	}
	light := frame.Light
	bindTexture(shadowUnit, gl.TEXTURE_2D_ARRAY, b.shadow.depth)
	for _, p := range []*program{b.phong, b.pbr} {
		p.use()
		setMat4(p, "view", frame.View)
		setMat4(p, "projection", frame.Projection)
		setVec3(p, "cameraPos", frame.CameraPosition)
		setVec3(p, "lightDir", light.Direction)
		setVec3(p, "lightColor", light.Color.Mul(light.Intensity))
		setVec3(p, "ambient", light.Ambient)
		gl.UniformMatrix4fv(p.loc("lightSpace[0]"), renderer.CascadeCount, false, &lightSpace[0][0])
		gl.Uniform1fv(p.loc("cascadeFar[0]"), renderer.CascadeCount, &far[0])
		gl.Uniform1i(p.loc("shadowMap"), shadowUnit)
	}
}

func (b *Backend) DrawMesh(mesh *metadata.Mesh, transform mgl32.Mat4, material *renderer.MaterialBinding) {
	m, ok := mesh.GPUHandle.(*glMesh)
	if !ok {
		return
	}
	var p *program
	var maps, has []string
	switch material.Workflow {
	case metadata.MaterialWorkflowPBR:
		p, maps, has = b.pbr, pbrMapUniforms[:], pbrHasUniforms[:]
		p.use()
		mat := material.PBR
		setVec4(p, "albedo", mat.Albedo)
		gl.Uniform1f(p.loc("metallic"), mat.Metallic)
		gl.Uniform1f(p.loc("roughness"), mat.Roughness)
		gl.Uniform1f(p.loc("ao"), mat.AO)
	default:
		p, maps, has = b.phong, phongMapUniforms[:], phongHasUniforms[:]
		p.use()
		mat := material.Phong
		setVec4(p, "diffuseColor", mat.DiffuseColor)
		setVec3(p, "specularColor", mat.SpecularColor)
		gl.Uniform1f(p.loc("shininess"), mat.Shininess)
	}
	for i := range maps {
		id, ok := textureID(material.Maps[i])
		bindTexture(uint32(i), gl.TEXTURE_2D, id)
		gl.Uniform1i(p.loc(maps[i]), int32(i))
		gl.Uniform1i(p.loc(has[i]), boolInt(ok))
	}
	setMat4(p, "model", transform)
	m.draw()
}

func (b *Backend) DrawLines(cmd renderer.LineBeginCmd, vertices []mgl32.Vec3) {
	if len(vertices) < 2 || b.frame == nil {
		return
	}
	if !cmd.DepthTest {
		gl.Disable(gl.DEPTH_TEST)
	}
	width := max(b.lineWidthRange[0], min(cmd.Width, b.lineWidthRange[1]))
	gl.LineWidth(max(width, 1))

	b.lines.use()
	setMat4(b.lines, "viewProjection", b.frame.Projection.Mul4(b.frame.View))
	setVec4(b.lines, "lineColor", cmd.Color)
	gl.BindVertexArray(b.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.lineVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*12, gl.Ptr(&vertices[0][0]), gl.STREAM_DRAW)
	gl.DrawArrays(gl.LINE_STRIP, 0, int32(len(vertices)))

	gl.Enable(gl.DEPTH_TEST)
}

func (b *Backend) DrawWater(cmd renderer.DrawWaterCmd, normalMap *metadata.Texture) {
	if b.frame == nil {
		return
	}
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)

	p := b.water
	p.use()
	setMat4(p, "model", cmd.Transform)
	setMat4(p, "viewProjection", b.frame.Projection.Mul4(b.frame.View))
	setVec4(p, "shallowColor", cmd.ShallowColor)
	setVec4(p, "deepColor", cmd.DeepColor)
	gl.Uniform1f(p.loc("waveScale"), cmd.WaveScale)
	gl.Uniform1f(p.loc("waveSpeed"), cmd.WaveSpeed)
	gl.Uniform1f(p.loc("time"), float32(b.frame.Time))
	setVec3(p, "cameraPos", b.frame.CameraPosition)
	setVec3(p, "lightDir", b.frame.Light.Direction)
	setVec3(p, "lightColor", b.frame.Light.Color.Mul(b.frame.Light.Intensity))
	id, ok := textureID(normalMap)
	bindTexture(0, gl.TEXTURE_2D, id)
	gl.Uniform1i(p.loc("normalMap"), 0)
	gl.Uniform1i(p.loc("hasNormalMap"), boolInt(ok))

	gl.BindVertexArray(b.waterVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(waterQuad)/3))

	gl.Enable(gl.CULL_FACE)
	gl.Disable(gl.BLEND)
}

func (b *Backend) EndMainPass() {
	gl.BindVertexArray(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

/**
 * @brief Tone maps the HDR target into the LDR target, then resolves it to
 * the default framebuffer with optional FXAA and a cascade overlay.
 */
func (b *Backend) PostProcess(settings renderer.PostSettings) {
	gl.Disable(gl.DEPTH_TEST)
	gl.BindVertexArray(b.emptyVAO)

	b.ldr.bind()
	b.toneMap.use()
	bindTexture(postUnit, gl.TEXTURE_2D, b.hdr.color)
	gl.Uniform1i(b.toneMap.loc("hdrBuffer"), postUnit)
	gl.Uniform1f(b.toneMap.loc("exposure"), settings.Exposure)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(b.width), int32(b.height))
	b.fxaa.use()
	bindTexture(postUnit, gl.TEXTURE_2D, b.ldr.color)
	gl.Uniform1i(b.fxaa.loc("ldrBuffer"), postUnit)
	gl.Uniform1i(b.fxaa.loc("enabled"), boolInt(settings.FXAA))
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	if settings.DebugCascade >= 0 && settings.DebugCascade < renderer.CascadeCount {
		size := int32(min(b.width, b.height) / 3)
		gl.Viewport(0, 0, size, size)
		b.shadow.setCompare(false)
		b.cascadeDebug.use()
		bindTexture(postUnit, gl.TEXTURE_2D_ARRAY, b.shadow.depth)
		gl.Uniform1i(b.cascadeDebug.loc("depthLayers"), postUnit)
		gl.Uniform1f(b.cascadeDebug.loc("layer"), float32(settings.DebugCascade))
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
		b.shadow.setCompare(true)
		gl.Viewport(0, 0, int32(b.width), int32(b.height))
	}

	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
}
