package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

const litVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec3 inTangent;
layout(location = 4) in vec4 inColor;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

out vec3 worldPos;
out vec3 worldNormal;
out vec3 worldTangent;
out vec2 uv;
out vec4 vertexColor;
out float viewDepth;

void main() {
    vec4 wp = model * vec4(inPosition, 1.0);
    mat3 normalMatrix = transpose(inverse(mat3(model)));
    worldPos = wp.xyz;
    worldNormal = normalize(normalMatrix * inNormal);
    worldTangent = normalize(normalMatrix * inTangent);
    uv = inUV;
    vertexColor = inColor;
    vec4 vp = view * wp;
    viewDepth = -vp.z;
    gl_Position = projection * vp;
}
` + "\x00"

// shadowLib is shared by both lit programs.
const shadowLib = `
uniform sampler2DArrayShadow shadowMap;
uniform mat4 lightSpace[3];
uniform float cascadeFar[3];
uniform vec3 lightDir;

float shadowFactor(vec3 p, vec3 n) {
    int cascade = 2;
    for (int i = 0; i < 3; i++) {
        if (viewDepth <= cascadeFar[i]) {
            cascade = i;
            break;
        }
    }
    vec4 lp = lightSpace[cascade] * vec4(p, 1.0);
    vec3 coords = lp.xyz / lp.w * 0.5 + 0.5;
    if (coords.z > 1.0) {
        return 1.0;
    }
    float bias = max(0.002 * (1.0 - dot(n, -lightDir)), 0.0005);
    vec2 texel = 1.0 / vec2(textureSize(shadowMap, 0).xy);
    float lit = 0.0;
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            lit += texture(shadowMap, vec4(coords.xy + vec2(x, y) * texel, float(cascade), coords.z - bias));
        }
    }
    return lit / 9.0;
}

vec3 surfaceNormal(sampler2D normalMap, bool hasNormalMap) {
    vec3 n = normalize(worldNormal);
    if (!hasNormalMap) {
        return n;
    }
    vec3 t = normalize(worldTangent - dot(worldTangent, n) * n);
    vec3 b = cross(n, t);
    vec3 m = texture(normalMap, uv).xyz * 2.0 - 1.0;
    return normalize(mat3(t, b, n) * m);
}
`

const phongFragSrc = `
#version 410 core
in vec3 worldPos;
in vec3 worldNormal;
in vec3 worldTangent;
in vec2 uv;
in vec4 vertexColor;
in float viewDepth;
out vec4 outColor;

uniform vec4 diffuseColor;
uniform vec3 specularColor;
uniform float shininess;
uniform sampler2D diffuseMap;
uniform sampler2D specularMap;
uniform sampler2D normalMap;
uniform bool hasDiffuseMap;
uniform bool hasSpecularMap;
uniform bool hasNormalMap;
uniform vec3 lightColor;
uniform vec3 ambient;
uniform vec3 cameraPos;
` + shadowLib + `
void main() {
    vec4 base = diffuseColor * vertexColor;
    if (hasDiffuseMap) {
        base *= texture(diffuseMap, uv);
    }
    vec3 spec = specularColor;
    if (hasSpecularMap) {
        spec *= texture(specularMap, uv).rgb;
    }
    vec3 n = surfaceNormal(normalMap, hasNormalMap);
    vec3 l = -lightDir;
    vec3 v = normalize(cameraPos - worldPos);
    vec3 h = normalize(l + v);
    float shadow = shadowFactor(worldPos, n);
    vec3 lit = base.rgb * max(dot(n, l), 0.0) + spec * pow(max(dot(n, h), 0.0), shininess);
    outColor = vec4(ambient * base.rgb + lightColor * lit * shadow, base.a);
}
` + "\x00"

const pbrFragSrc = `
#version 410 core
in vec3 worldPos;
in vec3 worldNormal;
in vec3 worldTangent;
in vec2 uv;
in vec4 vertexColor;
in float viewDepth;
out vec4 outColor;

uniform vec4 albedo;
uniform float metallic;
uniform float roughness;
uniform float ao;
uniform sampler2D albedoMap;
uniform sampler2D normalMap;
uniform sampler2D metallicMap;
uniform sampler2D roughnessMap;
uniform sampler2D aoMap;
uniform bool hasAlbedoMap;
uniform bool hasNormalMap;
uniform bool hasMetallicMap;
uniform bool hasRoughnessMap;
uniform bool hasAOMap;
uniform vec3 lightColor;
uniform vec3 ambient;
uniform vec3 cameraPos;
` + shadowLib + `
const float PI = 3.14159265;

void main() {
    vec4 base = albedo * vertexColor;
    if (hasAlbedoMap) {
        base *= texture(albedoMap, uv);
    }
    float m = hasMetallicMap ? texture(metallicMap, uv).r : metallic;
    float r = clamp(hasRoughnessMap ? texture(roughnessMap, uv).r : roughness, 0.04, 1.0);
    float occlusion = hasAOMap ? texture(aoMap, uv).r : ao;

    vec3 n = surfaceNormal(normalMap, hasNormalMap);
    vec3 l = -lightDir;
    vec3 v = normalize(cameraPos - worldPos);
    vec3 h = normalize(l + v);
    float nl = max(dot(n, l), 0.0);
    float nv = max(dot(n, v), 0.001);

    float a2 = r * r * r * r;
    float d = dot(n, h) * dot(n, h) * (a2 - 1.0) + 1.0;
    float ndf = a2 / (PI * d * d);
    float k = (r + 1.0) * (r + 1.0) / 8.0;
    float geometry = nv / (nv * (1.0 - k) + k) * nl / (nl * (1.0 - k) + k);
    vec3 f0 = mix(vec3(0.04), base.rgb, m);
    vec3 fresnel = f0 + (1.0 - f0) * pow(1.0 - max(dot(h, v), 0.0), 5.0);

    vec3 specular = ndf * geometry * fresnel / (4.0 * nv * max(nl, 0.001));
    vec3 diffuse = (1.0 - fresnel) * (1.0 - m) * base.rgb / PI;
    float shadow = shadowFactor(worldPos, n);
    vec3 color = ambient * base.rgb * occlusion + (diffuse + specular) * lightColor * nl * shadow;
    outColor = vec4(color, base.a);
}
` + "\x00"

const depthVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 model;
uniform mat4 lightSpace;
void main() {
    gl_Position = lightSpace * model * vec4(inPosition, 1.0);
}
` + "\x00"

const depthFragSrc = `
#version 410 core
void main() {}
` + "\x00"

const lineVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 viewProjection;
void main() {
    gl_Position = viewProjection * vec4(inPosition, 1.0);
}
` + "\x00"

const lineFragSrc = `
#version 410 core
uniform vec4 lineColor;
out vec4 outColor;
void main() {
    outColor = lineColor;
}
` + "\x00"

const waterVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 model;
uniform mat4 viewProjection;
out vec3 worldPos;
out vec2 uv;
void main() {
    vec4 wp = model * vec4(inPosition, 1.0);
    worldPos = wp.xyz;
    uv = inPosition.xz + 0.5;
    gl_Position = viewProjection * wp;
}
` + "\x00"

const waterFragSrc = `
#version 410 core
in vec3 worldPos;
in vec2 uv;
out vec4 outColor;
uniform vec4 shallowColor;
uniform vec4 deepColor;
uniform float waveScale;
uniform float waveSpeed;
uniform float time;
uniform sampler2D normalMap;
uniform bool hasNormalMap;
uniform vec3 cameraPos;
uniform vec3 lightDir;
uniform vec3 lightColor;
void main() {
    vec3 n = vec3(0.0, 1.0, 0.0);
    if (hasNormalMap) {
        vec2 offset = vec2(time * waveSpeed, time * waveSpeed * 0.7);
        vec3 a = texture(normalMap, uv * waveScale + offset).xzy * 2.0 - 1.0;
        vec3 b = texture(normalMap, uv * waveScale * 1.7 - offset).xzy * 2.0 - 1.0;
        n = normalize(a + b);
    }
    vec3 v = normalize(cameraPos - worldPos);
    float facing = clamp(dot(n, v), 0.0, 1.0);
    vec4 color = mix(shallowColor, deepColor, 1.0 - facing);
    vec3 h = normalize(-lightDir + v);
    color.rgb += lightColor * pow(max(dot(n, h), 0.0), 128.0);
    outColor = color;
}
` + "\x00"

// fullscreenVertSrc draws one triangle covering the screen from gl_VertexID.
const fullscreenVertSrc = `
#version 410 core
out vec2 fragUV;
void main() {
    const vec2 pos[3] = vec2[3](vec2(-1.0, -1.0), vec2(3.0, -1.0), vec2(-1.0, 3.0));
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragUV = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

// skyFragSrc samples an equirectangular panorama.
const skyFragSrc = `
#version 410 core
in vec2 fragUV;
out vec4 outColor;
uniform mat4 inverseViewProjection;
uniform sampler2D panorama;
const float PI = 3.14159265;
void main() {
    vec4 p = inverseViewProjection * vec4(fragUV * 2.0 - 1.0, 1.0, 1.0);
    vec3 dir = normalize(p.xyz / p.w);
    vec2 st = vec2(atan(dir.z, dir.x) / (2.0 * PI) + 0.5, asin(clamp(dir.y, -1.0, 1.0)) / PI + 0.5);
    outColor = texture(panorama, st);
}
` + "\x00"

const toneMapFragSrc = `
#version 410 core
in vec2 fragUV;
out vec4 outColor;
uniform sampler2D hdrBuffer;
uniform float exposure;
void main() {
    vec3 hdr = texture(hdrBuffer, fragUV).rgb;
    vec3 mapped = vec3(1.0) - exp(-hdr * exposure);
    mapped = pow(mapped, vec3(1.0 / 2.2));
    // luma in alpha for the anti-aliasing pass
    outColor = vec4(mapped, dot(mapped, vec3(0.299, 0.587, 0.114)));
}
` + "\x00"

const fxaaFragSrc = `
#version 410 core
in vec2 fragUV;
out vec4 outColor;
uniform sampler2D ldrBuffer;
uniform bool enabled;
const float SPAN_MAX = 8.0;
const float REDUCE_MUL = 1.0 / 8.0;
const float REDUCE_MIN = 1.0 / 128.0;
void main() {
    vec2 texel = 1.0 / vec2(textureSize(ldrBuffer, 0));
    vec4 center = texture(ldrBuffer, fragUV);
    if (!enabled) {
        outColor = vec4(center.rgb, 1.0);
        return;
    }
    float nw = texture(ldrBuffer, fragUV + vec2(-1.0, -1.0) * texel).a;
    float ne = texture(ldrBuffer, fragUV + vec2(1.0, -1.0) * texel).a;
    float sw = texture(ldrBuffer, fragUV + vec2(-1.0, 1.0) * texel).a;
    float se = texture(ldrBuffer, fragUV + vec2(1.0, 1.0) * texel).a;
    float m = center.a;
    float lumaMin = min(m, min(min(nw, ne), min(sw, se)));
    float lumaMax = max(m, max(max(nw, ne), max(sw, se)));

    vec2 dir = vec2(-((nw + ne) - (sw + se)), (nw + sw) - (ne + se));
    float reduce = max((nw + ne + sw + se) * 0.25 * REDUCE_MUL, REDUCE_MIN);
    float scale = 1.0 / (min(abs(dir.x), abs(dir.y)) + reduce);
    dir = clamp(dir * scale, vec2(-SPAN_MAX), vec2(SPAN_MAX)) * texel;

    vec3 a = 0.5 * (texture(ldrBuffer, fragUV + dir * (1.0 / 3.0 - 0.5)).rgb +
                    texture(ldrBuffer, fragUV + dir * (2.0 / 3.0 - 0.5)).rgb);
    vec3 b = a * 0.5 + 0.25 * (texture(ldrBuffer, fragUV - dir * 0.5).rgb +
                               texture(ldrBuffer, fragUV + dir * 0.5).rgb);
    float lumaB = dot(b, vec3(0.299, 0.587, 0.114));
    outColor = vec4((lumaB < lumaMin || lumaB > lumaMax) ? a : b, 1.0);
}
` + "\x00"

const cascadeDebugFragSrc = `
#version 410 core
in vec2 fragUV;
out vec4 outColor;
uniform sampler2DArray depthLayers;
uniform float layer;
void main() {
    float d = texture(depthLayers, vec3(fragUV, layer)).r;
    outColor = vec4(vec3(d), 1.0);
}
` + "\x00"

// program is a linked GL program with a cache of uniform locations.
type program struct {
	id       uint32
	uniforms map[string]int32
}

func newProgram(vertSrc, fragSrc string) (*program, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return nil, fmt.Errorf("fragment: %w", err)
	}

	id := gl.CreateProgram()
	gl.AttachShader(id, vert)
	gl.AttachShader(id, frag)
	gl.LinkProgram(id)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(id, logLen, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("link failed: %v", log)
	}
	return &program{id: id, uniforms: make(map[string]int32)}, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}

func (p *program) use() {
	gl.UseProgram(p.id)
}

func (p *program) loc(name string) int32 {
	if l, ok := p.uniforms[name]; ok {
		return l
	}
	l := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.uniforms[name] = l
	return l
}

func (p *program) destroy() {
	if p != nil && p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
