// Package shader turns user-authored mainImage snippets into complete
// GLSL sources and compiles them into linked programs.
package shader

// Profile selects the shading-language syntax variant used when wrapping
// user code. The two profiles differ only in keyword/output syntax; the
// geometry and uniform contract are identical.
type Profile int

const (
	// ProfileLegacy targets the older GLSL dialect: attribute/varying
	// keywords, the implicit gl_FragColor output and texture2D sampling.
	ProfileLegacy Profile = iota
	// ProfileModern targets GLSL 330 core: in/out qualifiers, a declared
	// fragment output and the unified texture() call, with texture2D and
	// textureCube compatibility macros for Shadertoy sources.
	ProfileModern
)

func (p Profile) String() string {
	if p == ProfileModern {
		return "modern"
	}
	return "legacy"
}

const vertexSourceLegacy = `attribute vec2 in_vert;
void main() {
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const vertexSourceModern = `#version 330 core
layout (location = 0) in vec2 in_vert;
void main() {
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

// uniformBlock is shared by both fragment profiles. Every session uploads
// this full set each frame.
const uniformBlock = `uniform vec3  iResolution;
uniform float iTime;
uniform float iTimeDelta;
uniform int   iFrame;
uniform vec4  iMouse;
uniform vec4  iDate;
uniform sampler2D iChannel0;
uniform sampler2D iChannel1;
uniform sampler2D iChannel2;
uniform sampler2D iChannel3;
uniform vec3  iChannelResolution[4];
`

const fragmentHeaderLegacy = `precision highp float;
` + uniformBlock

const fragmentFooterLegacy = `
void main(void)
{
    mainImage(gl_FragColor, gl_FragCoord.xy);
}
`

const fragmentHeaderModern = `#version 330 core
precision highp float;
` + uniformBlock + `
out vec4 sv_fragColor;

#define texture2D(s, uv) texture(s, uv)
#define textureCube(s, uv) texture(s, uv)
`

const fragmentFooterModern = `
void main(void)
{
    mainImage(sv_fragColor, gl_FragCoord.xy);
}
`

// VertexSource returns the fixed full-screen-quad vertex shader for the
// given profile. The quad is the only geometry the renderer ever draws.
func VertexSource(p Profile) string {
	if p == ProfileModern {
		return vertexSourceModern
	}
	return vertexSourceLegacy
}

// WrapFragment surrounds a user mainImage body with the profile's header
// (precision + uniform declarations) and a footer that synthesizes main().
func WrapFragment(userSource string, p Profile) string {
	if p == ProfileModern {
		return fragmentHeaderModern + userSource + fragmentFooterModern
	}
	return fragmentHeaderLegacy + userSource + fragmentFooterLegacy
}

// WrapFragmentWebGL wraps user code for a WebGL2/GLSL ES 300 target. The
// result is not compiled locally; it feeds the translator's validation
// path, which reports portable ANGLE diagnostics without needing a GPU.
func WrapFragmentWebGL(userSource string) string {
	return `#version 300 es
precision highp float;
precision highp int;
` + uniformBlock + `
out vec4 sv_fragColor;
` + userSource + fragmentFooterModern
}
