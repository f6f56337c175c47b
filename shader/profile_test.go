package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVertexSource(t *testing.T) {
	legacy := VertexSource(ProfileLegacy)
	assert.Contains(t, legacy, "attribute vec2 in_vert")
	assert.NotContains(t, legacy, "#version")

	modern := VertexSource(ProfileModern)
	assert.True(t, strings.HasPrefix(modern, "#version 330 core"))
	assert.Contains(t, modern, "layout (location = 0) in vec2 in_vert")

	// Both pass the position through unchanged.
	assert.Contains(t, legacy, "gl_Position = vec4(in_vert, 0.0, 1.0);")
	assert.Contains(t, modern, "gl_Position = vec4(in_vert, 0.0, 1.0);")
}

func TestWrapFragmentModern(t *testing.T) {
	user := "void mainImage(out vec4 c, in vec2 f) { c = vec4(1.0); }"
	src := WrapFragment(user, ProfileModern)

	assert.True(t, strings.HasPrefix(src, "#version 330 core"))
	assert.Contains(t, src, "out vec4 sv_fragColor;")
	assert.Contains(t, src, "#define texture2D(s, uv) texture(s, uv)")
	assert.Contains(t, src, "#define textureCube(s, uv) texture(s, uv)")
	assert.Contains(t, src, user)
	assert.Contains(t, src, "mainImage(sv_fragColor, gl_FragCoord.xy);")
	assert.NotContains(t, src, "gl_FragColor")
}

func TestWrapFragmentLegacy(t *testing.T) {
	user := "void mainImage(out vec4 c, in vec2 f) { c = vec4(1.0); }"
	src := WrapFragment(user, ProfileLegacy)

	assert.NotContains(t, src, "#version")
	assert.Contains(t, src, user)
	assert.Contains(t, src, "mainImage(gl_FragColor, gl_FragCoord.xy);")
	assert.NotContains(t, src, "sv_fragColor")
}

func TestWrapDeclaresFullUniformSet(t *testing.T) {
	for _, p := range []Profile{ProfileLegacy, ProfileModern} {
		src := WrapFragment("", p)
		for _, u := range []string{
			"uniform vec3  iResolution;",
			"uniform float iTime;",
			"uniform float iTimeDelta;",
			"uniform int   iFrame;",
			"uniform vec4  iMouse;",
			"uniform vec4  iDate;",
			"uniform sampler2D iChannel0;",
			"uniform sampler2D iChannel1;",
			"uniform sampler2D iChannel2;",
			"uniform sampler2D iChannel3;",
			"uniform vec3  iChannelResolution[4];",
		} {
			assert.Contains(t, src, u, "profile %s missing %s", p, u)
		}
	}
}

func TestWrapFragmentWebGL(t *testing.T) {
	src := WrapFragmentWebGL("void mainImage(out vec4 c, in vec2 f) { c = vec4(0.0); }")
	assert.True(t, strings.HasPrefix(src, "#version 300 es"))
	assert.Contains(t, src, "precision highp float;")
	assert.Contains(t, src, "mainImage(sv_fragColor, gl_FragCoord.xy);")
}
