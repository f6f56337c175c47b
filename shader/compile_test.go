package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaderview/shaderview/graphics/grtest"
)

const minimalShader = `void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(fragCoord / iResolution.xy, 0.0, 1.0);
}`

func TestCompileSuccess(t *testing.T) {
	ctx := grtest.New()
	res := NewCompiler(ctx).Compile(WrapFragment(minimalShader, ProfileModern), ProfileModern)

	require.True(t, res.OK, "diagnostic: %s", res.Diagnostic)
	assert.NotZero(t, res.Program)
	assert.Empty(t, res.Diagnostic)

	// Only the linked program survives; stage objects are deleted.
	assert.Equal(t, 0, ctx.LiveShaders())
	assert.Equal(t, 1, ctx.LivePrograms())
}

func TestCompileFragmentFailure(t *testing.T) {
	ctx := grtest.New()
	ctx.FailFragmentLog = "0:12: 'foo' : undeclared identifier\x00\x07\x1b"

	res := NewCompiler(ctx).Compile(WrapFragment("nonsense", ProfileModern), ProfileModern)

	require.False(t, res.OK)
	assert.Zero(t, res.Program)
	assert.True(t, strings.HasPrefix(res.Diagnostic, "fragment: "), "got %q", res.Diagnostic)
	assert.Contains(t, res.Diagnostic, "undeclared identifier")

	// Nothing leaks on failure: no program was built, and both stage
	// objects are gone.
	assert.Equal(t, 0, ctx.LivePrograms())
	assert.Equal(t, 0, ctx.LiveShaders())
}

func TestCompileVertexFailure(t *testing.T) {
	ctx := grtest.New()
	ctx.FailVertexLog = "0:1: syntax error"

	res := NewCompiler(ctx).Compile(WrapFragment(minimalShader, ProfileLegacy), ProfileLegacy)

	require.False(t, res.OK)
	assert.True(t, strings.HasPrefix(res.Diagnostic, "vertex: "), "got %q", res.Diagnostic)
	assert.Equal(t, 0, ctx.LiveShaders())
	assert.Equal(t, 0, ctx.LivePrograms())
}

func TestCompileLinkFailure(t *testing.T) {
	ctx := grtest.New()
	ctx.FailLinkLog = "varying mismatch between stages"

	res := NewCompiler(ctx).Compile(WrapFragment(minimalShader, ProfileModern), ProfileModern)

	require.False(t, res.OK)
	assert.True(t, strings.HasPrefix(res.Diagnostic, "link: "), "got %q", res.Diagnostic)
	// The partially-built program is deleted before reporting.
	assert.Equal(t, 0, ctx.LivePrograms())
	assert.Equal(t, 0, ctx.LiveShaders())
}

func TestDiagnosticsArePrintable(t *testing.T) {
	ctx := grtest.New()
	ctx.FailFragmentLog = "line 1: bad\x00byte\r\nline 2: more\x07garbage\x1f  "

	res := NewCompiler(ctx).Compile(WrapFragment("x", ProfileModern), ProfileModern)

	require.False(t, res.OK)
	assert.NotEmpty(t, res.Diagnostic)
	for _, r := range res.Diagnostic {
		ok := r == '\n' || r == '\r' || (r >= 0x20 && r != 0x7f)
		assert.True(t, ok, "control byte %q survived scrubbing", r)
	}
	// Newlines themselves are preserved.
	assert.Contains(t, res.Diagnostic, "\n")
}
