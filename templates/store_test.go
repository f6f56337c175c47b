package templates

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".glsl"), []byte(body), 0o644))
}

func TestResolveEmptyNamePassesThrough(t *testing.T) {
	out, err := NewStore("").Resolve("", "user code")
	require.NoError(t, err)
	assert.Equal(t, "user code", out)
}

func TestResolveSplicesAtMarker(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "raymarch", "float sdf(vec3 p);\n"+Marker+"\nfloat sdf(vec3 p) { return length(p); }\n")

	out, err := NewStore(dir).Resolve("raymarch", "// user body")
	require.NoError(t, err)
	assert.Contains(t, out, "// user body")
	assert.NotContains(t, out, Marker)
	assert.Contains(t, out, "float sdf(vec3 p) { return length(p); }")
}

func TestResolveAppendsWithoutMarker(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "noise", "float hash(vec2 p) { return fract(sin(dot(p, vec2(12.9898, 78.233))) * 43758.5453); }")

	out, err := NewStore(dir).Resolve("noise", "// user body")
	require.NoError(t, err)
	assert.Contains(t, out, "float hash")
	// The user's code comes after the template helpers.
	assert.Greater(t, len(out), len("// user body"))
	assert.Contains(t, out, "\n// user body")
}

func TestResolveMissingTemplateFails(t *testing.T) {
	_, err := NewStore(t.TempDir()).Resolve("nope", "code")
	assert.Error(t, err)
}

func TestResolveWithoutDirFails(t *testing.T) {
	_, err := NewStore("").Resolve("raymarch", "code")
	assert.Error(t, err)
}

func TestWatchReportsChangedTemplates(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan string, 8)
	stop, err := NewStore(dir).Watch(func(name string) { changed <- name })
	require.NoError(t, err)
	defer stop()

	writeTemplate(t, dir, "raymarch", "// v2")

	select {
	case name := <-changed:
		assert.Equal(t, "raymarch", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}
}

func TestWatchIgnoresNonTemplates(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan string, 8)
	stop, err := NewStore(dir).Watch(func(name string) { changed <- name })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	writeTemplate(t, dir, "real", "// body")

	select {
	case name := <-changed:
		assert.Equal(t, "real", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}
}

func TestWatchWithoutDirIsNoop(t *testing.T) {
	stop, err := NewStore("").Watch(func(string) { t.Fatal("unexpected event") })
	require.NoError(t, err)
	stop()
}
