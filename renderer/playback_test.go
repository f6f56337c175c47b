package renderer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaderview/shaderview/options"
	"github.com/shaderview/shaderview/shader"
)

func TestToggleFlipsPlayAndPause(t *testing.T) {
	_, _, _, s := newTestSession(t)
	loadTestShader(t, s)
	p := NewPlayback(s, nil)

	require.NoError(t, p.TogglePlayPause())
	assert.True(t, p.Playing())
	assert.Equal(t, StatePlaying, s.State())

	require.NoError(t, p.TogglePlayPause())
	assert.False(t, p.Playing())
	assert.Equal(t, StatePaused, s.State())
}

func TestStopDestroysSession(t *testing.T) {
	ctx, reg, _, s := newTestSession(t)
	loadTestShader(t, s)
	p := NewPlayback(s, nil)
	require.NoError(t, p.TogglePlayPause())

	p.Stop()

	assert.False(t, p.Playing())
	assert.Nil(t, p.Session())
	assert.Equal(t, StateDestroyed, s.State())
	assert.Equal(t, 0, reg.Count())
	assert.Equal(t, 0, ctx.LivePrograms())

	// Stop again is harmless.
	p.Stop()
}

func TestToggleAfterStopRebuilds(t *testing.T) {
	ctx, reg, queue, s := newTestSession(t)
	loadTestShader(t, s)

	rebuilds := 0
	p := NewPlayback(s, func() (*Session, error) {
		rebuilds++
		fresh, err := New(ctx, reg, queue, options.Default())
		if err != nil {
			return nil, err
		}
		res := fresh.Load(shader.WrapFragment(testShader, shader.ProfileModern), shader.ProfileModern)
		if !res.OK {
			fresh.Destroy()
			return nil, errors.New(res.Diagnostic)
		}
		return fresh, nil
	})

	p.Stop()
	require.NoError(t, p.TogglePlayPause())

	assert.Equal(t, 1, rebuilds)
	assert.True(t, p.Playing())
	require.NotNil(t, p.Session())
	assert.NotSame(t, s, p.Session())
	assert.Equal(t, StatePlaying, p.Session().State())

	// The rebuilt session starts from frame zero.
	queue.RunFrame()
	assert.Equal(t, 1, p.Session().FrameCount())
}

func TestToggleAfterStopWithoutRebuildFails(t *testing.T) {
	_, _, _, s := newTestSession(t)
	p := NewPlayback(s, nil)
	p.Stop()

	assert.Error(t, p.TogglePlayPause())
	assert.False(t, p.Playing())
}

func TestToggleSurfacesRebuildError(t *testing.T) {
	_, _, _, s := newTestSession(t)
	p := NewPlayback(s, func() (*Session, error) {
		return nil, errors.New("shader no longer compiles")
	})
	p.Stop()

	err := p.TogglePlayPause()
	assert.EqualError(t, err, "shader no longer compiles")
	assert.False(t, p.Playing())
}
