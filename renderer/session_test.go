package renderer

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaderview/shaderview/graphics"
	"github.com/shaderview/shaderview/graphics/grtest"
	"github.com/shaderview/shaderview/options"
	"github.com/shaderview/shaderview/shader"
)

const testShader = `void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(fragCoord / iResolution.xy, 0.0, 1.0);
}`

func newTestSession(t *testing.T) (*grtest.Context, *Registry, *FrameQueue, *Session) {
	t.Helper()
	ctx := grtest.New()
	reg := NewRegistry(DefaultMaxSessions)
	queue := NewFrameQueue()
	s, err := New(ctx, reg, queue, options.Default())
	require.NoError(t, err)
	return ctx, reg, queue, s
}

// testPNG encodes a 2x2 image for channel-binding tests.
func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func loadTestShader(t *testing.T, s *Session) uint32 {
	t.Helper()
	res := s.Load(shader.WrapFragment(testShader, shader.ProfileModern), shader.ProfileModern)
	require.True(t, res.OK, "diagnostic: %s", res.Diagnostic)
	return res.Program
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(nil, NewRegistry(1), NewFrameQueue(), options.Default())
	assert.Error(t, err)
	_, err = New(grtest.New(), nil, NewFrameQueue(), options.Default())
	assert.Error(t, err)
	_, err = New(grtest.New(), NewRegistry(1), nil, options.Default())
	assert.Error(t, err)
}

func TestNewRegistersAndSizesCanvas(t *testing.T) {
	_, reg, _, s := newTestSession(t)
	assert.Equal(t, 1, reg.Count())
	assert.Equal(t, StateCreated, s.State())

	w, h := s.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 450, h)
}

func TestDestroyIsIdempotent(t *testing.T) {
	ctx, reg, _, s := newTestSession(t)
	loadTestShader(t, s)
	require.True(t, s.Binder().Load(0, testPNG(t)))
	s.Play()

	drawsBefore := ctx.DrawCalls
	for i := 0; i < 3; i++ {
		s.Destroy()
	}

	assert.Equal(t, StateDestroyed, s.State())
	assert.Equal(t, 0, reg.Count())
	assert.Equal(t, 0, ctx.LivePrograms())
	assert.Equal(t, 0, ctx.LiveTextures())
	assert.Equal(t, 0, ctx.LiveBuffers())
	assert.Equal(t, 0, ctx.LiveShaders())

	// A destroyed session is inert.
	assert.False(t, s.Render())
	assert.Nil(t, s.Capture(0.8))
	s.Play()
	assert.Equal(t, StateDestroyed, s.State())
	res := s.Load(shader.WrapFragment(testShader, shader.ProfileModern), shader.ProfileModern)
	assert.False(t, res.OK)
	assert.Equal(t, drawsBefore, ctx.DrawCalls)
}

func TestTimeAdvancesByExactFrameSteps(t *testing.T) {
	_, _, queue, s := newTestSession(t)
	loadTestShader(t, s)

	s.Play()
	for i := 1; i <= 5; i++ {
		queue.RunFrame()
		assert.Equal(t, i, s.FrameCount())
		assert.Equal(t, float64(i)*(1.0/60.0), s.Time(), "frame %d", i)
	}
}

func TestPauseResumeContinuity(t *testing.T) {
	_, _, queue, s := newTestSession(t)
	loadTestShader(t, s)

	s.Play()
	for i := 0; i < 5; i++ {
		queue.RunFrame()
	}
	s.Pause()
	assert.Equal(t, StatePaused, s.State())

	// No frames run while paused.
	queue.RunFrame()
	assert.Equal(t, 5, s.FrameCount())

	s.Play()
	queue.RunFrame()
	assert.Equal(t, 6, s.FrameCount())
	assert.Equal(t, float64(6)*(1.0/60.0), s.Time())
}

func TestReplayAfterPauseDoesNotResetClock(t *testing.T) {
	_, _, queue, s := newTestSession(t)
	loadTestShader(t, s)

	s.Play()
	queue.RunFrame()
	s.Pause()
	before := s.Time()

	// Only the very first play starts from zero.
	s.Play()
	assert.Equal(t, before, s.Time())
}

func TestFrameLoopReArmsOncePerFrame(t *testing.T) {
	_, _, queue, s := newTestSession(t)
	loadTestShader(t, s)

	s.Play()
	require.Equal(t, 1, queue.Pending())
	queue.RunFrame()
	assert.Equal(t, 1, s.FrameCount())
	assert.Equal(t, 1, queue.Pending())
}

func TestPauseBeforeFrameRunsCancelsCallback(t *testing.T) {
	ctx, _, queue, s := newTestSession(t)
	loadTestShader(t, s)

	s.Play()
	s.Pause()
	queue.RunFrame()
	assert.Equal(t, 0, s.FrameCount())
	assert.Equal(t, 0, ctx.DrawCalls)
}

func TestRenderWithoutProgramIsNoop(t *testing.T) {
	ctx, _, _, s := newTestSession(t)
	assert.False(t, s.Render())
	assert.Equal(t, 0, s.FrameCount())
	assert.Equal(t, 0, ctx.DrawCalls)
	assert.Nil(t, s.Capture(0.8))
	assert.Nil(t, s.FramePixels())
}

func TestDrawUploadsUniforms(t *testing.T) {
	ctx, _, _, s := newTestSession(t)
	program := loadTestShader(t, s)
	s.SetNow(func() time.Time {
		return time.Date(2024, time.March, 5, 1, 2, 3, 500000000, time.UTC)
	})
	s.SetMouseState(10, 20, true, true)

	require.True(t, s.Render())

	assert.Equal(t, [4]int{0, 0, 800, 450}, ctx.ViewportRect)
	assert.Equal(t, 1, ctx.DrawCalls)
	assert.Equal(t, uint32(graphics.TriangleStrip), ctx.LastDrawMode)
	assert.Equal(t, int32(4), ctx.LastDrawCount)
	assert.Equal(t, 1, ctx.ClearCalls)

	res := ctx.Uniform3fCalls[ctx.Location(program, "iResolution")]
	assert.Equal(t, [3]float32{800, 450, 1}, res)
	assert.Equal(t, float32(1.0/60.0), ctx.Uniform1fCalls[ctx.Location(program, "iTime")])
	assert.Equal(t, float32(1.0/60.0), ctx.Uniform1fCalls[ctx.Location(program, "iTimeDelta")])
	assert.Equal(t, int32(1), ctx.Uniform1iCalls[ctx.Location(program, "iFrame")])
	assert.Equal(t, [4]float32{10, 20, 10, 20}, ctx.Uniform4fCalls[ctx.Location(program, "iMouse")])

	// iDate is (year, zero-based month, day, seconds since midnight).
	date := ctx.Uniform4fCalls[ctx.Location(program, "iDate")]
	assert.Equal(t, [4]float32{2024, 2, 5, 3723.5}, date)
}

func TestDrawSkipsMissingUniforms(t *testing.T) {
	ctx := grtest.New()
	ctx.MissingUniforms = map[string]bool{"iTime": true, "iMouse": true}
	reg := NewRegistry(DefaultMaxSessions)
	s, err := New(ctx, reg, NewFrameQueue(), options.Default())
	require.NoError(t, err)
	loadTestShader(t, s)

	require.True(t, s.Render())

	// Nothing may be uploaded to the -1 sentinel location.
	_, ok := ctx.Uniform1fCalls[-1]
	assert.False(t, ok)
	_, ok = ctx.Uniform4fCalls[-1]
	assert.False(t, ok)
	_, ok = ctx.Uniform1iCalls[-1]
	assert.False(t, ok)
}

func TestRenderAtLeavesClockAlone(t *testing.T) {
	ctx, _, _, s := newTestSession(t)
	program := loadTestShader(t, s)

	require.True(t, s.RenderAt(1.0))

	assert.Equal(t, 0, s.FrameCount())
	assert.Equal(t, 0.0, s.Time())
	assert.Equal(t, float32(1.0), ctx.Uniform1fCalls[ctx.Location(program, "iTime")])
	assert.Equal(t, int32(60), ctx.Uniform1iCalls[ctx.Location(program, "iFrame")])
}

func TestMouseModel(t *testing.T) {
	_, _, _, s := newTestSession(t)

	// Press records the origin alongside the position.
	s.SetMouseState(10, 20, true, true)
	assert.Equal(t, [4]float32{10, 20, 10, 20}, s.Mouse())

	// Drag moves the position, not the origin.
	s.SetMouseState(30, 40, true, true)
	assert.Equal(t, [4]float32{30, 40, 10, 20}, s.Mouse())

	// Release flips the origin negative and freezes the position.
	s.SetMouseState(30, 40, false, true)
	assert.Equal(t, [4]float32{30, 40, -10, -20}, s.Mouse())

	// Hovering without the button does nothing.
	s.SetMouseState(99, 99, false, true)
	assert.Equal(t, [4]float32{30, 40, -10, -20}, s.Mouse())

	// An out-of-bounds press does not start a drag.
	s.SetMouseState(1000, 1000, true, false)
	assert.Equal(t, [4]float32{30, 40, -10, -20}, s.Mouse())

	// A fresh press resets the origin positive.
	s.SetMouseState(5, 6, true, true)
	assert.Equal(t, [4]float32{5, 6, 5, 6}, s.Mouse())
}

func TestLoadFailureKeepsPreviousProgram(t *testing.T) {
	ctx, _, _, s := newTestSession(t)
	loadTestShader(t, s)
	require.Equal(t, 1, ctx.LivePrograms())

	ctx.FailFragmentLog = "0:1: bad"
	res := s.Load(shader.WrapFragment("nonsense", shader.ProfileModern), shader.ProfileModern)
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Diagnostic)

	// The old program still renders.
	ctx.FailFragmentLog = ""
	assert.True(t, s.Render())
	assert.Equal(t, 1, ctx.LivePrograms())
}

func TestLoadReplacesProgram(t *testing.T) {
	ctx, _, _, s := newTestSession(t)
	loadTestShader(t, s)
	loadTestShader(t, s)
	assert.Equal(t, 1, ctx.LivePrograms())
}

func TestChannelResolutionSupportToggle(t *testing.T) {
	ctx, _, _, s := newTestSession(t)
	program := loadTestShader(t, s)
	require.True(t, s.Binder().Load(0, testPNG(t)))

	s.SetChannelResolutionSupport(false)
	require.True(t, s.Render())
	_, uploaded := ctx.UniformFvCalls[ctx.Location(program, "iChannelResolution")]
	assert.False(t, uploaded)

	s.SetChannelResolutionSupport(true)
	require.True(t, s.Render())
	flat := ctx.UniformFvCalls[ctx.Location(program, "iChannelResolution")]
	require.Len(t, flat, 12)
	assert.Equal(t, []float32{2, 2, 1}, flat[0:3])
}

func TestSentinelTriggersDestroy(t *testing.T) {
	ctx, reg, _, s := newTestSession(t)
	loadTestShader(t, s)

	sen := &FuncSentinel{}
	s.SetSentinel(sen)
	sen.Gone()

	assert.Equal(t, StateDestroyed, s.State())
	assert.Equal(t, 0, reg.Count())
	assert.Equal(t, 0, ctx.LivePrograms())
	assert.Equal(t, 0, ctx.LiveBuffers())

	// The sentinel was detached during teardown; a late fire is harmless.
	sen.Gone()
}

func TestSetSentinelDetachesPrevious(t *testing.T) {
	_, _, _, s := newTestSession(t)
	first := &FuncSentinel{}
	second := &FuncSentinel{}

	s.SetSentinel(first)
	s.SetSentinel(second)

	// The replaced sentinel no longer reaches the session.
	first.Gone()
	assert.NotEqual(t, StateDestroyed, s.State())

	second.Gone()
	assert.Equal(t, StateDestroyed, s.State())
}

func TestDestroySwallowsSentinelClosePanic(t *testing.T) {
	_, reg, _, s := newTestSession(t)
	s.SetSentinel(panickySentinel{})

	assert.NotPanics(t, s.Destroy)
	assert.Equal(t, StateDestroyed, s.State())
	assert.Equal(t, 0, reg.Count())
}

type panickySentinel struct{}

func (panickySentinel) OnGone(func()) {}
func (panickySentinel) Close()        { panic("mount point already gone") }

func TestCaptureProducesJPEG(t *testing.T) {
	_, _, _, s := newTestSession(t)
	loadTestShader(t, s)

	jpg := s.Capture(0.8)
	require.NotNil(t, jpg)
	require.Greater(t, len(jpg), 2)
	assert.Equal(t, []byte{0xff, 0xd8}, jpg[:2])

	// Capture advanced the clock by one frame.
	assert.Equal(t, 1, s.FrameCount())
}

func TestCaptureAtAndThumbnail(t *testing.T) {
	_, _, _, s := newTestSession(t)
	loadTestShader(t, s)

	jpg := s.CaptureAt(2.5, 0)
	require.NotNil(t, jpg)
	assert.Equal(t, []byte{0xff, 0xd8}, jpg[:2])
	assert.Equal(t, 0, s.FrameCount())

	thumb := s.Thumbnail(2.5, 400, 0.5)
	require.NotNil(t, thumb)
	assert.Equal(t, []byte{0xff, 0xd8}, thumb[:2])
	// Downscaling cannot grow the file past the full-size capture by much;
	// mainly we care that it encodes at all and leaves the clock alone.
	assert.Equal(t, 0, s.FrameCount())
}

func TestFramePixels(t *testing.T) {
	_, _, _, s := newTestSession(t)
	loadTestShader(t, s)
	require.True(t, s.Render())

	pix := s.FramePixels()
	require.Len(t, pix, 800*450*4)
}

func TestEndToEnd(t *testing.T) {
	ctx, reg, queue, s := newTestSession(t)
	loadTestShader(t, s)
	require.True(t, s.Binder().Load(0, testPNG(t)))

	s.Play()
	for i := 0; i < 10; i++ {
		queue.RunFrame()
	}
	assert.Equal(t, 10, s.FrameCount())
	assert.Equal(t, float64(10)*(1.0/60.0), s.Time())

	jpg := s.Thumbnail(1.0, 400, 0.8)
	require.NotNil(t, jpg)
	assert.Equal(t, []byte{0xff, 0xd8}, jpg[:2])

	s.Destroy()
	assert.Equal(t, 0, reg.Count())
	assert.Equal(t, 0, ctx.LivePrograms())
	assert.Equal(t, 0, ctx.LiveTextures())
	assert.Equal(t, 0, ctx.LiveBuffers())
	assert.Equal(t, 0, ctx.LiveShaders())
}
