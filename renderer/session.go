// Package renderer drives live shader sessions: one GPU context's worth
// of program, textures and playback state per embedded viewer.
package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/shaderview/shaderview/graphics"
	"github.com/shaderview/shaderview/inputs"
	"github.com/shaderview/shaderview/options"
	"github.com/shaderview/shaderview/shader"
)

const (
	// TargetFPS fixes the simulated clock rate. Time advances by exactly
	// 1/TargetFPS per rendered frame regardless of wall time, so a frame
	// sequence is reproducible under throttled or backgrounded execution.
	TargetFPS  = 60
	frameDelta = 1.0 / float64(TargetFPS)

	// DefaultCaptureQuality is the JPEG quality used when the caller
	// passes a non-positive value.
	DefaultCaptureQuality = 0.8
)

// State is a session's lifecycle phase. Destroyed is terminal; a
// destroyed session is inert and issues no further GPU calls.
type State int

const (
	StateCreated State = iota
	StatePlaying
	StatePaused
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

type uniformLocations struct {
	resolution int32
	time       int32
	timeDelta  int32
	frame      int32
	mouse      int32
	date       int32
	channels   [inputs.NumChannels]int32
	channelRes int32
}

// Full-screen quad, triangle strip order.
var quadVertices = []float32{
	-1.0, -1.0,
	1.0, -1.0,
	-1.0, 1.0,
	1.0, 1.0,
}

// Session owns one GPU context's program, channel textures and frame
// loop. It is single-threaded: every method must be called from the
// thread driving the Scheduler.
type Session struct {
	ctx      graphics.Context
	registry *Registry
	sched    Scheduler
	cfg      options.ShaderConfig
	binder   *inputs.Binder
	sentinel Sentinel

	width, height int
	program       uint32
	vao, vbo      uint32
	locs          uniformLocations

	frameCount  int
	simTime     float64
	mouse       mouseState
	state       State
	cancelFrame func()

	now func() time.Time

	// supportsChannelResolution gates the iChannelResolution upload for
	// shaders compiled without the array.
	supportsChannelResolution bool
}

// New admits a session against the registry cap and prepares the quad
// geometry. The session holds no program until Load succeeds; rendering
// before then is a no-op. Construction failures never leave a session
// registered or holding GPU objects.
func New(ctx graphics.Context, reg *Registry, sched Scheduler, cfg options.ShaderConfig) (s *Session, err error) {
	if ctx == nil || reg == nil || sched == nil {
		return nil, errors.New("renderer: nil context, registry or scheduler")
	}

	s = &Session{
		ctx:                       ctx,
		registry:                  reg,
		sched:                     sched,
		cfg:                       cfg,
		state:                     StateCreated,
		now:                       time.Now,
		supportsChannelResolution: true,
	}
	s.width, s.height = cfg.CanvasSize()

	if !reg.TryAdmit(s) {
		return nil, ErrTooManySessions
	}
	defer func() {
		if r := recover(); r != nil {
			reg.Remove(s)
			s = nil
			err = fmt.Errorf("session setup failed: %v", r)
		}
	}()

	s.vao = ctx.GenVertexArray()
	s.vbo = ctx.GenBuffer()
	ctx.BindVertexArray(s.vao)
	ctx.BindArrayBuffer(s.vbo)
	ctx.BufferDataFloat32(quadVertices)
	ctx.EnableVertexAttrib(0, 2, 2*4)
	ctx.BindArrayBuffer(0)
	ctx.BindVertexArray(0)

	s.binder = inputs.NewBinder(ctx)
	return s, nil
}

func (s *Session) Binder() *inputs.Binder       { return s.binder }
func (s *Session) Config() options.ShaderConfig { return s.cfg }
func (s *Session) State() State                 { return s.state }
func (s *Session) FrameCount() int              { return s.frameCount }
func (s *Session) Time() float64                { return s.simTime }
func (s *Session) Size() (int, int)             { return s.width, s.height }

// SetSentinel wires mount-point removal to Destroy. The previous
// sentinel, if any, is detached.
func (s *Session) SetSentinel(sen Sentinel) {
	if s.sentinel != nil {
		s.sentinel.Close()
	}
	s.sentinel = sen
	if sen != nil {
		sen.OnGone(s.Destroy)
	}
}

// SetNow overrides the clock feeding the iDate uniform.
func (s *Session) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SetChannelResolutionSupport toggles the iChannelResolution upload.
func (s *Session) SetChannelResolutionSupport(on bool) {
	s.supportsChannelResolution = on
}

// SetMouseState feeds one pointer sample into the Shadertoy mouse model.
// The host calls this with canvas-relative coordinates, Y up.
func (s *Session) SetMouseState(x, y float32, down, inBounds bool) {
	if s.state == StateDestroyed {
		return
	}
	s.mouse.set(x, y, down, inBounds)
}

// Mouse returns the current iMouse vector (pos.xy, origin.xy).
func (s *Session) Mouse() [4]float32 { return s.mouse.vec4() }

// Load compiles the wrapped fragment source and swaps it in. On failure
// the previous program, if any, stays active and the diagnostic is
// returned; on success uniform locations are re-cached.
func (s *Session) Load(fragmentSource string, p shader.Profile) shader.CompileResult {
	if s.state == StateDestroyed {
		return shader.CompileResult{Diagnostic: "session destroyed"}
	}
	res := shader.NewCompiler(s.ctx).Compile(fragmentSource, p)
	if !res.OK {
		return res
	}
	if s.program != 0 {
		s.ctx.DeleteProgram(s.program)
	}
	s.program = res.Program
	s.cacheUniformLocations()
	return res
}

func (s *Session) cacheUniformLocations() {
	s.ctx.UseProgram(s.program)
	s.locs.resolution = s.ctx.UniformLocation(s.program, "iResolution")
	s.locs.time = s.ctx.UniformLocation(s.program, "iTime")
	s.locs.timeDelta = s.ctx.UniformLocation(s.program, "iTimeDelta")
	s.locs.frame = s.ctx.UniformLocation(s.program, "iFrame")
	s.locs.mouse = s.ctx.UniformLocation(s.program, "iMouse")
	s.locs.date = s.ctx.UniformLocation(s.program, "iDate")
	for i := 0; i < inputs.NumChannels; i++ {
		s.locs.channels[i] = s.ctx.UniformLocation(s.program, fmt.Sprintf("iChannel%d", i))
	}
	s.locs.channelRes = s.ctx.UniformLocation(s.program, "iChannelResolution")
}

// Play starts the frame loop. The first play ever resets simulated time
// to zero; resuming from a pause continues from the current time, so a
// viewer picks up where it left off.
func (s *Session) Play() {
	if s.state == StateDestroyed || s.state == StatePlaying {
		return
	}
	if s.frameCount == 0 {
		s.simTime = 0
	}
	s.state = StatePlaying
	s.schedule()
}

// Pause cancels the scheduled frame callback. Safe from any state.
func (s *Session) Pause() {
	if s.cancelFrame != nil {
		s.cancelFrame()
		s.cancelFrame = nil
	}
	if s.state == StatePlaying {
		s.state = StatePaused
	}
}

func (s *Session) schedule() {
	s.cancelFrame = s.sched.RequestFrame(s.frameTick)
}

// frameTick renders one frame and re-arms. The loop is not re-entrant:
// the next frame is only requested after this one's draw completed.
func (s *Session) frameTick() {
	if s.state != StatePlaying {
		return
	}
	s.Render()
	if s.state == StatePlaying {
		s.schedule()
	}
}

// Render advances the frame-stepped clock and draws one frame. Reports
// false, without touching the GPU, when no program is loaded or the
// session is destroyed.
func (s *Session) Render() bool {
	if s.state == StateDestroyed || s.program == 0 {
		return false
	}
	s.binder.Flush()
	s.frameCount++
	// Derived rather than accumulated, so N frames land on exactly
	// N*frameDelta with no float drift.
	s.simTime = float64(s.frameCount) * frameDelta
	s.draw(s.simTime, s.frameCount, frameDelta)
	return true
}

// RenderAt draws a single frame at the caller-supplied time without
// touching the session's own clock or frame counter. Used for thumbnail
// capture; the frame number is approximated as floor(t * TargetFPS).
func (s *Session) RenderAt(t float64) bool {
	if s.state == StateDestroyed || s.program == 0 {
		return false
	}
	s.binder.Flush()
	s.draw(t, int(math.Floor(t*float64(TargetFPS))), frameDelta)
	return true
}

func (s *Session) draw(t float64, frame int, delta float64) {
	ctx := s.ctx
	ctx.Viewport(0, 0, s.width, s.height)
	ctx.UseProgram(s.program)

	if s.locs.resolution != -1 {
		ctx.Uniform3f(s.locs.resolution, float32(s.width), float32(s.height), 1.0)
	}
	if s.locs.time != -1 {
		ctx.Uniform1f(s.locs.time, float32(t))
	}
	if s.locs.timeDelta != -1 {
		ctx.Uniform1f(s.locs.timeDelta, float32(delta))
	}
	if s.locs.frame != -1 {
		ctx.Uniform1i(s.locs.frame, int32(frame))
	}
	if s.locs.mouse != -1 {
		m := s.mouse.vec4()
		ctx.Uniform4f(s.locs.mouse, m[0], m[1], m[2], m[3])
	}
	if s.locs.date != -1 {
		year, month, day, secs := s.dateUniform()
		ctx.Uniform4f(s.locs.date, year, month, day, secs)
	}

	s.binder.Bind(s.locs.channels, s.locs.channelRes, s.supportsChannelResolution)

	ctx.ClearColor(0, 0, 0, 1)
	ctx.Clear()
	ctx.BindVertexArray(s.vao)
	ctx.DrawArrays(graphics.TriangleStrip, 0, 4)
	ctx.BindVertexArray(0)
}

// dateUniform matches Shadertoy's iDate: year, zero-based month,
// day-of-month and fractional seconds since midnight.
func (s *Session) dateUniform() (year, month, day, secs float32) {
	now := s.now()
	year = float32(now.Year())
	month = float32(int(now.Month()) - 1)
	day = float32(now.Day())
	secs = float32(now.Hour()*3600+now.Minute()*60+now.Second()) +
		float32(now.Nanosecond())/1e9
	return year, month, day, secs
}

// FlushTextures applies queued async texture uploads without rendering,
// for sessions that have not started playing yet.
func (s *Session) FlushTextures() {
	if s.state == StateDestroyed {
		return
	}
	s.binder.Flush()
}

// Capture renders the next frame and returns it as a JPEG at the given
// quality (0..1, non-positive means DefaultCaptureQuality). Returns nil
// when no program or surface is available.
func (s *Session) Capture(quality float64) []byte {
	if !s.Render() {
		return nil
	}
	return s.encodeFrame(quality, 0)
}

// CaptureAt is Capture at a fixed time, leaving the session clock alone.
func (s *Session) CaptureAt(t, quality float64) []byte {
	if !s.RenderAt(t) {
		return nil
	}
	return s.encodeFrame(quality, 0)
}

// Thumbnail captures at time t, downscaled so width does not exceed
// maxWidth. A non-positive maxWidth keeps the full render size.
func (s *Session) Thumbnail(t float64, maxWidth int, quality float64) []byte {
	if !s.RenderAt(t) {
		return nil
	}
	return s.encodeFrame(quality, maxWidth)
}

// FramePixels returns the last drawn frame as top-down RGBA bytes, for
// feeding a video encoder. Nil when the session cannot render.
func (s *Session) FramePixels() []byte {
	if s.state == StateDestroyed || s.program == 0 {
		return nil
	}
	return flipPixels(s.ctx.ReadPixelsRGBA(0, 0, s.width, s.height), s.width, s.height)
}

func (s *Session) encodeFrame(quality float64, maxWidth int) []byte {
	pix := flipPixels(s.ctx.ReadPixelsRGBA(0, 0, s.width, s.height), s.width, s.height)
	img := &image.RGBA{
		Pix:    pix,
		Stride: s.width * 4,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}

	var out image.Image = img
	if maxWidth > 0 && s.width > maxWidth {
		h := int(math.Round(float64(maxWidth) * float64(s.height) / float64(s.width)))
		scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		out = scaled
	}

	if quality <= 0 || quality > 1 {
		quality = DefaultCaptureQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: int(math.Round(quality * 100))}); err != nil {
		return nil
	}
	return buf.Bytes()
}

// flipPixels turns GL's bottom-up rows into top-down image rows.
func flipPixels(pix []byte, width, height int) []byte {
	rowSize := width * 4
	flipped := make([]byte, len(pix))
	for y := 0; y < height; y++ {
		src := pix[(height-1-y)*rowSize : (height-y)*rowSize]
		copy(flipped[y*rowSize:], src)
	}
	return flipped
}

// Destroy tears the session down: stop the loop, detach the sentinel,
// release textures, delete the program and quad, forget the registry
// entry. Idempotent; late calls on an already-inert session do nothing.
func (s *Session) Destroy() {
	if s.state == StateDestroyed {
		return
	}
	s.state = StateDestroyed

	if s.cancelFrame != nil {
		s.cancelFrame()
		s.cancelFrame = nil
	}
	if s.sentinel != nil {
		closeQuietly(s.sentinel)
		s.sentinel = nil
	}
	if s.binder != nil {
		s.binder.Destroy()
	}
	if s.program != 0 {
		s.ctx.DeleteProgram(s.program)
		s.program = 0
	}
	if s.vao != 0 {
		s.ctx.DeleteVertexArray(s.vao)
		s.vao = 0
	}
	if s.vbo != 0 {
		s.ctx.DeleteBuffer(s.vbo)
		s.vbo = 0
	}
	s.locs = uniformLocations{}
	s.registry.Remove(s)
}

// closeQuietly swallows sentinel teardown panics; a sentinel whose
// target is already gone indicates redundant cleanup, not a fault.
func closeQuietly(sen Sentinel) {
	defer func() { _ = recover() }()
	sen.Close()
}
