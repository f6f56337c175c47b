// Package grtest provides a recording, GPU-free implementation of
// graphics.Context for tests. It tracks every live shader, program and
// texture object so tests can assert that teardown paths release exactly
// what they created, and it can be scripted to fail compilation or linking
// with driver-style logs.
package grtest

import (
	"fmt"

	"github.com/shaderview/shaderview/graphics"
)

type shaderObj struct {
	stage    uint32
	source   string
	compiled bool
}

type programObj struct {
	shaders []uint32
	linked  bool
	locs    map[string]int32
}

// Context records all GL-surface calls. The zero value is not usable; use New.
type Context struct {
	// Scripted failures. A non-empty log makes the matching stage (or link)
	// fail with that log returned verbatim.
	FailVertexLog   string
	FailFragmentLog string
	FailLinkLog     string

	// MissingUniforms lists uniform names that resolve to location -1.
	MissingUniforms map[string]bool

	nextHandle uint32
	shaders    map[uint32]*shaderObj
	programs   map[uint32]*programObj
	textures   map[uint32]bool
	vaos       map[uint32]bool
	vbos       map[uint32]bool

	boundProgram uint32
	boundTexture uint32
	activeUnit   int
	nextLoc      int32

	// Observable side effects.
	Uniform1fCalls map[int32]float32
	Uniform1iCalls map[int32]int32
	Uniform3fCalls map[int32][3]float32
	Uniform4fCalls map[int32][4]float32
	UniformFvCalls map[int32][]float32
	ViewportRect   [4]int
	DrawCalls      int
	LastDrawMode   uint32
	LastDrawCount  int32
	ClearCalls     int
	TextureUploads map[uint32][2]int // texture -> last uploaded (w, h)
	BoundUnits     map[int]uint32    // unit -> texture bound while active
}

func New() *Context {
	return &Context{
		MissingUniforms: map[string]bool{},
		shaders:         map[uint32]*shaderObj{},
		programs:        map[uint32]*programObj{},
		textures:        map[uint32]bool{},
		vaos:            map[uint32]bool{},
		vbos:            map[uint32]bool{},
		Uniform1fCalls:  map[int32]float32{},
		Uniform1iCalls:  map[int32]int32{},
		Uniform3fCalls:  map[int32][3]float32{},
		Uniform4fCalls:  map[int32][4]float32{},
		UniformFvCalls:  map[int32][]float32{},
		TextureUploads:  map[uint32][2]int{},
		BoundUnits:      map[int]uint32{},
	}
}

func (c *Context) handle() uint32 {
	c.nextHandle++
	return c.nextHandle
}

// LiveShaders reports the number of shader stage objects not yet deleted.
func (c *Context) LiveShaders() int { return len(c.shaders) }

// LivePrograms reports the number of program objects not yet deleted.
func (c *Context) LivePrograms() int { return len(c.programs) }

// LiveTextures reports the number of texture objects not yet deleted.
func (c *Context) LiveTextures() int { return len(c.textures) }

// LiveBuffers reports undeleted VAOs plus VBOs.
func (c *Context) LiveBuffers() int { return len(c.vaos) + len(c.vbos) }

func (c *Context) CreateShader(stage uint32) uint32 {
	h := c.handle()
	c.shaders[h] = &shaderObj{stage: stage}
	return h
}

func (c *Context) ShaderSource(shader uint32, source string) {
	if s, ok := c.shaders[shader]; ok {
		s.source = source
	}
}

func (c *Context) CompileShader(shader uint32) bool {
	s, ok := c.shaders[shader]
	if !ok {
		return false
	}
	switch {
	case s.stage == graphics.VertexShader && c.FailVertexLog != "":
		return false
	case s.stage == graphics.FragmentShader && c.FailFragmentLog != "":
		return false
	}
	s.compiled = true
	return true
}

func (c *Context) ShaderInfoLog(shader uint32) string {
	s, ok := c.shaders[shader]
	if !ok {
		return ""
	}
	if s.stage == graphics.VertexShader {
		return c.FailVertexLog
	}
	return c.FailFragmentLog
}

func (c *Context) DeleteShader(shader uint32) { delete(c.shaders, shader) }

func (c *Context) CreateProgram() uint32 {
	h := c.handle()
	c.programs[h] = &programObj{locs: map[string]int32{}}
	return h
}

func (c *Context) AttachShader(program, shader uint32) {
	if p, ok := c.programs[program]; ok {
		p.shaders = append(p.shaders, shader)
	}
}

func (c *Context) LinkProgram(program uint32) bool {
	p, ok := c.programs[program]
	if !ok || c.FailLinkLog != "" {
		return false
	}
	p.linked = true
	return true
}

func (c *Context) ProgramInfoLog(program uint32) string { return c.FailLinkLog }

func (c *Context) DeleteProgram(program uint32) { delete(c.programs, program) }

func (c *Context) UseProgram(program uint32) { c.boundProgram = program }

func (c *Context) UniformLocation(program uint32, name string) int32 {
	if c.MissingUniforms[name] {
		return -1
	}
	p, ok := c.programs[program]
	if !ok {
		return -1
	}
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := c.nextLoc
	c.nextLoc++
	p.locs[name] = loc
	return loc
}

// Location returns the location previously handed out for name on program,
// or -1 if it was never queried.
func (c *Context) Location(program uint32, name string) int32 {
	if p, ok := c.programs[program]; ok {
		if loc, ok := p.locs[name]; ok {
			return loc
		}
	}
	return -1
}

func (c *Context) Uniform1f(loc int32, v float32) { c.Uniform1fCalls[loc] = v }

func (c *Context) Uniform1i(loc int32, v int32) { c.Uniform1iCalls[loc] = v }

func (c *Context) Uniform3f(loc int32, x, y, z float32) {
	c.Uniform3fCalls[loc] = [3]float32{x, y, z}
}

func (c *Context) Uniform4f(loc int32, x, y, z, w float32) {
	c.Uniform4fCalls[loc] = [4]float32{x, y, z, w}
}

func (c *Context) Uniform3fv(loc int32, values []float32) {
	c.UniformFvCalls[loc] = append([]float32(nil), values...)
}

func (c *Context) GenTexture() uint32 {
	h := c.handle()
	c.textures[h] = true
	return h
}

func (c *Context) ActiveTexture(unit int) { c.activeUnit = unit }

func (c *Context) BindTexture2D(tex uint32) {
	c.boundTexture = tex
	if tex != 0 {
		c.BoundUnits[c.activeUnit] = tex
	}
}

func (c *Context) TexImage2DRGBA(width, height int, pixels []byte) {
	c.TextureUploads[c.boundTexture] = [2]int{width, height}
}

func (c *Context) TexImage2DRG32F(width, height int, pixels []float32) {
	c.TextureUploads[c.boundTexture] = [2]int{width, height}
}

func (c *Context) TexSubImage2DRG32F(width, height int, pixels []float32) {
	c.TextureUploads[c.boundTexture] = [2]int{width, height}
}

func (c *Context) TexParameteri(pname uint32, param int32) {}

func (c *Context) DeleteTexture(tex uint32) { delete(c.textures, tex) }

func (c *Context) GenVertexArray() uint32 {
	h := c.handle()
	c.vaos[h] = true
	return h
}

func (c *Context) GenBuffer() uint32 {
	h := c.handle()
	c.vbos[h] = true
	return h
}

func (c *Context) BindVertexArray(vao uint32) {}

func (c *Context) BindArrayBuffer(vbo uint32) {}

func (c *Context) BufferDataFloat32(data []float32) {}

func (c *Context) EnableVertexAttrib(index uint32, size, stride int32) {}

func (c *Context) DeleteVertexArray(vao uint32) { delete(c.vaos, vao) }

func (c *Context) DeleteBuffer(vbo uint32) { delete(c.vbos, vbo) }

func (c *Context) Viewport(x, y, width, height int) {
	c.ViewportRect = [4]int{x, y, width, height}
}

func (c *Context) ClearColor(r, g, b, a float32) {}

func (c *Context) Clear() { c.ClearCalls++ }

func (c *Context) DrawArrays(mode uint32, first, count int32) {
	c.DrawCalls++
	c.LastDrawMode = mode
	c.LastDrawCount = count
}

// ReadPixelsRGBA returns a deterministic gradient so capture paths have real
// bytes to encode.
func (c *Context) ReadPixelsRGBA(x, y, width, height int) []byte {
	pixels := make([]byte, width*height*4)
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			i := (py*width + px) * 4
			pixels[i] = byte(px)
			pixels[i+1] = byte(py)
			pixels[i+2] = byte(px ^ py)
			pixels[i+3] = 0xff
		}
	}
	return pixels
}

var _ graphics.Context = (*Context)(nil)

// Dump is a debugging aid summarizing live object counts.
func (c *Context) Dump() string {
	return fmt.Sprintf("shaders=%d programs=%d textures=%d buffers=%d draws=%d",
		len(c.shaders), len(c.programs), len(c.textures), len(c.vaos)+len(c.vbos), c.DrawCalls)
}
