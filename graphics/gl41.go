package graphics

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// GL41 is the desktop OpenGL 4.1 core-profile backend. A GL context must be
// current on the calling thread before NewGL41 is called.
type GL41 struct{}

func NewGL41() (*GL41, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL bindings: %w", err)
	}
	return &GL41{}, nil
}

func (*GL41) CreateShader(stage uint32) uint32 {
	return gl.CreateShader(stage)
}

func (*GL41) ShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
}

func (*GL41) CompileShader(shader uint32) bool {
	gl.CompileShader(shader)
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

func (*GL41) ShaderInfoLog(shader uint32) string {
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (*GL41) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (*GL41) CreateProgram() uint32 { return gl.CreateProgram() }

func (*GL41) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (*GL41) LinkProgram(program uint32) bool {
	gl.LinkProgram(program)
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

func (*GL41) ProgramInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (*GL41) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (*GL41) UseProgram(program uint32) { gl.UseProgram(program) }

func (*GL41) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (*GL41) Uniform1f(loc int32, v float32) { gl.Uniform1f(loc, v) }

func (*GL41) Uniform1i(loc int32, v int32) { gl.Uniform1i(loc, v) }

func (*GL41) Uniform3f(loc int32, x, y, z float32) { gl.Uniform3f(loc, x, y, z) }

func (*GL41) Uniform4f(loc int32, x, y, z, w float32) { gl.Uniform4f(loc, x, y, z, w) }

func (*GL41) Uniform3fv(loc int32, values []float32) {
	if len(values) == 0 {
		return
	}
	gl.Uniform3fv(loc, int32(len(values)/3), &values[0])
}

func (*GL41) GenTexture() uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	return tex
}

func (*GL41) ActiveTexture(unit int) { gl.ActiveTexture(gl.TEXTURE0 + uint32(unit)) }

func (*GL41) BindTexture2D(tex uint32) { gl.BindTexture(gl.TEXTURE_2D, tex) }

func (*GL41) TexImage2DRGBA(width, height int, pixels []byte) {
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height),
		0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
}

func (*GL41) TexImage2DRG32F(width, height int, pixels []float32) {
	var ptr unsafe.Pointer
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RG32F, int32(width), int32(height),
		0, gl.RG, gl.FLOAT, ptr)
}

func (*GL41) TexSubImage2DRG32F(width, height int, pixels []float32) {
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(width), int32(height),
		gl.RG, gl.FLOAT, gl.Ptr(pixels))
}

func (*GL41) TexParameteri(pname uint32, param int32) {
	gl.TexParameteri(gl.TEXTURE_2D, pname, param)
}

func (*GL41) DeleteTexture(tex uint32) { gl.DeleteTextures(1, &tex) }

func (*GL41) GenVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (*GL41) GenBuffer() uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	return vbo
}

func (*GL41) BindVertexArray(vao uint32) { gl.BindVertexArray(vao) }

func (*GL41) BindArrayBuffer(vbo uint32) { gl.BindBuffer(gl.ARRAY_BUFFER, vbo) }

func (*GL41) BufferDataFloat32(data []float32) {
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
}

func (*GL41) EnableVertexAttrib(index uint32, size, stride int32) {
	gl.EnableVertexAttribArray(index)
	gl.VertexAttribPointerWithOffset(index, size, gl.FLOAT, false, stride, 0)
}

func (*GL41) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }

func (*GL41) DeleteBuffer(vbo uint32) { gl.DeleteBuffers(1, &vbo) }

func (*GL41) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (*GL41) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (*GL41) Clear() { gl.Clear(gl.COLOR_BUFFER_BIT) }

func (*GL41) DrawArrays(mode uint32, first, count int32) {
	gl.DrawArrays(mode, first, count)
}

func (*GL41) ReadPixelsRGBA(x, y, width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

var _ Context = (*GL41)(nil)
