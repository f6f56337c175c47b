// Package graphics narrows the GL surface the render core touches to a
// single interface, so sessions can run against a desktop GL 4.1 context
// or against the recording fake in grtest.
package graphics

// Enum values mirror their OpenGL counterparts so the GL backend can pass
// them straight through.
const (
	VertexShader   uint32 = 0x8B31
	FragmentShader uint32 = 0x8B30

	TextureWrapS     uint32 = 0x2802
	TextureWrapT     uint32 = 0x2803
	TextureMinFilter uint32 = 0x2801
	TextureMagFilter uint32 = 0x2800

	Repeat int32 = 0x2901
	Linear int32 = 0x2601

	TriangleStrip uint32 = 0x0005
)

// Context is the GL call surface a render session needs. All calls must be
// made from the thread that owns the underlying context.
type Context interface {
	// Shader stage objects.
	CreateShader(stage uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32) bool
	ShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	// Programs.
	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32) bool
	ProgramInfoLog(program uint32) string
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	UniformLocation(program uint32, name string) int32

	// Uniform uploads.
	Uniform1f(loc int32, v float32)
	Uniform1i(loc int32, v int32)
	Uniform3f(loc int32, x, y, z float32)
	Uniform4f(loc int32, x, y, z, w float32)
	Uniform3fv(loc int32, values []float32)

	// 2D textures.
	GenTexture() uint32
	ActiveTexture(unit int)
	BindTexture2D(tex uint32)
	TexImage2DRGBA(width, height int, pixels []byte)
	TexImage2DRG32F(width, height int, pixels []float32)
	TexSubImage2DRG32F(width, height int, pixels []float32)
	TexParameteri(pname uint32, param int32)
	DeleteTexture(tex uint32)

	// Full-screen quad geometry.
	GenVertexArray() uint32
	GenBuffer() uint32
	BindVertexArray(vao uint32)
	BindArrayBuffer(vbo uint32)
	BufferDataFloat32(data []float32)
	EnableVertexAttrib(index uint32, size, stride int32)
	DeleteVertexArray(vao uint32)
	DeleteBuffer(vbo uint32)

	// Framebuffer state and drawing.
	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	Clear()
	DrawArrays(mode uint32, first, count int32)
	ReadPixelsRGBA(x, y, width, height int) []byte
}
