package shader

import (
	"strings"

	"github.com/shaderview/shaderview/graphics"
)

// CompileResult reports the outcome of compiling and linking a program.
// Exactly one of Program/Diagnostic is meaningful, selected by OK.
type CompileResult struct {
	OK         bool
	Program    uint32
	Diagnostic string
}

// Compiler builds linked GPU programs from wrapped fragment sources. The
// vertex stage is always the fixed quad pass-through for the profile.
type Compiler struct {
	ctx graphics.Context
}

func NewCompiler(ctx graphics.Context) *Compiler {
	return &Compiler{ctx: ctx}
}

// Compile compiles the vertex and fragment stages independently, links
// them, and returns either the program or a stage-prefixed diagnostic.
// No GPU objects survive a failure: a failed stage is deleted before
// returning, and a failed link deletes the partially-built program.
// On success only the linked program is retained.
func (c *Compiler) Compile(fragmentSource string, p Profile) CompileResult {
	vs, diag := c.compileStage(VertexSource(p), graphics.VertexShader)
	if diag != "" {
		return CompileResult{Diagnostic: "vertex: " + diag}
	}
	fs, diag := c.compileStage(fragmentSource, graphics.FragmentShader)
	if diag != "" {
		c.ctx.DeleteShader(vs)
		return CompileResult{Diagnostic: "fragment: " + diag}
	}

	program := c.ctx.CreateProgram()
	c.ctx.AttachShader(program, vs)
	c.ctx.AttachShader(program, fs)
	linked := c.ctx.LinkProgram(program)
	c.ctx.DeleteShader(vs)
	c.ctx.DeleteShader(fs)
	if !linked {
		diag := scrub(c.ctx.ProgramInfoLog(program))
		c.ctx.DeleteProgram(program)
		if diag == "" {
			diag = "program link failed"
		}
		return CompileResult{Diagnostic: "link: " + diag}
	}

	return CompileResult{OK: true, Program: program}
}

func (c *Compiler) compileStage(source string, stage uint32) (uint32, string) {
	sh := c.ctx.CreateShader(stage)
	c.ctx.ShaderSource(sh, source)
	if !c.ctx.CompileShader(sh) {
		diag := scrub(c.ctx.ShaderInfoLog(sh))
		c.ctx.DeleteShader(sh)
		if diag == "" {
			diag = "shader compilation failed"
		}
		return 0, diag
	}
	return sh, ""
}

// scrub strips ASCII control characters (keeping newlines) and trims the
// result. Driver info logs routinely carry NULs and other garbage bytes
// that corrupt display downstream.
func scrub(log string) string {
	var b strings.Builder
	b.Grow(len(log))
	for _, r := range log {
		if r == '\n' || r == '\r' || (r >= 0x20 && r != 0x7f) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
