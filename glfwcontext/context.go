// Package glfwcontext is the windowed host for render sessions: it owns
// the GLFW window, pumps the frame queue, feeds pointer input into the
// Shadertoy mouse model and maps window close onto the lifecycle
// sentinel.
package glfwcontext

import (
	"log"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/shaderview/shaderview/renderer"
)

// Context wraps one GLFW window hosting one session.
type Context struct {
	window       *glfw.Window
	keyCallbacks map[glfw.Key]func()
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts GLFW down. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}

// New creates a GL 4.1 core-profile window and makes its context
// current. Hidden windows serve record mode.
func New(width, height int, title string, visible bool) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[glfw.Key]func()),
	}
	win.SetKeyCallback(c.glfwKeyCallback)
	win.MakeContextCurrent()
	return c, nil
}

// RegisterKeyCallback runs f when key is pressed.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
	if action == glfw.Press {
		if callback, ok := c.keyCallbacks[key]; ok {
			callback()
		}
	}
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

// EndFrame presents the frame and pumps window events.
func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) FramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

// FeedMouse samples the cursor and primary button and pushes one pointer
// event into the session, rescaled to its internal canvas space with Y
// pointing up.
func (c *Context) FeedMouse(s *renderer.Session) {
	if c.window == nil || s == nil {
		return
	}
	winWidth, winHeight := c.window.GetSize()
	if winWidth <= 0 || winHeight <= 0 {
		return
	}
	canvasW, canvasH := s.Size()

	cursorX, cursorY := c.window.GetCursorPos()
	x := float32(cursorX * float64(canvasW) / float64(winWidth))
	y := float32(canvasH) - float32(cursorY*float64(canvasH)/float64(winHeight))
	down := c.window.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press
	inBounds := cursorX >= 0 && cursorY >= 0 &&
		cursorX < float64(winWidth) && cursorY < float64(winHeight)

	s.SetMouseState(x, y, down, inBounds)
}

// Sentinel returns a lifecycle sentinel that fires when the user closes
// the window, this host's equivalent of a mount point disappearing.
func (c *Context) Sentinel() renderer.Sentinel {
	return &windowSentinel{window: c.window}
}

// Shutdown destroys the window.
func (c *Context) Shutdown() {
	c.window.Destroy()
}

type windowSentinel struct {
	window *glfw.Window
}

func (s *windowSentinel) OnGone(fn func()) {
	s.window.SetCloseCallback(func(*glfw.Window) { fn() })
}

func (s *windowSentinel) Close() {
	if s.window != nil {
		s.window.SetCloseCallback(nil)
		s.window = nil
	}
}
