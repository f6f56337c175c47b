// Command shaderview previews an embedded-shader block in a window,
// captures thumbnails and records clips. It is the standalone host for
// the render core: it resolves directives, templates and texture
// locators the way a document renderer would, then hands everything to
// a session.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/fsnotify/fsnotify"
	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/shaderview/shaderview/encoder"
	"github.com/shaderview/shaderview/glfwcontext"
	"github.com/shaderview/shaderview/graphics"
	"github.com/shaderview/shaderview/inputs"
	"github.com/shaderview/shaderview/options"
	"github.com/shaderview/shaderview/renderer"
	"github.com/shaderview/shaderview/settings"
	"github.com/shaderview/shaderview/shader"
	"github.com/shaderview/shaderview/templates"
	"github.com/shaderview/shaderview/translator"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	var shaderFile = flag.String("shader", "", "Path to the shader block source")
	var templateName = flag.String("template", "", "Template name overriding the @template directive")
	var legacy = flag.Bool("legacy", false, "Use the legacy shading-language profile")
	var check = flag.Bool("check", false, "Validate the shader through the WebGL translator and exit")
	var record = flag.Bool("record", false, "Enable recording mode")
	var duration = flag.Float64("duration", 0, "Duration to record in seconds (0 uses settings)")
	var fps = flag.Int("fps", 0, "Frames per second for recording (0 uses settings)")
	var outputFile = flag.String("output", "output.mp4", "Output file name for recording")
	var ffmpegPath = flag.String("ffmpeg", "", "Path to ffmpeg executable")
	var settingsPath = flag.String("settings", "shaderview.toml", "Path to the settings file")
	flag.Parse()

	if *shaderFile == "" {
		fmt.Println("Shader block previewer/recorder")
		flag.PrintDefaults()
		return
	}

	sets, err := settings.Load(*settingsPath)
	if err != nil {
		log.Fatalf("Error loading settings: %v", err)
	}
	store := templates.NewStore(sets.TemplateDir)

	profile := shader.ProfileModern
	if *legacy {
		profile = shader.ProfileLegacy
	}

	// loadBlock re-reads the shader file so live reload picks up both
	// code and directive changes.
	loadBlock := func() (options.ShaderConfig, string, error) {
		src, err := os.ReadFile(*shaderFile)
		if err != nil {
			return options.ShaderConfig{}, "", fmt.Errorf("failed to read shader: %w", err)
		}
		cfg := options.ParseDirectives(string(src), options.Default())
		if *templateName != "" {
			cfg.Template = *templateName
		}
		userCode, err := store.Resolve(cfg.Template, string(src))
		if err != nil {
			return options.ShaderConfig{}, "", err
		}
		return cfg, userCode, nil
	}

	cfg, userCode, err := loadBlock()
	if err != nil {
		log.Fatalf("Error loading shader block: %v", err)
	}

	if *check {
		if _, err := translator.Check(shader.WrapFragmentWebGL(userCode)); err != nil {
			log.Fatalf("Shader validation failed: %v", err)
		}
		log.Printf("Shader validated OK: %s", *shaderFile)
		return
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		log.Fatalf("Failed to initialize GLFW: %v", err)
	}
	defer glfwcontext.TerminateGraphics()

	width, height := cfg.CanvasSize()
	win, err := glfwcontext.New(width, height, "shaderview", !*record)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	defer win.Shutdown()

	ctx, err := graphics.NewGL41()
	if err != nil {
		log.Fatalf("Failed to initialize OpenGL: %v", err)
	}

	registry := renderer.NewRegistry(sets.MaxSessions)
	defer registry.DestroyAll()
	queue := renderer.NewFrameQueue()

	build := func() (*renderer.Session, error) {
		cfg, userCode, err := loadBlock()
		if err != nil {
			return nil, err
		}
		sess, err := renderer.New(ctx, registry, queue, cfg)
		if err != nil {
			return nil, err
		}
		sess.SetSentinel(win.Sentinel())
		bindChannels(ctx, sess, cfg, sets)
		res := sess.Load(shader.WrapFragment(userCode, profile), profile)
		if !res.OK {
			sess.Destroy()
			return nil, fmt.Errorf("shader error:\n%s", res.Diagnostic)
		}
		return sess, nil
	}

	sess, err := build()
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	if *record {
		recFPS := *fps
		if recFPS <= 0 {
			recFPS = sets.Record.FPS
		}
		recDuration := *duration
		if recDuration <= 0 {
			recDuration = sets.Record.Duration
		}
		if err := recordClip(sess, *outputFile, width, height, recFPS, recDuration, *ffmpegPath); err != nil {
			log.Fatalf("Recording failed: %v", err)
		}
		log.Printf("Successfully recorded to %s", *outputFile)
		return
	}

	runInteractive(win, queue, sess, build, *shaderFile, cfg.Autoplay)
}

// bindChannels resolves the config's texture locators and starts their
// loads. Failed channels stay unbound; the shader samples black there.
func bindChannels(ctx graphics.Context, sess *renderer.Session, cfg options.ShaderConfig, sets settings.Settings) {
	for i, locator := range cfg.Channels {
		if locator == "" {
			continue
		}
		if locator == "mic" {
			ac, err := inputs.NewMicrophoneChannel(ctx)
			if err != nil {
				log.Printf("Channel %d: audio input unavailable: %v", i, err)
				continue
			}
			sess.Binder().SetDynamic(i, ac)
			continue
		}
		path := sets.ResolveTexture(locator)
		channel := i
		sess.Binder().LoadAsync(channel, func() ([]byte, error) {
			return os.ReadFile(path)
		})
	}
}

func recordClip(sess *renderer.Session, outputFile string, width, height, fps int, duration float64, ffmpegPath string) error {
	rec, err := encoder.NewRecorder(outputFile, width, height, fps, ffmpegPath)
	if err != nil {
		return err
	}

	totalFrames := int(duration * float64(fps))
	log.Printf("Recording %d frames at %d fps...", totalFrames, fps)
	for i := 0; i < totalFrames; i++ {
		t := float64(i) / float64(fps)
		if !sess.RenderAt(t) {
			rec.Close()
			return fmt.Errorf("render failed at frame %d", i)
		}
		if err := rec.WriteFrame(sess.FramePixels()); err != nil {
			rec.Close()
			return fmt.Errorf("failed to write frame %d: %w", i, err)
		}
	}
	return rec.Close()
}

func runInteractive(win *glfwcontext.Context, queue *renderer.FrameQueue, sess *renderer.Session, rebuild func() (*renderer.Session, error), shaderFile string, autoplay bool) {
	playback := renderer.NewPlayback(sess, rebuild)
	if autoplay {
		if err := playback.TogglePlayPause(); err != nil {
			log.Fatalf("Failed to start playback: %v", err)
		}
	} else {
		// Show the first frame as a still, the way an embedded viewer
		// presents its poster before the user hits play.
		sess.RenderAt(0)
		log.Printf("Paused; press space to play")
	}

	win.RegisterKeyCallback(glfw.KeySpace, func() {
		if err := playback.TogglePlayPause(); err != nil {
			log.Printf("Playback error: %v", err)
		}
	})
	win.RegisterKeyCallback(glfw.KeyX, func() {
		playback.Stop()
		log.Printf("Session stopped; press space to recreate")
	})
	win.RegisterKeyCallback(glfw.KeyS, func() {
		s := playback.Session()
		if s == nil {
			return
		}
		thumb := s.Thumbnail(s.Time(), 400, 0)
		if thumb == nil {
			log.Printf("Thumbnail capture failed")
			return
		}
		out := strings.TrimSuffix(shaderFile, ".glsl") + ".thumb.jpg"
		if err := os.WriteFile(out, thumb, 0o644); err != nil {
			log.Printf("Failed to write thumbnail: %v", err)
			return
		}
		log.Printf("Saved thumbnail to %s", out)
	})

	// Live reload: a write to the shader file tears the session down and
	// recreates it, the same stop-then-rebuild path a document re-render
	// takes.
	reload := make(chan struct{}, 1)
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if err := watcher.Add(shaderFile); err != nil {
			log.Printf("Cannot watch %s: %v", shaderFile, err)
		}
		defer watcher.Close()
		go func() {
			for event := range watcher.Events {
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					select {
					case reload <- struct{}{}:
					default:
					}
				}
			}
		}()
	}

	for !win.ShouldClose() {
		select {
		case <-reload:
			log.Printf("Shader changed, reloading...")
			playback.Stop()
			if err := playback.TogglePlayPause(); err != nil {
				log.Printf("Reload failed: %v", err)
			}
		default:
		}

		if s := playback.Session(); s != nil {
			win.FeedMouse(s)
		}
		queue.RunFrame()
		win.EndFrame()
	}
}
