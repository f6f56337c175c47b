// Package inputs manages the four texture channel slots a shader may
// sample, plus dynamic inputs whose texture contents change every frame.
package inputs

import (
	"bytes"
	"image"
	"image/draw"
	"log"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/shaderview/shaderview/graphics"
)

// NumChannels is the number of iChannel slots a shader may sample.
const NumChannels = 4

// Dynamic is an input whose texture is refreshed each frame (audio
// spectrum, for example) rather than uploaded once.
type Dynamic interface {
	Update()
	TextureID() uint32
	Resolution() [3]float32
	Destroy()
}

type slot struct {
	tex uint32
	res [3]float32
	set bool
	dyn Dynamic
}

type pendingUpload struct {
	channel int
	rgba    *image.RGBA
	done    chan bool
}

// Binder owns the GPU textures for one session's channel slots. Textures
// are never shared across sessions, even for identical source bytes.
type Binder struct {
	ctx   graphics.Context
	slots [NumChannels]slot

	mu        sync.Mutex
	pending   []pendingUpload
	destroyed bool
}

func NewBinder(ctx graphics.Context) *Binder {
	return &Binder{ctx: ctx}
}

// Load decodes data and uploads it into the given channel slot. It
// reports false, leaving the slot unset, on any failure; a broken
// texture is never partially bound. Must be called on the GL thread.
func (b *Binder) Load(channel int, data []byte) bool {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("channel %d: texture decode failed: %v", channel, err)
		return false
	}
	return b.LoadImage(channel, img)
}

// LoadImage uploads an already-decoded image into the given channel slot.
func (b *Binder) LoadImage(channel int, img image.Image) bool {
	if channel < 0 || channel >= NumChannels || img == nil || b.destroyed {
		return false
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	b.upload(channel, vflip(rgba))
	return true
}

// upload creates the texture object for a slot, replacing any previous
// one. The image is expected to be pre-flipped so V=0 samples the visual
// bottom, per the Shadertoy convention.
func (b *Binder) upload(channel int, rgba *image.RGBA) {
	s := &b.slots[channel]
	if s.set {
		b.ctx.DeleteTexture(s.tex)
	}

	width := rgba.Rect.Dx()
	height := rgba.Rect.Dy()

	tex := b.ctx.GenTexture()
	b.ctx.BindTexture2D(tex)
	b.ctx.TexParameteri(graphics.TextureWrapS, graphics.Repeat)
	b.ctx.TexParameteri(graphics.TextureWrapT, graphics.Repeat)
	b.ctx.TexParameteri(graphics.TextureMinFilter, graphics.Linear)
	b.ctx.TexParameteri(graphics.TextureMagFilter, graphics.Linear)
	b.ctx.TexImage2DRGBA(width, height, rgba.Pix)
	b.ctx.BindTexture2D(0)

	s.tex = tex
	s.res = [3]float32{float32(width), float32(height), 1.0}
	s.set = true
	s.dyn = nil
}

// LoadAsync fetches and decodes off the GL thread, then queues the upload
// for the next Flush. The returned channel resolves exactly once: false
// on fetch/decode failure, true after the upload lands.
func (b *Binder) LoadAsync(channel int, fetch func() ([]byte, error)) <-chan bool {
	done := make(chan bool, 1)
	if channel < 0 || channel >= NumChannels {
		done <- false
		return done
	}
	go func() {
		data, err := fetch()
		if err != nil {
			log.Printf("channel %d: texture fetch failed: %v", channel, err)
			done <- false
			return
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			log.Printf("channel %d: texture decode failed: %v", channel, err)
			done <- false
			return
		}
		rgba := image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.destroyed {
			done <- false
			return
		}
		b.pending = append(b.pending, pendingUpload{channel: channel, rgba: vflip(rgba), done: done})
	}()
	return done
}

// Flush performs queued uploads. Called at frame boundaries on the GL
// thread so decode goroutines never touch the context.
func (b *Binder) Flush() {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	destroyed := b.destroyed
	b.mu.Unlock()

	for _, p := range pending {
		if destroyed {
			p.done <- false
			continue
		}
		b.upload(p.channel, p.rgba)
		p.done <- true
	}
}

// SetDynamic routes a channel slot to a per-frame input. The binder does
// not own the dynamic's texture but destroys the dynamic on teardown.
func (b *Binder) SetDynamic(channel int, d Dynamic) {
	if channel < 0 || channel >= NumChannels {
		return
	}
	s := &b.slots[channel]
	if s.set {
		b.ctx.DeleteTexture(s.tex)
		s.tex = 0
	}
	s.set = d != nil
	s.dyn = d
	s.res = [3]float32{}
}

// Resolution returns the slot's (width, height, 1) triple, or zeros when
// the slot is unbound.
func (b *Binder) Resolution(channel int) [3]float32 {
	if channel < 0 || channel >= NumChannels {
		return [3]float32{}
	}
	s := b.slots[channel]
	if s.dyn != nil {
		return s.dyn.Resolution()
	}
	return s.res
}

// Bind activates texture units 0-3 for the set slots and uploads the
// sampler uniforms. Unbound channels are left untouched. When withRes is
// set and the location is live, the full four-entry resolution array is
// uploaded as well.
func (b *Binder) Bind(samplers [NumChannels]int32, resolutionLoc int32, withRes bool) {
	for i := range b.slots {
		s := &b.slots[i]
		if !s.set {
			continue
		}
		tex := s.tex
		if s.dyn != nil {
			s.dyn.Update()
			tex = s.dyn.TextureID()
		}
		b.ctx.ActiveTexture(i)
		b.ctx.BindTexture2D(tex)
		if samplers[i] != -1 {
			b.ctx.Uniform1i(samplers[i], int32(i))
		}
	}
	if withRes && resolutionLoc != -1 {
		flat := make([]float32, 0, NumChannels*3)
		for i := 0; i < NumChannels; i++ {
			res := b.Resolution(i)
			flat = append(flat, res[0], res[1], res[2])
		}
		b.ctx.Uniform3fv(resolutionLoc, flat)
	}
}

// Destroy deletes every texture the binder owns and resolves outstanding
// loads with false. Safe to call more than once.
func (b *Binder) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, p := range pending {
		p.done <- false
	}
	for i := range b.slots {
		s := &b.slots[i]
		if s.dyn != nil {
			s.dyn.Destroy()
		} else if s.set {
			b.ctx.DeleteTexture(s.tex)
		}
		*s = slot{}
	}
}

// vflip flips rows so shader-space V=0 lands on the visual bottom.
func vflip(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	flipped := image.NewRGBA(bounds)
	height := bounds.Dy()
	rowSize := bounds.Dx() * 4
	for y := 0; y < height; y++ {
		srcRow := src.Pix[((height-1)-y)*src.Stride:]
		dstRow := flipped.Pix[y*flipped.Stride:]
		copy(dstRow, srcRow[:rowSize])
	}
	return flipped
}
