package inputs

import (
	"fmt"
	"log"
	"math"
	"sync"

	math32 "github.com/chewxy/math32"
	fft "github.com/mjibson/go-dsp/fft"

	"github.com/shaderview/shaderview/audio"
	"github.com/shaderview/shaderview/graphics"
)

const (
	audioTextureWidth  = 512
	audioTextureHeight = 2
	// Shadertoy uses an fftSize of 2048, which gives 1024 frequency bins.
	fftInputSize      = 2048
	historyBufferSize = fftInputSize * 4
)

// AudioChannel is a dynamic channel slot fed by an audio capture device.
// Row 0 of its 512x2 texture holds the smoothed frequency spectrum, row 1
// the most recent waveform segment, matching Shadertoy's mic input.
type AudioChannel struct {
	ctx       graphics.Context
	textureID uint32
	device    audio.Device

	mutex         sync.Mutex
	historyBuffer []float32
	bufferPos     int

	textureData []float32

	// Temporal smoothing of spectrum bins, in dB space.
	lastFFT         []float32
	smoothingFactor float32
}

// NewAudioChannel creates the texture and starts consuming from device.
// Must be called on the GL thread.
func NewAudioChannel(ctx graphics.Context, device audio.Device) (*AudioChannel, error) {
	textureID := ctx.GenTexture()
	ctx.BindTexture2D(textureID)
	ctx.TexParameteri(graphics.TextureMinFilter, graphics.Linear)
	ctx.TexParameteri(graphics.TextureMagFilter, graphics.Linear)
	ctx.TexParameteri(graphics.TextureWrapS, graphics.Repeat)
	ctx.TexParameteri(graphics.TextureWrapT, graphics.Repeat)
	ctx.TexImage2DRG32F(audioTextureWidth, audioTextureHeight, nil)
	ctx.BindTexture2D(0)

	ac := &AudioChannel{
		ctx:             ctx,
		textureID:       textureID,
		device:          device,
		historyBuffer:   make([]float32, historyBufferSize),
		textureData:     make([]float32, audioTextureWidth*audioTextureHeight*2),
		lastFFT:         make([]float32, audioTextureWidth),
		smoothingFactor: 0.8,
	}

	audioChan, err := device.Start()
	if err != nil {
		ctx.DeleteTexture(textureID)
		return nil, fmt.Errorf("could not start audio device: %w", err)
	}
	go ac.listen(audioChan)

	return ac, nil
}

// NewMicrophoneChannel opens the default microphone, falling back to a
// silent device when capture is unavailable.
func NewMicrophoneChannel(ctx graphics.Context) (*AudioChannel, error) {
	mic, err := audio.NewMicrophone(44100)
	if err != nil {
		log.Printf("Could not initialize microphone: %v. Using silent fallback.", err)
		return NewAudioChannel(ctx, audio.NewNullDevice(44100))
	}
	return NewAudioChannel(ctx, mic)
}

func (c *AudioChannel) listen(audioChan <-chan []float32) {
	for samples := range audioChan {
		c.mutex.Lock()
		for _, sample := range samples {
			c.historyBuffer[c.bufferPos] = sample
			c.bufferPos = (c.bufferPos + 1) % historyBufferSize
		}
		c.mutex.Unlock()
	}
}

func (c *AudioChannel) recentSamples(numSamples int) []float32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	out := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		index := (c.bufferPos - numSamples + i + historyBufferSize) % historyBufferSize
		out[i] = c.historyBuffer[index]
	}
	return out
}

// Update recomputes both texture rows and uploads them. Runs once per
// rendered frame on the GL thread.
func (c *AudioChannel) Update() {
	const minDecibels = float32(-100.0)
	const maxDecibels = float32(-30.0)

	samples := c.recentSamples(fftInputSize)
	window := blackmanWindow(fftInputSize)
	samples64 := make([]float64, fftInputSize)
	for i, s := range samples {
		samples64[i] = float64(s) * window[i]
	}

	fftResult := fft.FFTReal(samples64)

	// Only the first 512 bins feed the 512px spectrum row.
	for i := 0; i < audioTextureWidth; i++ {
		re := real(fftResult[i])
		im := imag(fftResult[i])
		magnitude := float32(math.Sqrt(re*re+im*im) * (2.0 / float64(fftInputSize)))

		db := 20 * math32.Log10(magnitude+1e-9)
		c.lastFFT[i] = c.smoothingFactor*c.lastFFT[i] + (1.0-c.smoothingFactor)*db
		scaled := (c.lastFFT[i] - minDecibels) / (maxDecibels - minDecibels)
		scaled = math32.Max(0, math32.Min(1, scaled))

		c.textureData[i*2] = scaled
		c.textureData[i*2+1] = 0.0
	}

	// Most recent 512 samples become the waveform row, rescaled to [0,1].
	waveSegment := samples[len(samples)-audioTextureWidth:]
	for i := 0; i < audioTextureWidth; i++ {
		c.textureData[(audioTextureWidth+i)*2] = (waveSegment[i] + 1.0) * 0.5
		c.textureData[(audioTextureWidth+i)*2+1] = 0.0
	}

	c.ctx.BindTexture2D(c.textureID)
	c.ctx.TexSubImage2DRG32F(audioTextureWidth, audioTextureHeight, c.textureData)
	c.ctx.BindTexture2D(0)
}

func (c *AudioChannel) TextureID() uint32 { return c.textureID }

func (c *AudioChannel) Resolution() [3]float32 {
	return [3]float32{audioTextureWidth, audioTextureHeight, 0}
}

// Destroy stops the device, which closes the channel and ends the
// listener goroutine, then deletes the texture.
func (c *AudioChannel) Destroy() {
	if c.device != nil {
		if err := c.device.Stop(); err != nil {
			log.Printf("audio device stop: %v", err)
		}
		c.device = nil
		c.ctx.DeleteTexture(c.textureID)
	}
}

// blackmanWindow generates a Blackman window, as used by Shadertoy.
func blackmanWindow(size int) []float64 {
	window := make([]float64, size)
	a0 := 0.42
	a1 := 0.5
	a2 := 0.08
	invSize := 1.0 / float64(size-1)
	for i := range window {
		t := float64(i) * invSize
		window[i] = a0 - (a1 * math.Cos(2*math.Pi*t)) + (a2 * math.Cos(4*math.Pi*t))
	}
	return window
}

var _ Dynamic = (*AudioChannel)(nil)
