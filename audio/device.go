// Package audio provides capture devices feeding the audio texture
// channel.
package audio

// We'll be using portaudio for audio input handling.
// macos:	brew install portaudio
// debian:	sudo apt-get install portaudio19-dev
// windows:	pacman -S mingw-w64-x86_64-portaudio

// Device is a producer of audio sample chunks.
type Device interface {
	// Start begins audio processing and returns a receive-only channel of
	// audio chunks.
	Start() (<-chan []float32, error)
	// Stop terminates the audio stream and closes the channel.
	Stop() error
	// SampleRate returns the sample rate of the device.
	SampleRate() int
}

// NullDevice produces silence. It is the fallback when no capture device
// can be opened, and the device of choice in tests.
type NullDevice struct {
	rate int
}

func NewNullDevice(sampleRate int) *NullDevice {
	return &NullDevice{rate: sampleRate}
}

// Start for NullDevice produces a channel that never sends anything. A
// nil channel blocks forever on receive, which reads as silence.
func (d *NullDevice) Start() (<-chan []float32, error) {
	return nil, nil
}

func (d *NullDevice) Stop() error { return nil }

func (d *NullDevice) SampleRate() int { return d.rate }
