// Package encoder records rendered frames to a video file by piping raw
// RGBA through ffmpeg.
package encoder

import (
	"fmt"
	"io"
	"log"
	"os/exec"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Recorder accepts top-down RGBA frames of a fixed size and writes an
// H.264 clip. Close flushes and waits for ffmpeg to finish.
type Recorder struct {
	cmd       *exec.Cmd
	pipe      io.WriteCloser
	frameSize int
	done      chan error
}

func NewRecorder(outputFile string, width, height, fps int, ffmpegPath string) (*Recorder, error) {
	if width <= 0 || height <= 0 || fps <= 0 {
		return nil, fmt.Errorf("invalid recording geometry %dx%d@%d", width, height, fps)
	}

	pipeReader, pipeWriter := io.Pipe()

	stream := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", width, height),
		"r":       fps,
	}).Output(outputFile, ffmpeg.KwArgs{
		"c:v":     "libx264",
		"pix_fmt": "yuv420p",
		"r":       fps,
	}).OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if ffmpegPath != "" {
		stream.SetFfmpegPath(ffmpegPath)
	}

	r := &Recorder{
		cmd:       stream.Compile(),
		pipe:      pipeWriter,
		frameSize: width * height * 4,
		done:      make(chan error, 1),
	}

	if err := r.cmd.Start(); err != nil {
		pipeWriter.Close()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	go func() {
		err := r.cmd.Wait()
		if err != nil {
			log.Printf("ffmpeg exited with error: %v", err)
		}
		r.done <- err
	}()

	return r, nil
}

// WriteFrame sends one RGBA frame to the encoder.
func (r *Recorder) WriteFrame(pixels []byte) error {
	if len(pixels) != r.frameSize {
		return fmt.Errorf("frame is %d bytes, want %d", len(pixels), r.frameSize)
	}
	_, err := r.pipe.Write(pixels)
	return err
}

// Close ends the input stream and waits for the encode to complete.
func (r *Recorder) Close() error {
	r.pipe.Close()
	return <-r.done
}
