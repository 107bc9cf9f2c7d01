// Package ffmpegsink writes frame sequences to an MP4 file through an
// external ffmpeg process. Frames are piped as rawvideo rgb24 and encoded
// with libx264 into a yuv420p stream.
package ffmpegsink

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/user/revid/pkg/adapters/ffmpegsource"
	"github.com/user/revid/pkg/ports"
)

// ErrNotStarted is returned when frames are written before Begin.
var ErrNotStarted = errors.New("sink not started")

// Options configures the encoder subprocess.
type Options struct {
	// FFmpegPath overrides ffmpeg discovery when set.
	FFmpegPath string
	// CRF is the x264 constant rate factor. Zero selects the default of 18,
	// which is close to visually lossless and appropriate for inspecting
	// reconstruction output.
	CRF int
	// Preset is the x264 speed preset. Empty selects "fast".
	Preset string
}

// Sink encodes frames into an MP4 file at path.
type Sink struct {
	path string
	opts Options

	mu         sync.Mutex
	width      int
	height     int
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stderr     bytes.Buffer
	frameCount int
	closed     bool
}

// New creates a sink that will write to path when Begin is called.
func New(path string, opts Options) *Sink {
	return &Sink{path: path, opts: opts}
}

// Begin starts the ffmpeg process.
func (s *Sink) Begin(width, height int, fps float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if fps <= 0 {
		return fmt.Errorf("invalid fps %f", fps)
	}

	ffmpegPath, err := ffmpegsource.FindFFmpeg(s.opts.FFmpegPath)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	crf := s.opts.CRF
	if crf <= 0 {
		crf = 18
	}
	preset := s.opts.Preset
	if preset == "" {
		preset = "fast"
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprintf("%.4f", fps),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", fmt.Sprintf("%d", crf),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		s.path,
	}

	cmd := exec.Command(ffmpegPath, args...)
	cmd.Stderr = &s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	s.width = width
	s.height = height
	s.cmd = cmd
	s.stdin = stdin
	s.frameCount = 0
	s.closed = false

	return nil
}

// WriteFrame pipes a single frame to the encoder.
func (s *Sink) WriteFrame(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin == nil || s.closed {
		return ErrNotStarted
	}

	if _, err := s.stdin.Write(rgb24Bytes(img, s.width, s.height)); err != nil {
		return fmt.Errorf("write frame %d: %w\nstderr: %s", s.frameCount, err, s.stderr.String())
	}

	s.frameCount++
	return nil
}

// End closes the pipe and waits for ffmpeg to finalize the file.
func (s *Sink) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin == nil || s.closed {
		return ErrNotStarted
	}

	s.stdin.Close()
	s.stdin = nil
	s.closed = true

	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", err, s.stderr.String())
	}

	return nil
}

// rgb24Bytes flattens img into packed rgb24 rows at the given dimensions.
// Images smaller than the target are padded with black.
func rgb24Bytes(img image.Image, width, height int) []byte {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds() != image.Rect(0, 0, width, height) {
		canon := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(canon, canon.Bounds(), img, img.Bounds().Min, draw.Src)
		rgba = canon
	}

	buf := make([]byte, width*height*3)
	for i := 0; i < width*height; i++ {
		buf[i*3] = rgba.Pix[i*4]
		buf[i*3+1] = rgba.Pix[i*4+1]
		buf[i*3+2] = rgba.Pix[i*4+2]
	}
	return buf
}

var _ ports.VideoSink = (*Sink)(nil)
