// Package ffmpegsource decodes video files through an external ffmpeg
// process. Frames are streamed over a rawvideo rgb24 pipe and filtered
// down to the requested indices, so only one sequential decode pass is
// needed regardless of how many frames the caller samples.
package ffmpegsource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/user/revid/pkg/adapters/mp4probe"
	"github.com/user/revid/pkg/ports"
)

// Options configures binary discovery for a Source.
type Options struct {
	// FFmpegPath overrides ffmpeg discovery when set.
	FFmpegPath string
	// FFprobePath overrides ffprobe discovery when set.
	FFprobePath string
}

// Source reads frames from a single video file.
type Source struct {
	path    string
	ffmpeg  string
	ffprobe string
	info    *ports.SourceInfo
}

// New locates the ffmpeg and ffprobe binaries and prepares a source for path.
// No subprocess is spawned until Probe or ReadFrames is called.
func New(path string, opts Options) (*Source, error) {
	ffmpeg, err := FindFFmpeg(opts.FFmpegPath)
	if err != nil {
		return nil, err
	}
	ffprobe, err := FindFFprobe(opts.FFprobePath)
	if err != nil {
		return nil, err
	}

	return &Source{
		path:    path,
		ffmpeg:  ffmpeg,
		ffprobe: ffprobe,
	}, nil
}

// Probe returns the stream metadata. MP4 containers are parsed directly,
// which avoids an ffprobe launch; everything else goes through ffprobe.
// The result is cached for the lifetime of the source.
func (s *Source) Probe() (ports.SourceInfo, error) {
	if s.info != nil {
		return *s.info, nil
	}

	if strings.EqualFold(filepath.Ext(s.path), ".mp4") {
		if info, err := mp4probe.ProbeFile(s.path); err == nil {
			s.info = &info
			return info, nil
		}
	}

	info, err := probeWithFFprobe(context.Background(), s.ffprobe, s.path)
	if err != nil {
		return ports.SourceInfo{}, err
	}
	s.info = &info
	return info, nil
}

// ReadFrames decodes the file sequentially and returns the frames at the
// given ordered indices. Repeated indices yield the same frame multiple
// times. The decode stops as soon as the last wanted frame has been read.
func (s *Source) ReadFrames(ctx context.Context, indices []int) ([]image.Image, error) {
	if len(indices) == 0 {
		return nil, nil
	}
	if err := validateIndices(indices); err != nil {
		return nil, err
	}

	info, err := s.Probe()
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := []string{
		"-v", "error",
		"-i", s.path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	}
	cmd := exec.CommandContext(subCtx, s.ffmpeg, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	frames, readErr := readSelected(subCtx, stdout, info.Width, info.Height, indices)
	if readErr != nil {
		cancel()
		cmd.Wait()
		return nil, fmt.Errorf("decode %s: %w\nstderr: %s", s.path, readErr, stderr.String())
	}

	// All wanted frames are in hand. Stop the decoder without draining
	// the rest of the file.
	cancel()
	cmd.Wait()

	return frames, nil
}

// Close releases resources. The source holds no persistent process.
func (s *Source) Close() error {
	return nil
}

func validateIndices(indices []int) error {
	if indices[0] < 0 {
		return fmt.Errorf("negative frame index %d", indices[0])
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] < indices[i-1] {
			return fmt.Errorf("indices not in order: %d after %d", indices[i], indices[i-1])
		}
	}
	return nil
}

// readSelected consumes rgb24 frames from r one at a time, keeping those
// whose position matches the next wanted index.
func readSelected(ctx context.Context, r io.Reader, width, height int, indices []int) ([]image.Image, error) {
	frameSize := width * height * 3
	buf := make([]byte, frameSize)
	out := make([]image.Image, 0, len(indices))

	next := 0
	for frame := 0; next < len(indices); frame++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read frame %d: %w", frame, err)
		}

		if indices[next] == frame {
			img := rgb24ToImage(buf, width, height)
			for next < len(indices) && indices[next] == frame {
				out = append(out, img)
				next++
			}
		}
	}

	return out, nil
}

func rgb24ToImage(buf []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4] = buf[i*3]
		img.Pix[i*4+1] = buf[i*3+1]
		img.Pix[i*4+2] = buf[i*3+2]
		img.Pix[i*4+3] = 255
	}
	return img
}

var _ ports.VideoSource = (*Source)(nil)
