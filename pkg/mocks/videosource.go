package mocks

import (
	"context"
	"fmt"
	"image"

	"github.com/user/revid/pkg/ports"
)

// VideoSource is a mock implementation of ports.VideoSource. Without an
// override it serves synthetic gray frames for any in-range index.
type VideoSource struct {
	Info ports.SourceInfo

	ProbeFunc      func() (ports.SourceInfo, error)
	ReadFramesFunc func(ctx context.Context, indices []int) ([]image.Image, error)

	// Recorded calls for verification
	ReadFramesCalls [][]int
	Closed          bool
}

// NewVideoSource creates a mock source with the given geometry.
func NewVideoSource(totalFrames, width, height int, fps float64) *VideoSource {
	return &VideoSource{
		Info: ports.SourceInfo{
			TotalFrames: totalFrames,
			Width:       width,
			Height:      height,
			FPS:         fps,
		},
	}
}

func (m *VideoSource) Probe() (ports.SourceInfo, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc()
	}
	return m.Info, nil
}

func (m *VideoSource) ReadFrames(ctx context.Context, indices []int) ([]image.Image, error) {
	m.ReadFramesCalls = append(m.ReadFramesCalls, append([]int(nil), indices...))
	if m.ReadFramesFunc != nil {
		return m.ReadFramesFunc(ctx, indices)
	}
	frames := make([]image.Image, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= m.Info.TotalFrames {
			return nil, fmt.Errorf("index %d out of range [0,%d)", idx, m.Info.TotalFrames)
		}
		img := image.NewRGBA(image.Rect(0, 0, m.Info.Width, m.Info.Height))
		// Encode the frame index into the red channel so tests can tell
		// frames apart.
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i] = uint8(idx)
			img.Pix[i+3] = 0xff
		}
		frames = append(frames, img)
	}
	return frames, nil
}

func (m *VideoSource) Close() error {
	m.Closed = true
	return nil
}

var _ ports.VideoSource = (*VideoSource)(nil)
