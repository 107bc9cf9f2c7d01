package mocks

import (
	"image"

	"github.com/user/revid/pkg/ports"
)

// VideoSink is a mock implementation of ports.VideoSink.
type VideoSink struct {
	BeginFunc      func(width, height int, fps float64) error
	WriteFrameFunc func(img image.Image) error
	EndFunc        func() error

	// Recorded calls for verification
	BeginCalled bool
	Width       int
	Height      int
	FPS         float64
	Frames      []image.Image
	EndCalled   bool
}

func (m *VideoSink) Begin(width, height int, fps float64) error {
	m.BeginCalled = true
	m.Width = width
	m.Height = height
	m.FPS = fps
	if m.BeginFunc != nil {
		return m.BeginFunc(width, height, fps)
	}
	return nil
}

func (m *VideoSink) WriteFrame(img image.Image) error {
	m.Frames = append(m.Frames, img)
	if m.WriteFrameFunc != nil {
		return m.WriteFrameFunc(img)
	}
	return nil
}

func (m *VideoSink) End() error {
	m.EndCalled = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	return nil
}

var _ ports.VideoSink = (*VideoSink)(nil)
