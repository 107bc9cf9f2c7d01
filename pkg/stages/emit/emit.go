// Package emit implements the video emission stage.
package emit

import (
	"context"
	"fmt"

	"github.com/user/revid/pkg/pipeline"
	"github.com/user/revid/pkg/ports"
)

// Stage writes a reconstructed video tensor to a video sink.
type Stage struct {
	sink   ports.VideoSink
	logger ports.Logger
}

// NewStage creates a new emit stage.
func NewStage(sink ports.VideoSink, logger ports.Logger) *Stage {
	return &Stage{
		sink:   sink,
		logger: logger.WithComponent("emit"),
	}
}

// Execute converts each frame of the tensor to an image and writes it to the
// sink. Values are clamped to [-1, 1] and mapped back to display range.
func (s *Stage) Execute(ctx context.Context, input pipeline.EmitInput) (pipeline.EmitResult, error) {
	result := pipeline.EmitResult{}

	if input.Video.T == 0 {
		return result, fmt.Errorf("no frames to emit")
	}
	if input.FPS <= 0 {
		return result, fmt.Errorf("invalid frame rate: %v", input.FPS)
	}

	width := input.Video.W
	height := input.Video.H

	if err := s.sink.Begin(width, height, input.FPS); err != nil {
		return result, fmt.Errorf("begin emission: %w", err)
	}

	for t := 0; t < input.Video.T; t++ {
		select {
		case <-ctx.Done():
			// The sink still has to be closed so the encoder is reaped.
			s.sink.End()
			return result, ctx.Err()
		default:
		}

		if err := s.sink.WriteFrame(input.Video.FrameImage(t)); err != nil {
			s.sink.End()
			return result, fmt.Errorf("write frame %d: %w", t, err)
		}
	}

	if err := s.sink.End(); err != nil {
		return result, fmt.Errorf("end emission: %w", err)
	}

	result.FrameCount = input.Video.T
	result.Width = width
	result.Height = height
	result.FPS = input.FPS

	return result, nil
}
