// Package sample implements the frame sampling stage.
package sample

import (
	"context"
	"fmt"

	"github.com/user/revid/pkg/pipeline"
	"github.com/user/revid/pkg/ports"
)

// Stage picks frames from a video source at a fixed stride.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a new sample stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{
		logger: logger.WithComponent("sample"),
	}
}

// Execute probes the source, computes the frame indices and reads the frames.
func (s *Stage) Execute(ctx context.Context, input pipeline.SampleInput) (pipeline.SampleResult, error) {
	info, err := input.Source.Probe()
	if err != nil {
		return pipeline.SampleResult{}, fmt.Errorf("probe source: %w", err)
	}
	if info.TotalFrames <= 0 {
		return pipeline.SampleResult{}, fmt.Errorf("source has no frames")
	}

	indices, reduced := Indices(info.TotalFrames, input.NumFrames, input.SampleRate)
	if reduced {
		// Degraded input, not an error: the whole video is sampled with a
		// proportionally reduced frame count.
		s.logger.Warn("Short video: sampling %d of %d requested frames over %d total",
			len(indices), input.NumFrames, info.TotalFrames)
	}
	if len(indices) == 0 {
		return pipeline.SampleResult{}, fmt.Errorf("no frames to sample (total %d, requested %d x %d)",
			info.TotalFrames, input.NumFrames, input.SampleRate)
	}
	s.logger.Debug("Sampling %d frames from range [0,%d]", len(indices), indices[len(indices)-1])

	frames, err := input.Source.ReadFrames(ctx, indices)
	if err != nil {
		return pipeline.SampleResult{}, fmt.Errorf("read frames: %w", err)
	}

	return pipeline.SampleResult{
		Frames:  frames,
		Indices: indices,
		Info:    info,
		Reduced: reduced,
	}, nil
}

// Indices returns the frame indices to sample from a video with totalFrames
// frames. When the video covers the requested span (numFrames*sampleRate),
// numFrames indices are spaced evenly over [0, numFrames*sampleRate-1].
// Shorter videos are sampled across their whole range with the count reduced
// to floor(totalFrames/span*numFrames); the second return value reports the
// reduction.
//
// Indices are an integer linspace with inclusive endpoints. On very short
// videos the truncation can repeat an index; repeats are kept so the output
// frame count stays predictable.
func Indices(totalFrames, numFrames, sampleRate int) ([]int, bool) {
	span := numFrames * sampleRate
	if span <= 0 || totalFrames <= 0 {
		return nil, false
	}

	stop := span - 1
	n := numFrames
	reduced := false
	if totalFrames <= span {
		stop = totalFrames - 1
		n = totalFrames * numFrames / span
		reduced = true
	}

	if n <= 0 {
		return nil, reduced
	}
	if n == 1 {
		return []int{0}, reduced
	}

	indices := make([]int, n)
	for i := 0; i < n; i++ {
		indices[i] = int(float64(i) * float64(stop) / float64(n-1))
	}
	return indices, reduced
}
