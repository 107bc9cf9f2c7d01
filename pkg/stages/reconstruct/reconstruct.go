// Package reconstruct implements the chunked codec driver: it partitions a
// frame sequence into overlapping windows, runs the codec on each window and
// cross-fades the overlap regions into one continuous output.
package reconstruct

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/revid/pkg/pipeline"
	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/tensor"
)

// Blend weights for the seam cross-fade. The window that produced the region
// with more lookahead context dominates. Fixed contract values; changing them
// changes output parity.
const (
	blendPrevious = 0.25
	blendCurrent  = 0.75
)

// ErrInvalidChunking reports a chunk size/overlap combination that the
// codec's temporal compression cannot window.
var ErrInvalidChunking = errors.New("invalid chunking configuration")

// Stage drives the codec over overlapping windows.
type Stage struct {
	codec  ports.Codec
	logger ports.Logger
}

// NewStage creates a new reconstruct stage.
func NewStage(codec ports.Codec, logger ports.Logger) *Stage {
	return &Stage{
		codec:  codec,
		logger: logger.WithComponent("reconstruct"),
	}
}

// ValidateChunking checks the window precondition
// (chunkSize + overlap - 1) mod tc == 0. A violation is a configuration
// error: it must abort the run before any codec work starts.
func ValidateChunking(chunkSize, overlap, tc int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunking, chunkSize)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap %d must not be negative", ErrInvalidChunking, overlap)
	}
	if tc <= 0 {
		return fmt.Errorf("%w: temporal compression %d must be positive", ErrInvalidChunking, tc)
	}
	if (chunkSize+overlap-1)%tc != 0 {
		return fmt.Errorf("%w: (chunk %d + overlap %d - 1) mod %d = %d, want 0",
			ErrInvalidChunking, chunkSize, overlap, tc, (chunkSize+overlap-1)%tc)
	}
	return nil
}

// ComputePlan returns the window ranges the driver will process for a
// sequence of the given length. A window is extended by the overlap when more
// than overlap frames remain beyond it, so the blend region of the next
// window is produced with temporal context.
func ComputePlan(total, chunkSize, overlap int) []pipeline.Window {
	var plan []pipeline.Window
	for start := 0; start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}
		extended := start+chunkSize+overlap < total
		if extended {
			end += overlap
		}
		plan = append(plan, pipeline.Window{Start: start, End: end, Extended: extended})
	}
	return plan
}

// Execute reconstructs the input sequence window by window.
//
// The reconstruction buffer is kept as two slots: finalized chunks (append
// only) and a pending tail, the only element still open for blending. When a
// new window arrives, the tail's last frames are cross-faded with the
// window's leading frames, the merged tail is finalized, and the window's
// contribution becomes the new tail.
func (s *Stage) Execute(ctx context.Context, input pipeline.ReconstructInput) (pipeline.ReconstructResult, error) {
	if err := ValidateChunking(input.ChunkSize, input.Overlap, s.codec.TemporalCompression()); err != nil {
		return pipeline.ReconstructResult{}, err
	}

	total := input.Video.T
	if total == 0 {
		return pipeline.ReconstructResult{}, fmt.Errorf("empty frame sequence")
	}

	plan := ComputePlan(total, input.ChunkSize, input.Overlap)
	s.logger.Debug("Reconstructing %d frames in %d windows", total, len(plan))

	var done []tensor.Tensor
	var tail tensor.Tensor
	haveTail := false
	seams := 0

	for _, win := range plan {
		select {
		case <-ctx.Done():
			return pipeline.ReconstructResult{}, ctx.Err()
		default:
		}

		recon, err := s.runWindow(input.Video, win)
		if err != nil {
			return pipeline.ReconstructResult{}, err
		}

		if !haveTail {
			tail = recon
			haveTail = true
			continue
		}

		// Cross-fade the seam. The blend span never exceeds either side, so
		// short final windows blend what they have.
		step := input.Overlap
		if recon.T < step {
			step = recon.T
		}
		if tail.T < step {
			step = tail.T
		}
		blended := blend(tail.SliceTime(tail.T-step, tail.T), recon.SliceTime(0, step))
		merged, err := tensor.ConcatTime(tail.SliceTime(0, tail.T-input.Overlap), blended)
		if err != nil {
			return pipeline.ReconstructResult{}, fmt.Errorf("merge seam: %w", err)
		}
		done = append(done, merged)
		seams++

		if win.End < total {
			// The leading overlap was already contributed by the previous
			// window's lookahead extension.
			tail = recon.SliceTime(input.Overlap, recon.T)
		} else {
			tail = recon
		}
	}

	output, err := tensor.ConcatTime(append(done, tail)...)
	if err != nil {
		return pipeline.ReconstructResult{}, fmt.Errorf("concatenate chunks: %w", err)
	}
	s.logger.Debug("Blended %d seams", seams)

	return pipeline.ReconstructResult{
		Video: output,
		Plan:  plan,
		Seams: seams,
	}, nil
}

// runWindow slices one window and passes it through encode, sample, decode.
// Codec failures propagate unmodified; there is no retry.
func (s *Stage) runWindow(video tensor.Tensor, win pipeline.Window) (tensor.Tensor, error) {
	chunk := video.SliceTime(win.Start, win.End)
	latents, err := s.codec.Encode(chunk)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("encode window [%d,%d): %w", win.Start, win.End, err)
	}
	recon, err := s.codec.Decode(latents.Sample())
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("decode window [%d,%d): %w", win.Start, win.End, err)
	}
	return recon, nil
}

// blend cross-fades two equally shaped regions with the fixed seam weights.
func blend(prev, cur tensor.Tensor) tensor.Tensor {
	out := cur.Clone()
	for i := range out.Data {
		out.Data[i] = prev.Data[i]*blendPrevious + cur.Data[i]*blendCurrent
	}
	return out
}
