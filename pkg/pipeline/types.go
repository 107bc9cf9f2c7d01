package pipeline

import (
	"image"

	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/tensor"
)

// =============================================================================
// Sample Stage Types
// =============================================================================

// SampleInput contains parameters for frame sampling.
type SampleInput struct {
	Source     ports.VideoSource
	NumFrames  int // Requested number of frames (default: 17)
	SampleRate int // Stride between source frames (default: 1)
}

// DefaultSampleInput returns SampleInput with default values.
func DefaultSampleInput() SampleInput {
	return SampleInput{
		NumFrames:  17,
		SampleRate: 1,
	}
}

// SampleResult contains the sampled frames.
type SampleResult struct {
	Frames  []image.Image
	Indices []int
	Info    ports.SourceInfo

	// Reduced is true when the video was shorter than the requested span
	// and the effective frame count was lowered.
	Reduced bool
}

// =============================================================================
// Preprocess Stage Types
// =============================================================================

// PreprocessInput contains parameters for frame normalization.
type PreprocessInput struct {
	Frames []image.Image

	Resolution int // Target short-side resolution (default: 336)
	CropWidth  int // Center crop width (0 = no crop)
	CropHeight int // Center crop height (0 = no crop)

	// Compression factors of the codec; the output shape is trimmed so
	// the codec's windowing divides evenly.
	TemporalCompression int
	SpatialCompression  int
}

// DefaultPreprocessInput returns PreprocessInput with default values.
func DefaultPreprocessInput() PreprocessInput {
	return PreprocessInput{
		Resolution:          336,
		TemporalCompression: 4,
		SpatialCompression:  8,
	}
}

// PreprocessResult contains the normalized frame sequence in [-1,1].
type PreprocessResult struct {
	Video tensor.Tensor
}

// =============================================================================
// Reconstruct Stage Types
// =============================================================================

// ReconstructInput contains parameters for chunked reconstruction.
type ReconstructInput struct {
	Video     tensor.Tensor
	ChunkSize int // Frames per codec window (default: 17)
	Overlap   int // Trailing frames shared with the next window (default: 4)
}

// DefaultReconstructInput returns ReconstructInput with default values.
func DefaultReconstructInput() ReconstructInput {
	return ReconstructInput{
		ChunkSize: 17,
		Overlap:   4,
	}
}

// Window is one codec invocation's time range [Start,End).
type Window struct {
	Start    int  `json:"start"`
	End      int  `json:"end"`
	Extended bool `json:"extended"` // End includes the overlap lookahead
}

// ReconstructResult contains the stitched output.
type ReconstructResult struct {
	Video tensor.Tensor
	Plan  []Window
	Seams int // Number of blended window boundaries
}

// =============================================================================
// Emit Stage Types
// =============================================================================

// EmitInput contains parameters for video emission.
type EmitInput struct {
	Video tensor.Tensor
	FPS   float64 // Output frame rate (sample fps / sample rate)
}

// DefaultEmitInput returns EmitInput with default values.
func DefaultEmitInput() EmitInput {
	return EmitInput{
		FPS: 30.0,
	}
}

// EmitResult contains details of the written video.
type EmitResult struct {
	FrameCount int
	Width      int
	Height     int
	FPS        float64
}
