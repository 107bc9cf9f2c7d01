package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving per-item artifacts of the reconstruction for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveIndicesJSON saves the sampled frame indices as JSON.
	SaveIndicesJSON(data []byte) error

	// SavePlanJSON saves the chunk plan as JSON.
	SavePlanJSON(data []byte) error

	// SaveContactSheet saves a thumbnail grid of a window's frames.
	SaveContactSheet(window int, img image.Image) error

	// SaveSeamStrip saves a strip of frames around a blend span.
	SaveSeamStrip(seam int, img image.Image) error
}
