// Package ports defines the interfaces between the reconstruction pipeline
// and its collaborators.
package ports

import (
	"github.com/user/revid/pkg/tensor"
)

// LatentDistribution is the intermediate representation produced by Encode.
// Sample projects it to a concrete latent tensor; deterministic codecs return
// the mean.
type LatentDistribution interface {
	// Sample draws a latent tensor from the distribution.
	Sample() tensor.Tensor

	// Mode returns the distribution mean without sampling noise.
	Mode() tensor.Tensor
}

// Codec abstracts the learned video auto-encoder. Implementations must be
// safe for concurrent read-only use: batch workers share a single instance
// and no model state changes during reconstruction.
type Codec interface {
	// Encode transforms a frame sequence into a latent distribution.
	Encode(x tensor.Tensor) (LatentDistribution, error)

	// Decode reconstructs a frame sequence from a sampled latent.
	Decode(latent tensor.Tensor) (tensor.Tensor, error)

	// TemporalCompression returns the time-axis reduction factor.
	TemporalCompression() int

	// SpatialCompression returns the height/width reduction factor.
	SpatialCompression() int
}
