// Package mocks provides hand-written mock implementations of the ports
// interfaces for tests.
package mocks

import (
	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/tensor"
)

// Latent is a trivial ports.LatentDistribution carrying a fixed tensor.
type Latent struct {
	Tensor tensor.Tensor
}

func (l Latent) Sample() tensor.Tensor { return l.Tensor }
func (l Latent) Mode() tensor.Tensor   { return l.Tensor }

var _ ports.LatentDistribution = Latent{}

// Codec is a mock implementation of ports.Codec. By default it behaves as an
// identity codec with temporal compression 4 and spatial compression 8.
type Codec struct {
	EncodeFunc func(x tensor.Tensor) (ports.LatentDistribution, error)
	DecodeFunc func(latent tensor.Tensor) (tensor.Tensor, error)

	Temporal int // TemporalCompression (default: 4)
	Spatial  int // SpatialCompression (default: 8)

	// Recorded calls for verification
	EncodeCalls []int // time length of each encoded window
	DecodeCalls int
}

func (m *Codec) Encode(x tensor.Tensor) (ports.LatentDistribution, error) {
	m.EncodeCalls = append(m.EncodeCalls, x.T)
	if m.EncodeFunc != nil {
		return m.EncodeFunc(x)
	}
	return Latent{Tensor: x}, nil
}

func (m *Codec) Decode(latent tensor.Tensor) (tensor.Tensor, error) {
	m.DecodeCalls++
	if m.DecodeFunc != nil {
		return m.DecodeFunc(latent)
	}
	return latent, nil
}

func (m *Codec) TemporalCompression() int {
	if m.Temporal != 0 {
		return m.Temporal
	}
	return 4
}

func (m *Codec) SpatialCompression() int {
	if m.Spatial != 0 {
		return m.Spatial
	}
	return 8
}

var _ ports.Codec = (*Codec)(nil)
