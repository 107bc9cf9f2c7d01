// Package codec implements the reference causal video codec. It compresses a
// frame sequence temporally and spatially around an anchor frame, applies a
// learned per-channel affine from a checkpoint, and exposes the latent as a
// Gaussian distribution. The codec is pure: no state is mutated after
// construction, so a single instance may serve concurrent callers.
package codec

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/tensor"
)

// Options configures a Codec.
type Options struct {
	// Seed enables stochastic latent sampling. Zero keeps sampling
	// deterministic: Sample returns the distribution mean.
	Seed int64

	// Blockwise executes spatial nodes tile by tile.
	Blockwise bool

	// TileSize is the tile edge for blockwise execution. Zero selects
	// DefaultTileSize. Must be a multiple of the spatial compression.
	TileSize int
}

// Codec is the reference implementation of ports.Codec.
type Codec struct {
	ckpt  *Checkpoint
	graph *Node
	seed  int64
}

// New creates a codec from checkpoint parameters.
func New(ckpt *Checkpoint, opts Options) (*Codec, error) {
	if err := ckpt.validate(); err != nil {
		return nil, err
	}
	graph := DefaultGraph()
	if opts.Blockwise {
		tile := opts.TileSize
		if tile <= 0 {
			tile = DefaultTileSize
		}
		if tile%ckpt.SpatialCompression != 0 {
			return nil, fmt.Errorf("tile size %d is not a multiple of spatial compression %d", tile, ckpt.SpatialCompression)
		}
		graph = Rewrite(graph, tile)
	}
	return &Codec{
		ckpt:  ckpt,
		graph: graph,
		seed:  opts.Seed,
	}, nil
}

// Graph returns the codec's processing graph.
func (c *Codec) Graph() *Node {
	return c.graph
}

func (c *Codec) TemporalCompression() int {
	return c.ckpt.TemporalCompression
}

func (c *Codec) SpatialCompression() int {
	return c.ckpt.SpatialCompression
}

// temporalGroups partitions [0,total) into the anchor frame followed by
// groups of up to tc frames. The trailing group may be partial.
func temporalGroups(total, tc int) [][2]int {
	groups := [][2]int{{0, 1}}
	for start := 1; start < total; {
		end := start + tc
		if end > total {
			end = total
		}
		groups = append(groups, [2]int{start, end})
		start = end
	}
	return groups
}

// Encode compresses x into a latent distribution. The input must match the
// checkpoint's channel count, and height and width must be multiples of the
// spatial compression factor.
func (c *Codec) Encode(x tensor.Tensor) (ports.LatentDistribution, error) {
	sc := c.ckpt.SpatialCompression
	if x.C != c.ckpt.LatentChannels {
		return nil, fmt.Errorf("expected %d channels, got %d", c.ckpt.LatentChannels, x.C)
	}
	if x.T < 1 {
		return nil, fmt.Errorf("empty frame sequence")
	}
	if x.H%sc != 0 || x.W%sc != 0 {
		return nil, fmt.Errorf("dimensions %dx%d are not multiples of spatial compression %d", x.W, x.H, sc)
	}

	pooled := c.poolTemporal(x)
	pooled = c.poolSpatial(pooled)

	mean := pooled
	for ch := 0; ch < mean.C; ch++ {
		gain := c.ckpt.Gain[ch]
		bias := c.ckpt.Bias[ch]
		for t := 0; t < mean.T; t++ {
			for y := 0; y < mean.H; y++ {
				for px := 0; px < mean.W; px++ {
					mean.Set(ch, t, y, px, gain*mean.At(ch, t, y, px)+bias)
				}
			}
		}
	}

	return &distribution{
		mean:   mean,
		logVar: c.ckpt.LogVar,
		seed:   c.seed,
	}, nil
}

// Decode reconstructs a frame sequence from a latent tensor. The output has
// 1 + (T-1)*tc frames, so windows whose length was not 1 (mod tc) come back
// rounded up.
func (c *Codec) Decode(latent tensor.Tensor) (tensor.Tensor, error) {
	if latent.C != c.ckpt.LatentChannels {
		return tensor.Tensor{}, fmt.Errorf("expected %d latent channels, got %d", c.ckpt.LatentChannels, latent.C)
	}
	if latent.T < 1 {
		return tensor.Tensor{}, fmt.Errorf("empty latent")
	}

	x := latent.Clone()
	for ch := 0; ch < x.C; ch++ {
		gain := c.ckpt.Gain[ch]
		bias := c.ckpt.Bias[ch]
		for t := 0; t < x.T; t++ {
			for y := 0; y < x.H; y++ {
				for px := 0; px < x.W; px++ {
					x.Set(ch, t, y, px, (x.At(ch, t, y, px)-bias)/gain)
				}
			}
		}
	}

	x = c.expandSpatial(x)
	return c.expandTemporal(x), nil
}

// poolTemporal averages each frame group into one latent frame. The anchor
// frame is preserved as its own group.
func (c *Codec) poolTemporal(x tensor.Tensor) tensor.Tensor {
	groups := temporalGroups(x.T, c.ckpt.TemporalCompression)
	out := tensor.New(x.C, len(groups), x.H, x.W)
	for g, span := range groups {
		n := float32(span[1] - span[0])
		for ch := 0; ch < x.C; ch++ {
			for y := 0; y < x.H; y++ {
				for px := 0; px < x.W; px++ {
					var sum float32
					for t := span[0]; t < span[1]; t++ {
						sum += x.At(ch, t, y, px)
					}
					out.Set(ch, g, y, px, sum/n)
				}
			}
		}
	}
	return out
}

// expandTemporal replicates each latent frame back over its group span.
func (c *Codec) expandTemporal(x tensor.Tensor) tensor.Tensor {
	tc := c.ckpt.TemporalCompression
	outT := 1 + (x.T-1)*tc
	out := tensor.New(x.C, outT, x.H, x.W)
	for t := 0; t < outT; t++ {
		src := 0
		if t > 0 {
			src = 1 + (t-1)/tc
		}
		for ch := 0; ch < x.C; ch++ {
			for y := 0; y < x.H; y++ {
				for px := 0; px < x.W; px++ {
					out.Set(ch, t, y, px, x.At(ch, src, y, px))
				}
			}
		}
	}
	return out
}

// tileBlocks returns how many output blocks a spatial node processes per
// strip, or the full extent when the node runs in standard mode.
func (c *Codec) tileBlocks(name string, extent int) int {
	node := c.graph.Find(name)
	if node == nil || node.Capability != CapabilitySpatialWindowed {
		return extent
	}
	blocks := node.TileSize / c.ckpt.SpatialCompression
	if blocks < 1 {
		blocks = 1
	}
	return blocks
}

func (c *Codec) poolSpatial(x tensor.Tensor) tensor.Tensor {
	sc := c.ckpt.SpatialCompression
	outH, outW := x.H/sc, x.W/sc
	out := tensor.New(x.C, x.T, outH, outW)
	step := c.tileBlocks("encoder.spatial_pool", outW)
	norm := float32(sc * sc)
	for ch := 0; ch < x.C; ch++ {
		for t := 0; t < x.T; t++ {
			for by0 := 0; by0 < outH; by0 += step {
				byEnd := min(by0+step, outH)
				for bx0 := 0; bx0 < outW; bx0 += step {
					bxEnd := min(bx0+step, outW)
					for by := by0; by < byEnd; by++ {
						for bx := bx0; bx < bxEnd; bx++ {
							var sum float32
							for dy := 0; dy < sc; dy++ {
								for dx := 0; dx < sc; dx++ {
									sum += x.At(ch, t, by*sc+dy, bx*sc+dx)
								}
							}
							out.Set(ch, t, by, bx, sum/norm)
						}
					}
				}
			}
		}
	}
	return out
}

func (c *Codec) expandSpatial(x tensor.Tensor) tensor.Tensor {
	sc := c.ckpt.SpatialCompression
	outH, outW := x.H*sc, x.W*sc
	out := tensor.New(x.C, x.T, outH, outW)
	step := c.tileBlocks("decoder.spatial_expand", x.W)
	for ch := 0; ch < x.C; ch++ {
		for t := 0; t < x.T; t++ {
			for by0 := 0; by0 < x.H; by0 += step {
				byEnd := min(by0+step, x.H)
				for bx0 := 0; bx0 < x.W; bx0 += step {
					bxEnd := min(bx0+step, x.W)
					for by := by0; by < byEnd; by++ {
						for bx := bx0; bx < bxEnd; bx++ {
							v := x.At(ch, t, by, bx)
							for dy := 0; dy < sc; dy++ {
								for dx := 0; dx < sc; dx++ {
									out.Set(ch, t, by*sc+dy, bx*sc+dx, v)
								}
							}
						}
					}
				}
			}
		}
	}
	return out
}

// distribution is the Gaussian latent returned by Encode. Its log-variance
// is constant per channel.
type distribution struct {
	mean   tensor.Tensor
	logVar []float32
	seed   int64
}

// Mode returns the distribution mean.
func (d *distribution) Mode() tensor.Tensor {
	return d.mean
}

// Sample draws from the distribution. With a zero seed it returns the mean,
// otherwise the draw is reproducible for the same seed and shape.
func (d *distribution) Sample() tensor.Tensor {
	if d.seed == 0 {
		return d.mean
	}
	rng := rand.New(rand.NewSource(d.seed))
	out := d.mean.Clone()
	for ch := 0; ch < out.C; ch++ {
		std := float32(math.Exp(float64(d.logVar[ch]) / 2))
		for t := 0; t < out.T; t++ {
			for y := 0; y < out.H; y++ {
				for px := 0; px < out.W; px++ {
					noise := float32(rng.NormFloat64())
					out.Set(ch, t, y, px, out.At(ch, t, y, px)+std*noise)
				}
			}
		}
	}
	return out
}

var _ ports.Codec = (*Codec)(nil)
var _ ports.LatentDistribution = (*distribution)(nil)
