// Package revid provides a high-level API for reconstructing videos through
// the chunked codec pipeline.
package revid

import (
	"github.com/user/revid/pkg/orchestrator"
)

// Config represents the configuration for a reconstruction run.
type Config struct {
	// Sampling
	NumFrames  int     // Frames to sample from the source (default: 17)
	SampleRate int     // Stride between source frames (default: 1)
	SampleFPS  float64 // Frame rate the samples are interpreted at (default: 30)

	// Preprocessing
	Resolution int // Short-side resolution (default: 336)
	CropWidth  int // Center crop width (0 = no crop)
	CropHeight int // Center crop height (0 = no crop)

	// Chunking
	ChunkSize int // Frames per codec window (default: 17)
	Overlap   int // Frames shared between adjacent windows (default: 4)

	// Codec
	Checkpoint string // Path to the codec checkpoint
	Blockwise  bool   // Bound memory by processing spatial tiles
	TileSize   int    // Tile edge in pixels (0 = codec default)
	Seed       int64  // Latent sampling seed (0 = deterministic)
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with standard defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: standardDefaults(),
	}
}

// NewPreviewConfigBuilder creates a new ConfigBuilder tuned for fast,
// low-resolution preview runs.
func NewPreviewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: previewDefaults(),
	}
}

func standardDefaults() Config {
	return Config{
		NumFrames:  17,
		SampleRate: 1,
		SampleFPS:  30.0,

		Resolution: 336,

		ChunkSize: 17,
		Overlap:   4,
	}
}

func previewDefaults() Config {
	return Config{
		NumFrames:  9,
		SampleRate: 2,
		SampleFPS:  30.0,

		Resolution: 128,

		ChunkSize: 9,
		Overlap:   4,
	}
}

// Build returns the final Config, applying validation and constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	if cfg.NumFrames < 1 {
		cfg.NumFrames = 1
	}
	if cfg.SampleRate < 1 {
		cfg.SampleRate = 1
	}
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 1
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}

	return cfg
}

// WithNumFrames sets how many frames are sampled from the source.
func (b *ConfigBuilder) WithNumFrames(n int) *ConfigBuilder {
	b.config.NumFrames = n
	return b
}

// WithSampleRate sets the stride between sampled source frames.
func (b *ConfigBuilder) WithSampleRate(rate int) *ConfigBuilder {
	b.config.SampleRate = rate
	return b
}

// WithSampleFPS sets the frame rate the samples are interpreted at.
func (b *ConfigBuilder) WithSampleFPS(fps float64) *ConfigBuilder {
	b.config.SampleFPS = fps
	return b
}

// WithResolution sets the short-side resolution.
func (b *ConfigBuilder) WithResolution(resolution int) *ConfigBuilder {
	b.config.Resolution = resolution
	return b
}

// WithCropWidth sets the center crop width applied after scaling.
func (b *ConfigBuilder) WithCropWidth(width int) *ConfigBuilder {
	b.config.CropWidth = width
	return b
}

// WithCropHeight sets the center crop height applied after scaling.
func (b *ConfigBuilder) WithCropHeight(height int) *ConfigBuilder {
	b.config.CropHeight = height
	return b
}

// WithChunkSize sets the codec window size.
func (b *ConfigBuilder) WithChunkSize(chunkSize int) *ConfigBuilder {
	b.config.ChunkSize = chunkSize
	return b
}

// WithOverlap sets how many frames adjacent windows share.
func (b *ConfigBuilder) WithOverlap(overlap int) *ConfigBuilder {
	b.config.Overlap = overlap
	return b
}

// WithCheckpoint sets the codec checkpoint path.
func (b *ConfigBuilder) WithCheckpoint(path string) *ConfigBuilder {
	b.config.Checkpoint = path
	return b
}

// WithBlockwise enables tile-by-tile spatial processing.
func (b *ConfigBuilder) WithBlockwise(blockwise bool) *ConfigBuilder {
	b.config.Blockwise = blockwise
	return b
}

// WithTileSize sets the tile edge for blockwise processing.
func (b *ConfigBuilder) WithTileSize(size int) *ConfigBuilder {
	b.config.TileSize = size
	return b
}

// WithSeed sets the latent sampling seed.
func (b *ConfigBuilder) WithSeed(seed int64) *ConfigBuilder {
	b.config.Seed = seed
	return b
}

// ToPipelineConfig converts the facade Config to an orchestrator.Config with
// the codec's compression factors.
func (c Config) ToPipelineConfig(temporalCompression, spatialCompression int) orchestrator.Config {
	return orchestrator.Config{
		NumFrames:  c.NumFrames,
		SampleRate: c.SampleRate,
		SampleFPS:  c.SampleFPS,

		Resolution: c.Resolution,
		CropWidth:  c.CropWidth,
		CropHeight: c.CropHeight,

		ChunkSize: c.ChunkSize,
		Overlap:   c.Overlap,

		TemporalCompression: temporalCompression,
		SpatialCompression:  spatialCompression,
	}
}
