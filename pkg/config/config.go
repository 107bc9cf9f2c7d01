// Package config provides configuration loading and management.
package config

import (
	"os"

	"github.com/user/revid/pkg/runner"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for revid.
type Config struct {
	// Input/Output
	InputDir  string `yaml:"input"`
	OutputDir string `yaml:"output"`
	Format    string `yaml:"format"` // output container: mp4 or y4m

	// Codec
	Checkpoint string `yaml:"checkpoint"`
	Blockwise  bool   `yaml:"blockwise"`
	TileSize   int    `yaml:"tile_size"`
	Seed       int64  `yaml:"seed"`

	// Sampling
	NumFrames  int     `yaml:"num_frames"`
	SampleRate int     `yaml:"sample_rate"`
	SampleFPS  float64 `yaml:"fps"`

	// Preprocessing
	Resolution int `yaml:"resolution"`
	CropWidth  int `yaml:"crop_width"`
	CropHeight int `yaml:"crop_height"`

	// Chunking
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`

	// Batch
	Workers int `yaml:"workers"`
	Limit   int `yaml:"limit"`

	// Tools (empty = search PATH)
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Format: "mp4",

		NumFrames:  17,
		SampleRate: 1,
		SampleFPS:  30.0,

		Resolution: 336,

		ChunkSize: 17,
		Overlap:   4,

		Workers: 4,

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ToRunnerConfig converts Config to runner.Config.
func (c Config) ToRunnerConfig() runner.Config {
	ext := ""
	switch c.Format {
	case "mp4":
		ext = ".mp4"
	case "y4m":
		ext = ".y4m"
	}
	return runner.Config{
		InputDir:  c.InputDir,
		OutputDir: c.OutputDir,
		OutputExt: ext,
		Workers:   c.Workers,
		Limit:     c.Limit,
	}
}
