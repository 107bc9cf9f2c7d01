// Package summarizer provides summary generation for batch reconstruction
// results.
package summarizer

import "time"

// Summary contains all data collected during a batch run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `json:"generated_at"`

	// Pipeline settings
	Settings Settings `json:"settings"`

	// Per-item results
	Items []ItemSummary `json:"items"`

	// Aggregates
	Totals Totals `json:"totals"`
}

// Settings contains the pipeline configuration of the run.
type Settings struct {
	Checkpoint string  `json:"checkpoint"`
	NumFrames  int     `json:"num_frames"`
	SampleRate int     `json:"sample_rate"`
	Resolution int     `json:"resolution"`
	ChunkSize  int     `json:"chunk_size"`
	Overlap    int     `json:"overlap"`
	FPS        float64 `json:"fps"`
	Workers    int     `json:"workers"`
	Blockwise  bool    `json:"blockwise"`
}

// ItemSummary contains the outcome of one video item.
type ItemSummary struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "failed"
	Error  string `json:"error,omitempty"`

	SourceFrames  int  `json:"source_frames"`
	SampledFrames int  `json:"sampled_frames"`
	Reduced       bool `json:"reduced"`

	Windows int `json:"windows"`
	Seams   int `json:"seams"`

	OutputFrames int     `json:"output_frames"`
	OutputWidth  int     `json:"output_width"`
	OutputHeight int     `json:"output_height"`
	OutputFPS    float64 `json:"output_fps"`

	// PSNR in dB against the input, present when comparison ran.
	PSNR *float64 `json:"psnr,omitempty"`

	DurationMs int64 `json:"duration_ms"`
}

// Totals contains batch-level aggregates.
type Totals struct {
	Items      int   `json:"items"`
	Succeeded  int   `json:"succeeded"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"duration_ms"`
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSettings sets the pipeline settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// AddItem appends one item result and updates the totals.
func (b *Builder) AddItem(item ItemSummary) *Builder {
	b.summary.Items = append(b.summary.Items, item)
	b.summary.Totals.Items++
	if item.Status == StatusOK {
		b.summary.Totals.Succeeded++
	} else {
		b.summary.Totals.Failed++
	}
	b.summary.Totals.DurationMs += item.DurationMs
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

// Item status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)
