// Package orchestrator coordinates all pipeline stages for one video item.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ideamans/go-l10n"
	"github.com/user/revid/pkg/pipeline"
	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/preview"
	"github.com/user/revid/pkg/tensor"
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Sampling
	NumFrames  int
	SampleRate int
	SampleFPS  float64

	// Preprocessing
	Resolution int
	CropWidth  int
	CropHeight int

	// Chunking
	ChunkSize int
	Overlap   int

	// Codec shape requirements
	TemporalCompression int
	SpatialCompression  int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		NumFrames:  17,
		SampleRate: 1,
		SampleFPS:  30.0,

		Resolution: 336,

		ChunkSize: 17,
		Overlap:   4,

		TemporalCompression: 4,
		SpatialCompression:  8,
	}
}

// OutputFPS returns the frame rate of the emitted video.
func (c Config) OutputFPS() float64 {
	rate := c.SampleRate
	if rate < 1 {
		rate = 1
	}
	return c.SampleFPS / float64(rate)
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	sampleStage      pipeline.Stage[pipeline.SampleInput, pipeline.SampleResult]
	preprocessStage  pipeline.Stage[pipeline.PreprocessInput, pipeline.PreprocessResult]
	reconstructStage pipeline.Stage[pipeline.ReconstructInput, pipeline.ReconstructResult]
	emitStage        pipeline.Stage[pipeline.EmitInput, pipeline.EmitResult]
	previews         *preview.Builder
	sink             ports.DebugSink
	logger           ports.Logger
}

// New creates a new Orchestrator. The previews builder may be nil, in which
// case no contact sheets or seam strips are rendered.
func New(
	sampleStage pipeline.Stage[pipeline.SampleInput, pipeline.SampleResult],
	preprocessStage pipeline.Stage[pipeline.PreprocessInput, pipeline.PreprocessResult],
	reconstructStage pipeline.Stage[pipeline.ReconstructInput, pipeline.ReconstructResult],
	emitStage pipeline.Stage[pipeline.EmitInput, pipeline.EmitResult],
	previews *preview.Builder,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		sampleStage:      sampleStage,
		preprocessStage:  preprocessStage,
		reconstructStage: reconstructStage,
		emitStage:        emitStage,
		previews:         previews,
		sink:             sink,
		logger:           logger,
	}
}

// Run executes the complete pipeline against one video source.
func (o *Orchestrator) Run(ctx context.Context, config Config, source ports.VideoSource) (RunResult, error) {
	o.logger.Info(l10n.T("Starting reconstruction"))

	// 1. Sample frames
	sampleInput := pipeline.SampleInput{
		Source:     source,
		NumFrames:  config.NumFrames,
		SampleRate: config.SampleRate,
	}
	sampled, err := o.sampleStage.Execute(ctx, sampleInput)
	if err != nil {
		o.logger.Error(l10n.F("Failed to sample frames: %s", err))
		return RunResult{}, fmt.Errorf("sample stage: %w", err)
	}
	o.logger.Info(l10n.F("Sampled %d of %d source frames", len(sampled.Frames), sampled.Info.TotalFrames))

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(sampled.Indices, "", "  "); err == nil {
			o.sink.SaveIndicesJSON(data)
		}
	}

	// 2. Normalize shape and value range
	preprocessInput := pipeline.PreprocessInput{
		Frames:              sampled.Frames,
		Resolution:          config.Resolution,
		CropWidth:           config.CropWidth,
		CropHeight:          config.CropHeight,
		TemporalCompression: config.TemporalCompression,
		SpatialCompression:  config.SpatialCompression,
	}
	preprocessed, err := o.preprocessStage.Execute(ctx, preprocessInput)
	if err != nil {
		o.logger.Error(l10n.F("Failed to preprocess frames: %s", err))
		return RunResult{}, fmt.Errorf("preprocess stage: %w", err)
	}
	video := preprocessed.Video
	o.logger.Info(l10n.F("Normalized to %d frames of %dx%d", video.T, video.W, video.H))

	// 3. Chunked reconstruction
	reconstructInput := pipeline.ReconstructInput{
		Video:     video,
		ChunkSize: config.ChunkSize,
		Overlap:   config.Overlap,
	}
	reconstructed, err := o.reconstructStage.Execute(ctx, reconstructInput)
	if err != nil {
		o.logger.Error(l10n.F("Failed to reconstruct video: %s", err))
		return RunResult{}, fmt.Errorf("reconstruct stage: %w", err)
	}
	o.logger.Info(l10n.F("Reconstructed %d windows with %d blended seams", len(reconstructed.Plan), reconstructed.Seams))

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(reconstructed.Plan, "", "  "); err == nil {
			o.sink.SavePlanJSON(data)
		}
		o.saveArtifacts(video, reconstructed, config.Overlap)
	}

	// 4. Emit output video
	emitInput := pipeline.EmitInput{
		Video: reconstructed.Video,
		FPS:   config.OutputFPS(),
	}
	emitted, err := o.emitStage.Execute(ctx, emitInput)
	if err != nil {
		o.logger.Error(l10n.F("Failed to emit video: %s", err))
		return RunResult{}, fmt.Errorf("emit stage: %w", err)
	}
	o.logger.Info(l10n.F("Emitted %d frames at %.2f fps", emitted.FrameCount, emitted.FPS))

	return RunResult{
		SourceFrames:  sampled.Info.TotalFrames,
		SourceFPS:     sampled.Info.FPS,
		SampledFrames: len(sampled.Frames),
		Reduced:       sampled.Reduced,
		InputFrames:   video.T,
		Windows:       len(reconstructed.Plan),
		Seams:         reconstructed.Seams,
		OutputFrames:  emitted.FrameCount,
		OutputWidth:   emitted.Width,
		OutputHeight:  emitted.Height,
		OutputFPS:     emitted.FPS,
	}, nil
}

// saveArtifacts renders per-window contact sheets and per-seam strips into
// the debug sink. Rendering failures are logged and skipped.
func (o *Orchestrator) saveArtifacts(input tensor.Tensor, result pipeline.ReconstructResult, overlap int) {
	if o.previews == nil {
		return
	}

	for i, win := range result.Plan {
		sheet, err := o.previews.ContactSheet(input, win)
		if err != nil {
			o.logger.Warn(l10n.F("Skipping contact sheet for window %d: %s", i, err))
			continue
		}
		if err := o.sink.SaveContactSheet(i, sheet); err != nil {
			o.logger.Warn(l10n.F("Failed to save contact sheet for window %d: %s", i, err))
		}
	}

	for i := 1; i < len(result.Plan); i++ {
		strip, err := o.previews.SeamStrip(result.Video, result.Plan[i].Start, overlap)
		if err != nil {
			o.logger.Warn(l10n.F("Skipping seam strip %d: %s", i-1, err))
			continue
		}
		if err := o.sink.SaveSeamStrip(i-1, strip); err != nil {
			o.logger.Warn(l10n.F("Failed to save seam strip %d: %s", i-1, err))
		}
	}
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	// Source information
	SourceFrames  int
	SourceFPS     float64
	SampledFrames int
	Reduced       bool

	// Pipeline information
	InputFrames int
	Windows     int
	Seams       int

	// Output information
	OutputFrames int
	OutputWidth  int
	OutputHeight int
	OutputFPS    float64
}
