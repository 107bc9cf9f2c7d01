// Package main provides the CLI entry point for revid.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/revid/pkg/adapters/filesink"
	"github.com/user/revid/pkg/adapters/ggrenderer"
	"github.com/user/revid/pkg/adapters/logger"
	"github.com/user/revid/pkg/adapters/nullsink"
	"github.com/user/revid/pkg/adapters/osfilesystem"
	"github.com/user/revid/pkg/adapters/smartsink"
	"github.com/user/revid/pkg/adapters/smartsource"
	"github.com/user/revid/pkg/codec"
	"github.com/user/revid/pkg/compare"
	"github.com/user/revid/pkg/config"
	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/preview"
	"github.com/user/revid/pkg/revid"
	"github.com/user/revid/pkg/runner"
	"github.com/user/revid/pkg/summarizer"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Reconstruct ReconstructCmd `cmd:"" help:"Reconstruct a directory of videos through the chunked codec."`
	Probe       ProbeCmd       `cmd:"" help:"Show frame count, dimensions and frame rate of a video."`
	Compare     CompareCmd     `cmd:"" help:"Create a side-by-side comparison video with PSNR."`
	Version     VersionCmd     `cmd:"" help:"Show version information."`
}

// ReconstructCmd defines the reconstruct subcommand.
type ReconstructCmd struct {
	// Required arguments
	InputDir string `arg:"" help:"Directory containing input videos."`
	Output   string `short:"o" required:"" help:"Output directory for reconstructed videos."`

	// Preset
	Preset string `short:"p" default:"standard" enum:"standard,preview" help:"Preset configuration (standard or preview)."`

	// Config file
	Config string `short:"c" help:"YAML configuration file (flags override it)."`

	// Codec options
	Ckpt      string `help:"Codec checkpoint file (default: built-in identity checkpoint)."`
	Blockwise *bool  `help:"Process spatial stages tile by tile to bound memory."`
	TileSize  *int   `help:"Tile edge in pixels for blockwise processing."`
	Seed      *int64 `help:"Latent sampling seed (0 = deterministic mode)."`

	// Sampling options
	NumFrames  *int     `short:"n" help:"Frames to sample from each source (default: 17)."`
	SampleRate *int     `help:"Stride between sampled source frames (default: 1)."`
	FPS        *float64 `help:"Frame rate the samples are interpreted at (default: 30)."`

	// Preprocessing options
	Resolution *int `short:"r" help:"Short-side resolution after scaling (default: 336)."`
	CropWidth  *int `help:"Center crop width after scaling (0 = no crop)."`
	CropHeight *int `help:"Center crop height after scaling (0 = no crop)."`

	// Chunking options
	ChunkSize *int `help:"Frames per codec window (default: 17)."`
	Overlap   *int `help:"Frames shared between adjacent windows (default: 4)."`

	// Batch options
	Workers *int   `short:"w" help:"Worker pool size (0 = number of CPUs)."`
	Limit   *int   `help:"Process at most this many files (0 = all)."`
	Format  string `short:"f" enum:",mp4,y4m" default:"" help:"Output container (mp4 or y4m)."`

	// Reporting options
	Compare bool   `help:"Measure PSNR between each input and its reconstruction."`
	Summary string `help:"Write a run summary to this file (.json for JSON, otherwise Markdown)."`

	// Tool options
	FFmpegPath  string `help:"Path to ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)."`
	FFprobePath string `help:"Path to ffprobe executable (falls back to FFPROBE_PATH env, then PATH)."`

	// Debug options
	Debug    bool   `short:"d" help:"Save sampling indices, window plans and seam previews."`
	DebugDir string `default:"./debug" help:"Directory for debug output."`

	// Logging options
	LogLevel  string `short:"l" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)."`
	LogFormat string `default:"text" enum:"text,json" help:"Log output format (text or json)."`
	Quiet     bool   `short:"Q" help:"Suppress all log output."`
}

// ProbeCmd defines the probe subcommand.
type ProbeCmd struct {
	File string `arg:"" help:"Video file to inspect."`

	FFmpegPath  string `help:"Path to ffmpeg executable."`
	FFprobePath string `help:"Path to ffprobe executable."`
}

// CompareCmd defines the compare subcommand.
type CompareCmd struct {
	Left   string `arg:"" help:"Left video file path."`
	Right  string `arg:"" help:"Right video file path."`
	Output string `short:"o" required:"" help:"Output video file path."`

	Gap         int     `default:"10" help:"Gap between videos in pixels."`
	FPS         float64 `help:"Output frame rate (0 = frame rate of the left video)."`
	FFmpegPath  string  `help:"Path to ffmpeg executable."`
	FFprobePath string  `help:"Path to ffprobe executable."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("revid"),
		kong.Description("Reconstruct videos through a chunked causal video codec."),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// Run executes the reconstruct command.
func (cmd *ReconstructCmd) Run() error {
	cfg, err := cmd.buildConfig()
	if err != nil {
		return err
	}
	run := cmd.buildRunConfig(cfg)

	log := cmd.buildLogger()

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn(l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	// Create adapters
	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	// Load checkpoint and build the codec
	var ckpt *codec.Checkpoint
	if run.Checkpoint != "" {
		ckpt, err = codec.LoadCheckpoint(fs, run.Checkpoint)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		log.Info(l10n.F("Loaded checkpoint %s", run.Checkpoint))
	} else {
		ckpt = codec.DefaultCheckpoint()
	}

	cdc, err := codec.New(ckpt, codec.Options{
		Seed:      run.Seed,
		Blockwise: run.Blockwise,
		TileSize:  run.TileSize,
	})
	if err != nil {
		return err
	}

	// Create debug sink
	var sink ports.DebugSink
	var previews *preview.Builder
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
		previews = preview.NewBuilder(renderer)
	} else {
		sink = nullsink.New()
	}

	sources := func(path string) (ports.VideoSource, error) {
		src, _, err := smartsource.New(path, smartsource.Options{
			FFmpegPath:  cfg.FFmpegPath,
			FFprobePath: cfg.FFprobePath,
		})
		return src, err
	}
	sinks := func(path string) (ports.VideoSink, error) {
		snk, _, err := smartsink.New(path, smartsink.Options{
			FFmpegPath: cfg.FFmpegPath,
		})
		return snk, err
	}

	r := runner.New(fs, cdc, sources, sinks, previews, sink, log)

	pipelineConfig := run.ToPipelineConfig(cdc.TemporalCompression(), cdc.SpatialCompression())

	log.Info(l10n.F("Reconstructing %s into %s...", cfg.InputDir, cfg.OutputDir))

	batch, err := r.Run(ctx, cfg.ToRunnerConfig(), pipelineConfig)
	if err != nil {
		return err
	}

	psnrs := map[string]float64{}
	if cmd.Compare {
		psnrs = cmd.measurePSNRs(ctx, cfg, batch, log)
	}

	if cmd.Summary != "" {
		if err := cmd.writeSummary(fs, cfg, run, batch, psnrs); err != nil {
			log.Error(l10n.F("Failed to write summary: %s", err))
		} else {
			log.Info(l10n.F("Summary saved to %s", cmd.Summary))
		}
	}

	if batch.Succeeded == 0 {
		return fmt.Errorf("all %d items failed", batch.Failed)
	}

	log.Info(l10n.F("Output saved to %s", cfg.OutputDir))
	return nil
}

// buildConfig layers the defaults, the optional YAML file and the CLI flags.
func (cmd *ReconstructCmd) buildConfig() (config.Config, error) {
	cfg := config.Defaults()
	if cmd.Config != "" {
		loaded, err := config.LoadFromFile(cmd.Config)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	cfg.InputDir = cmd.InputDir
	cfg.OutputDir = cmd.Output

	if cmd.Workers != nil {
		cfg.Workers = *cmd.Workers
	}
	if cmd.Limit != nil {
		cfg.Limit = *cmd.Limit
	}
	if cmd.Format != "" {
		cfg.Format = cmd.Format
	}
	if cmd.FFmpegPath != "" {
		cfg.FFmpegPath = cmd.FFmpegPath
	}
	if cmd.FFprobePath != "" {
		cfg.FFprobePath = cmd.FFprobePath
	}
	if cmd.Debug {
		cfg.Debug = true
	}
	if cmd.DebugDir != "" {
		cfg.DebugDir = cmd.DebugDir
	}

	return cfg, nil
}

// buildRunConfig creates the reconstruction parameters from the preset,
// the config file and the CLI overrides, in that order.
func (cmd *ReconstructCmd) buildRunConfig(cfg config.Config) revid.Config {
	// Start with preset
	var builder *revid.ConfigBuilder
	switch cmd.Preset {
	case "preview":
		builder = revid.NewPreviewConfigBuilder()
	default:
		builder = revid.NewConfigBuilder()
	}

	// A config file replaces the preset values
	if cmd.Config != "" {
		builder.WithNumFrames(cfg.NumFrames).
			WithSampleRate(cfg.SampleRate).
			WithSampleFPS(cfg.SampleFPS).
			WithResolution(cfg.Resolution).
			WithCropWidth(cfg.CropWidth).
			WithCropHeight(cfg.CropHeight).
			WithChunkSize(cfg.ChunkSize).
			WithOverlap(cfg.Overlap).
			WithCheckpoint(cfg.Checkpoint).
			WithBlockwise(cfg.Blockwise).
			WithTileSize(cfg.TileSize).
			WithSeed(cfg.Seed)
	}

	// Apply overrides
	if cmd.Ckpt != "" {
		builder.WithCheckpoint(cmd.Ckpt)
	}
	if cmd.Blockwise != nil {
		builder.WithBlockwise(*cmd.Blockwise)
	}
	if cmd.TileSize != nil {
		builder.WithTileSize(*cmd.TileSize)
	}
	if cmd.Seed != nil {
		builder.WithSeed(*cmd.Seed)
	}
	if cmd.NumFrames != nil {
		builder.WithNumFrames(*cmd.NumFrames)
	}
	if cmd.SampleRate != nil {
		builder.WithSampleRate(*cmd.SampleRate)
	}
	if cmd.FPS != nil {
		builder.WithSampleFPS(*cmd.FPS)
	}
	if cmd.Resolution != nil {
		builder.WithResolution(*cmd.Resolution)
	}
	if cmd.CropWidth != nil {
		builder.WithCropWidth(*cmd.CropWidth)
	}
	if cmd.CropHeight != nil {
		builder.WithCropHeight(*cmd.CropHeight)
	}
	if cmd.ChunkSize != nil {
		builder.WithChunkSize(*cmd.ChunkSize)
	}
	if cmd.Overlap != nil {
		builder.WithOverlap(*cmd.Overlap)
	}

	return builder.Build()
}

func (cmd *ReconstructCmd) buildLogger() ports.Logger {
	if cmd.Quiet {
		return logger.NewNoop()
	}
	level := ports.ParseLogLevel(cmd.LogLevel)
	if cmd.LogFormat == "json" {
		return logger.NewZerolog(level)
	}
	return logger.NewConsole(level)
}

// measurePSNRs compares each successful reconstruction against its input.
func (cmd *ReconstructCmd) measurePSNRs(ctx context.Context, cfg config.Config, batch runner.BatchResult, log ports.Logger) map[string]float64 {
	opts := smartsource.Options{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
	}

	psnrs := make(map[string]float64)
	for _, item := range batch.Items {
		if item.Err != nil {
			continue
		}

		left, _, err := smartsource.New(filepath.Join(cfg.InputDir, item.Name), opts)
		if err != nil {
			log.Warn(l10n.F("Cannot compare %s: %s", item.Name, err))
			continue
		}
		right, _, err := smartsource.New(item.OutputPath, opts)
		if err != nil {
			left.Close()
			log.Warn(l10n.F("Cannot compare %s: %s", item.Name, err))
			continue
		}

		psnr, err := compare.MeasurePSNR(ctx, left, right)
		left.Close()
		right.Close()
		if err != nil {
			log.Warn(l10n.F("Cannot compare %s: %s", item.Name, err))
			continue
		}

		psnrs[item.Name] = psnr
		if math.IsInf(psnr, 1) {
			log.Info(l10n.F("%s: identical to input", item.Name))
		} else {
			log.Info(l10n.F("%s: %.2f dB", item.Name, psnr))
		}
	}
	return psnrs
}

func (cmd *ReconstructCmd) writeSummary(fs ports.FileSystem, cfg config.Config, run revid.Config, batch runner.BatchResult, psnrs map[string]float64) error {
	checkpoint := run.Checkpoint
	if checkpoint == "" {
		checkpoint = "builtin"
	}

	builder := summarizer.NewBuilder().WithSettings(summarizer.Settings{
		Checkpoint: checkpoint,
		NumFrames:  run.NumFrames,
		SampleRate: run.SampleRate,
		Resolution: run.Resolution,
		ChunkSize:  run.ChunkSize,
		Overlap:    run.Overlap,
		FPS:        run.SampleFPS,
		Workers:    cfg.Workers,
		Blockwise:  run.Blockwise,
	})

	for _, item := range batch.Items {
		entry := summarizer.ItemSummary{
			Name:       item.Name,
			Status:     summarizer.StatusOK,
			DurationMs: item.DurationMs,
		}
		if item.Err != nil {
			entry.Status = summarizer.StatusFailed
			entry.Error = item.Err.Error()
		} else {
			entry.SourceFrames = item.Result.SourceFrames
			entry.SampledFrames = item.Result.SampledFrames
			entry.Reduced = item.Result.Reduced
			entry.Windows = item.Result.Windows
			entry.Seams = item.Result.Seams
			entry.OutputFrames = item.Result.OutputFrames
			entry.OutputWidth = item.Result.OutputWidth
			entry.OutputHeight = item.Result.OutputHeight
			entry.OutputFPS = item.Result.OutputFPS
		}
		if psnr, ok := psnrs[item.Name]; ok {
			entry.PSNR = &psnr
		}
		builder.AddItem(entry)
	}

	var formatter summarizer.Formatter
	if strings.EqualFold(filepath.Ext(cmd.Summary), ".json") {
		formatter = summarizer.NewJSONFormatter()
	} else {
		formatter = summarizer.NewMarkdownFormatter()
	}

	return summarizer.NewWriter(fs, formatter).Write(cmd.Summary, builder.Build())
}

// Run executes the probe command.
func (cmd *ProbeCmd) Run() error {
	src, info, err := smartsource.New(cmd.File, smartsource.Options{
		FFmpegPath:  cmd.FFmpegPath,
		FFprobePath: cmd.FFprobePath,
	})
	if err != nil {
		return err
	}
	defer src.Close()

	meta, err := src.Probe()
	if err != nil {
		return err
	}

	fmt.Println(l10n.F("File: %s", cmd.File))
	fmt.Println(l10n.F("Backend: %s", info.Backend))
	fmt.Println(l10n.F("Frames: %d", meta.TotalFrames))
	fmt.Println(l10n.F("Size: %dx%d", meta.Width, meta.Height))
	fmt.Println(l10n.F("Frame rate: %.3f fps", meta.FPS))
	return nil
}

// Run executes the compare command.
func (cmd *CompareCmd) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	srcOpts := smartsource.Options{
		FFmpegPath:  cmd.FFmpegPath,
		FFprobePath: cmd.FFprobePath,
	}

	left, _, err := smartsource.New(cmd.Left, srcOpts)
	if err != nil {
		return err
	}
	defer left.Close()

	right, _, err := smartsource.New(cmd.Right, srcOpts)
	if err != nil {
		return err
	}
	defer right.Close()

	sink, _, err := smartsink.New(cmd.Output, smartsink.Options{
		FFmpegPath: cmd.FFmpegPath,
	})
	if err != nil {
		return err
	}

	fmt.Println(l10n.F("Creating comparison video: %s + %s -> %s", cmd.Left, cmd.Right, cmd.Output))

	result, err := compare.Combine(ctx, left, right, sink, compare.Options{
		Gap: cmd.Gap,
		FPS: cmd.FPS,
	})
	if err != nil {
		return err
	}

	fmt.Println(l10n.F("Frames: %d", result.Frames))
	if math.IsInf(result.PSNR, 1) {
		fmt.Println(l10n.T("PSNR: identical"))
	} else if !math.IsNaN(result.PSNR) {
		fmt.Println(l10n.F("PSNR: %.2f dB", result.PSNR))
	}
	return nil
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("revid version %s", version))
	return nil
}
