// Package runner executes the reconstruction pipeline over a directory of
// video files with a worker pool.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/user/revid/pkg/orchestrator"
	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/preview"
	"github.com/user/revid/pkg/stages/emit"
	"github.com/user/revid/pkg/stages/preprocess"
	"github.com/user/revid/pkg/stages/reconstruct"
	"github.com/user/revid/pkg/stages/sample"
)

// SourceFactory opens a video source for an input path.
type SourceFactory func(path string) (ports.VideoSource, error)

// SinkFactory opens a video sink for an output path.
type SinkFactory func(path string) (ports.VideoSink, error)

// videoExtensions are the input files the directory scan picks up.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
	".y4m":  true,
}

// Config contains batch-level configuration.
type Config struct {
	InputDir  string
	OutputDir string

	// OutputExt replaces the input extension on output files ("" keeps it).
	OutputExt string

	// Workers is the pool size (0 = NumCPU).
	Workers int

	// Limit caps how many files are processed (0 = all).
	Limit int
}

// ItemResult is the outcome of one video item.
type ItemResult struct {
	Name       string
	OutputPath string
	Result     orchestrator.RunResult
	Err        error
	DurationMs int64
}

// BatchResult aggregates the whole run.
type BatchResult struct {
	Items     []ItemResult
	Succeeded int
	Failed    int
}

// Runner distributes pipeline runs over a worker pool. Per-item failures are
// logged and recorded; only configuration errors abort the batch.
type Runner struct {
	fs       ports.FileSystem
	codec    ports.Codec
	sources  SourceFactory
	sinks    SinkFactory
	previews *preview.Builder
	sink     ports.DebugSink
	logger   ports.Logger
}

// New creates a Runner.
func New(
	fs ports.FileSystem,
	codec ports.Codec,
	sources SourceFactory,
	sinks SinkFactory,
	previews *preview.Builder,
	sink ports.DebugSink,
	logger ports.Logger,
) *Runner {
	return &Runner{
		fs:       fs,
		codec:    codec,
		sources:  sources,
		sinks:    sinks,
		previews: previews,
		sink:     sink,
		logger:   logger.WithComponent("runner"),
	}
}

// scan lists the video files of the input directory in sorted order.
func (r *Runner) scan(config Config) ([]string, error) {
	entries, err := r.fs.ReadDir(config.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var names []string
	for _, name := range entries {
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !videoExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if config.Limit > 0 && len(names) > config.Limit {
		names = names[:config.Limit]
	}
	return names, nil
}

func (r *Runner) outputPath(config Config, name string) string {
	if config.OutputExt != "" {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + config.OutputExt
	}
	return filepath.Join(config.OutputDir, name)
}

// Run processes every video file of the input directory.
func (r *Runner) Run(ctx context.Context, config Config, pipelineConfig orchestrator.Config) (BatchResult, error) {
	// Configuration problems abort before any work starts.
	if err := reconstruct.ValidateChunking(pipelineConfig.ChunkSize, pipelineConfig.Overlap, r.codec.TemporalCompression()); err != nil {
		return BatchResult{}, err
	}

	names, err := r.scan(config)
	if err != nil {
		return BatchResult{}, err
	}
	if len(names) == 0 {
		return BatchResult{}, fmt.Errorf("no video files in %s", config.InputDir)
	}

	if err := r.fs.MkdirAll(config.OutputDir); err != nil {
		return BatchResult{}, fmt.Errorf("create output directory: %w", err)
	}

	numWorkers := config.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(names) {
		numWorkers = len(names)
	}

	r.logger.Info(l10n.F("Processing %d videos with %d workers", len(names), numWorkers))

	jobs := make(chan int, len(names))
	results := make(chan indexedResult, len(names))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go r.worker(ctx, &wg, config, pipelineConfig, names, jobs, results)
	}

	for i := range names {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]indexedResult, 0, len(names))
	for result := range results {
		collected = append(collected, result)
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].index < collected[j].index
	})

	batch := BatchResult{Items: make([]ItemResult, len(collected))}
	for i, res := range collected {
		batch.Items[i] = res.item
		if res.item.Err != nil {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
	}

	r.logger.Info(l10n.F("Batch finished: %d succeeded, %d failed", batch.Succeeded, batch.Failed))
	return batch, nil
}

// indexedResult holds an item result with its scan index for sorting.
type indexedResult struct {
	index int
	item  ItemResult
}

func (r *Runner) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	config Config,
	pipelineConfig orchestrator.Config,
	names []string,
	jobs <-chan int,
	results chan<- indexedResult,
) {
	defer wg.Done()

	for i := range jobs {
		select {
		case <-ctx.Done():
			results <- indexedResult{index: i, item: ItemResult{Name: names[i], Err: ctx.Err()}}
			continue
		default:
		}

		item := r.processItem(ctx, config, pipelineConfig, names[i])
		if item.Err != nil {
			r.logger.Error(l10n.F("Failed to process %s: %s", item.Name, item.Err))
		} else {
			r.logger.Info(l10n.F("Processed %s in %d ms", item.Name, item.DurationMs))
		}
		results <- indexedResult{index: i, item: item}
	}
}

// processItem runs the pipeline for a single video file.
func (r *Runner) processItem(ctx context.Context, config Config, pipelineConfig orchestrator.Config, name string) ItemResult {
	started := time.Now()
	item := ItemResult{
		Name:       name,
		OutputPath: r.outputPath(config, name),
	}

	source, err := r.sources(filepath.Join(config.InputDir, name))
	if err != nil {
		item.Err = fmt.Errorf("open source: %w", err)
		return item
	}
	defer source.Close()

	sink, err := r.sinks(item.OutputPath)
	if err != nil {
		item.Err = fmt.Errorf("open sink: %w", err)
		return item
	}

	itemLogger := r.logger.WithComponent(name)
	o := orchestrator.New(
		sample.NewStage(itemLogger),
		preprocess.NewStage(itemLogger),
		reconstruct.NewStage(r.codec, itemLogger),
		emit.NewStage(sink, itemLogger),
		r.previews,
		r.sink,
		itemLogger,
	)

	result, err := o.Run(ctx, pipelineConfig, source)
	item.DurationMs = time.Since(started).Milliseconds()
	if err != nil {
		item.Err = err
		return item
	}
	item.Result = result
	return item
}
