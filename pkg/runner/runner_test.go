package runner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/user/revid/pkg/adapters/logger"
	"github.com/user/revid/pkg/mocks"
	"github.com/user/revid/pkg/orchestrator"
	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/stages/reconstruct"
)

type sinkRecorder struct {
	mu    sync.Mutex
	sinks map[string]*mocks.VideoSink
}

func newSinkRecorder() *sinkRecorder {
	return &sinkRecorder{sinks: make(map[string]*mocks.VideoSink)}
}

func (r *sinkRecorder) factory(path string) (ports.VideoSink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sink := &mocks.VideoSink{}
	r.sinks[path] = sink
	return sink, nil
}

func seededFS() *mocks.FileSystem {
	fs := mocks.NewFileSystem()
	fs.SetFile("in/a.mp4", []byte("a"))
	fs.SetFile("in/b.y4m", []byte("b"))
	fs.SetFile("in/.hidden.mp4", []byte("h"))
	fs.SetFile("in/notes.txt", []byte("n"))
	return fs
}

func defaultSources(path string) (ports.VideoSource, error) {
	return mocks.NewVideoSource(60, 64, 48, 30), nil
}

func newTestRunner(fs *mocks.FileSystem, sources SourceFactory, sinks SinkFactory) *Runner {
	return New(fs, &mocks.Codec{}, sources, sinks, nil, mocks.NewDebugSink(false), logger.NewNoop())
}

func testConfigs() (Config, orchestrator.Config) {
	config := Config{
		InputDir:  "in",
		OutputDir: "out",
		OutputExt: ".mp4",
		Workers:   2,
	}
	pipelineConfig := orchestrator.DefaultConfig()
	pipelineConfig.Resolution = 16
	return config, pipelineConfig
}

func TestRun_Batch(t *testing.T) {
	sinks := newSinkRecorder()
	r := newTestRunner(seededFS(), defaultSources, sinks.factory)

	config, pipelineConfig := testConfigs()
	batch, err := r.Run(context.Background(), config, pipelineConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if batch.Succeeded != 2 || batch.Failed != 0 {
		t.Errorf("expected 2 succeeded, got %d/%d", batch.Succeeded, batch.Failed)
	}
	if len(batch.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(batch.Items))
	}
	// Sorted scan order, dot files and non-video files skipped.
	if batch.Items[0].Name != "a.mp4" || batch.Items[1].Name != "b.y4m" {
		t.Errorf("unexpected item order: %s, %s", batch.Items[0].Name, batch.Items[1].Name)
	}
	// Output extension replaces the input one.
	if batch.Items[1].OutputPath != "out/b.mp4" {
		t.Errorf("expected out/b.mp4, got %s", batch.Items[1].OutputPath)
	}

	for path, sink := range sinks.sinks {
		if !sink.EndCalled {
			t.Errorf("sink %s was not finalized", path)
		}
	}
}

func TestRun_InvalidChunkingAbortsBeforeWork(t *testing.T) {
	sinks := newSinkRecorder()
	calls := 0
	sources := func(path string) (ports.VideoSource, error) {
		calls++
		return defaultSources(path)
	}
	r := newTestRunner(seededFS(), sources, sinks.factory)

	config, pipelineConfig := testConfigs()
	pipelineConfig.ChunkSize = 16

	_, err := r.Run(context.Background(), config, pipelineConfig)
	if !errors.Is(err, reconstruct.ErrInvalidChunking) {
		t.Fatalf("expected chunking error, got %v", err)
	}
	if calls != 0 {
		t.Errorf("no source should be opened, got %d", calls)
	}
}

func TestRun_PerItemIsolation(t *testing.T) {
	sinks := newSinkRecorder()
	wantErr := errors.New("container damaged")
	sources := func(path string) (ports.VideoSource, error) {
		if path == "in/a.mp4" {
			return nil, wantErr
		}
		return defaultSources(path)
	}
	r := newTestRunner(seededFS(), sources, sinks.factory)

	config, pipelineConfig := testConfigs()
	batch, err := r.Run(context.Background(), config, pipelineConfig)
	if err != nil {
		t.Fatalf("a failing item must not abort the batch: %v", err)
	}

	if batch.Succeeded != 1 || batch.Failed != 1 {
		t.Errorf("expected 1/1, got %d/%d", batch.Succeeded, batch.Failed)
	}
	if !errors.Is(batch.Items[0].Err, wantErr) {
		t.Errorf("expected recorded item error, got %v", batch.Items[0].Err)
	}
	if batch.Items[1].Err != nil {
		t.Errorf("second item should succeed, got %v", batch.Items[1].Err)
	}
}

func TestRun_Limit(t *testing.T) {
	sinks := newSinkRecorder()
	r := newTestRunner(seededFS(), defaultSources, sinks.factory)

	config, pipelineConfig := testConfigs()
	config.Limit = 1

	batch, err := r.Run(context.Background(), config, pipelineConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Items) != 1 || batch.Items[0].Name != "a.mp4" {
		t.Errorf("expected only a.mp4, got %+v", batch.Items)
	}
}

func TestRun_EmptyDirectory(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.SetFile("in/readme.md", []byte("x"))
	r := newTestRunner(fs, defaultSources, newSinkRecorder().factory)

	config, pipelineConfig := testConfigs()
	if _, err := r.Run(context.Background(), config, pipelineConfig); err == nil {
		t.Fatal("expected error for a directory without videos")
	}
}
