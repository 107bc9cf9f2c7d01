package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/user/revid/pkg/adapters/logger"
	"github.com/user/revid/pkg/mocks"
	"github.com/user/revid/pkg/preview"
	"github.com/user/revid/pkg/stages/emit"
	"github.com/user/revid/pkg/stages/preprocess"
	"github.com/user/revid/pkg/stages/reconstruct"
	"github.com/user/revid/pkg/stages/sample"
)

func newTestOrchestrator(videoSink *mocks.VideoSink, debugSink *mocks.DebugSink) *Orchestrator {
	log := logger.NewNoop()
	return New(
		sample.NewStage(log),
		preprocess.NewStage(log),
		reconstruct.NewStage(&mocks.Codec{}, log),
		emit.NewStage(videoSink, log),
		preview.NewBuilder(&mocks.Renderer{}),
		debugSink,
		log,
	)
}

func testConfig() Config {
	config := DefaultConfig()
	config.Resolution = 16
	return config
}

func TestRun_HappyPath(t *testing.T) {
	videoSink := &mocks.VideoSink{}
	debugSink := mocks.NewDebugSink(false)
	o := newTestOrchestrator(videoSink, debugSink)

	source := mocks.NewVideoSource(100, 64, 48, 30)

	result, err := o.Run(context.Background(), testConfig(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SampledFrames != 17 {
		t.Errorf("expected 17 sampled frames, got %d", result.SampledFrames)
	}
	if result.Reduced {
		t.Error("100-frame source should not trigger reduction")
	}
	// 48 scales to 16, 64 scales to 21 and trims to 16.
	if result.OutputWidth != 16 || result.OutputHeight != 16 {
		t.Errorf("expected 16x16 output, got %dx%d", result.OutputWidth, result.OutputHeight)
	}
	if result.Windows != 1 || result.Seams != 0 {
		t.Errorf("17 frames in one window: got %d windows, %d seams", result.Windows, result.Seams)
	}
	if result.OutputFrames != 17 {
		t.Errorf("expected 17 output frames, got %d", result.OutputFrames)
	}
	if result.OutputFPS != 30 {
		t.Errorf("expected 30 fps, got %v", result.OutputFPS)
	}
	if !videoSink.EndCalled {
		t.Error("expected the output video to be finalized")
	}
}

func TestRun_DebugArtifacts(t *testing.T) {
	videoSink := &mocks.VideoSink{}
	debugSink := mocks.NewDebugSink(true)
	o := newTestOrchestrator(videoSink, debugSink)

	config := testConfig()
	config.NumFrames = 30
	config.ChunkSize = 13

	source := mocks.NewVideoSource(100, 64, 48, 30)
	if _, err := o.Run(context.Background(), config, source); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if debugSink.IndicesJSON == nil {
		t.Error("expected sampled indices to be saved")
	}
	if debugSink.PlanJSON == nil {
		t.Error("expected the chunk plan to be saved")
	}
	if !strings.Contains(string(debugSink.PlanJSON), "\"start\"") {
		t.Errorf("plan JSON malformed: %s", debugSink.PlanJSON)
	}
	if len(debugSink.ContactSheets) == 0 {
		t.Error("expected contact sheets")
	}
	if len(debugSink.SeamStrips) == 0 {
		t.Error("expected seam strips")
	}
}

func TestRun_SampleErrorWrapped(t *testing.T) {
	videoSink := &mocks.VideoSink{}
	o := newTestOrchestrator(videoSink, mocks.NewDebugSink(false))

	wantErr := errors.New("decoder crashed")
	source := mocks.NewVideoSource(100, 64, 48, 30)
	source.ReadFramesFunc = func(ctx context.Context, indices []int) ([]image.Image, error) {
		return nil, wantErr
	}

	_, err := o.Run(context.Background(), testConfig(), source)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected source error, got %v", err)
	}
	if !strings.Contains(err.Error(), "sample stage") {
		t.Errorf("expected stage name in error, got %v", err)
	}
	if videoSink.BeginCalled {
		t.Error("sink must stay untouched after a sampling failure")
	}
}

func TestRun_InvalidChunkingAborts(t *testing.T) {
	videoSink := &mocks.VideoSink{}
	o := newTestOrchestrator(videoSink, mocks.NewDebugSink(false))

	config := testConfig()
	config.ChunkSize = 16

	source := mocks.NewVideoSource(100, 64, 48, 30)
	_, err := o.Run(context.Background(), config, source)
	if !errors.Is(err, reconstruct.ErrInvalidChunking) {
		t.Fatalf("expected chunking error, got %v", err)
	}
	if videoSink.BeginCalled {
		t.Error("sink must stay untouched after a chunking failure")
	}
}

func TestConfig_OutputFPS(t *testing.T) {
	tests := []struct {
		sampleFPS  float64
		sampleRate int
		want       float64
	}{
		{30, 1, 30},
		{30, 2, 15},
		{24, 3, 8},
		{30, 0, 30},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v_%d", tt.sampleFPS, tt.sampleRate), func(t *testing.T) {
			config := Config{SampleFPS: tt.sampleFPS, SampleRate: tt.sampleRate}
			if got := config.OutputFPS(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
