package reconstruct

import (
	"context"
	"errors"
	"testing"

	"github.com/user/revid/pkg/adapters/logger"
	"github.com/user/revid/pkg/mocks"
	"github.com/user/revid/pkg/pipeline"
	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/tensor"
)

// rampVideo returns a (1,T,2,2) tensor where every pixel of frame t holds t.
func rampVideo(total int) tensor.Tensor {
	x := tensor.New(1, total, 2, 2)
	for t := 0; t < total; t++ {
		for y := 0; y < 2; y++ {
			for px := 0; px < 2; px++ {
				x.Set(0, t, y, px, float32(t))
			}
		}
	}
	return x
}

func TestValidateChunking(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		tc        int
		valid     bool
	}{
		{"13+4 fits tc 4", 13, 4, 4, true},
		{"17+4 fits tc 4", 17, 4, 4, true},
		{"16+4 misses tc 4", 16, 4, 4, false},
		{"17+3 misses tc 4", 17, 3, 4, false},
		{"zero chunk", 0, 4, 4, false},
		{"negative overlap", 13, -1, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunking(tt.chunkSize, tt.overlap, tt.tc)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrInvalidChunking) {
					t.Errorf("expected ErrInvalidChunking, got %v", err)
				}
			}
		})
	}
}

func TestStage_PreconditionFiresBeforeCodec(t *testing.T) {
	codec := &mocks.Codec{}
	stage := NewStage(codec, logger.NewNoop())

	input := pipeline.ReconstructInput{
		Video:     rampVideo(40),
		ChunkSize: 16,
		Overlap:   4,
	}

	_, err := stage.Execute(context.Background(), input)
	if !errors.Is(err, ErrInvalidChunking) {
		t.Fatalf("expected ErrInvalidChunking, got %v", err)
	}
	if len(codec.EncodeCalls) != 0 {
		t.Errorf("codec must not run on invalid configuration, got %d encode calls", len(codec.EncodeCalls))
	}
}

func TestComputePlan_LookaheadExtension(t *testing.T) {
	plan := ComputePlan(37, 13, 4)
	expected := []pipeline.Window{
		{Start: 0, End: 17, Extended: true},
		{Start: 13, End: 30, Extended: true},
		{Start: 26, End: 37, Extended: false},
	}
	if len(plan) != len(expected) {
		t.Fatalf("expected %d windows, got %d", len(expected), len(plan))
	}
	for i, want := range expected {
		if plan[i] != want {
			t.Errorf("window %d: expected %+v, got %+v", i, want, plan[i])
		}
	}
}

func TestStage_ThreeWindowsTwoSeams(t *testing.T) {
	codec := &mocks.Codec{}
	stage := NewStage(codec, logger.NewNoop())

	input := pipeline.ReconstructInput{
		Video:     rampVideo(37),
		ChunkSize: 13,
		Overlap:   4,
	}

	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Plan) != 3 {
		t.Errorf("expected 3 windows, got %d", len(result.Plan))
	}
	if result.Seams != 2 {
		t.Errorf("expected 2 blended seams, got %d", result.Seams)
	}
	// Encode saw the extended windows: [0,17), [13,30), [26,37).
	wantLens := []int{17, 17, 11}
	if len(codec.EncodeCalls) != 3 {
		t.Fatalf("expected 3 encode calls, got %d", len(codec.EncodeCalls))
	}
	for i, want := range wantLens {
		if codec.EncodeCalls[i] != want {
			t.Errorf("window %d length: expected %d, got %d", i, want, codec.EncodeCalls[i])
		}
	}
	// Contributions: 17 (merged first) + 13 (trimmed second) + 11 (entire
	// final window, which reached the end of the sequence).
	if result.Video.T != 41 {
		t.Errorf("expected 41 output frames, got %d", result.Video.T)
	}
}

func TestStage_SingleWindowNoBlend(t *testing.T) {
	codec := &mocks.Codec{}
	stage := NewStage(codec, logger.NewNoop())

	video := rampVideo(17)
	input := pipeline.ReconstructInput{
		Video:     video,
		ChunkSize: 17,
		Overlap:   4,
	}

	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Seams != 0 {
		t.Errorf("expected no seams, got %d", result.Seams)
	}
	if len(codec.EncodeCalls) != 1 {
		t.Errorf("expected a single codec pass, got %d", len(codec.EncodeCalls))
	}
	if result.Video.T != 17 {
		t.Fatalf("expected 17 frames, got %d", result.Video.T)
	}
	// Identity codec, single window: output equals input bit for bit.
	for i := range video.Data {
		if result.Video.Data[i] != video.Data[i] {
			t.Fatalf("output differs from input at element %d", i)
		}
	}
}

func TestStage_TwoWindowsLengthPreserved(t *testing.T) {
	codec := &mocks.Codec{}
	stage := NewStage(codec, logger.NewNoop())

	input := pipeline.ReconstructInput{
		Video:     rampVideo(17),
		ChunkSize: 13,
		Overlap:   4,
	}

	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Seams != 1 {
		t.Errorf("expected 1 seam, got %d", result.Seams)
	}
	if result.Video.T != 17 {
		t.Errorf("expected 17 output frames, got %d", result.Video.T)
	}
	// Frames before the seam pass through untouched.
	if got := result.Video.At(0, 0, 0, 0); got != 0 {
		t.Errorf("frame 0: expected 0, got %v", got)
	}
	if got := result.Video.At(0, 8, 0, 0); got != 8 {
		t.Errorf("frame 8: expected 8, got %v", got)
	}
}

func TestStage_BlendWeights(t *testing.T) {
	codec := &mocks.Codec{}
	stage := NewStage(codec, logger.NewNoop())

	// Two windows [0,13) and [13,17). The first window's last 4 frames hold
	// 1.0 and the second window's frames hold 0.0, so each blended frame is
	// 1.0*0.25 + 0.0*0.75 = 0.25.
	video := tensor.New(1, 17, 2, 2)
	for t0 := 9; t0 < 13; t0++ {
		for y := 0; y < 2; y++ {
			for px := 0; px < 2; px++ {
				video.Set(0, t0, y, px, 1.0)
			}
		}
	}

	input := pipeline.ReconstructInput{
		Video:     video,
		ChunkSize: 13,
		Overlap:   4,
	}

	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for t0 := 9; t0 < 13; t0++ {
		if got := result.Video.At(0, t0, 0, 0); got != 0.25 {
			t.Errorf("frame %d: expected blended 0.25, got %v", t0, got)
		}
	}
	// Frames outside the blend span are untouched.
	if got := result.Video.At(0, 8, 0, 0); got != 0 {
		t.Errorf("frame 8: expected 0, got %v", got)
	}
	if got := result.Video.At(0, 13, 0, 0); got != 0 {
		t.Errorf("frame 13: expected 0, got %v", got)
	}
}

func TestStage_Deterministic(t *testing.T) {
	run := func() tensor.Tensor {
		codec := &mocks.Codec{}
		stage := NewStage(codec, logger.NewNoop())
		input := pipeline.ReconstructInput{
			Video:     rampVideo(37),
			ChunkSize: 13,
			Overlap:   4,
		}
		result, err := stage.Execute(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return result.Video
	}

	a, b := run(), run()
	if a.T != b.T {
		t.Fatalf("run lengths differ: %d vs %d", a.T, b.T)
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("runs differ at element %d: %v vs %v", i, a.Data[i], b.Data[i])
		}
	}
}

func TestStage_CodecErrorPropagates(t *testing.T) {
	wantErr := errors.New("device exhausted")
	codec := &mocks.Codec{
		EncodeFunc: func(x tensor.Tensor) (ports.LatentDistribution, error) {
			return nil, wantErr
		},
	}
	stage := NewStage(codec, logger.NewNoop())

	input := pipeline.ReconstructInput{
		Video:     rampVideo(17),
		ChunkSize: 17,
		Overlap:   4,
	}
	_, err := stage.Execute(context.Background(), input)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected codec error to propagate, got %v", err)
	}
}
