package ffmpegsource

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"width": 1280, "height": 720, "avg_frame_rate": "24000/1001", "nb_frames": "240"}
		],
		"format": {"duration": "10.010000"}
	}`)

	info, err := parseProbeOutput(data)
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}

	if info.TotalFrames != 240 {
		t.Errorf("expected 240 frames, got %d", info.TotalFrames)
	}
	if info.Width != 1280 || info.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", info.Width, info.Height)
	}
	if math.Abs(info.FPS-23.976) > 0.001 {
		t.Errorf("expected ~23.976 fps, got %f", info.FPS)
	}
}

func TestParseProbeOutput_DerivesCountFromDuration(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"width": 640, "height": 480, "avg_frame_rate": "30"}
		],
		"format": {"duration": "2.5"}
	}`)

	info, err := parseProbeOutput(data)
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}

	if info.TotalFrames != 75 {
		t.Errorf("expected 75 frames from 2.5s at 30fps, got %d", info.TotalFrames)
	}
}

func TestParseProbeOutput_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"no streams", `{"streams": [], "format": {}}`},
		{"zero dimensions", `{"streams": [{"width": 0, "height": 0, "avg_frame_rate": "30", "nb_frames": "10"}]}`},
		{"bad frame rate", `{"streams": [{"width": 10, "height": 10, "avg_frame_rate": "x/y", "nb_frames": "10"}]}`},
		{"no count or duration", `{"streams": [{"width": 10, "height": 10, "avg_frame_rate": "30"}], "format": {}}`},
		{"not json", `moov`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseProbeOutput([]byte(tc.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"30", 30, true},
		{"30000/1001", 29.97, true},
		{"25/1", 25, true},
		{"0/0", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, err := parseFrameRate(tc.in)
		if tc.ok {
			if err != nil {
				t.Errorf("parseFrameRate(%q) failed: %v", tc.in, err)
			} else if math.Abs(got-tc.want) > 0.01 {
				t.Errorf("parseFrameRate(%q) = %f, want %f", tc.in, got, tc.want)
			}
		} else if err == nil {
			t.Errorf("parseFrameRate(%q) expected error", tc.in)
		}
	}
}

// rawFrames builds a stream of rgb24 frames where every pixel of frame t
// has R = t.
func rawFrames(count, width, height int) []byte {
	var buf bytes.Buffer
	for t := 0; t < count; t++ {
		for p := 0; p < width*height; p++ {
			buf.WriteByte(byte(t))
			buf.WriteByte(0)
			buf.WriteByte(0)
		}
	}
	return buf.Bytes()
}

func TestReadSelected(t *testing.T) {
	stream := rawFrames(10, 4, 2)

	frames, err := readSelected(context.Background(), bytes.NewReader(stream), 4, 2, []int{0, 3, 3, 7})
	if err != nil {
		t.Fatalf("readSelected failed: %v", err)
	}

	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}

	want := []uint8{0, 3, 3, 7}
	for i, img := range frames {
		r, _, _, _ := img.At(0, 0).RGBA()
		if uint8(r>>8) != want[i] {
			t.Errorf("frame %d: expected R=%d, got %d", i, want[i], uint8(r>>8))
		}
	}
}

func TestReadSelected_StopsAtLastIndex(t *testing.T) {
	// Only 5 frames in the stream but the last wanted index is 4, so the
	// truncated tail is never touched.
	stream := rawFrames(5, 4, 2)

	frames, err := readSelected(context.Background(), bytes.NewReader(stream), 4, 2, []int{4})
	if err != nil {
		t.Fatalf("readSelected failed: %v", err)
	}
	if len(frames) != 1 {
		t.Errorf("expected 1 frame, got %d", len(frames))
	}
}

func TestReadSelected_ShortStream(t *testing.T) {
	stream := rawFrames(3, 4, 2)

	_, err := readSelected(context.Background(), bytes.NewReader(stream), 4, 2, []int{5})
	if err == nil {
		t.Fatal("expected error for index beyond stream")
	}
}

func TestReadSelected_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := rawFrames(3, 4, 2)
	_, err := readSelected(ctx, bytes.NewReader(stream), 4, 2, []int{0})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestValidateIndices(t *testing.T) {
	if err := validateIndices([]int{0, 1, 1, 5}); err != nil {
		t.Errorf("valid indices rejected: %v", err)
	}
	if err := validateIndices([]int{3, 1}); err == nil {
		t.Error("expected error for decreasing indices")
	}
	if err := validateIndices([]int{-1}); err == nil {
		t.Error("expected error for negative index")
	}
}

func TestRGB24ToImage(t *testing.T) {
	buf := []byte{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 10, 20, 30,
	}

	img := rgb24ToImage(buf, 2, 2)

	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("pixel (0,0) = %v", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("pixel (1,0) = %v", got)
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("pixel (1,1) = %v", got)
	}
}

func TestFindFFmpeg_CustomPath(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := FindFFmpeg(fake)
	if err != nil {
		t.Fatalf("FindFFmpeg failed: %v", err)
	}
	if path != fake {
		t.Errorf("expected %s, got %s", fake, path)
	}
}

func TestFindFFmpeg_CustomPathMissing(t *testing.T) {
	_, err := FindFFmpeg("/nonexistent/ffmpeg")
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
}

func TestFindFFprobe_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FFPROBE_PATH", fake)

	path, err := FindFFprobe("")
	if err != nil {
		t.Fatalf("FindFFprobe failed: %v", err)
	}
	if path != fake {
		t.Errorf("expected %s, got %s", fake, path)
	}
}
