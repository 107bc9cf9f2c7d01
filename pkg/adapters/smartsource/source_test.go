package smartsource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func fakeBinary(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_Y4M(t *testing.T) {
	src, info, err := New("clip.y4m", Options{})
	if err != nil {
		t.Fatalf("failed to create y4m source: %v", err)
	}
	if src == nil {
		t.Fatal("source is nil")
	}
	if info.Backend != BackendY4M {
		t.Errorf("expected backend y4m, got %s", info.Backend)
	}
}

func TestNew_MP4(t *testing.T) {
	opts := Options{
		FFmpegPath:  fakeBinary(t, "ffmpeg"),
		FFprobePath: fakeBinary(t, "ffprobe"),
	}

	src, info, err := New("clip.MP4", opts)
	if err != nil {
		t.Fatalf("failed to create ffmpeg source: %v", err)
	}
	if src == nil {
		t.Fatal("source is nil")
	}
	if info.Backend != BackendFFmpeg {
		t.Errorf("expected backend ffmpeg, got %s", info.Backend)
	}
}

func TestNew_UnsupportedFormat(t *testing.T) {
	_, _, err := New("notes.txt", Options{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
