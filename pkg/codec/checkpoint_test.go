package codec

import (
	"errors"
	"testing"

	"github.com/user/revid/pkg/mocks"
)

func TestCheckpoint_RoundTrip(t *testing.T) {
	fs := mocks.NewFileSystem()

	original := &Checkpoint{
		TemporalCompression: 4,
		SpatialCompression:  8,
		LatentChannels:      3,
		Gain:                []float32{1.5, 0.75, 2.25},
		Bias:                []float32{0.1, -0.1, 0},
		LogVar:              []float32{-10, -12, -14},
	}

	if err := SaveCheckpoint(fs, "model.rvc", original); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := LoadCheckpoint(fs, "model.rvc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loaded.TemporalCompression != 4 || loaded.SpatialCompression != 8 {
		t.Errorf("compression factors lost: %+v", loaded)
	}
	if loaded.LatentChannels != 3 {
		t.Errorf("expected 3 latent channels, got %d", loaded.LatentChannels)
	}
	for c := 0; c < 3; c++ {
		if loaded.Gain[c] != original.Gain[c] || loaded.Bias[c] != original.Bias[c] || loaded.LogVar[c] != original.LogVar[c] {
			t.Errorf("channel %d parameters lost", c)
		}
	}
}

func TestLoadCheckpoint_Missing(t *testing.T) {
	fs := mocks.NewFileSystem()
	if _, err := LoadCheckpoint(fs, "absent.rvc"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadCheckpoint_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"wrong magic", []byte("NOPE\x01\x00\x00\x00")},
		{"truncated header", []byte("RVC1\x01\x00")},
		{"bad version", []byte("RVC1\x09\x00\x00\x00\x04\x00\x00\x00\x08\x00\x00\x00\x03\x00\x00\x00")},
		{"truncated tables", []byte("RVC1\x01\x00\x00\x00\x04\x00\x00\x00\x08\x00\x00\x00\x03\x00\x00\x00\x00\x00")},
		{"absurd channel count", []byte("RVC1\x01\x00\x00\x00\x04\x00\x00\x00\x08\x00\x00\x00\xff\xff\xff\xff")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			fs.SetFile("model.rvc", tt.data)
			_, err := LoadCheckpoint(fs, "model.rvc")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrBadCheckpoint) {
				t.Errorf("expected ErrBadCheckpoint, got %v", err)
			}
		})
	}
}

func TestCheckpoint_MarshalRejectsZeroGain(t *testing.T) {
	ckpt := DefaultCheckpoint()
	ckpt.Gain[1] = 0
	if _, err := ckpt.Marshal(); err == nil {
		t.Fatal("expected error for zero gain")
	}
}
