package mp4probe

import (
	"bytes"
	"math"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
)

// buildFragmentedMP4 assembles a minimal fragmented MP4 with a single
// video track: numFrames samples of sampleDur ticks at the given timescale.
func buildFragmentedMP4(t *testing.T, numFrames int, timescale, sampleDur uint32, width, height uint16) []byte {
	t.Helper()

	trackID := uint32(1)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")

	trak := init.Moov.Trak
	entry := mp4.CreateVisualSampleEntryBox("avc1", width, height, nil)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
	trak.Tkhd.Width = mp4.Fixed32(uint32(width) << 16)
	trak.Tkhd.Height = mp4.Fixed32(uint32(height) << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}

	payload := []byte{0, 0, 0, 1}
	for i := 0; i < numFrames; i++ {
		flags := mp4.NonSyncSampleFlags
		if i == 0 {
			flags = mp4.SyncSampleFlags
		}
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(payload)),
				Dur:   sampleDur,
			},
			DecodeTime: uint64(i) * uint64(sampleDur),
			Data:       payload,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatalf("encode fragment: %v", err)
	}

	return buf.Bytes()
}

func TestProbe_FragmentedMP4(t *testing.T) {
	// 10 frames at 30fps: timescale 30000, 1000 ticks per frame.
	data := buildFragmentedMP4(t, 10, 30000, 1000, 64, 48)

	info, err := Probe(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if info.TotalFrames != 10 {
		t.Errorf("expected 10 frames, got %d", info.TotalFrames)
	}
	if info.Width != 64 || info.Height != 48 {
		t.Errorf("expected 64x48, got %dx%d", info.Width, info.Height)
	}
	if math.Abs(info.FPS-30.0) > 0.01 {
		t.Errorf("expected 30 fps, got %f", info.FPS)
	}
}

func TestProbe_NoVideoTrack(t *testing.T) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(48000, "audio", "en")

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}

	_, err := Probe(bytes.NewReader(buf.Bytes()))
	if err == nil {
		t.Fatal("expected error for audio-only file")
	}
}

func TestProbe_Garbage(t *testing.T) {
	_, err := Probe(bytes.NewReader([]byte("not an mp4 file at all")))
	if err == nil {
		t.Fatal("expected error for garbage input")
	}
}
