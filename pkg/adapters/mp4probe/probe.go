// Package mp4probe inspects MP4 containers without decoding any video.
// It walks the moov box to report frame count, dimensions and frame rate,
// which is much cheaper than spawning ffprobe for .mp4 inputs.
package mp4probe

import (
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/revid/pkg/ports"
)

// ProbeFile probes an MP4 file on disk.
func ProbeFile(path string) (ports.SourceInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.SourceInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// Probe parses the MP4 container from reader and returns its metadata.
func Probe(reader io.ReadSeeker) (ports.SourceInfo, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return ports.SourceInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	if mp4File.IsFragmented() {
		return probeFragmented(mp4File)
	}
	return probeProgressive(mp4File)
}

func probeProgressive(mp4File *mp4.File) (ports.SourceInfo, error) {
	if mp4File.Moov == nil {
		return ports.SourceInfo{}, fmt.Errorf("no moov box found")
	}

	trak := findVideoTrack(mp4File.Moov)
	if trak == nil {
		return ports.SourceInfo{}, fmt.Errorf("no video track found")
	}

	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return ports.SourceInfo{}, fmt.Errorf("no sample table found")
	}
	stbl := trak.Mdia.Minf.Stbl

	if stbl.Stsz == nil {
		return ports.SourceInfo{}, fmt.Errorf("no stsz box found")
	}
	sampleCount := int(stbl.Stsz.SampleNumber)
	if sampleCount == 0 {
		return ports.SourceInfo{}, fmt.Errorf("video track has no samples")
	}

	width, height := trackDimensions(trak)
	if width == 0 || height == 0 {
		return ports.SourceInfo{}, fmt.Errorf("video track has no dimensions")
	}

	var timescale uint32 = 1000
	var duration uint64
	if trak.Mdia.Mdhd != nil {
		timescale = trak.Mdia.Mdhd.Timescale
		duration = trak.Mdia.Mdhd.Duration
	}

	fps := frameRate(sampleCount, timescale, duration)

	return ports.SourceInfo{
		TotalFrames: sampleCount,
		Width:       width,
		Height:      height,
		FPS:         fps,
	}, nil
}

func probeFragmented(mp4File *mp4.File) (ports.SourceInfo, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return ports.SourceInfo{}, fmt.Errorf("no init moov box found")
	}

	trak := findVideoTrack(mp4File.Init.Moov)
	if trak == nil {
		return ports.SourceInfo{}, fmt.Errorf("no video track found")
	}
	trackID := trak.Tkhd.TrackID

	width, height := trackDimensions(trak)
	if width == 0 || height == 0 {
		return ports.SourceInfo{}, fmt.Errorf("video track has no dimensions")
	}

	var timescale uint32 = 1000
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil {
		timescale = trak.Mdia.Mdhd.Timescale
	}

	var trex *mp4.TrexBox
	if mp4File.Init.Moov.Mvex != nil {
		for _, t := range mp4File.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	// Walk all fragments belonging to the video track and accumulate
	// sample counts and durations.
	var sampleCount int
	var duration uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != trackID {
					continue
				}
				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return ports.SourceInfo{}, fmt.Errorf("get samples: %w", err)
				}
				for _, sample := range samples {
					sampleCount++
					duration += uint64(sample.Dur)
				}
			}
		}
	}
	if sampleCount == 0 {
		return ports.SourceInfo{}, fmt.Errorf("video track has no samples")
	}

	fps := frameRate(sampleCount, timescale, duration)

	return ports.SourceInfo{
		TotalFrames: sampleCount,
		Width:       width,
		Height:      height,
		FPS:         fps,
	}, nil
}

func findVideoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

// trackDimensions prefers the coded size from the visual sample entry and
// falls back to the tkhd presentation size (16.16 fixed point).
func trackDimensions(trak *mp4.TrakBox) (int, int) {
	if trak.Mdia != nil && trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil &&
		trak.Mdia.Minf.Stbl.Stsd != nil {
		for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
			if entry, ok := child.(*mp4.VisualSampleEntryBox); ok {
				if entry.Width > 0 && entry.Height > 0 {
					return int(entry.Width), int(entry.Height)
				}
			}
		}
	}
	if trak.Tkhd != nil {
		return int(trak.Tkhd.Width >> 16), int(trak.Tkhd.Height >> 16)
	}
	return 0, 0
}

func frameRate(sampleCount int, timescale uint32, duration uint64) float64 {
	if duration == 0 || timescale == 0 {
		return 0
	}
	seconds := float64(duration) / float64(timescale)
	return float64(sampleCount) / seconds
}
