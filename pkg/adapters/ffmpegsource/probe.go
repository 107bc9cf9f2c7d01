package ffmpegsource

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/user/revid/pkg/ports"
)

type probeStream struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// probeWithFFprobe runs ffprobe on path and parses the JSON report.
func probeWithFFprobe(ctx context.Context, ffprobePath, path string) (ports.SourceInfo, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	}

	cmd := exec.CommandContext(ctx, ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return ports.SourceInfo{}, fmt.Errorf("ffprobe: %w", err)
	}

	return parseProbeOutput(output)
}

// parseProbeOutput interprets an ffprobe JSON report. When the container
// does not carry an exact frame count the count is derived from the
// duration and frame rate.
func parseProbeOutput(data []byte) (ports.SourceInfo, error) {
	var report probeOutput
	if err := json.Unmarshal(data, &report); err != nil {
		return ports.SourceInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	if len(report.Streams) == 0 {
		return ports.SourceInfo{}, fmt.Errorf("no video streams found")
	}
	stream := report.Streams[0]

	if stream.Width <= 0 || stream.Height <= 0 {
		return ports.SourceInfo{}, fmt.Errorf("invalid dimensions %dx%d", stream.Width, stream.Height)
	}

	fps, err := parseFrameRate(stream.AvgFrameRate)
	if err != nil {
		return ports.SourceInfo{}, err
	}

	totalFrames := 0
	if stream.NbFrames != "" {
		if n, err := strconv.Atoi(stream.NbFrames); err == nil && n > 0 {
			totalFrames = n
		}
	}
	if totalFrames == 0 {
		if report.Format.Duration == "" {
			return ports.SourceInfo{}, fmt.Errorf("no frame count or duration in ffprobe output")
		}
		duration, err := strconv.ParseFloat(report.Format.Duration, 64)
		if err != nil {
			return ports.SourceInfo{}, fmt.Errorf("invalid duration %q", report.Format.Duration)
		}
		totalFrames = int(math.Round(duration * fps))
		if totalFrames <= 0 {
			return ports.SourceInfo{}, fmt.Errorf("derived zero frames from duration %s", report.Format.Duration)
		}
	}

	return ports.SourceInfo{
		TotalFrames: totalFrames,
		Width:       stream.Width,
		Height:      stream.Height,
		FPS:         fps,
	}, nil
}

// parseFrameRate handles both rational ("24000/1001") and plain ("30")
// frame rate notations.
func parseFrameRate(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing frame rate")
	}
	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) != 2 {
			return 0, fmt.Errorf("invalid frame rate %q", s)
		}
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return 0, fmt.Errorf("invalid frame rate %q", s)
		}
		return num / den, nil
	}
	fps, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	return fps, nil
}
