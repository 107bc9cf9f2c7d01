// Package smartsink selects a video sink implementation from the output
// file extension. Y4M files are written natively, MP4 goes through ffmpeg.
package smartsink

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/user/revid/pkg/adapters/ffmpegsink"
	"github.com/user/revid/pkg/adapters/y4mio"
	"github.com/user/revid/pkg/ports"
)

// Backend represents the encoding backend used.
type Backend string

const (
	// BackendY4M represents native YUV4MPEG2 writing.
	BackendY4M Backend = "y4m"
	// BackendFFmpeg represents FFmpeg-based encoding.
	BackendFFmpeg Backend = "ffmpeg"
)

// Info contains information about the selected sink.
type Info struct {
	// Backend is the encoding backend being used.
	Backend Backend
}

// Options configures the sink selection.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// CRF is the x264 constant rate factor for ffmpeg-backed outputs.
	CRF int
	// Preset is the x264 speed preset for ffmpeg-backed outputs.
	Preset string
}

// ErrUnsupportedFormat is returned for file types no backend can write.
var ErrUnsupportedFormat = errors.New("smartsink: unsupported format")

// New creates a video sink for path based on its extension.
func New(path string, opts Options) (ports.VideoSink, Info, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".y4m":
		return y4mio.NewSink(path), Info{Backend: BackendY4M}, nil

	case ".mp4", ".mov":
		return ffmpegsink.New(path, ffmpegsink.Options{
			FFmpegPath: opts.FFmpegPath,
			CRF:        opts.CRF,
			Preset:     opts.Preset,
		}), Info{Backend: BackendFFmpeg}, nil

	default:
		return nil, Info{}, ErrUnsupportedFormat
	}
}
