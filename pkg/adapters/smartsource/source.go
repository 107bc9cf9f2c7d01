// Package smartsource selects a video source implementation from the
// input file extension. Y4M streams are parsed natively, everything else
// is decoded through ffmpeg.
package smartsource

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/user/revid/pkg/adapters/ffmpegsource"
	"github.com/user/revid/pkg/adapters/y4mio"
	"github.com/user/revid/pkg/ports"
)

// Backend represents the decoding backend used.
type Backend string

const (
	// BackendY4M represents native YUV4MPEG2 parsing.
	BackendY4M Backend = "y4m"
	// BackendFFmpeg represents FFmpeg-based decoding.
	BackendFFmpeg Backend = "ffmpeg"
)

// Info contains information about the selected source.
type Info struct {
	// Backend is the decoding backend being used.
	Backend Backend
}

// Options configures the source selection.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// FFprobePath is an optional custom path to the ffprobe binary.
	FFprobePath string
}

// ErrUnsupportedFormat is returned for file types no backend can read.
var ErrUnsupportedFormat = errors.New("smartsource: unsupported format")

// New creates a video source for path based on its extension.
func New(path string, opts Options) (ports.VideoSource, Info, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".y4m":
		return y4mio.NewSource(path), Info{Backend: BackendY4M}, nil

	case ".mp4", ".mov", ".mkv", ".avi", ".webm":
		src, err := ffmpegsource.New(path, ffmpegsource.Options{
			FFmpegPath:  opts.FFmpegPath,
			FFprobePath: opts.FFprobePath,
		})
		if err != nil {
			return nil, Info{}, err
		}
		return src, Info{Backend: BackendFFmpeg}, nil

	default:
		return nil, Info{}, ErrUnsupportedFormat
	}
}
