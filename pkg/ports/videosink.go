package ports

import (
	"image"
)

// VideoSink abstracts writing a sequence of rasters as a playable video.
type VideoSink interface {
	// Begin initializes the sink with the output dimensions and frame rate.
	Begin(width, height int, fps float64) error

	// WriteFrame appends a single frame.
	WriteFrame(img image.Image) error

	// End finalizes the output file.
	End() error
}
