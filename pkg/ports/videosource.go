package ports

import (
	"context"
	"image"
)

// SourceInfo describes a video file before any frames are decoded.
type SourceInfo struct {
	TotalFrames int
	Width       int
	Height      int
	FPS         float64
}

// VideoSource abstracts random-access frame retrieval from a video file.
type VideoSource interface {
	// Probe returns the frame count, dimensions and frame rate.
	Probe() (SourceInfo, error)

	// ReadFrames returns the frames at the given ordered indices as rasters.
	// Indices must be non-decreasing; repeated indices yield repeated frames.
	ReadFrames(ctx context.Context, indices []int) ([]image.Image, error)

	// Close releases decoder resources.
	Close() error
}
