// Package preview renders debug artifacts for the reconstruction pipeline:
// contact sheets of codec windows and strips around blended seams.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"github.com/user/revid/pkg/pipeline"
	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/tensor"
)

// Theme holds the colors and metrics used by the preview renderer.
type Theme struct {
	Background color.Color
	Border     color.Color
	Label      color.Color
	Gap        int
	ThumbWidth int
	FontSize   float64
}

// DefaultTheme returns the standard preview theme.
func DefaultTheme() Theme {
	return Theme{
		Background: color.RGBA{R: 24, G: 24, B: 24, A: 255},
		Border:     color.RGBA{R: 90, G: 90, B: 90, A: 255},
		Label:      color.RGBA{R: 230, G: 230, B: 230, A: 255},
		Gap:        8,
		ThumbWidth: 96,
		FontSize:   12,
	}
}

// Builder renders preview images through a Renderer.
type Builder struct {
	renderer ports.Renderer
	theme    Theme
}

// NewBuilder creates a preview builder with the default theme.
func NewBuilder(renderer ports.Renderer) *Builder {
	return &Builder{
		renderer: renderer,
		theme:    DefaultTheme(),
	}
}

// thumb scales frame t of the video to the theme's thumbnail width.
func (b *Builder) thumb(video tensor.Tensor, t int) image.Image {
	frame := video.FrameImage(t)
	w := b.theme.ThumbWidth
	h := video.H * w / video.W
	if h < 1 {
		h = 1
	}
	return b.renderer.ResizeImage(frame, w, h)
}

// ContactSheet renders a row of thumbnails covering one codec window of the
// video, with the frame index under each thumbnail.
func (b *Builder) ContactSheet(video tensor.Tensor, win pipeline.Window) (image.Image, error) {
	start, end := win.Start, win.End
	if start < 0 || end > video.T || start >= end {
		return nil, fmt.Errorf("window [%d,%d) out of range for %d frames", start, end, video.T)
	}

	count := end - start
	thumbH := video.H * b.theme.ThumbWidth / video.W
	labelH := int(b.theme.FontSize) + b.theme.Gap
	width := b.theme.Gap + count*(b.theme.ThumbWidth+b.theme.Gap)
	height := b.theme.Gap + thumbH + labelH

	canvas := b.renderer.CreateCanvas(width, height, b.theme.Background)
	for i := 0; i < count; i++ {
		x := b.theme.Gap + i*(b.theme.ThumbWidth+b.theme.Gap)
		canvas.DrawImage(b.thumb(video, start+i), x, b.theme.Gap)
		canvas.DrawRectStroke(x, b.theme.Gap, b.theme.ThumbWidth, thumbH, b.theme.Border, 1)
		canvas.DrawText(fmt.Sprintf("%d", start+i), x, b.theme.Gap+thumbH+int(b.theme.FontSize), ports.TextStyle{
			FontSize: b.theme.FontSize,
			Color:    b.theme.Label,
			Align:    ports.AlignLeft,
		})
	}
	return canvas.ToImage(), nil
}

// SeamStrip renders the frames around a blended seam: span frames on each
// side of the boundary, with a vertical line marking the boundary itself.
func (b *Builder) SeamStrip(video tensor.Tensor, boundary, span int) (image.Image, error) {
	if boundary <= 0 || boundary >= video.T {
		return nil, fmt.Errorf("seam boundary %d out of range for %d frames", boundary, video.T)
	}
	if span < 1 {
		span = 1
	}

	start := boundary - span
	if start < 0 {
		start = 0
	}
	end := boundary + span
	if end > video.T {
		end = video.T
	}

	count := end - start
	thumbH := video.H * b.theme.ThumbWidth / video.W
	labelH := int(b.theme.FontSize) + b.theme.Gap
	width := b.theme.Gap + count*(b.theme.ThumbWidth+b.theme.Gap)
	height := b.theme.Gap + thumbH + labelH

	canvas := b.renderer.CreateCanvas(width, height, b.theme.Background)
	for i := 0; i < count; i++ {
		t := start + i
		x := b.theme.Gap + i*(b.theme.ThumbWidth+b.theme.Gap)
		canvas.DrawImage(b.thumb(video, t), x, b.theme.Gap)
		canvas.DrawRectStroke(x, b.theme.Gap, b.theme.ThumbWidth, thumbH, b.theme.Border, 1)
		canvas.DrawText(fmt.Sprintf("%d", t), x, b.theme.Gap+thumbH+int(b.theme.FontSize), ports.TextStyle{
			FontSize: b.theme.FontSize,
			Color:    b.theme.Label,
			Align:    ports.AlignLeft,
		})
		if t == boundary {
			canvas.DrawLine(x-b.theme.Gap/2, 0, x-b.theme.Gap/2, height, color.RGBA{R: 220, G: 60, B: 60, A: 255}, 2)
		}
	}
	return canvas.ToImage(), nil
}
