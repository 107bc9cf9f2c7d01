// Package tensor provides the frame sequence representation shared by all
// pipeline stages. A Tensor is a dense float32 volume in (C,T,H,W) order,
// the layout the codec consumes.
package tensor

import (
	"fmt"
	"image"
)

// Tensor is a 4-D frame sequence with channel, time, height and width axes.
// Pixel values are float32; the reconstruction pipeline keeps them in [-1,1].
type Tensor struct {
	C, T, H, W int
	Data       []float32
}

// New creates a zero-filled tensor with the given shape.
func New(c, t, h, w int) Tensor {
	return Tensor{
		C:    c,
		T:    t,
		H:    h,
		W:    w,
		Data: make([]float32, c*t*h*w),
	}
}

// Shape returns the (C,T,H,W) dimensions.
func (x Tensor) Shape() (c, t, h, w int) {
	return x.C, x.T, x.H, x.W
}

// Len returns the number of elements.
func (x Tensor) Len() int {
	return x.C * x.T * x.H * x.W
}

// At returns the value at (c,t,y,x).
func (x Tensor) At(c, t, y, px int) float32 {
	return x.Data[((c*x.T+t)*x.H+y)*x.W+px]
}

// Set stores v at (c,t,y,x).
func (x Tensor) Set(c, t, y, px int, v float32) {
	x.Data[((c*x.T+t)*x.H+y)*x.W+px] = v
}

// Clone returns a deep copy.
func (x Tensor) Clone() Tensor {
	out := Tensor{C: x.C, T: x.T, H: x.H, W: x.W, Data: make([]float32, len(x.Data))}
	copy(out.Data, x.Data)
	return out
}

// SliceTime copies frames [start,end) into a new tensor. Negative start or an
// end past the last frame are clamped, matching slice semantics the chunk
// driver relies on for short tails.
func (x Tensor) SliceTime(start, end int) Tensor {
	if start < 0 {
		start = 0
	}
	if end > x.T {
		end = x.T
	}
	if end < start {
		end = start
	}
	out := New(x.C, end-start, x.H, x.W)
	frame := x.H * x.W
	for c := 0; c < x.C; c++ {
		src := x.Data[(c*x.T+start)*frame : (c*x.T+end)*frame]
		dst := out.Data[c*out.T*frame : (c+1)*out.T*frame]
		copy(dst, src)
	}
	return out
}

// ConcatTime joins tensors along the time axis. All parts must share the same
// channel count and spatial size.
func ConcatTime(parts ...Tensor) (Tensor, error) {
	if len(parts) == 0 {
		return Tensor{}, fmt.Errorf("concat: no parts")
	}
	first := parts[0]
	total := 0
	for _, p := range parts {
		if p.C != first.C || p.H != first.H || p.W != first.W {
			return Tensor{}, fmt.Errorf("concat: shape mismatch (%d,%d,%d) vs (%d,%d,%d)",
				p.C, p.H, p.W, first.C, first.H, first.W)
		}
		total += p.T
	}
	out := New(first.C, total, first.H, first.W)
	frame := first.H * first.W
	offset := 0
	for _, p := range parts {
		for c := 0; c < p.C; c++ {
			src := p.Data[c*p.T*frame : (c+1)*p.T*frame]
			dst := out.Data[(c*out.T+offset)*frame:]
			copy(dst, src)
		}
		offset += p.T
	}
	return out, nil
}

// FromImages converts rasters to a (3,T,H,W) tensor with values in [0,255].
// All images must share the bounds of the first one.
func FromImages(frames []image.Image) (Tensor, error) {
	if len(frames) == 0 {
		return Tensor{}, fmt.Errorf("from images: no frames")
	}
	bounds := frames[0].Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	out := New(3, len(frames), h, w)
	for t, frame := range frames {
		b := frame.Bounds()
		if b.Dx() != w || b.Dy() != h {
			return Tensor{}, fmt.Errorf("from images: frame %d is %dx%d, want %dx%d",
				t, b.Dx(), b.Dy(), w, h)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bb, _ := frame.At(b.Min.X+x, b.Min.Y+y).RGBA()
				out.Set(0, t, y, x, float32(r>>8))
				out.Set(1, t, y, x, float32(g>>8))
				out.Set(2, t, y, x, float32(bb>>8))
			}
		}
	}
	return out, nil
}

// FrameImage renders frame t as an RGBA raster, mapping [-1,1] to [0,255].
// Values outside the range are clamped first.
func (x Tensor) FrameImage(t int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, x.W, x.H))
	for y := 0; y < x.H; y++ {
		for px := 0; px < x.W; px++ {
			i := img.PixOffset(px, y)
			img.Pix[i+0] = toByte(x.At(0, t, y, px))
			img.Pix[i+1] = toByte(x.At(1, t, y, px))
			img.Pix[i+2] = toByte(x.At(2, t, y, px))
			img.Pix[i+3] = 0xff
		}
	}
	return img
}

// toByte clamps v to [-1,1] and rescales to [0,255].
func toByte(v float32) uint8 {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	return uint8((v + 1) / 2 * 255)
}
