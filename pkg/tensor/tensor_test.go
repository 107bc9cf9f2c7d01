package tensor

import (
	"image"
	"image/color"
	"testing"
)

func TestSliceTime(t *testing.T) {
	x := New(2, 5, 2, 2)
	for i := range x.Data {
		x.Data[i] = float32(i)
	}

	s := x.SliceTime(1, 4)
	if s.T != 3 {
		t.Fatalf("expected 3 frames, got %d", s.T)
	}
	if got := s.At(0, 0, 0, 0); got != x.At(0, 1, 0, 0) {
		t.Errorf("slice start: expected %v, got %v", x.At(0, 1, 0, 0), got)
	}
	if got := s.At(1, 2, 1, 1); got != x.At(1, 3, 1, 1) {
		t.Errorf("slice end: expected %v, got %v", x.At(1, 3, 1, 1), got)
	}

	// Slicing copies: writes to the slice must not alias the source.
	s.Set(0, 0, 0, 0, -99)
	if x.At(0, 1, 0, 0) == -99 {
		t.Error("slice aliases source data")
	}
}

func TestSliceTime_Clamped(t *testing.T) {
	x := New(1, 4, 1, 1)
	s := x.SliceTime(2, 10)
	if s.T != 2 {
		t.Errorf("expected clamp to 2 frames, got %d", s.T)
	}
	s = x.SliceTime(3, 2)
	if s.T != 0 {
		t.Errorf("expected empty slice, got %d frames", s.T)
	}
}

func TestConcatTime(t *testing.T) {
	a := New(1, 2, 2, 2)
	b := New(1, 3, 2, 2)
	for i := range a.Data {
		a.Data[i] = 1
	}
	for i := range b.Data {
		b.Data[i] = 2
	}

	out, err := ConcatTime(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.T != 5 {
		t.Fatalf("expected 5 frames, got %d", out.T)
	}
	if out.At(0, 1, 1, 1) != 1 {
		t.Errorf("expected frame 1 from first part, got %v", out.At(0, 1, 1, 1))
	}
	if out.At(0, 2, 0, 0) != 2 {
		t.Errorf("expected frame 2 from second part, got %v", out.At(0, 2, 0, 0))
	}
}

func TestConcatTime_ShapeMismatch(t *testing.T) {
	a := New(1, 2, 2, 2)
	b := New(1, 2, 4, 4)
	if _, err := ConcatTime(a, b); err == nil {
		t.Error("expected shape mismatch error")
	}
}

func TestFromImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 1, color.RGBA{G: 128, A: 255})

	x, err := FromImages([]image.Image{img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x.C != 3 || x.T != 1 || x.H != 2 || x.W != 2 {
		t.Fatalf("unexpected shape (%d,%d,%d,%d)", x.C, x.T, x.H, x.W)
	}
	if x.At(0, 0, 0, 0) != 255 {
		t.Errorf("red channel: expected 255, got %v", x.At(0, 0, 0, 0))
	}
	if x.At(1, 0, 1, 1) != 128 {
		t.Errorf("green channel: expected 128, got %v", x.At(1, 0, 1, 1))
	}
}

func TestFrameImage_ClampAndScale(t *testing.T) {
	x := New(3, 1, 1, 3)
	// -1 -> 0, 0 -> 127, out-of-range 2 -> clamped to 255
	for c := 0; c < 3; c++ {
		x.Set(c, 0, 0, 0, -1)
		x.Set(c, 0, 0, 1, 0)
		x.Set(c, 0, 0, 2, 2)
	}

	img := x.FrameImage(0)
	cases := []struct {
		x    int
		want uint8
	}{
		{0, 0},
		{1, 127},
		{2, 255},
	}
	for _, tc := range cases {
		r, _, _, _ := img.At(tc.x, 0).RGBA()
		if uint8(r>>8) != tc.want {
			t.Errorf("pixel %d: expected %d, got %d", tc.x, tc.want, uint8(r>>8))
		}
	}
}
