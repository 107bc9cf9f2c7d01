package y4mio

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/user/revid/pkg/ports"
)

// ErrNotStarted is returned when frames are written before Begin.
var ErrNotStarted = errors.New("sink not started")

// Sink writes frames to a Y4M file with 4:4:4 chroma. Full chroma keeps
// the stream lossless apart from the RGB to YCbCr rounding.
type Sink struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	width  int
	height int
	closed bool
}

// NewSink creates a sink that will write to path when Begin is called.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Begin creates the output file and writes the stream header.
func (s *Sink) Begin(width, height int, fps float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if fps <= 0 {
		return fmt.Errorf("invalid fps %f", fps)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create y4m: %w", err)
	}

	num, den := fpsRational(fps)
	header := fmt.Sprintf("YUV4MPEG2 W%d H%d F%d:%d Ip A0:0 C444\n", width, height, num, den)

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}

	s.file = f
	s.writer = w
	s.width = width
	s.height = height
	s.closed = false

	return nil
}

// WriteFrame appends one frame as planar 4:4:4 YCbCr.
func (s *Sink) WriteFrame(img image.Image) error {
	if s.writer == nil || s.closed {
		return ErrNotStarted
	}

	if _, err := s.writer.WriteString("FRAME\n"); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}

	yPlane, cbPlane, crPlane := toPlanes(img, s.width, s.height)
	if _, err := s.writer.Write(yPlane); err != nil {
		return fmt.Errorf("write luma: %w", err)
	}
	if _, err := s.writer.Write(cbPlane); err != nil {
		return fmt.Errorf("write chroma: %w", err)
	}
	if _, err := s.writer.Write(crPlane); err != nil {
		return fmt.Errorf("write chroma: %w", err)
	}

	return nil
}

// End flushes and closes the file.
func (s *Sink) End() error {
	if s.writer == nil || s.closed {
		return ErrNotStarted
	}
	s.closed = true

	if err := s.writer.Flush(); err != nil {
		s.file.Close()
		return fmt.Errorf("flush y4m: %w", err)
	}
	return s.file.Close()
}

// toPlanes converts img into separate full-resolution Y, Cb and Cr planes.
// Pixels outside the source bounds are black.
func toPlanes(img image.Image, width, height int) (yPlane, cbPlane, crPlane []byte) {
	yPlane = make([]byte, width*height)
	cbPlane = make([]byte, width*height)
	crPlane = make([]byte, width*height)

	bounds := img.Bounds()
	for yy := 0; yy < height; yy++ {
		for xx := 0; xx < width; xx++ {
			i := yy*width + xx
			if xx >= bounds.Dx() || yy >= bounds.Dy() {
				yPlane[i] = 16
				cbPlane[i] = 128
				crPlane[i] = 128
				continue
			}
			r, g, b, _ := img.At(bounds.Min.X+xx, bounds.Min.Y+yy).RGBA()
			lum, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			yPlane[i] = lum
			cbPlane[i] = cb
			crPlane[i] = cr
		}
	}

	return yPlane, cbPlane, crPlane
}

// fpsRational converts a frame rate to the integer ratio the Y4M header
// needs. Integral rates map to n:1, everything else is scaled by 1000 and
// reduced.
func fpsRational(fps float64) (int, int) {
	num := int(fps*1000 + 0.5)
	den := 1000
	if num%1000 == 0 {
		return num / 1000, 1
	}
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

var _ ports.VideoSink = (*Sink)(nil)
