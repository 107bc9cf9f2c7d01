// Package y4mio reads and writes uncompressed YUV4MPEG2 streams. Y4M
// carries raw planar frames, so reconstruction output written here can be
// compared pixel for pixel without a codec in the loop.
package y4mio

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"

	"github.com/mengelbart/y4m"

	"github.com/user/revid/pkg/ports"
)

// Source reads frames from a Y4M file.
type Source struct {
	path string
	info *ports.SourceInfo
}

// NewSource prepares a source for path. The file is opened per operation.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Probe parses the stream header and counts frames. Y4M headers carry no
// frame count, so the stream is scanned once and the result cached.
func (s *Source) Probe() (ports.SourceInfo, error) {
	if s.info != nil {
		return *s.info, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return ports.SourceInfo{}, fmt.Errorf("open y4m: %w", err)
	}
	defer f.Close()

	reader, header, err := y4m.NewReader(f)
	if err != nil {
		return ports.SourceInfo{}, fmt.Errorf("parse y4m header: %w", err)
	}

	fps := 0.0
	if header.FrameRate.Denominator != 0 {
		fps = float64(header.FrameRate.Numerator) / float64(header.FrameRate.Denominator)
	}

	count := 0
	for {
		if _, _, err := reader.ReadNextFrame(); err != nil {
			if err == io.EOF {
				break
			}
			return ports.SourceInfo{}, fmt.Errorf("scan frame %d: %w", count, err)
		}
		count++
	}

	info := ports.SourceInfo{
		TotalFrames: count,
		Width:       int(header.Width),
		Height:      int(header.Height),
		FPS:         fps,
	}
	s.info = &info
	return info, nil
}

// ReadFrames decodes the stream sequentially and returns the frames at the
// given ordered indices. Repeated indices yield the same frame.
func (s *Source) ReadFrames(ctx context.Context, indices []int) ([]image.Image, error) {
	if len(indices) == 0 {
		return nil, nil
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] < indices[i-1] {
			return nil, fmt.Errorf("indices not in order: %d after %d", indices[i], indices[i-1])
		}
	}
	if indices[0] < 0 {
		return nil, fmt.Errorf("negative frame index %d", indices[0])
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open y4m: %w", err)
	}
	defer f.Close()

	reader, header, err := y4m.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse y4m header: %w", err)
	}

	ratio, err := subsampleRatio(header.ChromaSubsampling)
	if err != nil {
		return nil, err
	}

	width := int(header.Width)
	height := int(header.Height)

	out := make([]image.Image, 0, len(indices))
	next := 0
	for frame := 0; next < len(indices); frame++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		data, _, err := reader.ReadNextFrame()
		if err != nil {
			return nil, fmt.Errorf("read frame %d: %w", frame, err)
		}

		if indices[next] == frame {
			img, err := frameToImage(data, width, height, ratio)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", frame, err)
			}
			for next < len(indices) && indices[next] == frame {
				out = append(out, img)
				next++
			}
		}
	}

	return out, nil
}

// Close releases resources. The source holds no open file between calls.
func (s *Source) Close() error {
	return nil
}

func subsampleRatio(cst y4m.ChromaSubsamplingType) (image.YCbCrSubsampleRatio, error) {
	switch cst {
	case y4m.CST411:
		return image.YCbCrSubsampleRatio411, nil
	case y4m.CST420, y4m.CST420jpeg, y4m.CST420mpeg2, y4m.CST420paldv:
		return image.YCbCrSubsampleRatio420, nil
	case y4m.CST422:
		return image.YCbCrSubsampleRatio422, nil
	case y4m.CST444:
		return image.YCbCrSubsampleRatio444, nil
	default:
		return 0, fmt.Errorf("unsupported chroma subsampling %v", cst)
	}
}

// frameToImage reinterprets a planar YCbCr frame as an RGBA raster.
func frameToImage(data []byte, width, height int, ratio image.YCbCrSubsampleRatio) (*image.RGBA, error) {
	ycbcr := image.NewYCbCr(image.Rect(0, 0, width, height), ratio)

	want := len(ycbcr.Y) + len(ycbcr.Cb) + len(ycbcr.Cr)
	if len(data) != want {
		return nil, fmt.Errorf("frame size %d, expected %d for %dx%d %v", len(data), want, width, height, ratio)
	}

	copy(ycbcr.Y, data[:len(ycbcr.Y)])
	copy(ycbcr.Cb, data[len(ycbcr.Y):len(ycbcr.Y)+len(ycbcr.Cb)])
	copy(ycbcr.Cr, data[len(ycbcr.Y)+len(ycbcr.Cb):])

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), ycbcr, image.Point{}, draw.Src)
	return rgba, nil
}

var _ ports.VideoSource = (*Source)(nil)
