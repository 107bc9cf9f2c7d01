// Package preprocess implements frame normalization: pixel range scaling,
// short-side resize, optional center crop and compression-factor trimming.
package preprocess

import (
	"context"
	"fmt"

	"github.com/user/revid/pkg/pipeline"
	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/tensor"
)

// Stage normalizes raw frames into the tensor the codec consumes.
// The order of operations is fixed: range normalization, short-side resize,
// optional center crop, then compression trimming.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a new preprocess stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{
		logger: logger.WithComponent("preprocess"),
	}
}

// Execute converts the frames to a [-1,1] tensor shaped for the codec.
func (s *Stage) Execute(ctx context.Context, input pipeline.PreprocessInput) (pipeline.PreprocessResult, error) {
	if len(input.Frames) == 0 {
		return pipeline.PreprocessResult{}, fmt.Errorf("no frames to preprocess")
	}
	if input.TemporalCompression <= 0 || input.SpatialCompression <= 0 {
		return pipeline.PreprocessResult{}, fmt.Errorf("invalid compression factors %d/%d",
			input.TemporalCompression, input.SpatialCompression)
	}

	video, err := tensor.FromImages(input.Frames)
	if err != nil {
		return pipeline.PreprocessResult{}, fmt.Errorf("convert frames: %w", err)
	}

	video = NormalizeRange(video)

	if input.Resolution > 0 {
		video = ShortSideScale(video, input.Resolution)
	}

	if input.CropWidth > 0 && input.CropHeight > 0 {
		video, err = CenterCrop(video, input.CropHeight, input.CropWidth)
		if err != nil {
			return pipeline.PreprocessResult{}, err
		}
	}

	video = FitToCompression(video, input.TemporalCompression, input.SpatialCompression)

	s.logger.Debug("Normalized %d frames to %dx%d", video.T, video.W, video.H)

	return pipeline.PreprocessResult{Video: video}, nil
}

// NormalizeRange maps pixel values from [0,255] to [-1,1].
func NormalizeRange(x tensor.Tensor) tensor.Tensor {
	out := x.Clone()
	for i, v := range out.Data {
		out.Data[i] = v/255*2 - 1
	}
	return out
}

// ShortSideScale resizes every frame so the shorter spatial side equals size,
// preserving the aspect ratio. Interpolation is bilinear in float space; the
// tensor is already normalized, so no 8-bit quantization happens mid-pipeline.
func ShortSideScale(x tensor.Tensor, size int) tensor.Tensor {
	if x.H <= 0 || x.W <= 0 || size <= 0 {
		return x
	}
	var newH, newW int
	if x.W < x.H {
		newW = size
		newH = x.H * size / x.W
	} else {
		newH = size
		newW = x.W * size / x.H
	}
	if newH == x.H && newW == x.W {
		return x
	}
	return resizeBilinear(x, newH, newW)
}

// CenterCrop extracts a centered (cropH, cropW) region from every frame.
func CenterCrop(x tensor.Tensor, cropH, cropW int) (tensor.Tensor, error) {
	if cropH > x.H || cropW > x.W {
		return tensor.Tensor{}, fmt.Errorf("crop %dx%d exceeds frame %dx%d", cropW, cropH, x.W, x.H)
	}
	top := (x.H - cropH) / 2
	left := (x.W - cropW) / 2
	out := tensor.New(x.C, x.T, cropH, cropW)
	for c := 0; c < x.C; c++ {
		for t := 0; t < x.T; t++ {
			for y := 0; y < cropH; y++ {
				for px := 0; px < cropW; px++ {
					out.Set(c, t, y, px, x.At(c, t, top+y, left+px))
				}
			}
		}
	}
	return out, nil
}

// FitToCompression trims the tensor so the codec's windowing divides evenly:
// the time axis per FitTime, height and width down to multiples of sc.
// Trailing frames, rows and columns are dropped; dimensions never grow.
func FitToCompression(x tensor.Tensor, tc, sc int) tensor.Tensor {
	newT := FitTime(x.T, tc)
	newH := FitSpatial(x.H, sc)
	newW := FitSpatial(x.W, sc)
	if newT == x.T && newH == x.H && newW == x.W {
		return x
	}
	out := tensor.New(x.C, newT, newH, newW)
	for c := 0; c < x.C; c++ {
		for t := 0; t < newT; t++ {
			for y := 0; y < newH; y++ {
				for px := 0; px < newW; px++ {
					out.Set(c, t, y, px, x.At(c, t, y, px))
				}
			}
		}
	}
	return out
}

// FitTime keeps t when (t-1) mod tc == 0 (frame 0 anchors the causal
// scheme); otherwise it trims to ((t-1)/tc)*tc.
func FitTime(t, tc int) int {
	if t <= 0 {
		return 0
	}
	if (t-1)%tc != 0 {
		return t - 1 - (t-1)%tc
	}
	return t
}

// FitSpatial returns the largest multiple of sc not exceeding d.
func FitSpatial(d, sc int) int {
	if d%sc != 0 {
		return d - d%sc
	}
	return d
}

// resizeBilinear samples the source with bilinear interpolation, using the
// half-pixel center convention.
func resizeBilinear(x tensor.Tensor, newH, newW int) tensor.Tensor {
	out := tensor.New(x.C, x.T, newH, newW)
	scaleY := float64(x.H) / float64(newH)
	scaleX := float64(x.W) / float64(newW)
	for y := 0; y < newH; y++ {
		srcY := (float64(y)+0.5)*scaleY - 0.5
		y0, fy := splitCoord(srcY, x.H)
		y1 := clampIndex(y0+1, x.H)
		for px := 0; px < newW; px++ {
			srcX := (float64(px)+0.5)*scaleX - 0.5
			x0, fx := splitCoord(srcX, x.W)
			x1 := clampIndex(x0+1, x.W)
			for c := 0; c < x.C; c++ {
				for t := 0; t < x.T; t++ {
					top := float64(x.At(c, t, y0, x0))*(1-fx) + float64(x.At(c, t, y0, x1))*fx
					bottom := float64(x.At(c, t, y1, x0))*(1-fx) + float64(x.At(c, t, y1, x1))*fx
					out.Set(c, t, y, px, float32(top*(1-fy)+bottom*fy))
				}
			}
		}
	}
	return out
}

func splitCoord(v float64, limit int) (int, float64) {
	if v < 0 {
		return 0, 0
	}
	i := int(v)
	if i >= limit-1 {
		return limit - 1, 0
	}
	return i, v - float64(i)
}

func clampIndex(i, limit int) int {
	if i < 0 {
		return 0
	}
	if i >= limit {
		return limit - 1
	}
	return i
}
