// Package compare combines two videos side by side and measures their
// reconstruction quality.
package compare

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/user/revid/pkg/ports"
	"github.com/user/revid/pkg/tensor"
)

// Options configures the side-by-side combination.
type Options struct {
	// Gap is the horizontal gap between the two videos in pixels.
	Gap int
	// FPS is the output frame rate (0 = frame rate of the left video).
	FPS float64
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		Gap: 10,
	}
}

// Result reports what Combine produced.
type Result struct {
	// Frames written to the sink.
	Frames int
	// PSNR is the mean PSNR in dB over the common frames, +Inf when they
	// are identical, NaN when the geometries do not match.
	PSNR float64
}

// Combine writes both videos side by side into the sink. The shorter video
// holds its last frame until the longer one finishes.
func Combine(ctx context.Context, left, right ports.VideoSource, sink ports.VideoSink, opts Options) (Result, error) {
	leftInfo, err := left.Probe()
	if err != nil {
		return Result{}, fmt.Errorf("probe left video: %w", err)
	}
	rightInfo, err := right.Probe()
	if err != nil {
		return Result{}, fmt.Errorf("probe right video: %w", err)
	}
	if leftInfo.TotalFrames == 0 || rightInfo.TotalFrames == 0 {
		return Result{}, fmt.Errorf("empty input video")
	}

	leftFrames, err := readAll(ctx, left, leftInfo.TotalFrames)
	if err != nil {
		return Result{}, fmt.Errorf("read left video: %w", err)
	}
	rightFrames, err := readAll(ctx, right, rightInfo.TotalFrames)
	if err != nil {
		return Result{}, fmt.Errorf("read right video: %w", err)
	}

	outputWidth := leftInfo.Width + opts.Gap + rightInfo.Width
	outputHeight := leftInfo.Height
	if rightInfo.Height > outputHeight {
		outputHeight = rightInfo.Height
	}

	fps := opts.FPS
	if fps <= 0 {
		fps = leftInfo.FPS
	}
	if fps <= 0 {
		fps = 30
	}

	if err := sink.Begin(outputWidth, outputHeight, fps); err != nil {
		return Result{}, fmt.Errorf("begin output: %w", err)
	}

	total := len(leftFrames)
	if len(rightFrames) > total {
		total = len(rightFrames)
	}

	for t := 0; t < total; t++ {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		leftFrame := holdLast(leftFrames, t)
		rightFrame := holdLast(rightFrames, t)

		output := image.NewRGBA(image.Rect(0, 0, outputWidth, outputHeight))
		draw.Draw(output, output.Bounds(), image.Black, image.Point{}, draw.Src)

		leftY := (outputHeight - leftInfo.Height) / 2
		draw.Draw(output, image.Rect(0, leftY, leftInfo.Width, leftY+leftInfo.Height), leftFrame, leftFrame.Bounds().Min, draw.Src)

		rightX := leftInfo.Width + opts.Gap
		rightY := (outputHeight - rightInfo.Height) / 2
		draw.Draw(output, image.Rect(rightX, rightY, rightX+rightInfo.Width, rightY+rightInfo.Height), rightFrame, rightFrame.Bounds().Min, draw.Src)

		if err := sink.WriteFrame(output); err != nil {
			return Result{}, fmt.Errorf("write frame %d: %w", t, err)
		}
	}

	if err := sink.End(); err != nil {
		return Result{}, fmt.Errorf("end output: %w", err)
	}

	return Result{
		Frames: total,
		PSNR:   meanFramePSNR(leftFrames, rightFrames),
	}, nil
}

// MeasurePSNR reads both videos and returns the mean PSNR in dB over their
// common frames, without producing any output video.
func MeasurePSNR(ctx context.Context, left, right ports.VideoSource) (float64, error) {
	leftInfo, err := left.Probe()
	if err != nil {
		return 0, fmt.Errorf("probe left video: %w", err)
	}
	rightInfo, err := right.Probe()
	if err != nil {
		return 0, fmt.Errorf("probe right video: %w", err)
	}
	if leftInfo.TotalFrames == 0 || rightInfo.TotalFrames == 0 {
		return 0, fmt.Errorf("empty input video")
	}

	leftFrames, err := readAll(ctx, left, leftInfo.TotalFrames)
	if err != nil {
		return 0, fmt.Errorf("read left video: %w", err)
	}
	rightFrames, err := readAll(ctx, right, rightInfo.TotalFrames)
	if err != nil {
		return 0, fmt.Errorf("read right video: %w", err)
	}

	psnr := meanFramePSNR(leftFrames, rightFrames)
	if math.IsNaN(psnr) {
		return 0, fmt.Errorf("frame geometries do not match")
	}
	return psnr, nil
}

func readAll(ctx context.Context, source ports.VideoSource, total int) ([]image.Image, error) {
	indices := make([]int, total)
	for i := range indices {
		indices[i] = i
	}
	return source.ReadFrames(ctx, indices)
}

func holdLast(frames []image.Image, t int) image.Image {
	if t >= len(frames) {
		return frames[len(frames)-1]
	}
	return frames[t]
}

// PSNR computes the mean peak signal-to-noise ratio between two tensors in
// dB, with the value range [-1,1] as the peak. Identical tensors yield +Inf.
func PSNR(a, b tensor.Tensor) (float64, error) {
	if a.C != b.C || a.T != b.T || a.H != b.H || a.W != b.W {
		return 0, fmt.Errorf("shape mismatch: (%d,%d,%d,%d) vs (%d,%d,%d,%d)",
			a.C, a.T, a.H, a.W, b.C, b.T, b.H, b.W)
	}
	if len(a.Data) == 0 {
		return 0, fmt.Errorf("empty tensors")
	}

	var sum float64
	for i := range a.Data {
		diff := float64(a.Data[i]) - float64(b.Data[i])
		sum += diff * diff
	}
	mse := sum / float64(len(a.Data))
	if mse == 0 {
		return math.Inf(1), nil
	}
	const peak = 2.0
	return 10 * math.Log10(peak*peak/mse), nil
}

// meanFramePSNR computes the PSNR over the common prefix of the two frame
// lists from the accumulated MSE. Identical frames yield +Inf, mismatched
// geometries NaN.
func meanFramePSNR(left, right []image.Image) float64 {
	common := len(left)
	if len(right) < common {
		common = len(right)
	}
	if common == 0 {
		return math.NaN()
	}

	var sum float64
	var samples int64
	for t := 0; t < common; t++ {
		a, b := left[t], right[t]
		ab, bb := a.Bounds(), b.Bounds()
		if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
			return math.NaN()
		}
		for y := 0; y < ab.Dy(); y++ {
			for x := 0; x < ab.Dx(); x++ {
				ar, ag, abl, _ := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
				br, bg, bbl, _ := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
				for _, d := range []int64{
					int64(ar>>8) - int64(br>>8),
					int64(ag>>8) - int64(bg>>8),
					int64(abl>>8) - int64(bbl>>8),
				} {
					sum += float64(d * d)
				}
			}
		}
		samples += int64(ab.Dx()*ab.Dy()) * 3
	}

	mse := sum / float64(samples)
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}
