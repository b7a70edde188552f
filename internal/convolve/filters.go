package convolve

import (
	"context"
	"math/rand"

	"github.com/MeKo-Tech/pixfx/internal/pixel"
)

// GaussianKernel returns the 7×7 Gaussian-like blur kernel.
func GaussianKernel() Kernel {
	return MustKernel([][]float64{
		{0, 0, 0, 5, 0, 0, 0},
		{0, 5, 18, 32, 18, 5, 0},
		{0, 18, 64, 100, 64, 18, 0},
		{5, 32, 100, 100, 100, 32, 5},
		{0, 18, 64, 100, 64, 18, 0},
		{0, 5, 18, 32, 18, 5, 0},
		{0, 0, 0, 5, 0, 0, 0},
	})
}

// GaussianVector returns the 7-tap vector used on both axes by the separable blur.
// Its outer product with itself only approximates GaussianKernel.
func GaussianVector() []float64 {
	return []float64{5, 32, 100, 100, 100, 32, 5}
}

// BoxKernel returns the uniform 3×3 kernel.
func BoxKernel() Kernel {
	return MustKernel([][]float64{
		{1, 1, 1},
		{1, 1, 1},
		{1, 1, 1},
	})
}

// EdgeKernel returns the directional 5×5 edge kernel. It is anchored at (1,1),
// so the active taps sample column x+1 over rows y-1..y+1.
func EdgeKernel() Kernel {
	return MustKernel([][]float64{
		{0, 0, -1, 0, 0},
		{0, 0, -1, 0, 0},
		{0, 0, 2, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	}).WithAnchor(1, 1)
}

// SharpenKernel returns the 3×3 sharpen kernel. Its weights sum to 1.
func SharpenKernel() Kernel {
	return MustKernel([][]float64{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	})
}

// GaussianBlur applies the 7×7 Gaussian kernel iterations times.
func GaussianBlur(ctx context.Context, src *pixel.Buffer, iterations int) (*pixel.Buffer, error) {
	return Apply(ctx, src, GaussianKernel(), Options{Iterations: iterations})
}

// GaussianBlurSeparable applies GaussianVector horizontally then vertically.
func GaussianBlurSeparable(ctx context.Context, src *pixel.Buffer, iterations int) (*pixel.Buffer, error) {
	v := GaussianVector()
	return ApplySeparable(ctx, src, v, v, Options{Iterations: iterations})
}

// GaussianBlurSampled approximates GaussianBlur with samples random taps per pixel.
func GaussianBlurSampled(ctx context.Context, src *pixel.Buffer, iterations, samples int, rng *rand.Rand) (*pixel.Buffer, error) {
	return ApplySampled(ctx, src, GaussianKernel(), samples, Options{Iterations: iterations}, rng)
}

// BoxBlur applies the 3×3 box kernel iterations times.
func BoxBlur(ctx context.Context, src *pixel.Buffer, iterations int) (*pixel.Buffer, error) {
	return Apply(ctx, src, BoxKernel(), Options{Iterations: iterations})
}

// BoxBlurSampled approximates BoxBlur with samples random taps per pixel.
func BoxBlurSampled(ctx context.Context, src *pixel.Buffer, iterations, samples int, rng *rand.Rand) (*pixel.Buffer, error) {
	return ApplySampled(ctx, src, BoxKernel(), samples, Options{Iterations: iterations}, rng)
}

// DetectEdges runs a single pass of EdgeKernel without normalization.
func DetectEdges(ctx context.Context, src *pixel.Buffer) (*pixel.Buffer, error) {
	return Apply(ctx, src, EdgeKernel(), Options{Iterations: 1, Factor: 1})
}

// Sharpen runs a single pass of SharpenKernel without normalization.
func Sharpen(ctx context.Context, src *pixel.Buffer) (*pixel.Buffer, error) {
	return Apply(ctx, src, SharpenKernel(), Options{Iterations: 1, Factor: 1})
}
