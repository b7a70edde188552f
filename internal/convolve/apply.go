package convolve

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/MeKo-Tech/pixfx/internal/pixel"
)

// Options controls a convolution run.
type Options struct {
	// Iterations is the number of full-image passes. Zero returns a copy of the source.
	Iterations int
	// Factor multiplies every accumulated sum. Zero selects the kernel's own normalization.
	Factor float64
	// Workers is the number of goroutines per pass. Zero uses runtime.NumCPU.
	Workers int
}

func (o Options) validate() error {
	if o.Iterations < 0 {
		return fmt.Errorf("iterations %d must not be negative: %w", o.Iterations, pixel.ErrInvalidParameter)
	}
	if math.IsNaN(o.Factor) || math.IsInf(o.Factor, 0) {
		return fmt.Errorf("factor %v must be finite: %w", o.Factor, pixel.ErrInvalidParameter)
	}
	return nil
}

func (o Options) factorFor(k Kernel) float64 {
	if o.Factor != 0 {
		return o.Factor
	}
	return k.Normalization()
}

// Apply convolves src with k for opts.Iterations passes. Every pass reads the
// complete output of the previous one. src is never modified.
func Apply(ctx context.Context, src *pixel.Buffer, k Kernel, opts Options) (*pixel.Buffer, error) {
	if err := checkInputs(src, k, opts); err != nil {
		return nil, fmt.Errorf("convolve: %w", err)
	}
	if opts.Iterations == 0 {
		return src.Clone(), nil
	}

	factor := opts.factorFor(k)
	cur := src
	for it := 0; it < opts.Iterations; it++ {
		next, err := pass(ctx, cur, k, factor, opts.Workers)
		if err != nil {
			return nil, fmt.Errorf("convolve: iteration %d: %w", it, err)
		}
		cur = next
	}
	return cur, nil
}

// ApplySeparable runs a row-vector pass followed by a column-vector pass.
// All row iterations complete before the column iterations start. Each
// vector is normalized by its own sum unless opts.Factor is set.
func ApplySeparable(ctx context.Context, src *pixel.Buffer, row, col []float64, opts Options) (*pixel.Buffer, error) {
	rowK, err := Row(row)
	if err != nil {
		return nil, fmt.Errorf("convolve: row vector: %w", err)
	}
	colK, err := Column(col)
	if err != nil {
		return nil, fmt.Errorf("convolve: column vector: %w", err)
	}
	if err := checkInputs(src, rowK, opts); err != nil {
		return nil, fmt.Errorf("convolve: %w", err)
	}
	if opts.Iterations == 0 {
		return src.Clone(), nil
	}

	cur := src
	for _, k := range []Kernel{rowK, colK} {
		factor := opts.factorFor(k)
		for it := 0; it < opts.Iterations; it++ {
			next, err := pass(ctx, cur, k, factor, opts.Workers)
			if err != nil {
				return nil, fmt.Errorf("convolve: separable %dx%d iteration %d: %w", k.Width, k.Height, it, err)
			}
			cur = next
		}
	}
	return cur, nil
}

// ApplySampled approximates Apply by drawing samples random taps (with
// replacement) per pixel and normalizing by the sum of the drawn weights.
// opts.Factor and opts.Workers are ignored: the result is self-normalizing
// and pixels are visited in row-major order on one goroutine so a given rng
// state reproduces the same image.
func ApplySampled(ctx context.Context, src *pixel.Buffer, k Kernel, samples int, opts Options, rng *rand.Rand) (*pixel.Buffer, error) {
	if err := checkInputs(src, k, opts); err != nil {
		return nil, fmt.Errorf("convolve: %w", err)
	}
	if samples <= 0 {
		return nil, fmt.Errorf("convolve: samples %d must be positive: %w", samples, pixel.ErrInvalidParameter)
	}
	if rng == nil {
		return nil, fmt.Errorf("convolve: nil random source: %w", pixel.ErrInvalidParameter)
	}
	if opts.Iterations == 0 {
		return src.Clone(), nil
	}

	cur := src
	for it := 0; it < opts.Iterations; it++ {
		next, err := sampledPass(ctx, cur, k, samples, rng)
		if err != nil {
			return nil, fmt.Errorf("convolve: sampled iteration %d: %w", it, err)
		}
		cur = next
	}
	return cur, nil
}

func checkInputs(src *pixel.Buffer, k Kernel, opts Options) error {
	if src == nil {
		return fmt.Errorf("nil source: %w", pixel.ErrInvalidParameter)
	}
	if err := k.Validate(); err != nil {
		return err
	}
	return opts.validate()
}

// columnTable precomputes the wrapped source column for every (kernel column, output x).
func columnTable(k Kernel, width int) [][]int {
	table := make([][]int, k.Width)
	for j := range table {
		table[j] = make([]int, width)
		for x := 0; x < width; x++ {
			table[j][x] = pixel.Wrap(x+j-k.AnchorX, width)
		}
	}
	return table
}

func pass(ctx context.Context, src *pixel.Buffer, k Kernel, factor float64, workers int) (*pixel.Buffer, error) {
	w, h := src.Width(), src.Height()
	dst, err := pixel.New(w, h)
	if err != nil {
		return nil, err
	}
	cols := columnTable(k, w)

	err = pixel.ForEachRow(ctx, h, workers, func(y int) {
		out := dst.Row(y)
		for x := range out {
			var r, g, b float64
			for i := 0; i < k.Height; i++ {
				in := src.Row(pixel.Wrap(y+i-k.AnchorY, h))
				weights := k.Weights[i*k.Width : (i+1)*k.Width]
				for j, wt := range weights {
					if wt == 0 {
						continue
					}
					c := in[cols[j][x]]
					r += float64(c.R) * wt
					g += float64(c.G) * wt
					b += float64(c.B) * wt
				}
			}
			out[x] = pixel.Color{
				R: toChannel(r * factor),
				G: toChannel(g * factor),
				B: toChannel(b * factor),
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

func sampledPass(ctx context.Context, src *pixel.Buffer, k Kernel, samples int, rng *rand.Rand) (*pixel.Buffer, error) {
	w, h := src.Width(), src.Height()
	dst, err := pixel.New(w, h)
	if err != nil {
		return nil, err
	}
	taps := k.Width * k.Height

	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := dst.Row(y)
		for x := range out {
			var r, g, b, total float64
			for s := 0; s < samples; s++ {
				t := rng.Intn(taps)
				i, j := t/k.Width, t%k.Width
				wt := k.Weights[t]
				c := src.AtWrapped(x+j-k.AnchorX, y+i-k.AnchorY)
				r += float64(c.R) * wt
				g += float64(c.G) * wt
				b += float64(c.B) * wt
				total += wt
			}
			if total == 0 {
				// Only zero-weight taps were drawn.
				out[x] = pixel.Black
				continue
			}
			out[x] = pixel.Color{
				R: toChannel(r / total),
				G: toChannel(g / total),
				B: toChannel(b / total),
			}
		}
	}
	return dst, nil
}

// toChannel rounds to nearest and clamps to [0, 255].
func toChannel(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
