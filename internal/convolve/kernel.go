// Package convolve applies convolution kernels to pixel buffers with
// toroidal (wrap-around) edge handling.
package convolve

import (
	"fmt"

	"github.com/MeKo-Tech/pixfx/internal/pixel"
)

// Kernel is a Width×Height weight matrix stored row-major. The anchor is the
// tap aligned with the output pixel; it defaults to the center.
type Kernel struct {
	Weights []float64
	Width   int
	Height  int
	AnchorX int
	AnchorY int
}

// NewKernel builds a centered kernel from a rectangular matrix with odd dimensions.
func NewKernel(rows [][]float64) (Kernel, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Kernel{}, fmt.Errorf("kernel must not be empty: %w", pixel.ErrInvalidParameter)
	}
	h := len(rows)
	w := len(rows[0])

	weights := make([]float64, 0, w*h)
	for i, row := range rows {
		if len(row) != w {
			return Kernel{}, fmt.Errorf("kernel row %d has %d taps, want %d: %w", i, len(row), w, pixel.ErrInvalidParameter)
		}
		weights = append(weights, row...)
	}

	k := Kernel{
		Weights: weights,
		Width:   w,
		Height:  h,
		AnchorX: w / 2,
		AnchorY: h / 2,
	}
	if err := k.Validate(); err != nil {
		return Kernel{}, err
	}
	return k, nil
}

// MustKernel is like NewKernel but panics on malformed input. Used for the
// built-in kernel tables.
func MustKernel(rows [][]float64) Kernel {
	k, err := NewKernel(rows)
	if err != nil {
		panic(err)
	}
	return k
}

// Row builds a 1×n kernel from a vector.
func Row(v []float64) (Kernel, error) {
	return NewKernel([][]float64{v})
}

// Column builds an n×1 kernel from a vector.
func Column(v []float64) (Kernel, error) {
	rows := make([][]float64, len(v))
	for i, w := range v {
		rows[i] = []float64{w}
	}
	return NewKernel(rows)
}

// Outer builds the full 2D kernel row ⊗ col, where col runs down the rows and
// row runs across the columns.
func Outer(row, col []float64) (Kernel, error) {
	rows := make([][]float64, len(col))
	for i, c := range col {
		rows[i] = make([]float64, len(row))
		for j, r := range row {
			rows[i][j] = c * r
		}
	}
	return NewKernel(rows)
}

// WithAnchor returns a copy of k that aligns tap (x, y) with the output pixel.
func (k Kernel) WithAnchor(x, y int) Kernel {
	k.AnchorX = x
	k.AnchorY = y
	return k
}

// Validate checks the structural invariants: odd positive dimensions, a
// matching weight count and an anchor inside the matrix.
func (k Kernel) Validate() error {
	if k.Width <= 0 || k.Height <= 0 {
		return fmt.Errorf("kernel size %dx%d must be positive: %w", k.Width, k.Height, pixel.ErrInvalidParameter)
	}
	if k.Width%2 == 0 || k.Height%2 == 0 {
		return fmt.Errorf("kernel size %dx%d must be odd: %w", k.Width, k.Height, pixel.ErrInvalidParameter)
	}
	if len(k.Weights) != k.Width*k.Height {
		return fmt.Errorf("kernel has %d weights, want %d: %w", len(k.Weights), k.Width*k.Height, pixel.ErrInvalidParameter)
	}
	if k.AnchorX < 0 || k.AnchorX >= k.Width || k.AnchorY < 0 || k.AnchorY >= k.Height {
		return fmt.Errorf("kernel anchor (%d,%d) outside %dx%d: %w", k.AnchorX, k.AnchorY, k.Width, k.Height, pixel.ErrInvalidParameter)
	}
	return nil
}

// At returns the weight at row i, column j.
func (k Kernel) At(i, j int) float64 {
	return k.Weights[i*k.Width+j]
}

// Sum returns the total of all weights.
func (k Kernel) Sum() float64 {
	s := 0.0
	for _, w := range k.Weights {
		s += w
	}
	return s
}

// Normalization returns 1/Sum, or 1 for zero-sum kernels such as edge detectors.
func (k Kernel) Normalization() float64 {
	s := k.Sum()
	if s == 0 {
		return 1
	}
	return 1 / s
}
