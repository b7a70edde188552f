// Package noise synthesizes lattice value noise and renders multi-octave
// fields into grayscale cloud textures and banded heightmaps.
package noise

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/pixfx/internal/interp"
	"github.com/MeKo-Tech/pixfx/internal/pixel"
)

// Noise1D hashes an integer lattice coordinate into a pseudo-random value in (-1, 1].
// The hash relies on 32-bit wrap-around multiplication.
func Noise1D(x int) float64 {
	return hash(int32(x))
}

// Noise2D hashes a 2D lattice coordinate by folding it into a single integer.
func Noise2D(x, y int) float64 {
	return hash(int32(x) + int32(y)*57)
}

func hash(n int32) float64 {
	n = (n << 13) ^ n
	v := (n*(n*n*15731+789221) + 1376312589) & 0x7fffffff
	return 1.0 - float64(v)/1073741824.0
}

// SmoothNoise1D averages a lattice value with its two neighbors (1/2, 1/4, 1/4).
func SmoothNoise1D(x int) float64 {
	return Noise1D(x)/2 + Noise1D(x-1)/4 + Noise1D(x+1)/4
}

// SmoothNoise2D averages the 3×3 lattice neighborhood: corners 1/16, edges 1/8, center 1/4.
func SmoothNoise2D(x, y int) float64 {
	corners := (Noise2D(x-1, y-1) + Noise2D(x+1, y-1) + Noise2D(x-1, y+1) + Noise2D(x+1, y+1)) / 16
	sides := (Noise2D(x-1, y) + Noise2D(x+1, y) + Noise2D(x, y-1) + Noise2D(x, y+1)) / 8
	center := Noise2D(x, y) / 4
	return corners + sides + center
}

// InterpolatedNoise1D samples smoothed lattice noise at a continuous coordinate.
// The integer part truncates toward zero.
func InterpolatedNoise1D(x float64) float64 {
	ix := int(x)
	fx := x - float64(ix)

	v1 := SmoothNoise1D(ix)
	v2 := SmoothNoise1D(ix + 1)
	return interp.Cosine(v1, v2, fx)
}

// InterpolatedNoise2D cosine-interpolates the four smoothed corners of the
// lattice cell containing (x, y).
func InterpolatedNoise2D(x, y float64) float64 {
	ix := int(x)
	fx := x - float64(ix)
	iy := int(y)
	fy := y - float64(iy)

	v1 := SmoothNoise2D(ix, iy)
	v2 := SmoothNoise2D(ix+1, iy)
	v3 := SmoothNoise2D(ix, iy+1)
	v4 := SmoothNoise2D(ix+1, iy+1)

	i1 := interp.Cosine(v1, v2, fx)
	i2 := interp.Cosine(v3, v4, fx)
	return interp.Cosine(i1, i2, fy)
}

// Octaves configures multi-octave summation. Octave i is sampled at frequency
// 2^i and weighted by Persistence^i.
type Octaves struct {
	Count       int
	Persistence float64
}

const (
	perlin1DOctaves     = 7
	perlin1DPersistence = 1.0 / 4.0
	perlin2DOctaves     = 16
)

// Validate rejects octave settings that would produce an empty or pathological sum.
func (o Octaves) Validate() error {
	if o.Count <= 0 {
		return fmt.Errorf("octave count %d must be positive: %w", o.Count, pixel.ErrInvalidParameter)
	}
	if o.Persistence <= 0 || math.IsNaN(o.Persistence) || math.IsInf(o.Persistence, 0) {
		return fmt.Errorf("persistence %v must be a positive finite number: %w", o.Persistence, pixel.ErrInvalidParameter)
	}
	return nil
}

// Sum1D adds Count octaves of interpolated 1D noise.
func (o Octaves) Sum1D(x float64) float64 {
	total := 0.0
	freq := 1.0
	amp := 1.0
	for i := 0; i < o.Count; i++ {
		total += InterpolatedNoise1D(x*freq) * amp
		freq *= 2
		amp *= o.Persistence
	}
	return total
}

// Sum2D adds Count octaves of interpolated 2D noise.
func (o Octaves) Sum2D(x, y float64) float64 {
	total := 0.0
	freq := 1.0
	amp := 1.0
	for i := 0; i < o.Count; i++ {
		total += InterpolatedNoise2D(x*freq, y*freq) * amp
		freq *= 2
		amp *= o.Persistence
	}
	return total
}

// MaxAmplitude bounds |Sum2D| given that every octave stays within [-1, 1].
func (o Octaves) MaxAmplitude() float64 {
	total := 0.0
	amp := 1.0
	for i := 0; i < o.Count; i++ {
		total += amp
		amp *= o.Persistence
	}
	return total
}

// Perlin1D sums seven octaves of 1D noise with persistence 1/4.
func Perlin1D(x float64) float64 {
	return Octaves{Count: perlin1DOctaves, Persistence: perlin1DPersistence}.Sum1D(x)
}

// Perlin2D sums sixteen octaves of 2D noise with persistence p.
// It is a pure function of its arguments.
func Perlin2D(x, y, p float64) float64 {
	return Octaves{Count: perlin2DOctaves, Persistence: p}.Sum2D(x, y)
}
