// Package interp holds the scalar interpolation primitives shared by noise synthesis and blending.
package interp

import "math"

// Lerp interpolates linearly between a and b. t is not clamped, so values
// outside [0,1] extrapolate.
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Cosine interpolates between a and b along a half cosine wave, giving a zero
// derivative at both ends.
func Cosine(a, b, t float64) float64 {
	f := (1 - math.Cos(t*math.Pi)) * 0.5
	return Lerp(a, b, f)
}

// Cubic interpolates between v1 and v2 using v0 (before) and v3 (after) as
// outer control points.
func Cubic(v0, v1, v2, v3, t float64) float64 {
	p := (v3 - v2) - (v0 - v1)
	q := (v0 - v1) - p
	r := v2 - v0
	s := v1

	t2 := t * t
	return p*t2*t + q*t2 + r*t + s
}
