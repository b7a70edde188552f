// Package blend mixes two equally sized buffers with a constant or per-pixel alpha.
package blend

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/pixfx/internal/pixel"
)

// Blend returns bg*(1-alpha) + fg*alpha per channel, truncated toward zero.
// Alpha 0 and 1 return copies of bg and fg.
func Blend(bg, fg *pixel.Buffer, alpha float64) (*pixel.Buffer, error) {
	if err := checkSizes(bg, fg); err != nil {
		return nil, err
	}
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("blend: alpha %v outside [0,1]: %w", alpha, pixel.ErrInvalidParameter)
	}
	switch alpha {
	case 0:
		return bg.Clone(), nil
	case 1:
		return fg.Clone(), nil
	}

	out := pixel.MustNew(bg.Width(), bg.Height())
	for y := 0; y < bg.Height(); y++ {
		b, f, o := bg.Row(y), fg.Row(y), out.Row(y)
		for x := range o {
			o[x] = mix(b[x], f[x], alpha)
		}
	}
	return out, nil
}

// BlendMasked is like Blend with a per-pixel alpha taken from mask's red
// channel scaled to [0,1]. All three buffers must have the same size.
func BlendMasked(bg, fg, mask *pixel.Buffer) (*pixel.Buffer, error) {
	if err := checkSizes(bg, fg); err != nil {
		return nil, err
	}
	if mask == nil {
		return nil, fmt.Errorf("blend: nil mask: %w", pixel.ErrInvalidParameter)
	}
	if !bg.SameSize(mask) {
		return nil, fmt.Errorf("blend: mask %dx%d, image %dx%d: %w",
			mask.Width(), mask.Height(), bg.Width(), bg.Height(), pixel.ErrDimensionMismatch)
	}

	out := pixel.MustNew(bg.Width(), bg.Height())
	for y := 0; y < bg.Height(); y++ {
		b, f, m, o := bg.Row(y), fg.Row(y), mask.Row(y), out.Row(y)
		for x := range o {
			o[x] = mix(b[x], f[x], float64(m[x].R)/255)
		}
	}
	return out, nil
}

func checkSizes(bg, fg *pixel.Buffer) error {
	if bg == nil || fg == nil {
		return fmt.Errorf("blend: nil buffer: %w", pixel.ErrInvalidParameter)
	}
	if !bg.SameSize(fg) {
		return fmt.Errorf("blend: background %dx%d, foreground %dx%d: %w",
			bg.Width(), bg.Height(), fg.Width(), fg.Height(), pixel.ErrDimensionMismatch)
	}
	return nil
}

func mix(b, f pixel.Color, a float64) pixel.Color {
	return pixel.Color{
		R: channel(b.R, f.R, a),
		G: channel(b.G, f.G, a),
		B: channel(b.B, f.B, a),
	}
}

func channel(b, f uint8, a float64) uint8 {
	return pixel.ClampU8(int(float64(b)*(1-a) + float64(f)*a))
}
