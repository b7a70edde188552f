package noise

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/MeKo-Tech/pixfx/internal/interp"
	"github.com/MeKo-Tech/pixfx/internal/pixel"
)

// MaxCloudOffset bounds the random lattice offset drawn per cloud image.
const MaxCloudOffset = 10_000_000

// Clouds renders a grayscale cloud texture from sixteen octaves of lattice
// noise. The sampling offset is drawn from rng, so the same rng state always
// yields the same image.
func Clouds(ctx context.Context, width, height int, persistence float64, rng *rand.Rand) (*pixel.Buffer, error) {
	if rng == nil {
		return nil, fmt.Errorf("clouds: nil random source: %w", pixel.ErrInvalidParameter)
	}
	field := NewLatticeField(persistence)
	if err := field.Octaves.Validate(); err != nil {
		return nil, fmt.Errorf("clouds: %w", err)
	}
	offset := rng.Intn(MaxCloudOffset)
	return Render(ctx, width, height, field, float64(offset), 0)
}

// Render quantizes field into a grayscale image. Pixel (x, y) samples
// field.At((x+offset)/width, (y+offset)/height) and maps [-1,1] onto [0,255]
// via v*127+127, truncating and clamping. Rows are rendered in parallel.
func Render(ctx context.Context, width, height int, field Field, offset float64, workers int) (*pixel.Buffer, error) {
	if field == nil {
		return nil, fmt.Errorf("render: nil field: %w", pixel.ErrInvalidParameter)
	}
	out, err := pixel.New(width, height)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	w := float64(width)
	h := float64(height)
	err = pixel.ForEachRow(ctx, height, workers, func(y int) {
		fy := (float64(y) + offset) / h
		row := out.Row(y)
		for x := range row {
			v := field.At((float64(x)+offset)/w, fy)
			row[x] = pixel.Gray(quantize(v))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return out, nil
}

func quantize(v float64) uint8 {
	q := v*127 + 127
	if math.IsNaN(q) {
		return 0
	}
	if q <= 0 {
		return 0
	}
	if q >= 255 {
		return 255
	}
	return uint8(q)
}

var (
	hillColor     = [3]float64{0, 255, 0}
	mountainColor = [3]float64{255, 0, 0}
)

// Heightmap classifies each pixel's red channel into three height bands.
// The lowest band becomes a blue depth shade; the upper two blend from hill
// green to mountain red by height.
func Heightmap(src *pixel.Buffer) (*pixel.Buffer, error) {
	if src == nil {
		return nil, fmt.Errorf("heightmap: nil source: %w", pixel.ErrInvalidParameter)
	}
	out, err := pixel.New(src.Width(), src.Height())
	if err != nil {
		return nil, fmt.Errorf("heightmap: %w", err)
	}

	for y := 0; y < src.Height(); y++ {
		in := src.Row(y)
		row := out.Row(y)
		for x, c := range in {
			row[x] = classifyHeight(c.R)
		}
	}
	return out, nil
}

func classifyHeight(r uint8) pixel.Color {
	h := float64(r)
	band := int(math.Floor(h / 256 * 3))
	if band == 0 {
		return pixel.Color{B: uint8(255 * (h / (256.0 / 3)))}
	}

	t := h / 256
	return pixel.Color{
		R: uint8(interp.Lerp(hillColor[0], mountainColor[0], t)),
		G: uint8(interp.Lerp(hillColor[1], mountainColor[1], t)),
		B: uint8(interp.Lerp(hillColor[2], mountainColor[2], t)),
	}
}
