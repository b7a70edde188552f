// Package glitch corrupts images with random noise blocks, channel-swapped
// block copies and a scanline pattern.
package glitch

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/MeKo-Tech/pixfx/internal/pixel"
)

// NoiseBlockThreshold is the highest mode value that selects a noise block.
// Modes are drawn from [0,100), so roughly a third of the passes write noise
// and the rest copy a channel-swapped block.
const NoiseBlockThreshold = 33

// pass describes one randomly placed corruption.
type pass struct {
	srcX, srcY int
	dstX, dstY int
	w, h       int
	mode       int
}

func drawPass(rng *rand.Rand, width, height int) pass {
	return pass{
		srcX: rng.Intn(width),
		srcY: rng.Intn(height),
		dstX: rng.Intn(width),
		dstY: rng.Intn(height),
		w:    rng.Intn(width) / 4,
		h:    rng.Intn(height) / 8,
		mode: rng.Intn(100),
	}
}

// Glitch returns a corrupted copy of src after power passes. Every pass draws
// its geometry and mode from rng, so the same seed reproduces the same image.
// Block copies always read from src, never from earlier corruption. Odd rows
// of the result are black.
func Glitch(ctx context.Context, src *pixel.Buffer, power int, rng *rand.Rand) (*pixel.Buffer, error) {
	if src == nil {
		return nil, fmt.Errorf("glitch: nil source: %w", pixel.ErrInvalidParameter)
	}
	if power < 0 {
		return nil, fmt.Errorf("glitch: power %d must not be negative: %w", power, pixel.ErrInvalidParameter)
	}
	if rng == nil {
		return nil, fmt.Errorf("glitch: nil random source: %w", pixel.ErrInvalidParameter)
	}

	out := src.Clone()
	w, h := src.Width(), src.Height()

	// The permutation carries over between passes.
	perm := [3]int{0, 1, 2}

	for n := 0; n < power; n++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("glitch: pass %d: %w", n, err)
		}
		p := drawPass(rng, w, h)
		if p.mode <= NoiseBlockThreshold {
			noiseBlock(out, p, rng)
			continue
		}
		rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		copyBlock(out, src, p, perm)
	}

	Scanlines(out)
	return out, nil
}

// noiseBlock scatters (h/2)*(w/2) random pixels inside the destination
// rectangle. A zero-sized rectangle writes nothing.
func noiseBlock(out *pixel.Buffer, p pass, rng *rand.Rand) {
	for i := 0; i < p.h/2; i++ {
		for j := 0; j < p.w/2; j++ {
			x := p.dstX + rng.Intn(p.w)
			y := p.dstY + rng.Intn(p.h)
			out.SetWrapped(x, y, pixel.Color{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
			})
		}
	}
}

func copyBlock(out, src *pixel.Buffer, p pass, perm [3]int) {
	for i := 0; i < p.h; i++ {
		for j := 0; j < p.w; j++ {
			c := src.AtWrapped(p.srcX+j, p.srcY+i)
			ch := [3]uint8{c.R, c.G, c.B}
			out.SetWrapped(p.dstX+j, p.dstY+i, pixel.Color{
				R: ch[perm[0]],
				G: ch[perm[1]],
				B: ch[perm[2]],
			})
		}
	}
}

// Scanlines blackens every odd row of b in place.
func Scanlines(b *pixel.Buffer) {
	for y := 1; y < b.Height(); y += 2 {
		row := b.Row(y)
		for x := range row {
			row[x] = pixel.Black
		}
	}
}
