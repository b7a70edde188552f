// Package pixel provides the RGB pixel buffer every transform reads from and writes into.
package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrInvalidParameter is returned when a transform is called with arguments it cannot honor.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDimensionMismatch is returned when buffers that must share a size do not.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Gray returns a color with all three channels set to v.
func Gray(v uint8) Color {
	return Color{R: v, G: v, B: v}
}

// Black is the zero color.
var Black = Color{}

// Buffer is a dense W×H grid of colors stored row-major.
type Buffer struct {
	pix []Color
	w   int
	h   int
}

// New allocates a black buffer of the given size.
func New(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("buffer size %dx%d must be positive: %w", width, height, ErrInvalidParameter)
	}
	return &Buffer{
		pix: make([]Color, width*height),
		w:   width,
		h:   height,
	}, nil
}

// MustNew is like New but panics on invalid sizes. Intended for tests and constants.
func MustNew(width, height int) *Buffer {
	b, err := New(width, height)
	if err != nil {
		panic(err)
	}
	return b
}

// Width returns the number of columns.
func (b *Buffer) Width() int { return b.w }

// Height returns the number of rows.
func (b *Buffer) Height() int { return b.h }

// Bounds returns the buffer extent as an image rectangle anchored at the origin.
func (b *Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.w, b.h) }

// At returns the color at (x, y). Coordinates must be in range.
func (b *Buffer) At(x, y int) Color { return b.pix[y*b.w+x] }

// Set writes c at (x, y). Coordinates must be in range.
func (b *Buffer) Set(x, y int, c Color) { b.pix[y*b.w+x] = c }

// AtWrapped reads with toroidal addressing: out-of-range coordinates wrap around.
func (b *Buffer) AtWrapped(x, y int) Color {
	return b.pix[Wrap(y, b.h)*b.w+Wrap(x, b.w)]
}

// SetWrapped writes with toroidal addressing.
func (b *Buffer) SetWrapped(x, y int, c Color) {
	b.pix[Wrap(y, b.h)*b.w+Wrap(x, b.w)] = c
}

// Row returns the backing slice for row y. Writes through it modify the buffer.
func (b *Buffer) Row(y int) []Color {
	return b.pix[y*b.w : (y+1)*b.w]
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c Color) {
	for i := range b.pix {
		b.pix[i] = c
	}
}

// Clone returns an independent copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]Color, len(b.pix))
	copy(pix, b.pix)
	return &Buffer{pix: pix, w: b.w, h: b.h}
}

// SameSize reports whether both buffers have identical dimensions.
func (b *Buffer) SameSize(o *Buffer) bool {
	return o != nil && b.w == o.w && b.h == o.h
}

// Equal reports whether both buffers have the same size and identical pixels.
func (b *Buffer) Equal(o *Buffer) bool {
	if !b.SameSize(o) {
		return false
	}
	for i := range b.pix {
		if b.pix[i] != o.pix[i] {
			return false
		}
	}
	return true
}

// Wrap maps v into [0, n).
func Wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// ClampU8 clamps an int value to the uint8 range [0, 255].
func ClampU8(x int) uint8 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

// FromImage copies an arbitrary image into a new buffer. Alpha is discarded.
func FromImage(img image.Image) (*Buffer, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image: %w", ErrInvalidParameter)
	}
	bounds := img.Bounds()
	dst, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	// Fast path for the layout the decoders and gift hand back most often.
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < dst.h; y++ {
			off := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			row := dst.Row(y)
			for x := range row {
				i := off + 4*x
				row[x] = Color{R: nrgba.Pix[i], G: nrgba.Pix[i+1], B: nrgba.Pix[i+2]}
			}
		}
		return dst, nil
	}

	for y := 0; y < dst.h; y++ {
		for x := 0; x < dst.w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			dst.Set(x, y, Color{R: c.R, G: c.G, B: c.B})
		}
	}
	return dst, nil
}

// ToNRGBA converts the buffer into an opaque *image.NRGBA.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(b.Bounds())
	for y := 0; y < b.h; y++ {
		off := img.PixOffset(0, y)
		for x, c := range b.Row(y) {
			i := off + 4*x
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = 255
		}
	}
	return img
}
