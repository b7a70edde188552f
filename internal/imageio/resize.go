package imageio

import (
	"image"

	"github.com/disintegration/gift"

	"github.com/MeKo-Tech/pixfx/internal/pixel"
)

// Resize scales buf down so neither side exceeds maxSize, keeping the aspect
// ratio. A non-positive maxSize or an image that already fits returns a copy.
func Resize(buf *pixel.Buffer, maxSize int) (*pixel.Buffer, error) {
	if buf == nil {
		return nil, pixel.ErrInvalidParameter
	}
	w, h := buf.Width(), buf.Height()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return buf.Clone(), nil
	}

	// gift.Resize derives the other side when one dimension is zero.
	tw, th := maxSize, 0
	if h > w {
		tw, th = 0, maxSize
	}
	g := gift.New(gift.Resize(tw, th, gift.LanczosResampling))

	dst := image.NewNRGBA(g.Bounds(buf.Bounds()))
	g.Draw(dst, buf.ToNRGBA())

	return pixel.FromImage(dst)
}
