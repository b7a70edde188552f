// Package imageio moves pixel buffers in and out of image files.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/pixfx/internal/pixel"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// ErrUnsupportedFormat is returned when a file extension has no encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// DefaultJPEGQuality is used when Options.JPEGQuality is zero.
const DefaultJPEGQuality = 90

// Options controls encoding.
type Options struct {
	PNGCompression png.CompressionLevel
	JPEGQuality    int
}

// ParseCompression maps a --png-compression value to a png.CompressionLevel.
func ParseCompression(s string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed", "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none", "no":
		return png.NoCompression, nil
	default:
		return 0, fmt.Errorf("invalid png compression %q (want default, speed, best, none)", s)
	}
}

// Load decodes the image at path. PNG, JPEG, GIF, BMP, TIFF and WebP are accepted.
func Load(path string) (*pixel.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close() // nolint:errcheck

	buf, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return buf, nil
}

// Decode reads any registered image format from r.
func Decode(r io.Reader) (*pixel.Buffer, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return pixel.FromImage(img)
}

// Save encodes buf to path, picking the format from the extension.
func Save(path string, buf *pixel.Buffer, opts Options) error {
	if buf == nil {
		return fmt.Errorf("save %s: nil buffer: %w", path, pixel.ErrInvalidParameter)
	}
	format := FormatFromPath(path)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	var out bytes.Buffer
	if err := Encode(&out, buf, format, opts); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FormatFromPath returns the normalized format name for a file extension
// ("png", "jpeg", "gif", "bmp", "tiff", "webp"), or the bare extension when unknown.
func FormatFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "jpg", "jpeg":
		return "jpeg"
	case "tif", "tiff":
		return "tiff"
	default:
		return ext
	}
}

// Encode writes buf to w in the named format.
func Encode(w io.Writer, buf *pixel.Buffer, format string, opts Options) error {
	img := buf.ToNRGBA()
	switch format {
	case "png":
		enc := png.Encoder{CompressionLevel: opts.PNGCompression}
		return enc.Encode(w, img)
	case "jpeg":
		q := opts.JPEGQuality
		if q == 0 {
			q = DefaultJPEGQuality
		}
		if q < 1 || q > 100 {
			return fmt.Errorf("jpeg quality %d outside 1..100: %w", q, pixel.ErrInvalidParameter)
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	case "gif":
		return gif.Encode(w, img, nil)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}

// EncodePNG returns buf as PNG bytes.
func EncodePNG(buf *pixel.Buffer, level png.CompressionLevel) ([]byte, error) {
	var out bytes.Buffer
	if err := Encode(&out, buf, "png", Options{PNGCompression: level}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
