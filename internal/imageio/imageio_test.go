package imageio

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/pixfx/internal/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuffer(w, h int) *pixel.Buffer {
	b := pixel.MustNew(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.Set(x, y, pixel.Color{R: uint8(x * 20), G: uint8(y * 30), B: uint8(x + y)})
		}
	}
	return b
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in   string
		want png.CompressionLevel
	}{
		{"", png.DefaultCompression},
		{"default", png.DefaultCompression},
		{"speed", png.BestSpeed},
		{"BEST", png.BestCompression},
		{"none", png.NoCompression},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseCompression("ultra")
	assert.Error(t, err)
}

func TestSaveLoadLosslessFormats(t *testing.T) {
	dir := t.TempDir()
	src := testBuffer(7, 5)

	for _, name := range []string{"out.png", "out.bmp", "out.tiff", "nested/dir/out.tif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, src, Options{PNGCompression: png.BestSpeed}))

			got, err := Load(path)
			require.NoError(t, err)
			assert.True(t, got.Equal(src), "round trip through %s changed pixels", name)
		})
	}
}

func TestSaveJPEGKeepsSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jpg")
	require.NoError(t, Save(path, testBuffer(9, 4), Options{JPEGQuality: 80}))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Width())
	assert.Equal(t, 4, got.Height())
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "out.xyz"), testBuffer(2, 2), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = Save(filepath.Join(t.TempDir(), "out.jpg"), testBuffer(2, 2), Options{JPEGQuality: 101})
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
}

func TestLoadMissingAndGarbage(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0644))
	_, err = Load(garbage)
	assert.Error(t, err)
}

func TestEncodePNGDecodes(t *testing.T) {
	src := testBuffer(4, 4)
	data, err := EncodePNG(src, png.DefaultCompression)
	require.NoError(t, err)

	got, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, got.Equal(src))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "jpeg", FormatFromPath("a/B.JPG"))
	assert.Equal(t, "tiff", FormatFromPath("x.tif"))
	assert.Equal(t, "png", FormatFromPath("x.png"))
	assert.Equal(t, "", FormatFromPath("noext"))
}

func TestResize(t *testing.T) {
	src := testBuffer(100, 50)

	same, err := Resize(src, 0)
	require.NoError(t, err)
	assert.True(t, same.Equal(src))
	assert.NotSame(t, src, same)

	fits, err := Resize(src, 100)
	require.NoError(t, err)
	assert.True(t, fits.Equal(src))

	small, err := Resize(src, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, small.Width())
	assert.Equal(t, 10, small.Height())

	tall, err := Resize(testBuffer(30, 90), 45)
	require.NoError(t, err)
	assert.Equal(t, 15, tall.Width())
	assert.Equal(t, 45, tall.Height())
}
