package noise

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/MeKo-Tech/pixfx/internal/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoise1DKnownValues(t *testing.T) {
	tests := []struct {
		x    int
		want float64
	}{
		{0, -0.2817909838631749},
		{1, -0.2263730512931943},
		{-1, 0.9001262886449695},
		{12345, -0.8928926484659314},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Noise1D(tt.x), 1e-12, "Noise1D(%d)", tt.x)
	}
}

func TestNoise2DFoldsCoordinates(t *testing.T) {
	assert.Equal(t, Noise1D(3+2*57), Noise2D(3, 2))
	assert.Equal(t, Noise1D(57), Noise2D(0, 1))
	assert.InDelta(t, 0.1725837467238307, Noise2D(3, 2), 1e-12)
}

func TestInterpolatedNoiseMatchesLatticeAtIntegers(t *testing.T) {
	for x := -4; x <= 4; x++ {
		assert.InDelta(t, SmoothNoise1D(x), InterpolatedNoise1D(float64(x)), 1e-12)
		for y := -2; y <= 2; y++ {
			assert.InDelta(t, SmoothNoise2D(x, y), InterpolatedNoise2D(float64(x), float64(y)), 1e-12)
		}
	}
}

func TestInterpolatedNoise2DBounds(t *testing.T) {
	for y := 0.0; y < 40; y += 0.37 {
		for x := 0.0; x < 40; x += 0.29 {
			v := InterpolatedNoise2D(x, y)
			if v < -1.01 || v > 1.01 {
				t.Fatalf("InterpolatedNoise2D(%v,%v) = %v out of bounds", x, y, v)
			}
		}
	}
}

func TestPerlin2DBoundedByGeometricSeries(t *testing.T) {
	for _, p := range []float64{0.25, 0.5, 0.8} {
		bound := Octaves{Count: perlin2DOctaves, Persistence: p}.MaxAmplitude()
		assert.Less(t, bound, 1/(1-p)+1e-9)

		for y := 0.0; y < 3; y += 0.13 {
			for x := 0.0; x < 3; x += 0.11 {
				v := Perlin2D(x, y, p)
				if v < -bound-1e-9 || v > bound+1e-9 {
					t.Fatalf("Perlin2D(%v,%v,%v) = %v exceeds %v", x, y, p, v, bound)
				}
			}
		}
	}
}

func TestPerlinIsPure(t *testing.T) {
	assert.Equal(t, Perlin2D(1.25, 7.5, 0.6), Perlin2D(1.25, 7.5, 0.6))
	assert.Equal(t, Perlin1D(3.3), Perlin1D(3.3))
}

func TestOctavesValidate(t *testing.T) {
	assert.NoError(t, Octaves{Count: 4, Persistence: 0.5}.Validate())
	for _, o := range []Octaves{
		{Count: 0, Persistence: 0.5},
		{Count: 3, Persistence: 0},
		{Count: 3, Persistence: -1},
	} {
		err := o.Validate()
		assert.True(t, errors.Is(err, pixel.ErrInvalidParameter), "expected invalid parameter for %+v", o)
	}
}

func TestCloudsDeterministicPerSeed(t *testing.T) {
	ctx := context.Background()
	a, err := Clouds(ctx, 24, 16, 0.5, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := Clouds(ctx, 24, 16, 0.5, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	c, err := Clouds(ctx, 24, 16, 0.5, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	assert.True(t, a.Equal(b), "same seed must reproduce the same clouds")
	assert.False(t, a.Equal(c), "different seeds should produce different clouds")

	for y := 0; y < a.Height(); y++ {
		for x := 0; x < a.Width(); x++ {
			px := a.At(x, y)
			if px.R != px.G || px.G != px.B {
				t.Fatalf("pixel (%d,%d) = %+v is not gray", x, y, px)
			}
		}
	}
}

func TestCloudsRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	_, err := Clouds(ctx, 0, 10, 0.5, rng)
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)

	_, err = Clouds(ctx, 10, 10, 0, rng)
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)

	_, err = Clouds(ctx, 10, 10, 0.5, nil)
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
}

type constField float64

func (c constField) At(float64, float64) float64 { return float64(c) }

func TestRenderQuantization(t *testing.T) {
	tests := []struct {
		v    float64
		want uint8
	}{
		{0, 127},
		{1, 254},
		{-1, 0},
		{3, 255},
		{-3, 0},
		{0.5, 190},
	}
	for _, tt := range tests {
		out, err := Render(context.Background(), 2, 2, constField(tt.v), 0, 1)
		require.NoError(t, err)
		assert.Equal(t, pixel.Gray(tt.want), out.At(1, 1), "value %v", tt.v)
	}
}

func TestRenderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Render(ctx, 8, 8, constField(0), 0, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGradientFieldSeeded(t *testing.T) {
	a, err := NewGradientField(0.5, 3, 0, 99)
	require.NoError(t, err)
	b, err := NewGradientField(0.5, 3, 0, 99)
	require.NoError(t, err)

	for _, pt := range [][2]float64{{0.1, 0.2}, {0.55, 0.9}, {3.3, 1.7}} {
		assert.Equal(t, a.At(pt[0], pt[1]), b.At(pt[0], pt[1]))
	}

	_, err = NewGradientField(0, 3, 0, 1)
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)

	out, err := Render(context.Background(), 16, 16, a, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 16, out.Width())
}

func TestHeightmapBands(t *testing.T) {
	src := pixel.MustNew(5, 1)
	src.Set(0, 0, pixel.Gray(0))
	src.Set(1, 0, pixel.Gray(60))
	src.Set(2, 0, pixel.Gray(128))
	src.Set(3, 0, pixel.Gray(255))
	src.Set(4, 0, pixel.Gray(85))

	out, err := Heightmap(src)
	require.NoError(t, err)

	assert.Equal(t, pixel.Color{}, out.At(0, 0))
	assert.Equal(t, pixel.Color{B: 179}, out.At(1, 0))
	assert.Equal(t, pixel.Color{R: 127, G: 127}, out.At(2, 0))
	assert.Equal(t, pixel.Color{R: 254, G: 0}, out.At(3, 0))
	assert.Equal(t, pixel.Color{B: 254}, out.At(4, 0))

	assert.Equal(t, pixel.Gray(128), src.At(2, 0), "source must be left untouched")
}

func TestCloudsSamplesOffsetLattice(t *testing.T) {
	const (
		w, h = 16, 8
		p    = 0.5
	)
	off := float64(rand.New(rand.NewSource(42)).Intn(MaxCloudOffset))

	got, err := Clouds(context.Background(), w, h, p, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	for _, pt := range [][2]int{{0, 0}, {5, 3}, {15, 7}, {9, 6}} {
		x, y := float64(pt[0]), float64(pt[1])
		want := pixel.Gray(quantize(Perlin2D((x+off)/w, (y+off)/h, p)))
		assert.Equal(t, want, got.At(pt[0], pt[1]), "pixel %v", pt)
	}
}
