package noise

import (
	"github.com/aquilax/go-perlin"
)

// Field is a continuous scalar field, approximately within [-1, 1] for the
// settings used by the cloud renderer.
type Field interface {
	At(x, y float64) float64
}

// LatticeField samples multi-octave lattice value noise.
type LatticeField struct {
	Octaves Octaves
}

// NewLatticeField returns the sixteen-octave field used by Clouds.
func NewLatticeField(persistence float64) LatticeField {
	return LatticeField{Octaves: Octaves{Count: perlin2DOctaves, Persistence: persistence}}
}

// At implements Field.
func (f LatticeField) At(x, y float64) float64 {
	return f.Octaves.Sum2D(x, y)
}

// DefaultGradientScale is the base frequency applied to normalized image coordinates.
const DefaultGradientScale = 8.0

// GradientField samples classic gradient Perlin noise from go-perlin.
// Unlike the lattice field it owns its own permutation table, so two fields
// built from the same seed are identical and share no state.
type GradientField struct {
	p     *perlin.Perlin
	scale float64
}

// NewGradientField builds a gradient field. persistence maps onto go-perlin's
// alpha (the per-octave divisor), lacunarity is fixed at 2.
func NewGradientField(persistence float64, octaves int, scale float64, seed int64) (*GradientField, error) {
	o := Octaves{Count: octaves, Persistence: persistence}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = DefaultGradientScale
	}
	return &GradientField{
		p:     perlin.NewPerlin(1/persistence, 2.0, int32(octaves), seed),
		scale: scale,
	}, nil
}

// At implements Field.
func (f *GradientField) At(x, y float64) float64 {
	return f.p.Noise2D(x*f.scale, y*f.scale)
}
