// Package pipeline dispatches named image operations and runs them over files.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/MeKo-Tech/pixfx/internal/convolve"
	"github.com/MeKo-Tech/pixfx/internal/glitch"
	"github.com/MeKo-Tech/pixfx/internal/noise"
	"github.com/MeKo-Tech/pixfx/internal/pixel"
)

// Operation names a single-source transform.
type Operation string

const (
	OpGaussian          Operation = "gaussian"
	OpGaussianSeparable Operation = "gaussian-separable"
	OpGaussianSampled   Operation = "gaussian-sampled"
	OpBox               Operation = "box"
	OpBoxSampled        Operation = "box-sampled"
	OpEdges             Operation = "edges"
	OpSharpen           Operation = "sharpen"
	OpGlitch            Operation = "glitch"
	OpHeightmap         Operation = "heightmap"
)

var operations = []Operation{
	OpGaussian,
	OpGaussianSeparable,
	OpGaussianSampled,
	OpBox,
	OpBoxSampled,
	OpEdges,
	OpSharpen,
	OpGlitch,
	OpHeightmap,
}

// Operations returns every supported operation in display order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// ParseOperation validates an operation name.
func ParseOperation(s string) (Operation, error) {
	name := Operation(strings.ToLower(strings.TrimSpace(s)))
	for _, op := range operations {
		if op == name {
			return op, nil
		}
	}
	names := make([]string, len(operations))
	for i, op := range operations {
		names[i] = string(op)
	}
	return "", fmt.Errorf("unknown operation %q (want one of %s)", s, strings.Join(names, ", "))
}

// Randomized reports whether the operation consumes the seed.
func (op Operation) Randomized() bool {
	switch op {
	case OpGaussianSampled, OpBoxSampled, OpGlitch:
		return true
	}
	return false
}

// Params carries the knobs shared by all operations. Fields an operation does
// not use are ignored.
type Params struct {
	Iterations int   `json:"iterations"`
	Samples    int   `json:"samples,omitempty"`
	Power      int   `json:"power,omitempty"`
	Seed       int64 `json:"seed"`
	Workers    int   `json:"-"`
}

// DefaultParams returns the values the CLI starts from.
func DefaultParams() Params {
	return Params{
		Iterations: 1,
		Samples:    8,
		Power:      10,
	}
}

// Processor runs operations and logs their timing.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor returns a processor logging to logger, or slog.Default when nil.
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{logger: logger}
}

// Run applies op to src. Randomized operations draw from a generator seeded
// with params.Seed, so equal params give equal output.
func (p *Processor) Run(ctx context.Context, op Operation, src *pixel.Buffer, params Params) (*pixel.Buffer, error) {
	if src == nil {
		return nil, fmt.Errorf("%s: nil source: %w", op, pixel.ErrInvalidParameter)
	}

	p.log().Debug("Running operation",
		"op", op,
		"width", src.Width(),
		"height", src.Height(),
		"iterations", params.Iterations,
		"seed", params.Seed,
	)
	start := time.Now()

	out, err := p.dispatch(ctx, op, src, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.log().Info("Operation finished", "op", op, "elapsed", time.Since(start).Round(time.Millisecond))
	return out, nil
}

func (p *Processor) dispatch(ctx context.Context, op Operation, src *pixel.Buffer, params Params) (*pixel.Buffer, error) {
	rng := rand.New(rand.NewSource(params.Seed))
	opts := convolve.Options{Iterations: params.Iterations, Workers: params.Workers}

	switch op {
	case OpGaussian:
		return convolve.Apply(ctx, src, convolve.GaussianKernel(), opts)
	case OpGaussianSeparable:
		v := convolve.GaussianVector()
		return convolve.ApplySeparable(ctx, src, v, v, opts)
	case OpGaussianSampled:
		return convolve.ApplySampled(ctx, src, convolve.GaussianKernel(), params.Samples, opts, rng)
	case OpBox:
		return convolve.Apply(ctx, src, convolve.BoxKernel(), opts)
	case OpBoxSampled:
		return convolve.ApplySampled(ctx, src, convolve.BoxKernel(), params.Samples, opts, rng)
	case OpEdges:
		return convolve.Apply(ctx, src, convolve.EdgeKernel(), convolve.Options{Iterations: 1, Factor: 1, Workers: params.Workers})
	case OpSharpen:
		return convolve.Apply(ctx, src, convolve.SharpenKernel(), convolve.Options{Iterations: 1, Factor: 1, Workers: params.Workers})
	case OpGlitch:
		return glitch.Glitch(ctx, src, params.Power, rng)
	case OpHeightmap:
		return noise.Heightmap(src)
	default:
		return nil, fmt.Errorf("unknown operation: %w", pixel.ErrInvalidParameter)
	}
}

func (p *Processor) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}
