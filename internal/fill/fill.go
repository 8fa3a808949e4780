// Package fill produces initial displacement textures: a flat value, a
// colour gradient averaged to grey, or a keyframed curve, evaluated along
// the texture's X axis.
package fill

import (
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/interp"

	"github.com/Faultbox/snowfield/internal/config"
	"github.com/Faultbox/snowfield/internal/deform"
)

// Source maps a normalized column position in [0, 1) to a displacement value.
type Source interface {
	Value(x float64) float32
}

// Flat fills every texel with the same value.
type Flat float32

// Value implements Source.
func (f Flat) Value(float64) float32 {
	return float32(f)
}

// ColorKey is a gradient stop.
type ColorKey struct {
	At    float64
	Color colorful.Color
}

// Gradient blends colour stops and averages the channels to a grey value.
type Gradient struct {
	keys []ColorKey
}

// NewGradient sorts keys by position. At least one key is required.
func NewGradient(keys []ColorKey) (*Gradient, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("gradient needs at least one key")
	}
	sorted := append([]ColorKey(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	return &Gradient{keys: sorted}, nil
}

// Color returns the blended colour at x. Positions outside the keys take
// the nearest end colour.
func (g *Gradient) Color(x float64) colorful.Color {
	first, last := g.keys[0], g.keys[len(g.keys)-1]
	if x <= first.At {
		return first.Color
	}
	if x >= last.At {
		return last.Color
	}
	i := sort.Search(len(g.keys), func(i int) bool { return g.keys[i].At > x })
	a, b := g.keys[i-1], g.keys[i]
	return a.Color.BlendRgb(b.Color, (x-a.At)/(b.At-a.At))
}

// Value implements Source.
func (g *Gradient) Value(x float64) float32 {
	c := g.Color(x)
	return float32((c.R + c.G + c.B) / 3)
}

// Key is a curve keyframe.
type Key struct {
	At    float64
	Value float64
}

// Curve interpolates keyframes with a monotone cubic. Positions outside
// the keys are clamped to the end values.
type Curve struct {
	lo, hi    float64
	constant  float64
	predictor interp.Predictor
}

// NewCurve fits keys. Keys must have distinct positions.
func NewCurve(keys []Key) (*Curve, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("curve needs at least one key")
	}
	sorted := append([]Key(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })

	xs := make([]float64, len(sorted))
	ys := make([]float64, len(sorted))
	for i, k := range sorted {
		if i > 0 && k.At == sorted[i-1].At {
			return nil, fmt.Errorf("curve keys share position %v", k.At)
		}
		xs[i], ys[i] = k.At, k.Value
	}

	c := &Curve{lo: xs[0], hi: xs[len(xs)-1], constant: ys[0]}
	switch {
	case len(xs) == 1:
		return c, nil
	case len(xs) == 2:
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("fitting curve: %w", err)
		}
		c.predictor = &pl
	default:
		var fb interp.FritschButland
		if err := fb.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("fitting curve: %w", err)
		}
		c.predictor = &fb
	}
	return c, nil
}

// Value implements Source.
func (c *Curve) Value(x float64) float32 {
	if c.predictor == nil {
		return float32(c.constant)
	}
	if x < c.lo {
		x = c.lo
	}
	if x > c.hi {
		x = c.hi
	}
	return float32(c.predictor.Predict(x))
}

// Render evaluates src at x/width for every column and replicates the value
// into all four channels of every row.
func Render(src Source, width, height int) []float32 {
	row := make([]float32, width*deform.Channels)
	for x := 0; x < width; x++ {
		v := src.Value(float64(x) / float64(width))
		for c := 0; c < deform.Channels; c++ {
			row[x*deform.Channels+c] = v
		}
	}
	out := make([]float32, 0, len(row)*height)
	for y := 0; y < height; y++ {
		out = append(out, row...)
	}
	return out
}

// Into renders src directly into a CPU texture.
func Into(tex *deform.Texture, src Source) {
	copy(tex.Pix, Render(src, tex.Width, tex.Height))
}

// FromConfig builds the source a surface config asks for. Flat fills use
// the surface's standard value.
func FromConfig(cfg config.SurfaceConfig) (Source, error) {
	switch cfg.Fill.Mode {
	case "", "flat":
		return Flat(cfg.StandardValue), nil
	case "gradient":
		keys := make([]ColorKey, 0, len(cfg.Fill.Gradient))
		for _, k := range cfg.Fill.Gradient {
			c, err := colorful.Hex(k.Color)
			if err != nil {
				return nil, fmt.Errorf("gradient key at %v: %w", k.At, err)
			}
			keys = append(keys, ColorKey{At: k.At, Color: c})
		}
		return NewGradient(keys)
	case "curve":
		keys := make([]Key, 0, len(cfg.Fill.Curve))
		for _, k := range cfg.Fill.Curve {
			keys = append(keys, Key{At: k.At, Value: k.Value})
		}
		return NewCurve(keys)
	default:
		return nil, fmt.Errorf("unknown fill mode %q", cfg.Fill.Mode)
	}
}
