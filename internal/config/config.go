// Package config handles simulation configuration loading and management.
package config

import (
	"fmt"
	"time"
)

// Config holds all simulation settings.
type Config struct {
	Surface     SurfaceConfig     `yaml:"surface"`
	Deformation DeformationConfig `yaml:"deformation"`
	Trail       TrailConfig       `yaml:"trail"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// SurfaceConfig describes the displacement texture and the ground it covers.
type SurfaceConfig struct {
	Width         int        `yaml:"width"`  // texels
	Height        int        `yaml:"height"` // texels
	StandardValue float32    `yaml:"standard_value"`
	MinValue      float32    `yaml:"min_value"`
	MaxValue      float32    `yaml:"max_value"`
	BoundsMin     [3]float32 `yaml:"bounds_min"` // world x, y, z
	BoundsMax     [3]float32 `yaml:"bounds_max"`
	Fill          FillConfig `yaml:"fill"`
}

// FillConfig selects how the texture is seeded before the first tick.
type FillConfig struct {
	Mode     string        `yaml:"mode"` // flat, gradient or curve
	Gradient []GradientKey `yaml:"gradient"`
	Curve    []CurveKey    `yaml:"curve"`
}

// GradientKey is a colour stop at a normalized position.
type GradientKey struct {
	At    float64 `yaml:"at"`
	Color string  `yaml:"color"` // #rrggbb
}

// CurveKey is a keyframe at a normalized position.
type CurveKey struct {
	At    float64 `yaml:"at"`
	Value float64 `yaml:"value"`
}

// DeformationConfig holds stamp parameters and queue limits.
type DeformationConfig struct {
	Strength         float32 `yaml:"strength"`
	RadiusMultiplier float32 `yaml:"radius_multiplier"`
	RimWidth         float32 `yaml:"rim_width"`
	RimStrength      float32 `yaml:"rim_strength"`
	QueueCapacity    int     `yaml:"queue_capacity"`
	OverflowPolicy   string  `yaml:"overflow_policy"` // drop_oldest or unbounded
	Workers          int     `yaml:"workers"`         // CPU backend parallelism, 0 = GOMAXPROCS
}

// TrailConfig holds heatmap trail settings.
type TrailConfig struct {
	Capacity    int     `yaml:"capacity"`
	Window      float64 `yaml:"window"`       // successor window in order steps
	OrderSource string  `yaml:"order_source"` // count or time
	MinDistance float32 `yaml:"min_distance"`
}

// SimulationConfig holds scene driver settings.
type SimulationConfig struct {
	FixedStep   time.Duration `yaml:"fixed_step"`
	Steps       int           `yaml:"steps"`
	Bodies      int           `yaml:"bodies"`
	BodyRadius  float32       `yaml:"body_radius"`
	Impulse     float32       `yaml:"impulse"`
	Damping     float32       `yaml:"damping"`
	Seed        int64         `yaml:"seed"`
	Backend     string        `yaml:"backend"` // cpu or gl
	OutputDir   string        `yaml:"output_dir"`
	RandomTrail bool          `yaml:"random_trail"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Surface: SurfaceConfig{
			Width:         256,
			Height:        256,
			StandardValue: 0.8,
			MinValue:      0,
			MaxValue:      1,
			BoundsMin:     [3]float32{-16, 0, -16},
			BoundsMax:     [3]float32{16, 0, 16},
			Fill:          FillConfig{Mode: "flat"},
		},
		Deformation: DeformationConfig{
			Strength:         0.5,
			RadiusMultiplier: 1,
			RimWidth:         0.25,
			RimStrength:      0.1,
			QueueCapacity:    4096,
			OverflowPolicy:   "drop_oldest",
		},
		Trail: TrailConfig{
			Capacity:    20,
			Window:      2,
			OrderSource: "count",
			MinDistance: 0.5,
		},
		Simulation: SimulationConfig{
			FixedStep:  20 * time.Millisecond,
			Steps:      500,
			Bodies:     3,
			BodyRadius: 0.5,
			Impulse:    8,
			Damping:    0.2,
			Seed:       1,
			Backend:    "cpu",
			OutputDir:  "out",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the settings once at startup.
func (c *Config) Validate() error {
	s := c.Surface
	if s.Width < 1 || s.Height < 1 {
		return fmt.Errorf("surface size %dx%d must be positive", s.Width, s.Height)
	}
	if s.MinValue > s.MaxValue {
		return fmt.Errorf("surface min_value %v above max_value %v", s.MinValue, s.MaxValue)
	}
	if s.BoundsMax[0] <= s.BoundsMin[0] || s.BoundsMax[2] <= s.BoundsMin[2] {
		return fmt.Errorf("surface bounds %v..%v have no XZ extent", s.BoundsMin, s.BoundsMax)
	}
	switch s.Fill.Mode {
	case "", "flat":
	case "gradient":
		if len(s.Fill.Gradient) == 0 {
			return fmt.Errorf("gradient fill needs at least one key")
		}
	case "curve":
		if len(s.Fill.Curve) == 0 {
			return fmt.Errorf("curve fill needs at least one key")
		}
	default:
		return fmt.Errorf("unknown fill mode %q", s.Fill.Mode)
	}

	d := c.Deformation
	if d.RadiusMultiplier <= 0 {
		return fmt.Errorf("deformation radius_multiplier must be positive")
	}
	if d.RimWidth < 0 {
		return fmt.Errorf("deformation rim_width must not be negative")
	}
	if d.QueueCapacity < 0 {
		return fmt.Errorf("deformation queue_capacity must not be negative")
	}
	switch d.OverflowPolicy {
	case "", "drop_oldest", "unbounded":
	default:
		return fmt.Errorf("unknown overflow policy %q", d.OverflowPolicy)
	}

	t := c.Trail
	if t.Capacity < 1 {
		return fmt.Errorf("trail capacity must be positive")
	}
	if t.Window <= 0 {
		return fmt.Errorf("trail window must be positive")
	}
	switch t.OrderSource {
	case "count", "time":
	default:
		return fmt.Errorf("unknown trail order source %q", t.OrderSource)
	}

	sim := c.Simulation
	if sim.FixedStep <= 0 {
		return fmt.Errorf("simulation fixed_step must be positive")
	}
	if sim.Steps < 0 || sim.Bodies < 0 {
		return fmt.Errorf("simulation steps and bodies must not be negative")
	}
	if sim.BodyRadius <= 0 {
		return fmt.Errorf("simulation body_radius must be positive")
	}
	switch sim.Backend {
	case "cpu", "gl":
	default:
		return fmt.Errorf("unknown backend %q", sim.Backend)
	}
	return nil
}
