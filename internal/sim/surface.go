// Package sim drives a snow scene at a fixed step: rolling bodies press
// stamps into the surface and record trails, and the accumulator merges the
// stamps once per step.
package sim

import (
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/Faultbox/snowfield/internal/config"
	"github.com/Faultbox/snowfield/internal/contact"
	"github.com/Faultbox/snowfield/internal/deform"
	"github.com/Faultbox/snowfield/internal/heatmap"
	"github.com/Faultbox/snowfield/pkg/math"
)

// SnowLayer is the physics layer the snow surface lives on.
const SnowLayer = 8

// NewFrame builds the surface's coordinate frame and ground plane from its
// configured world bounds. The frame keeps the bounds as given, mirror
// included; the ground plane orders them.
func NewFrame(cfg config.SurfaceConfig) (*deform.CoordinateFrame, contact.PlaneGround, error) {
	lo := math.Vec3{X: cfg.BoundsMin[0], Y: cfg.BoundsMin[1], Z: cfg.BoundsMin[2]}
	hi := math.Vec3{X: cfg.BoundsMax[0], Y: cfg.BoundsMax[1], Z: cfg.BoundsMax[2]}
	frame, err := deform.NewCoordinateFrame(lo, hi)
	if err != nil {
		return nil, contact.PlaneGround{}, err
	}
	ground := contact.PlaneGround{
		Height:    max(lo.Y, hi.Y),
		Min:       math.Vec2{X: min(lo.X, hi.X), Y: min(lo.Z, hi.Z)},
		Max:       math.Vec2{X: max(lo.X, hi.X), Y: max(lo.Z, hi.Z)},
		SnowLayer: SnowLayer,
	}
	return frame, ground, nil
}

// NewQueue builds the stamp queue the deformation settings ask for.
func NewQueue(cfg config.DeformationConfig) (*deform.Queue, error) {
	policy, err := deform.ParseOverflowPolicy(cfg.OverflowPolicy)
	if err != nil {
		return nil, err
	}
	return deform.NewQueue(cfg.QueueCapacity, policy), nil
}

// NewOrderSource returns the trail order source named by the config.
// Time ordering reads clk, normally the scene's simulated clock.
func NewOrderSource(name string, clk clock.Clock) (heatmap.OrderSource, error) {
	switch name {
	case "", "count":
		return heatmap.NewCountOrder(), nil
	case "time":
		return heatmap.NewClockOrder(clk), nil
	default:
		return nil, fmt.Errorf("unknown trail order source %q", name)
	}
}

// Binding builds the accumulator binding for texture on the configured surface.
func Binding(cfg config.SurfaceConfig, texture deform.Target, frame *deform.CoordinateFrame) deform.Binding {
	return deform.Binding{
		Texture:       texture,
		Frame:         frame,
		StandardValue: cfg.StandardValue,
		MinValue:      cfg.MinValue,
		MaxValue:      cfg.MaxValue,
	}
}
