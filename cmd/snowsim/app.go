package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/snowfield/internal/config"
	"github.com/Faultbox/snowfield/internal/debug"
	"github.com/Faultbox/snowfield/internal/deform"
	"github.com/Faultbox/snowfield/internal/fill"
	"github.com/Faultbox/snowfield/internal/heatmap"
	"github.com/Faultbox/snowfield/internal/logger"
	"github.com/Faultbox/snowfield/internal/sim"
)

// app wires one surface, its accumulator, trail recorder and scene.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	surface *surface
	frame   *deform.CoordinateFrame
	acc     *deform.Accumulator
	trails  *heatmap.Recorder
	scene   *sim.Scene
}

func newApp(cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg, log: logger.Named("app")}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	frame, ground, err := sim.NewFrame(cfg.Surface)
	if err != nil {
		return nil, fmt.Errorf("surface bounds: %w", err)
	}
	a.frame = frame

	switch cfg.Simulation.Backend {
	case "gl":
		a.surface, err = newGLSurface(cfg)
	default:
		a.surface, err = newCPUSurface(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s surface: %w", cfg.Simulation.Backend, err)
	}

	if err := a.seed(); err != nil {
		return nil, err
	}

	queue, err := sim.NewQueue(cfg.Deformation)
	if err != nil {
		return nil, err
	}
	a.acc = deform.NewAccumulator(a.surface.backend, queue, logger.Named("deform"))
	if err := a.acc.Bind(sim.Binding(cfg.Surface, a.surface.texture, frame)); err != nil {
		return nil, fmt.Errorf("binding surface: %w", err)
	}

	simClock := clock.NewMock()
	order, err := sim.NewOrderSource(cfg.Trail.OrderSource, simClock)
	if err != nil {
		return nil, err
	}
	a.trails = heatmap.NewRecorder(cfg.Trail.Capacity, order, a.surface.trailSink, logger.Named("heatmap"))

	a.scene, err = sim.NewScene(cfg, ground, a.acc, a.trails, simClock, logger.Log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// seed writes the initial snow: a flat reset or an authored fill.
func (a *app) seed() error {
	s := a.cfg.Surface
	src, err := fill.FromConfig(s)
	if err != nil {
		return fmt.Errorf("initial fill: %w", err)
	}
	if flat, ok := src.(fill.Flat); ok {
		return deform.Reset(a.surface.backend, a.surface.texture, float32(flat))
	}
	return deform.Seed(a.surface.backend, a.surface.texture, fill.Render(src, s.Width, s.Height))
}

// Run steps the scene, then logs a summary and writes debug images.
func (a *app) Run(ctx context.Context) error {
	stats, err := a.scene.Run(ctx, a.cfg.Simulation.Steps)
	a.scene.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.log.Info("run complete",
		zap.Int("steps", stats.Steps),
		zap.Int("stamps", stats.Stamps),
		zap.Uint64("dropped", stats.Dropped),
		zap.Int("failed_ticks", stats.FailedTicks),
		zap.Int("resting_bodies", stats.Resting),
		zap.Int("trail_points", stats.TrailPoints),
		zap.Duration("simulated", time.Duration(stats.Steps)*a.cfg.Simulation.FixedStep),
	)

	return a.writeImages()
}

func (a *app) writeImages() error {
	if a.cfg.Simulation.OutputDir == "" {
		return nil
	}
	s := a.cfg.Surface
	data, err := a.surface.backend.Download(a.surface.texture)
	if err != nil {
		return fmt.Errorf("reading back surface: %w", err)
	}
	tex := &deform.Texture{Width: s.Width, Height: s.Height, Pix: data}

	capture := debug.NewCapture(a.cfg.Simulation.OutputDir, "snowfield", nil)
	height := debug.TextureImage(tex, s.MinValue, s.MaxValue)
	path, err := capture.Save("height", height)
	if err != nil {
		return err
	}
	a.log.Info("saved height map", zap.String("path", path))

	trails := debug.OverlayTrails(height, a.trails.Points(), a.frame, a.cfg.Trail.Window)
	path, err = capture.Save("trails", trails)
	if err != nil {
		return err
	}
	a.log.Info("saved trail overlay", zap.String("path", path))
	return nil
}

// Close releases the surface's resources.
func (a *app) Close() error {
	if a.surface == nil {
		return nil
	}
	err := a.surface.release()
	a.surface = nil
	if err != nil {
		a.log.Warn("releasing surface", zap.Error(err))
	}
	return err
}

// surface is a displacement texture together with the backend that owns it.
type surface struct {
	backend   deform.Backend
	texture   deform.Target
	trailSink heatmap.Sink
	release   func() error
}

func newCPUSurface(cfg *config.Config) (*surface, error) {
	tex, err := deform.NewTexture(cfg.Surface.Width, cfg.Surface.Height)
	if err != nil {
		return nil, err
	}
	return &surface{
		backend:   deform.NewCPUBackend(cfg.Deformation.Workers),
		texture:   tex,
		trailSink: &heatmap.MemorySink{},
		release:   func() error { return nil },
	}, nil
}

// closeAll runs every closer and joins their errors.
func closeAll(closers ...func() error) error {
	var err error
	for _, c := range closers {
		err = multierr.Append(err, c())
	}
	return err
}
