package main

import (
	"github.com/Faultbox/snowfield/internal/config"
	"github.com/Faultbox/snowfield/internal/engine/gpu"
	"github.com/Faultbox/snowfield/internal/engine/window"
	"github.com/Faultbox/snowfield/internal/logger"
)

// newGLSurface opens a hidden window for its GL 4.3 context and allocates
// the displacement texture and trail buffer on the GPU.
func newGLSurface(cfg *config.Config) (*surface, error) {
	win, err := window.New(window.Config{
		Title:  "Snowfield",
		Width:  cfg.Surface.Width,
		Height: cfg.Surface.Height,
		Hidden: true,
	}, logger.Log)
	if err != nil {
		return nil, err
	}

	backend, err := gpu.NewBackend(logger.Log)
	if err != nil {
		win.Close()
		return nil, err
	}

	tex, err := backend.NewTexture(cfg.Surface.Width, cfg.Surface.Height)
	if err != nil {
		backend.Close()
		win.Close()
		return nil, err
	}

	trails, err := gpu.NewTrailBuffer(cfg.Trail.Capacity)
	if err != nil {
		backend.DeleteTexture(tex)
		backend.Close()
		win.Close()
		return nil, err
	}

	return &surface{
		backend:   backend,
		texture:   tex,
		trailSink: trails,
		release: func() error {
			backend.DeleteTexture(tex)
			return closeAll(trails.Close, backend.Close, func() error {
				win.Close()
				return nil
			})
		},
	}, nil
}
