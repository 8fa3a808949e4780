package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/Faultbox/snowfield/internal/config"
	"github.com/Faultbox/snowfield/internal/contact"
	"github.com/Faultbox/snowfield/internal/deform"
	"github.com/Faultbox/snowfield/internal/heatmap"
	"github.com/Faultbox/snowfield/internal/logger"
	"github.com/Faultbox/snowfield/pkg/math"
)

// progressEvery is how many steps pass between progress log lines.
const progressEvery = 100

// Stats summarizes a run.
type Stats struct {
	Steps       int
	Stamps      int
	Dropped     uint64
	FailedTicks int
	Resting     int // bodies that have settled
	TrailPoints int // written trail buffer slots
}

// Scene owns the bodies of one snow surface and steps them at a fixed rate.
// Not safe for concurrent use.
type Scene struct {
	cfg    config.SimulationConfig
	ground contact.PlaneGround
	acc    *deform.Accumulator
	trails *heatmap.Recorder
	clock  *clock.Mock
	rng    *rand.Rand
	log    *zap.Logger

	bodies []*Body
	demo   *RandomTrail
	dt     float32
	stats  Stats
}

// NewScene spawns the configured bodies on ground, each pushed once in a
// random horizontal direction. simClock is advanced by one fixed step per
// Step; trail ordering by time reads it.
func NewScene(cfg *config.Config, ground contact.PlaneGround, acc *deform.Accumulator, trails *heatmap.Recorder, simClock *clock.Mock, log *zap.Logger) (*Scene, error) {
	if acc == nil || trails == nil {
		return nil, fmt.Errorf("scene: %w", deform.ErrMissingResource)
	}
	if simClock == nil {
		simClock = clock.NewMock()
	}
	s := &Scene{
		cfg:    cfg.Simulation,
		ground: ground,
		acc:    acc,
		trails: trails,
		clock:  simClock,
		rng:    rand.New(rand.NewSource(cfg.Simulation.Seed)),
		log:    logger.OrNop(log).Named("sim"),
		dt:     float32(cfg.Simulation.FixedStep.Seconds()),
	}

	dcfg := contact.DefaultDeformerConfig()
	dcfg.Strength = cfg.Deformation.Strength
	dcfg.RadiusMultiplier = cfg.Deformation.RadiusMultiplier
	dcfg.RimWidth = cfg.Deformation.RimWidth
	dcfg.RimStrength = cfg.Deformation.RimStrength
	dcfg.SnowLayers = contact.Layers(SnowLayer)

	for i := 0; i < cfg.Simulation.Bodies; i++ {
		b, err := s.spawn(i, dcfg, cfg.Trail.MinDistance)
		if err != nil {
			return nil, fmt.Errorf("spawning body %d: %w", i, err)
		}
		s.bodies = append(s.bodies, b)
	}

	if cfg.Simulation.RandomTrail {
		s.demo = NewRandomTrail(DefaultRandomTrailConfig(), trails, ground, s.rng)
	}

	s.log.Info("scene ready",
		zap.Int("bodies", len(s.bodies)),
		zap.Duration("fixed_step", cfg.Simulation.FixedStep),
		zap.Bool("random_trail", s.demo != nil))
	return s, nil
}

func (s *Scene) spawn(id int, dcfg contact.DeformerConfig, minDistance float32) (*Body, error) {
	r := s.cfg.BodyRadius
	g := s.ground
	b := &Body{
		ID: id,
		Position: math.Vec3{
			X: lerp(g.Min.X+r, g.Max.X-r, s.rng.Float32()),
			Y: g.Height + r,
			Z: lerp(g.Min.Y+r, g.Max.Y-r, s.rng.Float32()),
		},
		Radius: r,
	}
	dir := randomDirection(s.rng)
	b.Velocity = math.Vec3{X: dir.X, Z: dir.Y}.Scale(s.cfg.Impulse)

	unitScale := math.Vec3{X: 1, Y: 1, Z: 1}
	d, err := contact.NewDeformer(dcfg, r, unitScale, g, s.acc, s.log)
	if err != nil {
		return nil, err
	}
	b.deformer = d
	b.writer = contact.NewTrailWriter(s.trails, contact.Layers(SnowLayer), minDistance, r*unitScale.X)

	b.writer.OnCollisionEnter(b.collision(g))
	b.onSnow = true
	return b, nil
}

// Bodies returns the scene's bodies.
func (s *Scene) Bodies() []*Body {
	return s.bodies
}

// Now returns the simulated time.
func (s *Scene) Now() time.Time {
	return s.clock.Now()
}

// Step advances every body by one fixed step, delivers their contacts,
// then merges the step's stamps into the surface.
func (s *Scene) Step() (deform.TickStats, error) {
	for _, b := range s.bodies {
		s.stepBody(b)
	}
	if s.demo != nil {
		s.demo.Update(s.dt)
	}
	s.clock.Add(s.cfg.FixedStep)

	tick, err := s.acc.Tick()
	s.stats.Steps++
	s.stats.Stamps += tick.Stamps
	s.stats.Dropped = tick.Dropped
	if err != nil {
		s.stats.FailedTicks++
	}
	return tick, err
}

func (s *Scene) stepBody(b *Body) {
	if !b.onSnow {
		return
	}
	if b.Velocity.Length() < restSpeed {
		b.writer.OnCollisionExit(b.collision(s.ground))
		b.onSnow = false
		s.log.Debug("body settled", zap.Int("body", b.ID))
		return
	}

	b.integrate(s.ground, s.cfg.Damping, s.dt)

	c := b.collision(s.ground)
	b.deformer.OnCollisionStay(c)
	b.deformer.Update(b.Position)
	b.writer.OnCollisionStay(c)
}

// Run steps the scene until steps have run or ctx is cancelled. Tick
// failures are counted and logged by the accumulator; they do not stop the run.
func (s *Scene) Run(ctx context.Context, steps int) (Stats, error) {
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return s.Stats(), err
		}
		if _, err := s.Step(); err != nil && s.acc.Disabled() {
			return s.Stats(), fmt.Errorf("step %d: %w", s.stats.Steps, err)
		}
		if s.stats.Steps%progressEvery == 0 {
			s.log.Debug("progress",
				zap.Int("step", s.stats.Steps),
				zap.Int("stamps", s.stats.Stamps),
				zap.Int("pending", s.acc.Pending()))
		}
	}
	return s.Stats(), nil
}

// Close ends every open trail line.
func (s *Scene) Close() {
	for _, b := range s.bodies {
		if b.onSnow {
			b.writer.OnCollisionExit(b.collision(s.ground))
			b.onSnow = false
		}
	}
	if s.demo != nil {
		s.demo.Close()
	}
}

// Stats returns the run summary so far.
func (s *Scene) Stats() Stats {
	st := s.stats
	st.Resting = 0
	for _, b := range s.bodies {
		if !b.onSnow {
			st.Resting++
		}
	}
	st.TrailPoints = s.trails.Written()
	return st
}
