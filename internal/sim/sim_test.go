package sim

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/snowfield/internal/config"
	"github.com/Faultbox/snowfield/internal/contact"
	"github.com/Faultbox/snowfield/internal/deform"
	"github.com/Faultbox/snowfield/internal/heatmap"
	"github.com/Faultbox/snowfield/pkg/math"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Surface.Width = 32
	cfg.Surface.Height = 32
	cfg.Surface.BoundsMin = [3]float32{-8, 0, -8}
	cfg.Surface.BoundsMax = [3]float32{8, 0, 8}
	cfg.Simulation.Bodies = 2
	cfg.Simulation.Seed = 7
	return cfg
}

type harness struct {
	scene   *Scene
	texture *deform.Texture
	trails  *heatmap.Recorder
	acc     *deform.Accumulator
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()

	frame, ground, err := NewFrame(cfg.Surface)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	backend := deform.NewCPUBackend(2)
	tex, err := deform.NewTexture(cfg.Surface.Width, cfg.Surface.Height)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	if err := deform.Reset(backend, tex, cfg.Surface.StandardValue); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	queue, err := NewQueue(cfg.Deformation)
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	acc := deform.NewAccumulator(backend, queue, nil)
	if err := acc.Bind(Binding(cfg.Surface, tex, frame)); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	simClock := clock.NewMock()
	order, err := NewOrderSource(cfg.Trail.OrderSource, simClock)
	if err != nil {
		t.Fatalf("NewOrderSource: %v", err)
	}
	trails := heatmap.NewRecorder(cfg.Trail.Capacity, order, nil, nil)

	scene, err := NewScene(cfg, ground, acc, trails, simClock, nil)
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	return &harness{scene: scene, texture: tex, trails: trails, acc: acc}
}

func TestNewFrame(t *testing.T) {
	cfg := config.Default().Surface
	cfg.BoundsMin = [3]float32{4, 1, -2}
	cfg.BoundsMax = [3]float32{-4, 1, 6}

	frame, ground, err := NewFrame(cfg)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	want := contact.PlaneGround{
		Height:    1,
		Min:       math.Vec2{X: -4, Y: -2},
		Max:       math.Vec2{X: 4, Y: 6},
		SnowLayer: SnowLayer,
	}
	if diff := cmp.Diff(want, ground); diff != "" {
		t.Errorf("ground mismatch (-want +got):\n%s", diff)
	}
	if uv := frame.WorldToUV(math.Vec3{X: -4, Z: 6}); uv.X > 1e-5 || uv.Y > 1e-5 {
		t.Errorf("WorldToUV(configured max) = %v, want (0,0)", uv)
	}

	cfg.BoundsMax[0] = cfg.BoundsMin[0]
	if _, _, err := NewFrame(cfg); !errors.Is(err, deform.ErrMissingResource) {
		t.Errorf("degenerate bounds = %v, want ErrMissingResource", err)
	}
}

func TestNewOrderSource(t *testing.T) {
	for _, name := range []string{"", "count", "time"} {
		if _, err := NewOrderSource(name, clock.NewMock()); err != nil {
			t.Errorf("NewOrderSource(%q): %v", name, err)
		}
	}
	if _, err := NewOrderSource("frames", nil); err == nil {
		t.Error("expected error for unknown order source")
	}
}

func TestScene_PressesSnow(t *testing.T) {
	cfg := testConfig()
	h := newHarness(t, cfg)

	stats, err := h.scene.Run(context.Background(), 25)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Steps != 25 {
		t.Errorf("Steps = %d, want 25", stats.Steps)
	}
	if stats.Stamps == 0 {
		t.Fatal("no stamps were merged")
	}
	if h.acc.Pending() != 0 {
		t.Errorf("Pending = %d after run, want 0", h.acc.Pending())
	}

	pressed := 0
	for y := 0; y < h.texture.Height; y++ {
		for x := 0; x < h.texture.Width; x++ {
			v := h.texture.At(x, y)
			if v < cfg.Surface.MinValue || v > cfg.Surface.MaxValue {
				t.Fatalf("texel (%d,%d) = %v outside value range", x, y, v)
			}
			if v < cfg.Surface.StandardValue {
				pressed++
			}
		}
	}
	if pressed == 0 {
		t.Error("no texel was pressed below the standard value")
	}

	if stats.TrailPoints == 0 {
		t.Error("bodies left no trail points")
	}
	for _, b := range h.scene.Bodies() {
		if b.Position.X < -8 || b.Position.X > 8 || b.Position.Z < -8 || b.Position.Z > 8 {
			t.Errorf("body %d escaped the surface: %v", b.ID, b.Position)
		}
	}
}

func TestScene_Deterministic(t *testing.T) {
	cfg := testConfig()
	a := newHarness(t, cfg)
	b := newHarness(t, cfg)

	ctx := context.Background()
	if _, err := a.scene.Run(ctx, 15); err != nil {
		t.Fatal(err)
	}
	if _, err := b.scene.Run(ctx, 15); err != nil {
		t.Fatal(err)
	}
	if !a.texture.Equal(b.texture) {
		t.Error("same seed produced different surfaces")
	}
	if diff := cmp.Diff(a.trails.Points(), b.trails.Points()); diff != "" {
		t.Errorf("same seed produced different trails (-a +b):\n%s", diff)
	}
}

func TestScene_BodiesSettle(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.Impulse = 0.5
	cfg.Simulation.Damping = 40
	h := newHarness(t, cfg)

	stats, err := h.scene.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Resting != cfg.Simulation.Bodies {
		t.Errorf("Resting = %d, want %d", stats.Resting, cfg.Simulation.Bodies)
	}
	for _, b := range h.scene.Bodies() {
		if b.OnSnow() || b.LineID() != -1 {
			t.Errorf("body %d still on snow with line %d", b.ID, b.LineID())
		}
	}

	// Settled bodies stop stamping.
	before := stats.Stamps
	stats, _ = h.scene.Run(context.Background(), 5)
	if stats.Stamps != before {
		t.Errorf("settled bodies stamped %d more times", stats.Stamps-before)
	}
}

func TestScene_TimeOrderedTrails(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.Bodies = 1
	cfg.Trail.OrderSource = "time"
	cfg.Trail.MinDistance = 0
	h := newHarness(t, cfg)

	if _, err := h.scene.Run(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	recent := h.trails.Recent()
	if len(recent) != 3 {
		t.Fatalf("recent = %d points, want 3", len(recent))
	}
	step := cfg.Simulation.FixedStep.Seconds()
	for i, p := range recent {
		want := float64(i) * step
		if got := p.Order(); got < want-1e-3 || got > want+1e-3 {
			t.Errorf("point %d order = %v, want %v", i, got, want)
		}
	}
	if got := h.scene.Now().Sub(time.Unix(0, 0)); got != 3*cfg.Simulation.FixedStep {
		t.Errorf("simulated time = %v, want %v", got, 3*cfg.Simulation.FixedStep)
	}
}

func TestScene_CloseEndsLines(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.RandomTrail = true
	h := newHarness(t, cfg)

	ids := make([]int, 0, len(h.scene.Bodies()))
	for _, b := range h.scene.Bodies() {
		ids = append(ids, b.LineID())
	}
	h.scene.Close()
	for _, id := range ids {
		if h.trails.Active(id) {
			t.Errorf("line %d still active after Close", id)
		}
	}
}

func TestScene_CancelledContext(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := h.scene.Run(ctx, 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if stats.Steps != 0 {
		t.Errorf("Steps = %d, want 0", stats.Steps)
	}
}

func TestNewScene_MissingResources(t *testing.T) {
	_, ground, _ := NewFrame(testConfig().Surface)
	if _, err := NewScene(testConfig(), ground, nil, nil, nil, nil); !errors.Is(err, deform.ErrMissingResource) {
		t.Errorf("NewScene without accumulator = %v, want ErrMissingResource", err)
	}
}

func TestBody_Bounce(t *testing.T) {
	ground := contact.PlaneGround{Min: math.Vec2{X: -1, Y: -1}, Max: math.Vec2{X: 1, Y: 1}}
	b := &Body{Position: math.Vec3{X: 0.4}, Velocity: math.Vec3{X: 10, Z: -1}, Radius: 0.5}

	b.integrate(ground, 0, 0.1)
	if b.Position.X != 0.5 {
		t.Errorf("X = %v, want clamped to 0.5", b.Position.X)
	}
	if b.Velocity.X != -10 {
		t.Errorf("velocity X = %v, want reflected -10", b.Velocity.X)
	}
	if b.Velocity.Z != -1 {
		t.Errorf("velocity Z = %v, want untouched -1", b.Velocity.Z)
	}
}

func TestRandomTrail(t *testing.T) {
	rec := heatmap.NewRecorder(20, nil, nil, nil)
	ground := contact.PlaneGround{Min: math.Vec2{X: -5, Y: -5}, Max: math.Vec2{X: 5, Y: 5}}
	cfg := DefaultRandomTrailConfig()
	gen := NewRandomTrail(cfg, rec, ground, rand.New(rand.NewSource(3)))

	for i := 0; i < 10; i++ {
		gen.Next()
	}

	recent := rec.Recent()
	if len(recent) != 10 {
		t.Fatalf("recent = %d points, want 10", len(recent))
	}
	for i, p := range recent {
		wantLine := 1
		if i >= cfg.MaxPointsPerLine {
			wantLine = 2
		}
		if p.LineID() != wantLine {
			t.Errorf("point %d on line %d, want %d", i, p.LineID(), wantLine)
		}
		if p.Radius < cfg.MinRadius || p.Radius > cfg.MaxRadius {
			t.Errorf("point %d radius %v outside [%v, %v]", i, p.Radius, cfg.MinRadius, cfg.MaxRadius)
		}
		if i > 0 && recent[i-1].LineID() == p.LineID() {
			d := p.Position().Distance(recent[i-1].Position())
			if d < cfg.LineSpacing-1e-4 || d > cfg.LineSpacing+1e-4 {
				t.Errorf("point %d is %v from its predecessor, want %v", i, d, cfg.LineSpacing)
			}
		}
	}
	if rec.Active(1) {
		t.Error("first line should end when the second starts")
	}

	segs := heatmap.Segments(rec.Points(), heatmap.DefaultWindow)
	if len(segs) != 8 {
		t.Errorf("segments = %d, want 7 + 1", len(segs))
	}
}

func TestRandomTrail_Interval(t *testing.T) {
	rec := heatmap.NewRecorder(4, nil, nil, nil)
	gen := NewRandomTrail(DefaultRandomTrailConfig(), rec, contact.PlaneGround{Max: math.Vec2{X: 1, Y: 1}}, rand.New(rand.NewSource(1)))

	gen.Update(0.3)
	if rec.Written() != 0 {
		t.Error("point emitted before the interval elapsed")
	}
	gen.Update(0.3)
	if rec.Written() != 1 {
		t.Errorf("Written = %d, want 1", rec.Written())
	}
}
