package sim

import (
	"math/rand"

	"github.com/Faultbox/snowfield/internal/contact"
	"github.com/Faultbox/snowfield/pkg/math"
)

// RandomTrailConfig tunes the random trail generator.
type RandomTrailConfig struct {
	Interval         float32 // seconds between points
	MinRadius        float32
	MaxRadius        float32
	MaxPointsPerLine int
	LineSpacing      float32
}

// DefaultRandomTrailConfig returns the stock generator settings.
func DefaultRandomTrailConfig() RandomTrailConfig {
	return RandomTrailConfig{
		Interval:         0.5,
		MinRadius:        0.5,
		MaxRadius:        1.5,
		MaxPointsPerLine: 8,
		LineSpacing:      0.2,
	}
}

// RandomTrail feeds a trail sink with random walks: each line starts at a
// random spot on the ground and steps LineSpacing in a random direction per
// point, and a new line starts once MaxPointsPerLine points are written.
type RandomTrail struct {
	cfg    RandomTrailConfig
	sink   contact.LineSink
	ground contact.PlaneGround
	rng    *rand.Rand

	timer  float32
	lineID int
	points int
	last   math.Vec2
}

// NewRandomTrail creates a generator drawing from rng.
func NewRandomTrail(cfg RandomTrailConfig, sink contact.LineSink, ground contact.PlaneGround, rng *rand.Rand) *RandomTrail {
	if cfg.MaxPointsPerLine < 1 {
		cfg.MaxPointsPerLine = 1
	}
	return &RandomTrail{cfg: cfg, sink: sink, ground: ground, rng: rng}
}

// Update advances the generator's timer and emits a point when it elapses.
func (t *RandomTrail) Update(dt float32) {
	t.timer += dt
	if t.timer < t.cfg.Interval {
		return
	}
	t.timer = 0
	t.Next()
}

// Next emits one point, starting a new line first when needed.
func (t *RandomTrail) Next() {
	if t.lineID == 0 || t.points >= t.cfg.MaxPointsPerLine {
		t.startLine()
	}
	t.last = t.last.Add(randomDirection(t.rng).Scale(t.cfg.LineSpacing))
	radius := t.cfg.MinRadius + t.rng.Float32()*(t.cfg.MaxRadius-t.cfg.MinRadius)
	t.sink.AddPoint(t.lineID, t.last.Ground(t.ground.Height), radius)
	t.points++
}

// Close ends the current line.
func (t *RandomTrail) Close() {
	if t.lineID != 0 {
		t.sink.EndLine(t.lineID)
		t.lineID = 0
	}
}

func (t *RandomTrail) startLine() {
	t.Close()
	t.lineID = t.sink.StartLine()
	t.points = 0
	t.last = math.Vec2{
		X: lerp(t.ground.Min.X, t.ground.Max.X, t.rng.Float32()),
		Y: lerp(t.ground.Min.Y, t.ground.Max.Y, t.rng.Float32()),
	}
}

// randomDirection returns a uniformly distributed unit vector.
func randomDirection(rng *rand.Rand) math.Vec2 {
	for {
		v := math.Vec2{X: rng.Float32()*2 - 1, Y: rng.Float32()*2 - 1}
		if l := v.Length(); l > 1e-3 && l <= 1 {
			return v.Scale(1 / l)
		}
	}
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
