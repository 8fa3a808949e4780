package contact

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/snowfield/internal/deform"
	"github.com/Faultbox/snowfield/internal/logger"
	"github.com/Faultbox/snowfield/pkg/math"
)

const (
	probeHeight   = 10 // contact points are re-projected from this far above
	probeDistance = 20
)

// DeformerConfig configures a body that leaves impressions.
type DeformerConfig struct {
	Strength         float32
	RadiusMultiplier float32
	RimWidth         float32
	RimStrength      float32
	SnowLayers       LayerMask
	DeformOnContact  bool // stamp at every contact point while touching
	DeformAtPosition bool // stamp under the body every frame
}

// DefaultDeformerConfig mirrors the stock component settings.
func DefaultDeformerConfig() DeformerConfig {
	return DeformerConfig{
		Strength:         1,
		RadiusMultiplier: 1,
		RimWidth:         0.1,
		RimStrength:      0.5,
		DeformOnContact:  true,
	}
}

// Deformer turns a sphere body's contacts into stamps.
type Deformer struct {
	cfg    DeformerConfig
	ground Ground
	sink   StampSink
	log    *zap.Logger

	colliderRadius float32
	scaledRadius   float32
}

// NewDeformer creates a deformer for a sphere collider. A missing collider
// or ground is reported as deform.ErrMissingResource; the caller should
// leave the body without a deformer.
func NewDeformer(cfg DeformerConfig, colliderRadius float32, lossyScale math.Vec3, ground Ground, sink StampSink, log *zap.Logger) (*Deformer, error) {
	if colliderRadius <= 0 {
		return nil, fmt.Errorf("%w: sphere collider", deform.ErrMissingResource)
	}
	if ground == nil || sink == nil {
		return nil, fmt.Errorf("%w: snow surface", deform.ErrMissingResource)
	}
	d := &Deformer{
		cfg:            cfg,
		ground:         ground,
		sink:           sink,
		log:            logger.OrNop(log),
		colliderRadius: colliderRadius,
	}
	d.SetScale(lossyScale)
	return d, nil
}

// SetScale recomputes the stamp radius from the body's lossy scale.
func (d *Deformer) SetScale(lossyScale math.Vec3) {
	d.scaledRadius = d.colliderRadius * lossyScale.MaxComponent() * d.cfg.RadiusMultiplier
}

// Radius returns the stamp radius in world units.
func (d *Deformer) Radius() float32 {
	return d.scaledRadius
}

// Update stamps under the body's position when DeformAtPosition is set.
func (d *Deformer) Update(position math.Vec3) {
	if !d.cfg.DeformAtPosition {
		return
	}
	d.DeformAt(position, d.cfg.Strength)
}

// OnCollisionStay stamps every contact point of a collision with snow.
func (d *Deformer) OnCollisionStay(c Collision) int {
	if !d.cfg.DeformOnContact || !d.cfg.SnowLayers.Contains(c.Layer) {
		return 0
	}
	n := 0
	for _, ct := range c.Contacts {
		if d.DeformAt(ct.Point, d.cfg.Strength) {
			n++
		}
	}
	return n
}

// DeformAt projects pos straight down onto the snow and queues a stamp there.
func (d *Deformer) DeformAt(pos math.Vec3, strength float32) bool {
	origin := pos.Add(math.Up.Scale(probeHeight))
	hit, ok := d.ground.Raycast(origin, math.Up.Scale(-1), probeDistance)
	if !ok || !d.cfg.SnowLayers.Contains(d.ground.Layer()) {
		return false
	}
	return d.sink.Enqueue(deform.Stamp{
		Position:    hit,
		Strength:    strength,
		Radius:      d.scaledRadius,
		RimWidth:    d.cfg.RimWidth,
		RimStrength: d.cfg.RimStrength,
	})
}
