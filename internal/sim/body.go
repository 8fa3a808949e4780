package sim

import (
	"github.com/Faultbox/snowfield/internal/contact"
	"github.com/Faultbox/snowfield/pkg/math"
)

// restSpeed is the speed below which a rolling body settles and leaves
// the snow's contact list.
const restSpeed = 0.05

// Body is a sphere rolling on the snow plane.
type Body struct {
	ID       int
	Position math.Vec3
	Velocity math.Vec3
	Radius   float32

	deformer *contact.Deformer
	writer   *contact.TrailWriter
	onSnow   bool
}

// OnSnow reports whether the body is still touching the snow.
func (b *Body) OnSnow() bool {
	return b.onSnow
}

// LineID returns the trail line the body is drawing, -1 when resting.
func (b *Body) LineID() int {
	return b.writer.LineID()
}

// collision is the contact the body makes with the ground this step.
func (b *Body) collision(ground contact.PlaneGround) contact.Collision {
	return contact.Collision{
		Layer: ground.Layer(),
		Contacts: []contact.Contact{{
			Point:  math.Vec3{X: b.Position.X, Y: ground.Height, Z: b.Position.Z},
			Normal: math.Up,
			Layer:  ground.Layer(),
		}},
	}
}

// integrate advances the body by dt with linear damping and bounces it off
// the ground's edges.
func (b *Body) integrate(ground contact.PlaneGround, damping, dt float32) {
	k := 1 - damping*dt
	if k < 0 {
		k = 0
	}
	b.Velocity = b.Velocity.Scale(k)
	b.Position = b.Position.Add(b.Velocity.Scale(dt))

	r := b.Radius
	if b.Position.X-r < ground.Min.X {
		b.Position.X = ground.Min.X + r
		b.Velocity.X = -b.Velocity.X
	}
	if b.Position.X+r > ground.Max.X {
		b.Position.X = ground.Max.X - r
		b.Velocity.X = -b.Velocity.X
	}
	if b.Position.Z-r < ground.Min.Y {
		b.Position.Z = ground.Min.Y + r
		b.Velocity.Z = -b.Velocity.Z
	}
	if b.Position.Z+r > ground.Max.Y {
		b.Position.Z = ground.Max.Y - r
		b.Velocity.Z = -b.Velocity.Z
	}
}
