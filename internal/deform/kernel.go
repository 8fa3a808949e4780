package deform

import (
	"github.com/Faultbox/snowfield/pkg/math"
)

// stampKernel holds the per-dispatch constants of the stamp kernel.
// The GLSL kernel in engine/gpu computes the same thing per invocation.
type stampKernel struct {
	u      Uniforms
	center math.Vec2 // stamp centre in world X/Z
	invW   float32
	invH   float32
}

func newStampKernel(u Uniforms) stampKernel {
	return stampKernel{
		u:      u,
		center: u.UVToWorld.Apply2D(u.Center),
		invW:   1 / float32(u.Width),
		invH:   1 / float32(u.Height),
	}
}

// apply returns the new value of texel (x, y) given its current value.
//
// Inside Radius the value is pulled down to standard - strength*falloff,
// never raised. In the rim band the value is lifted to at most
// standard + rimStrength*taper, but only where the snow is not already
// depressed, so a rim never refills an earlier track.
func (k *stampKernel) apply(x, y int, v float32) float32 {
	uv := math.Vec2{X: (float32(x) + 0.5) * k.invW, Y: (float32(y) + 0.5) * k.invH}
	d := k.u.UVToWorld.Apply2D(uv).Distance(k.center)

	switch {
	case d < k.u.Radius:
		t := d / k.u.Radius
		target := k.u.StandardValue - k.u.Strength*(1-t*t)
		if target < v {
			v = target
		}
	case k.u.RimWidth > 0 && d < k.u.Radius+k.u.RimWidth && v >= k.u.StandardValue:
		taper := 1 - (d-k.u.Radius)/k.u.RimWidth
		target := k.u.StandardValue + k.u.RimStrength*taper
		if target > v {
			v = target
		}
	default:
		return v
	}

	return math.Clamp(v, k.u.MinValue, k.u.MaxValue)
}
