package contact

import "github.com/Faultbox/snowfield/pkg/math"

// Ground answers raycasts against the snow surface.
type Ground interface {
	Raycast(origin, dir math.Vec3, maxDist float32) (math.Vec3, bool)
	Layer() int
}

// PlaneGround is a horizontal snow plane limited to rectangular bounds.
type PlaneGround struct {
	Height    float32
	Min, Max  math.Vec2 // X/Z extent
	SnowLayer int
}

// Raycast intersects the ray with the plane. Hits outside the bounds or
// beyond maxDist miss.
func (g PlaneGround) Raycast(origin, dir math.Vec3, maxDist float32) (math.Vec3, bool) {
	if dir.Y == 0 {
		return math.Vec3{}, false
	}
	t := (g.Height - origin.Y) / dir.Y
	if t < 0 || t*dir.Length() > maxDist {
		return math.Vec3{}, false
	}
	hit := origin.Add(dir.Scale(t))
	if hit.X < g.Min.X || hit.X > g.Max.X || hit.Z < g.Min.Y || hit.Z > g.Max.Y {
		return math.Vec3{}, false
	}
	hit.Y = g.Height
	return hit, true
}

// Layer returns the plane's physics layer.
func (g PlaneGround) Layer() int {
	return g.SnowLayer
}
