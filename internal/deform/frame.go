// Package deform implements the accumulative snow deformation pipeline:
// world/UV coordinate frames, the pending stamp queue, the per-tick
// accumulator that merges stamps into a persistent displacement texture,
// and texture initialization.
//
// All mutation happens on one simulation goroutine. Stamps are produced by
// contact callbacks, queued, and consumed exactly once by the next Tick.
package deform

import (
	"fmt"

	"github.com/Faultbox/snowfield/pkg/math"
)

// CoordinateFrame maps ground-plane world coordinates (X, Z) to texture UV
// space and back. The mapping is mirrored on both axes: the bounds minimum
// lands on UV (1,1) and the maximum on (0,0), matching the surface shader's
// sampling convention.
//
// A frame is immutable. Replacing the ground surface means building a new
// frame and rebinding the accumulator.
type CoordinateFrame struct {
	min, max  math.Vec3
	worldToUV math.Mat4
	uvToWorld math.Mat4
}

// NewCoordinateFrame builds a frame from world-space ground bounds.
func NewCoordinateFrame(worldMin, worldMax math.Vec3) (*CoordinateFrame, error) {
	sizeX := worldMax.X - worldMin.X
	sizeZ := worldMax.Z - worldMin.Z
	if sizeX == 0 || sizeZ == 0 || !math.IsFinite(sizeX) || !math.IsFinite(sizeZ) {
		return nil, fmt.Errorf("%w: degenerate ground bounds %v..%v", ErrMissingResource, worldMin, worldMax)
	}

	f := &CoordinateFrame{min: worldMin, max: worldMax}

	f.worldToUV = math.Identity()
	f.worldToUV.Set(0, 0, -1/sizeX)
	f.worldToUV.Set(1, 1, -1/sizeZ)
	f.worldToUV.Set(0, 3, 1-worldMin.X*f.worldToUV.M(0, 0))
	f.worldToUV.Set(1, 3, 1-worldMin.Z*f.worldToUV.M(1, 1))

	// Built directly rather than inverted so both directions round the same way.
	f.uvToWorld = math.Identity()
	f.uvToWorld.Set(0, 0, -sizeX)
	f.uvToWorld.Set(1, 1, -sizeZ)
	f.uvToWorld.Set(0, 3, worldMax.X)
	f.uvToWorld.Set(1, 3, worldMax.Z)

	return f, nil
}

// FrameFromBounds builds a frame from a mesh's local bounds and its placement
// transform, the way a ground mesh reports bounds in object space.
func FrameFromBounds(localMin, localMax math.Vec3, placement math.Mat4) (*CoordinateFrame, error) {
	return NewCoordinateFrame(placement.TransformVec3(localMin), placement.TransformVec3(localMax))
}

// WorldToUV converts a world position to texture UV. Y is ignored.
func (f *CoordinateFrame) WorldToUV(p math.Vec3) math.Vec2 {
	return f.worldToUV.Apply2D(p.XZ())
}

// UVToWorld converts a UV coordinate to world (X, Z).
func (f *CoordinateFrame) UVToWorld(uv math.Vec2) math.Vec2 {
	return f.uvToWorld.Apply2D(uv)
}

// Matrices returns the forward and inverse matrices for uniform binding.
func (f *CoordinateFrame) Matrices() (worldToUV, uvToWorld math.Mat4) {
	return f.worldToUV, f.uvToWorld
}

// Bounds returns the world-space bounds the frame was built from.
func (f *CoordinateFrame) Bounds() (lo, hi math.Vec3) {
	return f.min, f.max
}

// Contains reports whether p lies within the ground bounds on X and Z.
func (f *CoordinateFrame) Contains(p math.Vec3) bool {
	loX, hiX := ordered(f.min.X, f.max.X)
	loZ, hiZ := ordered(f.min.Z, f.max.Z)
	return p.X >= loX && p.X <= hiX && p.Z >= loZ && p.Z <= hiZ
}

func ordered(a, b float32) (float32, float32) {
	if a > b {
		return b, a
	}
	return a, b
}
