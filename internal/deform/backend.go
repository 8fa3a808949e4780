package deform

import "github.com/Faultbox/snowfield/pkg/math"

// WorkGroupSize is the kernel's square work group edge. Dispatches always
// cover ceil(dimension/8) groups per axis.
const WorkGroupSize = 8

// ThreadGroups returns the dispatch size for a width x height target.
func ThreadGroups(width, height int) (x, y int) {
	return (width + WorkGroupSize - 1) / WorkGroupSize, (height + WorkGroupSize - 1) / WorkGroupSize
}

// Uniforms are the scalar inputs of one stamp dispatch.
type Uniforms struct {
	Width, Height int
	Center        math.Vec2 // stamp centre in UV space
	Radius        float32
	Strength      float32
	RimWidth      float32
	RimStrength   float32
	StandardValue float32
	MinValue      float32
	MaxValue      float32
	WorldToUV     math.Mat4
	UVToWorld     math.Mat4
}

// Backend is the compute collaborator the accumulator drives. Calls made in
// one tick are causally ordered: scratch copy, stamp dispatches, commit.
type Backend interface {
	// AcquireScratch allocates a target matching src and copies src into it.
	AcquireScratch(src Target) (Target, error)
	// Dispatch runs the stamp kernel over scratch with the given group counts.
	Dispatch(scratch Target, u Uniforms, groupsX, groupsY int) error
	// Commit copies scratch back into dst.
	Commit(dst, scratch Target) error
	// Release returns a scratch target. Safe to call on every exit path.
	Release(scratch Target)
	// Fill writes v into every channel of every texel of dst.
	Fill(dst Target, v float32) error
	// Upload replaces dst's contents with RGBA float data.
	Upload(dst Target, rgba []float32) error
	// Download reads dst back as RGBA float data.
	Download(src Target) ([]float32, error)
}
