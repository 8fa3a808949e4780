package deform

import (
	"fmt"

	"github.com/Faultbox/snowfield/pkg/math"
)

// Stamp is one requested circular indentation. It is consumed by exactly
// one Tick and then discarded.
type Stamp struct {
	Position    math.Vec3 // world-space contact point
	Strength    float32   // peak depth below the standard value
	Radius      float32   // falloff radius in world units, already scaled
	RimWidth    float32   // width of the raised ring beyond Radius
	RimStrength float32   // peak height of the ring above the standard value
}

// Validate checks the stamp's numeric invariants.
func (s Stamp) Validate() error {
	switch {
	case !s.Position.IsFinite():
		return fmt.Errorf("%w: position %v", ErrInvalidStamp, s.Position)
	case !math.IsFinite(s.Strength):
		return fmt.Errorf("%w: strength %v", ErrInvalidStamp, s.Strength)
	case !math.IsFinite(s.Radius) || s.Radius <= 0:
		return fmt.Errorf("%w: radius %v", ErrInvalidStamp, s.Radius)
	case !math.IsFinite(s.RimWidth) || s.RimWidth < 0:
		return fmt.Errorf("%w: rim width %v", ErrInvalidStamp, s.RimWidth)
	case !math.IsFinite(s.RimStrength):
		return fmt.Errorf("%w: rim strength %v", ErrInvalidStamp, s.RimStrength)
	}
	return nil
}
