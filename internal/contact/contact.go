// Package contact turns physics contact events into deformation stamps and
// trail points. Producers only hold small sink interfaces; the deformation
// accumulator and trail recorder are the single consumers.
package contact

import (
	"github.com/Faultbox/snowfield/internal/deform"
	"github.com/Faultbox/snowfield/pkg/math"
)

// Contact is one contact point reported by the physics collaborator.
type Contact struct {
	Point  math.Vec3
	Normal math.Vec3
	Layer  int // layer of the other body
}

// Collision groups the contacts of one body pair for one callback.
type Collision struct {
	Layer    int
	Contacts []Contact
}

// LayerMask is a bit set of physics layers.
type LayerMask uint32

// Layers builds a mask from layer indices.
func Layers(layers ...int) LayerMask {
	var m LayerMask
	for _, l := range layers {
		if l >= 0 && l < 32 {
			m |= 1 << uint(l)
		}
	}
	return m
}

// Contains reports whether layer is in the mask.
func (m LayerMask) Contains(layer int) bool {
	if layer < 0 || layer >= 32 {
		return false
	}
	return m&(1<<uint(layer)) != 0
}

// StampSink consumes deformation stamps.
type StampSink interface {
	Enqueue(s deform.Stamp) bool
}

// LineSink consumes trail lines.
type LineSink interface {
	StartLine() int
	EndLine(lineID int)
	AddPoint(lineID int, pos math.Vec3, radius float32) bool
}
