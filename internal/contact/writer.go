package contact

import (
	"github.com/Faultbox/snowfield/pkg/math"
)

const noLine = -1

// TrailWriter records a body's path over snow as a trail line: a line
// starts on contact, gains points while the body slides, and ends when
// contact is lost.
type TrailWriter struct {
	sink        LineSink
	layers      LayerMask
	minDistance float32
	radius      float32

	lineID  int
	last    math.Vec3
	hasLast bool
}

// NewTrailWriter creates a writer. radius is the collider radius times its X scale.
func NewTrailWriter(sink LineSink, layers LayerMask, minDistance, radius float32) *TrailWriter {
	return &TrailWriter{
		sink:        sink,
		layers:      layers,
		minDistance: minDistance,
		radius:      radius,
		lineID:      noLine,
	}
}

// LineID returns the current line, or -1 when not touching snow.
func (w *TrailWriter) LineID() int {
	return w.lineID
}

// OnCollisionEnter starts a new line.
func (w *TrailWriter) OnCollisionEnter(c Collision) {
	if !w.layers.Contains(c.Layer) {
		return
	}
	w.lineID = w.sink.StartLine()
	w.hasLast = false
}

// OnCollisionStay adds the first contact point, then only points at least
// minDistance from the previous one.
func (w *TrailWriter) OnCollisionStay(c Collision) {
	if !w.layers.Contains(c.Layer) || len(c.Contacts) == 0 {
		return
	}
	p := c.Contacts[0].Point
	if w.hasLast && p.Distance(w.last) < w.minDistance {
		return
	}
	w.sink.AddPoint(w.lineID, p, w.radius)
	w.last = p
	w.hasLast = true
}

// OnCollisionExit ends the current line.
func (w *TrailWriter) OnCollisionExit(c Collision) {
	if !w.layers.Contains(c.Layer) || w.lineID == noLine {
		return
	}
	w.sink.EndLine(w.lineID)
	w.lineID = noLine
}
