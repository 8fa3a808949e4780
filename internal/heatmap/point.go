// Package heatmap records recent contact points into a fixed ring buffer
// for the trail overlay shader. Points can be chained into lines; the chain
// is encoded in each point's sequence tag and recovered by a successor scan.
package heatmap

import "github.com/Faultbox/snowfield/pkg/math"

// TrailPoint is one ring buffer slot. A radius <= 0 marks a slot that has
// never been written.
type TrailPoint struct {
	X, Z   float32
	Radius float32
	Tag    float64 // line id + order*OrderScale; 0 for standalone points
}

// Written reports whether the slot holds a point.
func (p TrailPoint) Written() bool {
	return p.Radius > 0
}

// InLine reports whether the point belongs to a line.
func (p TrailPoint) InLine() bool {
	return p.Tag >= 1
}

// LineID returns the line the point belongs to, 0 for standalone points.
func (p TrailPoint) LineID() int {
	id, _ := SplitTag(p.Tag)
	return id
}

// Order returns the point's order within its line.
func (p TrailPoint) Order() float64 {
	_, order := SplitTag(p.Tag)
	return order
}

// Position returns the point on the ground plane.
func (p TrailPoint) Position() math.Vec2 {
	return math.Vec2{X: p.X, Y: p.Z}
}

// Pack flattens points to the float4 layout the shader reads
// (x, z, radius, tag). The tag loses precision as float32; ids stay exact
// and orders stay distinguishable for lines below a few hundred.
func Pack(points []TrailPoint) []float32 {
	out := make([]float32, 0, len(points)*4)
	for _, p := range points {
		out = append(out, p.X, p.Z, p.Radius, float32(p.Tag))
	}
	return out
}

// Successor finds the point that follows points[i] in its line: same line
// id, order greater by less than window steps, smallest excess wins.
// The scan is quadratic over the buffer, which stays small.
func Successor(points []TrailPoint, i int, window float64) (int, bool) {
	p := points[i]
	if !p.Written() || !p.InLine() {
		return -1, false
	}
	id, order := SplitTag(p.Tag)

	best := -1
	bestExcess := window
	for j, q := range points {
		if j == i || !q.Written() {
			continue
		}
		qid, qorder := SplitTag(q.Tag)
		if qid != id {
			continue
		}
		excess := qorder - order
		if excess > 0 && excess < bestExcess {
			best, bestExcess = j, excess
		}
	}
	return best, best >= 0
}

// Segment links two slots of the same line.
type Segment struct {
	From, To int
}

// Segments returns every point-to-successor link in the buffer.
func Segments(points []TrailPoint, window float64) []Segment {
	var out []Segment
	for i := range points {
		if j, ok := Successor(points, i, window); ok {
			out = append(out, Segment{From: i, To: j})
		}
	}
	return out
}
