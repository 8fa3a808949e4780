package heatmap

import (
	"go.uber.org/zap"

	"github.com/Faultbox/snowfield/internal/logger"
	"github.com/Faultbox/snowfield/pkg/math"
)

// DefaultCapacity is the trail buffer size the overlay shader expects.
const DefaultCapacity = 20

// Recorder is a fixed-capacity ring buffer of trail points. The oldest
// point is overwritten once the buffer is full. Line ids start at 1, grow
// monotonically and are never reused. Not safe for concurrent use.
type Recorder struct {
	points   []TrailPoint
	cursor   int
	written  int
	nextLine int
	active   map[int]struct{}

	order OrderSource
	sink  Sink
	log   *zap.Logger

	sinkFailed bool
}

// NewRecorder creates a recorder and uploads the empty buffer once.
// A nil order source counts points; a nil sink keeps the buffer local.
func NewRecorder(capacity int, order OrderSource, sink Sink, log *zap.Logger) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if order == nil {
		order = NewCountOrder()
	}
	r := &Recorder{
		points:   make([]TrailPoint, capacity),
		nextLine: 1,
		active:   make(map[int]struct{}),
		order:    order,
		sink:     sink,
		log:      logger.OrNop(log),
	}
	r.upload()
	return r
}

// Capacity returns the ring buffer size.
func (r *Recorder) Capacity() int {
	return len(r.points)
}

// StartLine allocates the next line id and marks it active.
func (r *Recorder) StartLine() int {
	id := r.nextLine
	r.nextLine++
	r.active[id] = struct{}{}
	return id
}

// EndLine retires a line. Unknown or already ended ids are ignored.
func (r *Recorder) EndLine(lineID int) {
	if _, ok := r.active[lineID]; !ok {
		return
	}
	delete(r.active, lineID)
	r.order.Forget(lineID)
}

// Active reports whether lineID accepts points.
func (r *Recorder) Active(lineID int) bool {
	_, ok := r.active[lineID]
	return ok
}

// AddPoint appends a point to an active line. Points for ended or unknown
// lines are dropped: a stay event can arrive after the exit that ended it.
func (r *Recorder) AddPoint(lineID int, pos math.Vec3, radius float32) bool {
	if !r.Active(lineID) {
		return false
	}
	r.write(TrailPoint{
		X:      pos.X,
		Z:      pos.Z,
		Radius: radius,
		Tag:    Tag(lineID, r.order.Next(lineID)),
	})
	return true
}

// AddSinglePoint writes a standalone point that belongs to no line.
func (r *Recorder) AddSinglePoint(pos math.Vec3, radius float32) {
	r.write(TrailPoint{X: pos.X, Z: pos.Z, Radius: radius})
}

func (r *Recorder) write(p TrailPoint) {
	r.points[r.cursor] = p
	r.cursor = (r.cursor + 1) % len(r.points)
	if r.written < len(r.points) {
		r.written++
	}
	r.upload()
}

// upload pushes the whole buffer; it is small enough that patching is not worth it.
func (r *Recorder) upload() {
	if r.sink == nil {
		return
	}
	if err := r.sink.Upload(r.points); err != nil {
		if !r.sinkFailed {
			r.log.Error("trail upload failed", zap.Error(err))
		}
		r.sinkFailed = true
		return
	}
	r.sinkFailed = false
}

// Points returns a copy of the raw buffer in slot order.
func (r *Recorder) Points() []TrailPoint {
	out := make([]TrailPoint, len(r.points))
	copy(out, r.points)
	return out
}

// Recent returns the written points, oldest first.
func (r *Recorder) Recent() []TrailPoint {
	out := make([]TrailPoint, 0, r.written)
	start := 0
	if r.written == len(r.points) {
		start = r.cursor
	}
	for i := 0; i < r.written; i++ {
		out = append(out, r.points[(start+i)%len(r.points)])
	}
	return out
}

// Written returns how many slots hold a point.
func (r *Recorder) Written() int {
	return r.written
}

// Cursor returns the next slot to be written.
func (r *Recorder) Cursor() int {
	return r.cursor
}
