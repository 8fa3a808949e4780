package heatmap

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// OrderScale is the tag increment of one order step. The integer part
	// of a tag is the line id, the fraction is the order scaled by this.
	OrderScale = 1e-4
	// MaxOrder keeps the fractional part below the next line id.
	MaxOrder = 1/OrderScale - 1
	// DefaultWindow is the successor search window in order steps.
	DefaultWindow = 2
)

// Tag encodes a line id and an order into one sequence tag.
// Orders beyond MaxOrder clamp, so long lines stop being orderable
// instead of bleeding into the next id.
func Tag(lineID int, order float64) float64 {
	if order < 0 {
		order = 0
	}
	if order > MaxOrder {
		order = MaxOrder
	}
	return float64(lineID) + order*OrderScale
}

// SplitTag decodes a sequence tag into its line id and order.
func SplitTag(tag float64) (lineID int, order float64) {
	whole := math.Floor(tag)
	return int(whole), (tag - whole) / OrderScale
}

// OrderSource produces the ever-increasing order of points within a line.
type OrderSource interface {
	// Next returns the order for the next point of lineID.
	Next(lineID int) float64
	// Forget drops per-line state once a line ends.
	Forget(lineID int)
}

// CountOrder orders points by how many the line has received: 0, 1, 2, ...
type CountOrder struct {
	counts map[int]int
}

// NewCountOrder creates a count-based order source.
func NewCountOrder() *CountOrder {
	return &CountOrder{counts: make(map[int]int)}
}

// Next returns the line's point count and advances it.
func (o *CountOrder) Next(lineID int) float64 {
	n := o.counts[lineID]
	o.counts[lineID] = n + 1
	return float64(n)
}

// Forget drops the line's counter.
func (o *CountOrder) Forget(lineID int) {
	delete(o.counts, lineID)
}

// ClockOrder orders points by seconds elapsed since the line's first point,
// so a successor window of 2 accepts neighbours up to 2s apart.
type ClockOrder struct {
	clock  clock.Clock
	starts map[int]time.Time
}

// NewClockOrder creates a time-based order source. A nil clock uses the wall clock.
func NewClockOrder(c clock.Clock) *ClockOrder {
	if c == nil {
		c = clock.New()
	}
	return &ClockOrder{clock: c, starts: make(map[int]time.Time)}
}

// Next returns seconds since the line's first point.
func (o *ClockOrder) Next(lineID int) float64 {
	now := o.clock.Now()
	start, ok := o.starts[lineID]
	if !ok {
		o.starts[lineID] = now
		return 0
	}
	return now.Sub(start).Seconds()
}

// Forget drops the line's start time.
func (o *ClockOrder) Forget(lineID int) {
	delete(o.starts, lineID)
}
