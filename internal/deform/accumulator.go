package deform

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/snowfield/internal/logger"
)

// Binding ties an accumulator to one surface: its persistent texture,
// coordinate frame and value range. It replaces looking these up by
// material property name.
type Binding struct {
	Texture       Target
	Frame         *CoordinateFrame
	StandardValue float32
	MinValue      float32
	MaxValue      float32
}

func (b Binding) validate() error {
	if b.Texture == nil {
		return fmt.Errorf("%w: deformation texture", ErrMissingResource)
	}
	if b.Frame == nil {
		return fmt.Errorf("%w: coordinate frame", ErrMissingResource)
	}
	if b.MinValue > b.MaxValue {
		return fmt.Errorf("value range [%v, %v] is empty", b.MinValue, b.MaxValue)
	}
	if b.StandardValue < b.MinValue || b.StandardValue > b.MaxValue {
		return fmt.Errorf("standard value %v outside [%v, %v]", b.StandardValue, b.MinValue, b.MaxValue)
	}
	return nil
}

// TickStats describes one Tick.
type TickStats struct {
	Stamps  int    // stamps merged this tick
	GroupsX int    // dispatch size per stamp
	GroupsY int
	Dropped uint64 // stamps evicted from the queue since creation
}

// Accumulator owns the pending stamps of one surface and merges them into
// the persistent texture once per fixed step. Not safe for concurrent use:
// producers and Tick run on the simulation goroutine.
//
// Before Bind succeeds, Enqueue and Tick do nothing. That is the expected
// state during scene warm-up, not an error.
type Accumulator struct {
	backend Backend
	queue   *Queue
	log     *zap.Logger

	binding  Binding
	bound    bool
	disabled bool
	lastErr  string
}

// NewAccumulator creates an unbound accumulator. A nil queue gets the default bounded queue.
func NewAccumulator(backend Backend, queue *Queue, log *zap.Logger) *Accumulator {
	if queue == nil {
		queue = NewQueue(DefaultQueueCapacity, DropOldest)
	}
	return &Accumulator{
		backend: backend,
		queue:   queue,
		log:     logger.OrNop(log),
	}
}

// Bind attaches the accumulator to a surface. Binding again (for example
// after the ground mesh is replaced) swaps frame and texture; pending
// stamps are world-space and stay queued.
//
// A missing resource disables the accumulator and is reported once.
func (a *Accumulator) Bind(b Binding) error {
	err := b.validate()
	if err == nil && a.backend == nil {
		err = fmt.Errorf("%w: compute backend", ErrMissingResource)
	}
	if err != nil {
		a.bound = false
		a.disabled = true
		a.log.Error("deformation disabled", zap.Error(err))
		return err
	}

	a.binding = b
	a.bound = true
	a.disabled = false
	a.lastErr = ""

	w, h := b.Texture.Size()
	a.log.Info("surface bound",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Float32("standard", b.StandardValue),
	)
	return nil
}

// Ready reports whether stamps are accepted.
func (a *Accumulator) Ready() bool {
	return a.bound && !a.disabled
}

// Disabled reports whether a missing resource switched the accumulator off.
func (a *Accumulator) Disabled() bool {
	return a.disabled
}

// Pending returns the number of queued stamps.
func (a *Accumulator) Pending() int {
	return a.queue.Len()
}

// Binding returns the current surface binding.
func (a *Accumulator) Binding() Binding {
	return a.binding
}

// Enqueue queues a stamp for the next tick. It reports whether the stamp
// was accepted; it is dropped silently when not ready and with a debug
// line when invalid.
func (a *Accumulator) Enqueue(s Stamp) bool {
	if !a.Ready() {
		return false
	}
	if err := s.Validate(); err != nil {
		a.log.Debug("stamp rejected", zap.Error(err))
		return false
	}
	if a.queue.Push(s) {
		a.log.Debug("stamp queue full, oldest dropped", zap.Uint64("dropped", a.queue.Dropped()))
	}
	return true
}

// Tick merges every pending stamp into the persistent texture, oldest first,
// then clears the queue. With no pending stamps no backend work is issued.
//
// Stamps are applied one dispatch at a time to a scratch copy, so each
// stamp sees the result of the ones before it. A failed tick leaves the
// persistent texture untouched and drops its stamps.
func (a *Accumulator) Tick() (TickStats, error) {
	stats := TickStats{Dropped: a.queue.Dropped()}
	if !a.Ready() || a.queue.Len() == 0 {
		return stats, nil
	}

	stamps := a.queue.Drain()
	stats.Stamps = len(stamps)

	err := a.apply(stamps, &stats)
	if err != nil {
		a.report(err)
		return stats, err
	}
	return stats, nil
}

func (a *Accumulator) apply(stamps []Stamp, stats *TickStats) error {
	b := a.binding
	scratch, err := a.backend.AcquireScratch(b.Texture)
	if err != nil {
		return fmt.Errorf("acquiring scratch: %w", err)
	}
	defer a.backend.Release(scratch)

	w, h := scratch.Size()
	gx, gy := ThreadGroups(w, h)
	stats.GroupsX, stats.GroupsY = gx, gy

	worldToUV, uvToWorld := b.Frame.Matrices()
	u := Uniforms{
		Width:         w,
		Height:        h,
		StandardValue: b.StandardValue,
		MinValue:      b.MinValue,
		MaxValue:      b.MaxValue,
		WorldToUV:     worldToUV,
		UVToWorld:     uvToWorld,
	}

	for i, s := range stamps {
		u.Center = b.Frame.WorldToUV(s.Position)
		u.Radius = s.Radius
		u.Strength = s.Strength
		u.RimWidth = s.RimWidth
		u.RimStrength = s.RimStrength

		if err := a.backend.Dispatch(scratch, u, gx, gy); err != nil {
			return fmt.Errorf("dispatching stamp %d of %d: %w", i+1, len(stamps), err)
		}
	}

	if err := a.backend.Commit(b.Texture, scratch); err != nil {
		return fmt.Errorf("committing deformation: %w", err)
	}
	return nil
}

// report logs a tick failure once per distinct message. A missing resource
// also disables the accumulator.
func (a *Accumulator) report(err error) {
	if errors.Is(err, ErrMissingResource) || errors.Is(err, ErrFormatMismatch) {
		a.disabled = true
	}
	if msg := err.Error(); msg != a.lastErr {
		a.lastErr = msg
		a.log.Error("deformation tick failed", zap.Error(err), zap.Bool("disabled", a.disabled))
	}
}
