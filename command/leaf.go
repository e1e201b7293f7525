package command

import (
	"time"

	"github.com/fieldctl/core/internal/clock"
)

// Instant runs a closure once on Initialize and finishes immediately. It's
// the primitive the adapter layer wraps bare closures in.
type Instant struct {
	Func func()
	Reqs Requirements
}

// NewInstant returns an Instant command that runs fn with the given
// requirements. fn may be nil, in which case Initialize is a no-op.
func NewInstant(fn func(), reqs ...*Subsystem) *Instant {
	return &Instant{Func: fn, Reqs: NewRequirements(reqs...)}
}

// Initialize runs the wrapped closure, if any.
func (c *Instant) Initialize() {
	if c.Func != nil {
		c.Func()
	}
}

// Execute is a no-op; Instant does all its work in Initialize.
func (c *Instant) Execute() {}

// IsFinished always returns true: Instant finishes the tick it starts.
func (c *Instant) IsFinished() bool { return true }

// End is a no-op.
func (c *Instant) End(interrupted bool) {}

// Requirements returns the configured requirement set.
func (c *Instant) Requirements() Requirements { return c.Reqs }

// Run executes a closure every tick until externally cancelled. It never
// reports finished on its own.
type Run struct {
	Func func()
	Reqs Requirements
}

// NewRun returns a Run command that calls fn every tick.
func NewRun(fn func(), reqs ...*Subsystem) *Run {
	return &Run{Func: fn, Reqs: NewRequirements(reqs...)}
}

// Initialize is a no-op; Run's work happens in Execute.
func (c *Run) Initialize() {}

// Execute runs the wrapped closure, if any.
func (c *Run) Execute() {
	if c.Func != nil {
		c.Func()
	}
}

// IsFinished always returns false. Run must be cancelled externally.
func (c *Run) IsFinished() bool { return false }

// End is a no-op.
func (c *Run) End(interrupted bool) {}

// Requirements returns the configured requirement set.
func (c *Run) Requirements() Requirements { return c.Reqs }

// Wait finishes once Duration has elapsed since Initialize. A Duration of
// zero or less finishes on the first IsFinished call after Initialize. A
// Wait that hasn't been initialized yet always reports not finished.
type Wait struct {
	Duration time.Duration
	Clock    clock.Clock // defaults to clock.Default if nil

	start   time.Time
	started bool
}

// NewWait returns a Wait command for the given duration, using the real
// clock.
func NewWait(d time.Duration) *Wait {
	return &Wait{Duration: d}
}

// Initialize records the start timestamp.
func (c *Wait) Initialize() {
	c.started = true
	c.start = c.clock().Now()
}

// Execute is a no-op; Wait only needs the clock.
func (c *Wait) Execute() {}

// IsFinished reports whether Duration has elapsed since Initialize.
func (c *Wait) IsFinished() bool {
	if !c.started {
		return false
	}
	return c.clock().Now().Sub(c.start) >= c.Duration
}

// End clears the started flag, so the Wait reports not finished until it is
// initialized again.
func (c *Wait) End(interrupted bool) { c.started = false }

// Requirements returns an empty set; Wait needs no subsystems.
func (c *Wait) Requirements() Requirements { return Requirements{} }

func (c *Wait) clock() clock.Clock {
	if c.Clock != nil {
		return c.Clock
	}
	return clock.Default
}

// WaitUntil finishes the first tick its Predicate reports true. It carries
// no state of its own between ticks.
type WaitUntil struct {
	Predicate func() bool
}

// NewWaitUntil returns a WaitUntil command gated on pred.
func NewWaitUntil(pred func() bool) *WaitUntil {
	return &WaitUntil{Predicate: pred}
}

// Initialize is a no-op.
func (c *WaitUntil) Initialize() {}

// Execute is a no-op.
func (c *WaitUntil) Execute() {}

// IsFinished evaluates the predicate. A nil predicate never finishes.
func (c *WaitUntil) IsFinished() bool {
	if c.Predicate == nil {
		return false
	}
	return c.Predicate()
}

// End is a no-op.
func (c *WaitUntil) End(interrupted bool) {}

// Requirements returns an empty set; WaitUntil needs no subsystems.
func (c *WaitUntil) Requirements() Requirements { return Requirements{} }
