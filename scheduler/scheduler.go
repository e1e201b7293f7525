// Package scheduler implements the single-threaded cooperative executor
// described in spec.md §4.1: it owns the set of currently running commands,
// arbitrates subsystem ownership, runs subsystem periodic callbacks,
// re-schedules default commands, and defers structural mutations that occur
// while it is iterating.
//
// It is modeled on the teacher's engine/graph.Engine — an obj-pattern
// struct holding maps keyed by an opaque vertex/handle type plus a Logf
// closure — generalized from a multi-worker dependency-graph engine down to
// this spec's single-threaded ownership-map engine. Unlike the teacher,
// there are no per-command goroutines: the whole tick runs inline on the
// caller's thread, per spec.md §5.
package scheduler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldctl/core/command"
	"github.com/fieldctl/core/errsink"
	"github.com/fieldctl/core/util/errwrap"
)

// ErrRequirementMismatch is returned by SetDefaultCommand when the default
// command doesn't list the subsystem it's being bound to.
var ErrRequirementMismatch = fmt.Errorf("default command does not require its subsystem")

// Scheduler is the cooperative executor. The zero value is not ready to
// use; construct one with New.
type Scheduler struct {
	// Logf is used for informational and debug messages. It must not be
	// nil after New.
	Logf func(format string, v ...interface{})

	// Sink receives recoverable errors encountered while running command
	// callbacks or subsystem periodic hooks. Defaults to a LogSink over
	// Logf if nil.
	Sink errsink.Sink

	// Debug turns on additional per-call tracing through Logf.
	Debug bool

	subsystems   []*command.Subsystem
	subsystemSet map[*command.Subsystem]struct{}

	defaults  map[*command.Subsystem]command.Command
	ownership map[*command.Subsystem]command.Command

	scheduledOrder []command.Command
	scheduledSet   map[command.Command]struct{}

	ids map[command.Command]uuid.UUID

	toSchedule []command.Command
	toCancel   []command.Command

	inTick bool
}

// New returns a ready-to-use Scheduler. logf may be nil, in which case all
// logging is discarded.
func New(logf func(format string, v ...interface{})) *Scheduler {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	s := &Scheduler{Logf: logf}
	s.Sink = errsink.NewLogSink(logf, 0, 0) // unlimited by default
	s.Reset()
	return s
}

// Reset clears all scheduler state: subsystems, defaults, ownership, the
// scheduled set, and the deferred-mutation queues. reset(); reset() is
// observationally equivalent to a single reset().
func (s *Scheduler) Reset() {
	s.subsystems = nil
	s.subsystemSet = map[*command.Subsystem]struct{}{}
	s.defaults = map[*command.Subsystem]command.Command{}
	s.ownership = map[*command.Subsystem]command.Command{}
	s.scheduledOrder = nil
	s.scheduledSet = map[command.Command]struct{}{}
	s.ids = map[command.Command]uuid.UUID{}
	s.toSchedule = nil
	s.toCancel = nil
	s.inTick = false
}

// RegisterSubsystem adds s to the set of subsystems whose Periodic callback
// runs every tick. It's idempotent.
func (s *Scheduler) RegisterSubsystem(sub *command.Subsystem) {
	if sub == nil {
		return
	}
	if _, ok := s.subsystemSet[sub]; ok {
		return
	}
	s.subsystemSet[sub] = struct{}{}
	s.subsystems = append(s.subsystems, sub)
}

// SetDefaultCommand binds c as the command to re-schedule whenever sub has
// no holder. It returns ErrRequirementMismatch if c doesn't require sub.
func (s *Scheduler) SetDefaultCommand(sub *command.Subsystem, c command.Command) error {
	if sub == nil || c == nil {
		return fmt.Errorf("invalid argument: nil subsystem or command")
	}
	if !c.Requirements().Has(sub) {
		return errwrap.Wrapf(ErrRequirementMismatch, "subsystem %s", sub)
	}
	s.defaults[sub] = c
	return nil
}

// IsScheduled reports whether c is currently in the running set.
func (s *Scheduler) IsScheduled(c command.Command) bool {
	_, ok := s.scheduledSet[c]
	return ok
}

// Schedule admits c into the running set, interrupting any current holder
// of a subsystem c requires. If called while Tick is iterating, the
// admission is deferred to the end of that tick.
func (s *Scheduler) Schedule(c command.Command) {
	if c == nil {
		return
	}
	if s.inTick {
		s.toSchedule = append(s.toSchedule, c)
		return
	}
	s.admit(c)
}

// admit runs the admission algorithm from spec.md §4.1 synchronously. It
// must only be called when s.inTick is false.
func (s *Scheduler) admit(c command.Command) {
	if s.IsScheduled(c) {
		return // no-op: already running, including the self-collision case
	}

	for sub := range c.Requirements() {
		if holder, ok := s.ownership[sub]; ok && holder != c {
			s.cancelNow(holder)
		}
	}

	s.scheduledOrder = append(s.scheduledOrder, c)
	s.scheduledSet[c] = struct{}{}
	s.ids[c] = uuid.New()
	for sub := range c.Requirements() {
		s.ownership[sub] = c
	}

	if s.Debug {
		s.Logf("schedule: %T[%s]: Initialize()", c, s.ids[c])
	}
	if ok := s.safeInitialize(c); !ok {
		// Initialize failed: undo the admission. Per spec.md §7, End
		// is not called for a command whose Initialize never
		// succeeded.
		s.removeFromRunning(c)
	}
}

// Cancel removes c from the running set, ending it as interrupted. If
// called while Tick is iterating, the cancellation is deferred to the end
// of that tick.
func (s *Scheduler) Cancel(c command.Command) {
	if c == nil {
		return
	}
	if s.inTick {
		s.toCancel = append(s.toCancel, c)
		return
	}
	s.cancelNow(c)
}

// cancelNow ends and removes c immediately. It must only be called when
// s.inTick is false.
func (s *Scheduler) cancelNow(c command.Command) {
	if !s.IsScheduled(c) {
		return
	}
	s.safeEnd(c, true)
	s.removeFromRunning(c)
}

// removeFromRunning drops c from the scheduled set and clears any
// ownership entries pointing to it, without calling End. Callers are
// responsible for having already ended c (or decided not to).
func (s *Scheduler) removeFromRunning(c command.Command) {
	delete(s.scheduledSet, c)
	delete(s.ids, c)
	for i, sc := range s.scheduledOrder {
		if sc == c {
			s.scheduledOrder = append(s.scheduledOrder[:i], s.scheduledOrder[i+1:]...)
			break
		}
	}
	for sub, holder := range s.ownership {
		if holder == c {
			delete(s.ownership, sub)
		}
	}
}

// Tick runs one pass of the scheduler: subsystem periodic callbacks, a
// single step of every running command, the deferred-mutation drain, and
// default-command reseeding, in that order per spec.md §4.1.
func (s *Scheduler) Tick() {
	s.inTick = true

	for _, sub := range s.subsystems {
		s.safePeriodic(sub)
	}

	// Walk a snapshot of the insertion order: commands finishing this
	// tick are removed from scheduledOrder, but iteration must still
	// visit every command that was running at the start of the tick.
	order := append([]command.Command(nil), s.scheduledOrder...)
	for _, c := range order {
		if !s.IsScheduled(c) {
			continue // removed earlier this same tick (shouldn't happen, but safe)
		}
		s.stepOne(c)
	}

	s.inTick = false

	// Drain order is (toSchedule, toCancel): newly scheduled commands
	// should see an ownership map that already reflects any
	// cancellations applied during iteration. See spec.md §4.1 step 5.
	//
	// A command both scheduled and cancelled before this drain never
	// gets admitted at all: cancelling a not-yet-initialized admission
	// withdraws it rather than initializing and immediately ending it.
	toSchedule, toCancel := s.toSchedule, s.toCancel
	s.toSchedule, s.toCancel = nil, nil
	cancelled := map[command.Command]struct{}{}
	for _, c := range toCancel {
		cancelled[c] = struct{}{}
	}
	for _, c := range toSchedule {
		if _, withdrawn := cancelled[c]; withdrawn {
			continue
		}
		s.admit(c)
	}
	for _, c := range toCancel {
		s.cancelNow(c)
	}

	for _, sub := range s.subsystems {
		if _, held := s.ownership[sub]; held {
			continue
		}
		d, ok := s.defaults[sub]
		if !ok {
			continue
		}
		if s.IsScheduled(d) {
			continue
		}
		s.admit(d) // admit no-ops if d somehow already got scheduled above
	}
}

// stepOne advances c by one Execute/IsFinished step and ends it if it has
// finished, per spec.md §4.1 step 3.
func (s *Scheduler) stepOne(c command.Command) {
	if !s.safeExecute(c) {
		s.removeFromRunning(c) // Initialize had succeeded; End already attempted by safeExecute's failure path
		return
	}
	finished, ok := s.safeIsFinished(c)
	if !ok {
		s.removeFromRunning(c)
		return
	}
	if finished {
		s.safeEnd(c, false)
		s.removeFromRunning(c)
	}
}

// Dump renders the scheduler's internal state for debugging. It's not part
// of the scheduler's behavioral contract; only tests and the demo CLI call
// it.
func (s *Scheduler) Dump() string {
	return dump(s)
}
