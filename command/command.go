// Package command defines the lifecycle contract every schedulable action
// implements, the subsystem handle type commands require, and the leaf and
// composition primitives built on top of that contract.
package command

// Subsystem is an opaque handle identifying a shared hardware resource. At
// most one Command may hold a Subsystem at a time. Identity is by pointer,
// not by any field on the struct, so two Subsystems with identical Name
// values are still distinct.
type Subsystem struct {
	// Name is used only for logging and Dump output. It has no effect on
	// identity or equality.
	Name string

	// Periodic is called once per tick by the Scheduler while this
	// Subsystem is registered. It may be nil.
	Periodic func()
}

// NewSubsystem returns a new Subsystem handle with the given name.
func NewSubsystem(name string) *Subsystem {
	return &Subsystem{Name: name}
}

// String implements fmt.Stringer.
func (s *Subsystem) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.Name
}

// Requirements is the set of Subsystems a Command needs. It's fixed for the
// lifetime of a Command and is expressed as a set to make union and overlap
// computations cheap and order-independent.
type Requirements map[*Subsystem]struct{}

// NewRequirements builds a Requirements set from a list of Subsystems.
func NewRequirements(subsystems ...*Subsystem) Requirements {
	reqs := make(Requirements, len(subsystems))
	for _, s := range subsystems {
		if s == nil {
			continue
		}
		reqs[s] = struct{}{}
	}
	return reqs
}

// Union returns a new Requirements set containing every Subsystem in any of
// the given sets.
func Union(sets ...Requirements) Requirements {
	out := Requirements{}
	for _, set := range sets {
		for s := range set {
			out[s] = struct{}{}
		}
	}
	return out
}

// Overlaps reports whether a and b share at least one Subsystem.
func Overlaps(a, b Requirements) bool {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	for s := range small {
		if _, ok := big[s]; ok {
			return true
		}
	}
	return false
}

// Has reports whether reqs contains s.
func (reqs Requirements) Has(s *Subsystem) bool {
	_, ok := reqs[s]
	return ok
}

// Command is a state machine action with a fixed requirement set. The
// engine which runs it (see package scheduler) guarantees that Initialize
// precedes any Execute, that End is called exactly once per successful
// Initialize, and that Execute/IsFinished are never called after End.
type Command interface {
	// Initialize is called once when the command enters the running set.
	Initialize()

	// Execute is called once per tick while the command is running.
	Execute()

	// IsFinished is polled once per tick, after Execute.
	IsFinished() bool

	// End is called exactly once when the command leaves the running
	// set. interrupted is true if the command did not finish on its own.
	End(interrupted bool)

	// Requirements returns the subsystems this command needs. It must be
	// stable for the lifetime of the command.
	Requirements() Requirements
}
