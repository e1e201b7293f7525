// Package follower defines the narrow capability boundary between the
// scheduler core and an external motion-control primitive: the core only
// ever calls Follow/IsBusy/BreakFollowing/Pose, plus a handful of optional
// capabilities it probes for structurally. The PID/feedforward geometry
// living behind this interface is out of scope here — see spec.md §1.
//
// The optional-capability split mirrors the teacher's engine/traits
// package, where a Res only implements the methods it needs and embeds
// traits.Base to satisfy the rest; here the capabilities are probed with
// type assertions instead of embedding, since Follower implementations are
// supplied by the host, not authored against this package's base types.
package follower

// Follower is the required capability every motion-control collaborator
// must provide.
type Follower interface {
	// Follow begins tracking chain at the given max power, holding the
	// final pose if holdEnd is true.
	Follow(chain interface{}, maxPower float64, holdEnd bool)

	// IsBusy reports whether the follower is still actively tracking.
	IsBusy() bool

	// BreakFollowing requests an immediate stop.
	BreakFollowing()

	// Pose returns the current robot pose as (x, y, heading in radians).
	Pose() (x, y, headingRad float64)
}

// Turner is an optional capability for followers that can execute
// standalone turns independent of a path chain.
type Turner interface {
	// IsTurning reports whether a turn is currently in progress.
	IsTurning() bool
	// TurnTo commands a turn to the given absolute heading, in radians.
	TurnTo(targetRad float64)
}

// ChainIndexer is an optional capability exposing which segment of a
// multi-segment chain is currently active.
type ChainIndexer interface {
	ChainIndex() int
}

// TValuer is an optional capability exposing the follower's parametric
// position along the current path segment.
type TValuer interface {
	CurrentTValue() float64
}

// PathInspector is an optional capability exposing the chain currently
// being followed, as an opaque value (its concrete shape belongs to the
// geometry library, not this package).
type PathInspector interface {
	CurrentPath() interface{}
}

// asTurner and asPathInspector probe f for the matching optional capability,
// returning ok=false when f doesn't implement it. Callers type-assert
// before calling an optional method; core code never calls an optional
// capability blind. ChainIndexer and TValuer are probed directly by their
// callers (routine.progressDriver) instead of through a wrapper here, since
// that's the only call site and it needs both probes side by side.
func asTurner(f Follower) (Turner, bool)               { t, ok := f.(Turner); return t, ok }
func asPathInspector(f Follower) (PathInspector, bool) { p, ok := f.(PathInspector); return p, ok }
