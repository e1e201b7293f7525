package follower

import (
	"fmt"

	"github.com/fieldctl/core/command"
)

// ErrFollowerUnavailable is returned (via panic inside Initialize, caught by
// the scheduler's panic recovery) when a FollowPath has no follower bound.
var ErrFollowerUnavailable = fmt.Errorf("follower: no Follower bound")

// ErrChainUnbuilt is raised when a FollowPath initializes with neither a
// chain nor a builder that can materialize one.
var ErrChainUnbuilt = fmt.Errorf("follower: no chain and no builder")

// ErrBuilderFrozen is returned by every builder mutation attempted after the
// chain has already been materialized.
var ErrBuilderFrozen = fmt.Errorf("follower: builder is frozen after first Initialize")

// FollowPath is the command.Command that drives a Follower along a chain.
// It requires sub, the subsystem the follower physically belongs to.
type FollowPath struct {
	Follower Follower
	Chain    interface{}
	MaxPower float64
	HoldEnd  bool

	sub     *command.Subsystem
	builder *Builder

	materialized bool
}

// NewFollowPath returns a FollowPath bound to f, tracking chain at maxPower,
// requiring sub.
func NewFollowPath(f Follower, sub *command.Subsystem, chain interface{}, maxPower float64, holdEnd bool) *FollowPath {
	return &FollowPath{Follower: f, Chain: chain, MaxPower: maxPower, HoldEnd: holdEnd, sub: sub}
}

// NewFollowPathFromBuilder returns a FollowPath whose chain is materialized
// lazily, on first Initialize, from b.
func NewFollowPathFromBuilder(f Follower, sub *command.Subsystem, b *Builder, maxPower float64, holdEnd bool) *FollowPath {
	return &FollowPath{Follower: f, MaxPower: maxPower, HoldEnd: holdEnd, sub: sub, builder: b}
}

// Initialize materializes the chain (if built fluently) and starts
// tracking. It panics with ErrFollowerUnavailable or ErrChainUnbuilt on
// misconfiguration; the scheduler's recovery converts that into an
// AdapterFailure-equivalent report and a forced removal.
func (c *FollowPath) Initialize() {
	if c.Follower == nil {
		panic(ErrFollowerUnavailable)
	}
	if c.Chain == nil {
		if c.builder == nil {
			panic(ErrChainUnbuilt)
		}
		c.Chain = c.builder.materialize()
	}
	c.materialized = true
	c.Follower.Follow(c.Chain, c.MaxPower, c.HoldEnd)
}

// Execute is a no-op: the host loop ticks the follower itself.
func (c *FollowPath) Execute() {}

// IsFinished reports whether the follower has stopped tracking.
func (c *FollowPath) IsFinished() bool {
	return !c.Follower.IsBusy()
}

// End stops the follower iff interrupted; a natural finish needs no
// intervention.
func (c *FollowPath) End(interrupted bool) {
	if interrupted {
		c.Follower.BreakFollowing()
	}
}

// Requirements returns the subsystem the follower belongs to.
func (c *FollowPath) Requirements() command.Requirements {
	return command.NewRequirements(c.sub)
}

// segment is one fluent operation queued onto a Builder, applied in order
// when the chain is materialized.
type segment struct {
	apply func(chain interface{}) interface{}
}

// Builder accumulates path-segment operations before the chain is needed,
// materializing it lazily on the owning FollowPath's first Initialize.
// Mutating it after materialization returns ErrBuilderFrozen.
type Builder struct {
	segments []segment
	frozen   bool
	built    interface{}

	// newChain constructs the zero-value chain the first segment.apply
	// call starts folding from. It's supplied by the geometry library
	// the host wires in; this package has no opinion on the chain's
	// concrete shape.
	newChain func() interface{}
}

// NewBuilder returns a Builder whose chain starts from newChain().
func NewBuilder(newChain func() interface{}) *Builder {
	return &Builder{newChain: newChain}
}

// AddSegment queues apply to run, in order, against the chain being built.
// It errors with ErrBuilderFrozen once the chain has already been
// materialized.
func (b *Builder) AddSegment(apply func(chain interface{}) interface{}) error {
	if b.frozen {
		return ErrBuilderFrozen
	}
	b.segments = append(b.segments, segment{apply: apply})
	return nil
}

// materialize folds every queued segment into a chain and freezes the
// builder. It's idempotent: calling it twice returns the same chain without
// re-running the segments.
func (b *Builder) materialize() interface{} {
	if b.frozen {
		return b.built
	}
	chain := interface{}(nil)
	if b.newChain != nil {
		chain = b.newChain()
	}
	for _, seg := range b.segments {
		chain = seg.apply(chain)
	}
	b.built = chain
	b.frozen = true
	return b.built
}
