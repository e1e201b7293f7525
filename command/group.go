package command

import "fmt"

// groupBase aggregates the union of its children's requirements, computed
// once at construction time, per spec.
type groupBase struct {
	children []Command
	reqs     Requirements
}

// Requirements returns the union of all children's requirements.
func (g *groupBase) Requirements() Requirements {
	return g.reqs
}

func newGroupBase(children []Command) *groupBase {
	sets := make([]Requirements, len(children))
	for i, c := range children {
		sets[i] = c.Requirements()
	}
	return &groupBase{children: children, reqs: Union(sets...)}
}

// checkDisjoint returns an error if any two of children have overlapping
// requirements. Sequential groups don't call this since their children
// never run concurrently; every concurrent group does, per spec.md's
// "Requirement merging" rule and the construction-time strengthening noted
// in its design notes.
func checkDisjoint(children []Command) error {
	for i := 0; i < len(children); i++ {
		for j := i + 1; j < len(children); j++ {
			if Overlaps(children[i].Requirements(), children[j].Requirements()) {
				return fmt.Errorf("requirement conflict: children %d and %d of this group share a subsystem", i, j)
			}
		}
	}
	return nil
}

// Sequential runs its children one at a time, in order, forwarding
// interruption to whichever child is currently active.
type Sequential struct {
	*groupBase

	index int
}

// NewSequential returns a Sequential group over the given children, run in
// order. Sequential children may share requirements since they never run
// concurrently.
func NewSequential(children ...Command) *Sequential {
	return &Sequential{groupBase: newGroupBase(children)}
}

// Initialize resets the index and starts the first child, if any.
func (g *Sequential) Initialize() {
	g.index = 0
	if g.index < len(g.children) {
		g.children[g.index].Initialize()
	}
}

// Execute steps the currently active child and advances to the next one
// once it finishes.
func (g *Sequential) Execute() {
	if g.index >= len(g.children) {
		return
	}
	active := g.children[g.index]
	active.Execute()
	if active.IsFinished() {
		active.End(false)
		g.index++
		if g.index < len(g.children) {
			g.children[g.index].Initialize()
		}
	}
}

// IsFinished reports whether every child has run to completion.
func (g *Sequential) IsFinished() bool {
	return g.index >= len(g.children)
}

// End interrupts the currently active child, if the group has one.
func (g *Sequential) End(interrupted bool) {
	if g.index < len(g.children) {
		g.children[g.index].End(true)
	}
}

// ParallelAll runs every child concurrently (within a tick) and finishes
// once all of them have.
type ParallelAll struct {
	*groupBase

	running []bool
}

// NewParallelAll returns a ParallelAll group. It errors if any two children
// have overlapping requirements, since they'd run concurrently.
func NewParallelAll(children ...Command) (*ParallelAll, error) {
	if err := checkDisjoint(children); err != nil {
		return nil, err
	}
	return &ParallelAll{groupBase: newGroupBase(children)}, nil
}

// Initialize starts every child and marks them all running.
func (g *ParallelAll) Initialize() {
	g.running = make([]bool, len(g.children))
	for i, c := range g.children {
		c.Initialize()
		g.running[i] = true
	}
}

// Execute steps every still-running child, ending and retiring any that
// finish this tick.
func (g *ParallelAll) Execute() {
	for i, c := range g.children {
		if !g.running[i] {
			continue
		}
		c.Execute()
		if c.IsFinished() {
			c.End(false)
			g.running[i] = false
		}
	}
}

// IsFinished reports whether no children remain running.
func (g *ParallelAll) IsFinished() bool {
	for _, r := range g.running {
		if r {
			return false
		}
	}
	return true
}

// End interrupts every child still running.
func (g *ParallelAll) End(interrupted bool) {
	for i, c := range g.children {
		if g.running[i] {
			c.End(true)
			g.running[i] = false
		}
	}
}

// ParallelRace runs every child concurrently and finishes as soon as any one
// of them does, interrupting the rest. Children that report finished in the
// same tick as the winner are all closed with End(false); see spec.md's
// tie-break rule.
type ParallelRace struct {
	*groupBase

	running []bool
	done    bool
}

// NewParallelRace returns a ParallelRace group. It errors if any two
// children have overlapping requirements.
func NewParallelRace(children ...Command) (*ParallelRace, error) {
	if err := checkDisjoint(children); err != nil {
		return nil, err
	}
	return &ParallelRace{groupBase: newGroupBase(children)}, nil
}

// Initialize starts every child, unless there are none, in which case the
// race is immediately finished without ever initializing anything.
func (g *ParallelRace) Initialize() {
	g.done = len(g.children) == 0
	g.running = make([]bool, len(g.children))
	for i, c := range g.children {
		c.Initialize()
		g.running[i] = true
	}
}

// Execute steps every still-running child. The first tick in which one or
// more children report finished ends the race: finishers get End(false)
// and the rest get End(true), tracked via explicit running state rather
// than a stale re-check of IsFinished (see spec.md's open question on
// ParallelRace.End correctness).
func (g *ParallelRace) Execute() {
	if g.done {
		return
	}
	anyFinished := false
	finished := make([]bool, len(g.children))
	for i, c := range g.children {
		if !g.running[i] {
			continue
		}
		c.Execute()
		if c.IsFinished() {
			finished[i] = true
			anyFinished = true
		}
	}
	if !anyFinished {
		return
	}
	for i, c := range g.children {
		if !g.running[i] {
			continue
		}
		c.End(!finished[i])
		g.running[i] = false
	}
	g.done = true
}

// IsFinished reports whether the race has ended.
func (g *ParallelRace) IsFinished() bool {
	return g.done
}

// End interrupts any children still running (used if the race itself is
// interrupted from above before any child finished).
func (g *ParallelRace) End(interrupted bool) {
	for i, c := range g.children {
		if g.running[i] {
			c.End(true)
			g.running[i] = false
		}
	}
	g.done = true
}

// ParallelDeadline behaves like ParallelAll, except the group finishes the
// instant its deadline child finishes; every other still-running companion
// then gets End(true).
type ParallelDeadline struct {
	*groupBase

	deadline Command
	running  []bool
}

// NewParallelDeadline returns a ParallelDeadline group whose lifetime is
// bound to deadline. It errors if deadline's requirements overlap any
// companion's, or if two companions overlap each other.
func NewParallelDeadline(deadline Command, companions ...Command) (*ParallelDeadline, error) {
	all := append([]Command{deadline}, companions...)
	if err := checkDisjoint(all); err != nil {
		return nil, err
	}
	return &ParallelDeadline{groupBase: newGroupBase(all), deadline: deadline}, nil
}

// Initialize starts the deadline and every companion.
func (g *ParallelDeadline) Initialize() {
	g.running = make([]bool, len(g.children))
	for i, c := range g.children {
		c.Initialize()
		g.running[i] = true
	}
}

// Execute steps every still-running child. When the deadline child
// finishes, it's closed with End(false) and every other running child is
// closed with End(true) in the same tick.
func (g *ParallelDeadline) Execute() {
	for i, c := range g.children {
		if !g.running[i] {
			continue
		}
		c.Execute()
		if c.IsFinished() {
			c.End(false)
			g.running[i] = false
		}
	}
	if !g.running[0] { // index 0 is always the deadline, see Initialize order
		for i, c := range g.children {
			if g.running[i] {
				c.End(true)
				g.running[i] = false
			}
		}
	}
}

// IsFinished reports whether the deadline child has finished.
func (g *ParallelDeadline) IsFinished() bool {
	return !g.running[0]
}

// End interrupts every child still running.
func (g *ParallelDeadline) End(interrupted bool) {
	for i, c := range g.children {
		if g.running[i] {
			c.End(true)
			g.running[i] = false
		}
	}
}
