package routine

import (
	"fmt"
	"time"

	"github.com/fieldctl/core/command"
	"github.com/fieldctl/core/follower"
	"github.com/fieldctl/core/registry"
	"github.com/fieldctl/core/scheduler"
)

// Chain is the opaque payload handed to a Follower's Follow method: the
// transformed start pose, transformed control points, and the transformed
// end pose plus the heading-control mode carried from the path file. Its
// shape belongs to this package, not the geometry library; a real Follower
// implementation type-asserts it back out.
type Chain struct {
	Start         Pose
	ControlPoints []Pose
	End           Pose
	HeadingMode   string
	Reverse       bool
}

// Build composes a full routine's command tree from a parsed Document: one
// Sequential stage per line (in sequence order), each stage a
// ParallelDeadline of that line's FollowPath against its event-marker
// companions, bracketed by the line's configured wait-before/wait-after
// delays. Event markers fire by scheduling their named registry entry onto
// sched, per spec.md §6's `WaitUntil(progress >= marker.position) =>
// Instant(registry.get(marker.name).schedule)` wording.
func Build(doc *Document, sub *command.Subsystem, f follower.Follower, sched *scheduler.Scheduler, reg *registry.Registry, maxPower float64) (command.Command, error) {
	lines, err := doc.orderedLines()
	if err != nil {
		return nil, err
	}

	start := Transform(doc.StartPoint.X, doc.StartPoint.Y, doc.StartPoint.StartDeg)
	stages := make([]command.Command, 0, len(lines))
	for _, l := range lines {
		stage, next, err := buildStage(l, start, sub, f, sched, reg, maxPower)
		if err != nil {
			return nil, fmt.Errorf("routine: building line %q: %w", l.ID, err)
		}
		stages = append(stages, stage)
		start = next
	}
	return command.NewSequential(stages...), nil
}

// buildStage builds one line's command and returns the robot-space pose its
// FollowPath ends at, used as the next line's start pose.
func buildStage(l Line, start Pose, sub *command.Subsystem, f follower.Follower, sched *scheduler.Scheduler, reg *registry.Registry, maxPower float64) (command.Command, Pose, error) {
	end := Transform(l.EndPoint.X, l.EndPoint.Y, 0)
	controlPoints := make([]Pose, len(l.ControlPoints))
	for i, cp := range l.ControlPoints {
		controlPoints[i] = Transform(cp.X, cp.Y, 0)
	}
	chain := &Chain{
		Start:         start,
		ControlPoints: controlPoints,
		End:           end,
		HeadingMode:   l.EndPoint.Heading,
		Reverse:       l.EndPoint.Reverse,
	}
	holdEnd := l.EndPoint.Heading == "constant"

	followCmd := follower.NewFollowPath(f, sub, chain, maxPower, holdEnd)
	pt := follower.NewProgressTracker(f)

	companions := []command.Command{progressDriver(f, pt)}
	for _, m := range l.EventMarkers {
		m := m
		pt.AddEvent(m.Name, m.Position)
		companions = append(companions, eventCompanion(pt, m, sched, reg))
	}

	deadline, err := command.NewParallelDeadline(followCmd, companions...)
	if err != nil {
		return nil, Pose{}, err
	}

	var parts []command.Command
	if l.WaitBeforeMs > 0 {
		parts = append(parts, command.NewWait(time.Duration(l.WaitBeforeMs)*time.Millisecond))
	}
	parts = append(parts, deadline)
	if l.WaitAfterMs > 0 {
		parts = append(parts, command.NewWait(time.Duration(l.WaitAfterMs)*time.Millisecond))
	}
	return command.NewSequential(parts...), end, nil
}

// progressDriver returns a Run command that keeps pt's progress fractions
// current from whatever progress capability f exposes. If f implements
// neither TValuer nor ChainIndexer, progress stays at zero and only event
// markers at position 0 or below ever fire — a documented limitation of a
// follower that can't report its own position.
func progressDriver(f follower.Follower, pt *follower.ProgressTracker) *command.Run {
	tv, hasT := f.(follower.TValuer)
	ci, hasC := f.(follower.ChainIndexer)
	return command.NewRun(func() {
		var t, chain float64
		if hasT {
			t = tv.CurrentTValue()
		}
		if hasC {
			chain = float64(ci.ChainIndex())
		}
		pt.SetProgress(t, chain)
	})
}

// eventCompanion returns the command that waits for marker's trigger edge
// and then schedules its registered command. If the bound follower
// implements follower.PathInspector, the chain it's tracking at the moment
// the marker fires is logged through sched.Logf — useful for correlating an
// event marker against the exact path segment the robot was on.
func eventCompanion(pt *follower.ProgressTracker, m EventMarker, sched *scheduler.Scheduler, reg *registry.Registry) *command.Sequential {
	fire := command.NewInstant(func() {
		if path, ok := pt.CurrentPath(); ok {
			sched.Logf("routine: event %q fired on chain %v", m.Name, path)
		}
		sched.Schedule(reg.Get(m.Name))
	})
	return command.NewSequential(command.NewWaitUntil(func() bool { return pt.ShouldTrigger(m.Name) }), fire)
}
