package follower

import "math"

// ProgressTracker is not a command: it's a helper bound to a Follower that
// maintains path/chain progress fractions and fires named events exactly
// once each, the first tick progress crosses their threshold. It also
// supports a turn-tracking mode for Followers that implement Turner.
type ProgressTracker struct {
	f Follower

	// PathProgress and ChainProgress are in [0,1]; callers (typically the
	// routine package, driving progress from the follower's own t-value
	// or chain index) update them once per tick via SetProgress.
	PathProgress  float64
	ChainProgress float64

	thresholds map[string]float64
	fired      map[string]bool

	turning      bool
	turnTarget   float64
	turnStart    float64
	turnName     string
	turnThresh   float64
	turnFiredAll bool
}

// NewProgressTracker returns a tracker bound to f.
func NewProgressTracker(f Follower) *ProgressTracker {
	return &ProgressTracker{
		f:          f,
		thresholds: map[string]float64{},
		fired:      map[string]bool{},
	}
}

// AddEvent registers name to fire once PathProgress reaches threshold.
func (p *ProgressTracker) AddEvent(name string, threshold float64) {
	p.thresholds[name] = threshold
	p.fired[name] = false
}

// SetProgress updates the path and chain progress fractions. The routine
// builder calls this once per tick from the companion command driving event
// markers.
func (p *ProgressTracker) SetProgress(pathProgress, chainProgress float64) {
	p.PathProgress = pathProgress
	p.ChainProgress = chainProgress
}

// ShouldTrigger reports true the first tick after PathProgress has reached
// name's threshold, and false every tick before or after that, including
// repeated calls on the same tick (it's a one-shot edge, not a level).
func (p *ProgressTracker) ShouldTrigger(name string) bool {
	threshold, ok := p.thresholds[name]
	if !ok || p.fired[name] {
		return false
	}
	if p.PathProgress >= threshold {
		p.fired[name] = true
		return true
	}
	return false
}

// Turn begins turn-tracking mode toward targetRad, registering name to fire
// once angular progress crosses threshold. f must implement Turner.
func (p *ProgressTracker) Turn(targetRad float64, name string, threshold float64) {
	t, ok := asTurner(p.f)
	if !ok {
		return
	}
	_, _, heading := p.f.Pose()
	p.turning = true
	p.turnTarget = targetRad
	p.turnStart = heading
	p.turnName = name
	p.turnThresh = threshold
	p.turnFiredAll = false
	t.TurnTo(targetRad)
}

// TurnProgress computes the normalized angular progress of the active turn:
// the signed shortest-angle delta already traveled, divided by the signed
// shortest-angle delta originally required, reduced to [-π, π] at every
// step. Returns 0 if no turn is active.
func (p *ProgressTracker) TurnProgress() float64 {
	if !p.turning {
		return 0
	}
	_, _, heading := p.f.Pose()
	total := shortestAngle(p.turnTarget - p.turnStart)
	if total == 0 {
		return 1
	}
	traveled := shortestAngle(heading - p.turnStart)
	return traveled / total
}

// TurnShouldTrigger reports whether the active turn's named event should
// fire this tick, following the same one-shot-edge semantics as
// ShouldTrigger.
func (p *ProgressTracker) TurnShouldTrigger() bool {
	if !p.turning || p.turnFiredAll {
		return false
	}
	if math.Abs(p.TurnProgress()) >= p.turnThresh {
		p.turnFiredAll = true
		return true
	}
	return false
}

// TurnDone reports whether the follower itself considers the turn complete.
// It returns true immediately if f doesn't implement Turner, so callers
// compose it into command.WaitUntil safely regardless of capability.
func (p *ProgressTracker) TurnDone() bool {
	t, ok := asTurner(p.f)
	if !ok {
		return true
	}
	done := !t.IsTurning()
	if done {
		p.turning = false
	}
	return done
}

// CurrentPath returns the chain the bound Follower reports as currently
// active, if it implements PathInspector. ok is false when the follower
// doesn't support path inspection, in which case callers should not log or
// display a path.
func (p *ProgressTracker) CurrentPath() (interface{}, bool) {
	pi, ok := asPathInspector(p.f)
	if !ok {
		return nil, false
	}
	return pi.CurrentPath(), true
}

// shortestAngle reduces an angular delta to [-π, π].
func shortestAngle(delta float64) float64 {
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta < -math.Pi {
		delta += 2 * math.Pi
	}
	return delta
}
