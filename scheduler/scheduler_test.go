package scheduler

import (
	"fmt"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/fieldctl/core/command"
)

// traceCmd is a Command that records every lifecycle call it receives, in
// order, onto a shared trace. It's used to assert the exact call sequences
// spec.md §8's scenarios describe.
type traceCmd struct {
	name    string
	trace   *[]string
	reqs    command.Requirements
	finish  func() bool
	onEnd   func(interrupted bool)
	onExec  func()
	onInit  func()
}

func newTraceCmd(name string, trace *[]string, reqs ...*command.Subsystem) *traceCmd {
	return &traceCmd{name: name, trace: trace, reqs: command.NewRequirements(reqs...)}
}

func (c *traceCmd) log(event string) {
	*c.trace = append(*c.trace, c.name+"."+event)
}

func (c *traceCmd) Initialize() {
	c.log("Initialize")
	if c.onInit != nil {
		c.onInit()
	}
}
func (c *traceCmd) Execute() {
	c.log("Execute")
	if c.onExec != nil {
		c.onExec()
	}
}
func (c *traceCmd) IsFinished() bool {
	if c.finish != nil {
		return c.finish()
	}
	return false
}
func (c *traceCmd) End(interrupted bool) {
	c.log(fmt.Sprintf("End(%v)", interrupted))
	if c.onEnd != nil {
		c.onEnd(interrupted)
	}
}
func (c *traceCmd) Requirements() command.Requirements { return c.reqs }

func assertTrace(t *testing.T, got, want []string) {
	t.Helper()
	if diff := pretty.Compare(got, want); diff != "" {
		t.Errorf("trace mismatch (-got +want):\n%s", diff)
	}
}

// Scenario 1: basic run-to-completion.
func TestBasicRunToCompletion(t *testing.T) {
	var trace []string
	once := true
	c := newTraceCmd("C", &trace)
	c.finish = func() bool {
		if once {
			once = false
			return false
		}
		return true
	}

	s := New(nil)
	s.Schedule(c)
	s.Tick()

	assertTrace(t, trace, []string{"C.Initialize", "C.Execute"})

	trace = nil
	s.Tick()
	assertTrace(t, trace, []string{"C.Execute", "C.End(false)"})

	if s.IsScheduled(c) {
		t.Errorf("expected C to have left the scheduled set")
	}
}

// Scenario 1, simplified: isFinished true after exactly one Execute.
func TestRunToCompletionOneExecute(t *testing.T) {
	var trace []string
	c := newTraceCmd("C", &trace)
	c.finish = func() bool { return true }

	s := New(nil)
	s.Schedule(c)
	s.Tick()

	assertTrace(t, trace, []string{"C.Initialize", "C.Execute", "C.End(false)"})
	if s.IsScheduled(c) {
		t.Errorf("expected empty scheduled set")
	}
}

// Scenario 2: preemption by requirement.
func TestPreemptionByRequirement(t *testing.T) {
	var trace []string
	sub := command.NewSubsystem("S")
	c1 := newTraceCmd("C1", &trace, sub)
	c2 := newTraceCmd("C2", &trace, sub)

	s := New(nil)
	s.Schedule(c1)
	s.Tick()
	assertTrace(t, trace, []string{"C1.Initialize", "C1.Execute"})

	trace = nil
	s.Schedule(c2)
	assertTrace(t, trace, []string{"C1.End(true)", "C2.Initialize"})

	if s.IsScheduled(c1) {
		t.Errorf("C1 should have been interrupted")
	}
	if !s.IsScheduled(c2) {
		t.Errorf("C2 should be scheduled")
	}

	trace = nil
	s.Tick()
	assertTrace(t, trace, []string{"C2.Execute"})
}

// Scenario 3: default-command reinsertion.
func TestDefaultCommandReinsertion(t *testing.T) {
	var trace []string
	sub := command.NewSubsystem("S")
	s := New(nil)
	s.RegisterSubsystem(sub)

	d := newTraceCmd("D", &trace, sub)
	if err := s.SetDefaultCommand(sub, d); err != nil {
		t.Fatalf("SetDefaultCommand: %v", err)
	}

	s.Tick() // D.Initialize, but not Execute
	assertTrace(t, trace, []string{"D.Initialize"})

	trace = nil
	s.Tick() // D.Execute
	assertTrace(t, trace, []string{"D.Execute"})

	c := newTraceCmd("C", &trace, sub)
	trace = nil
	s.Schedule(c)
	assertTrace(t, trace, []string{"D.End(true)", "C.Initialize"})

	// make C finish; the *next* tick should reinitialize D.
	c.finish = func() bool { return true }
	trace = nil
	s.Tick()
	assertTrace(t, trace, []string{"C.Execute", "C.End(false)", "D.Initialize"})
}

// Scenario 4: sequential completion and interruption.
func TestSequentialCompletion(t *testing.T) {
	var trace []string
	elapsed := false
	wait := newTraceCmd("Wait", &trace)
	wait.finish = func() bool { return elapsed }
	ran := false
	instant := newTraceCmd("Instant", &trace)
	instant.finish = func() bool { return true }
	instant.onExec = func() {}
	instant.onEnd = nil
	instant.onInit = func() { ran = true }

	seq := command.NewSequential(wait, instant)

	s := New(nil)
	s.Schedule(seq)
	assertTrace(t, trace, []string{"Wait.Initialize"})

	trace = nil
	s.Tick() // still waiting
	assertTrace(t, trace, []string{"Wait.Execute"})

	elapsed = true
	trace = nil
	s.Tick() // Wait finishes and Instant initializes; it executes and ends next tick
	assertTrace(t, trace, []string{
		"Wait.Execute", "Wait.End(false)", "Instant.Initialize",
	})
	if !ran {
		t.Errorf("expected instant's closure to have run")
	}
	if !s.IsScheduled(seq) {
		t.Errorf("sequence not finished yet, should still be scheduled")
	}

	trace = nil
	s.Tick()
	assertTrace(t, trace, []string{"Instant.Execute", "Instant.End(false)"})
	if s.IsScheduled(seq) {
		t.Errorf("sequence should have finished")
	}
}

// Scenario 5: race.
func TestParallelRace(t *testing.T) {
	var trace []string
	predTrue := false
	wait := newTraceCmd("Wait", &trace)
	wait.finish = func() bool { return false } // never finishes on its own in this test
	waitUntil := newTraceCmd("WaitUntil", &trace)
	waitUntil.finish = func() bool { return predTrue }

	race, err := command.NewParallelRace(wait, waitUntil)
	if err != nil {
		t.Fatalf("NewParallelRace: %v", err)
	}

	s := New(nil)
	s.Schedule(race)
	assertTrace(t, trace, []string{"Wait.Initialize", "WaitUntil.Initialize"})

	trace = nil
	s.Tick()
	assertTrace(t, trace, []string{"Wait.Execute", "WaitUntil.Execute"})

	predTrue = true
	trace = nil
	s.Tick()
	assertTrace(t, trace, []string{
		"Wait.Execute", "WaitUntil.Execute",
		"Wait.End(true)", "WaitUntil.End(false)",
	})
	if s.IsScheduled(race) {
		t.Errorf("race should have finished")
	}
}

// Scenario 6: deferred mutation.
func TestDeferredMutationScheduleDuringTick(t *testing.T) {
	var trace []string
	other := newTraceCmd("Other", &trace)

	var s *Scheduler
	var duringIteration []string
	run := newTraceCmd("Run", &trace)
	run.onExec = func() {
		s.Schedule(other)
		duringIteration = append([]string(nil), trace...)
	}

	s = New(nil)
	s.Schedule(run)
	trace = nil
	s.Tick()
	// other.Initialize must NOT run while the tick is iterating; it runs at
	// the tick-end drain.
	for _, ev := range duringIteration {
		if ev == "Other.Initialize" {
			t.Errorf("Other should not have initialized yet, trace=%v", trace)
		}
	}
	if !s.IsScheduled(other) {
		t.Errorf("Other should be scheduled after drain")
	}
}

func TestDeferredMutationScheduleThenCancelSameTick(t *testing.T) {
	var trace []string
	other := newTraceCmd("Other", &trace)

	var s *Scheduler
	run := newTraceCmd("Run", &trace)
	run.onExec = func() {
		s.Schedule(other)
		s.Cancel(other)
	}

	s = New(nil)
	s.Schedule(run)
	trace = nil
	s.Tick()

	for _, ev := range trace {
		if ev == "Other.Initialize" || ev == "Other.End(true)" {
			t.Errorf("Other should never have been initialized or ended, trace=%v", trace)
		}
	}
	if s.IsScheduled(other) {
		t.Errorf("Other should not be scheduled")
	}
}

func TestScheduleTwiceIsNoOp(t *testing.T) {
	var trace []string
	c := newTraceCmd("C", &trace)

	s := New(nil)
	s.Schedule(c)
	trace = nil
	s.Schedule(c) // no-op, same instance already scheduled
	assertTrace(t, trace, nil)
}

func TestSetDefaultCommandRequirementMismatch(t *testing.T) {
	sub := command.NewSubsystem("S")
	other := command.NewSubsystem("other")
	var trace []string
	c := newTraceCmd("C", &trace, other)

	s := New(nil)
	if err := s.SetDefaultCommand(sub, c); err == nil {
		t.Fatalf("expected a requirement mismatch error")
	}
}

func TestResetTwiceEquivalentToOnce(t *testing.T) {
	s := New(nil)
	sub := command.NewSubsystem("S")
	s.RegisterSubsystem(sub)
	var trace []string
	s.Schedule(newTraceCmd("C", &trace, sub))
	s.Tick()

	s.Reset()
	first := s.Dump()
	s.Reset()
	second := s.Dump()
	if first != second {
		t.Errorf("reset() twice should equal reset() once:\n%s\nvs\n%s", first, second)
	}
}

func TestScheduleThenCancelOnFreshScheduler(t *testing.T) {
	var trace []string
	c := newTraceCmd("C", &trace)

	s := New(nil)
	initial := s.Dump()

	s.Schedule(c)
	s.Cancel(c)

	assertTrace(t, trace, []string{"C.Initialize", "C.End(true)"})
	if s.Dump() != initial {
		t.Errorf("state should be back to initial after schedule+cancel:\n%s\nvs\n%s", s.Dump(), initial)
	}
}

func TestPeriodicRunsBeforeExecute(t *testing.T) {
	var trace []string
	sub := command.NewSubsystem("S")
	sub.Periodic = func() { trace = append(trace, "S.Periodic") }
	c := newTraceCmd("C", &trace, sub)

	s := New(nil)
	s.RegisterSubsystem(sub)
	s.Schedule(c)
	trace = nil
	s.Tick()
	assertTrace(t, trace, []string{"S.Periodic", "C.Execute"})
}

func TestPanicInExecuteDoesNotCorruptState(t *testing.T) {
	var trace []string
	sub := command.NewSubsystem("S")
	c := newTraceCmd("C", &trace, sub)
	c.onExec = func() { panic("boom") }

	s := New(nil)
	s.RegisterSubsystem(sub)
	s.Schedule(c)
	trace = nil
	s.Tick()

	found := false
	for _, ev := range trace {
		if ev == "C.End(true)" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected C.End(true) after a panicking Execute, trace=%v", trace)
	}
	if s.IsScheduled(c) {
		t.Errorf("C should have been removed")
	}
	if _, held := s.snapshotOwnership()[sub]; held {
		t.Errorf("subsystem should have been released")
	}
}

func (s *Scheduler) snapshotOwnership() map[*command.Subsystem]command.Command {
	out := map[*command.Subsystem]command.Command{}
	for k, v := range s.ownership {
		out[k] = v
	}
	return out
}
