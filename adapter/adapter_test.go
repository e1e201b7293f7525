package adapter

import (
	"testing"

	"github.com/fieldctl/core/command"
)

func TestAdaptNative(t *testing.T) {
	native := command.NewInstant(func() {})
	c, err := Adapt(native, "")
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if c != command.Command(native) {
		t.Errorf("expected the same instance back unwrapped")
	}
	if KindOf(native) != Native {
		t.Errorf("expected Native, got %v", KindOf(native))
	}
}

func TestAdaptClosure(t *testing.T) {
	ran := false
	fn := func() { ran = true }
	c, err := Adapt(fn, "")
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if KindOf(fn) != Closure {
		t.Errorf("expected Closure, got %v", KindOf(fn))
	}
	c.Initialize()
	if !ran {
		t.Errorf("expected the closure to have run")
	}
	if !c.IsFinished() {
		t.Errorf("expected a wrapped closure to finish immediately")
	}
}

type schedulable struct{ ran bool }

func (s *schedulable) Schedule() { s.ran = true }

func TestAdaptScheduleMethod(t *testing.T) {
	s := &schedulable{}
	c, err := Adapt(s, "")
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	c.Initialize()
	if !s.ran {
		t.Errorf("expected Schedule to have been called")
	}
}

type partialForeign struct {
	execCount int
	finished  bool
}

func (p *partialForeign) Execute()       { p.execCount++ }
func (p *partialForeign) IsFinished() bool { return p.finished }

func TestAdaptForeignPartial(t *testing.T) {
	p := &partialForeign{}
	c, err := Adapt(p, "my_thing")
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if KindOf(p) != Foreign {
		t.Errorf("expected Foreign, got %v", KindOf(p))
	}

	c.Initialize() // no-op, p has none
	c.Execute()
	c.Execute()
	if p.execCount != 2 {
		t.Errorf("expected Execute to be forwarded twice, got %d", p.execCount)
	}
	if c.IsFinished() {
		t.Errorf("expected IsFinished to forward false")
	}
	p.finished = true
	if !c.IsFinished() {
		t.Errorf("expected IsFinished to forward true")
	}
	c.End(false) // no-op, p has none; must not panic

	if f, ok := c.(*Foreign); !ok {
		t.Errorf("expected a *Foreign")
	} else if f.String() != "my_thing" {
		t.Errorf("expected name my_thing, got %q", f.String())
	}
}

type noFinishCondition struct {
	initCount int
	endCount  int
}

func (n *noFinishCondition) Initialize()          { n.initCount++ }
func (n *noFinishCondition) End(interrupted bool) { n.endCount++ }

func TestAdaptForeignWithNoIsFinishedDefaultsFalse(t *testing.T) {
	n := &noFinishCondition{}
	c, err := Adapt(n, "")
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	c.Initialize()
	if c.IsFinished() {
		t.Errorf("a foreign object with no IsFinished method must default to false, not true: it must be cancelled externally, like command.Run")
	}
	c.End(true)
	if n.initCount != 1 || n.endCount != 1 {
		t.Errorf("expected Initialize and End to be forwarded once each, got init=%d end=%d", n.initCount, n.endCount)
	}
}

type nothingAtAll struct{}

func TestAdaptRejectsEmptyShape(t *testing.T) {
	if _, err := Adapt(&nothingAtAll{}, ""); err == nil {
		t.Errorf("expected an error adapting a value with no command shape")
	}
}

func TestAdaptRejectsNil(t *testing.T) {
	if _, err := Adapt(nil, ""); err == nil {
		t.Errorf("expected an error adapting nil")
	}
}

func TestDefaultNameDerivation(t *testing.T) {
	p := &partialForeign{}
	c, _ := Adapt(p, "")
	f := c.(*Foreign)
	if f.String() != "adapter_partial_foreign" {
		t.Errorf("expected a snake_cased type name, got %q", f.String())
	}
}

type withReqs struct {
	partialForeign
	reqs command.Requirements
}

func (w *withReqs) Requirements() command.Requirements { return w.reqs }

func TestForeignForwardsRequirements(t *testing.T) {
	sub := command.NewSubsystem("S")
	v := &withReqs{reqs: command.NewRequirements(sub)}

	c, err := Adapt(v, "")
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if !c.Requirements().Has(sub) {
		t.Errorf("expected the adapted command to forward Requirements")
	}
}
