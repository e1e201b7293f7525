// Package adapter turns arbitrary values into command.Command instances.
// Native command.Command values pass through unchanged; bare closures with a
// schedule-shaped signature are wrapped as command.Instant; anything else is
// probed against a small set of capability interfaces and wrapped as a
// Foreign adapter.
//
// This mirrors the teacher's traits.Base pattern in
// engine/traits/base.go, which lets a Res satisfy engine.Res by
// embedding a base that supplies the methods the caller's type doesn't
// implement itself — generalized here into a wrapper that supplies the
// full command.Command surface around whatever subset of it the wrapped
// value actually implements.
package adapter

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/fieldctl/core/command"
)

// Kind distinguishes how a value reached its final command.Command shape.
type Kind int

// The three ways Adapt can produce a command.Command.
const (
	// Native means v already implemented command.Command.
	Native Kind = iota
	// Closure means v was a bare func() wrapped in command.Instant.
	Closure
	// Foreign means v was wrapped in a Foreign adapter.
	Foreign
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Native:
		return "native"
	case Closure:
		return "closure"
	case Foreign:
		return "foreign"
	default:
		return "unknown"
	}
}

// initializer, executor, finisher, ender, and requirer are the capability
// probes Adapt checks a foreign value against. None of them are exported:
// callers implement command.Command directly if they want a documented
// contract, or one of these narrower shapes if they only want to supply
// part of it and let Foreign fill in defaults for the rest.
type initializer interface{ Initialize() }
type executor interface{ Execute() }
type finisher interface{ IsFinished() bool }
type ender interface{ End(interrupted bool) }
type requirer interface{ Requirements() command.Requirements }

// scheduler is the shape of a value with a single no-arg "run once" method,
// the shape RegisterResource's fn() pattern generalizes to: an object the
// caller built already knows how to run, without implementing the full
// Command lifecycle.
type scheduler interface{ Schedule() }

// Adapt converts v into a command.Command. name is used to derive a default
// identity for values that don't carry their own (only relevant for
// Foreign's String method). It errors if v is nil or not adaptable to any
// recognized shape.
func Adapt(v interface{}, name string) (command.Command, error) {
	if v == nil {
		return nil, fmt.Errorf("adapter: can't adapt a nil value")
	}

	if c, ok := v.(command.Command); ok {
		return c, nil
	}

	if fn, ok := v.(func()); ok {
		return command.NewInstant(fn), nil
	}

	if s, ok := v.(scheduler); ok {
		fn := s.Schedule
		return command.NewInstant(fn), nil
	}

	f := &Foreign{
		name: defaultName(v, name),
	}
	if i, ok := v.(initializer); ok {
		f.init = i.Initialize
	}
	if e, ok := v.(executor); ok {
		f.exec = e.Execute
	}
	if fi, ok := v.(finisher); ok {
		f.finished = fi.IsFinished
	}
	if en, ok := v.(ender); ok {
		f.end = en.End
	}
	if r, ok := v.(requirer); ok {
		f.reqs = r.Requirements()
	}
	if f.init == nil && f.exec == nil && f.finished == nil && f.end == nil {
		return nil, fmt.Errorf("adapter: %T implements none of the command shapes", v)
	}
	return f, nil
}

// KindOf reports how Adapt would classify v, without actually adapting it.
// Mostly useful for tests and the demo CLI's introspection.
func KindOf(v interface{}) Kind {
	if _, ok := v.(command.Command); ok {
		return Native
	}
	if _, ok := v.(func()); ok {
		return Closure
	}
	if _, ok := v.(scheduler); ok {
		return Closure
	}
	return Foreign
}

// defaultName derives a name for a Foreign value with no name of its own:
// if name is non-empty, it's used as-is; otherwise the value's
// package-qualified type name (without a leading pointer star) is
// snake-cased, matching the derivation the teacher's YAML resource kinds
// use for unnamed graph vertices.
func defaultName(v interface{}, name string) string {
	if name != "" {
		return name
	}
	return strcase.ToSnake(strings.TrimLeft(fmt.Sprintf("%T", v), "*"))
}

// Foreign wraps a value that only implements some subset of
// command.Command, filling in harmless defaults for the rest: Initialize,
// Execute, and End default to no-ops, IsFinished defaults to false per
// spec (a foreign object with no finish condition of its own must be
// cancelled externally, the same as command.Run), and Requirements
// defaults to empty.
type Foreign struct {
	name string

	init     func()
	exec     func()
	finished func() bool
	end      func(interrupted bool)
	reqs     command.Requirements
}

// Initialize calls the wrapped value's Initialize, if it has one.
func (f *Foreign) Initialize() {
	if f.init != nil {
		f.init()
	}
}

// Execute calls the wrapped value's Execute, if it has one.
func (f *Foreign) Execute() {
	if f.exec != nil {
		f.exec()
	}
}

// IsFinished calls the wrapped value's IsFinished, if it has one, defaulting
// to false otherwise.
func (f *Foreign) IsFinished() bool {
	if f.finished != nil {
		return f.finished()
	}
	return false
}

// End calls the wrapped value's End, if it has one.
func (f *Foreign) End(interrupted bool) {
	if f.end != nil {
		f.end(interrupted)
	}
}

// Requirements returns the wrapped value's requirements, or an empty set.
func (f *Foreign) Requirements() command.Requirements {
	if f.reqs != nil {
		return f.reqs
	}
	return command.Requirements{}
}

// String implements fmt.Stringer.
func (f *Foreign) String() string {
	return f.name
}
