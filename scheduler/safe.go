package scheduler

import (
	"fmt"

	"github.com/fieldctl/core/command"
	"github.com/fieldctl/core/errsink"
)

// safeInitialize runs c.Initialize, recovering any panic. It returns false
// if Initialize failed, in which case the caller must not treat c as
// successfully admitted (no End call is owed).
func (s *Scheduler) safeInitialize(c command.Command) (ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			ok = false
			s.report(errsink.Error, errsink.Recover(r), fmt.Sprintf("%T.Initialize", c))
		}
	}()
	c.Initialize()
	return
}

// safeExecute runs c.Execute, recovering any panic. If Execute panics, c
// had already successfully Initialized (only running commands reach this
// path), so this also attempts the one End(true) call c is still owed
// before reporting failure. It returns false if Execute panicked.
func (s *Scheduler) safeExecute(c command.Command) (ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			ok = false
			s.report(errsink.Error, errsink.Recover(r), fmt.Sprintf("%T.Execute", c))
			s.safeEnd(c, true)
		}
	}()
	c.Execute()
	return
}

// safeIsFinished runs c.IsFinished, recovering any panic. On panic it also
// attempts the End(true) call c is still owed, mirroring safeExecute.
func (s *Scheduler) safeIsFinished(c command.Command) (finished, ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			ok = false
			s.report(errsink.Error, errsink.Recover(r), fmt.Sprintf("%T.IsFinished", c))
			s.safeEnd(c, true)
		}
	}()
	finished = c.IsFinished()
	return
}

// safeEnd runs c.End(interrupted), recovering any panic. A panic inside End
// is reported but End is never retried for the same removal, per spec.md
// §7.
func (s *Scheduler) safeEnd(c command.Command, interrupted bool) {
	defer func() {
		if r := recover(); r != nil {
			s.report(errsink.Error, errsink.Recover(r), fmt.Sprintf("%T.End", c))
		}
	}()
	if s.Debug {
		s.Logf("%T[%s]: End(%v)", c, s.ids[c], interrupted)
	}
	c.End(interrupted)
}

// safePeriodic runs sub.Periodic, recovering any panic. A subsystem is
// never removed as a result of a failing periodic callback; only the error
// is surfaced and the tick continues, per spec.md §7.
func (s *Scheduler) safePeriodic(sub *command.Subsystem) {
	if sub.Periodic == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.report(errsink.Error, errsink.Recover(r), fmt.Sprintf("subsystem %s periodic", sub))
		}
	}()
	sub.Periodic()
}

func (s *Scheduler) report(level errsink.Level, err error, context string) {
	if s.Sink == nil {
		return
	}
	s.Sink.Report(level, err, context)
}
