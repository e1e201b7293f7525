// Package errsink implements the error sink spec.md §7 requires: runtime
// errors inside command callbacks and subsystem periodic hooks are caught,
// surfaced through a sink (logging by default), and never crash the tick
// loop. It's modeled on the retry/backoff metaparam shape in the teacher's
// engine/metaparams.go, repurposed here for log throttling rather than
// CheckApply retries: a subsystem whose periodic() callback panics every
// tick shouldn't flood output forever.
package errsink

import (
	"fmt"

	"golang.org/x/time/rate"
)

// Level distinguishes recoverable/expected conditions (Warn, e.g. an
// UnknownName lookup) from actual failures (Error, e.g. AdapterFailure, a
// panic recovered from a command callback).
type Level int

// The two levels a Sink receives.
const (
	Warn Level = iota
	Error
)

// String implements fmt.Stringer.
func (l Level) String() string {
	if l == Warn {
		return "warn"
	}
	return "error"
}

// Sink receives error and warning reports from the scheduler and its
// collaborators. Report must never panic or block the caller for long,
// since it's called from inside the tick loop.
type Sink interface {
	Report(level Level, err error, context string)
}

// LogSink is the default Sink: it formats reports through a Logf closure,
// rate limited so a single misbehaving subsystem can't flood the log.
type LogSink struct {
	Logf func(format string, v ...interface{})

	// Limiter bounds how often Report actually writes a line. A nil
	// Limiter means unlimited, matching the teacher's rate.Inf default.
	Limiter *rate.Limiter
}

// NewLogSink returns a LogSink that logs through logf, allowing at most
// burst reports instantly and limit reports per second thereafter. A limit
// of rate.Inf (or burst <= 0) disables throttling.
func NewLogSink(logf func(format string, v ...interface{}), limit rate.Limit, burst int) *LogSink {
	s := &LogSink{Logf: logf}
	if burst > 0 && limit != rate.Inf {
		s.Limiter = rate.NewLimiter(limit, burst)
	}
	return s
}

// Report logs the error, prefixed by its level and context, unless the
// rate limiter says to drop it.
func (s *LogSink) Report(level Level, err error, context string) {
	if s.Logf == nil {
		return
	}
	if s.Limiter != nil && !s.Limiter.Allow() {
		return
	}
	if err == nil {
		s.Logf("%s: %s", level, context)
		return
	}
	s.Logf("%s: %s: %+v", level, context, err)
}

// Recover turns a recovered panic value into an error, suitable for passing
// to Report from a deferred recover() call.
func Recover(r interface{}) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("recovered: %v", r)
}
