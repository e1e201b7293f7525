package scheduler

import (
	"fmt"
	"strings"

	"github.com/sanity-io/litter"

	"github.com/fieldctl/core/command"
)

// dumpState is the plain-data snapshot litter.Sdump renders for
// Scheduler.Dump. It exists as its own type (instead of dumping the
// Scheduler struct directly) so the output stays stable even as internal
// scheduler fields change, and so it never tries to render a Command's
// unexported state.
type dumpState struct {
	Subsystems []string
	Scheduled  []string
	Ownership  map[string]string
	Defaults   map[string]string
}

func dump(s *Scheduler) string {
	ds := dumpState{
		Ownership: map[string]string{},
		Defaults:  map[string]string{},
	}
	for _, sub := range s.subsystems {
		ds.Subsystems = append(ds.Subsystems, sub.String())
	}
	for _, c := range s.scheduledOrder {
		ds.Scheduled = append(ds.Scheduled, label(c))
	}
	for sub, holder := range s.ownership {
		ds.Ownership[sub.String()] = label(holder)
	}
	for sub, d := range s.defaults {
		ds.Defaults[sub.String()] = label(d)
	}
	return strings.TrimSpace(litter.Sdump(ds))
}

func label(c command.Command) string {
	return fmt.Sprintf("%T", c)
}
