package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldctl/core/config"
	"github.com/fieldctl/core/registry"
	"github.com/fieldctl/core/scheduler"
)

// RunArgs is the `run` subcommand: load a config file, build a scheduler
// from it, and tick it on a fixed interval until interrupted. This is
// demonstration glue for the core, not part of its testable surface, per
// spec.md §6.
type RunArgs struct {
	Config string        `arg:"--config,required" help:"path to a routine config YAML file"`
	Tick   time.Duration `arg:"--tick" default:"20ms" help:"control-loop tick interval"`
	Debug  bool          `arg:"--debug" help:"enable verbose scheduler tracing"`
}

// Main runs the tick loop until ctx is cancelled or a SIGINT/SIGTERM is
// received, mirroring the teacher's main.waitForSignal/mgmtmain signal
// handling shape.
func (a *RunArgs) Main(ctx context.Context) error {
	data, err := os.ReadFile(a.Config)
	if err != nil {
		return fmt.Errorf("run: reading config: %w", err)
	}
	doc, err := config.Parse(data)
	if err != nil {
		return fmt.Errorf("run: parsing config: %w", err)
	}

	logf := func(format string, v ...interface{}) { log.Printf(format, v...) }
	sched := scheduler.New(logf)
	sched.Debug = a.Debug
	reg := registry.New()

	// No Follower is wired here: the geometry/motion-control library that
	// implements follower.Follower is outside this repo's scope (spec.md
	// §1). A config with no routines still runs the tick loop fine; one
	// with routines needs a real Followers map supplied by the host.
	if _, err := config.Apply(doc, sched, reg, config.Followers{}); err != nil {
		return fmt.Errorf("run: applying config: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	ticker := time.NewTicker(a.Tick)
	defer ticker.Stop()

	log.Printf("fieldctl: ticking every %s", a.Tick)
	for {
		select {
		case <-ticker.C:
			sched.Tick()
			if a.Debug {
				log.Printf("tick: %s", sched.Dump())
			}
		case <-sig:
			log.Printf("fieldctl: interrupted, shutting down")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
