// Command fieldctl is a thin demonstration binary around the scheduler
// core: it loads a routine config file and ticks a Scheduler against it
// until interrupted. It exists to exercise the core end-to-end, not as a
// shipped robot runtime — see spec.md §1's "integration glue to any
// specific robot runtime" non-goal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fieldctl/core/cli"
)

// version and program are set at compile time via -ldflags, matching the
// teacher's own main.go convention.
var (
	version = "dev"
	program = "fieldctl"
)

func main() {
	data := &cli.Data{
		Program: program,
		Version: version,
		Args:    os.Args[1:],
	}
	if err := cli.CLI(context.Background(), data); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", program, err)
		os.Exit(1)
	}
}
