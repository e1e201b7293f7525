// Package cli handles command line parsing for the fieldctl demo binary.
// It's the first entry point after main, mirroring the teacher's own
// cli.CLI(ctx, data) shape (github.com/alexflint/go-arg parsing a single
// top-level Args struct, with a version/help short-circuit before
// dispatching to the chosen subcommand's Main).
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
)

// Args is the top-level CLI structure.
type Args struct {
	Run *RunArgs `arg:"subcommand:run" help:"tick a scheduler against a config file"`
}

// Data carries the values the caller's main() knows that argv doesn't:
// program name and version, set at compile time or by the caller.
type Data struct {
	Program string
	Version string
	Args    []string
}

// CLI parses data.Args and dispatches to the selected subcommand. It
// returns nil on a clean --help/--version exit, matching the teacher's
// convention of treating those as non-errors.
func CLI(ctx context.Context, data *Data) error {
	if data == nil || data.Program == "" {
		return fmt.Errorf("cli: this program was not run correctly")
	}

	args := &Args{}
	config := arg.Config{Program: data.Program}
	parser, err := arg.NewParser(config, args)
	if err != nil {
		return fmt.Errorf("cli: config error: %w", err)
	}
	if err := parser.Parse(data.Args); err != nil {
		if err == arg.ErrHelp {
			parser.WriteHelp(os.Stdout)
			return nil
		}
		if err == arg.ErrVersion {
			fmt.Printf("%s\n", data.Version)
			return nil
		}
		parser.WriteUsage(os.Stderr)
		return fmt.Errorf("cli: %w", err)
	}

	switch {
	case args.Run != nil:
		return args.Run.Main(ctx)
	default:
		parser.WriteHelp(os.Stdout)
		return nil
	}
}
