// Package cliapp implements the stako command line: parse flags, validate
// the exact "single source path, no required flags" contract, and dispatch
// to the compile-and-run pipeline. Its shape — a Cmd struct with `flag:`
// tags, SetArgs/SetFlags/Validate satisfying mainer.Cmd, a Main that builds a
// mainer.Parser and switches on Help/Version before dispatching — is
// grounded on the teacher's internal/maincmd.Cmd, trimmed down from its
// multi-subcommand (parse/resolve/tokenize) dispatch to a single default
// pipeline plus an internal --dump developer flag and a --config file flag.
package cliapp

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/nilfoo/stako/internal/config"
)

const binName = "stako"

var (
	shortUsage = fmt.Sprintf("usage: %s [--dump=tokens|ast|resolved] <path>\n", binName)

	longUsage = fmt.Sprintf(`usage: %s [--dump=tokens|ast|resolved] <path>
       %[1]s -h|--help
       %[1]s -v|--version

Compiles and runs the stako program at <path>.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --dump=tokens|ast|resolved
                                 Print an intermediate pipeline stage instead
                                 of running the program, for inspecting the
                                 lexer, parser or resolver in isolation.
       --config=<path>           Load VM limits from a YAML file (also read
                                 from $STAKO_CONFIG, overridden by STAKO_*
                                 environment variables).
`, binName)
)

// Cmd is the top-level CLI command. It satisfies mainer's Cmd interface.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Dump       string `flag:"dump"`
	ConfigPath string `flag:"config"`

	args []string
}

func (c *Cmd) SetArgs(args []string)        { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

// Validate enforces the CLI's exact contract: with no --help/--version, args
// must be exactly one positional path, and --dump, if given, must name a
// known pipeline stage.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) != 1 {
		return fmt.Errorf("expected exactly one <path> argument, got %d", len(c.args))
	}
	switch c.Dump {
	case "", "tokens", "ast", "resolved":
	default:
		return fmt.Errorf("invalid --dump value %q: want tokens, ast or resolved", c.Dump)
	}
	return nil
}

// Main parses args, handles --help/--version, and otherwise runs the named
// source file, returning the process exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return mainer.Failure
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.run(ctx, stdio, cfg, c.args[0]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}
