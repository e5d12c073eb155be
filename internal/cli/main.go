// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"fmt"

	"github.com/juju/gnuflag"
)

// commands is the fixed registry `cou`'s two subcommands live in —
// juju's own SuperCommand.Register grown to its full generality isn't
// needed for two entries.
func commands() map[string]func() Command {
	return map[string]func() Command{
		"plan":    func() Command { return NewPlanCommand() },
		"upgrade": func() Command { return NewUpgradeCommand() },
	}
}

// Main resolves args[0] to a registered Command, parses its flags from
// the remaining arguments, runs it, and returns the process exit code:
// 0 on success, 1 on a usage/configuration/plain error, or whatever
// Code an *ExitError carries.
func Main(ctx *Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(ctx.Stderr, "usage: cou <plan|upgrade> [options]")
		return 1
	}

	factory, ok := commands()[args[0]]
	if !ok {
		fmt.Fprintf(ctx.Stderr, "cou: unrecognized command: %s\n", args[0])
		return 1
	}
	command := factory()

	fs := gnuflag.NewFlagSet(command.Info().Name, gnuflag.ContinueOnError)
	command.SetFlags(fs)
	if err := fs.Parse(true, args[1:]); err != nil {
		fmt.Fprintf(ctx.Stderr, "cou %s: %v\n", args[0], err)
		return 1
	}
	if err := command.Init(fs.Args()); err != nil {
		fmt.Fprintf(ctx.Stderr, "cou %s: %v\n", args[0], err)
		return 1
	}

	err := command.Run(ctx)
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*ExitError); ok {
		if exitErr.Err != nil {
			fmt.Fprintf(ctx.Stderr, "cou %s: %v\n", args[0], exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintf(ctx.Stderr, "cou %s: %v\n", args[0], err)
	return 1
}
