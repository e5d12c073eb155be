// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cli is the command layer: a Command/Context/Info shape
// modeled on internal/cmd's SuperCommand, sized for cou's two
// subcommands (plan, upgrade) instead of juju's forty, plus the
// orchestration that wires internal/catalog through internal/engine
// for one invocation.
package cli

import (
	"context"
	"io"

	"github.com/juju/gnuflag"
)

// Info documents a Command the way SuperCommand's help topic rendering
// expects: a name, a one-line purpose, and a longer doc string. cou has
// no help subcommand; Main does not print Doc.
type Info struct {
	Name    string
	Purpose string
	Doc     string
}

// Context carries everything a Command's Run needs beyond its own
// parsed flags: the standard streams and the directory it was invoked
// from. main constructs the real one from os.Stdin/Stdout/Stderr; tests
// construct one over bytes.Buffers.
type Context struct {
	Ctx context.Context

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Dir    string
}

// Command is the minimal surface `cou plan`/`cou upgrade` implement, and
// the seam a future `cou <other-subcommand>` would plug into the same
// way.
type Command interface {
	Info() *Info
	SetFlags(*gnuflag.FlagSet)
	Init(args []string) error
	Run(ctx *Context) error
}

// ExitError lets a Command's Run choose its own process exit code —
// engine.Outcome's cancelled-safely/cancelled-abruptly distinction
// (130/137) has no other way to reach Main, since a plain error only
// ever means "something went wrong."
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
