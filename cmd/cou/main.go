// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Command cou is the Charmed OpenStack Upgrader: it plans and runs
// sequenced OpenStack-cloud upgrades against a Juju-modelled cluster
// controller.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/canonical/cou/internal/cli"
)

func main() {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cou: %v\n", err)
		os.Exit(2)
	}

	ctx := &cli.Context{
		Ctx:    context.Background(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Dir:    dir,
	}

	os.Exit(cli.Main(ctx, os.Args[1:]))
}
