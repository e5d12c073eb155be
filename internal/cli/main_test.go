// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli_test

import (
	"bytes"
	"strings"

	gc "gopkg.in/check.v1"

	"github.com/canonical/cou/internal/cli"
)

type MainSuite struct{}

var _ = gc.Suite(&MainSuite{})

func (s *MainSuite) newContext() (*cli.Context, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &cli.Context{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func (s *MainSuite) TestNoArgsIsUsageError(c *gc.C) {
	ctx, _, stderr := s.newContext()
	code := cli.Main(ctx, nil)
	c.Check(code, gc.Equals, 1)
	c.Check(stderr.String(), gc.Matches, "usage:.*\n")
}

func (s *MainSuite) TestUnrecognizedCommandIsUsageError(c *gc.C) {
	ctx, _, stderr := s.newContext()
	code := cli.Main(ctx, []string{"frobnicate"})
	c.Check(code, gc.Equals, 1)
	c.Check(stderr.String(), gc.Matches, "cou: unrecognized command: frobnicate\n")
}

func (s *MainSuite) TestUnrecognizedFlagIsUsageError(c *gc.C) {
	ctx, _, stderr := s.newContext()
	code := cli.Main(ctx, []string{"plan", "--no-such-flag"})
	c.Check(code, gc.Equals, 1)
	c.Check(stderr.String(), gc.Not(gc.Equals), "")
}

func (s *MainSuite) TestTooManyPositionalArgsIsUsageError(c *gc.C) {
	ctx, _, stderr := s.newContext()
	code := cli.Main(ctx, []string{"plan", "control-plane", "extra"})
	c.Check(code, gc.Equals, 1)
	c.Check(stderr.String(), gc.Matches, `(?s)cou plan: unrecognized arguments: extra\n`)
}

func (s *MainSuite) TestUnknownUpgradeGroupIsAnError(c *gc.C) {
	ctx, _, stderr := s.newContext()
	// Init succeeds (one positional arg is allowed); the unknown group
	// is only caught inside Run, surfacing as exit code 1.
	code := cli.Main(ctx, []string{"plan", "not-a-group"})
	c.Check(code, gc.Equals, 1)
	c.Check(stderr.String(), gc.Matches, `(?s)cou plan: upgrade group "not-a-group".*\n`)
}

func (s *MainSuite) TestSkipAppsOutsideAllowListIsAnError(c *gc.C) {
	ctx, _, stderr := s.newContext()
	// Checked before connecting to a controller, so this never needs a
	// real juju environment to exercise.
	code := cli.Main(ctx, []string{"plan", "--skip-apps", "nova-compute"})
	c.Check(code, gc.Equals, 1)
	c.Check(stderr.String(), gc.Matches, `(?s)cou plan: --skip-apps "nova-compute".*\n`)
}

func (s *MainSuite) TestSkipAppsAllowsVault(c *gc.C) {
	ctx, _, stderr := s.newContext()
	// vault is in catalog.SkipAllowList, so parseSkipApps succeeds and
	// the run proceeds to connect() — which fails in this sandboxed
	// test environment with no juju controller configured, but that
	// failure proves --skip-apps itself was accepted.
	code := cli.Main(ctx, []string{"plan", "--skip-apps", "vault"})
	c.Check(code, gc.Equals, 1)
	c.Check(stderr.String(), gc.Not(gc.Matches), `(?s).*skip-apps.*`)
}
