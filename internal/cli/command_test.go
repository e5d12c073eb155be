// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli_test

import (
	stdtesting "testing"

	"github.com/juju/errors"
	gc "gopkg.in/check.v1"

	"github.com/canonical/cou/internal/cli"
)

func TestPackage(t *stdtesting.T) { gc.TestingT(t) }

type CommandSuite struct{}

var _ = gc.Suite(&CommandSuite{})

func (s *CommandSuite) TestExitErrorMessageFromWrappedErr(c *gc.C) {
	err := &cli.ExitError{Code: 130, Err: errors.New("cancelled")}
	c.Check(err.Error(), gc.Equals, "cancelled")
}

func (s *CommandSuite) TestExitErrorMessageWithNilErr(c *gc.C) {
	err := &cli.ExitError{Code: 2}
	c.Check(err.Error(), gc.Equals, "")
}

func (s *CommandSuite) TestExitErrorUnwrap(c *gc.C) {
	cause := errors.New("boom")
	err := &cli.ExitError{Code: 1, Err: cause}
	c.Check(err.Unwrap(), gc.Equals, cause)
}
