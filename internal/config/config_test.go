// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package config_test

import (
	stdtesting "testing"
	"time"

	jujutesting "github.com/juju/testing"
	gc "gopkg.in/check.v1"

	"github.com/canonical/cou/internal/config"
)

func TestPackage(t *stdtesting.T) { gc.TestingT(t) }

type ConfigSuite struct {
	jujutesting.IsolationSuite
}

var _ = gc.Suite(&ConfigSuite{})

func (s *ConfigSuite) TestDefaultsWhenNothingSet(c *gc.C) {
	cfg, err := config.FromEnviron()
	c.Assert(err, gc.IsNil)
	c.Check(cfg, gc.Equals, config.Default)
}

func (s *ConfigSuite) TestOverridesFromEnvironment(c *gc.C) {
	s.PatchEnvironment("COU_TIMEOUT", "30s")
	s.PatchEnvironment("COU_MODEL_RETRIES", "9")
	s.PatchEnvironment("COU_MODEL_RETRY_BACKOFF", "500ms")
	s.PatchEnvironment("COU_STANDARD_IDLE_TIMEOUT", "1m")
	s.PatchEnvironment("COU_LONG_IDLE_TIMEOUT", "1h")

	cfg, err := config.FromEnviron()
	c.Assert(err, gc.IsNil)
	c.Check(cfg.Timeout, gc.Equals, 30*time.Second)
	c.Check(cfg.ModelRetries, gc.Equals, 9)
	c.Check(cfg.ModelRetryBackoff, gc.Equals, 500*time.Millisecond)
	c.Check(cfg.StandardIdleTimeout, gc.Equals, time.Minute)
	c.Check(cfg.LongIdleTimeout, gc.Equals, time.Hour)
}

func (s *ConfigSuite) TestUnparsableDurationIsAnError(c *gc.C) {
	s.PatchEnvironment("COU_TIMEOUT", "not-a-duration")

	_, err := config.FromEnviron()
	c.Assert(err, gc.ErrorMatches, `parsing COU_TIMEOUT="not-a-duration" as a duration: .*`)
}

func (s *ConfigSuite) TestUnparsableIntIsAnError(c *gc.C) {
	s.PatchEnvironment("COU_MODEL_RETRIES", "five")

	_, err := config.FromEnviron()
	c.Assert(err, gc.ErrorMatches, `parsing COU_MODEL_RETRIES="five" as an integer: .*`)
}

func (s *ConfigSuite) TestNonPositiveValueIsAnError(c *gc.C) {
	s.PatchEnvironment("COU_MODEL_RETRIES", "0")

	_, err := config.FromEnviron()
	c.Assert(err, gc.ErrorMatches, `COU_MODEL_RETRIES="0": must be positive`)
}

func (s *ConfigSuite) TestIdleTimeoutForSelectsByLongIdleFlag(c *gc.C) {
	c.Check(config.Default.IdleTimeoutFor(false), gc.Equals, config.Default.StandardIdleTimeout)
	c.Check(config.Default.IdleTimeoutFor(true), gc.Equals, config.Default.LongIdleTimeout)
}
