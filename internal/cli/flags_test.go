// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli_test

import (
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
	gc "gopkg.in/check.v1"

	"github.com/canonical/cou/internal/cli"
)

type FlagsSuite struct{}

var _ = gc.Suite(&FlagsSuite{})

func (s *FlagsSuite) parse(c *gc.C, f *cli.CommonFlags, args []string) {
	fs := gnuflag.NewFlagSet("test", gnuflag.ContinueOnError)
	f.SetFlags(fs)
	c.Assert(fs.Parse(true, args), gc.IsNil)
}

func (s *FlagsSuite) TestDefaults(c *gc.C) {
	f := &cli.CommonFlags{}
	s.parse(c, f, nil)
	c.Check(f.Format, gc.Equals, "tree")
	c.Check(f.Backup, gc.Equals, true)
	c.Check(f.Archive, gc.Equals, false)
	c.Check(f.Purge, gc.Equals, false)
	c.Check(f.LogLevel(), gc.Equals, loggo.WARNING)
}

func (s *FlagsSuite) TestModelShortAndLongFlagsShareAField(c *gc.C) {
	f := &cli.CommonFlags{}
	s.parse(c, f, []string{"-m", "mymodel"})
	c.Check(f.Model, gc.Equals, "mymodel")
}

func (s *FlagsSuite) TestMachineFlagIsRepeatableAndCommaSeparated(c *gc.C) {
	f := &cli.CommonFlags{}
	s.parse(c, f, []string{"--machine", "0,1", "--machine", "2"})
	c.Check(f.Machines, gc.DeepEquals, []string{"0", "1", "2"})
}

func (s *FlagsSuite) TestAvailabilityZoneFlag(c *gc.C) {
	f := &cli.CommonFlags{}
	s.parse(c, f, []string{"--availability-zone", "zone1,zone2"})
	c.Check(f.AvailabilityZones, gc.DeepEquals, []string{"zone1", "zone2"})
}

func (s *FlagsSuite) TestQuietForcesCriticalRegardlessOfVerbosity(c *gc.C) {
	f := &cli.CommonFlags{}
	s.parse(c, f, []string{"-q", "-vvvv"})
	c.Check(f.LogLevel(), gc.Equals, loggo.CRITICAL)
}

func (s *FlagsSuite) TestVerbosityLevels(c *gc.C) {
	cases := []struct {
		args  []string
		level loggo.Level
	}{
		{[]string{"-v"}, loggo.INFO},
		{[]string{"-vv"}, loggo.DEBUG},
		{[]string{"-vvv"}, loggo.TRACE},
		{[]string{"-vvvv"}, loggo.TRACE},
	}
	for _, tc := range cases {
		f := &cli.CommonFlags{}
		s.parse(c, f, tc.args)
		c.Check(f.LogLevel(), gc.Equals, tc.level, gc.Commentf("args %v", tc.args))
	}
}

func (s *FlagsSuite) TestBackupCanBeDisabled(c *gc.C) {
	f := &cli.CommonFlags{}
	s.parse(c, f, []string{"--backup=false"})
	c.Check(f.Backup, gc.Equals, false)
}
