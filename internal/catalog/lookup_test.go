// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package catalog_test

import (
	gc "gopkg.in/check.v1"

	"github.com/canonical/cou/internal/catalog"
)

type LookupSuite struct {
	catalog *catalog.Catalog
}

var _ = gc.Suite(&LookupSuite{})

func (s *LookupSuite) SetUpTest(c *gc.C) {
	cat, err := catalog.LoadDefault()
	c.Assert(err, gc.IsNil)
	s.catalog = cat
}

func (s *LookupSuite) TestReleaseOfMonotone(c *gc.C) {
	keystone, err := s.catalog.Charm("keystone")
	c.Assert(err, gc.IsNil)

	for i, test := range []struct {
		version string
		release catalog.Release
	}{
		{"17.0.1", catalog.Ussuri},
		{"17.0.1~rc1", catalog.Ussuri},
		{"18.0.0", catalog.Victoria},
		{"21.0.0", catalog.Yoga},
	} {
		c.Logf("test %d: %s", i, test.version)
		release, ok := catalog.ReleaseOf(keystone, test.version)
		c.Assert(ok, gc.Equals, true)
		c.Check(release, gc.Equals, test.release)
	}
}

func (s *LookupSuite) TestReleaseOfUnknownIsNotAnError(c *gc.C) {
	keystone, err := s.catalog.Charm("keystone")
	c.Assert(err, gc.IsNil)

	_, ok := catalog.ReleaseOf(keystone, "999.0.0")
	c.Check(ok, gc.Equals, false)
}

func (s *LookupSuite) TestUnknownCharmIsAnError(c *gc.C) {
	_, err := s.catalog.Charm("definitely-not-a-charm")
	c.Check(err, gc.ErrorMatches, `charm "definitely-not-a-charm" in release catalog not found`)
}

func (s *LookupSuite) TestTargetChannelOpenStackPrincipal(c *gc.C) {
	keystone, err := s.catalog.Charm("keystone")
	c.Assert(err, gc.IsNil)
	track, risk, err := s.catalog.TargetChannel(keystone, "focal", catalog.Victoria)
	c.Assert(err, gc.IsNil)
	c.Check(track, gc.Equals, "victoria")
	c.Check(risk, gc.Equals, "stable")
}

func (s *LookupSuite) TestTargetChannelAuxiliary(c *gc.C) {
	rabbit, err := s.catalog.Charm("rabbitmq-server")
	c.Assert(err, gc.IsNil)
	track, _, err := s.catalog.TargetChannel(rabbit, "focal", catalog.Victoria)
	c.Assert(err, gc.IsNil)
	c.Check(track, gc.Equals, "3.8")
}

func (s *LookupSuite) TestCephReleaseOf(c *gc.C) {
	release, ok := s.catalog.CephReleaseOf("ceph-osd", "15.2.0")
	c.Assert(ok, gc.Equals, true)
	c.Check(release, gc.Equals, catalog.Ussuri)
}

func (s *LookupSuite) TestClassify(c *gc.C) {
	cat, err := s.catalog.Classify("nova-compute")
	c.Assert(err, gc.IsNil)
	c.Check(cat, gc.Equals, catalog.DataPlaneHypervisor)
}
