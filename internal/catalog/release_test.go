// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package catalog_test

import (
	stdtesting "testing"

	gc "gopkg.in/check.v1"

	"github.com/canonical/cou/internal/catalog"
)

func TestPackage(t *stdtesting.T) { gc.TestingT(t) }

type ReleaseSuite struct{}

var _ = gc.Suite(&ReleaseSuite{})

func (*ReleaseSuite) TestOrdering(c *gc.C) {
	c.Check(catalog.Ussuri.Less(catalog.Victoria), gc.Equals, true)
	c.Check(catalog.Caracal.Less(catalog.Ussuri), gc.Equals, false)
	c.Check(catalog.Ussuri.Compare(catalog.Ussuri), gc.Equals, 0)
}

func (*ReleaseSuite) TestNextPrevious(c *gc.C) {
	next, ok := catalog.Next(catalog.Ussuri)
	c.Assert(ok, gc.Equals, true)
	c.Check(next, gc.Equals, catalog.Victoria)

	_, ok = catalog.Next(catalog.Caracal)
	c.Check(ok, gc.Equals, false)

	prev, ok := catalog.Previous(catalog.Victoria)
	c.Assert(ok, gc.Equals, true)
	c.Check(prev, gc.Equals, catalog.Ussuri)
}

func (*ReleaseSuite) TestSupportedUpgrade(c *gc.C) {
	for i, test := range []struct {
		current, target catalog.Release
		supported        bool
	}{
		{catalog.Ussuri, catalog.Victoria, true},
		{catalog.Yoga, catalog.Zed, true},
		{catalog.Ussuri, catalog.Wallaby, false}, // not adjacent
		{catalog.Caracal, catalog.Ussuri, false}, // wrong direction
	} {
		c.Logf("test %d: %s -> %s", i, test.current, test.target)
		c.Check(catalog.SupportedUpgrade(test.current, test.target), gc.Equals, test.supported)
	}
}
