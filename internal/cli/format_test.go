// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli_test

import (
	"bytes"
	"context"

	gc "gopkg.in/check.v1"

	"github.com/canonical/cou/internal/cli"
	"github.com/canonical/cou/internal/plan"
)

type FormatSuite struct{}

var _ = gc.Suite(&FormatSuite{})

func samplePlan() *plan.Step {
	root := plan.Group("upgrade cloud from ussuri to victoria",
		plan.Group("control-plane principal(s) upgrade plan",
			plan.Leaf("upgrade plan for keystone to victoria", func(context.Context) error { return nil }),
		),
	)
	root.Children[0].Children[0].State = plan.Done
	return root
}

func (s *FormatSuite) TestWritePlanRejectsUnknownFormat(c *gc.C) {
	var out bytes.Buffer
	err := cli.WritePlan(&out, samplePlan(), "xml")
	c.Assert(err, gc.ErrorMatches, `format "xml".*`)
}

func (s *FormatSuite) TestWritePlanTree(c *gc.C) {
	var out bytes.Buffer
	err := cli.WritePlan(&out, samplePlan(), "tree")
	c.Assert(err, gc.IsNil)
	c.Check(out.String(), gc.Equals, ""+
		"- upgrade cloud from ussuri to victoria\n"+
		"  - control-plane principal(s) upgrade plan\n"+
		"    - upgrade plan for keystone to victoria [done]\n")
}

func (s *FormatSuite) TestWritePlanJSON(c *gc.C) {
	var out bytes.Buffer
	err := cli.WritePlan(&out, samplePlan(), "json")
	c.Assert(err, gc.IsNil)
	c.Check(out.String(), gc.Matches, `(?s).*"description":\s*"upgrade cloud from ussuri to victoria".*`)
	c.Check(out.String(), gc.Matches, `(?s).*"state":\s*"done".*`)
}

func (s *FormatSuite) TestWritePlanYAML(c *gc.C) {
	var out bytes.Buffer
	err := cli.WritePlan(&out, samplePlan(), "yaml")
	c.Assert(err, gc.IsNil)
	c.Check(out.String(), gc.Matches, `(?s).*description: upgrade cloud from ussuri to victoria.*`)
	c.Check(out.String(), gc.Matches, `(?s).*state: done.*`)
}

func (s *FormatSuite) TestWriteWarningsEmptyPrintsNothing(c *gc.C) {
	var out bytes.Buffer
	cli.WriteWarnings(&out, nil)
	c.Check(out.String(), gc.Equals, "")
}

func (s *FormatSuite) TestWriteWarnings(c *gc.C) {
	var out bytes.Buffer
	cli.WriteWarnings(&out, []string{"keystone: workload version unknown"})
	c.Check(out.String(), gc.Equals, "warnings:\n  - keystone: workload version unknown\n")
}
