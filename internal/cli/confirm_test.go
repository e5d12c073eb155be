// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli_test

import (
	"bytes"
	"strings"

	gc "gopkg.in/check.v1"

	"github.com/canonical/cou/internal/cli"
)

type ConfirmSuite struct{}

var _ = gc.Suite(&ConfirmSuite{})

func (s *ConfirmSuite) confirm(c *gc.C, answer string) (bool, string) {
	var out bytes.Buffer
	confirmer := cli.NewStdinConfirmer(strings.NewReader(answer), &out)
	ok, err := confirmer.Confirm("upgrade plan for keystone to victoria")
	c.Assert(err, gc.IsNil)
	return ok, out.String()
}

func (s *ConfirmSuite) TestYPlainAcceptsCaseInsensitively(c *gc.C) {
	for _, answer := range []string{"y\n", "Y\n", "yes\n", "YES\n", " y \n"} {
		ok, _ := s.confirm(c, answer)
		c.Check(ok, gc.Equals, true, gc.Commentf("answer %q", answer))
	}
}

func (s *ConfirmSuite) TestAnythingElseDeclines(c *gc.C) {
	for _, answer := range []string{"n\n", "no\n", "\n", "maybe\n", "yesplease\n"} {
		ok, _ := s.confirm(c, answer)
		c.Check(ok, gc.Equals, false, gc.Commentf("answer %q", answer))
	}
}

func (s *ConfirmSuite) TestEOFWithNoAnswerDeclinesRatherThanErrors(c *gc.C) {
	ok, _ := s.confirm(c, "")
	c.Check(ok, gc.Equals, false)
}

func (s *ConfirmSuite) TestPromptIncludesDescription(c *gc.C) {
	_, prompt := s.confirm(c, "y\n")
	c.Check(prompt, gc.Matches, "(?s).*upgrade plan for keystone to victoria.*")
}
