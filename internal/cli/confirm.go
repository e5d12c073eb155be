// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/canonical/cou/internal/engine"
)

// stdinConfirmer implements engine.Confirmer by prompting the operator
// on out and reading a yes/no answer from in. Anything other than a
// case-insensitive "y"/"yes" is treated as a decline.
type stdinConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdinConfirmer returns an engine.Confirmer backed by in/out,
// intended for ctx.Stdin/ctx.Stdout in interactive mode.
func NewStdinConfirmer(in io.Reader, out io.Writer) engine.Confirmer {
	return &stdinConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *stdinConfirmer) Confirm(description string) (bool, error) {
	fmt.Fprintf(c.out, "\n%s\nContinue? [y/N]: ", description)
	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
