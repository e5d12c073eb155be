// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/canonical/cou/internal/plan"
)

// renderNode is the tree shape the yaml/json formatters emit — a
// stable, serializable view of *plan.Step rather than the Step itself,
// which carries an Action func and run-time fields no formatter should see.
type renderNode struct {
	Description string       `json:"description" yaml:"description"`
	State       string       `json:"state,omitempty" yaml:"state,omitempty"`
	Parallel    bool         `json:"parallel,omitempty" yaml:"parallel,omitempty"`
	Children    []renderNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func toRenderNode(s *plan.Step) renderNode {
	n := renderNode{Description: s.Description, Parallel: s.Parallel}
	if s.State != plan.Pending {
		n.State = s.State.String()
	}
	for _, child := range s.Children {
		n.Children = append(n.Children, toRenderNode(child))
	}
	return n
}

// formatters mirrors the DefaultFormatters pattern: one function per
// --format value, selected by name and falling through to an error for
// anything else.
var formatters = map[string]func(io.Writer, *plan.Step) error{
	"tree": writeTree,
	"yaml": writeYAML,
	"json": writeJSON,
}

// WritePlan renders root to out in the named format.
func WritePlan(out io.Writer, root *plan.Step, format string) error {
	f, ok := formatters[format]
	if !ok {
		return errors.NotValidf("format %q (want tree, yaml, or json)", format)
	}
	return f(out, root)
}

func writeYAML(out io.Writer, root *plan.Step) error {
	b, err := yaml.Marshal(toRenderNode(root))
	if err != nil {
		return errors.Trace(err)
	}
	_, err = out.Write(b)
	return err
}

func writeJSON(out io.Writer, root *plan.Step) error {
	b, err := json.MarshalIndent(toRenderNode(root), "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	_, err = out.Write(append(b, '\n'))
	return err
}

func writeTree(out io.Writer, root *plan.Step) error {
	writeTreeNode(out, root, "")
	return nil
}

func writeTreeNode(out io.Writer, s *plan.Step, indent string) {
	line := s.Description
	if s.State != plan.Pending {
		line = fmt.Sprintf("%s [%s]", line, s.State)
	}
	fmt.Fprintln(out, indent+"- "+line)
	childIndent := indent + "  "
	for _, child := range s.Children {
		writeTreeNode(out, child, childIndent)
	}
}

// WriteWarnings prints one line per analysis warning, kept visually
// distinct from plan steps so it isn't mistaken for a failure.
func WriteWarnings(out io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(out, "warnings:")
	for _, w := range warnings {
		fmt.Fprintln(out, "  - "+strings.TrimSpace(w))
	}
}
