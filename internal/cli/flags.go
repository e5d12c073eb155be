// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
)

// CommonFlags is embedded by both subcommands: the verbosity/quiet
// flags every invocation accepts, plus the ones needed to reach a
// controller and scope the database maintenance steps.
type CommonFlags struct {
	Model  string
	Format string

	Quiet            bool
	V, VV, VVV, VVVV bool // -v, -vv, -vvv, -vvvv: increasing verbosity

	Backup  bool
	Archive bool
	Purge   bool

	Machines          []string
	AvailabilityZones []string
}

// SetFlags registers the flags common to plan and upgrade. Embedding
// commands call this from their own SetFlags before adding anything
// specific to themselves.
func (f *CommonFlags) SetFlags(fs *gnuflag.FlagSet) {
	fs.StringVar(&f.Model, "model", "", "model to upgrade (defaults to the current model)")
	fs.StringVar(&f.Model, "m", "", "")
	fs.StringVar(&f.Format, "format", "tree", "output format: tree, yaml, or json")

	fs.BoolVar(&f.Quiet, "quiet", false, "suppress all output but the final result")
	fs.BoolVar(&f.Quiet, "q", false, "")

	fs.BoolVar(&f.V, "v", false, "show info-level output")
	fs.BoolVar(&f.VV, "vv", false, "show debug-level output")
	fs.BoolVar(&f.VVV, "vvv", false, "show trace-level output")
	fs.BoolVar(&f.VVVV, "vvvv", false, "show trace-level output, including controller calls")

	fs.BoolVar(&f.Backup, "backup", true, "take a database backup before upgrading")
	fs.BoolVar(&f.Archive, "archive", false, "archive deleted database rows before upgrading")
	fs.BoolVar(&f.Purge, "purge", false, "purge previously archived rows before upgrading")

	fs.Var(stringsValue{&f.Machines}, "machine", "restrict the hypervisors group to these machines (repeatable, mutually exclusive with --availability-zone)")
	fs.Var(stringsValue{&f.AvailabilityZones}, "availability-zone", "restrict the hypervisors group to these zones (repeatable, mutually exclusive with --machine)")
}

// LogLevel maps the -v..-vvvv/--quiet convention to a loggo level, the
// way the SuperCommand's Log type does.
func (f *CommonFlags) LogLevel() loggo.Level {
	switch {
	case f.Quiet:
		return loggo.CRITICAL
	case f.VVV || f.VVVV:
		return loggo.TRACE
	case f.VV:
		return loggo.DEBUG
	case f.V:
		return loggo.INFO
	default:
		return loggo.WARNING
	}
}
