// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"

	"github.com/canonical/cou/internal/config"
	"github.com/canonical/cou/internal/engine"
	"github.com/canonical/cou/internal/plan"
)

// UpgradeCommand implements `cou upgrade`: builds the plan exactly as
// `cou plan` would, then runs it to completion against the real
// cloud, prompting before each application's subtree unless
// --auto-approve was given.
type UpgradeCommand struct {
	CommonFlags

	group            string
	skipApps         []string
	force            bool
	autoApprove      bool
	archiveBatchSize int
	purgeBeforeDate  string
}

// NewUpgradeCommand returns a ready-to-use UpgradeCommand.
func NewUpgradeCommand() *UpgradeCommand {
	return &UpgradeCommand{archiveBatchSize: 1000}
}

func (c *UpgradeCommand) Info() *Info {
	return &Info{
		Name:    "upgrade",
		Purpose: "upgrade a cloud to the next OpenStack release",
		Doc: "Builds the same plan `cou plan` would and runs it: control plane, " +
			"then hypervisors, then the data plane, prompting before each " +
			"application's subtree unless --auto-approve is given. The first " +
			"interrupt (Ctrl-C) finishes in-flight steps and starts no new " +
			"ones; a second abandons them immediately.",
	}
}

func (c *UpgradeCommand) SetFlags(fs *gnuflag.FlagSet) {
	c.CommonFlags.SetFlags(fs)
	fs.Var(stringsValue{&c.skipApps}, "skip-apps", "comma-separated applications to skip (repeatable)")
	fs.BoolVar(&c.force, "force", false, "bypass the VM-hosting safety check when selecting hypervisors")
	fs.BoolVar(&c.autoApprove, "auto-approve", false, "never prompt before an application's upgrade subtree")
	fs.IntVar(&c.archiveBatchSize, "archive-batch-size", 1000, "row batch size for --archive")
	fs.StringVar(&c.purgeBeforeDate, "purge-before-date", "", "only purge archived rows older than this date (YYYY-MM-DD)")
}

func (c *UpgradeCommand) Init(args []string) error {
	switch len(args) {
	case 0:
	case 1:
		c.group = args[0]
	default:
		return errTooManyArgs(args[1:])
	}
	return nil
}

func (c *UpgradeCommand) Run(ctx *Context) error {
	loggo.GetLogger("").SetLogLevel(c.LogLevel())

	cfg, err := config.FromEnviron()
	if err != nil {
		return err
	}
	skipApps, err := parseSkipApps(c.skipApps)
	if err != nil {
		return err
	}
	group, err := upgradeGroup(c.group)
	if err != nil {
		return err
	}

	facade, err := connect(c.Model)
	if err != nil {
		return err
	}

	root, warnings, err := buildPlan(ctx.Ctx, facade, cfg, plan.BuildOptions{
		Group:            group,
		Backup:           c.Backup,
		Archive:          c.Archive,
		ArchiveBatchSize: c.archiveBatchSize,
		Purge:            c.Purge,
		PurgeBeforeDate:  c.purgeBeforeDate,
		MachineFilter:    c.Machines,
		AZFilter:         c.AvailabilityZones,
	}, skipApps, c.force)
	if err != nil {
		return err
	}
	if !c.Quiet {
		WriteWarnings(ctx.Stderr, warnings)
	}

	var confirm engine.Confirmer
	if !c.autoApprove {
		confirm = NewStdinConfirmer(ctx.Stdin, ctx.Stdout)
	}

	eng := engine.New(engine.Config{
		Retries:      cfg.ModelRetries,
		RetryBackoff: cfg.ModelRetryBackoff,
		CallTimeout:  cfg.Timeout,
		AutoApprove:  c.autoApprove,
		Confirm:      confirm,
	})

	signals := engine.NewSignals(ctx.Stderr)
	done := make(chan struct{})
	defer close(done)
	go signals.Watch(eng, done)

	outcome, runErr := eng.Run(ctx.Ctx, root, signals.Soft)

	if !c.Quiet {
		_ = WritePlan(ctx.Stdout, root, c.Format)
	}

	return c.exitError(outcome, runErr)
}

func (c *UpgradeCommand) exitError(outcome engine.Outcome, err error) error {
	switch outcome {
	case engine.Succeeded:
		return nil
	case engine.CancelledSafely:
		return &ExitError{Code: 130, Err: err}
	case engine.CancelledAbruptly:
		return &ExitError{Code: 137, Err: err}
	case engine.Terminated:
		return &ExitError{Code: 130, Err: err}
	default:
		return &ExitError{Code: 2, Err: err}
	}
}

