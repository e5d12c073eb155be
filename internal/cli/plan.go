// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"

	"github.com/canonical/cou/internal/config"
	"github.com/canonical/cou/internal/plan"
)

// PlanCommand implements `cou plan`: builds and prints the upgrade
// plan for the current (or named) model without running any of it.
type PlanCommand struct {
	CommonFlags

	group            string
	skipApps         []string
	force            bool
	archiveBatchSize int
	purgeBeforeDate  string
}

// NewPlanCommand returns a ready-to-use PlanCommand.
func NewPlanCommand() *PlanCommand {
	return &PlanCommand{archiveBatchSize: 1000}
}

func (c *PlanCommand) Info() *Info {
	return &Info{
		Name:    "plan",
		Purpose: "show the upgrade plan for a cloud without running it",
		Doc: "Fetches the current cloud status, analyzes it against the release " +
			"catalog, and prints the resulting step tree. Takes an optional " +
			"trailing group argument (control-plane, data-plane, hypervisors) " +
			"to scope the plan to one part of the cloud.",
	}
}

func (c *PlanCommand) SetFlags(fs *gnuflag.FlagSet) {
	c.CommonFlags.SetFlags(fs)
	fs.Var(stringsValue{&c.skipApps}, "skip-apps", "comma-separated applications to skip (repeatable)")
	fs.BoolVar(&c.force, "force", false, "bypass the VM-hosting safety check when selecting hypervisors")
	fs.IntVar(&c.archiveBatchSize, "archive-batch-size", 1000, "row batch size for --archive")
	fs.StringVar(&c.purgeBeforeDate, "purge-before-date", "", "only purge archived rows older than this date (YYYY-MM-DD)")
}

func (c *PlanCommand) Init(args []string) error {
	switch len(args) {
	case 0:
	case 1:
		c.group = args[0]
	default:
		return errTooManyArgs(args[1:])
	}
	return nil
}

func (c *PlanCommand) Run(ctx *Context) error {
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
	return WritePlan(ctx.Stdout, root, c.Format)
}
