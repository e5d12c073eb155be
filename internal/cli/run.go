// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"context"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/analyzer"
	"github.com/canonical/cou/internal/catalog"
	"github.com/canonical/cou/internal/config"
	"github.com/canonical/cou/internal/controller"
	"github.com/canonical/cou/internal/plan"
	"github.com/canonical/cou/internal/strategy"
	"github.com/canonical/cou/internal/topology"
)

// buildPlan is the orchestration both `cou plan` and `cou upgrade` run
// before diverging: load the catalog, fetch one status snapshot,
// validate it into a Topology, analyze it into a Cloud, and assemble
// the Step tree for opts.
//
// facade is nil-checked by neither this function nor anything it calls
// — internal/controller/juju's facade stands in until a real one is
// wired, per the controller façade's documented scope.
func buildPlan(ctx context.Context, facade controller.Facade, cfg config.Config, opts plan.BuildOptions, skipApps map[string]bool, force bool) (*plan.Step, []string, error) {
	cat, err := catalog.LoadDefault()
	if err != nil {
		return nil, nil, errors.Annotate(err, "loading release catalog")
	}

	raw, err := facade.Status(ctx)
	if err != nil {
		return nil, nil, errors.Annotate(err, "fetching cloud status")
	}
	topo, err := topology.Build(raw)
	if err != nil {
		return nil, nil, errors.Annotate(err, "validating cloud status")
	}

	cloud, analysisWarnings, err := analyzer.Analyze(topo, cat, analyzer.Options{SkipApps: skipApps})
	if err != nil {
		return nil, nil, errors.Annotate(err, "analyzing cloud status")
	}
	var warnings []string
	for _, w := range analysisWarnings {
		warnings = append(warnings, w.Application+": "+w.Message)
	}

	stratOpts := strategy.Options{
		Catalog:             cat,
		Facade:              facade,
		Topology:            topo,
		Series:              cloud.Series,
		Target:              cloud.TargetRelease,
		StandardIdleTimeout: cfg.StandardIdleTimeout,
		LongIdleTimeout:     cfg.LongIdleTimeout,
		Force:               force,
		SkipApps:            skipApps,
	}
	build := func(app *topology.Application, d catalog.Descriptor) (*plan.Step, error) {
		s := strategy.Select(d.Category, app.Charm, stratOpts)
		return s(app, d, stratOpts)
	}

	opts.SkipApps = skipApps
	opts.Force = force
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = cfg.StandardIdleTimeout
	}

	root, buildWarnings, err := plan.BuildPlan(cloud, cat, facade, build, opts)
	if err != nil {
		return nil, nil, errors.Annotate(err, "assembling upgrade plan")
	}
	return root, append(warnings, buildWarnings...), nil
}

// parseSkipApps restricts names to catalog.SkipAllowList, rejecting
// anything else rather than silently ignoring a typo'd application
// name on the command line.
func parseSkipApps(names []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, name := range names {
		if !catalog.SkipAllowList[name] {
			return nil, errors.NotValidf("--skip-apps %q (not in the allowed skip list)", name)
		}
		out[name] = true
	}
	return out, nil
}

// upgradeGroup maps the trailing positional argument
// (control-plane/data-plane/hypervisors, or none for the whole cloud)
// to plan.UpgradeGroup.
func upgradeGroup(name string) (plan.UpgradeGroup, error) {
	switch name {
	case "":
		return plan.Whole, nil
	case "control-plane":
		return plan.ControlPlane, nil
	case "data-plane":
		return plan.DataPlane, nil
	case "hypervisors":
		return plan.Hypervisors, nil
	default:
		return 0, errors.NotValidf("upgrade group %q (want control-plane, data-plane, or hypervisors)", name)
	}
}

