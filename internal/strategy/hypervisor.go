// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package strategy

import (
	"context"
	"fmt"
	"sort"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/catalog"
	"github.com/canonical/cou/internal/plan"
	"github.com/canonical/cou/internal/topology"
)

// Hypervisor builds the upgrade plan for a hypervisor-hosting principal
// (nova-compute, and any colocated application sharing its machines):
// the same lead-in as Principal through the channel switch, then a
// per-unit pause/upgrade/resume subtree grouped by availability zone —
// zones run one after another, and within one zone every unit's
// subtree runs in parallel — before the trailing origin change,
// model-wide wait, and workload verification.
func Hypervisor(app *topology.Application, d catalog.Descriptor, opts Options) (*plan.Step, error) {
	group := plan.Group(fmt.Sprintf("upgrade plan for %s to %s", app.Name, opts.Target))
	group.Children = append(group.Children,
		disableActionManagedUpgrade(app, opts),
		upgradePackages(app, opts),
		refreshCharm(app, opts),
		waitForIdle(app, d, opts),
	)

	switchStep, err := switchChannel(app, d, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	group.Children = append(group.Children, switchStep)

	group.Children = append(group.Children, pauseAndUpgradeByZone(app, opts))

	if originStep := changeOrigin(app, opts); originStep != nil {
		group.Children = append(group.Children, originStep)
	}
	group.Children = append(group.Children,
		waitForModelIdle(opts),
		verifyWorkloadUpgraded(app, d, opts),
	)
	return group, nil
}

// pauseAndUpgradeByZone groups app's per-unit pause subtrees by
// availability zone: the zones themselves run sequentially (so at most
// one zone is ever mid-upgrade), and within one zone every unit's
// subtree runs in parallel.
func pauseAndUpgradeByZone(app *topology.Application, opts Options) *plan.Step {
	byZone := map[string][]string{}
	for unitName, u := range app.Units {
		az := ""
		if opts.Topology != nil {
			if m, ok := opts.Topology.Machines[u.MachineID]; ok {
				az = m.AvailabilityZone
			}
		}
		byZone[az] = append(byZone[az], unitName)
	}

	zones := make([]string, 0, len(byZone))
	for z := range byZone {
		zones = append(zones, z)
	}
	sort.Strings(zones)

	outer := plan.Group(fmt.Sprintf("pause and upgrade %s hypervisors by availability zone", app.Name))
	for _, az := range zones {
		units := byZone[az]
		sort.Strings(units)
		zoneGroup := plan.ParallelGroup(fmt.Sprintf("%s units in availability zone %s", app.Name, zoneLabel(az)))
		for _, unit := range units {
			zoneGroup.Children = append(zoneGroup.Children, pauseUnitSubtree(app, unit, opts))
		}
		outer.Children = append(outer.Children, zoneGroup)
	}
	return outer
}

func zoneLabel(az string) string {
	if az == "" {
		return "(unzoned)"
	}
	return az
}

// pauseUnitSubtree builds the disable-scheduler → verify-empty →
// pause → openstack-upgrade → resume → enable-scheduler sequence for
// one hypervisor unit.
func pauseUnitSubtree(app *topology.Application, unit string, opts Options) *plan.Step {
	steps := []*plan.Step{
		plan.Leaf(fmt.Sprintf("disable nova scheduler on %s", unit), func(ctx context.Context) error {
			_, err := opts.Facade.RunAction(ctx, unit, "disable", nil)
			return errors.Trace(err)
		}).WithSubject(app.Name, unit),
	}

	if !opts.Force {
		steps = append(steps, plan.Leaf(fmt.Sprintf("verify %s hosts no running VMs", unit), func(ctx context.Context) error {
			result, err := opts.Facade.RunAction(ctx, unit, "instance-count", nil)
			if err != nil {
				return errors.Trace(err)
			}
			if fmt.Sprintf("%v", result.Output["instance-count"]) != "0" {
				return errors.Errorf("unit %q still hosts running VMs; rerun with force to proceed anyway", unit)
			}
			return nil
		}).WithSubject(app.Name, unit))
	}

	steps = append(steps,
		plan.Leaf(fmt.Sprintf("pause %s", unit), func(ctx context.Context) error {
			_, err := opts.Facade.RunAction(ctx, unit, "pause", nil)
			return errors.Trace(err)
		}).WithSubject(app.Name, unit),
		plan.Leaf(fmt.Sprintf("run openstack-upgrade on %s", unit), func(ctx context.Context) error {
			_, err := opts.Facade.RunAction(ctx, unit, "openstack-upgrade", nil)
			return errors.Trace(err)
		}).WithRetry().WithSubject(app.Name, unit),
		plan.Leaf(fmt.Sprintf("resume %s", unit), func(ctx context.Context) error {
			_, err := opts.Facade.RunAction(ctx, unit, "resume", nil)
			return errors.Trace(err)
		}).WithSubject(app.Name, unit),
		plan.Leaf(fmt.Sprintf("enable nova scheduler on %s", unit), func(ctx context.Context) error {
			_, err := opts.Facade.RunAction(ctx, unit, "enable", nil)
			return errors.Trace(err)
		}).WithSubject(app.Name, unit),
	)

	return plan.Group(fmt.Sprintf("pause and upgrade %s", unit), steps...)
}
