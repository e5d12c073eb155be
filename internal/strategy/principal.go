// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package strategy

import (
	"context"
	"fmt"
	"sort"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/catalog"
	"github.com/canonical/cou/internal/controller"
	"github.com/canonical/cou/internal/plan"
	"github.com/canonical/cou/internal/topology"
)

// originSetting returns the charm config key that carries the
// cloud-archive pointer ("openstack-origin" for most principals,
// "source" for a handful of charms configured the older way), or ""
// if app's current config has neither.
func originSetting(config map[string]interface{}) string {
	for _, key := range []string{"openstack-origin", "source"} {
		if _, ok := config[key]; ok {
			return key
		}
	}
	return ""
}

// Principal builds the canonical nine-step sequence for an OpenStack
// principal application:
//
//  1. disable action-managed-upgrade, if set
//  2. upgrade packages on every unit, in parallel
//  3. refresh the charm on its current channel
//  4. wait for the application to reach idle
//  5. switch the channel to the target release
//  6. wait for the application to reach idle
//  7. change the origin config to the target cloud archive
//  8. wait for the whole model to reach idle
//  9. verify every unit's workload has reached the target release
func Principal(app *topology.Application, d catalog.Descriptor, opts Options) (*plan.Step, error) {
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
	group.Children = append(group.Children, switchStep, waitForIdle(app, d, opts))

	if originStep := changeOrigin(app, opts); originStep != nil {
		group.Children = append(group.Children, originStep)
	}
	group.Children = append(group.Children,
		waitForModelIdle(opts),
		verifyWorkloadUpgraded(app, d, opts),
	)
	return group, nil
}

func disableActionManagedUpgrade(app *topology.Application, opts Options) *plan.Step {
	return plan.Leaf(
		fmt.Sprintf("disable action-managed-upgrade on %s", app.Name),
		func(ctx context.Context) error {
			cfg, err := opts.Facade.GetConfig(ctx, app.Name)
			if err != nil {
				return errors.Trace(err)
			}
			v, ok := cfg["action-managed-upgrade"]
			if !ok || v != true {
				return nil
			}
			return opts.Facade.SetConfig(ctx, app.Name, "action-managed-upgrade", false)
		},
	).WithOnFail(plan.RecordAndContinue).WithSubject(app.Name, "")
}

func upgradePackages(app *topology.Application, opts Options) *plan.Step {
	group := plan.ParallelGroup(fmt.Sprintf("upgrade packages on %s units", app.Name))
	for _, u := range sortedUnitNames(app) {
		unit := u
		group.Children = append(group.Children, plan.Leaf(
			fmt.Sprintf("upgrade software packages on %s", unit),
			func(ctx context.Context) error {
				_, err := opts.Facade.RunOnUnit(ctx, unit, "apt-get update && apt-get dist-upgrade -y")
				return errors.Trace(err)
			},
		).WithRetry().WithSubject(app.Name, unit))
	}
	return group
}

func refreshCharm(app *topology.Application, opts Options) *plan.Step {
	return plan.Leaf(
		fmt.Sprintf("refresh %s to the latest revision of its current channel", app.Name),
		func(ctx context.Context) error {
			return errors.Trace(opts.Facade.RefreshCharm(ctx, app.Name))
		},
	).WithRetry().WithSubject(app.Name, "")
}

func waitForIdle(app *topology.Application, d catalog.Descriptor, opts Options) *plan.Step {
	timeout := opts.idleTimeout(d)
	return plan.Leaf(
		fmt.Sprintf("wait for %s to reach idle", app.Name),
		func(ctx context.Context) error {
			return errors.Trace(opts.Facade.WaitForIdle(ctx, controller.ScopeApplication, app.Name, timeout))
		},
	).WithTimeout(timeout).WithSubject(app.Name, "")
}

func waitForModelIdle(opts Options) *plan.Step {
	return plan.Leaf(
		"wait for the model to reach idle",
		func(ctx context.Context) error {
			return errors.Trace(opts.Facade.WaitForIdle(ctx, controller.ScopeModel, "", opts.LongIdleTimeout))
		},
	).WithTimeout(opts.LongIdleTimeout)
}

func switchChannel(app *topology.Application, d catalog.Descriptor, opts Options) (*plan.Step, error) {
	track, risk, err := opts.Catalog.TargetChannel(d, opts.Series, opts.Target)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return plan.Leaf(
		fmt.Sprintf("switch %s to channel %s/%s", app.Name, track, risk),
		func(ctx context.Context) error {
			return errors.Trace(opts.Facade.SetChannel(ctx, app.Name, track, risk))
		},
	).WithRetry().WithSubject(app.Name, ""), nil
}

// changeOrigin builds the step that points app's cloud-archive config at
// the target release, or returns nil if app has neither
// "openstack-origin" nor "source" config (some principals track their
// release solely through their charm channel).
func changeOrigin(app *topology.Application, opts Options) *plan.Step {
	setting := originSetting(app.Config)
	if setting == "" {
		return nil
	}
	target := fmt.Sprintf("cloud:%s-%s", opts.Series, opts.Target)
	return plan.Leaf(
		fmt.Sprintf("change %s config %q to %q", app.Name, setting, target),
		func(ctx context.Context) error {
			return errors.Trace(opts.Facade.SetConfig(ctx, app.Name, setting, target))
		},
	).WithSubject(app.Name, "")
}

// verifyWorkloadUpgraded re-fetches status and confirms the upgrade
// landed. Charms whose workload version tracks the OpenStack release
// directly (d.VersionRanges populated from openstack_lookup.csv) are
// checked unit-by-unit against opts.Target; auxiliary charms that pin
// their own product version instead (mysql-innodb-cluster,
// rabbitmq-server, mysql-router, vault) have no such table, so "reached
// target" means "ended up on the channel switchChannel put it on".
func verifyWorkloadUpgraded(app *topology.Application, d catalog.Descriptor, opts Options) *plan.Step {
	return plan.Leaf(
		fmt.Sprintf("verify %s's workload has reached %s", app.Name, opts.Target),
		func(ctx context.Context) error {
			status, err := opts.Facade.Status(ctx)
			if err != nil {
				return errors.Trace(err)
			}
			raw, ok := status.Applications[app.Name]
			if !ok {
				return errors.NotFoundf("application %q in refreshed status", app.Name)
			}
			if len(d.VersionRanges) == 0 {
				return verifyChannelSwitched(app, d, opts, raw)
			}
			for _, unitName := range sortedUnitNames(app) {
				u, ok := raw.Units[unitName]
				if !ok {
					return errors.NotFoundf("unit %q in refreshed status for %q", unitName, app.Name)
				}
				release, ok := catalog.ReleaseOf(d, u.WorkloadVersion)
				if !ok {
					return errors.Errorf("unit %q: workload version %q does not match any known release",
						unitName, u.WorkloadVersion)
				}
				if release.Less(opts.Target) {
					return errors.Errorf("unit %q: workload at %q, expected at least %q", unitName, release, opts.Target)
				}
			}
			return nil
		},
	).WithSubject(app.Name, "")
}

func verifyChannelSwitched(app *topology.Application, d catalog.Descriptor, opts Options, raw topology.RawApplication) error {
	track, risk, err := opts.Catalog.TargetChannel(d, opts.Series, opts.Target)
	if err != nil {
		return errors.Trace(err)
	}
	want := fmt.Sprintf("%s/%s", track, risk)
	if raw.Channel != want {
		return errors.Errorf("application %q: on channel %q, expected %q", app.Name, raw.Channel, want)
	}
	return nil
}

func sortedUnitNames(app *topology.Application) []string {
	names := make([]string, 0, len(app.Units))
	for name := range app.Units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
