// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package strategy

import (
	"context"
	"fmt"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/catalog"
	"github.com/canonical/cou/internal/plan"
	"github.com/canonical/cou/internal/topology"
)

// Ceph builds the all-at-once upgrade for ceph-mon/ceph-osd: packages
// and origin upgrade together (the charm keeps serving through the
// package upgrade, so there is no pause step), a channel switch only
// when the ceph release actually moves, and a verification step
// against the ceph release table shared by both charms. The
// require-osd-release reconciliation across the two charms runs once,
// cloud-wide, after both have settled — see the plan builder's
// post-upgrade step.
func Ceph(app *topology.Application, d catalog.Descriptor, opts Options) (*plan.Step, error) {
	group := plan.Group(fmt.Sprintf("upgrade plan for %s to %s", app.Name, opts.Target))
	group.Children = append(group.Children,
		upgradePackages(app, opts),
		refreshCharm(app, opts),
		waitForIdle(app, d, opts),
	)

	movedRelease, err := cephReleaseMoves(app, d, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if movedRelease {
		switchStep, err := switchChannel(app, d, opts)
		if err != nil {
			return nil, errors.Trace(err)
		}
		group.Children = append(group.Children, switchStep, waitForIdle(app, d, opts))
	}

	if originStep := changeOrigin(app, opts); originStep != nil {
		group.Children = append(group.Children, originStep)
	}
	group.Children = append(group.Children,
		waitForModelIdle(opts),
		verifyCephReleaseUpgraded(app, d, opts),
	)
	return group, nil
}

// cephReleaseMoves reports whether app's ceph release (not its
// OpenStack-equivalent release) actually changes for this upgrade — the
// channel track is a ceph codename, and most OpenStack releases don't
// bump it. A target OpenStack release with no corresponding ceph
// release is "doesn't move", not an error: ceph simply stays on its
// current channel through that upgrade.
func cephReleaseMoves(app *topology.Application, d catalog.Descriptor, opts Options) (bool, error) {
	targetTrack, _, err := opts.Catalog.TargetChannel(d, opts.Series, opts.Target)
	if errors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Trace(err)
	}
	return app.Channel.Track != targetTrack, nil
}

// verifyCephReleaseUpgraded confirms every unit's workload version has
// reached opts.Target through the ceph release table (CephReleaseOf),
// the ceph-family equivalent of verifyWorkloadUpgraded. A target with no
// ceph release of its own is checked against the nearest earlier
// OpenStack release that has one, since ceph stays on that release
// through the upgrade (see cephReleaseMoves).
func verifyCephReleaseUpgraded(app *topology.Application, d catalog.Descriptor, opts Options) *plan.Step {
	expected := opts.Target
	for {
		if _, _, err := opts.Catalog.TargetChannel(d, opts.Series, expected); err == nil {
			break
		}
		prev, ok := catalog.Previous(expected)
		if !ok {
			break
		}
		expected = prev
	}
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
			for _, unitName := range sortedUnitNames(app) {
				u, ok := raw.Units[unitName]
				if !ok {
					return errors.NotFoundf("unit %q in refreshed status for %q", unitName, app.Name)
				}
				release, ok := opts.Catalog.CephReleaseOf(app.Charm, u.WorkloadVersion)
				if !ok {
					return errors.Errorf("unit %q: workload version %q does not match any known ceph release",
						unitName, u.WorkloadVersion)
				}
				if release.Less(expected) {
					return errors.Errorf("unit %q: workload at %q, expected at least %q", unitName, release, expected)
				}
			}
			return nil
		},
	).WithSubject(app.Name, "")
}
