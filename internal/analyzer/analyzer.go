// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package analyzer is the analyzer (C3): combines the release catalog
// (C1) and the topology (C2) to determine each application's current
// release and the cloud's overall current and target release.
package analyzer

import (
	"sort"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/catalog"
	"github.com/canonical/cou/internal/topology"
)

// Cloud is the analyzer's output: a Topology whose applications now
// carry a DerivedRelease, plus the cloud-wide current/target release and
// series.
type Cloud struct {
	Topology       *topology.Topology
	CurrentRelease catalog.Release
	TargetRelease  catalog.Release
	Series         string
}

// Warning is a non-fatal analysis finding that does not abort analysis.
type Warning struct {
	Application string
	Message     string
}

// Options controls which applications are considered in-scope.
type Options struct {
	// SkipApps lists applications whose release-derivation failure
	// (unknown charm or unmatched workload version) is downgraded to a
	// Warning instead of a fatal error. The CLI restricts it to
	// catalog.SkipAllowList before calling Analyze.
	SkipApps map[string]bool
}

// Analyze derives each application's current release from its units'
// workload versions and combines them into a cloud-wide snapshot. It is
// deterministic and side-effect free: analyzing the same Topology twice
// yields equal Cloud snapshots.
func Analyze(topo *topology.Topology, cat *catalog.Catalog, opts Options) (*Cloud, []Warning, error) {
	var warnings []Warning

	for _, app := range sortedApps(topo) {
		if app.IsSubordinate() {
			continue // derived after principals, below
		}
		if err := deriveRelease(app, cat); err != nil {
			if opts.SkipApps[app.Name] {
				warnings = append(warnings, Warning{
					Application: app.Name,
					Message:     "skipped by configuration: " + err.Error(),
				})
				continue
			}
			return nil, warnings, errors.Trace(err)
		}
	}

	for _, app := range sortedApps(topo) {
		if !app.IsSubordinate() {
			continue
		}
		if err := deriveSubordinateRelease(app, topo); err != nil {
			if opts.SkipApps[app.Name] {
				warnings = append(warnings, Warning{
					Application: app.Name,
					Message:     err.Error(),
				})
				continue
			}
			return nil, warnings, errors.Trace(err)
		}
	}

	for _, app := range sortedApps(topo) {
		d, err := cat.Charm(app.Charm)
		if err != nil || app.DerivedRelease == "" {
			continue
		}
		track, _, terr := cat.TargetChannel(d, topo.Series, app.DerivedRelease)
		if terr == nil && app.Channel.Track != track {
			warnings = append(warnings, Warning{
				Application: app.Name,
				Message: "channel track " + app.Channel.Track + " does not match the expected track " +
					track + " for release " + string(app.DerivedRelease) + "; operator may have deviated",
			})
		}
	}

	current, err := cloudCurrentRelease(topo, cat, opts)
	if err != nil {
		return nil, warnings, errors.Trace(err)
	}

	target, ok := catalog.Next(current)
	if !ok {
		return nil, warnings, errors.Errorf("cloud is already at the final known release %q", current)
	}

	return &Cloud{
		Topology:       topo,
		CurrentRelease: current,
		TargetRelease:  target,
		Series:         topo.Series,
	}, warnings, nil
}

// deriveRelease sets a principal application's DerivedRelease from the
// minimum of its units' derived releases. Ceph-family
// charms resolve through the separate ceph-release table instead of the
// OpenStack workload-version table.
func deriveRelease(app *topology.Application, cat *catalog.Catalog) error {
	d, err := cat.Charm(app.Charm)
	if err != nil {
		return errors.Trace(err)
	}

	if len(app.Units) == 0 {
		return errors.Errorf("application %q: no units to derive a release from", app.Name)
	}

	resolve := func(workloadVersion string) (catalog.Release, bool) {
		if d.Category == catalog.CephFamily {
			return cat.CephReleaseOf(app.Charm, workloadVersion)
		}
		return catalog.ReleaseOf(d, workloadVersion)
	}

	var min catalog.Release
	for _, u := range sortedUnits(app) {
		release, ok := resolve(u.WorkloadVersion)
		if !ok {
			return errors.Errorf("unit %q: workload version %q does not match any known release for charm %q",
				u.Name, u.WorkloadVersion, app.Charm)
		}
		u.DerivedRelease = release
		if min == "" || release.Less(min) {
			min = release
		}
	}

	for _, u := range app.Units {
		if u.DerivedRelease != min {
			return errors.Errorf("application %q: units at mixed releases (%q at %q, expected %q) — this is fatal",
				app.Name, u.Name, u.DerivedRelease, min)
		}
	}

	app.DerivedRelease = min
	return nil
}

// deriveSubordinateRelease sets a subordinate's DerivedRelease from its
// principal's.
func deriveSubordinateRelease(app *topology.Application, topo *topology.Topology) error {
	var release catalog.Release
	for _, pname := range app.SubordinateTo {
		principal, ok := topo.Applications[pname]
		if !ok || principal.DerivedRelease == "" {
			continue
		}
		if release == "" {
			release = principal.DerivedRelease
		} else if release != principal.DerivedRelease {
			return errors.Errorf("subordinate %q: related principals are at mixed releases", app.Name)
		}
	}
	if release == "" {
		return errors.Errorf("subordinate %q: could not derive a release from any related principal", app.Name)
	}
	app.DerivedRelease = release
	return nil
}

// cloudCurrentRelease is the minimum DerivedRelease across every
// in-scope control-plane principal. An
// in-scope principal more than one release ahead of that minimum is a
// fatal "inconsistent cloud".
func cloudCurrentRelease(topo *topology.Topology, cat *catalog.Catalog, opts Options) (catalog.Release, error) {
	var min catalog.Release
	var principals []*topology.Application
	for _, app := range sortedApps(topo) {
		if app.IsSubordinate() || app.DerivedRelease == "" {
			continue
		}
		d, err := cat.Charm(app.Charm)
		if err != nil {
			continue
		}
		if d.Category != catalog.ControlPlanePrincipal {
			continue
		}
		principals = append(principals, app)
		if min == "" || app.DerivedRelease.Less(min) {
			min = app.DerivedRelease
		}
	}
	if min == "" {
		return "", errors.Errorf("no control-plane principal applications found to determine the cloud's current release")
	}
	for _, app := range principals {
		next, ok := catalog.Next(min)
		ahead := app.DerivedRelease != min && (!ok || app.DerivedRelease != next)
		if ahead {
			return "", errors.Errorf(
				"inconsistent cloud: application %q is at release %q, more than one release ahead of the cloud minimum %q",
				app.Name, app.DerivedRelease, min)
		}
	}
	return min, nil
}

func sortedApps(topo *topology.Topology) []*topology.Application {
	names := make([]string, 0, len(topo.Applications))
	for n := range topo.Applications {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*topology.Application, 0, len(names))
	for _, n := range names {
		out = append(out, topo.Applications[n])
	}
	return out
}

func sortedUnits(app *topology.Application) []*topology.Unit {
	names := make([]string, 0, len(app.Units))
	for n := range app.Units {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*topology.Unit, 0, len(names))
	for _, n := range names {
		out = append(out, app.Units[n])
	}
	return out
}
