// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package plan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/analyzer"
	"github.com/canonical/cou/internal/catalog"
	"github.com/canonical/cou/internal/controller"
	"github.com/canonical/cou/internal/topology"
)

// UpgradeGroup is the upgrade-group scope a BuildPlan invocation
// targets, mirroring the trailing group argument of `cou
// plan`/`cou upgrade`.
type UpgradeGroup int

const (
	Whole UpgradeGroup = iota
	ControlPlane
	DataPlane
	Hypervisors
)

// StepBuilder builds one application's upgrade group step. In practice
// this is strategy.Select bound to a particular strategy.Options value;
// the plan package never imports internal/strategy directly; package
// strategy already depends on plan.Step as its return type, so plan
// importing strategy back would cycle. The caller (internal/cli or the
// orchestration layer driving a run) closes over a strategy.Options and
// passes the bound function in here instead.
type StepBuilder func(app *topology.Application, d catalog.Descriptor) (*Step, error)

// BuildOptions controls the shape of the plan BuildPlan assembles.
type BuildOptions struct {
	Group UpgradeGroup

	// IdleTimeout bounds the initial cloud-wide "verify all applications
	// are idle" pre-upgrade check.
	IdleTimeout time.Duration

	Backup           bool
	Archive          bool
	ArchiveBatchSize int
	Purge            bool
	PurgeBeforeDate  string // YYYY-MM-DD[HH:mm[:ss]], empty means unset

	// Force records the --force flag. BuildPlan itself runs no
	// VM-hosting check when selecting hypervisor machines (see
	// filterHypervisorUnits); the run-time check inside the hypervisor
	// strategy is controlled via strategy.Options.Force.
	Force bool

	// MachineFilter and AZFilter restrict the Hypervisors group to a
	// subset of machines/zones. Mutually exclusive.
	MachineFilter []string
	AZFilter      []string

	SkipApps map[string]bool
}

// Validate reports the one build-time configuration error BuildPlan
// cannot proceed past: a machine filter and an availability-zone filter
// given together.
func (o BuildOptions) Validate() error {
	if len(o.MachineFilter) > 0 && len(o.AZFilter) > 0 {
		return errors.NotValidf("--machine and --availability-zone together (they are mutually exclusive)")
	}
	return nil
}

// BuildPlan assembles the root Step for one `cou plan`/`cou upgrade`
// invocation from an analyzed Cloud snapshot. build supplies each
// application's own upgrade-group step; BuildPlan is responsible only
// for ordering applications against one another and wrapping the
// cloud-wide pre/post hooks around them.
func BuildPlan(cloud *analyzer.Cloud, cat *catalog.Catalog, facade controller.Facade, build StepBuilder, opts BuildOptions) (*Step, []string, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, errors.Trace(err)
	}

	topo := cloud.Topology
	var warnings []string

	root := Group(fmt.Sprintf("upgrade cloud from %s to %s", cloud.CurrentRelease, cloud.TargetRelease))

	runsControlPlane := opts.Group == Whole || opts.Group == ControlPlane
	runsDataPlane := opts.Group == Whole || opts.Group == DataPlane
	runsHypervisors := opts.Group == Whole || opts.Group == Hypervisors

	// The cloud pre-upgrade hooks only make sense ahead of the
	// control-plane run: a data-plane-only or hypervisors-only
	// invocation assumes the operator already ran (or is separately
	// running) the control-plane group first.
	if runsControlPlane {
		root.Children = append(root.Children, cloudPreUpgrade(facade, topo, opts)...)
	}

	if runsControlPlane {
		principals, err := controlPlanePrincipals(topo, cat, build, opts)
		if err != nil {
			return nil, warnings, errors.Trace(err)
		}
		root.Children = append(root.Children, principals)
		root.Children = append(root.Children, subordinatesOf(topo, cat, build, isControlPlaneSubordinate,
			"control-plane subordinate(s) upgrade plan"))
	}

	if runsHypervisors {
		step, hwWarnings, err := hypervisorGroup(topo, cat, build, opts)
		if err != nil {
			return nil, warnings, errors.Trace(err)
		}
		warnings = append(warnings, hwWarnings...)
		if step != nil {
			root.Children = append(root.Children, step)
		}
	}

	if runsDataPlane {
		principals, err := dataPlanePrincipals(topo, cat, facade, build, cloud.TargetRelease, opts)
		if err != nil {
			return nil, warnings, errors.Trace(err)
		}
		root.Children = append(root.Children, principals)
		root.Children = append(root.Children, subordinatesOf(topo, cat, build,
			func(app *topology.Application, d catalog.Descriptor) bool { return d.Category == catalog.DataPlaneSubordinate },
			"data-plane subordinate(s) upgrade plan"))
	}

	// The require-osd-release reconciliation needs both ceph-mon and
	// ceph-osd settled, so it only runs alongside a data-plane pass.
	if runsDataPlane {
		if post := cloudPostUpgrade(topo, facade); post != nil {
			root.Children = append(root.Children, post)
		}
	}

	return root, warnings, nil
}

// isCephMon reports whether app is specifically the ceph-mon charm — the
// one CephFamily member that sits with the control-plane principals
// rather than the data plane.
func isCephMon(app *topology.Application) bool {
	return app.Charm == "ceph-mon"
}

// isControlPlanePrincipal reports whether app belongs in the
// control-plane principal group: ControlPlanePrincipal proper, plus
// ceph-mon (CephFamily, scheduled with the control plane per the fixed
// application-priority order), plus the Auxiliary and Special charms
// the priority list also names (rabbitmq-server, mysql-innodb-cluster,
// vault) when deployed as principals rather than subordinates.
func isControlPlanePrincipal(app *topology.Application, d catalog.Descriptor) bool {
	if app.IsSubordinate() {
		return false
	}
	switch d.Category {
	case catalog.ControlPlanePrincipal, catalog.Auxiliary, catalog.Special:
		return true
	default:
		return isCephMon(app)
	}
}

// isControlPlaneSubordinate reports whether app belongs in the
// control-plane subordinate group: ControlPlaneSubordinate proper, plus
// any Auxiliary-classified charm (mysql-router, chiefly) a particular
// deployment happens to relate in as a subordinate rather than a
// principal.
func isControlPlaneSubordinate(app *topology.Application, d catalog.Descriptor) bool {
	if !app.IsSubordinate() {
		return false
	}
	return d.Category == catalog.ControlPlaneSubordinate || d.Category == catalog.Auxiliary
}

// isDataPlanePrincipal reports whether app belongs in the "remaining
// data-plane principals" group: non-hypervisor data-plane charms, plus
// every CephFamily member except ceph-mon (ceph-osd, chiefly).
func isDataPlanePrincipal(app *topology.Application, d catalog.Descriptor) bool {
	if d.Category == catalog.CephFamily {
		return !isCephMon(app)
	}
	return d.Category == catalog.DataPlaneNonHypervisor
}

func cloudPreUpgrade(facade controller.Facade, topo *topology.Topology, opts BuildOptions) []*Step {
	steps := []*Step{verifyCloudIdle(facade, opts.IdleTimeout)}
	if opts.Backup {
		if step := backupDatabases(topo, facade); step != nil {
			steps = append(steps, step)
		}
	}
	if opts.Archive {
		if step := archiveDeletedRows(topo, facade, opts.ArchiveBatchSize); step != nil {
			steps = append(steps, step)
		}
	}
	if opts.Purge {
		if step := purgeShadowTables(topo, facade, opts.PurgeBeforeDate); step != nil {
			steps = append(steps, step)
		}
	}
	return steps
}

func verifyCloudIdle(facade controller.Facade, timeout time.Duration) *Step {
	return Leaf("verify all applications are idle", func(ctx context.Context) error {
		return errors.Trace(facade.WaitForIdle(ctx, controller.ScopeModel, "", timeout))
	}).WithTimeout(timeout)
}

// backupDatabases invokes the mysqldump action against the database
// application's first unit — the backup artifact itself is produced and
// stored by the controller action, not by this tool (the database
// backup mechanics are an opaque out-of-scope collaborator).
func backupDatabases(topo *topology.Topology, facade controller.Facade) *Step {
	unit, ok := firstUnitOf(topo, "mysql-innodb-cluster")
	if !ok {
		return nil
	}
	return Leaf("back up MySQL databases", func(ctx context.Context) error {
		_, err := facade.RunAction(ctx, unit, "mysqldump", nil)
		return errors.Trace(err)
	}).WithSubject("mysql-innodb-cluster", unit)
}

// archiveDeletedRows runs nova-cloud-controller's archive-data action
// repeatedly (it archives one batch per invocation) until it reports
// nothing left to archive.
func archiveDeletedRows(topo *topology.Topology, facade controller.Facade, batchSize int) *Step {
	unit, ok := firstUnitOf(topo, "nova-cloud-controller")
	if !ok {
		return nil
	}
	return Leaf("archive deleted rows", func(ctx context.Context) error {
		for {
			result, err := facade.RunAction(ctx, unit, "archive-data", map[string]interface{}{"batch-size": batchSize})
			if err != nil {
				return errors.Trace(err)
			}
			output := fmt.Sprintf("%v", result.Output["archive-deleted-rows"])
			if output == "" || containsNothingArchived(output) {
				return nil
			}
		}
	}).WithRetry().WithSubject("nova-cloud-controller", unit)
}

func containsNothingArchived(output string) bool {
	return output == "Nothing was archived" || output == "<nil>"
}

// purgeShadowTables runs nova-cloud-controller's purge-data action,
// optionally bounded to rows older than before.
func purgeShadowTables(topo *topology.Topology, facade controller.Facade, before string) *Step {
	unit, ok := firstUnitOf(topo, "nova-cloud-controller")
	if !ok {
		return nil
	}
	return Leaf("purge shadow tables", func(ctx context.Context) error {
		params := map[string]interface{}{}
		if before != "" {
			params["before"] = before
		}
		_, err := facade.RunAction(ctx, unit, "purge-data", params)
		return errors.Trace(err)
	}).WithSubject("nova-cloud-controller", unit)
}

func firstUnitOf(topo *topology.Topology, appName string) (string, bool) {
	app, ok := topo.Applications[appName]
	if !ok || len(app.Units) == 0 {
		return "", false
	}
	names := make([]string, 0, len(app.Units))
	for n := range app.Units {
		names = append(names, n)
	}
	sort.Strings(names)
	return names[0], true
}

// controlPlanePrincipals builds the sequential "control plane
// principal(s)" section, ordered by the fixed application-priority list
// with lexicographic fallback for unknown-but-supported charms.
func controlPlanePrincipals(topo *topology.Topology, cat *catalog.Catalog, build StepBuilder, opts BuildOptions) (*Step, error) {
	var names []string
	for _, name := range sortedNames(topo.Applications) {
		app := topo.Applications[name]
		if app.IsSubordinate() {
			continue
		}
		d, err := cat.Charm(app.Charm)
		if err != nil {
			continue
		}
		if isControlPlanePrincipal(app, d) {
			names = append(names, name)
		}
	}

	group := Group("control-plane principal(s) upgrade plan")
	for _, name := range orderControlPlanePrincipals(names) {
		app := topo.Applications[name]
		d, err := cat.Charm(app.Charm)
		if err != nil {
			return nil, errors.Trace(err)
		}
		step, err := build(app, d)
		if err != nil {
			return nil, errors.Annotatef(err, "building upgrade plan for %q", name)
		}
		group.Children = append(group.Children, step)
	}
	return group, nil
}

// subordinatePredicate reports whether app (known to be a subordinate)
// belongs in a given subordinate section.
type subordinatePredicate func(app *topology.Application, d catalog.Descriptor) bool

// subordinatesOf builds a sequential group over every subordinate
// application matching belongs, in lexicographic order.
func subordinatesOf(topo *topology.Topology, cat *catalog.Catalog, build StepBuilder, belongs subordinatePredicate, description string) *Step {
	group := Group(description)
	for _, name := range sortedNames(topo.Applications) {
		app := topo.Applications[name]
		if !app.IsSubordinate() {
			continue
		}
		d, err := cat.Charm(app.Charm)
		if err != nil || !belongs(app, d) {
			continue
		}
		step, err := build(app, d)
		if err != nil {
			step = Leaf(fmt.Sprintf("upgrade plan for %s: %s", name, err), func(context.Context) error {
				return errors.Annotatef(err, "building upgrade plan for %q", name)
			})
		}
		group.Children = append(group.Children, step)
	}
	return group
}

// hypervisorGroup builds the "hypervisors" section: one StepBuilder call
// per hypervisor-hosting application, restricted to the machines/zones
// --machine or --availability-zone name. Returns (nil, nil, nil) if no
// hypervisor applications exist in topo.
func hypervisorGroup(topo *topology.Topology, cat *catalog.Catalog, build StepBuilder, opts BuildOptions) (*Step, []string, error) {
	var warnings []string
	var names []string
	for _, name := range sortedNames(topo.Applications) {
		app := topo.Applications[name]
		if app.IsSubordinate() {
			continue
		}
		d, err := cat.Charm(app.Charm)
		if err != nil || d.Category != catalog.DataPlaneHypervisor {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, nil, nil
	}

	group := Group("hypervisor(s) upgrade plan")
	for _, name := range names {
		app := topo.Applications[name]
		d, _ := cat.Charm(app.Charm)

		filtered, filterWarnings := filterHypervisorUnits(app, topo, opts)
		warnings = append(warnings, filterWarnings...)
		if len(filtered.Units) == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"application %q: no units left after applying --machine/--availability-zone filter, omitted", name))
			continue
		}

		step, err := build(filtered, d)
		if err != nil {
			return nil, warnings, errors.Annotatef(err, "building upgrade plan for %q", name)
		}
		group.Children = append(group.Children, step)
	}
	return group, warnings, nil
}

// filterHypervisorUnits returns a shallow copy of app whose Units map is
// restricted to opts.MachineFilter/opts.AZFilter (whichever is set; they
// are mutually exclusive per BuildOptions.Validate). An app with neither
// filter set is returned unchanged.
//
// The build-time "omit machines currently hosting VMs unless --force"
// rule from the application-priority design is not enforced here: the
// Cloud snapshot carries no instance-count data (the controller façade's
// status() call does not report it), so that check is instead performed
// at run time by the hypervisor strategy's per-unit instance-count leaf,
// which aborts that unit's subtree rather than silently omitting it from
// the plan.
func filterHypervisorUnits(app *topology.Application, topo *topology.Topology, opts BuildOptions) (*topology.Application, []string) {
	if len(opts.MachineFilter) == 0 && len(opts.AZFilter) == 0 {
		return app, nil
	}

	machines := map[string]bool{}
	for _, m := range opts.MachineFilter {
		machines[m] = true
	}
	zones := map[string]bool{}
	for _, z := range opts.AZFilter {
		zones[z] = true
	}

	filtered := &topology.Application{
		Name:            app.Name,
		Tag:             app.Tag,
		Charm:           app.Charm,
		Channel:         app.Channel,
		Config:          app.Config,
		Origin:          app.Origin,
		Series:          app.Series,
		SubordinateTo:   app.SubordinateTo,
		Machines:        app.Machines,
		WorkloadVersion: app.WorkloadVersion,
		DerivedRelease:  app.DerivedRelease,
		Units:           map[string]*topology.Unit{},
	}
	for name, u := range app.Units {
		switch {
		case len(machines) > 0:
			if machines[u.MachineID] {
				filtered.Units[name] = u
			}
		case len(zones) > 0:
			m, ok := topo.Machines[u.MachineID]
			if ok && zones[m.AvailabilityZone] {
				filtered.Units[name] = u
			}
		}
	}
	return filtered, nil
}

// dataPlanePrincipals builds the sequential "remaining data-plane
// principal(s)" section: ceph-osd and any non-hypervisor data-plane
// application, each preceded by a check that every nova-compute unit has
// already reached target (hypervisors must lead the data plane, since
// the workloads they host assume the hypervisor is upgraded first).
func dataPlanePrincipals(topo *topology.Topology, cat *catalog.Catalog, facade controller.Facade, build StepBuilder, target catalog.Release, opts BuildOptions) (*Step, error) {
	var names []string
	for _, name := range sortedNames(topo.Applications) {
		app := topo.Applications[name]
		if app.IsSubordinate() {
			continue
		}
		d, err := cat.Charm(app.Charm)
		if err != nil {
			continue
		}
		if isDataPlanePrincipal(app, d) {
			names = append(names, name)
		}
	}

	group := Group("remaining data-plane principal(s) upgrade plan")
	for _, name := range names {
		app := topo.Applications[name]
		d, err := cat.Charm(app.Charm)
		if err != nil {
			return nil, errors.Trace(err)
		}
		step, err := build(app, d)
		if err != nil {
			return nil, errors.Annotatef(err, "building upgrade plan for %q", name)
		}
		group.Children = append(group.Children,
			verifyHypervisorsAtTarget(cat, facade, target),
			step,
		)
	}
	return group, nil
}

func verifyHypervisorsAtTarget(cat *catalog.Catalog, facade controller.Facade, target catalog.Release) *Step {
	return Leaf("verify nova-compute units have reached the target release", func(ctx context.Context) error {
		d, err := cat.Charm("nova-compute")
		if err != nil {
			return nil // nova-compute not a known charm in this catalog build; nothing to verify
		}
		status, err := facade.Status(ctx)
		if err != nil {
			return errors.Trace(err)
		}
		raw, ok := status.Applications["nova-compute"]
		if !ok {
			return nil // no hypervisors deployed in this cloud
		}
		for name, u := range raw.Units {
			release, ok := catalog.ReleaseOf(d, u.WorkloadVersion)
			if !ok {
				return errors.Errorf("nova-compute unit %q: workload version %q does not match any known release",
					name, u.WorkloadVersion)
			}
			if release.Less(target) {
				return errors.Errorf("nova-compute unit %q has not reached %q yet", name, target)
			}
		}
		return nil
	})
}

// cloudPostUpgrade builds the final require-osd-release reconciliation
// across every ceph-mon unit, run once both ceph-mon and ceph-osd have
// settled on the new release. Returns nil if no ceph-mon is deployed.
func cloudPostUpgrade(topo *topology.Topology, facade controller.Facade) *Step {
	app, ok := topo.Applications["ceph-mon"]
	if !ok {
		return nil
	}
	units := make([]string, 0, len(app.Units))
	for name := range app.Units {
		units = append(units, name)
	}
	sort.Strings(units)

	return Leaf("ensure require-osd-release matches the running ceph release", func(ctx context.Context) error {
		for _, unit := range units {
			required, err := facade.RunOnUnit(ctx, unit, "ceph config get mon require-osd-release")
			if err != nil {
				return errors.Trace(err)
			}
			running, err := facade.RunOnUnit(ctx, unit, "ceph osd dump | awk '/require_osd_release/{print $2}'")
			if err != nil {
				return errors.Trace(err)
			}
			if required.Stdout == running.Stdout {
				continue
			}
			if _, err := facade.RunOnUnit(ctx, unit,
				fmt.Sprintf("ceph osd require-osd-release %s", running.Stdout)); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}).WithRetry().WithSubject("ceph-mon", "")
}
