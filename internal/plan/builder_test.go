// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package plan_test

import (
	stdtesting "testing"
	"time"

	gc "gopkg.in/check.v1"

	"github.com/canonical/cou/internal/analyzer"
	"github.com/canonical/cou/internal/catalog"
	"github.com/canonical/cou/internal/controller/controllertest"
	"github.com/canonical/cou/internal/plan"
	"github.com/canonical/cou/internal/strategy"
	"github.com/canonical/cou/internal/topology"
)

func TestPackage(t *stdtesting.T) { gc.TestingT(t) }

type BuilderSuite struct {
	catalog *catalog.Catalog
	facade  *controllertest.Fake
}

var _ = gc.Suite(&BuilderSuite{})

func (s *BuilderSuite) SetUpTest(c *gc.C) {
	cat, err := catalog.LoadDefault()
	c.Assert(err, gc.IsNil)
	s.catalog = cat
	s.facade = controllertest.New()
}

// minimalTopology builds the S1 scenario: keystone (principal) with a
// keystone-ldap subordinate, a single-zone nova-compute, and ceph-osd —
// everything at ussuri, upgrading to victoria.
func (s *BuilderSuite) minimalTopology(c *gc.C) *topology.Topology {
	raw := topology.RawStatus{
		Model: topology.RawModel{Series: "focal"},
		Machines: map[string]topology.RawMachine{
			"0": {ID: "0", AvailabilityZone: "az-0"},
			"1": {ID: "1", AvailabilityZone: "az-0"},
		},
		Applications: map[string]topology.RawApplication{
			"keystone": {
				Name: "keystone", Charm: "keystone", Channel: "ussuri/stable",
				Series: "focal", Config: map[string]interface{}{"openstack-origin": "cloud:focal-ussuri"},
				Units: map[string]topology.RawUnit{
					"keystone/0": {Name: "keystone/0", MachineID: "0", WorkloadVersion: "17.0.1"},
				},
			},
			"keystone-ldap": {
				Name: "keystone-ldap", Charm: "keystone-ldap", Channel: "ussuri/stable",
				Series: "focal", SubordinateTo: []string{"keystone"}, WorkloadVersion: "ignored",
			},
			"nova-compute": {
				Name: "nova-compute", Charm: "nova-compute", Channel: "ussuri/stable",
				Series: "focal", Config: map[string]interface{}{"openstack-origin": "cloud:focal-ussuri"},
				Units: map[string]topology.RawUnit{
					"nova-compute/0": {Name: "nova-compute/0", MachineID: "1", WorkloadVersion: "21.0.0"},
				},
			},
			"ceph-osd": {
				Name: "ceph-osd", Charm: "ceph-osd", Channel: "octopus/stable",
				Series: "focal", Config: map[string]interface{}{"source": "cloud:focal-ussuri"},
				Units: map[string]topology.RawUnit{
					"ceph-osd/0": {Name: "ceph-osd/0", MachineID: "1", WorkloadVersion: "15.2.0"},
				},
			},
			"mysql-innodb-cluster": {
				Name: "mysql-innodb-cluster", Charm: "mysql-innodb-cluster", Channel: "8.0/stable",
				Series: "focal",
				Units: map[string]topology.RawUnit{
					"mysql-innodb-cluster/0": {Name: "mysql-innodb-cluster/0", MachineID: "0", WorkloadVersion: "8.0.30"},
				},
			},
		},
	}
	topo, err := topology.Build(raw)
	c.Assert(err, gc.IsNil)
	topology.WireSubordinateMachines(topo)
	return topo
}

// cloudSnapshot wraps topo into a Cloud snapshot directly rather than
// running the analyzer: BuildPlan only reads Topology/CurrentRelease/
// TargetRelease/Series, and driving every builder test scenario through
// a full Analyze pass would require every fixture application to carry
// workload versions the analyzer's release tables resolve, which is
// incidental to what the builder itself is exercising here.
func (s *BuilderSuite) cloudSnapshot(topo *topology.Topology, current, target catalog.Release) *analyzer.Cloud {
	return &analyzer.Cloud{
		Topology:       topo,
		CurrentRelease: current,
		TargetRelease:  target,
		Series:         topo.Series,
	}
}

// stepBuilder binds strategy.Select to opts, matching how the CLI
// wiring layer would close over it before handing it to BuildPlan.
func (s *BuilderSuite) stepBuilder(cloud *analyzer.Cloud, opts strategy.Options) plan.StepBuilder {
	return func(app *topology.Application, d catalog.Descriptor) (*plan.Step, error) {
		return strategy.Select(d.Category, app.Charm, opts)(app, d, opts)
	}
}

func (s *BuilderSuite) strategyOptions(cloud *analyzer.Cloud) strategy.Options {
	return strategy.Options{
		Catalog:             s.catalog,
		Facade:              s.facade,
		Topology:            cloud.Topology,
		Series:              cloud.Series,
		Target:              cloud.TargetRelease,
		StandardIdleTimeout: time.Second,
		LongIdleTimeout:     2 * time.Second,
	}
}

func (s *BuilderSuite) TestWholePlanOrdersControlPlaneBeforeHypervisorsBeforeDataPlane(c *gc.C) {
	topo := s.minimalTopology(c)
	cloud := s.cloudSnapshot(topo, catalog.Ussuri, catalog.Victoria)
	stratOpts := s.strategyOptions(cloud)

	root, warnings, err := plan.BuildPlan(cloud, s.catalog, s.facade, s.stepBuilder(cloud, stratOpts), plan.BuildOptions{
		Group:            plan.Whole,
		Backup:           true,
		Archive:          false,
		ArchiveBatchSize: 1000,
		IdleTimeout:      time.Second,
	})
	c.Assert(err, gc.IsNil)
	c.Check(warnings, gc.HasLen, 0)

	var descriptions []string
	for _, child := range root.Children {
		descriptions = append(descriptions, child.Description)
	}
	// verify-idle, back-up, control-plane principals, control-plane
	// subordinates, hypervisors, data-plane principals, data-plane
	// subordinates. No post-upgrade step: no ceph-mon in this topology.
	c.Check(descriptions, gc.DeepEquals, []string{
		"verify all applications are idle",
		"back up MySQL databases",
		"control-plane principal(s) upgrade plan",
		"control-plane subordinate(s) upgrade plan",
		"hypervisor(s) upgrade plan",
		"remaining data-plane principal(s) upgrade plan",
		"data-plane subordinate(s) upgrade plan",
	})
}

func (s *BuilderSuite) TestControlPlaneGroupOmitsHypervisorsAndDataPlane(c *gc.C) {
	topo := s.minimalTopology(c)
	cloud := s.cloudSnapshot(topo, catalog.Ussuri, catalog.Victoria)
	stratOpts := s.strategyOptions(cloud)

	root, _, err := plan.BuildPlan(cloud, s.catalog, s.facade, s.stepBuilder(cloud, stratOpts), plan.BuildOptions{
		Group: plan.ControlPlane,
	})
	c.Assert(err, gc.IsNil)

	for _, child := range root.Children {
		c.Check(child.Description, gc.Not(gc.Equals), "hypervisor(s) upgrade plan")
		c.Check(child.Description, gc.Not(gc.Equals), "remaining data-plane principal(s) upgrade plan")
	}
}

func (s *BuilderSuite) TestHypervisorAvailabilityZoneFilterRestrictsUnits(c *gc.C) {
	raw := topology.RawStatus{
		Model: topology.RawModel{Series: "focal"},
		Machines: map[string]topology.RawMachine{
			"0": {ID: "0", AvailabilityZone: "az-0"},
			"1": {ID: "1", AvailabilityZone: "az-1"},
		},
		Applications: map[string]topology.RawApplication{
			"nova-compute": {
				Name: "nova-compute", Charm: "nova-compute", Channel: "ussuri/stable",
				Series: "focal", Config: map[string]interface{}{"openstack-origin": "cloud:focal-ussuri"},
				Units: map[string]topology.RawUnit{
					"nova-compute/0": {Name: "nova-compute/0", MachineID: "0", WorkloadVersion: "21.0.0"},
					"nova-compute/1": {Name: "nova-compute/1", MachineID: "1", WorkloadVersion: "21.0.0"},
				},
			},
		},
	}
	topo, err := topology.Build(raw)
	c.Assert(err, gc.IsNil)
	cloud := s.cloudSnapshot(topo, catalog.Ussuri, catalog.Victoria)
	stratOpts := s.strategyOptions(cloud)

	root, _, err := plan.BuildPlan(cloud, s.catalog, s.facade, s.stepBuilder(cloud, stratOpts), plan.BuildOptions{
		Group:    plan.Hypervisors,
		AZFilter: []string{"az-1"},
	})
	c.Assert(err, gc.IsNil)
	c.Assert(root.Children, gc.HasLen, 1)

	var unitCount int
	root.Children[0].Walk(func(n *plan.Step) {
		if n.Unit == "nova-compute/0" || n.Unit == "nova-compute/1" {
			unitCount++
		}
	})
	c.Check(unitCount > 0, gc.Equals, true)

	var sawZone0 bool
	root.Children[0].Walk(func(n *plan.Step) {
		if n.Unit == "nova-compute/0" {
			sawZone0 = true
		}
	})
	c.Check(sawZone0, gc.Equals, false)
}

func (s *BuilderSuite) TestMachineAndAZFilterAreMutuallyExclusive(c *gc.C) {
	topo := s.minimalTopology(c)
	cloud := s.cloudSnapshot(topo, catalog.Ussuri, catalog.Victoria)
	stratOpts := s.strategyOptions(cloud)

	_, _, err := plan.BuildPlan(cloud, s.catalog, s.facade, s.stepBuilder(cloud, stratOpts), plan.BuildOptions{
		Group:         plan.Hypervisors,
		MachineFilter: []string{"0"},
		AZFilter:      []string{"az-0"},
	})
	c.Assert(err, gc.NotNil)
}

func (s *BuilderSuite) TestPostUpgradeStepPresentOnlyWhenCephMonDeployed(c *gc.C) {
	raw := topology.RawStatus{
		Model: topology.RawModel{Series: "focal"},
		Applications: map[string]topology.RawApplication{
			"keystone": {
				Name: "keystone", Charm: "keystone", Channel: "ussuri/stable",
				Series: "focal", Config: map[string]interface{}{"openstack-origin": "cloud:focal-ussuri"},
				Units: map[string]topology.RawUnit{
					"keystone/0": {Name: "keystone/0", WorkloadVersion: "17.0.1"},
				},
			},
			"ceph-mon": {
				Name: "ceph-mon", Charm: "ceph-mon", Channel: "octopus/stable",
				Series: "focal", Config: map[string]interface{}{"source": "cloud:focal-ussuri"},
				Units: map[string]topology.RawUnit{
					"ceph-mon/0": {Name: "ceph-mon/0", WorkloadVersion: "15.2.0"},
				},
			},
		},
	}
	topo, err := topology.Build(raw)
	c.Assert(err, gc.IsNil)
	cloud := s.cloudSnapshot(topo, catalog.Ussuri, catalog.Victoria)
	stratOpts := s.strategyOptions(cloud)

	root, _, err := plan.BuildPlan(cloud, s.catalog, s.facade, s.stepBuilder(cloud, stratOpts), plan.BuildOptions{
		Group: plan.DataPlane,
	})
	c.Assert(err, gc.IsNil)

	last := root.Children[len(root.Children)-1]
	c.Check(last.Description, gc.Equals, "ensure require-osd-release matches the running ceph release")
}
