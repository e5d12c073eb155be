// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package plan

import (
	"sort"

	"github.com/juju/collections/set"

	"github.com/canonical/cou/internal/topology"
)

// controlPlanePriority fixes the relative order control-plane principals
// upgrade in: rabbitmq-server and ceph-mon first (the services everything
// else depends on to stay reachable during the upgrade), then keystone,
// then the remaining dependent services, ending with the three charms
// that settle last and vault.
var controlPlanePriority = []string{
	"rabbitmq-server",
	"ceph-mon",
	"keystone",
	"neutron-api",
	"nova-cloud-controller",
	"placement",
	"glance",
	"cinder",
	"openstack-dashboard",
	"octavia",
	"mysql-innodb-cluster",
	"vault",
}

// orderControlPlanePrincipals sorts names by controlPlanePriority; any
// name not on that list (an unknown but supported charm, per the
// catalog) is appended afterwards in lexicographic order.
func orderControlPlanePrincipals(names []string) []string {
	priority := map[string]int{}
	for i, n := range controlPlanePriority {
		priority[n] = i
	}

	known := set.NewStrings()
	for _, n := range controlPlanePriority {
		known.Add(n)
	}

	var ranked, rest []string
	for _, n := range names {
		if known.Contains(n) {
			ranked = append(ranked, n)
		} else {
			rest = append(rest, n)
		}
	}
	sort.Slice(ranked, func(i, j int) bool { return priority[ranked[i]] < priority[ranked[j]] })
	sort.Strings(rest)
	return append(ranked, rest...)
}

// sortedNames returns the sorted application names backing apps, so
// every caller that needs a deterministic walk order doesn't hand-roll
// its own sort.
func sortedNames(apps map[string]*topology.Application) []string {
	names := make([]string, 0, len(apps))
	for n := range apps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
