// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package catalog

// builtinClassification seeds each known charm's Category and
// LongIdleTimeout flag, and the non-release-codename TrackMap entries
// for auxiliary charms whose channel track is not the OpenStack release
// name (mysql-innodb-cluster, rabbitmq-server). readOpenStackLookup then
// fills in VersionRanges for the charms that have an entry in
// openstack_lookup.csv; readCephLookup does the same for ceph-family
// charms via a separate table.
//
// This table is the one piece of "which charms exist and what kind are
// they" left to be maintained by hand as new charms are added; it is
// the charm-identity equivalent of the lookup CSVs and is kept in code,
// not a CSV, because category and the long-idle set are booleans/enums
// rather than version-keyed tables.
var builtinClassification = map[string]Descriptor{
	"keystone":              {Category: ControlPlanePrincipal, LongIdleTimeout: true},
	"nova-cloud-controller": {Category: ControlPlanePrincipal, LongIdleTimeout: true},
	"neutron-api":           {Category: ControlPlanePrincipal},
	"glance":                {Category: ControlPlanePrincipal},
	"cinder":                {Category: ControlPlanePrincipal},
	"octavia":               {Category: ControlPlanePrincipal, LongIdleTimeout: true},
	"openstack-dashboard":   {Category: ControlPlanePrincipal},
	"placement":             {Category: ControlPlanePrincipal},

	"keystone-ldap":       {Category: ControlPlaneSubordinate},
	"neutron-openvswitch":  {Category: DataPlaneSubordinate},
	"ovn-chassis":          {Category: DataPlaneSubordinate},
	"ovn-central":          {Category: ControlPlaneSubordinate},

	"nova-compute": {Category: DataPlaneHypervisor},
	"ceilometer":   {Category: DataPlaneNonHypervisor},

	"ceph-osd": {Category: CephFamily},
	"ceph-mon": {Category: CephFamily},

	"rabbitmq-server": {
		Category:        Auxiliary,
		LongIdleTimeout: true,
		TrackMap: map[TrackKey]string{
			{Series: "focal", Release: Ussuri}:   "3.8/stable",
			{Series: "focal", Release: Victoria}: "3.8/stable",
			{Series: "focal", Release: Wallaby}:  "3.8/stable",
			{Series: "focal", Release: Xena}:     "3.8/stable",
			{Series: "focal", Release: Yoga}:     "3.9/stable",
			{Series: "jammy", Release: Yoga}:     "3.9/stable",
			{Series: "jammy", Release: Zed}:      "3.9/stable",
			{Series: "jammy", Release: Antelope}: "3.9/stable",
			{Series: "jammy", Release: Bobcat}:   "3.9/stable",
			{Series: "jammy", Release: Caracal}:  "3.9/stable",
		},
	},
	"mysql-innodb-cluster": {
		Category:        Auxiliary,
		LongIdleTimeout: true,
		TrackMap: map[TrackKey]string{
			{Series: "focal", Release: Ussuri}:   "8.0/stable",
			{Series: "focal", Release: Victoria}: "8.0/stable",
			{Series: "focal", Release: Wallaby}:  "8.0/stable",
			{Series: "focal", Release: Xena}:     "8.0/stable",
			{Series: "focal", Release: Yoga}:     "8.0/stable",
			{Series: "jammy", Release: Yoga}:     "8.0/stable",
			{Series: "jammy", Release: Zed}:      "8.0/stable",
			{Series: "jammy", Release: Antelope}: "8.0/stable",
			{Series: "jammy", Release: Bobcat}:   "8.0/stable",
			{Series: "jammy", Release: Caracal}:  "8.0/stable",
		},
	},
	"mysql-router": {
		Category: Auxiliary,
		TrackMap: map[TrackKey]string{
			{Series: "focal", Release: Ussuri}:   "8.0/stable",
			{Series: "focal", Release: Victoria}: "8.0/stable",
			{Series: "focal", Release: Wallaby}:  "8.0/stable",
			{Series: "focal", Release: Xena}:     "8.0/stable",
			{Series: "focal", Release: Yoga}:     "8.0/stable",
			{Series: "jammy", Release: Yoga}:     "8.0/stable",
			{Series: "jammy", Release: Zed}:      "8.0/stable",
			{Series: "jammy", Release: Antelope}: "8.0/stable",
			{Series: "jammy", Release: Bobcat}:   "8.0/stable",
			{Series: "jammy", Release: Caracal}:  "8.0/stable",
		},
	},

	"vault": {Category: Special},
}

// SkipAllowList is the set of applications --skip-apps is allowed to
// name, currently just {vault}.
var SkipAllowList = map[string]bool{
	"vault": true,
}
