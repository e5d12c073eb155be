// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package topology is the in-memory snapshot of the cloud (C2): machines,
// applications, units, subordinates — a typed view over one status fetch
// from the controller façade, before any release has been derived.
package topology

import (
	"sort"

	"github.com/juju/names/v5"

	"github.com/canonical/cou/internal/catalog"
)

// Channel identifies a charm revision stream: a (track, risk) pair. The
// Upgrader switches tracks, never risks.
type Channel struct {
	Track string
	Risk  string
}

func (c Channel) String() string {
	if c.Risk == "" {
		return c.Track
	}
	return c.Track + "/" + c.Risk
}

// Machine is one host in the cloud, grouped into an availability zone.
type Machine struct {
	ID               string
	AvailabilityZone string
	HostedApps       map[string]bool
}

// Unit is one unit of an application.
type Unit struct {
	Name            string
	Tag             names.UnitTag
	Application     string
	MachineID       string
	WorkloadVersion string

	// DerivedRelease is computed by the analyzer (C3) by matching
	// WorkloadVersion against the application's charm descriptor. It is
	// the zero value until analysis has run.
	DerivedRelease catalog.Release
}

// Application is one deployed charm.
type Application struct {
	Name    string
	Tag     names.ApplicationTag
	Charm   string
	Channel Channel
	Config  map[string]interface{}
	Origin  string
	Series  string

	// SubordinateTo lists the principal applications this application
	// is related to as a subordinate. Empty means this is a principal.
	SubordinateTo []string

	Units    map[string]*Unit
	Machines map[string]*Machine

	WorkloadVersion string
	DerivedRelease  catalog.Release
}

// IsSubordinate reports whether this application has no units of its
// own and instead rides along with a principal's units.
func (a *Application) IsSubordinate() bool {
	return len(a.SubordinateTo) > 0
}

// Topology is a validated, typed view of one status fetch: the
// applications and machines of a model, before release derivation.
type Topology struct {
	Applications map[string]*Application
	Machines     map[string]*Machine
	Series       string
}

// ApplicationsInAZ returns the principal applications that have at
// least one unit on a machine in az.
func (t *Topology) ApplicationsInAZ(az string) []*Application {
	var out []*Application
	for _, app := range t.Applications {
		for _, u := range app.Units {
			if m, ok := t.Machines[u.MachineID]; ok && m.AvailabilityZone == az {
				out = append(out, app)
				break
			}
		}
	}
	return out
}

// AvailabilityZones returns the distinct AZ names present in the
// topology, sorted ascending.
func (t *Topology) AvailabilityZones() []string {
	seen := map[string]bool{}
	for _, m := range t.Machines {
		if m.AvailabilityZone != "" {
			seen[m.AvailabilityZone] = true
		}
	}
	zones := make([]string, 0, len(seen))
	for z := range seen {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}
