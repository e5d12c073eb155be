// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package topology

// RawStatus is the shape returned by the controller façade's status()
// call — a simplified analog of juju's rpc/params
// FullStatus, carrying only the fields the Upgrader needs.
type RawStatus struct {
	Model        RawModel
	Machines     map[string]RawMachine
	Applications map[string]RawApplication
}

// RawModel carries model-wide facts the analyzer needs: the base series
// in effect.
type RawModel struct {
	Series string
}

// RawMachine is one machine entry of a status fetch.
type RawMachine struct {
	ID               string
	AvailabilityZone string
}

// RawUnit is one unit entry of a status fetch.
type RawUnit struct {
	Name            string
	MachineID       string
	WorkloadVersion string
}

// RawApplication is one application entry of a status fetch.
type RawApplication struct {
	Name          string
	Charm         string
	Channel       string // "track/risk"
	Series        string
	Origin        string
	Config        map[string]interface{}
	SubordinateTo []string
	Units         map[string]RawUnit

	// WorkloadVersion is set instead of Units for subordinates, which
	// report a workload version at the application level only in some
	// controller versions; kept here for parity with that behavior.
	WorkloadVersion string
}
