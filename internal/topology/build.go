// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package topology

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/names/v5"
)

// Build validates and converts a RawStatus into a Topology. It rejects a
// status that lacks required fields (charm name, channel, series) or
// that contains a unit whose workload-version is empty, surfacing a
// structured error identifying the application and unit.
func Build(raw RawStatus) (*Topology, error) {
	t := &Topology{
		Applications: map[string]*Application{},
		Machines:     map[string]*Machine{},
		Series:       raw.Model.Series,
	}

	for id, rm := range raw.Machines {
		t.Machines[id] = &Machine{
			ID:               id,
			AvailabilityZone: rm.AvailabilityZone,
			HostedApps:       map[string]bool{},
		}
	}

	for name, ra := range raw.Applications {
		app, err := buildApplication(name, ra, t.Machines)
		if err != nil {
			return nil, errors.Annotatef(err, "application %q", name)
		}
		t.Applications[name] = app
	}

	return t, nil
}

func buildApplication(name string, ra RawApplication, machines map[string]*Machine) (*Application, error) {
	if ra.Charm == "" {
		return nil, errors.NewNotValid(nil, "missing charm name")
	}
	if ra.Channel == "" {
		return nil, errors.NewNotValid(nil, "missing channel")
	}
	if ra.Series == "" {
		return nil, errors.NewNotValid(nil, "missing series")
	}
	appTag := names.NewApplicationTag(name)

	channel, err := parseChannel(ra.Channel)
	if err != nil {
		return nil, errors.Trace(err)
	}

	app := &Application{
		Name:            name,
		Tag:             appTag,
		Charm:           ra.Charm,
		Channel:         channel,
		Config:          ra.Config,
		Origin:          ra.Origin,
		Series:          ra.Series,
		SubordinateTo:   ra.SubordinateTo,
		Units:           map[string]*Unit{},
		Machines:        map[string]*Machine{},
		WorkloadVersion: ra.WorkloadVersion,
	}

	if len(ra.SubordinateTo) > 0 {
		// Subordinates carry their workload version at the application
		// level and inherit machines from each principal once the
		// caller wires relations in (see WireSubordinateMachines).
		if ra.WorkloadVersion == "" {
			return nil, errors.NewNotValid(nil, "subordinate: missing workload version")
		}
		return app, nil
	}

	for uname, ru := range ra.Units {
		if ru.WorkloadVersion == "" {
			return nil, errors.NewNotValid(nil, fmt.Sprintf("unit %q: empty workload-version", uname))
		}
		unitTag := names.NewUnitTag(uname)
		u := &Unit{
			Name:            uname,
			Tag:             unitTag,
			Application:     name,
			MachineID:       ru.MachineID,
			WorkloadVersion: ru.WorkloadVersion,
		}
		app.Units[uname] = u
		if m, ok := machines[ru.MachineID]; ok {
			app.Machines[m.ID] = m
			m.HostedApps[name] = true
		}
	}
	return app, nil
}

// WireSubordinateMachines propagates each principal's machines to every
// subordinate related to it: a subordinate inherits machines from each
// principal it relates to. Call this once Build has produced every
// application.
func WireSubordinateMachines(t *Topology) {
	for _, app := range t.Applications {
		if !app.IsSubordinate() {
			continue
		}
		for _, principalName := range app.SubordinateTo {
			principal, ok := t.Applications[principalName]
			if !ok {
				continue
			}
			for id, m := range principal.Machines {
				app.Machines[id] = m
			}
		}
	}
}

func parseChannel(s string) (Channel, error) {
	track, risk, ok := strings.Cut(s, "/")
	if !ok || track == "" {
		return Channel{}, errors.NotValidf("channel %q", s)
	}
	if risk == "" {
		risk = "stable"
	}
	return Channel{Track: track, Risk: risk}, nil
}
