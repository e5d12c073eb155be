// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package juju is the seam where a real controller.Facade implementation
// plugs in. The underlying controller client library is treated as an
// opaque capability surface and building the RPC implementation itself
// is out of scope for this tool; what this package provides is
// connection discovery — which controller and model to talk to —
// grounded on jujuclient's file-store shape via internal/jujuenv.
package juju

import (
	"context"
	"time"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/controller"
	"github.com/canonical/cou/internal/jujuenv"
	"github.com/canonical/cou/internal/topology"
)

// Target names the controller and model a Facade should operate
// against.
type Target struct {
	ControllerName string
	Details        jujuenv.ControllerDetails
	ModelName      string
}

// ResolveTarget discovers the active controller and model from the
// ambient juju configuration. modelFlag, if non-empty, overrides the
// persisted current model (the CLI's --model option).
func ResolveTarget(modelFlag string) (Target, error) {
	name, details, err := jujuenv.CurrentController()
	if err != nil {
		return Target{}, errors.Trace(err)
	}
	modelName := modelFlag
	if modelName == "" {
		modelName, err = jujuenv.CurrentModel(name)
		if err != nil {
			return Target{}, errors.Trace(err)
		}
	}
	if modelName == "" {
		return Target{}, errors.NotValidf("no model selected: pass --model or run 'juju switch'")
	}
	return Target{ControllerName: name, Details: details, ModelName: modelName}, nil
}

// facade is a controller.Facade that dials the Target resolved above.
// Every method below is the seam a real juju API client plugs into;
// none of them implement wire protocol.
type facade struct {
	target Target
}

// New returns a controller.Facade bound to target. Every call returns a
// NotImplemented error until a real juju API client is wired in here —
// this package exists to be the one place that wiring happens, not to
// fake it.
func New(target Target) controller.Facade {
	return &facade{target: target}
}

func (f *facade) notImplemented(op string) error {
	return errors.NotImplementedf("controller facade %s against %s/%s (RPC client out of scope)",
		op, f.target.ControllerName, f.target.ModelName)
}

func (f *facade) Status(ctx context.Context) (topology.RawStatus, error) {
	return topology.RawStatus{}, f.notImplemented("status")
}

func (f *facade) GetConfig(ctx context.Context, application string) (map[string]interface{}, error) {
	return nil, f.notImplemented("get-config")
}

func (f *facade) SetConfig(ctx context.Context, application, key string, value interface{}) error {
	return f.notImplemented("set-config")
}

func (f *facade) RefreshCharm(ctx context.Context, application string) error {
	return f.notImplemented("refresh-charm")
}

func (f *facade) SetChannel(ctx context.Context, application, track, risk string) error {
	return f.notImplemented("set-channel")
}

func (f *facade) RunAction(ctx context.Context, unit, action string, params map[string]interface{}) (controller.ActionResult, error) {
	return controller.ActionResult{}, f.notImplemented("run-action")
}

func (f *facade) RunOnUnit(ctx context.Context, unit, command string) (controller.CommandResult, error) {
	return controller.CommandResult{}, f.notImplemented("run-on-unit")
}

func (f *facade) WaitForIdle(ctx context.Context, scope controller.Scope, name string, timeout time.Duration) error {
	return f.notImplemented("wait-for-idle")
}
