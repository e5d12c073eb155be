// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package controllertest provides an in-memory controller.Facade for
// unit tests of the strategies (C4) and the step engine (C6), so those
// packages can be exercised without the out-of-scope RPC implementation.
package controllertest

import (
	"context"
	"sync"
	"time"

	"github.com/canonical/cou/internal/controller"
	"github.com/canonical/cou/internal/topology"
)

// Call records one invocation made against the Fake, in order.
type Call struct {
	Method      string
	Application string
	Unit        string
	Args        []interface{}
}

// Fake is a controller.Facade recording every call it receives, for
// assertions in strategy/engine tests.
type Fake struct {
	mu sync.Mutex

	Status_ topology.RawStatus
	Configs map[string]map[string]interface{}

	Calls []Call

	// Failures, keyed by method name, force that method to fail once
	// (then clear), modeling transient-connection errors for retry
	// tests.
	Failures map[string]error

	// IdleDelay simulates a wait_for_idle that takes time, so
	// cancellation-safety tests can interrupt mid-wait.
	IdleDelay time.Duration
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{Configs: map[string]map[string]interface{}{}, Failures: map[string]error{}}
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)
}

func (f *Fake) takeFailure(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err, ok := f.Failures[method]
	if ok {
		delete(f.Failures, method)
	}
	return err
}

func (f *Fake) Status(ctx context.Context) (topology.RawStatus, error) {
	f.record(Call{Method: "Status"})
	if err := f.takeFailure("Status"); err != nil {
		return topology.RawStatus{}, err
	}
	return f.Status_, nil
}

func (f *Fake) GetConfig(ctx context.Context, application string) (map[string]interface{}, error) {
	f.record(Call{Method: "GetConfig", Application: application})
	if err := f.takeFailure("GetConfig"); err != nil {
		return nil, err
	}
	return f.Configs[application], nil
}

func (f *Fake) SetConfig(ctx context.Context, application, key string, value interface{}) error {
	f.record(Call{Method: "SetConfig", Application: application, Args: []interface{}{key, value}})
	if err := f.takeFailure("SetConfig"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Configs[application] == nil {
		f.Configs[application] = map[string]interface{}{}
	}
	f.Configs[application][key] = value
	return nil
}

func (f *Fake) RefreshCharm(ctx context.Context, application string) error {
	f.record(Call{Method: "RefreshCharm", Application: application})
	return f.takeFailure("RefreshCharm")
}

func (f *Fake) SetChannel(ctx context.Context, application, track, risk string) error {
	f.record(Call{Method: "SetChannel", Application: application, Args: []interface{}{track, risk}})
	return f.takeFailure("SetChannel")
}

func (f *Fake) RunAction(ctx context.Context, unit, action string, params map[string]interface{}) (controller.ActionResult, error) {
	f.record(Call{Method: "RunAction:" + action, Unit: unit, Args: []interface{}{params}})
	if err := f.takeFailure("RunAction"); err != nil {
		return controller.ActionResult{}, err
	}
	return controller.ActionResult{Status: "completed"}, nil
}

func (f *Fake) RunOnUnit(ctx context.Context, unit, command string) (controller.CommandResult, error) {
	f.record(Call{Method: "RunOnUnit", Unit: unit, Args: []interface{}{command}})
	if err := f.takeFailure("RunOnUnit"); err != nil {
		return controller.CommandResult{}, err
	}
	return controller.CommandResult{ExitCode: 0}, nil
}

func (f *Fake) WaitForIdle(ctx context.Context, scope controller.Scope, name string, timeout time.Duration) error {
	f.record(Call{Method: "WaitForIdle", Application: name, Args: []interface{}{scope, timeout}})
	if f.IdleDelay > 0 {
		select {
		case <-time.After(f.IdleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.takeFailure("WaitForIdle")
}
