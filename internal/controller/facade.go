// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package controller defines the narrow capability surface the engine
// depends on. The implementation behind this
// interface is an external collaborator and out of scope for this
// repository; what lives here is the contract, the error
// taxonomy, and — in the juju subpackage — the thin connection-discovery
// seam a real implementation plugs into.
package controller

import (
	"context"
	"time"

	"github.com/canonical/cou/internal/topology"
)

// Scope selects what wait_for_idle waits on.
type Scope int

const (
	ScopeApplication Scope = iota
	ScopeModel
)

// ActionResult is the result of an action invocation.
type ActionResult struct {
	Status  string
	Output  map[string]interface{}
	Message string
}

// CommandResult is the result of running a command on a unit.
type CommandResult struct {
	Stdout   string
	ExitCode int
}

// Facade is the capability surface C6 (the step engine) depends on to
// effect a plan against a real cloud. All calls are asynchronous and
// cancellable; every implementation must return promptly on ctx
// cancellation — each call is a suspension point of the cooperative
// scheduler.
type Facade interface {
	// Status fetches a fresh RawStatus, consumed by internal/topology.
	Status(ctx context.Context) (topology.RawStatus, error)

	GetConfig(ctx context.Context, application string) (map[string]interface{}, error)
	SetConfig(ctx context.Context, application, key string, value interface{}) error

	RefreshCharm(ctx context.Context, application string) error
	SetChannel(ctx context.Context, application, track, risk string) error

	RunAction(ctx context.Context, unit, action string, params map[string]interface{}) (ActionResult, error)
	RunOnUnit(ctx context.Context, unit, command string) (CommandResult, error)

	WaitForIdle(ctx context.Context, scope Scope, name string, timeout time.Duration) error
}
