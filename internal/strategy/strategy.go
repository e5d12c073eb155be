// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package strategy builds the per-application upgrade group step: the
// ordered (or partly parallel) sub-steps one application's upgrade
// decomposes into. Selection is a lookup on category and charm name,
// never a type switch on an *topology.Application subtype, so adding a
// charm-specific variant never requires touching the topology or
// catalog packages.
package strategy

import (
	"time"

	"github.com/canonical/cou/internal/catalog"
	"github.com/canonical/cou/internal/controller"
	"github.com/canonical/cou/internal/plan"
	"github.com/canonical/cou/internal/topology"
)

// Options carries everything a Strategy needs to build Steps, beyond
// the application and its descriptor.
type Options struct {
	Catalog  *catalog.Catalog
	Facade   controller.Facade
	Topology *topology.Topology

	Series string
	Target catalog.Release

	StandardIdleTimeout time.Duration
	LongIdleTimeout     time.Duration

	// Force skips the "no VMs hosted" safety check before pausing a
	// hypervisor unit.
	Force bool

	// SkipApps names applications whose strategy is an explanatory
	// no-op, restricted by the caller to catalog.SkipAllowList.
	SkipApps map[string]bool
}

// idleTimeout returns the wait-for-idle timeout for d: long-idle
// charms wait longer than the default to settle.
func (o Options) idleTimeout(d catalog.Descriptor) time.Duration {
	if d.LongIdleTimeout {
		return o.LongIdleTimeout
	}
	return o.StandardIdleTimeout
}

// Strategy builds the upgrade group Step for one application.
type Strategy func(app *topology.Application, d catalog.Descriptor, opts Options) (*plan.Step, error)

// Select returns the Strategy that applies to charmName given its
// category. charmName drives two kinds of override the category alone
// cannot express: the skip-apps allow-list, and name-specific variants
// (ceph-mon/ceph-osd share CephFamily but only ceph-mon does the
// require-osd-release reconciliation, handled in the plan builder
// rather than here).
func Select(category catalog.Category, charmName string, opts Options) Strategy {
	if opts.SkipApps[charmName] {
		return Skip
	}
	switch category {
	case catalog.ControlPlaneSubordinate, catalog.DataPlaneSubordinate:
		return Subordinate
	case catalog.DataPlaneHypervisor:
		return Hypervisor
	case catalog.CephFamily:
		return Ceph
	default:
		return Principal
	}
}
