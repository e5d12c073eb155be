// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package strategy

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/catalog"
	"github.com/canonical/cou/internal/plan"
	"github.com/canonical/cou/internal/topology"
)

// Subordinate builds the reduced sequence for a subordinate
// application: there are no units to patch or pause directly, and no
// model-wide idle or workload check since the subordinate rides along
// with its principal. Only charm refresh and channel switch apply.
func Subordinate(app *topology.Application, d catalog.Descriptor, opts Options) (*plan.Step, error) {
	switchStep, err := switchChannel(app, d, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return plan.Group(fmt.Sprintf("upgrade plan for %s to %s", app.Name, opts.Target),
		refreshCharm(app, opts),
		switchStep,
	), nil
}
