// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package strategy

import (
	"fmt"

	"github.com/canonical/cou/internal/catalog"
	"github.com/canonical/cou/internal/plan"
	"github.com/canonical/cou/internal/topology"
)

// Skip builds an empty group with an explanatory description, for
// applications named by --skip-apps.
func Skip(app *topology.Application, d catalog.Descriptor, opts Options) (*plan.Step, error) {
	return plan.Group(fmt.Sprintf("skipping %s: excluded by --skip-apps", app.Name)), nil
}
