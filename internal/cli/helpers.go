// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"strings"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/controller"
	"github.com/canonical/cou/internal/controller/juju"
)

// stringsValue implements gnuflag.Value, accumulating comma-separated
// values across one or more repeated occurrences of the same flag.
type stringsValue struct {
	target *[]string
}

func (v stringsValue) String() string {
	if v.target == nil {
		return ""
	}
	return strings.Join(*v.target, ",")
}

func (v stringsValue) Set(raw string) error {
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			*v.target = append(*v.target, item)
		}
	}
	return nil
}

func errTooManyArgs(extra []string) error {
	return errors.Errorf("unrecognized arguments: %s", strings.Join(extra, " "))
}

// connect resolves the active controller/model (honouring an explicit
// --model override) and returns the controller.Facade bound to it.
func connect(modelFlag string) (controller.Facade, error) {
	target, err := juju.ResolveTarget(modelFlag)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return juju.New(target), nil
}
