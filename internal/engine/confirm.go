// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package engine

// autoApprove is the Confirmer that answers yes to everything. The
// engine itself does not use it: with Config.AutoApprove set or
// Config.Confirm left nil, it skips the prompt without calling any
// Confirmer.
type autoApprove struct{}

func (autoApprove) Confirm(string) (bool, error) { return true, nil }

// AutoApprove is the always-yes Confirmer.
var AutoApprove Confirmer = autoApprove{}
