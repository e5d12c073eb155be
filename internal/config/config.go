// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config resolves the handful of environment variables that
// tune the Upgrader's retry and idle-wait behaviour, falling back to a
// documented default whenever a variable is unset and reporting an error
// when one is set to an unparsable value.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/juju/errors"
)

// Config is the fully-resolved set of tunables every run reads once at
// startup and threads down into internal/engine.Config and the
// controller façade's per-call timeouts.
type Config struct {
	// Timeout bounds a single retry call attempt (COU_TIMEOUT).
	Timeout time.Duration

	// ModelRetries is the number of attempts a retryable leaf step
	// gets before it is reported as failed (COU_MODEL_RETRIES).
	ModelRetries int

	// ModelRetryBackoff is the linear backoff unit applied as
	// backoff×attempt between retries (COU_MODEL_RETRY_BACKOFF).
	ModelRetryBackoff time.Duration

	// StandardIdleTimeout bounds wait_for_idle on applications without
	// the long-idle classification (COU_STANDARD_IDLE_TIMEOUT).
	StandardIdleTimeout time.Duration

	// LongIdleTimeout bounds wait_for_idle on applications catalog
	// classifies as long-idle (COU_LONG_IDLE_TIMEOUT).
	LongIdleTimeout time.Duration
}

// Default is the Config a run gets when none of the environment
// variables below are set.
var Default = Config{
	Timeout:             10 * time.Second,
	ModelRetries:        5,
	ModelRetryBackoff:   2 * time.Second,
	StandardIdleTimeout: 300 * time.Second,
	LongIdleTimeout:     2400 * time.Second,
}

// FromEnviron resolves Config from the process environment, starting
// from Default and overriding each field whose variable is set to a
// valid value. A variable set to something unparsable is reported as
// an error rather than silently ignored, so a typo in an operator's
// shell profile surfaces immediately instead of silently reverting to
// the default.
func FromEnviron() (Config, error) {
	cfg := Default

	if err := overrideDuration("COU_TIMEOUT", &cfg.Timeout); err != nil {
		return Config{}, err
	}
	if err := overrideInt("COU_MODEL_RETRIES", &cfg.ModelRetries); err != nil {
		return Config{}, err
	}
	if err := overrideDuration("COU_MODEL_RETRY_BACKOFF", &cfg.ModelRetryBackoff); err != nil {
		return Config{}, err
	}
	if err := overrideDuration("COU_STANDARD_IDLE_TIMEOUT", &cfg.StandardIdleTimeout); err != nil {
		return Config{}, err
	}
	if err := overrideDuration("COU_LONG_IDLE_TIMEOUT", &cfg.LongIdleTimeout); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// IdleTimeoutFor returns LongIdleTimeout when longIdle is true,
// StandardIdleTimeout otherwise. internal/strategy's wait_for_idle steps
// make the same choice from catalog.Descriptor.LongIdleTimeout through
// their own Options, not through this method.
func (c Config) IdleTimeoutFor(longIdle bool) time.Duration {
	if longIdle {
		return c.LongIdleTimeout
	}
	return c.StandardIdleTimeout
}

func overrideDuration(name string, dst *time.Duration) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Annotatef(err, "parsing %s=%q as a duration", name, raw)
	}
	if d <= 0 {
		return errors.Errorf("%s=%q: must be positive", name, raw)
	}
	*dst = d
	return nil
}

func overrideInt(name string, dst *int) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errors.Annotatef(err, "parsing %s=%q as an integer", name, raw)
	}
	if n <= 0 {
		return errors.Errorf("%s=%q: must be positive", name, raw)
	}
	*dst = n
	return nil
}
