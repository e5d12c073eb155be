// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package engine executes a *plan.Step tree against a
// controller.Facade: sequential groups run their children in declared
// order, parallel groups fan out with errgroup, leaf retries go
// through juju/retry with linear backoff, and a single catacomb bounds
// every goroutine the run starts so a hard cancel tears them all down
// together. The two-level interrupt protocol itself lives in
// signals.go.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4/catacomb"
	"golang.org/x/sync/errgroup"

	"github.com/canonical/cou/internal/plan"
)

var logger = loggo.GetLogger("cou.engine")

// errHardCancelled is the death reason recorded on the engine's
// catacomb by a second interrupt signal; Outcome reports it as
// CancelledAbruptly rather than a plain Failed.
var errHardCancelled = errors.New("cancelled abruptly: in-flight steps abandoned")

// Outcome classifies how Run finished, beyond the error it returns.
// internal/cli maps this to the process exit codes cou's usage
// documents (0 success, 2 upgrade failure, 130 cancelled safely, 137
// aborted).
type Outcome int

const (
	Succeeded Outcome = iota
	Failed
	CancelledSafely
	CancelledAbruptly
	Terminated
)

// Confirmer gates entry into each top-level application upgrade
// subtree in interactive mode.
type Confirmer interface {
	Confirm(description string) (bool, error)
}

// Config carries everything a run needs beyond the plan tree itself.
type Config struct {
	Retries      int
	RetryBackoff time.Duration
	// CallTimeout bounds a single retry attempt, independent of
	// step.Timeout (which, when set, bounds the whole leaf including
	// every retry — used by long-running waits, not by retryable
	// calls).
	CallTimeout time.Duration
	Clock       clock.Clock

	// AutoApprove skips Confirm entirely, as --auto-approve does, and
	// as `cou plan` does implicitly (it never calls Run at all).
	AutoApprove bool
	Confirm     Confirmer
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = clock.WallClock
	}
	if c.Retries == 0 {
		c.Retries = 5
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 2 * time.Second
	}
	return c
}

func (c Config) retry() retryPolicy {
	return retryPolicy{Attempts: c.Retries, Backoff: c.RetryBackoff, CallTimeout: c.CallTimeout, Clock: c.Clock}
}

// Engine runs one plan tree to completion (or cancellation). A fresh
// Engine is required per run: its catacomb cannot be reused once it
// has died.
type Engine struct {
	cfg      Config
	catacomb catacomb.Catacomb
}

// New returns an Engine ready to Run a plan tree against facade's
// leaves (the facade itself is reached only through the Actions the
// plan package already closed over; Engine never calls it directly).
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Kill implements the hard-cancel half of the interrupt protocol: it
// stops the engine's catacomb with errHardCancelled, which cancels the
// context every in-flight leaf's Action was called with.
func (e *Engine) Kill() {
	e.catacomb.Kill(errHardCancelled)
}

// Run executes root to completion. soft is closed to signal the first
// interrupt: no new leaf or subtree starts after that point, but
// leaves already running are left to finish naturally. A hard cancel
// is delivered separately, via Kill.
func (e *Engine) Run(ctx context.Context, root *plan.Step, soft <-chan struct{}) (Outcome, error) {
	if isClosed(soft) {
		return Terminated, errors.New("interrupted before execution started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := catacomb.Invoke(catacomb.Plan{
		Site: &e.catacomb,
		Work: func() error {
			return e.execute(runCtx, root, soft)
		},
	})
	if err != nil {
		return Failed, errors.Trace(err)
	}

	go func() {
		<-e.catacomb.Dying()
		cancel()
	}()

	runErr := e.catacomb.Wait()
	return outcome(soft, runErr), runErr
}

func outcome(soft <-chan struct{}, err error) Outcome {
	switch {
	case errors.Cause(err) == errHardCancelled:
		return CancelledAbruptly
	case err != nil:
		return Failed
	case isClosed(soft):
		return CancelledSafely
	default:
		return Succeeded
	}
}

// execute dispatches step to the handler matching its shape, after
// checking the soft-cancel gate every node must pass before it is
// allowed to start.
func (e *Engine) execute(ctx context.Context, step *plan.Step, soft <-chan struct{}) error {
	if isClosed(soft) {
		markCancelled(step)
		return nil
	}
	switch {
	case step.IsLeaf():
		return e.runLeaf(ctx, step)
	case step.Parallel:
		return e.runParallel(ctx, step, soft)
	default:
		return e.runSequential(ctx, step, soft)
	}
}

// isTopLevelPlanSubtree reports whether step is one of the per-application
// groups ("upgrade plan for X to Y") strategy.Principal/Subordinate/
// Hypervisor/Ceph build — the granularity interactive mode gates on.
func isTopLevelPlanSubtree(step *plan.Step) bool {
	return strings.HasPrefix(step.Description, "upgrade plan for ")
}

func (e *Engine) confirmed(step *plan.Step) (bool, error) {
	if e.cfg.AutoApprove || e.cfg.Confirm == nil || !isTopLevelPlanSubtree(step) {
		return true, nil
	}
	ok, err := e.cfg.Confirm.Confirm(step.Description)
	return ok, errors.Trace(err)
}

// runSequential runs group's children in declared order. A child whose
// OnFail policy is the default Abort stops the remaining siblings
// (marked Cancelled); SkipChildren and RecordAndContinue record the
// failure but let the rest of the group proceed. Declining the
// confirmation prompt ahead of a top-level plan subtree soft-cancels
// that subtree and every later sibling, exactly like the first
// interrupt signal would.
func (e *Engine) runSequential(ctx context.Context, group *plan.Step, soft <-chan struct{}) error {
	group.State = plan.Running
	var firstErr error
	declined := false

	for _, child := range group.Children {
		if declined || isClosed(soft) {
			markCancelled(child)
			continue
		}

		ok, err := e.confirmed(child)
		if err != nil {
			return errors.Trace(err)
		}
		if !ok {
			markCancelled(child)
			declined = true
			continue
		}

		if err := e.execute(ctx, child, soft); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if child.OnFail == plan.Abort {
				declined = true
			}
		}
	}

	group.Err = firstErr
	group.State = terminalState(group, soft, firstErr)
	return firstErr
}

// runParallel fans group's children out concurrently and waits for all
// of them: a failing sibling never preempts the others, only the
// interrupt protocol (soft gate before start, ctx cancellation once
// running) does.
func (e *Engine) runParallel(ctx context.Context, group *plan.Step, soft <-chan struct{}) error {
	group.State = plan.Running

	var g errgroup.Group
	for _, child := range group.Children {
		child := child
		g.Go(func() error {
			return e.execute(ctx, child, soft)
		})
	}
	err := g.Wait()

	group.Err = err
	group.State = terminalState(group, soft, err)
	return err
}

// runLeaf invokes step's Action, under step.Timeout if one is set and
// through the retry policy if step.Retry is set.
func (e *Engine) runLeaf(ctx context.Context, step *plan.Step) error {
	step.State = plan.Running

	callCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	var err error
	if step.Retry {
		err = e.cfg.retry().call(callCtx, step.Action, func(attemptErr error, attempt int) {
			step.RetryCount = attempt
			logger.Debugf("retrying %q (attempt %d): %v", step.Description, attempt, attemptErr)
		})
	} else {
		err = step.Action(callCtx)
	}

	step.Err = err
	switch {
	case err == nil:
		step.State = plan.Done
	case errors.Cause(err) == context.Canceled:
		step.State = plan.Aborted
	default:
		step.State = plan.Failed
	}
	return err
}

func terminalState(group *plan.Step, soft <-chan struct{}, err error) plan.State {
	switch {
	case err != nil:
		return plan.Failed
	case isClosed(soft):
		return plan.Cancelled
	default:
		return plan.Done
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// markCancelled marks step and every descendant still Pending as
// Cancelled, leaving anything already terminal untouched.
func markCancelled(step *plan.Step) {
	step.Walk(func(n *plan.Step) {
		if n.State == plan.Pending {
			n.State = plan.Cancelled
		}
	})
}

