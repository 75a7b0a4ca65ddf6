// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package reconciler

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"
)

// Reconciler runs reconciliation passes.
type Reconciler interface {
	Reconcile(ctx context.Context, trigger Trigger, snap Snapshot) State
}

// WorkerConfig holds the dependencies of the trigger loop.
type WorkerConfig struct {
	Reconciler Reconciler

	// Events delivers triggers. The worker stops when it is closed.
	Events <-chan Event

	Clock  clock.Clock
	Logger Logger

	// UpdateStatusInterval is how long the worker waits after the last
	// pass before firing update-status with the last snapshot seen.
	UpdateStatusInterval time.Duration
}

// Validate ensures all the required values are set.
func (config WorkerConfig) Validate() error {
	if config.Reconciler == nil {
		return errors.NotValidf("nil Reconciler")
	}
	if config.Events == nil {
		return errors.NotValidf("nil Events")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.UpdateStatusInterval <= 0 {
		return errors.NotValidf("non-positive UpdateStatusInterval")
	}
	return nil
}

type triggerWorker struct {
	catacomb catacomb.Catacomb
	config   WorkerConfig
}

// NewWorker returns a worker that feeds every event to the reconciler, one
// at a time, in the order received.
func NewWorker(config WorkerConfig) (worker.Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	w := &triggerWorker{config: config}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *triggerWorker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *triggerWorker) Wait() error {
	return w.catacomb.Wait()
}

func (w *triggerWorker) loop() error {
	ctx := w.catacomb.Context(context.Background())

	timer := w.config.Clock.NewTimer(w.config.UpdateStatusInterval)
	defer timer.Stop()

	var last *Snapshot
	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case event, ok := <-w.config.Events:
			if !ok {
				w.config.Logger.Debugf("event stream closed")
				return nil
			}
			w.reconcile(ctx, event.Trigger, event.Snapshot)
			snap := event.Snapshot
			last = &snap
			timer.Reset(w.config.UpdateStatusInterval)
		case <-timer.Chan():
			if last != nil {
				w.reconcile(ctx, UpdateStatus, *last)
			}
			timer.Reset(w.config.UpdateStatusInterval)
		}
	}
}

func (w *triggerWorker) reconcile(ctx context.Context, trigger Trigger, snap Snapshot) {
	w.config.Logger.Debugf("reconciling for %s", trigger)
	state := w.config.Reconciler.Reconcile(ctx, trigger, snap)
	w.config.Logger.Debugf("%s pass finished in phase %s (%s)", trigger, state.Phase, state.Status)
}
