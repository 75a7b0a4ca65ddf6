// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package reconciler drives the hub workload towards the state described by
// the charm configuration and relation data. Every trigger from the model
// runs one reconciliation pass; passes never overlap.
package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"

	coreerrors "github.com/juju/beszel-operator/core/errors"
	"github.com/juju/beszel-operator/core/status"
	"github.com/juju/beszel-operator/internal/config"
	"github.com/juju/beszel-operator/internal/lock"
	"github.com/juju/beszel-operator/internal/relation"
	"github.com/juju/beszel-operator/internal/servicespec"
	"github.com/juju/beszel-operator/internal/workload"
)

// Logger represents the logging methods called.
type Logger interface {
	Debugf(message string, args ...any)
	Infof(message string, args ...any)
	Warningf(message string, args ...any)
	Errorf(message string, args ...any)
}

// Config holds the dependencies of a Controller.
type Config struct {
	Workload workload.Client
	Lock     lock.Lock
	Clock    clock.Clock
	Logger   Logger
	Metrics  *Metrics

	// HealthTimeout bounds the health probe run after each apply.
	HealthTimeout time.Duration

	// OpTimeout bounds every other call to the workload, and acquiring
	// the lock.
	OpTimeout time.Duration
}

// Validate ensures all the required values are set.
func (c Config) Validate() error {
	if c.Workload == nil {
		return errors.NotValidf("nil Workload")
	}
	if c.Lock == nil {
		return errors.NotValidf("nil Lock")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if c.Metrics == nil {
		return errors.NotValidf("nil Metrics")
	}
	if c.HealthTimeout <= 0 {
		return errors.NotValidf("non-positive HealthTimeout")
	}
	if c.OpTimeout <= 0 {
		return errors.NotValidf("non-positive OpTimeout")
	}
	return nil
}

// Controller owns the reconciliation state of a single hub workload.
type Controller struct {
	config Config

	// passMu serialises passes; mu guards state.
	passMu sync.Mutex
	mu     sync.Mutex
	state  State
}

// NewController returns a Controller in the Uninitialized phase.
func NewController(config Config) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Controller{
		config: config,
		state: State{
			Phase:  Uninitialized,
			Status: status.StatusInfo{Status: status.Unknown},
		},
	}, nil
}

// State returns a copy of the state left by the latest pass.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.copy()
}

// Reconcile runs one reconciliation pass for the trigger and returns the
// resulting state. It never fails: every problem becomes a phase and a
// status message.
func (c *Controller) Reconcile(ctx context.Context, trigger Trigger, snap Snapshot) State {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	prev := c.State()
	if err := trigger.Validate(); err != nil {
		c.config.Logger.Warningf("ignoring %v", err)
		return prev
	}
	if trigger == PebbleCheckFailed {
		// Pebble restarts the service itself.
		c.config.Logger.Warningf("health check %q failed, pebble will restart %q",
			servicespec.CheckName, servicespec.ServiceName)
		return prev
	}

	next := c.reconcile(ctx, trigger, snap, prev)
	if next.Status.Equal(prev.Status) {
		next.Status.Since = prev.Status.Since
	} else {
		now := c.config.Clock.Now()
		next.Status.Since = &now
		c.config.Logger.Infof("%s: %s", trigger, next.Status)
	}
	c.config.Metrics.observePass(trigger, next.Phase)

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()
	return next.copy()
}

func (c *Controller) reconcile(ctx context.Context, trigger Trigger, snap Snapshot, prev State) State {
	next := prev
	if trigger.forgetsPlan() {
		next.Applied = nil
	}

	if !c.canConnect(ctx) {
		next.Applied = nil
		return waiting(next, Waiting, status.MessageWaitForPebble)
	}
	if !snap.StorageAttached || trigger == StorageDetaching {
		return waiting(next, Waiting, status.MessageWaitForStorage)
	}

	cfg, err := config.Load(snap.Config, c.config.Logger)
	if err != nil {
		c.config.Logger.Debugf("invalid config: %v", err)
		return blocked(next, err.Error())
	}
	facts := relation.Resolve(cfg, snap.Relations)
	c.config.Logger.Debugf("relation facts: %v, %v, %v", facts.Ingress, facts.OAuth, facts.ObjectStorage)
	if err := checkRelations(cfg, facts); err != nil {
		return blocked(next, err.Error())
	}

	spec := servicespec.Build(servicespec.Inputs{
		Config:          cfg,
		OAuth:           facts.OAuth,
		ObjectStorage:   facts.ObjectStorage,
		StorageLocation: snap.StorageLocation,
	})

	changed := next.Applied == nil || !next.Applied.Equal(spec)
	if changed {
		if err := c.apply(ctx, trigger, spec); err != nil {
			if errors.Is(err, lockUnavailable) {
				return waiting(next, Waiting, status.MessageWaitForLock)
			}
			c.config.Logger.Warningf("applying service spec: %v", err)
			return waiting(next, Waiting, status.MessageWaitForPebble)
		}
		next.Applied = &spec
	} else if prev.Phase == Active && trigger != UpdateStatus {
		return healthy(next, facts)
	}

	switch c.config.Workload.ProbeHealth(ctx, c.config.HealthTimeout) {
	case workload.Healthy:
	case workload.Unreachable:
		return waiting(next, Waiting, status.MessageWaitForPebble)
	default:
		return waiting(next, Configuring, status.MessageWaitForHealthy)
	}
	if changed || next.Version == "" {
		next.Version = c.probeVersion(ctx)
	}
	return healthy(next, facts)
}

func (c *Controller) canConnect(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.config.OpTimeout)
	defer cancel()
	return c.config.Workload.CanConnect(ctx)
}

const lockUnavailable = errors.ConstError("lock unavailable")

func (c *Controller) apply(ctx context.Context, trigger Trigger, spec servicespec.ServiceSpec) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.OpTimeout)
	defer cancel()

	release, err := c.config.Lock.Acquire(ctx, lock.Spec{
		Worker:  "reconciler",
		Comment: string(trigger),
	})
	if err != nil {
		c.config.Logger.Warningf("%v", err)
		return errors.WithType(err, lockUnavailable)
	}
	defer release()

	err = c.config.Workload.ApplySpec(ctx, spec)
	c.config.Metrics.observeApply(err)
	if err != nil {
		return errors.Trace(err)
	}
	c.config.Logger.Infof("applied service spec with %d environment variables", len(spec.Environment))
	return nil
}

func (c *Controller) probeVersion(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, c.config.OpTimeout)
	defer cancel()
	version, err := c.config.Workload.ProbeVersion(ctx)
	if err != nil {
		c.config.Logger.Warningf("probing hub version: %v", err)
		return ""
	}
	return version
}

// checkRelations reports relation facts that block reconciliation.
func checkRelations(cfg *config.Config, facts relation.Facts) error {
	if facts.OAuth.Blocked {
		return errors.New(facts.OAuth.Reason)
	}
	if !cfg.S3BackupEnabled {
		return nil
	}
	if !facts.ObjectStorage.Related {
		return errors.WithType(
			errors.Errorf("%s requires the %s relation", config.S3BackupEnabledKey, relation.ObjectStorageEndpoint),
			coreerrors.RelationIncomplete)
	}
	if !facts.ObjectStorage.Ready {
		return errors.WithType(
			errors.Errorf("%s relation data incomplete", relation.ObjectStorageEndpoint),
			coreerrors.RelationIncomplete)
	}
	return nil
}

func healthy(s State, facts relation.Facts) State {
	if facts.OAuth.Related && !facts.OAuth.Ready {
		return waiting(s, Waiting, status.MessageWaitForOAuth)
	}
	s.Phase = Active
	s.Status = status.StatusInfo{Status: status.Active}
	return s
}

func waiting(s State, phase Phase, message string) State {
	s.Phase = phase
	s.Status = status.StatusInfo{Status: status.Waiting, Message: message}
	return s
}

func blocked(s State, message string) State {
	s.Phase = Blocked
	s.Status = status.StatusInfo{Status: status.Blocked, Message: message}
	return s
}
