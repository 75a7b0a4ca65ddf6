// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package lock serialises the operator's work against the workload. Hook
// reconciliation and action handlers all take the same host-wide lock, so
// at most one of them talks to the workload at a time.
package lock

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/mutex/v2"
)

// Logger represents the logging methods called.
type Logger interface {
	Debugf(message string, args ...any)
}

// Spec describes who is acquiring the lock and why.
type Spec struct {
	// Worker names the component taking the lock.
	Worker string

	// Comment is recorded in the debug log while the lock is held.
	Comment string
}

// Lock is a mutual exclusion lock shared by every operator process on the
// host.
type Lock interface {
	// Acquire blocks until the lock is held or ctx is done. The returned
	// func releases the lock.
	Acquire(ctx context.Context, spec Spec) (func(), error)
}

// Config holds the dependencies of a host lock.
type Config struct {
	// AgentName is used to build the lock name.
	AgentName string
	Clock     clock.Clock
	Logger    Logger

	// Delay is how often acquisition is retried while the lock is held
	// elsewhere.
	Delay time.Duration
}

// Validate ensures all the required values are set.
func (c Config) Validate() error {
	if c.AgentName == "" {
		return errors.NotValidf("missing AgentName")
	}
	if c.Clock == nil {
		return errors.NotValidf("missing Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("missing Logger")
	}
	if c.Delay <= 0 {
		return errors.NotValidf("non-positive Delay")
	}
	return nil
}

type hostLock struct {
	name   string
	clock  clock.Clock
	logger Logger
	delay  time.Duration

	acquire func(mutex.Spec) (mutex.Releaser, error)
}

// New returns a Lock backed by an OS-level named mutex.
func New(config Config) (Lock, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &hostLock{
		name:    lockName(config.AgentName),
		clock:   config.Clock,
		logger:  config.Logger,
		delay:   config.Delay,
		acquire: mutex.Acquire,
	}, nil
}

// Acquire is part of the Lock interface.
func (l *hostLock) Acquire(ctx context.Context, spec Spec) (func(), error) {
	l.logger.Debugf("acquire lock %q for %s (%s)", l.name, spec.Worker, spec.Comment)
	releaser, err := l.acquire(mutex.Spec{
		Name:   l.name,
		Clock:  l.clock,
		Delay:  l.delay,
		Cancel: ctx.Done(),
	})
	if errors.Is(err, mutex.ErrCancelled) {
		return nil, errors.Annotatef(ctx.Err(), "acquiring lock for %s", spec.Worker)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "acquiring lock for %s", spec.Worker)
	}
	start := l.clock.Now()
	l.logger.Debugf("lock %q acquired for %s", l.name, spec.Worker)
	return func() {
		releaser.Release()
		l.logger.Debugf("lock %q released for %s after %s", l.name, spec.Worker, l.clock.Now().Sub(start))
	}, nil
}

// lockName derives a mutex name from the agent name. Mutex names only allow
// lower case letters, digits, dots and hyphens, must start with a letter,
// and are limited to 40 characters.
func lockName(agent string) string {
	name := make([]byte, 0, len(agent)+len("beszel-"))
	name = append(name, "beszel-"...)
	for _, r := range []byte(agent) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			name = append(name, r)
		case r >= 'A' && r <= 'Z':
			name = append(name, r+'a'-'A')
		default:
			name = append(name, '-')
		}
	}
	if len(name) > 40 {
		name = name[:40]
	}
	return string(name)
}
