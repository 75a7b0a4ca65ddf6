// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package reconciler

import (
	"context"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	gc "gopkg.in/check.v1"
)

const (
	shortWait = 50 * time.Millisecond
	longWait  = 10 * time.Second
)

type pass struct {
	trigger Trigger
	snap    Snapshot
}

type recordingReconciler struct {
	passes chan pass
}

func (r *recordingReconciler) Reconcile(_ context.Context, trigger Trigger, snap Snapshot) State {
	r.passes <- pass{trigger: trigger, snap: snap}
	return State{Phase: Active}
}

type workerSuite struct {
	testing.IsolationSuite

	clock      *testclock.Clock
	events     chan Event
	reconciler *recordingReconciler
}

var _ = gc.Suite(&workerSuite{})

func (s *workerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.clock = testclock.NewClock(time.Now())
	s.events = make(chan Event)
	s.reconciler = &recordingReconciler{passes: make(chan pass, 10)}
}

func (s *workerSuite) config() WorkerConfig {
	return WorkerConfig{
		Reconciler:           s.reconciler,
		Events:               s.events,
		Clock:                s.clock,
		Logger:               loggo.GetLogger("test"),
		UpdateStatusInterval: 5 * time.Minute,
	}
}

func (s *workerSuite) TestValidateConfig(c *gc.C) {
	for i, test := range []struct {
		mutate func(*WorkerConfig)
		err    string
	}{{
		mutate: func(cfg *WorkerConfig) { cfg.Reconciler = nil },
		err:    "nil Reconciler not valid",
	}, {
		mutate: func(cfg *WorkerConfig) { cfg.Events = nil },
		err:    "nil Events not valid",
	}, {
		mutate: func(cfg *WorkerConfig) { cfg.Clock = nil },
		err:    "nil Clock not valid",
	}, {
		mutate: func(cfg *WorkerConfig) { cfg.Logger = nil },
		err:    "nil Logger not valid",
	}, {
		mutate: func(cfg *WorkerConfig) { cfg.UpdateStatusInterval = 0 },
		err:    "non-positive UpdateStatusInterval not valid",
	}} {
		c.Logf("test %d", i)
		cfg := s.config()
		test.mutate(&cfg)
		_, err := NewWorker(cfg)
		c.Check(err, gc.ErrorMatches, test.err)
		c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
	}
}

func (s *workerSuite) TestStartStop(c *gc.C) {
	w, err := NewWorker(s.config())
	c.Assert(err, jc.ErrorIsNil)
	workertest.CheckAlive(c, w)
	workertest.CleanKill(c, w)
}

func (s *workerSuite) TestEventsReconciledInOrder(c *gc.C) {
	w, err := NewWorker(s.config())
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.CleanKill(c, w)

	s.send(c, Event{Trigger: StorageAttached, Snapshot: Snapshot{Application: "a"}})
	s.send(c, Event{Trigger: ConfigChanged, Snapshot: Snapshot{Application: "b"}})

	s.expectPass(c, StorageAttached, "a")
	s.expectPass(c, ConfigChanged, "b")
}

func (s *workerSuite) TestUpdateStatusUsesLastSnapshot(c *gc.C) {
	w, err := NewWorker(s.config())
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.CleanKill(c, w)

	s.send(c, Event{Trigger: ConfigChanged, Snapshot: Snapshot{Application: "beszel"}})
	s.expectPass(c, ConfigChanged, "beszel")

	err = s.clock.WaitAdvance(5*time.Minute, longWait, 1)
	c.Assert(err, jc.ErrorIsNil)
	s.expectPass(c, UpdateStatus, "beszel")
}

func (s *workerSuite) TestUpdateStatusWithoutSnapshotDoesNothing(c *gc.C) {
	w, err := NewWorker(s.config())
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.CleanKill(c, w)

	err = s.clock.WaitAdvance(5*time.Minute, longWait, 1)
	c.Assert(err, jc.ErrorIsNil)
	s.expectNoPass(c)
}

func (s *workerSuite) TestClosedEventsStopsWorker(c *gc.C) {
	w, err := NewWorker(s.config())
	c.Assert(err, jc.ErrorIsNil)

	close(s.events)
	err = workertest.CheckKilled(c, w)
	c.Check(err, jc.ErrorIsNil)
}

func (s *workerSuite) send(c *gc.C, event Event) {
	select {
	case s.events <- event:
	case <-time.After(longWait):
		c.Fatalf("timed out sending %s", event.Trigger)
	}
}

func (s *workerSuite) expectPass(c *gc.C, trigger Trigger, app string) {
	select {
	case p := <-s.reconciler.passes:
		c.Check(p.trigger, gc.Equals, trigger)
		c.Check(p.snap.Application, gc.Equals, app)
	case <-time.After(longWait):
		c.Fatalf("timed out waiting for %s", trigger)
	}
}

func (s *workerSuite) expectNoPass(c *gc.C) {
	select {
	case p := <-s.reconciler.passes:
		c.Fatalf("unexpected %s pass", p.trigger)
	case <-time.After(shortWait):
	}
}
