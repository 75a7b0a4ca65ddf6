// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/juju/beszel-operator/internal/reconciler"
)

const runDoc = `
Run reconciles the hub workload whenever the snapshot file changes, and
every --update-status-interval otherwise. Metrics and the current state are
served over HTTP on --metrics-addr.
`

type runCommand struct {
	workloadFlags

	metricsAddr          string
	updateStatusInterval time.Duration
	healthTimeout        time.Duration
	opTimeout            time.Duration
}

// Info is part of the Command interface.
func (c *runCommand) Info() *Info {
	return &Info{
		Name:        "run",
		Purpose:     "run the reconciliation loop",
		Doc:         runDoc,
		Intersperse: true,
	}
}

// SetFlags is part of the Command interface.
func (c *runCommand) SetFlags(f *gnuflag.FlagSet) {
	c.workloadFlags.setFlags(f)
	f.StringVar(&c.metricsAddr, "metrics-addr", ":9101", "address to serve /metrics and /state on")
	f.DurationVar(&c.updateStatusInterval, "update-status-interval", 5*time.Minute, "how often to re-check the workload")
	f.DurationVar(&c.healthTimeout, "health-timeout", 10*time.Second, "how long to wait for a health probe")
	f.DurationVar(&c.opTimeout, "op-timeout", 30*time.Second, "how long to wait for any other workload call")
}

// Init is part of the Command interface.
func (c *runCommand) Init(args []string) error {
	if err := c.workloadFlags.validate(); err != nil {
		return errors.Trace(err)
	}
	return checkEmpty(args)
}

// Run is part of the Command interface.
func (c *runCommand) Run(_ *Context) error {
	snap, err := readSnapshot(c.snapshotPath)
	if err != nil {
		return errors.Trace(err)
	}
	client, err := newWorkloadClient(c.pebbleSocket)
	if err != nil {
		return errors.Trace(err)
	}
	hostLock, err := newHostLock(snap.Application)
	if err != nil {
		return errors.Trace(err)
	}

	metrics := reconciler.NewMetrics()
	controller, err := reconciler.NewController(reconciler.Config{
		Workload:      client,
		Lock:          hostLock,
		Clock:         clock.WallClock,
		Logger:        loggo.GetLogger("beszel.reconciler"),
		Metrics:       metrics,
		HealthTimeout: c.healthTimeout,
		OpTimeout:     c.opTimeout,
	})
	if err != nil {
		return errors.Trace(err)
	}

	watcher, err := newSnapshotWatcher(c.snapshotPath)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = worker.Stop(watcher) }()

	loop, err := reconciler.NewWorker(reconciler.WorkerConfig{
		Reconciler:           controller,
		Events:               watcher.Events(),
		Clock:                clock.WallClock,
		Logger:               loggo.GetLogger("beszel.reconciler"),
		UpdateStatusInterval: c.updateStatusInterval,
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = worker.Stop(loop) }()

	registry := prometheus.NewRegistry()
	if err := registry.Register(metrics); err != nil {
		return errors.Trace(err)
	}
	listener, err := net.Listen("tcp", c.metricsAddr)
	if err != nil {
		return errors.Annotatef(err, "listening on %q", c.metricsAddr)
	}
	server := &http.Server{
		Handler:           newRouter(registry, controller),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server: %v", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return waitForWorkers(ctx, loop, watcher)
}

// waitForWorkers blocks until ctx is done or either worker stops. The
// reconciler loop ends cleanly when the watcher closes its events, so a
// clean loop exit is reported with the watcher's error.
func waitForWorkers(ctx context.Context, loop, watcher worker.Worker) error {
	loopDead := make(chan error, 1)
	go func() { loopDead <- loop.Wait() }()
	watcherDead := make(chan error, 1)
	go func() { watcherDead <- watcher.Wait() }()

	select {
	case <-ctx.Done():
		logger.Infof("shutting down")
		return nil
	case err := <-watcherDead:
		return watcherStopped(err)
	case err := <-loopDead:
		if err != nil {
			return errors.Annotate(err, "reconciler stopped")
		}
		return watcherStopped(<-watcherDead)
	}
}

func watcherStopped(err error) error {
	if err == nil {
		return errors.New("snapshot watcher stopped")
	}
	return errors.Annotate(err, "watching snapshot")
}

// stateReader exposes the controller's current state.
type stateReader interface {
	State() reconciler.State
}

func newRouter(gatherer prometheus.Gatherer, states stateReader) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/state", func(w http.ResponseWriter, _ *http.Request) {
		state := states.State()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"phase":   string(state.Phase),
			"status":  string(state.Status.Status),
			"message": state.Status.Message,
			"version": state.Version,
		})
	}).Methods(http.MethodGet)
	return router
}
