// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"net/http"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"

	"github.com/juju/beszel-operator/internal/lock"
	"github.com/juju/beszel-operator/internal/s3client"
	"github.com/juju/beszel-operator/internal/workload"
)

const (
	defaultPebbleSocket = "/charm/containers/beszel/pebble.socket"
	lockDelay           = 250 * time.Millisecond
)

// workloadFlags are the flags shared by commands talking to the workload.
type workloadFlags struct {
	snapshotPath string
	pebbleSocket string
}

func (f *workloadFlags) setFlags(fs *gnuflag.FlagSet) {
	fs.StringVar(&f.snapshotPath, "snapshot", "", "path to the model snapshot file")
	fs.StringVar(&f.pebbleSocket, "pebble-socket", defaultPebbleSocket, "path to the workload's Pebble socket")
}

func (f *workloadFlags) validate() error {
	if f.snapshotPath == "" {
		return errors.NotValidf("missing --snapshot")
	}
	return nil
}

func newWorkloadClient(socket string) (workload.Client, error) {
	api, err := workload.NewPebbleAPI(socket)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return workload.NewPebbleClient(api, loggo.GetLogger("beszel.workload")), nil
}

func newHostLock(application string) (lock.Lock, error) {
	return lock.New(lock.Config{
		AgentName: application,
		Clock:     clock.WallClock,
		Logger:    loggo.GetLogger("beszel.lock"),
		Delay:     lockDelay,
	})
}

func newS3Session(creds s3client.Credentials) (s3client.Session, error) {
	return s3client.NewSession(creds, http.DefaultClient, loggo.GetLogger("beszel.s3"))
}
