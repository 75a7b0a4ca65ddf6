// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"

	"github.com/juju/beszel-operator/core/status"
	"github.com/juju/beszel-operator/internal/actions"
	"github.com/juju/beszel-operator/internal/config"
	"github.com/juju/beszel-operator/internal/relation"
)

const actionDoc = `
Action runs one of the operator actions against the workload and prints its
results:

    get-admin-url
    create-agent-token [description=<text>]
    backup-now
    list-backups
`

type actionCommand struct {
	workloadFlags
	out output

	timeout time.Duration
	name    string
	params  map[string]string
}

// Info is part of the Command interface.
func (c *actionCommand) Info() *Info {
	return &Info{
		Name:        "action",
		Args:        "<name> [key=value ...]",
		Purpose:     "run an operator action",
		Doc:         actionDoc,
		Intersperse: true,
	}
}

// SetFlags is part of the Command interface.
func (c *actionCommand) SetFlags(f *gnuflag.FlagSet) {
	c.workloadFlags.setFlags(f)
	c.out.addFlags(f, "yaml", defaultFormatters)
	f.DurationVar(&c.timeout, "timeout", time.Minute, "how long the action may take")
}

// Init is part of the Command interface.
func (c *actionCommand) Init(args []string) error {
	if err := c.workloadFlags.validate(); err != nil {
		return errors.Trace(err)
	}
	if len(args) == 0 {
		return errors.New("no action specified")
	}
	c.name = args[0]
	params, err := parseParams(args[1:])
	if err != nil {
		return errors.Trace(err)
	}
	c.params = params
	return nil
}

func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, errors.NotValidf("argument %q, expected key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}

// Run is part of the Command interface.
func (c *actionCommand) Run(ctx *Context) error {
	results, err := c.run(context.Background())
	if err != nil {
		failure := actions.Fail(err)
		logger.Debugf("action %s failed: %s", c.name, errors.ErrorStack(err))
		if werr := c.out.write(ctx.Stdout, map[string]any{
			"status":  status.Failed,
			"kind":    failure.Kind,
			"message": failure.Message,
		}); werr != nil {
			return errors.Trace(werr)
		}
		return errors.WithType(err, errSilent)
	}
	return c.out.write(ctx.Stdout, map[string]any{
		"status":  status.Completed,
		"results": results,
	})
}

func (c *actionCommand) run(ctx context.Context) (map[string]any, error) {
	snap, err := readSnapshot(c.snapshotPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	cfg, err := config.Load(snap.Config, loggo.GetLogger("beszel.config"))
	if err != nil {
		return nil, errors.Trace(err)
	}
	facts := relation.Resolve(cfg, snap.Relations)

	client, err := newWorkloadClient(c.pebbleSocket)
	if err != nil {
		return nil, errors.Trace(err)
	}
	hostLock, err := newHostLock(snap.Application)
	if err != nil {
		return nil, errors.Trace(err)
	}
	handlers, err := actions.NewHandlers(actions.Config{
		Application:     snap.Application,
		StorageLocation: snap.StorageLocation,
		Workload:        client,
		Lock:            hostLock,
		Clock:           clock.WallClock,
		Logger:          loggo.GetLogger("beszel.actions"),
		NewS3Session:    newS3Session,
		Timeout:         c.timeout,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return handlers.Run(ctx, c.name, c.params, cfg, facts)
}
