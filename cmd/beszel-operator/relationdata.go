// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"

	"github.com/juju/beszel-operator/internal/config"
	"github.com/juju/beszel-operator/internal/relation"
)

const relationDataDoc = `
Relation-data prints the databags the hub publishes on its relations, keyed
by relation name. The oauth databag is omitted until external-hostname is
set.
`

type relationDataCommand struct {
	snapshotPath string
	model        string
	out          output
}

// Info is part of the Command interface.
func (c *relationDataCommand) Info() *Info {
	return &Info{
		Name:        "relation-data",
		Purpose:     "print the databags published to related applications",
		Doc:         relationDataDoc,
		Intersperse: true,
	}
}

// SetFlags is part of the Command interface.
func (c *relationDataCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.snapshotPath, "snapshot", "", "path to the model snapshot file")
	f.StringVar(&c.model, "model", "", "name of the model the hub is deployed in")
	c.out.addFlags(f, "yaml", defaultFormatters)
}

// Init is part of the Command interface.
func (c *relationDataCommand) Init(args []string) error {
	if c.snapshotPath == "" {
		return errors.NotValidf("missing --snapshot")
	}
	return checkEmpty(args)
}

// Run is part of the Command interface.
func (c *relationDataCommand) Run(ctx *Context) error {
	snap, err := readSnapshot(c.snapshotPath)
	if err != nil {
		return errors.Trace(err)
	}
	cfg, err := config.Load(snap.Config, loggo.GetLogger("beszel.config"))
	if err != nil {
		return errors.Trace(err)
	}
	return c.out.write(ctx.Stdout, publishedData(snap.Application, c.model, cfg))
}

func publishedData(application, model string, cfg *config.Config) map[string]map[string]string {
	data := map[string]map[string]string{
		"ingress": relation.IngressRequest(application, model, cfg.Port),
	}
	if oauth := relation.OAuthRequest(cfg); oauth != nil {
		data["oauth"] = oauth
	}
	return data
}
