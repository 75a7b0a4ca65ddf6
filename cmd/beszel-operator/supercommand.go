// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
)

// superCommand dispatches to one of its subcommands and owns the flags
// shared by all of them.
type superCommand struct {
	name    string
	purpose string
	subcmds map[string]Command

	loggingConfig string
	verbose       bool

	subcmd     Command
	subcmdArgs []string
}

func newSuperCommand(name, purpose string, subcmds ...Command) *superCommand {
	c := &superCommand{
		name:    name,
		purpose: purpose,
		subcmds: make(map[string]Command),
	}
	for _, sub := range subcmds {
		c.subcmds[sub.Info().Name] = sub
	}
	return c
}

// Info is part of the Command interface.
func (c *superCommand) Info() *Info {
	names := make([]string, 0, len(c.subcmds))
	for name := range c.subcmds {
		names = append(names, name)
	}
	sort.Strings(names)
	var doc strings.Builder
	doc.WriteString("commands:\n")
	for _, name := range names {
		fmt.Fprintf(&doc, "    %-10s %s\n", name, c.subcmds[name].Info().Purpose)
	}
	return &Info{
		Name:    c.name,
		Args:    "<command> ...",
		Purpose: c.purpose,
		Doc:     doc.String(),
	}
}

// SetFlags is part of the Command interface.
func (c *superCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.loggingConfig, "logging-config", "<root>=INFO", "logging configuration")
	f.BoolVar(&c.verbose, "debug", false, "equivalent to --logging-config=<root>=DEBUG")
}

// Init is part of the Command interface.
func (c *superCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no command specified")
	}
	sub, ok := c.subcmds[args[0]]
	if !ok {
		return errors.NotFoundf("command %q", args[0])
	}
	c.subcmd = sub
	c.subcmdArgs = args[1:]
	return nil
}

// Run is part of the Command interface.
func (c *superCommand) Run(ctx *Context) error {
	config := c.loggingConfig
	if c.verbose {
		config = "<root>=DEBUG"
	}
	if err := loggo.ConfigureLoggers(config); err != nil {
		return errors.Annotate(err, "configuring loggers")
	}
	logger.Infof("running %s %s [%s %s]", c.name, c.subcmd.Info().Name, runtime.Compiler, runtime.Version())
	if code := Main(c.subcmd, ctx, c.subcmdArgs); code != 0 {
		return &rcPassthroughError{Code: code}
	}
	return nil
}

var logger = loggo.GetLogger("beszel.operator")
