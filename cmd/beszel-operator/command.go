// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
)

// Info holds everything necessary to describe a Command's intent and usage.
type Info struct {
	// Name is the Command's name.
	Name string

	// Args describes the command's expected arguments.
	Args string

	// Purpose is a short explanation of the Command's purpose.
	Purpose string

	// Doc is the long documentation for the Command.
	Doc string

	// Intersperse controls whether the Command will accept interspersed
	// options and positional args.
	Intersperse bool
}

// Usage combines Name and Args to describe the Command's intended usage.
func (i *Info) Usage() string {
	return fmt.Sprintf("%s %s", i.Name, i.Args)
}

// Context holds the streams a Command writes to.
type Context struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Command is a subcommand of the operator binary.
type Command interface {
	// Info returns information about the command.
	Info() *Info

	// SetFlags prepares a FlagSet such that Parse~ing that FlagSet will
	// initialize the Command's options.
	SetFlags(f *gnuflag.FlagSet)

	// Init is called by Parse to allow the Command to handle positional
	// command-line arguments.
	Init(args []string) error

	// Run will execute the command according to the options and positional
	// arguments interpreted by a call to Parse.
	Run(ctx *Context) error
}

// newFlagSet returns a FlagSet initialized for use with c.
func newFlagSet(c Command, stderr io.Writer) *gnuflag.FlagSet {
	f := gnuflag.NewFlagSet(c.Info().Name, gnuflag.ContinueOnError)
	f.SetOutput(stderr)
	f.Usage = func() { printUsage(c, stderr) }
	c.SetFlags(f)
	return f
}

// printUsage prints usage information for c.
func printUsage(c Command, w io.Writer) {
	i := c.Info()
	fmt.Fprintf(w, "usage: %s\n", i.Usage())
	fmt.Fprintf(w, "purpose: %s\n", i.Purpose)
	fmt.Fprintf(w, "\noptions:\n")
	f := gnuflag.NewFlagSet(i.Name, gnuflag.ContinueOnError)
	f.SetOutput(w)
	c.SetFlags(f)
	f.PrintDefaults()
	if i.Doc != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(i.Doc))
	}
}

// Parse parses args on c. This must be called before c is Run.
func Parse(c Command, stderr io.Writer, args []string) error {
	f := newFlagSet(c, stderr)
	if err := f.Parse(c.Info().Intersperse, args); err != nil {
		return err
	}
	return c.Init(f.Args())
}

// checkEmpty is a utility function that returns an error if args is not
// empty.
func checkEmpty(args []string) error {
	if len(args) != 0 {
		return errors.Errorf("unrecognised args: %s", args)
	}
	return nil
}

// errSilent is returned by commands that already reported their failure.
const errSilent = errors.ConstError("silent failure")

// rcPassthroughError carries a subcommand's exit code out through Main.
type rcPassthroughError struct {
	Code int
}

func (e *rcPassthroughError) Error() string {
	return fmt.Sprintf("subprocess encountered error code %d", e.Code)
}

// isRcPassthroughError reports whether err carries an exit code.
func isRcPassthroughError(err error) bool {
	var rcErr *rcPassthroughError
	return errors.As(err, &rcErr)
}

// Main parses and runs c, returning the process exit code.
func Main(c Command, ctx *Context, args []string) int {
	if err := Parse(c, ctx.Stderr, args); err != nil {
		if err == gnuflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(ctx.Stderr, "ERROR %v\n", err)
		return 2
	}
	if err := c.Run(ctx); err != nil {
		var rcErr *rcPassthroughError
		if errors.As(err, &rcErr) {
			return rcErr.Code
		}
		logger.Debugf("%s command failed: %s", c.Info().Name, errors.ErrorStack(err))
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(ctx.Stderr, "ERROR %v\n", err)
		}
		return 1
	}
	return 0
}
