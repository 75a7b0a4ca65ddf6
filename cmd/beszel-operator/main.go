// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Command beszel-operator manages a Beszel Hub workload running under
// Pebble.
package main

import (
	"os"
)

func main() {
	ctx := &Context{Stdout: os.Stdout, Stderr: os.Stderr}
	os.Exit(Main(newOperatorCommand(), ctx, os.Args[1:]))
}

func newOperatorCommand() Command {
	return newSuperCommand(
		"beszel-operator",
		"manage a Beszel Hub workload",
		&runCommand{},
		&actionCommand{},
		&relationDataCommand{},
	)
}
