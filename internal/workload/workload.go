// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package workload defines the narrow set of capabilities the operator needs
// from the process supervisor running the hub, and implements them on top of
// Pebble.
package workload

import (
	"context"
	"time"

	"github.com/juju/beszel-operator/internal/servicespec"
)

// Health is the outcome of a health probe.
type Health string

const (
	// Healthy means the hub's check is passing.
	Healthy Health = "healthy"

	// Unhealthy means the supervisor answered but the check is failing or
	// has not passed yet.
	Unhealthy Health = "unhealthy"

	// Unreachable means the supervisor did not answer in time.
	Unreachable Health = "unreachable"
)

// FileInfo describes a file in the workload container.
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// CommandResult is the outcome of a command that ran to completion.
type CommandResult struct {
	Stdout   string
	ExitCode int
}

// Client is the capability interface over the workload container. All
// methods honour the context deadline; callers must always supply one.
// Errors caused by an unreachable supervisor or an expired deadline satisfy
// errors.Is(err, coreerrors.WorkloadUnavailable). ApplySpec, WriteFile and
// RemoveFile report an expired deadline only once the change has stopped,
// so nothing is still being changed when they return.
type Client interface {
	// CanConnect reports whether the supervisor answers at all.
	CanConnect(ctx context.Context) bool

	// ApplySpec installs the spec as the operator's layer and replans so
	// the service runs with it.
	ApplySpec(ctx context.Context, spec servicespec.ServiceSpec) error

	// ProbeHealth reports the health of the hub's check, waiting no
	// longer than timeout.
	ProbeHealth(ctx context.Context, timeout time.Duration) Health

	// ProbeVersion returns the version of the hub binary.
	ProbeVersion(ctx context.Context) (string, error)

	// ReadFile returns the content of the file at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile atomically writes data to path, creating parent
	// directories. A write the supervisor rejects leaves no file at path;
	// one that outlives the deadline may still have completed.
	WriteFile(ctx context.Context, path string, data []byte) error

	// RemoveFile removes the file at path. Removing a missing file is not
	// an error.
	RemoveFile(ctx context.Context, path string) error

	// ListFiles lists the files in dir matching the glob pattern. A
	// missing directory yields an empty result.
	ListFiles(ctx context.Context, dir, pattern string) ([]FileInfo, error)

	// RunCommand runs argv to completion without a shell. A non-zero exit
	// code is reported in the result, not as an error.
	RunCommand(ctx context.Context, argv []string) (CommandResult, error)
}
