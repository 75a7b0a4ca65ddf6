// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package errors defines the error kinds shared by the reconciler and the
// action handlers. Invalid configuration is reported with the juju/errors
// NotValid kind rather than a kind of its own.
package errors

import (
	"github.com/juju/errors"
)

const (
	// WorkloadUnavailable describes an error where the workload container
	// (or the supervisor inside it) could not be reached in time.
	WorkloadUnavailable = errors.ConstError("workload unavailable")

	// StorageUnavailable describes an error where reading or writing the
	// workload's data or backup files failed.
	StorageUnavailable = errors.ConstError("storage unavailable")

	// RelationIncomplete describes a relation that exists but whose remote
	// side has not yet published everything required.
	RelationIncomplete = errors.ConstError("relation incomplete")
)
