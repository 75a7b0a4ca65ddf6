// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package actions

import (
	"github.com/juju/errors"

	coreerrors "github.com/juju/beszel-operator/core/errors"
)

// Failure kinds reported to the caller.
const (
	KindWorkloadUnavailable = "workload-unavailable"
	KindStorageUnavailable  = "storage-unavailable"
	KindInvalidInput        = "invalid-input"
	KindInternal            = "internal"
)

// Failure is what the caller sees when an action fails.
type Failure struct {
	Kind    string `yaml:"kind"`
	Message string `yaml:"message"`
}

// Fail classifies err.
func Fail(err error) Failure {
	kind := KindInternal
	switch {
	case errors.Is(err, coreerrors.StorageUnavailable):
		kind = KindStorageUnavailable
	case errors.Is(err, coreerrors.WorkloadUnavailable):
		kind = KindWorkloadUnavailable
	case errors.Is(err, errors.NotValid), errors.Is(err, errors.NotFound), errors.Is(err, errors.AlreadyExists):
		kind = KindInvalidInput
	}
	return Failure{Kind: kind, Message: err.Error()}
}
