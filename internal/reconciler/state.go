// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package reconciler

import (
	"github.com/juju/beszel-operator/core/status"
	"github.com/juju/beszel-operator/internal/servicespec"
)

// Phase is the controller's position in the workload lifecycle.
type Phase string

const (
	// Uninitialized is the phase before the first pass.
	Uninitialized Phase = "uninitialized"

	// Waiting means something outside the operator's control (the
	// supervisor, storage, a related application) is not ready.
	Waiting Phase = "waiting"

	// Configuring means a spec was applied but the hub has not been seen
	// healthy with it yet.
	Configuring Phase = "configuring"

	// Active means the applied spec is running and healthy.
	Active Phase = "active"

	// Blocked means the operator's configuration or relations need
	// manual attention. Nothing is applied while blocked.
	Blocked Phase = "blocked"
)

var allPhases = []Phase{Uninitialized, Waiting, Configuring, Active, Blocked}

// State is the outcome of the latest reconciliation pass.
type State struct {
	Phase  Phase
	Status status.StatusInfo

	// Applied is the spec last successfully handed to the supervisor, or
	// nil when none is known to be in place.
	Applied *servicespec.ServiceSpec

	// Version is the hub version reported by the workload once healthy.
	Version string
}

func (s State) copy() State {
	if s.Applied != nil {
		spec := *s.Applied
		spec.Environment = append([]servicespec.EnvVar(nil), s.Applied.Environment...)
		s.Applied = &spec
	}
	if s.Status.Since != nil {
		since := *s.Status.Since
		s.Status.Since = &since
	}
	return s
}
