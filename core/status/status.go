// Copyright 2016 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package status

import (
	"fmt"
	"time"
)

// Status represents the workload status of the unit running the hub, as
// reported back to the model after every reconciliation pass.
type Status string

// String returns a string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// StatusInfo holds a Status and associated information.
type StatusInfo struct {
	Status  Status
	Message string
	Since   *time.Time
}

// String renders the status the way the model shows it, e.g.
// "blocked: hostname required for OAuth callback".
func (s StatusInfo) String() string {
	if s.Message == "" {
		return s.Status.String()
	}
	return fmt.Sprintf("%s: %s", s.Status, s.Message)
}

// Equal reports whether both infos carry the same status and message,
// ignoring when they were set.
func (s StatusInfo) Equal(other StatusInfo) bool {
	return s.Status == other.Status && s.Message == other.Message
}

const (
	// Unknown is set when:
	// The operator has not completed a reconciliation pass yet.
	Unknown Status = "unknown"

	// Waiting is set when:
	// The unit is unable to progress to an active state because something
	// outside its control (storage, the supervisor, a related application)
	// is not ready yet.
	Waiting Status = "waiting"

	// Blocked is set when:
	// The unit needs manual intervention to get back to the Running state.
	Blocked Status = "blocked"

	// Active is set when:
	// The unit believes it is correctly offering all the services it has
	// been asked to offer.
	Active Status = "active"
)

const (
	// Status values specific to actions.

	// Completed indicates that the action ran to completion as intended.
	Completed Status = "completed"

	// Failed indicates the action did not complete successfully.
	Failed Status = "failed"
)

const (
	MessageWaitForPebble  = "waiting for Pebble"
	MessageWaitForStorage = "waiting for storage"
	MessageWaitForHealthy = "waiting for service to become healthy"
	MessageWaitForOAuth   = "waiting for OAuth client credentials"
	MessageWaitForLock    = "waiting for workload lock"
)
