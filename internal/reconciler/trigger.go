// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package reconciler

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/beszel-operator/internal/relation"
)

// Trigger names the external event that caused a reconciliation pass.
type Trigger string

const (
	ConfigChanged     Trigger = "config-changed"
	RelationChanged   Trigger = "relation-changed"
	StorageAttached   Trigger = "storage-attached"
	StorageDetaching  Trigger = "storage-detaching"
	PebbleReady       Trigger = "pebble-ready"
	PebbleCheckFailed Trigger = "pebble-check-failed"
	UpdateStatus      Trigger = "update-status"
	UpgradeCharm      Trigger = "upgrade-charm"
)

var knownTriggers = set.NewStrings(
	string(ConfigChanged),
	string(RelationChanged),
	string(StorageAttached),
	string(StorageDetaching),
	string(PebbleReady),
	string(PebbleCheckFailed),
	string(UpdateStatus),
	string(UpgradeCharm),
)

// Validate returns a NotValid error for unknown triggers.
func (t Trigger) Validate() error {
	if !knownTriggers.Contains(string(t)) {
		return errors.NotValidf("trigger %q", string(t))
	}
	return nil
}

// forgetsPlan reports whether the supervisor may have come back with an
// empty plan, so the spec has to be applied again even if unchanged.
func (t Trigger) forgetsPlan() bool {
	return t == PebbleReady || t == UpgradeCharm
}

// Snapshot is everything the model tells the operator at the time of a
// trigger.
type Snapshot struct {
	// Application is the name of the application the unit belongs to.
	Application string `yaml:"application"`

	// Config holds the raw charm config.
	Config map[string]any `yaml:"config"`

	Relations relation.Inputs `yaml:"relations"`

	// StorageAttached is true while the data storage is mounted.
	StorageAttached bool `yaml:"storage-attached"`

	// StorageLocation is the mount point of the data storage in the
	// workload container.
	StorageLocation string `yaml:"storage-location"`
}

// Event pairs a trigger with the snapshot observed alongside it.
type Event struct {
	Trigger  Trigger
	Snapshot Snapshot
}
