// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"os"
	"reflect"

	"github.com/juju/errors"
	"github.com/juju/names/v5"
	"gopkg.in/yaml.v3"

	"github.com/juju/beszel-operator/internal/reconciler"
	"github.com/juju/beszel-operator/internal/servicespec"
)

// readSnapshot loads the model snapshot written by the agent.
func readSnapshot(path string) (reconciler.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return reconciler.Snapshot{}, errors.Annotate(err, "reading snapshot")
	}
	return parseSnapshot(data)
}

func parseSnapshot(data []byte) (reconciler.Snapshot, error) {
	var snap reconciler.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return reconciler.Snapshot{}, errors.NewNotValid(err, "parsing snapshot")
	}
	if !names.IsValidApplication(snap.Application) {
		return reconciler.Snapshot{}, errors.NotValidf("snapshot application %q", snap.Application)
	}
	if snap.StorageLocation == "" {
		snap.StorageLocation = servicespec.DefaultDataDir
	}
	return snap, nil
}

// snapshotTriggers returns the triggers explaining the difference between
// two snapshots, in the order they should be delivered. A nil prev means
// the operator just started.
func snapshotTriggers(prev *reconciler.Snapshot, next reconciler.Snapshot) []reconciler.Trigger {
	if prev == nil {
		triggers := []reconciler.Trigger{reconciler.PebbleReady}
		if next.StorageAttached {
			triggers = append(triggers, reconciler.StorageAttached)
		}
		return append(triggers, reconciler.ConfigChanged)
	}

	var triggers []reconciler.Trigger
	switch {
	case next.StorageAttached && !prev.StorageAttached:
		triggers = append(triggers, reconciler.StorageAttached)
	case !next.StorageAttached && prev.StorageAttached:
		triggers = append(triggers, reconciler.StorageDetaching)
	case next.StorageLocation != prev.StorageLocation:
		triggers = append(triggers, reconciler.StorageAttached)
	}
	if !reflect.DeepEqual(prev.Config, next.Config) {
		triggers = append(triggers, reconciler.ConfigChanged)
	}
	if !reflect.DeepEqual(prev.Relations, next.Relations) {
		triggers = append(triggers, reconciler.RelationChanged)
	}
	return triggers
}
