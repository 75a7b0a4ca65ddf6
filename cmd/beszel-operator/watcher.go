// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"

	"github.com/juju/beszel-operator/internal/reconciler"
)

// snapshotWatcher turns changes to the snapshot file into reconciler
// events.
type snapshotWatcher struct {
	catacomb catacomb.Catacomb

	path    string
	watcher *fsnotify.Watcher
	events  chan reconciler.Event
	last    *reconciler.Snapshot
}

// newSnapshotWatcher starts watching path. The directory is watched rather
// than the file so that files replaced by rename are followed.
func newSnapshotWatcher(path string) (*snapshotWatcher, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Annotate(err, "creating file watcher")
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, errors.Annotatef(err, "watching %q", filepath.Dir(path))
	}

	w := &snapshotWatcher{
		path:    path,
		watcher: watcher,
		events:  make(chan reconciler.Event),
	}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	}); err != nil {
		_ = watcher.Close()
		return nil, errors.Trace(err)
	}
	return w, nil
}

// Events returns the channel reconciler events are delivered on. It is
// closed when the watcher stops.
func (w *snapshotWatcher) Events() <-chan reconciler.Event {
	return w.events
}

// Kill is part of the worker.Worker interface.
func (w *snapshotWatcher) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *snapshotWatcher) Wait() error {
	return w.catacomb.Wait()
}

func (w *snapshotWatcher) loop() error {
	defer close(w.events)
	defer w.watcher.Close()

	if err := w.reload(); err != nil {
		return errors.Trace(err)
	}
	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if err := w.reload(); err != nil {
				return errors.Trace(err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			logger.Warningf("file watcher: %v", err)
		}
	}
}

// reload reads the snapshot and sends one event per trigger explaining
// the change. An unreadable snapshot is skipped; the agent may be in the
// middle of writing it.
func (w *snapshotWatcher) reload() error {
	snap, err := readSnapshot(w.path)
	if err != nil {
		logger.Warningf("ignoring snapshot: %v", err)
		return nil
	}
	triggers := snapshotTriggers(w.last, snap)
	w.last = &snap
	for _, trigger := range triggers {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case w.events <- reconciler.Event{Trigger: trigger, Snapshot: snap}:
		}
	}
	return nil
}
