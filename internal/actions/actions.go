// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package actions implements the operator actions: admin URL lookup, agent
// token issuance, and database backups. Actions run out of band and never
// change reconciliation state; the ones touching the workload take the same
// lock as the reconciler.
package actions

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/names/v5"
	"github.com/rs/xid"

	coreerrors "github.com/juju/beszel-operator/core/errors"
	"github.com/juju/beszel-operator/internal/config"
	"github.com/juju/beszel-operator/internal/lock"
	"github.com/juju/beszel-operator/internal/relation"
	"github.com/juju/beszel-operator/internal/s3client"
	"github.com/juju/beszel-operator/internal/workload"
)

// Action names, as invoked by the operator.
const (
	GetAdminURL      = "get-admin-url"
	CreateAgentToken = "create-agent-token"
	BackupNow        = "backup-now"
	ListBackupsName  = "list-backups"
)

// Logger represents the logging methods called.
type Logger interface {
	Debugf(message string, args ...any)
	Infof(message string, args ...any)
	Warningf(message string, args ...any)
}

// NewS3SessionFunc opens an upload session for backups.
type NewS3SessionFunc func(s3client.Credentials) (s3client.Session, error)

// Config holds the dependencies of the action handlers.
type Config struct {
	// Application is the name of the application, used for the internal
	// service address.
	Application string

	// StorageLocation is where the data storage is mounted in the
	// workload container. Empty means servicespec.DefaultDataDir.
	StorageLocation string

	Workload workload.Client
	Lock     lock.Lock
	Clock    clock.Clock
	Logger   Logger

	// NewS3Session is used to upload backups when S3 backups are enabled.
	NewS3Session NewS3SessionFunc

	// Timeout bounds each action, including waiting for the lock.
	Timeout time.Duration
}

// Validate ensures all the required values are set.
func (c Config) Validate() error {
	if !names.IsValidApplication(c.Application) {
		return errors.NotValidf("application name %q", c.Application)
	}
	if c.StorageLocation != "" && !path.IsAbs(c.StorageLocation) {
		return errors.NotValidf("relative StorageLocation %q", c.StorageLocation)
	}
	if c.Workload == nil {
		return errors.NotValidf("nil Workload")
	}
	if c.Lock == nil {
		return errors.NotValidf("nil Lock")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if c.NewS3Session == nil {
		return errors.NotValidf("nil NewS3Session")
	}
	if c.Timeout <= 0 {
		return errors.NotValidf("non-positive Timeout")
	}
	return nil
}

// Handlers runs actions against one hub workload.
type Handlers struct {
	config Config
}

// NewHandlers returns the action handlers for the configured workload.
func NewHandlers(config Config) (*Handlers, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Handlers{config: config}, nil
}

// Run dispatches the named action and returns its results.
func (h *Handlers) Run(
	ctx context.Context, name string, params map[string]string, cfg *config.Config, facts relation.Facts,
) (map[string]any, error) {
	allowed := map[string]bool{}
	if name == CreateAgentToken {
		allowed["description"] = true
	}
	for key := range params {
		if !allowed[key] {
			return nil, errors.NotValidf("parameter %q for action %q", key, name)
		}
	}

	switch name {
	case GetAdminURL:
		return map[string]any{"url": h.ResolveAdminURL(cfg, facts.Ingress)}, nil
	case CreateAgentToken:
		token, err := h.IssueAgentToken(ctx, params["description"], cfg, facts.Ingress)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return token.Results(), nil
	case BackupNow:
		result, err := h.TriggerBackup(ctx, cfg, facts.ObjectStorage)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return result.Results(), nil
	case ListBackupsName:
		backups, err := h.ListBackups(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return BackupList(backups).Results(), nil
	}
	return nil, errors.NotFoundf("action %q", name)
}

// ResolveAdminURL returns the best known URL of the hub's web interface:
// the ingress URL, else the external hostname, else the internal service
// address.
func (h *Handlers) ResolveAdminURL(cfg *config.Config, ingress relation.IngressFact) string {
	if ingress.Connected && ingress.URL != "" {
		return ingress.URL
	}
	port := config.DefaultPort
	if cfg != nil {
		if cfg.ExternalHostname != "" {
			return fmt.Sprintf("https://%s", cfg.ExternalHostname)
		}
		port = cfg.Port
	}
	return fmt.Sprintf("http://%s:%d", h.config.Application, port)
}

func (h *Handlers) acquire(ctx context.Context, action, opID string) (func(), error) {
	release, err := h.config.Lock.Acquire(ctx, lock.Spec{
		Worker:  "action " + action,
		Comment: opID,
	})
	if err != nil {
		return nil, errors.WithType(err, coreerrors.WorkloadUnavailable)
	}
	return release, nil
}

// newOperationID returns an ID tying together the log lines of one action
// run.
func newOperationID() string {
	return xid.New().String()
}
