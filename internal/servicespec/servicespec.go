// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package servicespec computes the desired Pebble service definition for the
// hub from the configuration and relation facts. Everything here is pure:
// the same inputs always produce the same spec and the same layer bytes.
package servicespec

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/juju/beszel-operator/internal/config"
	"github.com/juju/beszel-operator/internal/relation"
)

const (
	// ServiceName is the Pebble service running the hub.
	ServiceName = "beszel"

	// CheckName is the Pebble check probing the hub.
	CheckName = "beszel-ready"

	// Entrypoint is the hub binary inside the workload image.
	Entrypoint = "/beszel"

	// DefaultDataDir is where the hub keeps its database unless told
	// otherwise: beszel_data next to the binary.
	DefaultDataDir = "/beszel_data"

	// CheckPeriod is how often Pebble runs the health check.
	CheckPeriod = 60 * time.Second

	// CheckThreshold is the number of consecutive failures after which the
	// check is considered down and the service restarted.
	CheckThreshold = 3
)

// FailureAction is what Pebble does to the service when its check fails.
type FailureAction string

const (
	// RestartService restarts only the hub service, leaving any other
	// process in the container alone.
	RestartService FailureAction = "restart"
)

// EnvVar is a single environment variable of the service.
type EnvVar struct {
	Name  string
	Value string
}

// HealthCheck describes the Pebble check attached to the service.
type HealthCheck struct {
	Name      string
	Level     string
	Command   string
	Period    time.Duration
	Threshold int
	OnFailure FailureAction
}

// ServiceSpec is the desired process specification of the hub. It has no
// identity beyond its content.
type ServiceSpec struct {
	Command     string
	Environment []EnvVar
	Check       HealthCheck
	Port        int
}

// Env returns the environment as a map.
func (s ServiceSpec) Env() map[string]string {
	env := make(map[string]string, len(s.Environment))
	for _, v := range s.Environment {
		env[v.Name] = v.Value
	}
	return env
}

// Equal reports whether both specs describe the same service.
func (s ServiceSpec) Equal(other ServiceSpec) bool {
	if s.Command != other.Command ||
		s.Port != other.Port ||
		s.Check != other.Check ||
		len(s.Environment) != len(other.Environment) {
		return false
	}
	for i := range s.Environment {
		if s.Environment[i] != other.Environment[i] {
			return false
		}
	}
	return true
}

// Inputs are everything the spec is computed from.
type Inputs struct {
	Config        *config.Config
	OAuth         relation.OAuthFact
	ObjectStorage relation.ObjectStorageFact

	// StorageLocation is where the data storage is mounted in the
	// workload container. Empty means DefaultDataDir.
	StorageLocation string
}

// DataDir returns the hub's data directory for a storage mount point.
func DataDir(storageLocation string) string {
	if storageLocation == "" {
		return DefaultDataDir
	}
	return path.Clean(storageLocation)
}

// Build computes the service spec. It performs no I/O.
func Build(in Inputs) ServiceSpec {
	cfg := in.Config
	env := map[string]string{
		"PORT":      strconv.Itoa(cfg.Port),
		"LOG_LEVEL": cfg.LogLevel,
	}
	if in.OAuth.Ready && !in.OAuth.Blocked {
		env["OIDC_CLIENT_ID"] = in.OAuth.ClientID
		env["OIDC_CLIENT_SECRET"] = in.OAuth.ClientSecret
		env["OIDC_ISSUER_URL"] = in.OAuth.IssuerURL
		env["OIDC_REDIRECT_URI"] = in.OAuth.RedirectURI
	}
	if cfg.S3BackupEnabled && in.ObjectStorage.Ready {
		env["S3_BACKUP_ENABLED"] = "true"
		env["S3_ENDPOINT"] = in.ObjectStorage.Endpoint
		env["S3_BUCKET"] = in.ObjectStorage.Bucket
		env["S3_REGION"] = in.ObjectStorage.Region
		env["S3_ACCESS_KEY_ID"] = in.ObjectStorage.AccessKey
		env["S3_SECRET_ACCESS_KEY"] = in.ObjectStorage.SecretKey
	}

	command := []string{Entrypoint, "serve"}
	if dir := DataDir(in.StorageLocation); dir != DefaultDataDir {
		command = append(command, "--dir", dir)
	}
	return ServiceSpec{
		Command:     shellquote.Join(command...),
		Environment: sortedEnv(env),
		Check: HealthCheck{
			Name:      CheckName,
			Level:     "ready",
			Command:   shellquote.Join(Entrypoint, "health", "--url", fmt.Sprintf("http://localhost:%d", cfg.Port)),
			Period:    CheckPeriod,
			Threshold: CheckThreshold,
			OnFailure: RestartService,
		},
		Port: cfg.Port,
	}
}

func sortedEnv(env map[string]string) []EnvVar {
	vars := make([]EnvVar, 0, len(env))
	for name, value := range env {
		vars = append(vars, EnvVar{Name: name, Value: value})
	}
	sort.Slice(vars, func(i, j int) bool {
		return vars[i].Name < vars[j].Name
	})
	return vars
}
