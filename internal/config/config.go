// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config provides the typed, validated view over the charm's
// user-supplied settings.
package config

import (
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/juju/environschema.v1"
)

// Logger represents the logging methods called.
type Logger interface {
	Warningf(message string, args ...any)
}

const (
	ContainerImageKey   = "container-image"
	PortKey             = "port"
	ExternalHostnameKey = "external-hostname"
	S3BackupEnabledKey  = "s3-backup-enabled"
	S3EndpointKey       = "s3-endpoint"
	S3BucketKey         = "s3-bucket"
	S3RegionKey         = "s3-region"
	LogLevelKey         = "log-level"
)

const (
	// DefaultContainerImage is the OCI image the hub runs from when the
	// operator has not overridden it.
	DefaultContainerImage = "henrygd/beszel:latest"

	// DefaultPort is the port the hub listens on.
	DefaultPort = 8090

	// DefaultS3Region is used when the operator leaves s3-region unset.
	DefaultS3Region = "us-east-1"

	// DefaultLogLevel is used when log-level is unset or unrecognised.
	DefaultLogLevel = "info"
)

var logLevels = set.NewStrings("debug", "info", "warn", "error")

var configSchema = environschema.Fields{
	ContainerImageKey: {
		Description: "OCI image to use for the Beszel Hub.",
		Type:        environschema.Tstring,
	},
	PortKey: {
		Description: "Port on which the Beszel Hub listens.",
		Type:        environschema.Tint,
	},
	ExternalHostnameKey: {
		Description: "External hostname, used to build the OAuth callback URL.",
		Type:        environschema.Tstring,
	},
	S3BackupEnabledKey: {
		Description: "Enable backups to S3 compatible object storage.",
		Type:        environschema.Tbool,
	},
	S3EndpointKey: {
		Description: "S3 endpoint URL.",
		Type:        environschema.Tstring,
	},
	S3BucketKey: {
		Description: "S3 bucket name.",
		Type:        environschema.Tstring,
	},
	S3RegionKey: {
		Description: "S3 region.",
		Type:        environschema.Tstring,
	},
	LogLevelKey: {
		Description: "Log verbosity of the hub: debug, info, warn or error.",
		Type:        environschema.Tstring,
	},
}

var configDefaults = schema.Defaults{
	ContainerImageKey:   DefaultContainerImage,
	PortKey:             DefaultPort,
	ExternalHostnameKey: "",
	S3BackupEnabledKey:  false,
	S3EndpointKey:       "",
	S3BucketKey:         "",
	S3RegionKey:         DefaultS3Region,
	LogLevelKey:         DefaultLogLevel,
}

// Config is an immutable snapshot of the charm configuration.
type Config struct {
	ContainerImage   string
	Port             int
	ExternalHostname string
	S3BackupEnabled  bool
	S3Endpoint       string
	S3Bucket         string
	S3Region         string
	LogLevel         string
}

// Load coerces the raw settings, applies defaults and validates the result.
// An unrecognised log level is not fatal: it is replaced by the default and
// reported through the optional logger.
func Load(raw map[string]any, logger Logger) (*Config, error) {
	fields, _, err := configSchema.ValidationSchema()
	if err != nil {
		return nil, errors.Trace(err)
	}
	attrs := make(map[string]any, len(raw))
	for k, v := range raw {
		// Unset options arrive as nil from the model; treat them as absent
		// so the defaults apply.
		if v == nil {
			continue
		}
		attrs[k] = v
	}
	coerced, err := schema.FieldMap(fields, configDefaults).Coerce(attrs, nil)
	if err != nil {
		return nil, errors.NewNotValid(err, "invalid charm config")
	}
	values := coerced.(map[string]any)

	cfg := &Config{
		ContainerImage:   values[ContainerImageKey].(string),
		Port:             toInt(values[PortKey]),
		ExternalHostname: strings.TrimSpace(values[ExternalHostnameKey].(string)),
		S3BackupEnabled:  values[S3BackupEnabledKey].(bool),
		S3Endpoint:       strings.TrimSpace(values[S3EndpointKey].(string)),
		S3Bucket:         strings.TrimSpace(values[S3BucketKey].(string)),
		S3Region:         strings.TrimSpace(values[S3RegionKey].(string)),
		LogLevel:         strings.ToLower(strings.TrimSpace(values[LogLevelKey].(string))),
	}
	if !logLevels.Contains(cfg.LogLevel) {
		if logger != nil {
			logger.Warningf("unknown %s %q, using %q", LogLevelKey, cfg.LogLevel, DefaultLogLevel)
		}
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.S3Region == "" {
		cfg.S3Region = DefaultS3Region
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

// Validate checks the cross-field rules of the configuration.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.NotValidf("%s %d", PortKey, c.Port)
	}
	if c.S3BackupEnabled {
		var missing []string
		if c.S3Endpoint == "" {
			missing = append(missing, S3EndpointKey)
		}
		if c.S3Bucket == "" {
			missing = append(missing, S3BucketKey)
		}
		if len(missing) > 0 {
			return errors.WithType(
				errors.Errorf("%s requires %s", S3BackupEnabledKey, strings.Join(missing, " and ")),
				errors.NotValid,
			)
		}
	}
	return nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
