// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package relation turns the untyped application databags published by
// related applications into typed facts. Nothing past this package sees
// raw relation data.
package relation

import (
	"strings"

	"github.com/juju/beszel-operator/internal/config"
)

const (
	// IngressEndpoint is the name of the ingress relation endpoint.
	IngressEndpoint = "ingress"

	// OAuthEndpoint is the name of the OAuth relation endpoint.
	OAuthEndpoint = "oauth"

	// ObjectStorageEndpoint is the name of the S3 credentials relation
	// endpoint.
	ObjectStorageEndpoint = "s3-credentials"
)

// Data is the remote application's databag for a single relation.
type Data struct {
	// Joined is true once the relation exists, whether or not the remote
	// side has published anything.
	Joined bool `yaml:"joined"`

	// Values holds the remote application databag.
	Values map[string]string `yaml:"data,omitempty"`
}

// get returns the trimmed value for key; empty when absent.
func (d Data) get(key string) string {
	return strings.TrimSpace(d.Values[key])
}

// Inputs holds the raw data of every relation the charm requires.
type Inputs struct {
	Ingress       Data `yaml:"ingress"`
	OAuth         Data `yaml:"oauth"`
	ObjectStorage Data `yaml:"s3-credentials"`
}

// Facts holds the resolved facts for one reconciliation pass.
type Facts struct {
	Ingress       IngressFact
	OAuth         OAuthFact
	ObjectStorage ObjectStorageFact
}

// Resolve resolves all relation inputs against the given configuration.
func Resolve(cfg *config.Config, in Inputs) Facts {
	return Facts{
		Ingress:       ResolveIngress(in.Ingress),
		OAuth:         ResolveOAuth(in.OAuth, cfg),
		ObjectStorage: ResolveObjectStorage(in.ObjectStorage),
	}
}
