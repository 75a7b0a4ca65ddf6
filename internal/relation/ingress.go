// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relation

import (
	"net/url"
	"strconv"
	"strings"
)

const ingressURLKey = "url"

// IngressFact describes how the hub is exposed by the ingress provider.
type IngressFact struct {
	// Connected is true when the ingress relation exists.
	Connected bool

	// URL is the external URL published by the provider, without a
	// trailing slash. It is empty until the provider publishes a usable
	// value.
	URL string

	// PathPrefix is the sub-path the hub is exposed at. The provider strips
	// it before forwarding, so the hub itself always serves from "/".
	PathPrefix string
}

// ResolveIngress reads the URL published by the ingress provider.
// A missing relation or URL is not an error; the caller falls back to the
// internal service address.
func ResolveIngress(data Data) IngressFact {
	if !data.Joined {
		return IngressFact{}
	}
	fact := IngressFact{Connected: true}
	raw := data.get(ingressURLKey)
	if raw == "" {
		return fact
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fact
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	fact.URL = u.String()
	fact.PathPrefix = u.Path
	return fact
}

// IngressRequest returns the databag published to the ingress provider,
// asking it to route to the hub's port and strip the path prefix.
func IngressRequest(application, model string, port int) map[string]string {
	return map[string]string{
		"name":         application,
		"model":        model,
		"port":         strconv.Itoa(port),
		"strip-prefix": "true",
	}
}
