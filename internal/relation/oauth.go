// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relation

import (
	"fmt"

	"github.com/juju/beszel-operator/internal/config"
)

const (
	oauthClientIDKey     = "client_id"
	oauthClientSecretKey = "client_secret"
	oauthIssuerURLKey    = "issuer_url"

	// OAuthScopes are the scopes requested from the identity provider.
	OAuthScopes = "openid profile email"

	// OAuthGrantTypes are the grant types requested from the identity
	// provider.
	OAuthGrantTypes = "authorization_code"

	// ReasonHostnameRequired is reported when the OAuth relation exists
	// but no external hostname is configured.
	ReasonHostnameRequired = "hostname required for OAuth callback"
)

// OAuthFact describes the OAuth client registration for the hub.
type OAuthFact struct {
	// Related is true when the OAuth relation exists.
	Related bool

	// Blocked is true when the relation exists but cannot be used because
	// of the charm configuration; Reason says why.
	Blocked bool
	Reason  string

	// Ready is true when the provider has returned a complete client
	// registration.
	Ready bool

	ClientID     string
	ClientSecret string
	IssuerURL    string
	RedirectURI  string
}

// String implements fmt.Stringer without the client secret.
func (f OAuthFact) String() string {
	switch {
	case !f.Related:
		return "oauth: not related"
	case f.Blocked:
		return fmt.Sprintf("oauth: blocked (%s)", f.Reason)
	case !f.Ready:
		return "oauth: waiting for client registration"
	}
	return fmt.Sprintf("oauth: client %q issuer %q", f.ClientID, f.IssuerURL)
}

// GoString implements fmt.GoStringer so %#v does not leak the secret.
func (f OAuthFact) GoString() string {
	return f.String()
}

// RedirectURI returns the OAuth callback for the given hostname.
func RedirectURI(hostname string) string {
	return fmt.Sprintf("https://%s/callback", hostname)
}

// ResolveOAuth validates the OAuth relation against the configuration and
// passes the client registration through verbatim.
func ResolveOAuth(data Data, cfg *config.Config) OAuthFact {
	if !data.Joined {
		return OAuthFact{}
	}
	if cfg == nil || cfg.ExternalHostname == "" {
		return OAuthFact{
			Related: true,
			Blocked: true,
			Reason:  ReasonHostnameRequired,
		}
	}
	fact := OAuthFact{
		Related:      true,
		ClientID:     data.get(oauthClientIDKey),
		ClientSecret: data.get(oauthClientSecretKey),
		IssuerURL:    data.get(oauthIssuerURLKey),
		RedirectURI:  RedirectURI(cfg.ExternalHostname),
	}
	fact.Ready = fact.ClientID != "" && fact.ClientSecret != "" && fact.IssuerURL != ""
	return fact
}

// OAuthRequest returns the databag the hub publishes to the identity
// provider to register its client. It is nil while no external hostname is
// configured, since no callback URL can be offered.
func OAuthRequest(cfg *config.Config) map[string]string {
	if cfg == nil || cfg.ExternalHostname == "" {
		return nil
	}
	return map[string]string{
		"redirect_uri": RedirectURI(cfg.ExternalHostname),
		"scope":        OAuthScopes,
		"grant_types":  OAuthGrantTypes,
	}
}
