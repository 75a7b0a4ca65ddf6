// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relation_test

import (
	"fmt"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/beszel-operator/internal/config"
	"github.com/juju/beszel-operator/internal/relation"
)

type oauthSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&oauthSuite{})

func oauthData() relation.Data {
	return relation.Data{
		Joined: true,
		Values: map[string]string{
			"client_id":     "beszel-client",
			"client_secret": "s3cr3t",
			"issuer_url":    "https://hydra.example.com",
		},
	}
}

func (s *oauthSuite) TestNotJoined(c *gc.C) {
	fact := relation.ResolveOAuth(relation.Data{}, &config.Config{})
	c.Check(fact, jc.DeepEquals, relation.OAuthFact{})
}

func (s *oauthSuite) TestHostnameRequired(c *gc.C) {
	fact := relation.ResolveOAuth(oauthData(), &config.Config{})
	c.Check(fact, jc.DeepEquals, relation.OAuthFact{
		Related: true,
		Blocked: true,
		Reason:  "hostname required for OAuth callback",
	})
}

func (s *oauthSuite) TestReady(c *gc.C) {
	fact := relation.ResolveOAuth(oauthData(), &config.Config{ExternalHostname: "beszel.example.com"})
	c.Check(fact, jc.DeepEquals, relation.OAuthFact{
		Related:      true,
		Ready:        true,
		ClientID:     "beszel-client",
		ClientSecret: "s3cr3t",
		IssuerURL:    "https://hydra.example.com",
		RedirectURI:  "https://beszel.example.com/callback",
	})
}

func (s *oauthSuite) TestAwaitingRegistration(c *gc.C) {
	fact := relation.ResolveOAuth(relation.Data{Joined: true}, &config.Config{ExternalHostname: "beszel.example.com"})
	c.Check(fact.Related, jc.IsTrue)
	c.Check(fact.Blocked, jc.IsFalse)
	c.Check(fact.Ready, jc.IsFalse)
	c.Check(fact.RedirectURI, gc.Equals, "https://beszel.example.com/callback")
}

func (s *oauthSuite) TestStringOmitsSecret(c *gc.C) {
	fact := relation.ResolveOAuth(oauthData(), &config.Config{ExternalHostname: "beszel.example.com"})
	for _, out := range []string{fact.String(), fmt.Sprintf("%v", fact), fmt.Sprintf("%#v", fact)} {
		c.Check(out, gc.Not(jc.Contains), "s3cr3t")
	}
}

func (s *oauthSuite) TestOAuthRequest(c *gc.C) {
	c.Check(relation.OAuthRequest(&config.Config{}), gc.IsNil)
	c.Check(relation.OAuthRequest(&config.Config{ExternalHostname: "beszel.example.com"}), jc.DeepEquals, map[string]string{
		"redirect_uri": "https://beszel.example.com/callback",
		"scope":        "openid profile email",
		"grant_types":  "authorization_code",
	})
}
