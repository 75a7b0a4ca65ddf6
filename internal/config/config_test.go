// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package config_test

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/beszel-operator/internal/config"
)

type configSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&configSuite{})

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Warningf(message string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(message, args...))
}

func (s *configSuite) TestDefaults(c *gc.C) {
	cfg, err := config.Load(nil, nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg, jc.DeepEquals, &config.Config{
		ContainerImage: "henrygd/beszel:latest",
		Port:           8090,
		S3Region:       "us-east-1",
		LogLevel:       "info",
	})
}

func (s *configSuite) TestFullConfig(c *gc.C) {
	cfg, err := config.Load(map[string]any{
		"container-image":   "custom/image:tag",
		"port":              8091,
		"external-hostname": "beszel.example.com",
		"s3-backup-enabled": true,
		"s3-endpoint":       "https://s3.example.com",
		"s3-bucket":         "backups",
		"s3-region":         "us-west-2",
		"log-level":         "debug",
	}, nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg, jc.DeepEquals, &config.Config{
		ContainerImage:   "custom/image:tag",
		Port:             8091,
		ExternalHostname: "beszel.example.com",
		S3BackupEnabled:  true,
		S3Endpoint:       "https://s3.example.com",
		S3Bucket:         "backups",
		S3Region:         "us-west-2",
		LogLevel:         "debug",
	})
}

func (s *configSuite) TestNilValuesTakeDefaults(c *gc.C) {
	cfg, err := config.Load(map[string]any{"port": nil, "log-level": nil}, nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg.Port, gc.Equals, 8090)
	c.Check(cfg.LogLevel, gc.Equals, "info")
}

func (s *configSuite) TestPortFromString(c *gc.C) {
	cfg, err := config.Load(map[string]any{"port": "9000"}, nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg.Port, gc.Equals, 9000)
}

func (s *configSuite) TestPortOutOfRange(c *gc.C) {
	for _, port := range []int{0, -1, 65536} {
		_, err := config.Load(map[string]any{"port": port}, nil)
		c.Check(err, gc.ErrorMatches, fmt.Sprintf("port %d not valid", port))
		c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
	}
}

func (s *configSuite) TestWrongType(c *gc.C) {
	_, err := config.Load(map[string]any{"s3-backup-enabled": []string{"yes"}}, nil)
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *configSuite) TestUnknownLogLevelFallsBack(c *gc.C) {
	logger := &recordingLogger{}
	cfg, err := config.Load(map[string]any{"log-level": "chatty"}, logger)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg.LogLevel, gc.Equals, "info")
	c.Check(logger.warnings, jc.DeepEquals, []string{`unknown log-level "chatty", using "info"`})
}

func (s *configSuite) TestLogLevelIsCaseInsensitive(c *gc.C) {
	cfg, err := config.Load(map[string]any{"log-level": "WARN"}, nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg.LogLevel, gc.Equals, "warn")
}

func (s *configSuite) TestS3EnabledWithoutEndpoint(c *gc.C) {
	_, err := config.Load(map[string]any{
		"s3-backup-enabled": true,
		"s3-endpoint":       "",
		"s3-bucket":         "backups",
	}, nil)
	c.Check(err, gc.ErrorMatches, "s3-backup-enabled requires s3-endpoint")
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *configSuite) TestS3EnabledWithoutEndpointOrBucket(c *gc.C) {
	_, err := config.Load(map[string]any{"s3-backup-enabled": true}, nil)
	c.Check(err, gc.ErrorMatches, "s3-backup-enabled requires s3-endpoint and s3-bucket")
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *configSuite) TestS3DisabledIgnoresMissingFields(c *gc.C) {
	cfg, err := config.Load(map[string]any{"s3-backup-enabled": false, "s3-region": ""}, nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg.S3Region, gc.Equals, "us-east-1")
}
