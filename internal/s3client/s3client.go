// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package s3client uploads hub backups to S3-compatible object storage.
package s3client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/juju/errors"
)

const (
	// defaultRegion is used when the object storage provider does not name
	// one. Most S3-compatible stores ignore the region but request signing
	// requires a value.
	defaultRegion = "us-east-1"

	// KeyPrefix is prepended to every object key written by the operator.
	KeyPrefix = "beszel/"
)

// Logger represents the logging methods called.
type Logger interface {
	Debugf(message string, args ...any)
}

// HTTPClient represents the http client used to reach the endpoint.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// ObjectsAPI is the subset of the S3 API used by the session.
type ObjectsAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Session uploads objects to a single bucket.
type Session interface {
	// PutObject stores data under KeyPrefix+name and returns the object's
	// s3:// URI.
	PutObject(ctx context.Context, name string, data []byte) (string, error)
}

// Credentials describes the object storage to connect to.
type Credentials struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Validate ensures the credentials are usable.
func (c Credentials) Validate() error {
	if c.Endpoint == "" {
		return errors.NotValidf("empty endpoint")
	}
	if c.Bucket == "" {
		return errors.NotValidf("empty bucket")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.NotValidf("missing access keys")
	}
	return nil
}

// String hides the secret key.
func (c Credentials) String() string {
	return fmt.Sprintf("{%s %s %s %s ***}", c.Endpoint, c.Bucket, c.Region, c.AccessKey)
}

// GoString hides the secret key.
func (c Credentials) GoString() string {
	return c.String()
}

type session struct {
	api    ObjectsAPI
	bucket string
	logger Logger
}

// NewSession returns a Session for the bucket named in creds.
func NewSession(creds Credentials, httpClient HTTPClient, logger Logger) (Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	region := creds.Region
	if region == "" {
		region = defaultRegion
	}
	cfg := aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, ""),
		HTTPClient:  httpClient,
	}
	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL(creds.Endpoint))
		// Bucket names in the host only work for AWS itself.
		o.UsePathStyle = true
	})
	return newSession(api, creds.Bucket, logger), nil
}

func newSession(api ObjectsAPI, bucket string, logger Logger) *session {
	return &session{api: api, bucket: bucket, logger: logger}
}

// PutObject is part of the Session interface.
func (s *session) PutObject(ctx context.Context, name string, data []byte) (string, error) {
	key := KeyPrefix + name
	s.logger.Debugf("uploading %d bytes to s3://%s/%s", len(data), s.bucket, key)
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return "", errors.Annotatef(err, "uploading %q to bucket %q", key, s.bucket)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// endpointURL adds a scheme to bare host endpoints.
func endpointURL(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "https://" + endpoint
}
