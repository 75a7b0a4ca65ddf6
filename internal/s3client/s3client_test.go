// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package s3client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"
)

type s3clientSuite struct {
	testing.IsolationSuite

	api *MockObjectsAPI
}

var _ = gc.Suite(&s3clientSuite{})

func (s *s3clientSuite) setupMocks(c *gc.C) *gomock.Controller {
	ctrl := gomock.NewController(c)
	s.api = NewMockObjectsAPI(ctrl)
	return ctrl
}

func (s *s3clientSuite) TestPutObject(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.api.EXPECT().PutObject(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			c.Check(aws.ToString(in.Bucket), gc.Equals, "backups")
			c.Check(aws.ToString(in.Key), gc.Equals, "beszel/beszel-backup-20250102-030405.db")
			c.Check(aws.ToInt64(in.ContentLength), gc.Equals, int64(4))
			data, err := io.ReadAll(in.Body)
			c.Check(err, jc.ErrorIsNil)
			c.Check(string(data), gc.Equals, "data")
			return &s3.PutObjectOutput{}, nil
		})

	session := newSession(s.api, "backups", loggo.GetLogger("test"))
	uri, err := session.PutObject(context.Background(), "beszel-backup-20250102-030405.db", []byte("data"))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(uri, gc.Equals, "s3://backups/beszel/beszel-backup-20250102-030405.db")
}

func (s *s3clientSuite) TestPutObjectError(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.api.EXPECT().PutObject(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("access denied"))

	session := newSession(s.api, "backups", loggo.GetLogger("test"))
	_, err := session.PutObject(context.Background(), "b.db", []byte("data"))
	c.Assert(err, gc.ErrorMatches, `uploading "beszel/b.db" to bucket "backups": access denied`)
}

func (s *s3clientSuite) TestNewSessionValidates(c *gc.C) {
	for i, test := range []struct {
		creds Credentials
		err   string
	}{{
		creds: Credentials{Bucket: "b", AccessKey: "a", SecretKey: "s"},
		err:   "empty endpoint not valid",
	}, {
		creds: Credentials{Endpoint: "e", AccessKey: "a", SecretKey: "s"},
		err:   "empty bucket not valid",
	}, {
		creds: Credentials{Endpoint: "e", Bucket: "b", AccessKey: "a"},
		err:   "missing access keys not valid",
	}} {
		c.Logf("test %d", i)
		_, err := NewSession(test.creds, http.DefaultClient, loggo.GetLogger("test"))
		c.Check(err, gc.ErrorMatches, test.err)
		c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
	}
}

func (s *s3clientSuite) TestNewSession(c *gc.C) {
	session, err := NewSession(Credentials{
		Endpoint:  "minio.local:9000",
		Bucket:    "b",
		AccessKey: "a",
		SecretKey: "s",
	}, http.DefaultClient, loggo.GetLogger("test"))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(session, gc.NotNil)
}

func (s *s3clientSuite) TestCredentialsStringHidesSecret(c *gc.C) {
	creds := Credentials{Endpoint: "e", Bucket: "b", AccessKey: "a", SecretKey: "hunter2"}
	c.Check(fmt.Sprintf("%v", creds), gc.Not(jc.Contains), "hunter2")
	c.Check(fmt.Sprintf("%#v", creds), gc.Not(jc.Contains), "hunter2")
}

func (s *s3clientSuite) TestEndpointURL(c *gc.C) {
	c.Check(endpointURL("minio.local:9000"), gc.Equals, "https://minio.local:9000")
	c.Check(endpointURL("http://minio.local:9000"), gc.Equals, "http://minio.local:9000")
}
