// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relation

import (
	"fmt"
)

const (
	s3EndpointKey  = "endpoint"
	s3BucketKey    = "bucket"
	s3RegionKey    = "region"
	s3AccessKeyKey = "access-key"
	s3SecretKeyKey = "secret-key"
)

// ObjectStorageFact holds the S3 credentials published by the
// object-storage integrator. The credentials are all-or-nothing.
type ObjectStorageFact struct {
	// Related is true when the s3-credentials relation exists.
	Related bool

	// Ready is true only when every field below is set.
	Ready bool

	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// String implements fmt.Stringer without the access and secret keys.
func (f ObjectStorageFact) String() string {
	switch {
	case !f.Related:
		return "s3: not related"
	case !f.Ready:
		return "s3: credentials incomplete"
	}
	return fmt.Sprintf("s3: bucket %q at %q (%s)", f.Bucket, f.Endpoint, f.Region)
}

// GoString implements fmt.GoStringer so %#v does not leak the keys.
func (f ObjectStorageFact) GoString() string {
	return f.String()
}

// ResolveObjectStorage reads the S3 credentials. A relation with partial
// data is reported as related but not ready; that is not an error.
func ResolveObjectStorage(data Data) ObjectStorageFact {
	if !data.Joined {
		return ObjectStorageFact{}
	}
	fact := ObjectStorageFact{
		Related:   true,
		Endpoint:  data.get(s3EndpointKey),
		Bucket:    data.get(s3BucketKey),
		Region:    data.get(s3RegionKey),
		AccessKey: data.get(s3AccessKeyKey),
		SecretKey: data.get(s3SecretKeyKey),
	}
	if fact.Endpoint == "" || fact.Bucket == "" || fact.Region == "" ||
		fact.AccessKey == "" || fact.SecretKey == "" {
		return ObjectStorageFact{Related: true}
	}
	fact.Ready = true
	return fact
}
