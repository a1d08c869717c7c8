// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"
	"fmt"
	"strings"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// GetGCSObjectName is the context key under which trigger commands store the
// GCSObject they parsed.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification is the JSON payload Cloud Storage publishes when an
// object is finalized in a bucket with notifications enabled.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`
	ID                      string                 `json:"id"`
	SelfLink                string                 `json:"selfLink"`
	Name                    string                 `json:"name"`
	Bucket                  string                 `json:"bucket"`
	Generation              string                 `json:"generation"`
	MetaGeneration          string                 `json:"metageneration"`
	ContentType             string                 `json:"contentType"`
	TimeCreated             string                 `json:"timeCreated"`
	Updated                 string                 `json:"updated"`
	StorageClass            string                 `json:"storageClass"`
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"`
	Size                    string                 `json:"size"`
	MD5Hash                 string                 `json:"md5Hash"`
	MediaLink               string                 `json:"mediaLink"`
	MetaData                map[string]interface{} `json:"metadata"`
	Crc32c                  string                 `json:"crc32c"`
	ETag                    string                 `json:"etag"`
}

// GCSObject is the part of a notification the workflows care about.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// URI returns the gs:// address of the object.
func (o *GCSObject) URI() string {
	return fmt.Sprintf("gs://%s/%s", o.Bucket, o.Name)
}

// IsVideo reports whether the object carries a video/* content type.
func (o *GCSObject) IsVideo() bool {
	return strings.HasPrefix(o.MIMEType, "video/")
}

// GCSSigner issues V4 signed URLs. When a signer service account is
// configured the signature is produced by the IAM credentials API, which is
// what Cloud Run and GKE workloads without a private key need.
type GCSSigner struct {
	client      *storage.Client
	iam         *credentials.IamCredentialsClient
	signerEmail string
}

func NewGCSSigner(client *storage.Client, iam *credentials.IamCredentialsClient, signerEmail string) *GCSSigner {
	return &GCSSigner{client: client, iam: iam, signerEmail: signerEmail}
}

// SignedURL fills the signing fields of opts and returns the URL for
// bucket/object. Without a signer account the client credentials sign it.
func (s *GCSSigner) SignedURL(ctx context.Context, bucket string, object string, opts *storage.SignedURLOptions) (string, error) {
	if s.iam != nil && s.signerEmail != "" {
		opts.GoogleAccessID = s.signerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) {
			resp, err := s.iam.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.signerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, err
			}
			return resp.SignedBlob, nil
		}
	}
	return s.client.Bucket(bucket).SignedURL(object, opts)
}
