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

// Package testutil provides canned messages, configuration helpers and
// in-memory fakes of the capability interfaces for the gateway's tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
)

var (
	configOnce sync.Once
	config     *cloud.Config
	configErr  error
)

// ConfigDir returns the absolute path of the repository's configs directory.
func ConfigDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "configs")
}

// SetupOS points the configuration loader at the test runtime files.
func SetupOS() error {
	if err := os.Setenv(cloud.EnvConfigFilePrefix, ConfigDir()); err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads configs/.env.toml with the test overrides once per test
// binary and fails the test if that is not possible.
func GetConfig(t testing.TB) *cloud.Config {
	t.Helper()
	configOnce.Do(func() {
		if configErr = SetupOS(); configErr != nil {
			return
		}
		c := cloud.NewConfig()
		if configErr = cloud.LoadConfig(c); configErr == nil {
			config = c
		}
	})
	if configErr != nil {
		t.Fatalf("failed to load test config: %v", configErr)
	}
	return config
}

// GCSNotification returns an object-finalize notification as Cloud Storage
// publishes it.
func GCSNotification(bucket string, name string, contentType string) string {
	return fmt.Sprintf(`{
  "kind": "storage#object",
  "id": "%[1]s/%[2]s/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/%[1]s/o/%[2]s",
  "name": "%[2]s",
  "bucket": "%[1]s",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "%[3]s",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/%[1]s/o/%[2]s?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`, bucket, name, contentType)
}

// GetTestUploadMessageText is a notification for a trailer landing in the
// ingest bucket.
func GetTestUploadMessageText() string {
	return GCSNotification(cloud.DefaultIngest, "test-trailer-001.mp4", "video/mp4")
}

// GetTestFeatureEventText is a video_features event as the analysis workflow
// publishes it.
func GetTestFeatureEventText() string {
	return `{
  "type": "video_features",
  "event_id": "9f7e3c1e-6d7b-4bd4-a0f4-3f5d4b9a2c10",
  "video_id": "trailer-001",
  "uri": "gs://mychannel-ingest/test-trailer-001.mp4",
  "features": {
    "labels": ["dog", "park"],
    "shots": 12,
    "explicit_content": false,
    "text_annotations": ["SALE"],
    "object_annotations": ["ball"],
    "duration_seconds": 45
  },
  "published_at": "2024-10-11T03:05:00Z"
}`
}

// GetTestUserCreatedText is a document creation event from the users
// collection.
func GetTestUserCreatedText() string {
	return `{
  "kind": "created",
  "user_id": "u-123",
  "after": {"email": "creator@example.com", "displayName": "Ada", "emailVerified": false, "preferredLanguage": "fr"}
}`
}
