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

// Package services holds the read and side-effect services the HTTP handlers
// and workflows call: the feature table in BigQuery, signed upload URLs, the
// TMDB catalog proxy and the user document bookkeeping in Firestore.
package services

const (
	// QryLatestFeatures returns the most recent feature row of one video.
	// The table name is formatted in; the video id is a query parameter.
	QryLatestFeatures = "SELECT * FROM `%s` WHERE video_id = @video_id ORDER BY create_date DESC LIMIT 1"
)
