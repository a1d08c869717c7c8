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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains the request and response shapes that
// only live for the duration of an API call or a workflow run. None of them
// are persisted as-is.
package model

// AnalysisRequest asks the gateway to analyze a video stored in Cloud Storage.
// Features may be empty, in which case the configured defaults are used.
type AnalysisRequest struct {
	GCSURI          string            `json:"gcs_uri"`
	Features        []AnalysisFeature `json:"features"`
	VideoID         string            `json:"video_id,omitempty"`
	DurationSeconds *float64          `json:"duration_seconds,omitempty"`
}

// AnalysisResponse is the body returned by the analyze endpoint: the
// normalized feature set plus the analyzed URI.
type AnalysisResponse struct {
	NormalizedFeatureSet
	URI     string `json:"uri"`
	VideoID string `json:"video_id,omitempty"`
}

// ScoreRequest carries a feature set supplied directly by a caller. Sets may
// contain duplicates; they are normalized before scoring.
type ScoreRequest struct {
	Labels            []string `json:"labels"`
	Shots             int      `json:"shots"`
	ExplicitContent   *bool    `json:"explicit_content"`
	DurationSeconds   *float64 `json:"duration_seconds"`
	TextAnnotations   []string `json:"text_annotations"`
	ObjectAnnotations []string `json:"object_annotations"`
	VideoID           string   `json:"video_id,omitempty"`
}

// SummaryRequest asks the text model for a short description in a language.
type SummaryRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

// UploadURLRequest asks for a signed URL the client can PUT a file to.
type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type UploadURLResponse struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
}

// RankRequest is a list of free-form feed items to order for a user.
type RankRequest struct {
	Items []map[string]any `json:"items"`
	User  map[string]any   `json:"user"`
}
