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
// This file, `persistent.go`, holds the rows written to the learning dataset
// in BigQuery. The `bigquery` struct tags map fields onto table columns.
package model

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// FeatureRecord is one row of the video features table. Every published
// feature event becomes one row, so a video may have several; readers take
// the most recent by CreateDate.
type FeatureRecord struct {
	EventID           string               `json:"event_id" bigquery:"event_id"`
	VideoID           string               `json:"video_id" bigquery:"video_id"`
	URI               string               `json:"uri" bigquery:"uri"`
	Labels            []string             `json:"labels" bigquery:"labels"`
	ShotCount         int                  `json:"shots" bigquery:"shots"`
	ExplicitContent   bigquery.NullBool    `json:"explicit_content" bigquery:"explicit_content"`
	TextAnnotations   []string             `json:"text_annotations" bigquery:"text_annotations"`
	ObjectAnnotations []string             `json:"object_annotations" bigquery:"object_annotations"`
	DurationSeconds   bigquery.NullFloat64 `json:"duration_seconds" bigquery:"duration_seconds"`
	CreateDate        time.Time            `json:"create_date" bigquery:"create_date"`
}

// NewFeatureRecord flattens a feature event into a table row.
func NewFeatureRecord(evt *FeatureEvent) *FeatureRecord {
	out := &FeatureRecord{
		EventID:           evt.EventID,
		VideoID:           evt.VideoID,
		URI:               evt.URI,
		Labels:            evt.Features.Labels,
		ShotCount:         evt.Features.ShotCount,
		TextAnnotations:   evt.Features.TextAnnotations,
		ObjectAnnotations: evt.Features.ObjectAnnotations,
		CreateDate:        evt.PublishedAt,
	}
	if out.CreateDate.IsZero() {
		out.CreateDate = time.Now().UTC()
	}
	if explicit := evt.Features.ExplicitContent.Bool(); explicit != nil {
		out.ExplicitContent = bigquery.NullBool{Bool: *explicit, Valid: true}
	}
	if evt.Features.DurationSeconds != nil {
		out.DurationSeconds = bigquery.NullFloat64{Float64: *evt.Features.DurationSeconds, Valid: true}
	}
	return out
}

// FeatureSet rebuilds the normalized feature set stored in the row.
func (r *FeatureRecord) FeatureSet() NormalizedFeatureSet {
	out := NormalizedFeatureSet{
		Labels:            nonNil(r.Labels),
		ShotCount:         r.ShotCount,
		ExplicitContent:   ExplicitUnknown,
		TextAnnotations:   nonNil(r.TextAnnotations),
		ObjectAnnotations: nonNil(r.ObjectAnnotations),
	}
	if r.ExplicitContent.Valid {
		out.ExplicitContent = ExplicitFromBool(&r.ExplicitContent.Bool)
	}
	if r.DurationSeconds.Valid {
		d := r.DurationSeconds.Float64
		out.DurationSeconds = &d
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
