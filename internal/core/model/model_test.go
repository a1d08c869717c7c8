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

// Package model_test covers the JSON contracts of the model types and the
// conversions between feature events and dataset rows.
package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplicitContentJSON(t *testing.T) {
	tests := []struct {
		value model.ExplicitContent
		json  string
	}{
		{model.ExplicitUnknown, "null"},
		{model.ExplicitFalse, "false"},
		{model.ExplicitTrue, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.value.String(), func(t *testing.T) {
			body, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.json, string(body))

			var back model.ExplicitContent
			require.NoError(t, json.Unmarshal(body, &back))
			assert.Equal(t, tt.value, back)
		})
	}
}

func TestFactorsKeepOrder(t *testing.T) {
	in := model.Factors{
		{Name: "explicit_penalty", Value: -0.2},
		{Name: "richness", Value: 0.3},
		{Name: "pace", Value: 0.1},
	}

	body, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"explicit_penalty":-0.2,"richness":0.3,"pace":0.1}`, string(body))

	var back model.Factors
	require.NoError(t, json.Unmarshal(body, &back))
	assert.Equal(t, in, back)
	assert.InDelta(t, 0.2, back.Sum(), 1e-9)
}

func TestFactorsRejectNonObject(t *testing.T) {
	var f model.Factors
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &f))
}

func TestParseAnalysisFeature(t *testing.T) {
	f, err := model.ParseAnalysisFeature("LABEL_DETECTION")
	require.NoError(t, err)
	assert.Equal(t, model.FeatureLabelDetection, f)

	_, err = model.ParseAnalysisFeature("FACE_DETECTION")
	var validation *model.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "features", validation.Field)
}

func TestNewFeatureEvent(t *testing.T) {
	duration := 31.0
	features := model.NormalizedFeatureSet{
		Labels:            []string{"dog"},
		ShotCount:         4,
		ExplicitContent:   model.ExplicitFalse,
		TextAnnotations:   []string{},
		ObjectAnnotations: []string{"ball"},
		DurationSeconds:   &duration,
	}

	evt := model.NewFeatureEvent("video-1", "gs://bucket/clip.mp4", features)

	assert.Equal(t, model.EventTypeVideoFeatures, evt.Type)
	_, err := uuid.Parse(evt.EventID)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now(), evt.PublishedAt, time.Second)

	record := model.NewFeatureRecord(evt)
	assert.Equal(t, "video-1", record.VideoID)
	assert.True(t, record.ExplicitContent.Valid)
	assert.False(t, record.ExplicitContent.Bool)
	assert.True(t, record.DurationSeconds.Valid)
	assert.Equal(t, features, record.FeatureSet())
}

func TestFeatureRecordUnknownExplicit(t *testing.T) {
	evt := model.NewFeatureEvent("video-2", "gs://bucket/other.mp4", model.NormalizedFeatureSet{})

	record := model.NewFeatureRecord(evt)
	assert.False(t, record.ExplicitContent.Valid)
	assert.False(t, record.DurationSeconds.Valid)

	back := record.FeatureSet()
	assert.Equal(t, model.ExplicitUnknown, back.ExplicitContent)
	assert.Equal(t, []string{}, back.Labels)
	assert.Nil(t, back.DurationSeconds)
}

func TestUpstreamErrorUnwraps(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := model.NewUpstreamError("video-intelligence", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "video-intelligence")
}

func TestUserDocumentDefaults(t *testing.T) {
	var doc *model.UserDocument
	assert.Equal(t, "en", doc.Language())
	assert.Equal(t, "Creator", doc.Name())

	doc = &model.UserDocument{PreferredLanguage: "ml", DisplayName: "Anu"}
	assert.Equal(t, "ml", doc.Language())
	assert.Equal(t, "Anu", doc.Name())
}
