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

package cloud_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	videopb "cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/features"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
	"google.golang.org/protobuf/types/known/durationpb"
)

func TestConvertAnnotationResults(t *testing.T) {
	resp := &videopb.AnnotateVideoResponse{
		AnnotationResults: []*videopb.VideoAnnotationResults{
			{
				ShotAnnotations: []*videopb.VideoSegment{
					{StartTimeOffset: durationpb.New(0), EndTimeOffset: durationpb.New(2 * time.Second)},
					{StartTimeOffset: durationpb.New(2 * time.Second), EndTimeOffset: durationpb.New(5 * time.Second)},
				},
				SegmentLabelAnnotations: []*videopb.LabelAnnotation{
					{Entity: &videopb.Entity{Description: "dog"}},
				},
				ShotLabelAnnotations: []*videopb.LabelAnnotation{
					{Entity: &videopb.Entity{Description: "park"}},
					{Entity: &videopb.Entity{Description: ""}},
				},
				TextAnnotations: []*videopb.TextAnnotation{{Text: "SALE"}},
				ObjectAnnotations: []*videopb.ObjectTrackingAnnotation{
					{Entity: &videopb.Entity{Description: "ball"}},
				},
				ExplicitAnnotation: &videopb.ExplicitContentAnnotation{
					Frames: []*videopb.ExplicitContentFrame{
						{PornographyLikelihood: videopb.Likelihood_VERY_UNLIKELY},
						{PornographyLikelihood: videopb.Likelihood_UNLIKELY},
					},
				},
			},
			{},
		},
	}

	results := cloud.ConvertAnnotationResults(resp)
	require.Len(t, results, 2)

	first := results[0]
	assert.Len(t, first.Shots, 2)
	assert.InDelta(t, 5.0, first.Shots[1].EndSeconds, 1e-9)
	assert.Equal(t, []model.Entity{{Description: "dog"}, {Description: "park"}, {Description: ""}}, first.Labels)
	assert.Equal(t, []model.Likelihood{model.LikelihoodVeryUnlikely, model.LikelihoodUnlikely}, first.ExplicitSamples)
	assert.Empty(t, results[1].ExplicitSamples)

	set := features.Normalize(results, nil)
	assert.Equal(t, []string{"dog", "park"}, set.Labels)
	assert.Equal(t, 2, set.ShotCount)
	assert.Equal(t, model.ExplicitTrue, set.ExplicitContent)
	assert.Equal(t, []string{"SALE"}, set.TextAnnotations)
	assert.Equal(t, []string{"ball"}, set.ObjectAnnotations)
}

func TestLikelihoodLevelsMatchVendor(t *testing.T) {
	assert.Equal(t, int32(videopb.Likelihood_LIKELIHOOD_UNSPECIFIED), int32(model.LikelihoodUnspecified))
	assert.Equal(t, int32(videopb.Likelihood_VERY_UNLIKELY), int32(model.LikelihoodVeryUnlikely))
	assert.Equal(t, int32(videopb.Likelihood_VERY_LIKELY), int32(model.LikelihoodVeryLikely))
}

func TestNewAnnotateVideoRequest(t *testing.T) {
	req, err := cloud.NewAnnotateVideoRequest("gs://b/v.mp4", []model.AnalysisFeature{
		model.FeatureLabelDetection, model.FeatureShotChange, model.FeatureExplicitContent,
	})
	require.NoError(t, err)
	assert.Equal(t, "gs://b/v.mp4", req.GetInputUri())
	assert.Equal(t, []videopb.Feature{
		videopb.Feature_LABEL_DETECTION, videopb.Feature_SHOT_CHANGE_DETECTION, videopb.Feature_EXPLICIT_CONTENT_DETECTION,
	}, req.GetFeatures())

	_, err = cloud.NewAnnotateVideoRequest("gs://b/v.mp4", []model.AnalysisFeature{"NOPE"})
	var validation *model.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestGCSObject(t *testing.T) {
	obj := &cloud.GCSObject{Bucket: "mychannel-ingest", Name: "clips/a.mp4", MIMEType: "video/mp4"}
	assert.Equal(t, "gs://mychannel-ingest/clips/a.mp4", obj.URI())
	assert.True(t, obj.IsVideo())
	assert.False(t, (&cloud.GCSObject{MIMEType: "image/png"}).IsVideo())
}

func TestEncodePayload(t *testing.T) {
	raw, err := cloud.EncodePayload([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(raw))

	raw, err = cloud.EncodePayload(json.RawMessage(`{"b":2}`))
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(raw))

	raw, err = cloud.EncodePayload(model.SummaryEvent{Type: model.EventTypeSummarize, OK: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"summarize","ok":true}`, string(raw))

	_, err = cloud.EncodePayload(func() {})
	assert.Error(t, err)
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	base := `
[application]
name = "media-gateway"
google_project_id = "base-project"

[storage]
ingest_bucket = "base-bucket"

[tmdb]
api_key_env = "TEST_TMDB_KEY"
`
	override := `
[application]
google_project_id = "override-project"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte(base), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.unit.toml"), []byte(override), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.secrets"), []byte("TEST_TMDB_KEY=from-secrets\n"), 0o600))

	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "unit")
	t.Setenv("TEST_TMDB_KEY", "")
	os.Unsetenv("TEST_TMDB_KEY")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))

	assert.Equal(t, "media-gateway", config.Application.Name)
	assert.Equal(t, "override-project", config.Application.GoogleProjectId)
	assert.Equal(t, "base-bucket", config.Storage.IngestBucket)
	assert.Equal(t, "events", config.Events.Topic)
	assert.Equal(t, 15*time.Minute, config.Storage.UploadURLTTL())
	assert.Equal(t, "from-secrets", config.TMDB.APIKey())
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte("[application\nname="), 0o600))
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "unit")

	assert.Error(t, cloud.LoadConfig(cloud.NewConfig()))
}

type fakeModels struct {
	failures int
	calls    int
	prompt   string
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("unavailable")
	}
	f.prompt = contents[0].Parts[0].Text
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: " A short "}, {Text: "summary. "}}}},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 4},
	}, nil
}

func TestGenerateTextRetries(t *testing.T) {
	handle := &fakeModels{failures: 2}
	model := cloud.NewQuotaAwareModel(&genai.GenerateContentConfig{}, "test-model", handle, 100)

	out, err := model.GenerateText(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", out)
	assert.Equal(t, 3, handle.calls)
	assert.Equal(t, "summarize this", handle.prompt)
}

func TestGenerateTextGivesUp(t *testing.T) {
	handle := &fakeModels{failures: 100}
	model := cloud.NewQuotaAwareModel(&genai.GenerateContentConfig{}, "test-model", handle, 100)

	_, err := model.GenerateText(context.Background(), "summarize this")
	assert.Error(t, err)
	assert.Equal(t, cloud.MaxRetries+1, handle.calls)
}
