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

package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/workflow"
	"github.com/jaycherian/gcp-go-media-gateway/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func labels(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + string(rune('A'+i/26)) + string(rune('a'+i%26))
	}
	return out
}

func sampleResults() []model.RawAnnotationResult {
	return []model.RawAnnotationResult{
		{
			Shots:           []model.ShotSegment{{StartSeconds: 0, EndSeconds: 2}, {StartSeconds: 2, EndSeconds: 4}},
			Labels:          []model.Entity{{Description: "park"}, {Description: "dog"}},
			ExplicitSamples: []model.Likelihood{model.LikelihoodVeryUnlikely},
		},
		{
			Shots:   []model.ShotSegment{{StartSeconds: 4, EndSeconds: 9}},
			Labels:  []model.Entity{{Description: "dog"}},
			Texts:   []model.TextDetection{{Text: "SALE"}},
			Objects: []model.Entity{{Description: "ball"}},
		},
	}
}

func publishedTypes(messages []testutil.PublishedMessage) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		switch m.Payload.(type) {
		case *model.FeatureEvent:
			out = append(out, model.EventTypeVideoFeatures)
		case *model.ScoreEvent:
			out = append(out, model.EventTypeViralityScore)
		case model.SummaryEvent:
			out = append(out, model.EventTypeSummarize)
		}
	}
	return out
}

func TestVideoAnalysisWorkflow(t *testing.T) {
	config := testutil.GetConfig(t)
	annotator := &testutil.FakeAnnotator{Results: sampleResults()}
	publisher := &testutil.FakePublisher{}

	w, err := workflow.NewVideoAnalysisWorkflow(config, annotator, publisher)
	require.NoError(t, err)

	out, err := w.Analyze(context.Background(), &model.AnalysisRequest{GCSURI: "gs://mychannel-ingest/clip.mp4", DurationSeconds: ptr(30.0)})
	require.NoError(t, err)
	w.Wait()

	assert.Equal(t, []string{"dog", "park"}, out.Labels)
	assert.Equal(t, 3, out.ShotCount)
	assert.Equal(t, model.ExplicitFalse, out.ExplicitContent)
	assert.Equal(t, []string{"SALE"}, out.TextAnnotations)
	assert.Equal(t, []string{"ball"}, out.ObjectAnnotations)
	assert.Equal(t, 30.0, *out.DurationSeconds)
	assert.Equal(t, "gs://mychannel-ingest/clip.mp4", out.URI)
	assert.NotEmpty(t, out.VideoID)

	_, features := annotator.LastCall()
	assert.Len(t, features, len(config.VideoAnalysis.DefaultFeatures))

	messages := publisher.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, config.Events.Topic, messages[0].Topic)
	evt := messages[0].Payload.(*model.FeatureEvent)
	assert.Equal(t, out.VideoID, evt.VideoID)
	assert.Equal(t, out.NormalizedFeatureSet, evt.Features)
	logger.Info("video analysis workflow passed", "video_id", out.VideoID)
}

func TestVideoAnalysisWorkflowValidation(t *testing.T) {
	annotator := &testutil.FakeAnnotator{}
	publisher := &testutil.FakePublisher{}
	w, err := workflow.NewVideoAnalysisWorkflow(testutil.GetConfig(t), annotator, publisher)
	require.NoError(t, err)

	_, err = w.Analyze(context.Background(), &model.AnalysisRequest{GCSURI: ""})
	w.Wait()

	var validation *model.ValidationError
	assert.True(t, errors.As(err, &validation))
	assert.Zero(t, annotator.Calls())
	assert.Empty(t, publisher.Messages())
}

func TestVideoAnalysisWorkflowUpstreamFailure(t *testing.T) {
	publisher := &testutil.FakePublisher{}
	w, err := workflow.NewVideoAnalysisWorkflow(testutil.GetConfig(t), &testutil.FakeAnnotator{Err: errors.New("unavailable")}, publisher)
	require.NoError(t, err)

	_, err = w.Analyze(context.Background(), &model.AnalysisRequest{GCSURI: "gs://b/v.mp4"})
	w.Wait()

	var upstream *model.UpstreamError
	assert.True(t, errors.As(err, &upstream))
	assert.Empty(t, publisher.Messages())
}

func TestVideoAnalysisWorkflowIgnoresPublishFailure(t *testing.T) {
	publisher := &testutil.FakePublisher{Err: errors.New("bus down")}
	w, err := workflow.NewVideoAnalysisWorkflow(testutil.GetConfig(t), &testutil.FakeAnnotator{Results: sampleResults()}, publisher)
	require.NoError(t, err)

	out, err := w.Analyze(context.Background(), &model.AnalysisRequest{GCSURI: "gs://b/v.mp4"})
	w.Wait()

	require.NoError(t, err)
	assert.Equal(t, 3, out.ShotCount)
	assert.Len(t, publisher.Messages(), 1)
}

func TestVideoAnalysisWorkflowRejectsBadDefaults(t *testing.T) {
	config := cloud.NewConfig()
	config.VideoAnalysis.DefaultFeatures = []string{"LABEL_DETECTION", "SPEECH"}
	_, err := workflow.NewVideoAnalysisWorkflow(config, &testutil.FakeAnnotator{}, &testutil.FakePublisher{})
	assert.Error(t, err)
}

func TestViralityScoringWorkflow(t *testing.T) {
	publisher := &testutil.FakePublisher{}
	w := workflow.NewViralityScoringWorkflow(testutil.GetConfig(t), publisher)

	score, err := w.Score(context.Background(), &model.ScoreRequest{
		Labels:            labels("l", 40),
		ObjectAnnotations: labels("o", 20),
		Shots:             100,
		ExplicitContent:   ptr(false),
		DurationSeconds:   ptr(45.0),
		VideoID:           "clip-7",
	})
	require.NoError(t, err)
	w.Wait()

	assert.InDelta(t, 0.65, score.Score, 1e-9)
	assert.Equal(t, []string{"richness", "pace", "duration_sweet_spot"}, score.Factors.Names())

	messages := publisher.Messages()
	require.Len(t, messages, 1)
	evt := messages[0].Payload.(*model.ScoreEvent)
	assert.Equal(t, "clip-7", evt.VideoID)
	assert.InDelta(t, 0.65, evt.Virality.Score, 1e-9)
}

func TestViralityScoringWorkflowRejectsNegativeShots(t *testing.T) {
	publisher := &testutil.FakePublisher{}
	w := workflow.NewViralityScoringWorkflow(testutil.GetConfig(t), publisher)

	_, err := w.Score(context.Background(), &model.ScoreRequest{Shots: -4})
	w.Wait()

	var validation *model.ValidationError
	assert.True(t, errors.As(err, &validation))
	assert.Empty(t, publisher.Messages())
}

func TestUploadAnalysisWorkflow(t *testing.T) {
	annotator := &testutil.FakeAnnotator{Results: sampleResults()}
	publisher := &testutil.FakePublisher{}
	w, err := workflow.NewUploadAnalysisWorkflow(testutil.GetConfig(t), annotator, publisher)
	require.NoError(t, err)

	chCtx := cor.NewContextWithInput(context.Background(), testutil.GetTestUploadMessageText())
	w.Execute(chCtx)
	w.Wait()

	require.NoError(t, chCtx.Err())
	uri, _ := annotator.LastCall()
	assert.Equal(t, "gs://mychannel-ingest/test-trailer-001.mp4", uri)
	assert.ElementsMatch(t, []string{model.EventTypeVideoFeatures, model.EventTypeViralityScore}, publishedTypes(publisher.Messages()))

	_, ok := cor.Value[*model.ViralityScore](chCtx, cor.CtxIn)
	assert.True(t, ok)
}

func TestUploadAnalysisWorkflowSkipsNonVideo(t *testing.T) {
	annotator := &testutil.FakeAnnotator{}
	publisher := &testutil.FakePublisher{}
	w, err := workflow.NewUploadAnalysisWorkflow(testutil.GetConfig(t), annotator, publisher)
	require.NoError(t, err)

	chCtx := cor.NewContextWithInput(context.Background(), testutil.GCSNotification("mychannel-ingest", "thumb.jpg", "image/jpeg"))
	w.Execute(chCtx)
	w.Wait()

	assert.NoError(t, chCtx.Err())
	assert.Zero(t, annotator.Calls())
	assert.Empty(t, publisher.Messages())
}

func TestFeatureSinkWorkflow(t *testing.T) {
	inserter := &testutil.FakeInserter{}
	w := workflow.NewFeatureSinkWorkflow(inserter)

	chCtx := cor.NewContextWithInput(context.Background(), testutil.GetTestFeatureEventText())
	w.Execute(chCtx)
	require.NoError(t, chCtx.Err())

	rows := inserter.Rows()
	require.Len(t, rows, 1)
	record := rows[0].(*model.FeatureRecord)
	assert.Equal(t, "trailer-001", record.VideoID)
	assert.Equal(t, 12, record.ShotCount)
	assert.True(t, record.DurationSeconds.Valid)

	chCtx = cor.NewContextWithInput(context.Background(), `{"type":"virality_score","event_id":"x"}`)
	w.Execute(chCtx)
	assert.NoError(t, chCtx.Err())
	assert.Len(t, inserter.Rows(), 1)
}

func TestTextSummaryWorkflow(t *testing.T) {
	generator := &testutil.FakeTextGenerator{Reply: "Un chien joue."}
	publisher := &testutil.FakePublisher{}
	w, err := workflow.NewTextSummaryWorkflow(testutil.GetConfig(t), generator, publisher)
	require.NoError(t, err)

	out, err := w.Summarize(context.Background(), &model.SummaryRequest{Text: "dog plays", Lang: "fr"})
	require.NoError(t, err)
	w.Wait()

	assert.Equal(t, "Un chien joue.", out.Summary)
	assert.Equal(t, []string{"Summarize for video description in fr: dog plays"}, generator.Prompts())
	messages := publisher.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, model.SummaryEvent{Type: model.EventTypeSummarize, OK: true}, messages[0].Payload)
}

func TestTextSummaryWorkflowReportsFailure(t *testing.T) {
	publisher := &testutil.FakePublisher{}
	w, err := workflow.NewTextSummaryWorkflow(testutil.GetConfig(t), &testutil.FakeTextGenerator{Err: errors.New("quota")}, publisher)
	require.NoError(t, err)

	_, err = w.Summarize(context.Background(), &model.SummaryRequest{Text: "dog plays"})
	w.Wait()

	var upstream *model.UpstreamError
	assert.True(t, errors.As(err, &upstream))
	messages := publisher.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, model.SummaryEvent{Type: model.EventTypeSummarize, OK: false}, messages[0].Payload)
}

func TestUserLifecycleWorkflow(t *testing.T) {
	handler := &testutil.FakeUserHandler{Handled: true}
	w := workflow.NewUserLifecycleWorkflow(handler)

	chCtx := cor.NewContextWithInput(context.Background(), testutil.GetTestUserCreatedText())
	w.Execute(chCtx)

	require.NoError(t, chCtx.Err())
	require.Len(t, handler.Events(), 1)
	assert.Equal(t, model.UserDocumentCreated, handler.Events()[0].Kind)

	failing := workflow.NewUserLifecycleWorkflow(&testutil.FakeUserHandler{Err: errors.New("permission denied")})
	chCtx = cor.NewContextWithInput(context.Background(), testutil.GetTestUserCreatedText())
	failing.Execute(chCtx)
	assert.ErrorContains(t, chCtx.Err(), "permission denied")
}
