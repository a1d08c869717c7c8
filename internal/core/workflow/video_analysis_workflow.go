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

// Package workflow assembles the gateway's commands into the chains the HTTP
// handlers and Pub/Sub listeners run. Each workflow is itself a command, so a
// listener can execute it directly with the raw message as input.
package workflow

import (
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// VideoAnalysisWorkflow validates an analysis request, annotates the video,
// normalizes the result and publishes the feature set to the events topic.
//
// Input: *model.AnalysisRequest. Output: *model.NormalizedFeatureSet.
type VideoAnalysisWorkflow struct {
	cor.BaseCommand
	publisher *commands.PublishEvent
	chain     cor.Chain
}

// analysisSteps are the commands shared by the HTTP analysis and the upload
// trigger. publish is returned so the owner can wait for pending publishes.
func analysisSteps(config *cloud.Config, annotator commands.VideoAnnotator, publisher commands.EventPublisher) ([]cor.Command, *commands.PublishEvent, error) {
	defaults, err := DefaultFeatures(config)
	if err != nil {
		return nil, nil, err
	}
	publish := commands.NewPublishEvent("publish-video-features", publisher, config.Events.Topic, commands.FeatureEnvelope)
	return []cor.Command{
		commands.NewValidateAnalysisRequest("validate-analysis-request", defaults),
		commands.NewAnnotateVideo("annotate-video", annotator, config.VideoAnalysis.Timeout()),
		commands.NewNormalizeFeatures("normalize-features"),
		publish,
	}, publish, nil
}

// DefaultFeatures parses the configured default feature flags.
func DefaultFeatures(config *cloud.Config) ([]model.AnalysisFeature, error) {
	out := make([]model.AnalysisFeature, 0, len(config.VideoAnalysis.DefaultFeatures))
	for _, f := range config.VideoAnalysis.DefaultFeatures {
		parsed, err := model.ParseAnalysisFeature(f)
		if err != nil {
			return nil, fmt.Errorf("video_analysis.default_features: %w", err)
		}
		out = append(out, parsed)
	}
	return out, nil
}

func NewVideoAnalysisWorkflow(config *cloud.Config, annotator commands.VideoAnnotator, publisher commands.EventPublisher) (*VideoAnalysisWorkflow, error) {
	steps, publish, err := analysisSteps(config, annotator, publisher)
	if err != nil {
		return nil, err
	}
	w := &VideoAnalysisWorkflow{
		BaseCommand: *cor.NewBaseCommand("video-analysis-workflow"),
		publisher:   publish,
	}
	w.chain = cor.NewBaseChain(w.GetName()).AddCommands(steps...)
	return w, nil
}

func (w *VideoAnalysisWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Analyze runs the workflow for one request. The returned error carries the
// model error types of the failing command.
func (w *VideoAnalysisWorkflow) Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResponse, error) {
	chCtx := cor.NewContextWithInput(ctx, req)
	w.Execute(chCtx)
	if err := chCtx.Err(); err != nil {
		return nil, err
	}

	set, ok := cor.Value[*model.NormalizedFeatureSet](chCtx, commands.FeaturesParam)
	if !ok {
		return nil, fmt.Errorf("%s produced no feature set", w.GetName())
	}
	validated, _ := cor.Value[*model.AnalysisRequest](chCtx, commands.RequestParam)
	return &model.AnalysisResponse{
		NormalizedFeatureSet: *set,
		URI:                  validated.GCSURI,
		VideoID:              validated.VideoID,
	}, nil
}

// Wait blocks until background publishes have finished.
func (w *VideoAnalysisWorkflow) Wait() {
	w.publisher.Wait()
}
