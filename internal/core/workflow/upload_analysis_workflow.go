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

package workflow

import (
	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
)

// UploadAnalysisWorkflow analyzes and scores every video that lands in the
// ingest bucket. It is bound to the bucket's notification subscription and
// takes the raw notification JSON as input. Uploads that are not videos end
// the chain without an error.
type UploadAnalysisWorkflow struct {
	cor.BaseCommand
	publishFeatures *commands.PublishEvent
	publishScore    *commands.PublishEvent
	chain           cor.Chain
}

func NewUploadAnalysisWorkflow(config *cloud.Config, annotator commands.VideoAnnotator, publisher commands.EventPublisher) (*UploadAnalysisWorkflow, error) {
	steps, publishFeatures, err := analysisSteps(config, annotator, publisher)
	if err != nil {
		return nil, err
	}
	w := &UploadAnalysisWorkflow{
		BaseCommand:     *cor.NewBaseCommand("upload-analysis-workflow"),
		publishFeatures: publishFeatures,
		publishScore:    commands.NewPublishEvent("publish-virality-score", publisher, config.Events.Topic, commands.ScoreEnvelope),
	}

	chain := cor.NewBaseChain(w.GetName())
	chain.AddCommand(commands.NewVideoTriggerToAnalysisRequest("video-trigger-to-analysis-request"))
	chain.AddCommands(steps...)
	chain.AddCommand(commands.NewScoreFeatures("score-features"))
	chain.AddCommand(w.publishScore)
	w.chain = chain
	return w, nil
}

func (w *UploadAnalysisWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

func (w *UploadAnalysisWorkflow) Wait() {
	w.publishFeatures.Wait()
	w.publishScore.Wait()
}
