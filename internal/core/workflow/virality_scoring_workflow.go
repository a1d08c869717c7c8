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
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// ViralityScoringWorkflow scores a caller supplied feature set and publishes
// the score.
//
// Input: *model.ScoreRequest. Output: *model.ViralityScore.
type ViralityScoringWorkflow struct {
	cor.BaseCommand
	publisher *commands.PublishEvent
	chain     cor.Chain
}

func NewViralityScoringWorkflow(config *cloud.Config, publisher commands.EventPublisher) *ViralityScoringWorkflow {
	w := &ViralityScoringWorkflow{
		BaseCommand: *cor.NewBaseCommand("virality-scoring-workflow"),
		publisher:   commands.NewPublishEvent("publish-virality-score", publisher, config.Events.Topic, commands.ScoreEnvelope),
	}
	w.chain = cor.NewBaseChain(w.GetName()).AddCommands(
		commands.NewScoreRequestToFeatures("score-request-to-features"),
		commands.NewScoreFeatures("score-features"),
		w.publisher,
	)
	return w
}

func (w *ViralityScoringWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Score runs the workflow for one request.
func (w *ViralityScoringWorkflow) Score(ctx context.Context, req *model.ScoreRequest) (*model.ViralityScore, error) {
	chCtx := cor.NewContextWithInput(ctx, req)
	w.Execute(chCtx)
	if err := chCtx.Err(); err != nil {
		return nil, err
	}
	score, ok := cor.Value[*model.ViralityScore](chCtx, commands.ScoreParam)
	if !ok {
		return nil, fmt.Errorf("%s produced no score", w.GetName())
	}
	return score, nil
}

func (w *ViralityScoringWorkflow) Wait() {
	w.publisher.Wait()
}
