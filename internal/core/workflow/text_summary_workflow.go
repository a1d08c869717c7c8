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
	"text/template"

	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// TextSummaryWorkflow asks the text model for a short video description and
// reports the outcome on the events topic as {"type":"summarize","ok":bool}.
type TextSummaryWorkflow struct {
	cor.BaseCommand
	publisher *commands.PublishEvent
	chain     cor.Chain
}

func NewTextSummaryWorkflow(config *cloud.Config, generator commands.TextGenerator, publisher commands.EventPublisher) (*TextSummaryWorkflow, error) {
	source := config.PromptTemplates.SummaryPrompt
	if source == "" {
		source = commands.DefaultSummaryPrompt
	}
	summaryTemplate, err := template.New("summary-template").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("prompt_templates.summary: %w", err)
	}

	w := &TextSummaryWorkflow{
		BaseCommand: *cor.NewBaseCommand("text-summary-workflow"),
		publisher:   commands.NewPublishEvent("publish-summary-event", publisher, config.Events.Topic, nil),
	}
	w.chain = cor.NewBaseChain(w.GetName()).AddCommand(
		commands.NewTextSummaryCreator("text-summary-creator", generator, summaryTemplate),
	)
	return w, nil
}

func (w *TextSummaryWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Summarize runs the workflow and publishes the summarize event whether or
// not it succeeded.
func (w *TextSummaryWorkflow) Summarize(ctx context.Context, req *model.SummaryRequest) (*model.SummaryResponse, error) {
	chCtx := cor.NewContextWithInput(ctx, req)
	w.Execute(chCtx)
	err := chCtx.Err()

	out, ok := cor.Value[*model.SummaryResponse](chCtx, commands.SummaryParam)
	if err == nil && !ok {
		err = fmt.Errorf("%s produced no summary", w.GetName())
	}
	w.publisher.PublishAsync(ctx, model.EventTypeSummarize, model.SummaryEvent{Type: model.EventTypeSummarize, OK: err == nil})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *TextSummaryWorkflow) Wait() {
	w.publisher.Wait()
}
