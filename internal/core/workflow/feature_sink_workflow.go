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
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
)

// FeatureSinkWorkflow writes every video_features event on the events topic
// to the learning dataset table. Other event types are acknowledged and
// dropped.
type FeatureSinkWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

func NewFeatureSinkWorkflow(inserter commands.RowInserter) *FeatureSinkWorkflow {
	w := &FeatureSinkWorkflow{BaseCommand: *cor.NewBaseCommand("feature-sink-workflow")}
	w.chain = cor.NewBaseChain(w.GetName()).AddCommands(
		commands.NewFeatureEventJsonToStruct("feature-event-json-to-struct"),
		commands.NewFeaturePersistToBigQuery("feature-persist-to-bigquery", inserter),
	)
	return w
}

func (w *FeatureSinkWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
