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

package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// FeaturePersistToBigQuery stores a feature event as one row of the learning
// dataset. The BigQuery client maps model.FeatureRecord by its struct tags.
type FeaturePersistToBigQuery struct {
	cor.BaseCommand
	inserter RowInserter
}

func NewFeaturePersistToBigQuery(name string, inserter RowInserter) *FeaturePersistToBigQuery {
	return &FeaturePersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), inserter: inserter}
}

func (c *FeaturePersistToBigQuery) Execute(context cor.Context) {
	evt, ok := cor.Value[*model.FeatureEvent](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}

	record := model.NewFeatureRecord(evt)
	if err := c.inserter.Put(context.GetContext(), record); err != nil {
		c.Fail(context, fmt.Errorf("bigquery insert failed for video %s: %w", evt.VideoID, err))
		return
	}
	slog.InfoContext(context.GetContext(), "persisted video features", "video_id", evt.VideoID, "event_id", evt.EventID)
	c.Succeed(context, evt)
}
