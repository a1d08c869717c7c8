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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// FeatureEventJsonToStruct parses a bus message into a *model.FeatureEvent.
// The events topic carries other event types too; those produce no output.
type FeatureEventJsonToStruct struct {
	cor.BaseCommand
}

func NewFeatureEventJsonToStruct(name string) *FeatureEventJsonToStruct {
	return &FeatureEventJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *FeatureEventJsonToStruct) Execute(context cor.Context) {
	in, ok := cor.Value[string](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}

	var envelope model.EventEnvelope
	if err := json.Unmarshal([]byte(in), &envelope); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal event envelope: %w", err))
		return
	}
	if envelope.Type != model.EventTypeVideoFeatures {
		c.Succeed(context, nil)
		return
	}

	evt := &model.FeatureEvent{}
	if err := json.Unmarshal([]byte(in), evt); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal feature event: %w", err))
		return
	}
	if evt.EventID == "" || evt.VideoID == "" {
		c.Fail(context, errors.New("feature event without event_id or video_id"))
		return
	}
	c.Succeed(context, evt)
}
