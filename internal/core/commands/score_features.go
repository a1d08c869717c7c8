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

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/features"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/telemetry"
)

// ScoreFeatures computes the virality score of a feature set.
type ScoreFeatures struct {
	cor.BaseCommand
}

func NewScoreFeatures(name string) *ScoreFeatures {
	return &ScoreFeatures{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *ScoreFeatures) Execute(context cor.Context) {
	set, ok := cor.Value[*model.NormalizedFeatureSet](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}

	score := features.Score(*set)
	telemetry.ViralityScores.Observe(score.Score)
	context.Add(ScoreParam, &score)
	c.Succeed(context, &score)
}

// ScoreRequestToFeatures validates a scoring request and turns it into the
// feature set the scorer consumes. Labels and annotations are de-duplicated
// and sorted exactly as the normalizer would.
type ScoreRequestToFeatures struct {
	cor.BaseCommand
}

func NewScoreRequestToFeatures(name string) *ScoreRequestToFeatures {
	return &ScoreRequestToFeatures{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *ScoreRequestToFeatures) Execute(context cor.Context) {
	req, ok := cor.Value[*model.ScoreRequest](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}
	set, err := FeatureSetFromScoreRequest(req)
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(RequestParam, req)
	context.Add(FeaturesParam, &set)
	c.Succeed(context, &set)
}

func FeatureSetFromScoreRequest(req *model.ScoreRequest) (model.NormalizedFeatureSet, error) {
	if req.Shots < 0 {
		return model.NormalizedFeatureSet{}, model.NewValidationError("shots", "must be non-negative")
	}
	if err := ValidateDuration(req.DurationSeconds); err != nil {
		return model.NormalizedFeatureSet{}, err
	}
	return features.NewFeatureSet(
		req.Labels,
		req.Shots,
		model.ExplicitFromBool(req.ExplicitContent),
		req.TextAnnotations,
		req.ObjectAnnotations,
		req.DurationSeconds,
	), nil
}
