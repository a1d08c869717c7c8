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
)

// NormalizeFeatures reduces raw annotation results to a feature set. The
// caller supplied duration is taken from the request stored under
// RequestParam.
type NormalizeFeatures struct {
	cor.BaseCommand
}

func NewNormalizeFeatures(name string) *NormalizeFeatures {
	return &NormalizeFeatures{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *NormalizeFeatures) Execute(context cor.Context) {
	results, ok := cor.Value[[]model.RawAnnotationResult](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}

	var duration *float64
	if req, ok := cor.Value[*model.AnalysisRequest](context, RequestParam); ok {
		duration = req.DurationSeconds
	}

	out := features.Normalize(results, duration)
	context.Add(FeaturesParam, &out)
	c.Succeed(context, &out)
}
