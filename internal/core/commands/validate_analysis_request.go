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
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

const gcsScheme = "gs://"

// ValidateAnalysisRequest checks an analysis request and fills its defaults.
// The output is a copy; the caller's request is left untouched.
type ValidateAnalysisRequest struct {
	cor.BaseCommand
	defaultFeatures []model.AnalysisFeature
}

func NewValidateAnalysisRequest(name string, defaultFeatures []model.AnalysisFeature) *ValidateAnalysisRequest {
	return &ValidateAnalysisRequest{BaseCommand: *cor.NewBaseCommand(name), defaultFeatures: defaultFeatures}
}

func (c *ValidateAnalysisRequest) Execute(context cor.Context) {
	in, ok := cor.Value[*model.AnalysisRequest](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}

	out, err := ValidateAnalysis(in, c.defaultFeatures)
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(RequestParam, out)
	c.Succeed(context, out)
}

// ValidateAnalysis returns a normalized copy of in or a *model.ValidationError.
func ValidateAnalysis(in *model.AnalysisRequest, defaultFeatures []model.AnalysisFeature) (*model.AnalysisRequest, error) {
	uri := strings.TrimSpace(in.GCSURI)
	if err := ValidateGCSURI(uri); err != nil {
		return nil, err
	}
	if err := ValidateDuration(in.DurationSeconds); err != nil {
		return nil, err
	}

	features := in.Features
	if len(features) == 0 {
		features = defaultFeatures
	}
	if len(features) == 0 {
		return nil, model.NewValidationError("features", "at least one feature is required")
	}
	parsed := make([]model.AnalysisFeature, 0, len(features))
	seen := make(map[model.AnalysisFeature]bool, len(features))
	for _, f := range features {
		p, err := model.ParseAnalysisFeature(string(f))
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			parsed = append(parsed, p)
		}
	}

	videoID := strings.TrimSpace(in.VideoID)
	if videoID == "" {
		videoID = DefaultVideoID(uri)
	}

	return &model.AnalysisRequest{
		GCSURI:          uri,
		Features:        parsed,
		VideoID:         videoID,
		DurationSeconds: in.DurationSeconds,
	}, nil
}

// ValidateGCSURI accepts gs://bucket/object.
func ValidateGCSURI(uri string) error {
	if uri == "" {
		return model.NewValidationError("gcs_uri", "is required")
	}
	if !strings.HasPrefix(uri, gcsScheme) {
		return model.NewValidationError("gcs_uri", "must start with gs://")
	}
	bucket, object, found := strings.Cut(strings.TrimPrefix(uri, gcsScheme), "/")
	if !found || bucket == "" || object == "" {
		return model.NewValidationError("gcs_uri", "must name a bucket and an object")
	}
	return nil
}

// ValidateDuration accepts a missing duration or a finite, non-negative one.
func ValidateDuration(d *float64) error {
	if d == nil {
		return nil
	}
	if math.IsNaN(*d) || math.IsInf(*d, 0) || *d < 0 {
		return model.NewValidationError("duration_seconds", "must be a non-negative number")
	}
	return nil
}

// DefaultVideoID derives a stable id from the video location, so repeated
// analyses of the same object land on the same id.
func DefaultVideoID(uri string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(uri)).String()
}
