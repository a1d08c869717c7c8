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
	gocontext "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/telemetry"
)

// VideoAnalysisProvider names the annotation service in upstream errors.
const VideoAnalysisProvider = "video-intelligence"

// AnnotateVideo sends a validated request to the video annotator and outputs
// the raw per-segment results.
type AnnotateVideo struct {
	cor.BaseCommand
	annotator VideoAnnotator
	timeout   time.Duration
}

func NewAnnotateVideo(name string, annotator VideoAnnotator, timeout time.Duration) *AnnotateVideo {
	return &AnnotateVideo{BaseCommand: *cor.NewBaseCommand(name), annotator: annotator, timeout: timeout}
}

func (c *AnnotateVideo) Execute(context cor.Context) {
	req, ok := cor.Value[*model.AnalysisRequest](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}

	ctx := context.GetContext()
	if c.timeout > 0 {
		var cancel gocontext.CancelFunc
		ctx, cancel = gocontext.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := c.annotator.AnnotateVideo(ctx, req.GCSURI, req.Features)
	if err != nil {
		telemetry.UpstreamFailures.WithLabelValues(VideoAnalysisProvider).Inc()
		c.Fail(context, model.NewUpstreamError(VideoAnalysisProvider, err))
		return
	}
	slog.InfoContext(ctx, "video annotated",
		"uri", req.GCSURI, "segments", len(results), "elapsed", time.Since(start).String())

	if results == nil {
		results = []model.RawAnnotationResult{}
	}
	c.Succeed(context, results)
}
