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

package cloud

import (
	"context"
	"fmt"

	video "cloud.google.com/go/videointelligence/apiv1"
	videopb "cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// VideoIntelligenceAnnotator runs the Video Intelligence long running
// annotate operation and converts its results into model.RawAnnotationResult.
type VideoIntelligenceAnnotator struct {
	client *video.Client
}

// NewVideoIntelligenceAnnotator wraps an open client. Closing it stays with
// the caller.
func NewVideoIntelligenceAnnotator(client *video.Client) *VideoIntelligenceAnnotator {
	return &VideoIntelligenceAnnotator{client: client}
}

// AnnotateVideo blocks until the operation finishes or ctx is done.
func (a *VideoIntelligenceAnnotator) AnnotateVideo(ctx context.Context, uri string, features []model.AnalysisFeature) ([]model.RawAnnotationResult, error) {
	req, err := NewAnnotateVideoRequest(uri, features)
	if err != nil {
		return nil, err
	}
	op, err := a.client.AnnotateVideo(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("start annotation of %s: %w", uri, err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for annotation of %s: %w", uri, err)
	}
	return ConvertAnnotationResults(resp), nil
}

// NewAnnotateVideoRequest maps feature names onto the vendor enum.
func NewAnnotateVideoRequest(uri string, features []model.AnalysisFeature) (*videopb.AnnotateVideoRequest, error) {
	req := &videopb.AnnotateVideoRequest{InputUri: uri}
	for _, f := range features {
		v, ok := videopb.Feature_value[string(f)]
		if !ok {
			return nil, model.NewValidationError("features", fmt.Sprintf("unsupported feature %q", f))
		}
		req.Features = append(req.Features, videopb.Feature(v))
	}
	return req, nil
}

// ConvertAnnotationResults produces one RawAnnotationResult per annotated
// segment. Segment and shot level labels both count as labels.
func ConvertAnnotationResults(resp *videopb.AnnotateVideoResponse) []model.RawAnnotationResult {
	results := make([]model.RawAnnotationResult, 0, len(resp.GetAnnotationResults()))
	for _, r := range resp.GetAnnotationResults() {
		var out model.RawAnnotationResult

		for _, shot := range r.GetShotAnnotations() {
			out.Shots = append(out.Shots, model.ShotSegment{
				StartSeconds: shot.GetStartTimeOffset().AsDuration().Seconds(),
				EndSeconds:   shot.GetEndTimeOffset().AsDuration().Seconds(),
			})
		}
		for _, label := range r.GetSegmentLabelAnnotations() {
			out.Labels = append(out.Labels, model.Entity{Description: label.GetEntity().GetDescription()})
		}
		for _, label := range r.GetShotLabelAnnotations() {
			out.Labels = append(out.Labels, model.Entity{Description: label.GetEntity().GetDescription()})
		}
		for _, text := range r.GetTextAnnotations() {
			out.Texts = append(out.Texts, model.TextDetection{Text: text.GetText()})
		}
		for _, obj := range r.GetObjectAnnotations() {
			out.Objects = append(out.Objects, model.Entity{Description: obj.GetEntity().GetDescription()})
		}
		for _, frame := range r.GetExplicitAnnotation().GetFrames() {
			out.ExplicitSamples = append(out.ExplicitSamples, model.Likelihood(frame.GetPornographyLikelihood()))
		}

		results = append(results, out)
	}
	return results
}
