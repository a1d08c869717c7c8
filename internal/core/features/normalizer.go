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

// Package features turns raw video annotations into a stable feature set and
// scores that feature set for virality. Everything here is pure: no I/O, no
// shared state, safe to call from any goroutine.
//
// Normalization is a fold over an immutable accumulator value. Every combine
// step is commutative once the sets are sorted, so the order in which the
// provider returns segments never changes the result.
package features

import (
	"slices"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// ExplicitThreshold is the likelihood a frame sample must exceed for a video
// to be flagged as explicit.
const ExplicitThreshold = model.LikelihoodVeryUnlikely

type accumulator struct {
	shots    int
	labels   []string
	texts    []string
	objects  []string
	explicit model.ExplicitContent
}

// absorb returns a new accumulator; the receiver is never modified.
func (a accumulator) absorb(r model.RawAnnotationResult) accumulator {
	return accumulator{
		shots:    a.shots + len(r.Shots),
		labels:   slices.Concat(a.labels, entityDescriptions(r.Labels)),
		texts:    slices.Concat(a.texts, detectedTexts(r.Texts)),
		objects:  slices.Concat(a.objects, entityDescriptions(r.Objects)),
		explicit: CombineExplicit(a.explicit, r.ExplicitSamples),
	}
}

func (a accumulator) finish(duration *float64) model.NormalizedFeatureSet {
	out := model.NormalizedFeatureSet{
		Labels:            distinctSorted(a.labels),
		ShotCount:         a.shots,
		ExplicitContent:   a.explicit,
		TextAnnotations:   distinctSorted(a.texts),
		ObjectAnnotations: distinctSorted(a.objects),
	}
	if duration != nil {
		d := *duration
		out.DurationSeconds = &d
	}
	return out
}

func entityDescriptions(in []model.Entity) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		if e.Description != "" {
			out = append(out, e.Description)
		}
	}
	return out
}

func detectedTexts(in []model.TextDetection) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t.Text != "" {
			out = append(out, t.Text)
		}
	}
	return out
}

func nonEmpty(in []string) []string {
	return slices.DeleteFunc(slices.Clone(in), func(s string) bool { return s == "" })
}

// distinctSorted never returns nil so empty sets render as [].
func distinctSorted(in []string) []string {
	out := append(make([]string, 0, len(in)), in...)
	slices.Sort(out)
	return slices.Compact(out)
}

// CombineExplicit folds one segment's explicit-content samples into the
// running verdict. True is sticky. A segment with samples that all sit at or
// below the threshold moves unknown to false. A segment without samples
// leaves the verdict alone.
func CombineExplicit(prev model.ExplicitContent, samples []model.Likelihood) model.ExplicitContent {
	if prev == model.ExplicitTrue || len(samples) == 0 {
		return prev
	}
	if slices.ContainsFunc(samples, func(l model.Likelihood) bool { return l > ExplicitThreshold }) {
		return model.ExplicitTrue
	}
	return model.ExplicitFalse
}

// Normalize collapses any number of annotated segments into one feature set.
// duration is copied through unchanged; nil means the caller did not know it.
func Normalize(results []model.RawAnnotationResult, duration *float64) model.NormalizedFeatureSet {
	var acc accumulator
	for _, r := range results {
		acc = acc.absorb(r)
	}
	return acc.finish(duration)
}

// NewFeatureSet builds a normalized feature set from caller supplied values,
// deduplicating and sorting the string sets the same way Normalize does.
func NewFeatureSet(labels []string, shots int, explicit model.ExplicitContent, texts []string, objects []string, duration *float64) model.NormalizedFeatureSet {
	acc := accumulator{
		shots:    shots,
		labels:   nonEmpty(labels),
		texts:    nonEmpty(texts),
		objects:  nonEmpty(objects),
		explicit: explicit,
	}
	return acc.finish(duration)
}
