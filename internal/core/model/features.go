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

// Package model defines the core data structures for the application.
// This file holds the video feature types: the raw annotation segments handed
// back by a video analysis provider, the normalized feature set the gateway
// exposes, and the virality score computed from it.
//
// Provider adapters in the cloud package convert vendor payloads into the raw
// types; the core never imports a vendor SDK.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Likelihood is an ordinal confidence level reported for an explicit-content
// frame sample. The numeric values match the Video Intelligence API enum.
type Likelihood int32

const (
	LikelihoodUnspecified Likelihood = iota
	LikelihoodVeryUnlikely
	LikelihoodUnlikely
	LikelihoodPossible
	LikelihoodLikely
	LikelihoodVeryLikely
)

var likelihoodNames = map[Likelihood]string{
	LikelihoodUnspecified:  "LIKELIHOOD_UNSPECIFIED",
	LikelihoodVeryUnlikely: "VERY_UNLIKELY",
	LikelihoodUnlikely:     "UNLIKELY",
	LikelihoodPossible:     "POSSIBLE",
	LikelihoodLikely:       "LIKELY",
	LikelihoodVeryLikely:   "VERY_LIKELY",
}

func (l Likelihood) String() string {
	if name, ok := likelihoodNames[l]; ok {
		return name
	}
	return "Likelihood(" + strconv.Itoa(int(l)) + ")"
}

// AnalysisFeature names a capability requested from the video analysis provider.
type AnalysisFeature string

const (
	FeatureLabelDetection  AnalysisFeature = "LABEL_DETECTION"
	FeatureShotChange      AnalysisFeature = "SHOT_CHANGE_DETECTION"
	FeatureExplicitContent AnalysisFeature = "EXPLICIT_CONTENT_DETECTION"
	FeatureTextDetection   AnalysisFeature = "TEXT_DETECTION"
	FeatureObjectTracking  AnalysisFeature = "OBJECT_TRACKING"
)

// KnownAnalysisFeatures lists every feature flag the gateway accepts.
var KnownAnalysisFeatures = []AnalysisFeature{
	FeatureLabelDetection,
	FeatureShotChange,
	FeatureExplicitContent,
	FeatureTextDetection,
	FeatureObjectTracking,
}

// ParseAnalysisFeature validates a caller supplied feature flag.
func ParseAnalysisFeature(in string) (AnalysisFeature, error) {
	for _, f := range KnownAnalysisFeatures {
		if string(f) == in {
			return f, nil
		}
	}
	return "", NewValidationError("features", fmt.Sprintf("unknown feature flag %q", in))
}

// ShotSegment is a contiguous span between two detected shot boundaries.
type ShotSegment struct {
	StartSeconds float64
	EndSeconds   float64
}

// Entity is a detected label or tracked object.
type Entity struct {
	Description string
}

// TextDetection is a piece of on-screen text recognized by the provider.
type TextDetection struct {
	Text string
}

// RawAnnotationResult mirrors a single annotated segment of a provider response.
// A long video may come back as several of these.
type RawAnnotationResult struct {
	Shots           []ShotSegment
	Labels          []Entity
	Texts           []TextDetection
	Objects         []Entity
	ExplicitSamples []Likelihood
}

// ExplicitContent is a tri-state flag. The zero value is ExplicitUnknown, which
// is distinct from a confirmed negative.
type ExplicitContent int8

const (
	ExplicitUnknown ExplicitContent = iota
	ExplicitFalse
	ExplicitTrue
)

// ExplicitFromBool maps an optional boolean onto the tri-state.
func ExplicitFromBool(in *bool) ExplicitContent {
	switch {
	case in == nil:
		return ExplicitUnknown
	case *in:
		return ExplicitTrue
	default:
		return ExplicitFalse
	}
}

// Bool returns the flag as an optional boolean, nil when unknown.
func (e ExplicitContent) Bool() *bool {
	switch e {
	case ExplicitTrue:
		v := true
		return &v
	case ExplicitFalse:
		v := false
		return &v
	default:
		return nil
	}
}

func (e ExplicitContent) String() string {
	switch e {
	case ExplicitTrue:
		return "true"
	case ExplicitFalse:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON renders unknown as null.
func (e ExplicitContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Bool())
}

func (e *ExplicitContent) UnmarshalJSON(data []byte) error {
	var v *bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*e = ExplicitFromBool(v)
	return nil
}

// NormalizedFeatureSet is the stable, provider independent summary of a video.
// String sets are deduplicated and sorted; they are never nil once produced by
// the normalizer so they always render as JSON arrays.
type NormalizedFeatureSet struct {
	Labels            []string        `json:"labels"`
	ShotCount         int             `json:"shots"`
	ExplicitContent   ExplicitContent `json:"explicit_content"`
	TextAnnotations   []string        `json:"text_annotations"`
	ObjectAnnotations []string        `json:"object_annotations"`
	DurationSeconds   *float64        `json:"duration_seconds"`
}

// Factor is one named additive term of a virality score.
type Factor struct {
	Name  string
	Value float64
}

// Factors is the ordered list of terms that were applied while scoring. It
// marshals to a JSON object whose keys keep the application order.
type Factors []Factor

// Get returns the value of the named factor.
func (f Factors) Get(name string) (float64, bool) {
	for _, factor := range f {
		if factor.Name == name {
			return factor.Value, true
		}
	}
	return 0, false
}

// Names returns the factor names in application order.
func (f Factors) Names() []string {
	out := make([]string, 0, len(f))
	for _, factor := range f {
		out = append(out, factor.Name)
	}
	return out
}

// Sum adds the factor values in order.
func (f Factors) Sum() float64 {
	total := 0.0
	for _, factor := range f {
		total += factor.Value
	}
	return total
}

func (f Factors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, factor := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(factor.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(factor.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object back preserving key order.
func (f *Factors) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("factors: expected object, got %v", tok)
	}
	out := Factors{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("factors: expected string key, got %v", keyTok)
		}
		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("factors: value for %q: %w", key, err)
		}
		out = append(out, Factor{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

// ViralityScore is a bounded heuristic estimate of a video's reach potential.
// Score is clamped to [0, 1]; Factors keep their unclamped values.
type ViralityScore struct {
	Score   float64 `json:"score"`
	Factors Factors `json:"factors"`
}
