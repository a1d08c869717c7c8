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

package features

import (
	"math"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// Factor names, in the order they are applied.
const (
	FactorExplicitPenalty     = "explicit_penalty"
	FactorRichness            = "richness"
	FactorPace                = "pace"
	FactorDurationShortBoost  = "duration_short_boost"
	FactorDurationSweetSpot   = "duration_sweet_spot"
	FactorDurationMedium      = "duration_medium"
	FactorDurationLongPenalty = "duration_long_penalty"
)

// Scoring weights and saturation points.
const (
	ExplicitPenalty = -0.2

	RichnessWeight     = 0.3
	RichnessSaturation = 50.0

	PaceWeight     = 0.2
	PaceSaturation = 200.0

	ShortBoost       = 0.05
	SweetSpotBoost   = 0.25
	MediumBoost      = 0.10
	LongPenalty      = -0.05
	ShortUpperBound  = 10.0
	SweetSpotLower   = 15.0
	SweetSpotUpper   = 90.0
	MediumUpperBound = 300.0
)

// Score computes the virality heuristic for a feature set. It is total: any
// feature set yields a score in [0, 1] together with the unclamped terms that
// produced it.
func Score(f model.NormalizedFeatureSet) model.ViralityScore {
	factors := make(model.Factors, 0, 4)

	if f.ExplicitContent == model.ExplicitTrue {
		factors = append(factors, model.Factor{Name: FactorExplicitPenalty, Value: ExplicitPenalty})
	}

	richness := float64(len(f.Labels)+len(f.ObjectAnnotations)) / RichnessSaturation
	factors = append(factors, model.Factor{Name: FactorRichness, Value: RichnessWeight * math.Min(1, richness)})

	pace := float64(f.ShotCount) / PaceSaturation
	factors = append(factors, model.Factor{Name: FactorPace, Value: PaceWeight * math.Min(1, pace)})

	if f.DurationSeconds != nil {
		if name, value, ok := durationFactor(*f.DurationSeconds); ok {
			factors = append(factors, model.Factor{Name: name, Value: value})
		}
	}

	return model.ViralityScore{Score: clamp(factors.Sum()), Factors: factors}
}

// durationFactor picks the duration bracket. Videos of 10 up to 15 seconds
// fall between the short and sweet-spot brackets and get no duration term.
func durationFactor(d float64) (string, float64, bool) {
	switch {
	case !(d > 0):
		return "", 0, false
	case d < ShortUpperBound:
		return FactorDurationShortBoost, ShortBoost, true
	case d < SweetSpotLower:
		return "", 0, false
	case d <= SweetSpotUpper:
		return FactorDurationSweetSpot, SweetSpotBoost, true
	case d <= MediumUpperBound:
		return FactorDurationMedium, MediumBoost, true
	default:
		return FactorDurationLongPenalty, LongPenalty, true
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
