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
	"cmp"
	"maps"
	"math"
	"slices"
	"strconv"
	"unicode"
	"unicode/utf8"
)

const (
	titleCaseBoost = 0.2
	viewsWeight    = 0.01
)

// RankScore is the feed ranking heuristic for a single item: a base of 1, a
// small boost for capitalized titles, and a term growing with the square
// root of the view count.
func RankScore(item map[string]any) float64 {
	score := 1.0
	if title, ok := item["title"].(string); ok && title != "" {
		if r, _ := utf8.DecodeRuneInString(title); unicode.IsUpper(r) {
			score += titleCaseBoost
		}
	}
	return score + math.Sqrt(numeric(item["views"]))*viewsWeight
}

// RankItems returns copies of the items with a `score` field, highest first.
// Ties keep their input order.
func RankItems(items []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		scored := maps.Clone(item)
		if scored == nil {
			scored = map[string]any{}
		}
		scored["score"] = RankScore(item)
		out = append(out, scored)
	}
	slices.SortStableFunc(out, func(a, b map[string]any) int {
		return cmp.Compare(b["score"].(float64), a["score"].(float64))
	})
	return out
}

func numeric(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		f, _ = strconv.ParseFloat(t, 64)
	}
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return f
}
