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

// Package commands holds the units of work the gateway's chains are built
// from. Commands reach external services only through the small interfaces
// declared here; the cloud package provides the production implementations.
package commands

import (
	"context"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// Well known context keys. Chains pipe values through cor.CtxIn and
// cor.CtxOut; these keys keep values that later commands need after the
// pipe has moved on.
const (
	RequestParam      = "__REQUEST__"
	FeaturesParam     = "__FEATURES__"
	ScoreParam        = "__SCORE__"
	SummaryParam      = "__SUMMARY__"
	UserDocumentParam = "__USER_DOCUMENT__"
)

// VideoAnnotator runs video analysis on an object-store video.
type VideoAnnotator interface {
	AnnotateVideo(ctx context.Context, uri string, features []model.AnalysisFeature) ([]model.RawAnnotationResult, error)
}

// EventPublisher delivers a payload to a bus topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// TextGenerator answers a single text prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// RowInserter streams rows into a table. *bigquery.Inserter satisfies it.
type RowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// UserEventHandler applies the bookkeeping for one user document change.
// handled is false when the change needed no action.
type UserEventHandler interface {
	HandleUserEvent(ctx context.Context, evt *model.UserDocumentEvent) (handled bool, err error)
}
