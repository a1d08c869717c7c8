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
// This file holds the envelopes published to the event bus and the document
// change events consumed from it.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Event types written to the `type` field of every envelope.
const (
	EventTypeVideoFeatures = "video_features"
	EventTypeViralityScore = "virality_score"
	EventTypeSummarize     = "summarize"
	UserDocumentCreated    = "created"
	UserDocumentUpdated    = "updated"
	DefaultUserLanguage    = "en"
	DefaultUserDisplayName = "Creator"
)

// EventEnvelope is the minimal view used to route a message by type.
type EventEnvelope struct {
	Type string `json:"type"`
}

// FeatureEvent carries a normalized feature set to downstream consumers
// (the learning dataset sink and any analytics subscribers).
type FeatureEvent struct {
	Type        string               `json:"type"`
	EventID     string               `json:"event_id"`
	VideoID     string               `json:"video_id"`
	URI         string               `json:"uri"`
	Features    NormalizedFeatureSet `json:"features"`
	PublishedAt time.Time            `json:"published_at"`
}

func NewFeatureEvent(videoID string, uri string, features NormalizedFeatureSet) *FeatureEvent {
	return &FeatureEvent{
		Type:        EventTypeVideoFeatures,
		EventID:     uuid.New().String(),
		VideoID:     videoID,
		URI:         uri,
		Features:    features,
		PublishedAt: time.Now().UTC(),
	}
}

// ScoreEvent records a computed virality score.
type ScoreEvent struct {
	Type        string        `json:"type"`
	EventID     string        `json:"event_id"`
	VideoID     string        `json:"video_id,omitempty"`
	Virality    ViralityScore `json:"virality"`
	PublishedAt time.Time     `json:"published_at"`
}

func NewScoreEvent(videoID string, score ViralityScore) *ScoreEvent {
	return &ScoreEvent{
		Type:        EventTypeViralityScore,
		EventID:     uuid.New().String(),
		VideoID:     videoID,
		Virality:    score,
		PublishedAt: time.Now().UTC(),
	}
}

// SummaryEvent reports whether a summarize call succeeded.
type SummaryEvent struct {
	Type string `json:"type"`
	OK   bool   `json:"ok"`
}

// UserDocument is the subset of a user profile document the gateway reacts to.
type UserDocument struct {
	Email             string `json:"email"`
	DisplayName       string `json:"displayName"`
	EmailVerified     bool   `json:"emailVerified"`
	PreferredLanguage string `json:"preferredLanguage"`
}

// Language returns the preferred language or the default.
func (u *UserDocument) Language() string {
	if u == nil || u.PreferredLanguage == "" {
		return DefaultUserLanguage
	}
	return u.PreferredLanguage
}

// Name returns the display name or the default greeting name.
func (u *UserDocument) Name() string {
	if u == nil || u.DisplayName == "" {
		return DefaultUserDisplayName
	}
	return u.DisplayName
}

// UserDocumentEvent is a change notification for a document in the users
// collection. Before is nil for creations.
type UserDocumentEvent struct {
	Kind   string        `json:"kind"`
	UserID string        `json:"user_id"`
	Before *UserDocument `json:"before,omitempty"`
	After  *UserDocument `json:"after,omitempty"`
}
