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
	"log/slog"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/telemetry"
)

// DefaultPublishTimeout bounds a single background publish.
const DefaultPublishTimeout = 30 * time.Second

// EnvelopeFunc builds the event to publish from the chain context. ok is
// false when the context holds nothing worth publishing.
type EnvelopeFunc func(context cor.Context) (eventType string, payload any, ok bool)

// PublishEvent emits an event without holding up the chain. Publishing runs
// in the background on a context detached from the request, so a caller that
// disconnects does not cancel it. A failed publish is logged and counted; it
// is never recorded as a chain error and never reaches the caller.
//
// The command passes its input through unchanged, and is a pure pass-through
// when no publisher or topic is configured.
type PublishEvent struct {
	cor.BaseCommand
	publisher EventPublisher
	topic     string
	envelope  EnvelopeFunc
	timeout   time.Duration
	pending   sync.WaitGroup
}

func NewPublishEvent(name string, publisher EventPublisher, topic string, envelope EnvelopeFunc) *PublishEvent {
	return &PublishEvent{
		BaseCommand: *cor.NewBaseCommand(name),
		publisher:   publisher,
		topic:       topic,
		envelope:    envelope,
		timeout:     DefaultPublishTimeout,
	}
}

func (c *PublishEvent) Execute(context cor.Context) {
	if c.envelope != nil {
		if eventType, payload, ok := c.envelope(context); ok {
			c.PublishAsync(context.GetContext(), eventType, payload)
		}
	}
	c.Succeed(context, context.Get(c.GetInputParam()))
}

// PublishAsync starts one background publish. The summary workflow calls it
// directly because its event is emitted whether or not the chain succeeded.
func (c *PublishEvent) PublishAsync(ctx gocontext.Context, eventType string, payload any) {
	if c.publisher == nil || c.topic == "" {
		return
	}
	detached := gocontext.WithoutCancel(ctx)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		pubCtx, cancel := gocontext.WithTimeout(detached, c.timeout)
		defer cancel()

		if err := c.publisher.Publish(pubCtx, c.topic, payload); err != nil {
			failure := &model.PublishFailure{Topic: c.topic, EventType: eventType, Err: err}
			telemetry.PublishFailures.WithLabelValues(eventType).Inc()
			c.GetErrorCounter().Add(pubCtx, 1)
			slog.WarnContext(pubCtx, "event not published", "topic", c.topic, "type", eventType, "error", failure)
			return
		}
		slog.DebugContext(pubCtx, "event published", "topic", c.topic, "type", eventType)
	}()
}

// Wait blocks until every started publish has finished.
func (c *PublishEvent) Wait() {
	c.pending.Wait()
}

// FeatureEnvelope publishes the normalized features of an analysis.
func FeatureEnvelope(context cor.Context) (string, any, bool) {
	set, ok := cor.Value[*model.NormalizedFeatureSet](context, FeaturesParam)
	if !ok {
		return "", nil, false
	}
	req, ok := cor.Value[*model.AnalysisRequest](context, RequestParam)
	if !ok {
		return "", nil, false
	}
	return model.EventTypeVideoFeatures, model.NewFeatureEvent(req.VideoID, req.GCSURI, *set), true
}

// ScoreEnvelope publishes a virality score, tagged with the video id when the
// request carried one.
func ScoreEnvelope(context cor.Context) (string, any, bool) {
	score, ok := cor.Value[*model.ViralityScore](context, ScoreParam)
	if !ok {
		return "", nil, false
	}
	var videoID string
	switch req := context.Get(RequestParam).(type) {
	case *model.AnalysisRequest:
		videoID = req.VideoID
	case *model.ScoreRequest:
		videoID = req.VideoID
	}
	return model.EventTypeViralityScore, model.NewScoreEvent(videoID, *score), true
}
