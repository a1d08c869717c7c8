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

package testutil

import (
	"context"
	"sync"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// FakeAnnotator returns canned results, or Err when set.
type FakeAnnotator struct {
	Results []model.RawAnnotationResult
	Err     error

	mu           sync.Mutex
	calls        int
	lastURI      string
	lastFeatures []model.AnalysisFeature
}

func (f *FakeAnnotator) AnnotateVideo(ctx context.Context, uri string, features []model.AnalysisFeature) ([]model.RawAnnotationResult, error) {
	f.mu.Lock()
	f.calls++
	f.lastURI = uri
	f.lastFeatures = features
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Results, nil
}

func (f *FakeAnnotator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastCall returns the arguments of the most recent call.
func (f *FakeAnnotator) LastCall() (string, []model.AnalysisFeature) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastURI, f.lastFeatures
}

// PublishedMessage is one call recorded by FakePublisher.
type PublishedMessage struct {
	Topic   string
	Payload any
}

// FakePublisher records every publish attempted on a live context. Publishes
// failed through Err are recorded too.
type FakePublisher struct {
	Err error

	mu       sync.Mutex
	messages []PublishedMessage
}

func (f *FakePublisher) Publish(ctx context.Context, topic string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, PublishedMessage{Topic: topic, Payload: payload})
	return f.Err
}

func (f *FakePublisher) Messages() []PublishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PublishedMessage(nil), f.messages...)
}

// FakeTextGenerator answers every prompt with Reply.
type FakeTextGenerator struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

func (f *FakeTextGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

func (f *FakeTextGenerator) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// FakeInserter keeps inserted rows in memory.
type FakeInserter struct {
	Err error

	mu   sync.Mutex
	rows []interface{}
}

func (f *FakeInserter) Put(_ context.Context, src interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.rows = append(f.rows, src)
	return nil
}

func (f *FakeInserter) Rows() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]interface{}(nil), f.rows...)
}

// FakeUserHandler records user events and reports Handled for each.
type FakeUserHandler struct {
	Handled bool
	Err     error

	mu     sync.Mutex
	events []*model.UserDocumentEvent
}

func (f *FakeUserHandler) HandleUserEvent(_ context.Context, evt *model.UserDocumentEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if f.Err != nil {
		return false, f.Err
	}
	return f.Handled, nil
}

func (f *FakeUserHandler) Events() []*model.UserDocumentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.UserDocumentEvent(nil), f.events...)
}
