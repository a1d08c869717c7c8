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
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the subset of *genai.Models the gateway calls.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel puts a token bucket in front of a generative
// model so bursts of requests queue instead of exhausting the project quota.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             ContentGenerator
	RateLimit               *rate.Limiter

	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	retries      metric.Int64Counter
}

// NewQuotaAwareModel allows requestsPerSecond calls per second with a burst of
// the same size. A non-positive rate is treated as 1.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle ContentGenerator, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	meter := otel.Meter("github.com/jaycherian/gcp-go-media-gateway/cloud")
	in, err := meter.Int64Counter(fmt.Sprintf("genai.%s.tokens.input", name))
	if err != nil {
		slog.Warn("failed to create token counter", "model", name, "error", err)
	}
	out, err := meter.Int64Counter(fmt.Sprintf("genai.%s.tokens.output", name))
	if err != nil {
		slog.Warn("failed to create token counter", "model", name, "error", err)
	}
	retries, err := meter.Int64Counter(fmt.Sprintf("genai.%s.retries", name))
	if err != nil {
		slog.Warn("failed to create retry counter", "model", name, "error", err)
	}

	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second/time.Duration(requestsPerSecond)), requestsPerSecond),
		inputTokens:             in,
		outputTokens:            out,
		retries:                 retries,
	}
}

// GenerateContent blocks until the limiter grants a token, then calls the
// model once. Retries are the caller's concern.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter for %s: %w", q.ModelName, err)
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
}

// GenerateText sends a single text prompt and returns the model's answer.
func (q *QuotaAwareGenerativeAIModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	return GenerateMultiModalResponse(ctx, q.inputTokens, q.outputTokens, q.retries, q, NewTextPart(prompt))
}
