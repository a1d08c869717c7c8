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

// Package api exposes the gateway over HTTP. The /ai routes run the analysis,
// scoring and generation workflows, /v1 serves the client apps, and /tmdb
// proxies the movie catalog so the API key never leaves the server.
package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Analyzer is satisfied by *workflow.VideoAnalysisWorkflow.
type Analyzer interface {
	Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResponse, error)
}

// Scorer is satisfied by *workflow.ViralityScoringWorkflow.
type Scorer interface {
	Score(ctx context.Context, req *model.ScoreRequest) (*model.ViralityScore, error)
}

// Summarizer is satisfied by *workflow.TextSummaryWorkflow.
type Summarizer interface {
	Summarize(ctx context.Context, req *model.SummaryRequest) (*model.SummaryResponse, error)
}

// FeatureReader is satisfied by *services.FeatureService.
type FeatureReader interface {
	Latest(ctx context.Context, videoID string) (*model.FeatureRecord, error)
}

// UploadURLCreator is satisfied by *services.UploadService.
type UploadURLCreator interface {
	CreateUploadURL(ctx context.Context, req *model.UploadURLRequest) (*model.UploadURLResponse, error)
}

// Catalog is satisfied by *services.MovieService.
type Catalog interface {
	Popular(ctx context.Context, page string, region string) (*model.MovieList, error)
	FreeWithAds(ctx context.Context, page string, region string, provider string) (*model.MovieList, error)
	Trending(ctx context.Context, mediaType string, timeWindow string) (*model.MovieList, error)
	Details(ctx context.Context, mediaType string, id string) (*model.MovieDetails, error)
}

// Publisher is satisfied by *cloud.PubSubPublisher.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Handlers bundles what the routes call into. Every field must be set.
type Handlers struct {
	Analyzer   Analyzer
	Scorer     Scorer
	Summarizer Summarizer
	Features   FeatureReader
	Uploads    UploadURLCreator
	Catalog    Catalog
	Publisher  Publisher
	EventTopic string
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(config *cloud.Config, h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		Recovery(),
		otelgin.Middleware(config.Application.Name),
		telemetry.GinMetrics(),
		RequestLogger(),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	auth := AuthMiddleware(config.Auth)

	ai := r.Group("/ai", auth)
	{
		ai.POST("/analyzeVideo", h.analyzeVideo)
		ai.POST("/scoreVirality", h.scoreVirality)
		ai.POST("/summarize", h.summarize)
		ai.POST("/rank", h.rank)
		ai.GET("/videos/:id/features", h.videoFeatures)
	}

	v1 := r.Group("/v1", auth)
	{
		v1.POST("/events", h.publishEvent)
		v1.POST("/uploads/signed-url", h.signedUploadURL)
		v1.GET("/feed/home", h.homeFeed)
		v1.GET("/videos/:id", h.video)
	}

	tmdb := r.Group("/tmdb")
	{
		tmdb.GET("/popular", h.popular)
		tmdb.GET("/free-ads", h.freeWithAds)
		tmdb.GET("/trending", h.trending)
		tmdb.GET("/details", h.details)
	}
	return r
}
