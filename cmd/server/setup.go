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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-media-gateway/internal/api"
	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/services"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/workflow"
)

// SetupOS points the configuration loader at the config directory and
// runtime. Flag values win; otherwise existing environment values are kept
// and the defaults are ./configs and local.
func SetupOS(configDir string, runtime string) error {
	if configDir == "" {
		configDir = os.Getenv(cloud.EnvConfigFilePrefix)
	}
	if configDir == "" {
		configDir = "configs"
	}
	if runtime == "" {
		runtime = os.Getenv(cloud.EnvConfigRuntime)
	}
	if runtime == "" {
		runtime = "local"
	}
	if err := os.Setenv(cloud.EnvConfigFilePrefix, configDir); err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, runtime)
}

// GetConfig loads the base configuration and the runtime overrides.
func GetConfig() (*cloud.Config, error) {
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return config, nil
}

// App holds the cloud clients, services and workflows shared by the HTTP
// routes and the listeners.
type App struct {
	config  *cloud.Config
	clients *cloud.ServiceClients

	analysis *workflow.VideoAnalysisWorkflow
	scoring  *workflow.ViralityScoringWorkflow
	summary  *workflow.TextSummaryWorkflow
	uploads  *workflow.UploadAnalysisWorkflow

	featureService *services.FeatureService
	uploadService  *services.UploadService
	movieService   *services.MovieService
}

// NewApp dials every client and builds the services and workflows on top of
// them.
func NewApp(ctx context.Context, config *cloud.Config) (app *App, err error) {
	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, err
	}
	app = &App{config: config, clients: clients}
	defer func() {
		if err != nil {
			clients.Close()
			app = nil
		}
	}()

	if app.analysis, err = workflow.NewVideoAnalysisWorkflow(config, clients.Annotator, clients.Publisher); err != nil {
		return app, err
	}
	app.scoring = workflow.NewViralityScoringWorkflow(config, clients.Publisher)
	if app.uploads, err = workflow.NewUploadAnalysisWorkflow(config, clients.Annotator, clients.Publisher); err != nil {
		return app, err
	}

	summarizer, ok := clients.AgentModels[cloud.SummarizerModel]
	if !ok {
		return app, fmt.Errorf("agent_models.%s is not configured", cloud.SummarizerModel)
	}
	if app.summary, err = workflow.NewTextSummaryWorkflow(config, summarizer, clients.Publisher); err != nil {
		return app, err
	}

	app.featureService = &services.FeatureService{
		BigqueryClient: clients.BigQueryClient,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		FeatureTable:   config.BigQueryDataSource.FeatureTable,
	}
	app.uploadService = &services.UploadService{
		Signer: clients.Signer,
		Bucket: config.Storage.IngestBucket,
		TTL:    config.Storage.UploadURLTTL(),
	}

	// A nil *cloud.ValkeyCache must not become a non-nil interface.
	var cache services.ResponseCache
	if clients.Cache != nil {
		cache = clients.Cache
	}
	app.movieService = services.NewMovieService(config.TMDB, cache)
	if config.TMDB.APIKey() == "" {
		slog.Warn("no TMDB key configured, catalog routes will fail", "env", config.TMDB.APIKeyEnv)
	}
	return app, nil
}

// Handlers returns the route dependencies for api.NewRouter.
func (a *App) Handlers() *api.Handlers {
	return &api.Handlers{
		Analyzer:   a.analysis,
		Scorer:     a.scoring,
		Summarizer: a.summary,
		Features:   a.featureService,
		Uploads:    a.uploadService,
		Catalog:    a.movieService,
		Publisher:  a.clients.Publisher,
		EventTopic: a.config.Events.Topic,
	}
}

// Wait blocks until the listeners have stopped and every pending event
// publish has finished. The listeners must already be cancelled.
func (a *App) Wait() {
	a.clients.WaitForListeners()
	a.analysis.Wait()
	a.scoring.Wait()
	a.summary.Wait()
	a.uploads.Wait()
}

func (a *App) Close() {
	a.clients.Close()
}
