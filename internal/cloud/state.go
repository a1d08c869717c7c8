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

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/firestore"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	video "cloud.google.com/go/videointelligence/apiv1"
	"google.golang.org/genai"
)

// ServiceClients owns every connection to an external service. It is built
// once at startup and handed to the workflows and handlers that need it;
// nothing below the cloud package reaches for a client on its own.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	GenAIClient     *genai.Client
	BigQueryClient  *bigquery.Client
	FirestoreClient *firestore.Client
	VideoClient     *video.Client
	IAMClient       *credentials.IamCredentialsClient

	Annotator *VideoIntelligenceAnnotator
	Publisher *PubSubPublisher
	Signer    *GCSSigner
	// Cache is nil when no Valkey address is configured.
	Cache *ValkeyCache

	PubSubListeners map[string]*PubSubListener
	AgentModels     map[string]*QuotaAwareGenerativeAIModel
}

// WaitForListeners blocks until every started listener has stopped. The
// listeners stop when the context passed to Listen is cancelled.
func (c *ServiceClients) WaitForListeners() {
	for _, listener := range c.PubSubListeners {
		listener.Wait()
	}
}

// Close releases every client. Fields left nil are skipped.
func (c *ServiceClients) Close() {
	if c.Publisher != nil {
		c.Publisher.Close()
	}
	if c.Cache != nil {
		c.Cache.Close()
	}
	closers := map[string]interface{ Close() error }{}
	if c.StorageClient != nil {
		closers["storage"] = c.StorageClient
	}
	if c.PubsubClient != nil {
		closers["pubsub"] = c.PubsubClient
	}
	if c.BigQueryClient != nil {
		closers["bigquery"] = c.BigQueryClient
	}
	if c.FirestoreClient != nil {
		closers["firestore"] = c.FirestoreClient
	}
	if c.VideoClient != nil {
		closers["videointelligence"] = c.VideoClient
	}
	if c.IAMClient != nil {
		closers["iam"] = c.IAMClient
	}
	for name, closer := range closers {
		if err := closer.Close(); err != nil {
			slog.Warn("failed to close client", "client", name, "error", err)
		}
	}
}

// NewCloudServiceClients dials every service named in config. Listeners are
// created without commands; the server attaches workflows to them later.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}
	defer func() {
		if err != nil {
			cloud.Close()
			cloud = nil
		}
	}()

	projectID := config.Application.GoogleProjectId

	if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
		return cloud, fmt.Errorf("storage client: %w", err)
	}
	if cloud.PubsubClient, err = pubsub.NewClient(ctx, projectID); err != nil {
		return cloud, fmt.Errorf("pubsub client: %w", err)
	}
	if cloud.BigQueryClient, err = bigquery.NewClient(ctx, projectID); err != nil {
		return cloud, fmt.Errorf("bigquery client: %w", err)
	}
	if cloud.FirestoreClient, err = firestore.NewClient(ctx, projectID); err != nil {
		return cloud, fmt.Errorf("firestore client: %w", err)
	}
	if cloud.VideoClient, err = video.NewClient(ctx); err != nil {
		return cloud, fmt.Errorf("video intelligence client: %w", err)
	}
	if cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx); err != nil {
		return cloud, fmt.Errorf("iam credentials client: %w", err)
	}
	cloud.GenAIClient, err = genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return cloud, fmt.Errorf("genai client: %w", err)
	}
	if config.Cache.Address != "" {
		if cloud.Cache, err = NewValkeyCache(ctx, config.Cache); err != nil {
			return cloud, err
		}
	}

	cloud.Annotator = NewVideoIntelligenceAnnotator(cloud.VideoClient)
	cloud.Publisher = NewPubSubPublisher(cloud.PubsubClient)
	cloud.Signer = NewGCSSigner(cloud.StorageClient, cloud.IAMClient, config.Application.SignerServiceAccountEmail)

	for subKey, values := range config.TopicSubscriptions {
		listener, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
		if err != nil {
			return cloud, err
		}
		cloud.PubSubListeners[subKey] = listener
	}

	for amKey, values := range config.AgentModels {
		generation := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
		}
		cloud.AgentModels[amKey] = NewQuotaAwareModel(generation, values.Model, cloud.GenAIClient.Models, values.RateLimit)
	}

	slog.Info("cloud clients ready", "project", projectID, "listeners", len(cloud.PubSubListeners), "models", len(cloud.AgentModels))
	return cloud, nil
}
