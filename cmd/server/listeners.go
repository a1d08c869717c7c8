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
	"log/slog"

	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/services"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/workflow"
)

// SetupListeners attaches a workflow to each configured subscription and
// starts receiving. Listeners stop when ctx is cancelled.
//
//   - UploadTopic: ingest bucket notifications run the upload analysis.
//   - FeatureEventTopic: feature events are written to BigQuery. The table is
//     created first if it does not exist.
//   - UserDocumentTopic: user document changes update email bookkeeping,
//     only when firestore.enable_email_triggers is set.
func SetupListeners(ctx context.Context, app *App) error {
	clients := app.clients

	listen(ctx, clients, cloud.UploadTopic, app.uploads)

	if err := app.featureService.EnsureTable(ctx); err != nil {
		return err
	}
	listen(ctx, clients, cloud.FeatureEventTopic, workflow.NewFeatureSinkWorkflow(app.featureService.Inserter()))

	if app.config.Firestore.EnableEmailTriggers {
		notifier := &services.UserNotifier{
			Firestore:  clients.FirestoreClient,
			Collection: app.config.Firestore.UsersCollection,
		}
		listen(ctx, clients, cloud.UserDocumentTopic, workflow.NewUserLifecycleWorkflow(notifier))
	} else {
		slog.Info("user email triggers disabled")
	}
	return nil
}

func listen(ctx context.Context, clients *cloud.ServiceClients, key string, command cor.Command) {
	listener, ok := clients.PubSubListeners[key]
	if !ok {
		slog.Warn("no subscription configured, listener not started", "listener", key)
		return
	}
	listener.SetCommand(command)
	listener.Listen(ctx)
}
