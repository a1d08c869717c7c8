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

package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// UserNotifier records welcome and thank-you email bookkeeping on user
// documents. Delivering the emails is another system's job; this only marks
// the document so that system and the client know what was queued.
type UserNotifier struct {
	Firestore  *firestore.Client
	Collection string
}

// UserDocumentUpdates returns the field updates a user document change calls
// for, or nil when it needs none.
//
// A new user with an email gets the welcome flags. An update gets the
// thank-you flags only on the transition of emailVerified from false to true.
func UserDocumentUpdates(evt *model.UserDocumentEvent) []firestore.Update {
	if evt == nil || evt.After == nil || evt.After.Email == "" {
		return nil
	}
	switch evt.Kind {
	case model.UserDocumentCreated:
		return []firestore.Update{
			{Path: "welcome_email_sent", Value: true},
			{Path: "welcome_email_sent_at", Value: firestore.ServerTimestamp},
			{Path: "email_language", Value: evt.After.Language()},
		}
	case model.UserDocumentUpdated:
		if (evt.Before != nil && evt.Before.EmailVerified) || !evt.After.EmailVerified {
			return nil
		}
		return []firestore.Update{
			{Path: "thank_you_email_sent", Value: true},
			{Path: "thank_you_email_sent_at", Value: firestore.ServerTimestamp},
		}
	}
	return nil
}

func (n *UserNotifier) HandleUserEvent(ctx context.Context, evt *model.UserDocumentEvent) (bool, error) {
	updates := UserDocumentUpdates(evt)
	if len(updates) == 0 {
		return false, nil
	}
	if _, err := n.Firestore.Collection(n.Collection).Doc(evt.UserID).Update(ctx, updates); err != nil {
		return false, fmt.Errorf("failed to update %s/%s: %w", n.Collection, evt.UserID, err)
	}
	slog.InfoContext(ctx, "user email bookkeeping recorded",
		"user_id", evt.UserID, "kind", evt.Kind, "name", evt.After.Name(), "language", evt.After.Language())
	return true, nil
}
