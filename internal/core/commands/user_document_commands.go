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
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// UserDocumentEventJsonToStruct parses a user document change notification.
// Kinds other than created and updated produce no output.
type UserDocumentEventJsonToStruct struct {
	cor.BaseCommand
}

func NewUserDocumentEventJsonToStruct(name string) *UserDocumentEventJsonToStruct {
	return &UserDocumentEventJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *UserDocumentEventJsonToStruct) Execute(context cor.Context) {
	in, ok := cor.Value[string](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}

	evt := &model.UserDocumentEvent{}
	if err := json.Unmarshal([]byte(in), evt); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal user document event: %w", err))
		return
	}
	if evt.Kind != model.UserDocumentCreated && evt.Kind != model.UserDocumentUpdated {
		slog.DebugContext(context.GetContext(), "ignoring user document event", "kind", evt.Kind)
		c.Succeed(context, nil)
		return
	}
	if evt.UserID == "" {
		c.Fail(context, model.NewValidationError("user_id", "is required"))
		return
	}
	context.Add(UserDocumentParam, evt)
	c.Succeed(context, evt)
}

// UserLifecycleNotifier hands a parsed user event to the bookkeeping handler.
type UserLifecycleNotifier struct {
	cor.BaseCommand
	handler UserEventHandler
}

func NewUserLifecycleNotifier(name string, handler UserEventHandler) *UserLifecycleNotifier {
	return &UserLifecycleNotifier{BaseCommand: *cor.NewBaseCommand(name), handler: handler}
}

func (c *UserLifecycleNotifier) Execute(context cor.Context) {
	evt, ok := cor.Value[*model.UserDocumentEvent](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}
	handled, err := c.handler.HandleUserEvent(context.GetContext(), evt)
	if err != nil {
		c.Fail(context, fmt.Errorf("user %s: %w", evt.UserID, err))
		return
	}
	slog.InfoContext(context.GetContext(), "user document event processed", "user_id", evt.UserID, "kind", evt.Kind, "handled", handled)
	c.Succeed(context, evt)
}
