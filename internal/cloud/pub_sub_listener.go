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
	"log/slog"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener feeds every message of a subscription into a command. A
// message is acknowledged only when the command records no errors; otherwise
// it is left to expire and Pub/Sub redelivers it under the subscription's
// retry policy.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
	// running tracks the receive goroutine so shutdown can wait for the
	// callbacks still in flight.
	running sync.WaitGroup
}

// NewPubSubListener binds a listener to subscriptionID. command may be nil
// and attached later with SetCommand.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches the command when the listener was created without one.
// An attached command is never replaced.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// HasCommand reports whether a command is attached.
func (m *PubSubListener) HasCommand() bool {
	return m.command != nil
}

// Listen receives in a background goroutine until ctx is cancelled. Use Wait
// to block until the goroutine and its callbacks have returned.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening", "subscription", m.subscription.ID())

	m.running.Add(1)
	go func() {
		defer m.running.Done()
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(msgCtx, "receive-message")
			defer span.End()
			span.SetAttributes(
				attribute.String("subscription", m.subscription.ID()),
				attribute.String("message_id", msg.ID),
			)

			chainCtx := cor.NewContextWithInput(spanCtx, string(msg.Data))
			m.command.Execute(chainCtx)

			if err := chainCtx.Err(); err != nil {
				span.SetStatus(codes.Error, "failed")
				span.RecordError(err)
				slog.ErrorContext(spanCtx, "error executing chain",
					"subscription", m.subscription.ID(), "message_id", msg.ID, "error", err)
				return
			}
			span.SetStatus(codes.Ok, "success")
			msg.Ack()
		})

		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.ID(), "error", err)
		}
	}()
}

// Wait blocks until a listener started with Listen has stopped. Receive only
// returns once every message callback has finished, so after Wait no command
// of this listener is running. It returns at once if Listen was never called.
func (m *PubSubListener) Wait() {
	m.running.Wait()
}
