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

package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
)

// InitSentry enables error reporting when the DSN variable named in config
// is set. An empty DSN leaves Sentry disabled and every capture a no-op.
func InitSentry(config *cloud.Config, release string) error {
	dsn := config.Telemetry.SentryDSN()
	if dsn == "" {
		slog.Info("sentry disabled, no DSN configured")
		return nil
	}
	environment := config.Telemetry.Environment
	if environment == "" {
		environment = cloud.Runtime()
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		TracesSampleRate: config.Telemetry.SampleRate,
		AttachStacktrace: true,
		Tags:             map[string]string{"service": config.Application.Name},
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrubPII(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	return nil
}

// CaptureError reports err with the given tags. Safe to call when Sentry is
// disabled.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func Flush() {
	sentry.Flush(2 * time.Second)
}

// scrubPII drops user emails, addresses and credentials before an event leaves
// the process.
func scrubPII(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}
	if event.User.Email != "" {
		event.User.Email = "[redacted]"
	}
	event.User.IPAddress = ""
	if event.Request != nil {
		for k := range event.Request.Headers {
			switch k {
			case "Authorization", "Cookie", "X-Api-Key", "X-Goog-Api-Key":
				event.Request.Headers[k] = "[redacted]"
			}
		}
		event.Request.QueryString = ""
	}
	return event
}
