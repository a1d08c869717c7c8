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

	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// VideoTriggerToAnalysisRequest turns a Cloud Storage finalize notification
// into an analysis request for the new object. Objects that are not videos
// produce no output, which ends the chain without an error so the message is
// acknowledged.
type VideoTriggerToAnalysisRequest struct {
	cor.BaseCommand
}

func NewVideoTriggerToAnalysisRequest(name string) *VideoTriggerToAnalysisRequest {
	return &VideoTriggerToAnalysisRequest{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *VideoTriggerToAnalysisRequest) Execute(context cor.Context) {
	in, ok := cor.Value[string](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}

	var notification cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &notification); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	obj := &cloud.GCSObject{Bucket: notification.Bucket, Name: notification.Name, MIMEType: notification.ContentType}
	context.Add(cloud.GetGCSObjectName(), obj)

	if !obj.IsVideo() {
		slog.InfoContext(context.GetContext(), "skipping non-video upload", "uri", obj.URI(), "content_type", obj.MIMEType)
		c.Succeed(context, nil)
		return
	}
	c.Succeed(context, &model.AnalysisRequest{GCSURI: obj.URI()})
}
