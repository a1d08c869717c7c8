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

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/telemetry"
)

const clientEventType = "client"

// publishEvent forwards an arbitrary JSON document to the events topic.
// Publishing is the whole point of this route, so a failure is a 500.
func (h *Handlers) publishEvent(c *gin.Context) {
	var payload json.RawMessage
	if !bindJSON(c, &payload) {
		return
	}
	if err := h.Publisher.Publish(c.Request.Context(), h.EventTopic, payload); err != nil {
		telemetry.PublishFailures.WithLabelValues(clientEventType).Inc()
		abortWithError(c, &model.PublishFailure{Topic: h.EventTopic, EventType: clientEventType, Err: err})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) signedUploadURL(c *gin.Context) {
	req := &model.UploadURLRequest{}
	if !bindJSON(c, req) {
		return
	}
	out, err := h.Uploads.CreateUploadURL(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) homeFeed(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": []any{}})
}

func (h *Handlers) video(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		abortWithError(c, model.NewValidationError("id", fmt.Sprintf("missing in %s", c.Request.URL.Path)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
