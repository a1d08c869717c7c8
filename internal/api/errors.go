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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/services"
	"github.com/jaycherian/gcp-go-media-gateway/internal/telemetry"
)

// StatusFor maps an error returned by a workflow or service to an HTTP status.
func StatusFor(err error) int {
	var validation *model.ValidationError
	var upstream *model.UpstreamError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes {"error": ...}. Internal failures are logged and
// reported, and their details are kept out of the response.
func abortWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	message := err.Error()
	switch {
	case errors.Is(err, services.ErrMissingAPIKey):
		message = "Missing TMDB API key"
	case status == http.StatusInternalServerError:
		message = "internal error"
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "route", c.FullPath(), "status", status, "error", err)
		telemetry.CaptureError(err, map[string]string{"route": c.FullPath()})
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// bindJSON decodes the body into out, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		abortWithError(c, model.NewValidationError("body", err.Error()))
		return false
	}
	return true
}
