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
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/features"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// analyzeVideo annotates a stored video and answers with its normalized
// feature set.
func (h *Handlers) analyzeVideo(c *gin.Context) {
	req := &model.AnalysisRequest{}
	if !bindJSON(c, req) {
		return
	}
	out, err := h.Analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) scoreVirality(c *gin.Context) {
	req := &model.ScoreRequest{}
	if !bindJSON(c, req) {
		return
	}
	out, err := h.Scorer.Score(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) summarize(c *gin.Context) {
	req := &model.SummaryRequest{}
	if !bindJSON(c, req) {
		return
	}
	out, err := h.Summarizer.Summarize(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// rank orders feed items with the heuristic ranker. No user signal is used
// yet; the user object is accepted for compatibility.
func (h *Handlers) rank(c *gin.Context) {
	req := &model.RankRequest{}
	if !bindJSON(c, req) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": features.RankItems(req.Items)})
}

// videoFeatures returns the most recent feature set persisted for a video.
func (h *Handlers) videoFeatures(c *gin.Context) {
	id := c.Param("id")
	record, err := h.Features.Latest(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, &model.AnalysisResponse{
		NormalizedFeatureSet: record.FeatureSet(),
		URI:                  record.URI,
		VideoID:              record.VideoID,
	})
}
