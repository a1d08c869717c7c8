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
)

func (h *Handlers) popular(c *gin.Context) {
	out, err := h.Catalog.Popular(c.Request.Context(), c.Query("page"), c.Query("region"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) freeWithAds(c *gin.Context) {
	out, err := h.Catalog.FreeWithAds(c.Request.Context(), c.Query("page"), c.Query("region"), c.Query("provider"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) trending(c *gin.Context) {
	out, err := h.Catalog.Trending(c.Request.Context(), c.Query("media_type"), c.Query("time_window"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) details(c *gin.Context) {
	out, err := h.Catalog.Details(c.Request.Context(), c.Query("media_type"), c.Query("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
