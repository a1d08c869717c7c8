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
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway metrics scraped from GET /metrics. The OpenTelemetry counters on
// each command go to Cloud Monitoring; these are for the in-cluster scraper.
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_gateway_http_requests_total",
		Help: "Total HTTP requests handled.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "media_gateway_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ViralityScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "media_gateway_virality_score",
		Help:    "Distribution of computed virality scores.",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_gateway_publish_failures_total",
		Help: "Events that could not be published to the bus.",
	}, []string{"event_type"})

	UpstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_gateway_upstream_failures_total",
		Help: "Failed calls to external providers.",
	}, []string{"provider"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_gateway_cache_lookups_total",
		Help: "Response cache lookups by result.",
	}, []string{"result"})
)

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// GinMetrics records count and latency per route template, so /v1/videos/:id
// is one series no matter how many ids are requested.
func GinMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
