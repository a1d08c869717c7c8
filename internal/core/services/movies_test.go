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

package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/services"
	"github.com/zeebo/assert"
)

type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
	sets   int
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	m.sets++
	return nil
}

// tmdbStub serves canned TMDB answers and records what it was asked.
type tmdbStub struct {
	mu    sync.Mutex
	calls map[string]int
	last  url.Values
}

func (s *tmdbStub) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *tmdbStub) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *tmdbStub) query() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func fakeTMDB(t *testing.T) (*httptest.Server, *tmdbStub) {
	t.Helper()
	stub := &tmdbStub{calls: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.calls[r.URL.Path]++
		stub.last = r.URL.Query()
		stub.mu.Unlock()

		if r.URL.Query().Get("api_key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status_message":"Invalid API key"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/movie/popular", "/discover/movie":
			results := make([]map[string]any, 0, 30)
			results = append(results,
				map[string]any{"id": 1, "title": "Alpha", "backdrop_path": "/a-back.jpg", "poster_path": "/a.jpg", "popularity": 9.5, "release_date": "2024-01-01", "vote_average": 7.1, "genre_ids": []int{28}},
				map[string]any{"id": 2, "name": "Beta Show", "poster_path": "/b.jpg"},
				map[string]any{"id": 3},
			)
			for i := 4; i <= 30; i++ {
				results = append(results, map[string]any{"id": i, "title": "Filler"})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
		case "/trending/tv/day":
			_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{
				{"id": 10, "name": "Show", "first_air_date": "2023-05-05", "media_type": "tv", "vote_average": 8.0},
			}})
		case "/tv/42":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": 42, "name": "Long Show", "poster_path": "/p.jpg", "first_air_date": "2020-02-02",
				"vote_average": 6.5, "runtime": 0, "episode_run_time": []int{44, 50},
				"genres": []map[string]any{{"name": "Drama"}},
			})
		case "/tv/42/watch/providers":
			_ = json.NewEncoder(w).Encode(map[string]any{"results": map[string]any{
				"US": map[string]any{"free": []map[string]any{{"provider_id": 73, "provider_name": "Tubi", "logo_path": "/tubi.png"}}},
				"GB": map[string]any{"free": []map[string]any{{"provider_id": 1, "provider_name": "Other"}}},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, stub
}

func newMovieService(t *testing.T, baseURL string, cache services.ResponseCache) *services.MovieService {
	t.Setenv("SERVICES_TEST_TMDB_KEY", "secret")
	return services.NewMovieService(cloud.TMDB{
		BaseURL:         baseURL,
		ImageBaseURL:    "https://img.example/t/p",
		APIKeyEnv:       "SERVICES_TEST_TMDB_KEY",
		Language:        "en-US",
		CacheTTLSeconds: 60,
	}, cache)
}

func TestPopularRemapsFields(t *testing.T) {
	srv, stub := fakeTMDB(t)
	svc := newMovieService(t, srv.URL, nil)

	out, err := svc.Popular(context.Background(), "", "")
	assert.NoError(t, err)
	assert.Equal(t, 24, len(out.Items))
	assert.Equal(t, "1", stub.query().Get("page"))
	assert.Equal(t, "US", stub.query().Get("region"))
	assert.Equal(t, "en-US", stub.query().Get("language"))

	first := out.Items[0]
	assert.Equal(t, "Alpha", first.Title)
	assert.Equal(t, "https://img.example/t/p/w780/a-back.jpg", first.Poster)
	assert.Equal(t, "https://img.example/t/p/w780/a.jpg", first.Thumb)
	assert.Nil(t, first.VoteAverage)

	assert.Equal(t, "Beta Show", out.Items[1].Title)
	assert.Equal(t, "https://img.example/t/p/w780/b.jpg", out.Items[1].Poster)
	assert.Equal(t, "Untitled", out.Items[2].Title)
}

func TestFreeWithAdsFiltersProvider(t *testing.T) {
	srv, stub := fakeTMDB(t)
	svc := newMovieService(t, srv.URL, nil)

	out, err := svc.FreeWithAds(context.Background(), "2", "CA", "pluto")
	assert.NoError(t, err)
	assert.Equal(t, "pluto", out.Provider)
	q := stub.query()
	assert.Equal(t, "300", q.Get("with_watch_providers"))
	assert.Equal(t, "free|ads", q.Get("with_watch_monetization_types"))
	assert.Equal(t, "CA", q.Get("region"))
	assert.Equal(t, 7.1, *out.Items[0].VoteAverage)
	assert.DeepEqual(t, []int{28}, out.Items[0].GenreIDs)

	out, err = svc.FreeWithAds(context.Background(), "1", "US", "")
	assert.NoError(t, err)
	assert.Equal(t, "all", out.Provider)
	assert.Equal(t, "", stub.query().Get("with_watch_providers"))
}

func TestTrending(t *testing.T) {
	srv, _ := fakeTMDB(t)
	svc := newMovieService(t, srv.URL, nil)

	out, err := svc.Trending(context.Background(), "tv", "day")
	assert.NoError(t, err)
	assert.Equal(t, "tv", out.MediaType)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, "2023-05-05", out.Items[0].ReleaseDate)
	assert.Equal(t, "tv", out.Items[0].MediaType)

	_, err = svc.Trending(context.Background(), "books", "day")
	var validation *model.ValidationError
	assert.That(t, errors.As(err, &validation))
}

func TestDetailsUsesEpisodeRuntimeAndUSProviders(t *testing.T) {
	srv, _ := fakeTMDB(t)
	svc := newMovieService(t, srv.URL, nil)

	out, err := svc.Details(context.Background(), "tv", "42")
	assert.NoError(t, err)
	assert.Equal(t, "Long Show", out.Title)
	assert.Equal(t, 44, out.Runtime)
	assert.Equal(t, "https://img.example/t/p/w780/p.jpg", out.Poster)
	assert.DeepEqual(t, []string{"Drama"}, out.Genres)
	assert.DeepEqual(t, []model.WatchProvider{{ProviderID: 73, ProviderName: "Tubi", LogoPath: "https://img.example/t/p/w92/tubi.png"}}, out.WatchProviders.Free)
}

func TestDetailsValidation(t *testing.T) {
	srv, stub := fakeTMDB(t)
	svc := newMovieService(t, srv.URL, nil)

	var validation *model.ValidationError
	_, err := svc.Details(context.Background(), "movie", "")
	assert.That(t, errors.As(err, &validation))
	_, err = svc.Details(context.Background(), "movie", "../etc")
	assert.That(t, errors.As(err, &validation))
	assert.Equal(t, 0, stub.total())
}

func TestMissingAPIKey(t *testing.T) {
	srv, _ := fakeTMDB(t)
	svc := services.NewMovieService(cloud.TMDB{BaseURL: srv.URL, APIKeyEnv: "SERVICES_TEST_UNSET_KEY"}, nil)

	_, err := svc.Popular(context.Background(), "1", "US")
	assert.That(t, errors.Is(err, services.ErrMissingAPIKey))
}

func TestUpstreamFailure(t *testing.T) {
	srv, _ := fakeTMDB(t)
	svc := newMovieService(t, srv.URL, nil)

	_, err := svc.Details(context.Background(), "movie", "999")
	var upstream *model.UpstreamError
	assert.That(t, errors.As(err, &upstream))
	assert.Equal(t, services.TMDBProvider, upstream.Provider)
}

func TestResponsesAreCached(t *testing.T) {
	srv, stub := fakeTMDB(t)
	cache := &memoryCache{}
	svc := newMovieService(t, srv.URL, cache)

	first, err := svc.Popular(context.Background(), "1", "US")
	assert.NoError(t, err)
	second, err := svc.Popular(context.Background(), "1", "US")
	assert.NoError(t, err)

	assert.Equal(t, 1, stub.count("/movie/popular"))
	assert.Equal(t, 1, cache.sets)
	assert.DeepEqual(t, first, second)
}
