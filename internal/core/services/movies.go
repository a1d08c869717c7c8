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

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/telemetry"
)

const (
	TMDBProvider = "tmdb"

	listLimit     = 24
	trendingLimit = 20
	untitled      = "Untitled"
)

// ErrMissingAPIKey is returned when no TMDB key is configured.
var ErrMissingAPIKey = errors.New("missing TMDB API key")

// FreeProviders maps the provider filter accepted by FreeWithAds to TMDB
// watch provider ids. imdb is the former IMDb TV, now Freevee.
var FreeProviders = map[string]string{
	"tubi":    "73",
	"pluto":   "300",
	"roku":    "207",
	"freevee": "613",
	"plex":    "538",
	"crackle": "12",
	"imdb":    "613",
}

// ResponseCache stores rendered responses. *cloud.ValkeyCache satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// MovieService proxies the TMDB catalog so the API key never reaches
// clients, and trims responses to the fields the apps render.
type MovieService struct {
	client       *http.Client
	baseURL      string
	imageBaseURL string
	apiKey       string
	language     string
	cache        ResponseCache
	cacheTTL     time.Duration
}

// NewMovieService builds the TMDB client. cache may be nil.
func NewMovieService(config cloud.TMDB, cache ResponseCache) *MovieService {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: config.Timeout(),
	}
	return &MovieService{
		client:       &http.Client{Transport: tr, Timeout: config.Timeout()},
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(config.ImageBaseURL, "/"),
		apiKey:       config.APIKey(),
		language:     config.Language,
		cache:        cache,
		cacheTTL:     time.Duration(config.CacheTTLSeconds) * time.Second,
	}
}

type tmdbTitle struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	BackdropPath string  `json:"backdrop_path"`
	PosterPath   string  `json:"poster_path"`
	Popularity   float64 `json:"popularity"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int   `json:"genre_ids"`
	MediaType    string  `json:"media_type"`
}

func (m tmdbTitle) displayTitle() string {
	switch {
	case m.Title != "":
		return m.Title
	case m.Name != "":
		return m.Name
	default:
		return untitled
	}
}

type tmdbPage struct {
	Results []tmdbTitle `json:"results"`
}

type tmdbDetails struct {
	tmdbTitle
	Runtime        int   `json:"runtime"`
	EpisodeRunTime []int `json:"episode_run_time"`
	Genres         []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type tmdbProviders struct {
	Results map[string]struct {
		Free []struct {
			ProviderID   int    `json:"provider_id"`
			ProviderName string `json:"provider_name"`
			LogoPath     string `json:"logo_path"`
		} `json:"free"`
	} `json:"results"`
}

func (s *MovieService) image(size string, path string) string {
	return s.imageBaseURL + "/" + size + path
}

// Popular returns up to 24 popular movies for a region.
func (s *MovieService) Popular(ctx context.Context, page string, region string) (*model.MovieList, error) {
	params, err := pageParams(page, region)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, "/movie/popular", params, func() (*model.MovieList, error) {
		var raw tmdbPage
		if err := s.get(ctx, "/movie/popular", params, &raw); err != nil {
			return nil, err
		}
		out := &model.MovieList{Items: make([]model.Movie, 0, min(len(raw.Results), listLimit))}
		for _, m := range raw.Results[:min(len(raw.Results), listLimit)] {
			poster := m.PosterPath
			if m.BackdropPath != "" {
				poster = m.BackdropPath
			}
			out.Items = append(out.Items, model.Movie{
				ID:          m.ID,
				Title:       m.displayTitle(),
				Overview:    m.Overview,
				Poster:      s.image("w780", poster),
				Thumb:       s.image("w780", m.PosterPath),
				Popularity:  m.Popularity,
				ReleaseDate: m.ReleaseDate,
			})
		}
		return out, nil
	})
}

// FreeWithAds discovers movies available free or ad supported in a region.
// provider narrows the result to one streaming service; "all" and unknown
// names apply no provider filter.
func (s *MovieService) FreeWithAds(ctx context.Context, page string, region string, provider string) (*model.MovieList, error) {
	params, err := pageParams(page, region)
	if err != nil {
		return nil, err
	}
	if provider == "" {
		provider = "all"
	}
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	params.Set("include_video", "false")
	params.Set("with_watch_monetization_types", "free|ads")
	if id, ok := FreeProviders[provider]; ok {
		params.Set("with_watch_providers", id)
	}

	return cached(ctx, s, "/discover/movie", params, func() (*model.MovieList, error) {
		var raw tmdbPage
		if err := s.get(ctx, "/discover/movie", params, &raw); err != nil {
			return nil, err
		}
		out := &model.MovieList{Items: s.titles(raw.Results, listLimit, ""), Provider: provider}
		for i := range out.Items {
			out.Items[i].MediaType = ""
		}
		return out, nil
	})
}

// Trending returns up to 20 trending titles. mediaType is movie, tv or all;
// timeWindow is day or week.
func (s *MovieService) Trending(ctx context.Context, mediaType string, timeWindow string) (*model.MovieList, error) {
	if mediaType == "" {
		mediaType = "movie"
	}
	if timeWindow == "" {
		timeWindow = "week"
	}
	if mediaType != "movie" && mediaType != "tv" && mediaType != "all" {
		return nil, model.NewValidationError("media_type", "must be movie, tv or all")
	}
	if timeWindow != "day" && timeWindow != "week" {
		return nil, model.NewValidationError("time_window", "must be day or week")
	}

	path := fmt.Sprintf("/trending/%s/%s", mediaType, timeWindow)
	params := url.Values{}
	return cached(ctx, s, path, params, func() (*model.MovieList, error) {
		var raw tmdbPage
		if err := s.get(ctx, path, params, &raw); err != nil {
			return nil, err
		}
		out := &model.MovieList{Items: s.titles(raw.Results, trendingLimit, mediaType), MediaType: mediaType}
		for i := range out.Items {
			out.Items[i].GenreIDs = nil
		}
		return out, nil
	})
}

// titles maps list results the way the discover and trending endpoints
// render them.
func (s *MovieService) titles(results []tmdbTitle, limit int, mediaType string) []model.Movie {
	out := make([]model.Movie, 0, min(len(results), limit))
	for _, m := range results[:min(len(results), limit)] {
		poster := m.BackdropPath
		if poster == "" {
			poster = m.PosterPath
		}
		release := m.ReleaseDate
		if release == "" {
			release = m.FirstAirDate
		}
		kind := m.MediaType
		if kind == "" {
			kind = mediaType
		}
		vote := m.VoteAverage
		genres := m.GenreIDs
		if genres == nil {
			genres = []int{}
		}
		out = append(out, model.Movie{
			ID:          m.ID,
			Title:       m.displayTitle(),
			Overview:    m.Overview,
			Poster:      s.image("w780", poster),
			Thumb:       s.image("w780", m.PosterPath),
			Popularity:  m.Popularity,
			ReleaseDate: release,
			VoteAverage: &vote,
			GenreIDs:    genres,
			MediaType:   kind,
		})
	}
	return out
}

// Details returns one movie or show with its free US watch providers.
func (s *MovieService) Details(ctx context.Context, mediaType string, id string) (*model.MovieDetails, error) {
	if mediaType == "" {
		mediaType = "movie"
	}
	if id == "" {
		return nil, model.NewValidationError("id", "Missing media ID")
	}
	if mediaType != "movie" && mediaType != "tv" {
		return nil, model.NewValidationError("media_type", "must be movie or tv")
	}
	if _, err := strconv.Atoi(id); err != nil {
		return nil, model.NewValidationError("id", "must be numeric")
	}

	path := fmt.Sprintf("/%s/%s", mediaType, id)
	params := url.Values{}
	return cached(ctx, s, path, params, func() (*model.MovieDetails, error) {
		var details tmdbDetails
		if err := s.get(ctx, path, params, &details); err != nil {
			return nil, err
		}
		var providers tmdbProviders
		if err := s.get(ctx, path+"/watch/providers", params, &providers); err != nil {
			return nil, err
		}

		poster := details.BackdropPath
		if poster == "" {
			poster = details.PosterPath
		}
		release := details.ReleaseDate
		if release == "" {
			release = details.FirstAirDate
		}
		runtime := details.Runtime
		if runtime == 0 && len(details.EpisodeRunTime) > 0 {
			runtime = details.EpisodeRunTime[0]
		}
		genres := make([]string, 0, len(details.Genres))
		for _, g := range details.Genres {
			genres = append(genres, g.Name)
		}
		free := make([]model.WatchProvider, 0)
		for _, p := range providers.Results["US"].Free {
			free = append(free, model.WatchProvider{
				ProviderID:   p.ProviderID,
				ProviderName: p.ProviderName,
				LogoPath:     s.image("w92", p.LogoPath),
			})
		}
		return &model.MovieDetails{
			ID:             details.ID,
			Title:          details.displayTitle(),
			Overview:       details.Overview,
			Poster:         s.image("w780", poster),
			Thumb:          s.image("w780", details.PosterPath),
			ReleaseDate:    release,
			VoteAverage:    details.VoteAverage,
			Runtime:        runtime,
			Genres:         genres,
			WatchProviders: model.WatchProviders{Free: free},
			MediaType:      mediaType,
		}, nil
	})
}

func pageParams(page string, region string) (url.Values, error) {
	if page == "" {
		page = "1"
	}
	if region == "" {
		region = "US"
	}
	if n, err := strconv.Atoi(page); err != nil || n < 1 {
		return nil, model.NewValidationError("page", "must be a positive integer")
	}
	return url.Values{"page": {page}, "region": {region}}, nil
}

// get calls TMDB and decodes the JSON body into out. Non-200 answers and
// transport failures come back as *model.UpstreamError.
func (s *MovieService) get(ctx context.Context, path string, params url.Values, out any) error {
	if s.apiKey == "" {
		return ErrMissingAPIKey
	}
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("api_key", s.apiKey)
	query.Set("language", s.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		telemetry.UpstreamFailures.WithLabelValues(TMDBProvider).Inc()
		return model.NewUpstreamError(TMDBProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		const maxErr = 4096
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErr))
		telemetry.UpstreamFailures.WithLabelValues(TMDBProvider).Inc()
		return model.NewUpstreamError(TMDBProvider, fmt.Errorf("%s %s: %s", path, resp.Status, strings.TrimSpace(string(b))))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return model.NewUpstreamError(TMDBProvider, fmt.Errorf("%s decode: %w", path, err))
	}
	return nil
}

// cached serves a rendered response from the cache when possible and stores
// fresh ones. Cache failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *MovieService, path string, params url.Values, fetch func() (T, error)) (T, error) {
	if s.apiKey == "" {
		var zero T
		return zero, ErrMissingAPIKey
	}
	if s.cache == nil || s.cacheTTL <= 0 {
		return fetch()
	}

	key := "tmdb:" + s.language + ":" + path + "?" + params.Encode()
	if value, ok, err := s.cache.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "response cache read failed", "key", key, "error", err)
	} else if ok {
		var out T
		if err := json.Unmarshal([]byte(value), &out); err == nil {
			telemetry.CacheLookups.WithLabelValues("hit").Inc()
			return out, nil
		}
	}
	telemetry.CacheLookups.WithLabelValues("miss").Inc()

	out, err := fetch()
	if err != nil {
		return out, err
	}
	if b, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, key, string(b), s.cacheTTL); err != nil {
			slog.WarnContext(ctx, "response cache write failed", "key", key, "error", err)
		}
	}
	return out, nil
}
