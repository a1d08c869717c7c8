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

package model

// Movie is the trimmed catalog entry returned by the movie listing endpoints.
type Movie struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	Poster      string   `json:"poster"`
	Thumb       string   `json:"thumb"`
	Popularity  float64  `json:"popularity"`
	ReleaseDate string   `json:"release_date"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
	GenreIDs    []int    `json:"genre_ids,omitempty"`
	MediaType   string   `json:"media_type,omitempty"`
}

// MovieList wraps a page of movies. Provider and MediaType echo the filter
// that produced the list when one was applied.
type MovieList struct {
	Items     []Movie `json:"items"`
	Provider  string  `json:"provider,omitempty"`
	MediaType string  `json:"media_type,omitempty"`
}

type WatchProvider struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

type WatchProviders struct {
	Free []WatchProvider `json:"free"`
}

// MovieDetails is a single title with its genres and free streaming options.
type MovieDetails struct {
	ID             int            `json:"id"`
	Title          string         `json:"title"`
	Overview       string         `json:"overview"`
	Poster         string         `json:"poster"`
	Thumb          string         `json:"thumb"`
	ReleaseDate    string         `json:"release_date"`
	VoteAverage    float64        `json:"vote_average"`
	Runtime        int            `json:"runtime"`
	Genres         []string       `json:"genres"`
	WatchProviders WatchProviders `json:"watch_providers"`
	MediaType      string         `json:"media_type"`
}
