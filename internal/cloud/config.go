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

// Package cloud holds the gateway's configuration and every adapter that talks
// to an external service: Pub/Sub, Cloud Storage, BigQuery, Firestore, Video
// Intelligence, Vertex AI and Valkey.
//
// Configuration is read from layered TOML files (see LoadConfig). Values that
// are secrets are never stored in TOML; the config only names the environment
// variable that holds them.
package cloud

import (
	"os"
	"time"

	"google.golang.org/genai"
)

// DefaultSafetySettings disables content blocking on the text models. The
// gateway summarizes creator supplied text and reports moderation through
// the video explicit-content signal instead.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Logical names used as keys in the TopicSubscriptions and AgentModels maps.
const (
	UploadTopic        = "UploadTopic"
	FeatureEventTopic  = "FeatureEventTopic"
	UserDocumentTopic  = "UserDocumentTopic"
	SummarizerModel    = "summarizer"
	DefaultIngest      = "mychannel-ingest"
	DefaultEventsTopic = "events"
)

// BigQueryDataSource is the dataset that receives one row per analyzed video.
type BigQueryDataSource struct {
	DatasetName  string `toml:"dataset"`
	FeatureTable string `toml:"feature_table"`
}

// PromptTemplates are text/template sources rendered before calling a model.
type PromptTemplates struct {
	SummaryPrompt string `toml:"summary"`
}

// VertexAiLLMModel configures one generative text model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // requests per second
}

// TopicSubscription binds a logical listener to a Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Storage configures the bucket that receives creator uploads.
type Storage struct {
	IngestBucket        string `toml:"ingest_bucket"`
	UploadURLTTLMinutes int    `toml:"upload_url_ttl_minutes"`
}

// UploadURLTTL is the lifetime of a signed upload URL, 15 minutes by default.
func (s Storage) UploadURLTTL() time.Duration {
	if s.UploadURLTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.UploadURLTTLMinutes) * time.Minute
}

// VideoAnalysis configures the annotation call made by analyzeVideo.
type VideoAnalysis struct {
	DefaultFeatures  []string `toml:"default_features"`
	TimeoutInSeconds int      `toml:"timeout_in_seconds"`
}

func (v VideoAnalysis) Timeout() time.Duration {
	if v.TimeoutInSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(v.TimeoutInSeconds) * time.Second
}

// Events names the topic telemetry and client events are published to.
type Events struct {
	Topic string `toml:"topic"`
}

// Auth configures bearer token verification on the /ai and /v1 routes.
type Auth struct {
	Disabled      bool   `toml:"disabled"`
	Issuer        string `toml:"issuer"`
	Audience      string `toml:"audience"`
	SigningKeyEnv string `toml:"signing_key_env"`
}

// SigningKey resolves the HMAC key from the environment.
func (a Auth) SigningKey() []byte {
	return []byte(os.Getenv(a.SigningKeyEnv))
}

// TMDB configures the movie metadata proxy.
type TMDB struct {
	BaseURL          string `toml:"base_url"`
	ImageBaseURL     string `toml:"image_base_url"`
	APIKeyEnv        string `toml:"api_key_env"`
	Language         string `toml:"language"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
	CacheTTLSeconds  int    `toml:"cache_ttl_seconds"`
}

func (t TMDB) APIKey() string {
	return os.Getenv(t.APIKeyEnv)
}

func (t TMDB) Timeout() time.Duration {
	if t.TimeoutInSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(t.TimeoutInSeconds) * time.Second
}

// Cache configures the optional Valkey response cache. An empty Address
// disables caching.
type Cache struct {
	Address     string `toml:"address"`
	PasswordEnv string `toml:"password_env"`
	SelectDB    int    `toml:"select_db"`
	UseTLS      bool   `toml:"use_tls"`
}

// Telemetry holds error reporting settings. Trace and metric export always
// targets the configured Google project.
type Telemetry struct {
	SentryDSNEnv string  `toml:"sentry_dsn_env"`
	SampleRate   float64 `toml:"sample_rate"`
	Environment  string  `toml:"environment"`
}

func (t Telemetry) SentryDSN() string {
	return os.Getenv(t.SentryDSNEnv)
}

// Firestore configures the user document bookkeeping.
type Firestore struct {
	UsersCollection     string `toml:"users_collection"`
	EnableEmailTriggers bool   `toml:"enable_email_triggers"`
}

// Config is the root of the gateway configuration.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		ThreadPoolSize            int    `toml:"thread_pool_size"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
		ListenAddress             string `toml:"listen_address"`
	} `toml:"application"`
	Auth               Auth                         `toml:"auth"`
	Storage            Storage                      `toml:"storage"`
	VideoAnalysis      VideoAnalysis                `toml:"video_analysis"`
	Events             Events                       `toml:"events"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`
	TMDB               TMDB                         `toml:"tmdb"`
	Cache              Cache                        `toml:"cache"`
	Telemetry          Telemetry                    `toml:"telemetry"`
	Firestore          Firestore                    `toml:"firestore"`
}

// NewConfig returns a Config with initialized maps and the defaults the
// gateway falls back to when a file leaves a value out.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
	c.Application.ListenAddress = ":8080"
	c.Storage.IngestBucket = DefaultIngest
	c.Storage.UploadURLTTLMinutes = 15
	c.Events.Topic = DefaultEventsTopic
	c.TMDB.BaseURL = "https://api.themoviedb.org/3"
	c.TMDB.ImageBaseURL = "https://image.tmdb.org/t/p"
	c.TMDB.APIKeyEnv = "TMDB_API_KEY"
	c.TMDB.Language = "en-US"
	c.Firestore.UsersCollection = "users"
	return c
}
