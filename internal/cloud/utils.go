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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/subosito/gotenv"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

const (
	ConfigFileBaseName  = ".env"
	ConfigFileExtension = ".toml"
	ConfigSeparator     = "."
	SecretsFileName     = ".env.secrets"
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX"
	EnvConfigRuntime    = "GCP_RUNTIME"
	MaxRetries          = 3
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// Runtime returns the runtime named by GCP_RUNTIME, "test" when unset.
func Runtime() string {
	if r := os.Getenv(EnvConfigRuntime); r != "" {
		return r
	}
	return "test"
}

// LoadConfig decodes `<prefix>/.env.toml` and then `<prefix>/.env.<runtime>.toml`
// into baseConfig, so runtime values override base values. A missing file is
// skipped; a malformed file is an error.
//
// Before decoding it loads `<prefix>/.env.secrets` into the process
// environment when that file exists. Variables already set are kept.
func LoadConfig(baseConfig interface{}) error {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	runtime := Runtime()

	secrets := prefix + SecretsFileName
	if fileExists(secrets) {
		if err := gotenv.Load(secrets); err != nil {
			return fmt.Errorf("failed to load secrets file %s: %w", secrets, err)
		}
	}

	baseFile := prefix + ConfigFileBaseName + ConfigFileExtension
	envFile := prefix + ConfigFileBaseName + ConfigSeparator + runtime + ConfigFileExtension
	slog.Debug("loading configuration", "base", baseFile, "runtime", envFile)

	for _, name := range []string{baseFile, envFile} {
		if !fileExists(name) {
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
	}
	return nil
}

// GenerateMultiModalResponse calls the model up to MaxRetries+1 times and
// returns the concatenated text of all candidates. Token usage of the
// successful call is added to the counters. A cancelled context ends the
// retries early.
func GenerateMultiModalResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	model *QuotaAwareGenerativeAIModel,
	content []*genai.Content) (value string, err error) {

	var resp *genai.GenerateContentResponse
	for try := 0; try <= MaxRetries; try++ {
		if try > 0 {
			retryCounter.Add(ctx, 1)
		}
		resp, err = model.GenerateContent(ctx, content)
		if err == nil || ctx.Err() != nil {
			break
		}
		slog.WarnContext(ctx, "generate content failed", "model", model.ModelName, "attempt", try+1, "error", err)
	}
	if err != nil {
		return "", err
	}

	if resp.UsageMetadata != nil {
		inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	value = strings.TrimSpace(sb.String())
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value), nil
}

func NewTextPart(in string) []*genai.Content {
	return genai.Text(in)
}
