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

package commands

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/telemetry"
)

const (
	TextModelProvider = "vertex-ai"

	// DefaultSummaryPrompt is used when no template is configured.
	DefaultSummaryPrompt = "Summarize for video description in {{ .LANG }}: {{ .TEXT }}"
)

// TextSummaryCreator renders the summary prompt and asks the text model for
// a video description.
type TextSummaryCreator struct {
	cor.BaseCommand
	generator TextGenerator
	template  *template.Template
}

func NewTextSummaryCreator(name string, generator TextGenerator, template *template.Template) *TextSummaryCreator {
	return &TextSummaryCreator{BaseCommand: *cor.NewBaseCommand(name), generator: generator, template: template}
}

// GenerateParams returns the template values for one request.
func (c *TextSummaryCreator) GenerateParams(req *model.SummaryRequest) map[string]interface{} {
	lang := strings.TrimSpace(req.Lang)
	if lang == "" {
		lang = model.DefaultUserLanguage
	}
	return map[string]interface{}{
		"LANG": lang,
		"TEXT": req.Text,
	}
}

func (c *TextSummaryCreator) Execute(context cor.Context) {
	req, ok := cor.Value[*model.SummaryRequest](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%s: unexpected input %T", c.GetName(), context.Get(c.GetInputParam())))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.Fail(context, model.NewValidationError("text", "is required"))
		return
	}

	var buffer bytes.Buffer
	if err := c.template.Execute(&buffer, c.GenerateParams(req)); err != nil {
		c.Fail(context, fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	summary, err := c.generator.GenerateText(context.GetContext(), buffer.String())
	if err != nil {
		telemetry.UpstreamFailures.WithLabelValues(TextModelProvider).Inc()
		c.Fail(context, model.NewUpstreamError(TextModelProvider, err))
		return
	}

	out := &model.SummaryResponse{Summary: summary}
	context.Add(SummaryParam, out)
	c.Succeed(context, out)
}
