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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/features"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/spf13/cobra"
)

func newScoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score [file]",
		Short: "Score a feature set JSON document ('-' or no file reads stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			score, err := scoreDocument(in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(score)
		},
	}
}

// scoreDocument reads a score request body and scores it the way
// /ai/scoreVirality does.
func scoreDocument(r io.Reader) (model.ViralityScore, error) {
	req := &model.ScoreRequest{}
	if err := json.NewDecoder(r).Decode(req); err != nil {
		return model.ViralityScore{}, fmt.Errorf("decode feature set: %w", err)
	}
	set, err := commands.FeatureSetFromScoreRequest(req)
	if err != nil {
		return model.ViralityScore{}, err
	}
	return features.Score(set), nil
}
