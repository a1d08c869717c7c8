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

// Package main is the entry point for the media gateway.
//
// The gateway serves the AI routes (video analysis, virality scoring,
// summaries, feed ranking), the client routes (events, signed uploads, feed)
// and the TMDB catalog proxy. Alongside the HTTP server it runs the Pub/Sub
// listeners that analyze uploaded videos, sink feature events into BigQuery
// and, when enabled, record user email bookkeeping in Firestore.
//
// Commands:
//   - serve: runs the HTTP server and the listeners until SIGINT or SIGTERM.
//     This is the default when no command is given.
//   - score: scores a feature set read from a JSON file, without any cloud
//     clients, and prints the result.
package main

import (
	"fmt"
	"os"

	"github.com/jaycherian/gcp-go-media-gateway/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gateway/internal/telemetry"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configDir, runtime string

	root := &cobra.Command{
		Use:           "media-gateway",
		Short:         "Video analysis, virality scoring and catalog gateway",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := SetupOS(configDir, runtime); err != nil {
				return err
			}
			telemetry.SetupLogging(cloud.Runtime())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding the .env.*.toml files (default $"+cloud.EnvConfigFilePrefix+" or ./configs)")
	root.PersistentFlags().StringVar(&runtime, "runtime", "", "runtime override file to load (default $"+cloud.EnvConfigRuntime+" or local)")

	serve := newServeCommand()
	root.AddCommand(serve, newScoreCommand())
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}
