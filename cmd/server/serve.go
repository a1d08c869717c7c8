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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaycherian/gcp-go-media-gateway/internal/api"
	"github.com/jaycherian/gcp-go-media-gateway/internal/telemetry"
	"github.com/spf13/cobra"
)

const shutdownGrace = 5 * time.Second

func newServeCommand() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the Pub/Sub listeners",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&address, "addr", "", "listen address (default application.listen_address)")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context(), address)
	}
	return cmd
}

// serve wires the application and blocks until the process is signalled or
// the HTTP server fails.
//
// On shutdown the listeners are cancelled first, then in-flight requests get
// a short grace period. The listeners are joined and pending event publishes
// drained before the clients are closed.
func serve(parent context.Context, address string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, err := GetConfig()
	if err != nil {
		return err
	}

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()
	slog.Info("tracing initialized")

	if err := telemetry.InitSentry(config, version); err != nil {
		slog.Warn("error reporting disabled", "error", err)
	}
	defer telemetry.Flush()

	app, err := NewApp(ctx, config)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := SetupListeners(ctx, app); err != nil {
		stop()
		app.Wait()
		return err
	}

	if address == "" {
		address = config.Application.ListenAddress
	}
	srv := &http.Server{
		Addr:         address,
		Handler:      api.NewRouter(config, app.Handlers()),
		ReadTimeout:  20 * time.Second,
		WriteTimeout: config.VideoAnalysis.Timeout() + 30*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	slog.Info("server ready", "address", address, "version", version, "pid", os.Getpid())

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case runErr = <-serveErr:
	}

	// Stop the listeners before draining so no callback can start a publish
	// after the workflows have been waited on.
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	app.Wait()
	slog.Info("server exiting")
	return runErr
}
