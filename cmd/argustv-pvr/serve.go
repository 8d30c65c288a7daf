// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/argustv-pvr/internal/api"
	"github.com/ManuGH/argustv-pvr/internal/argustv"
	"github.com/ManuGH/argustv-pvr/internal/config"
	"github.com/ManuGH/argustv-pvr/internal/daemon"
	xglog "github.com/ManuGH/argustv-pvr/internal/log"
	"github.com/ManuGH/argustv-pvr/internal/pvr"
	"github.com/ManuGH/argustv-pvr/internal/telemetry"
)

func newServeCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, configPath, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, configPath)
		},
	}
}

func serve(ctx context.Context, cfg config.AppConfig, configPath string) error {
	logger := xglog.WithComponent("daemon")
	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.Listen).
		Str(xglog.FieldBaseURL, cfg.BaseURL()).
		Int("path_mappings", len(cfg.PathMappings)).
		Msg("starting argustv-pvr")

	tp, err := telemetry.NewProvider(ctx, tracingConfig(cfg))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	client := argustv.NewClient(cfg.BaseURL(), clientOptions(cfg))
	if rc, err := client.Ping(ctx, argustv.APIVersion); err != nil {
		// The server may come up later; /healthz reports it meanwhile.
		logger.Warn().Err(err).Str(xglog.FieldEvent, "argustv.unreachable").Msg("ARGUS TV server not reachable at startup")
	} else if rc != 0 {
		logger.Warn().Int("ping", rc).Str(xglog.FieldEvent, "argustv.incompatible").Msg("ARGUS TV server API level differs")
	}

	paths := pvr.NewPathMapper(cfg.PathMappings, cfg.User, cfg.Pass)
	session := pvr.NewSession(client, nil, paths, sessionOptions(cfg))
	recordings := pvr.NewRecordings(client, nil, paths, readerOptions(cfg))

	srv := api.New(client, session, api.Options{
		Radio:          cfg.Radio,
		RateLimit:      cfg.RateLimit,
		TracingService: tracingServiceName(cfg),
		Recordings:     recordings,
	})

	mgr, err := daemon.NewManager(daemon.DefaultServerConfig(cfg.Listen), daemon.Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("live_session", session.Close)

	events := xglog.WithComponent("events")
	monitor := pvr.NewMonitor(client, cfg.EventPollInterval, pvr.EventHandlers{
		TimersChanged: func() {
			events.Info().Str(xglog.FieldEvent, "events.timers_changed").Msg("upcoming recordings changed")
		},
		RecordingsChanged: func() {
			events.Info().Str(xglog.FieldEvent, "events.recordings_changed").Msg("recordings changed")
		},
	})

	loader := config.NewLoader(configPath, version)
	holder := config.NewHolder(cfg, loader, configPath)

	return daemon.NewApp(logger, mgr, holder, monitor).Run(ctx)
}

func tracingServiceName(cfg config.AppConfig) string {
	if !cfg.Tracing.Enabled {
		return ""
	}
	return "argustv-pvr-http"
}
