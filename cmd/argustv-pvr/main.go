// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command argustv-pvr streams ARGUS TV live TV from its timeshift buffer and
// exposes the server's channels, guide and recordings over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuGH/argustv-pvr/internal/config"
	xglog "github.com/ManuGH/argustv-pvr/internal/log"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	var configPath, logFormat string

	root := &cobra.Command{
		Use:           "argustv-pvr",
		Short:         "ARGUS TV live TV and timeshift buffer bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log output on stderr: json or console")

	load := func() (config.AppConfig, string, error) {
		cfg, err := config.NewLoader(configPath, version).Load()
		if err != nil {
			return config.AppConfig{}, "", fmt.Errorf("load configuration: %w", err)
		}
		xglog.Configure(xglog.Config{Level: cfg.LogLevel, Format: logFormat, Version: version})
		return cfg, configPath, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newPingCmd(load),
		newDumpCmd(load),
		newConfigCmd(load),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
