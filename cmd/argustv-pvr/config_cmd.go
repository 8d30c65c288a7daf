// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/argustv-pvr/internal/config"
)

func newConfigCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration (defaults + file + env)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, path, err := load()
			if err != nil {
				return err
			}
			if path == "" {
				path = "environment"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", path)
			return err
		},
	}

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			return writeEffectiveConfig(cmd.OutOrStdout(), cfg, format)
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")

	cmd.AddCommand(validateCmd, dumpCmd)
	return cmd
}

func writeEffectiveConfig(w io.Writer, cfg config.AppConfig, format string) error {
	fileCfg := config.ToFileConfig(cfg)
	config.RedactSecrets(&fileCfg)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(fileCfg); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(fileCfg)
	default:
		return fmt.Errorf("unsupported format %q (use yaml or json)", format)
	}
}
