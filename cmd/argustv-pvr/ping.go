package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ManuGH/argustv-pvr/internal/argustv"
)

func newPingCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the ARGUS TV server is reachable and compatible",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			client := argustv.NewClient(cfg.BaseURL(), clientOptions(cfg))
			return ping(cmd.Context(), client, cmd.OutOrStdout())
		},
	}
}

type pinger interface {
	Ping(ctx context.Context, apiVersion int) (int, error)
	Version(ctx context.Context) (string, error)
	BaseURL() string
}

func ping(ctx context.Context, c pinger, out io.Writer) error {
	rc, err := c.Ping(ctx, argustv.APIVersion)
	if err != nil {
		return fmt.Errorf("ping %s: %w", c.BaseURL(), err)
	}
	switch {
	case rc < 0:
		return fmt.Errorf("server at %s requires a newer client (API %d)", c.BaseURL(), argustv.APIVersion)
	case rc > 0:
		return fmt.Errorf("server at %s is too old for API %d", c.BaseURL(), argustv.APIVersion)
	}
	v, err := c.Version(ctx)
	if err != nil {
		return fmt.Errorf("version: %w", err)
	}
	_, err = fmt.Fprintf(out, "ARGUS TV %s at %s (API %d): ok\n", v, c.BaseURL(), argustv.APIVersion)
	return err
}
