// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
	"github.com/ManuGH/argustv-pvr/internal/tsreader"
)

type dumpOptions struct {
	out       string
	limit     int64
	live      bool
	follow    time.Duration
	pollEvery time.Duration
}

func newDumpCmd(load loadFunc) *cobra.Command {
	opts := dumpOptions{pollEvery: 40 * time.Millisecond}
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Copy a .ts recording or .tsbuffer timeshift buffer",
		Long: `Reads a plain transport stream file or a timeshift buffer descriptor
(.tsbuffer) and writes the readable range to stdout or --out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			r, err := tsreader.Open(cmd.Context(), nil, args[0], readerOptions(cfg))
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()
			if opts.live {
				if err := r.Zap(); err != nil {
					return fmt.Errorf("seek to live edge: %w", err)
				}
			}

			if opts.out == "" {
				_, err := copyStream(cmd.Context(), cmd.OutOrStdout(), r, opts)
				return err
			}
			return dumpToFile(cmd.Context(), opts, r)
		},
	}
	cmd.Flags().StringVar(&opts.out, "out", "", "write to this file atomically instead of stdout")
	cmd.Flags().Int64Var(&opts.limit, "bytes", 0, "stop after this many bytes (0: no limit)")
	cmd.Flags().BoolVar(&opts.live, "live", false, "start at the live edge instead of the oldest data")
	cmd.Flags().DurationVar(&opts.follow, "follow", 0, "keep reading while the file grows, until no data arrives for this long")
	return cmd
}

func dumpToFile(ctx context.Context, opts dumpOptions, r io.Reader) error {
	logger := xglog.FromContext(ctx)

	pending, err := renameio.NewPendingFile(opts.out)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending dump file")
		}
	}()

	n, err := copyStream(ctx, pending, r, opts)
	if err != nil {
		return err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", opts.out, err)
	}
	logger.Info().
		Str(xglog.FieldEvent, "dump.written").
		Str(xglog.FieldPath, opts.out).
		Int64("bytes", n).
		Msg("dump written")
	return nil
}

// copyStream copies until limit is reached or the reader stays empty for
// longer than opts.follow. Readers report the current end of a growing file
// as a zero-length read.
func copyStream(ctx context.Context, w io.Writer, r io.Reader, opts dumpOptions) (int64, error) {
	buf := make([]byte, 188*348)
	var total int64
	var idleSince time.Time
	for opts.limit <= 0 || total < opts.limit {
		chunk := buf
		if opts.limit > 0 && opts.limit-total < int64(len(chunk)) {
			chunk = chunk[:opts.limit-total]
		}
		n, err := r.Read(chunk)
		if n > 0 {
			if _, werr := w.Write(chunk[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
			idleSince = time.Time{}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return total, err
		}
		if n > 0 {
			continue
		}

		if idleSince.IsZero() {
			idleSince = time.Now()
		}
		if time.Since(idleSince) >= opts.follow {
			break
		}
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(opts.pollEvery):
		}
	}
	return total, nil
}
