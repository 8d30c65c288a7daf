// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pvr

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
	"github.com/ManuGH/argustv-pvr/internal/metrics"
)

// KeepAliver is the part of the ARGUS TV client the keep-alive loop needs.
type KeepAliver interface {
	KeepLiveStreamAlive(ctx context.Context) (bool, error)
}

// KeepAlive pings the server for the current live stream until stopped.
// Without it the server ends an unwatched stream after about a minute.
type KeepAlive struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartKeepAlive calls KeepLiveStreamAlive right away and then every interval.
func StartKeepAlive(client KeepAliver, interval time.Duration, logger zerolog.Logger) *KeepAlive {
	ctx, cancel := context.WithCancel(context.Background())
	k := &KeepAlive{cancel: cancel, done: make(chan struct{})}
	go k.run(ctx, client, interval, logger)
	return k
}

func (k *KeepAlive) run(ctx context.Context, client KeepAliver, interval time.Duration, logger zerolog.Logger) {
	defer close(k.done)
	logger.Debug().Str(xglog.FieldEvent, "keepalive.started").Dur("interval", interval).Msg("keep-alive started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		callCtx, cancel := context.WithTimeout(ctx, interval)
		alive, err := client.KeepLiveStreamAlive(callCtx)
		cancel()
		if ctx.Err() != nil {
			break
		}
		metrics.IncKeepAlive(err == nil && alive)
		switch {
		case err != nil:
			logger.Warn().Err(err).Str(xglog.FieldEvent, "keepalive.failed").Msg("keep-alive call failed")
		case !alive:
			logger.Warn().Str(xglog.FieldEvent, "keepalive.rejected").Msg("server no longer knows the live stream")
		default:
			logger.Debug().Str(xglog.FieldEvent, "keepalive.ok").Msg("keep-alive sent")
		}

		select {
		case <-ctx.Done():
			logger.Debug().Str(xglog.FieldEvent, "keepalive.stopped").Msg("keep-alive stopped")
			return
		case <-ticker.C:
		}
	}
	logger.Debug().Str(xglog.FieldEvent, "keepalive.stopped").Msg("keep-alive stopped")
}

// Stop ends the loop and waits for it. Safe to call more than once.
func (k *KeepAlive) Stop() {
	if k == nil {
		return
	}
	k.cancel()
	<-k.done
}
