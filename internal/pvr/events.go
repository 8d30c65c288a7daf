// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pvr

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/argustv-pvr/internal/argustv"
	xglog "github.com/ManuGH/argustv-pvr/internal/log"
	"github.com/ManuGH/argustv-pvr/internal/metrics"
)

// EventSource is the part of the ARGUS TV client the monitor needs.
type EventSource interface {
	SubscribeServiceEvents(ctx context.Context, groups argustv.ServiceEventGroups) (string, error)
	UnsubscribeServiceEvents(ctx context.Context, monitorID string) error
	ServiceEvents(ctx context.Context, monitorID string) (argustv.ServiceEvents, error)
}

// EventHandlers are invoked from the monitor goroutine. Nil handlers are
// skipped.
type EventHandlers struct {
	TimersChanged     func()
	RecordingsChanged func()
}

// Monitor polls the server's service event queue and turns the events into
// timer and recording refresh triggers.
type Monitor struct {
	src      EventSource
	interval time.Duration
	handlers EventHandlers
	logger   zerolog.Logger

	monitorID string
}

// NewMonitor creates a monitor polling every interval.
func NewMonitor(src EventSource, interval time.Duration, handlers EventHandlers) *Monitor {
	return &Monitor{
		src:      src,
		interval: interval,
		handlers: handlers,
		logger:   xglog.WithComponent("events"),
	}
}

// Run subscribes and polls until ctx is done, then unsubscribes (best
// effort). It always returns nil; a server that cannot be reached is retried
// on the next tick.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.tick(ctx)

		select {
		case <-ctx.Done():
			m.unsubscribe()
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	if m.monitorID == "" {
		if !m.subscribe(ctx) {
			return
		}
	}

	ev, err := m.src.ServiceEvents(ctx, m.monitorID)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn().Err(err).Str(xglog.FieldEvent, "events.poll_failed").
				Str(xglog.FieldMonitorID, m.monitorID).Msg("service event poll failed")
		}
		return
	}
	if ev.Expired {
		m.logger.Info().Str(xglog.FieldEvent, "events.expired").
			Str(xglog.FieldMonitorID, m.monitorID).Msg("event subscription expired, resubscribing")
		m.monitorID = ""
		m.subscribe(ctx)
		return
	}
	m.dispatch(ev.Events)
}

func (m *Monitor) subscribe(ctx context.Context) bool {
	id, err := m.src.SubscribeServiceEvents(ctx, argustv.AllEvents)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn().Err(err).Str(xglog.FieldEvent, "events.subscribe_failed").Msg("subscribe to service events failed")
		}
		return false
	}
	m.monitorID = id
	m.logger.Debug().Str(xglog.FieldEvent, "events.subscribed").Str(xglog.FieldMonitorID, id).Msg("subscribed to service events")
	return true
}

func (m *Monitor) unsubscribe() {
	if m.monitorID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.src.UnsubscribeServiceEvents(ctx, m.monitorID); err != nil {
		m.logger.Debug().Err(err).Str(xglog.FieldEvent, "events.unsubscribe_failed").Msg("unsubscribe failed")
	}
	m.monitorID = ""
}

// dispatch fires each handler at most once per batch.
func (m *Monitor) dispatch(events []argustv.ServiceEvent) {
	var timers, recordings bool
	for _, e := range events {
		metrics.IncServiceEvent(e.Name)
		m.logger.Debug().Str(xglog.FieldEvent, "events.received").Str("name", e.Name).Msg("service event")
		switch e.Name {
		case argustv.EventUpcomingRecordingsChanged:
			timers = true
		case argustv.EventRecordingStarted, argustv.EventRecordingEnded:
			recordings = true
		}
	}
	if timers && m.handlers.TimersChanged != nil {
		m.handlers.TimersChanged()
	}
	if recordings && m.handlers.RecordingsChanged != nil {
		m.handlers.RecordingsChanged()
	}
}
