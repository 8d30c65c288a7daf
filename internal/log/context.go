// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionIDKey
)

// correlation lists the context values copied onto loggers, in field order.
var correlation = []struct {
	key   ctxKey
	field string
}{
	{requestIDKey, FieldRequestID},
	{sessionIDKey, FieldSessionID},
}

func withID(ctx context.Context, key ctxKey, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, id)
}

func idFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(key).(string)
	return id
}

// ContextWithRequestID tags ctx with the HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withID(ctx, requestIDKey, id)
}

// ContextWithSessionID tags ctx with the live session ID.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return withID(ctx, sessionIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string { return idFrom(ctx, requestIDKey) }

func SessionIDFromContext(ctx context.Context) string { return idFrom(ctx, sessionIDKey) }

// WithContext adds the request and session IDs carried by ctx to logger.
// logger is returned unchanged when ctx carries neither.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	var lc *zerolog.Context
	for _, c := range correlation {
		id := idFrom(ctx, c.key)
		if id == "" {
			continue
		}
		if lc == nil {
			b := logger.With()
			lc = &b
		}
		*lc = lc.Str(c.field, id)
	}
	if lc == nil {
		return logger
	}
	return lc.Logger()
}

// WithComponentFromContext is WithComponent plus the IDs carried by ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}

// FromContext returns the logger stored in ctx by zerolog's WithContext, or
// the base logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	l := Base()
	return &l
}
