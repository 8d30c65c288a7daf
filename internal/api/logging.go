package api

import (
	"context"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
)

// logger returns a request-scoped logger configured with component metadata.
func logger(ctx context.Context, component string) *zerolog.Logger {
	l := xglog.WithComponentFromContext(ctx, component)
	return &l
}
