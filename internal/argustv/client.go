// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package argustv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
	"github.com/ManuGH/argustv-pvr/internal/telemetry"
)

// Client talks to the ARGUS TV REST services.
//
// Commands are paths below the base URL ("ArgusTV/Core/Ping/60"). A command
// with arguments is POSTed as JSON; without arguments it is a GET.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *CircuitBreaker
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	userAgent  string
	logger     zerolog.Logger

	liveMu     sync.Mutex
	liveStream *LiveStream
}

// Options configures the client behavior.
type Options struct {
	Timeout               time.Duration
	ResponseHeaderTimeout time.Duration
	MaxRetries            int
	Backoff               time.Duration
	MaxBackoff            time.Duration
	UserAgent             string
	RateLimit             rate.Limit
	RateLimitBurst        int
	BreakerThreshold      int
	BreakerResetTimeout   time.Duration
}

const (
	defaultTimeout             = 10 * time.Second
	defaultRetries             = 2
	defaultBackoff             = 200 * time.Millisecond
	defaultMaxBackoff          = 2 * time.Second
	defaultRateLimit           = 20
	defaultRateLimitBurst      = 40
	defaultBreakerThreshold    = 5
	defaultBreakerResetTimeout = 30 * time.Second

	maxResponseBytes = 32 << 20
)

// NewClient creates a client for the server at baseURL
// (e.g. "http://127.0.0.1:49943/").
func NewClient(baseURL string, opts Options) *Client {
	nopts := normalizeOptions(opts)
	transport := &http.Transport{
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: nopts.ResponseHeaderTimeout,
		TLSHandshakeTimeout:   5 * time.Second,
	}

	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &Client{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout:   nopts.Timeout,
			Transport: transport,
		},
		limiter:    rate.NewLimiter(nopts.RateLimit, nopts.RateLimitBurst),
		breaker:    NewCircuitBreaker(nopts.BreakerThreshold, nopts.BreakerResetTimeout),
		maxRetries: nopts.MaxRetries,
		backoff:    nopts.Backoff,
		maxBackoff: nopts.MaxBackoff,
		userAgent:  nopts.UserAgent,
		logger:     xglog.WithComponent("argustv").With().Str(xglog.FieldBaseURL, trimmed).Logger(),
	}
}

func normalizeOptions(opts Options) Options {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ResponseHeaderTimeout <= 0 {
		opts.ResponseHeaderTimeout = opts.Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	if opts.BreakerThreshold <= 0 {
		opts.BreakerThreshold = defaultBreakerThreshold
	}
	if opts.BreakerResetTimeout <= 0 {
		opts.BreakerResetTimeout = defaultBreakerResetTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = "argustv-pvr"
	}
	return opts
}

// BaseURL returns the server root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() State {
	return c.breaker.State()
}

// plainBody is sent verbatim instead of being JSON encoded.
type plainBody string

// call runs command and decodes the JSON answer into out (if non-nil).
// An empty answer is ErrEmptyResponse when out is set.
func (c *Client) call(ctx context.Context, command string, args any, out any) error {
	method := http.MethodGet
	var payload []byte
	switch v := args.(type) {
	case nil:
	case plainBody:
		method = http.MethodPost
		payload = []byte(v)
	case json.RawMessage:
		method = http.MethodPost
		payload = v
	default:
		method = http.MethodPost
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s arguments: %w", command, err)
		}
		payload = b
	}

	var body []byte
	var callErr error
	err := c.breaker.Execute(func() error {
		body, callErr = c.roundTrip(ctx, method, command, payload)
		// Only server-side failures count against the breaker.
		if errors.Is(callErr, ErrUpstreamUnavailable) || errors.Is(callErr, ErrUpstreamError) {
			return callErr
		}
		return nil
	})
	if errors.Is(err, ErrCircuitOpen) {
		return fmt.Errorf("argustv: %s: %w", command, ErrCircuitOpen)
	}
	if callErr != nil {
		return callErr
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return newAPIError(ErrEmptyResponse, command, http.StatusOK, "", nil)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return newAPIError(ErrUpstreamBadResponse, command, http.StatusOK, string(body), err)
	}
	return nil
}

// roundTrip sends the request, retrying reads on transport errors and 5xx,
// and returns the body of a 2xx answer.
func (c *Client) roundTrip(ctx context.Context, method, command string, payload []byte) ([]byte, error) {
	route := commandRoute(command)
	tracer := telemetry.Tracer("argustv.client")
	ctx, span := tracer.Start(ctx, "argustv.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			telemetry.HTTPMethodKey.String(method),
			telemetry.HTTPRouteKey.String(route),
			telemetry.ArgusCommandKey.String(command),
		))
	defer span.End()

	body, err := c.retry(ctx, method, command, route, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return body, nil
}

func (c *Client) retry(ctx context.Context, method, command, route string, payload []byte) ([]byte, error) {
	// POSTs change server state (tuning, deleting); only reads are retried.
	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	for n := 1; ; n++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		status, body, err := c.attempt(ctx, method, command, route, payload, n)
		if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
			return nil, ctxErr
		}
		result := classify(command, status, body, err)

		again := result != nil && n < attempts && retryable(status, err)
		observeAttempt(method, route, status, err, again)
		if !again {
			if result != nil {
				return nil, result
			}
			return body, nil
		}
		if err := sleepWithContext(ctx, c.backoffFor(n-1)); err != nil {
			return nil, err
		}
	}
}

// attempt performs one HTTP exchange under its own span. A non-nil error
// means no response was read.
func (c *Client) attempt(ctx context.Context, method, command, route string, payload []byte, n int) (int, []byte, error) {
	ctx, span := telemetry.Tracer("argustv.client").Start(ctx, "argustv.request.attempt",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("attempt", n)))
	defer span.End()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(command, "/"), reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	status := 0
	resp, err := c.httpClient.Do(req)
	var body []byte
	if err == nil {
		status = resp.StatusCode
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
	}
	elapsed := time.Since(start)
	attemptSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())

	span.SetAttributes(telemetry.HTTPAttributes(method, route, route, status)...)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
	case status >= http.StatusBadRequest:
		span.SetStatus(codes.Error, http.StatusText(status))
	}

	c.logger.Debug().
		Str(xglog.FieldEvent, "argustv.request").
		Str(xglog.FieldCommand, command).
		Str("method", method).
		Int(xglog.FieldStatus, status).
		Int(xglog.FieldAttempt, n).
		Int64(xglog.FieldDuration, elapsed.Milliseconds()).
		Err(err).
		Msg("argustv request")
	return status, body, err
}

// classify maps one attempt onto the package's error taxonomy; nil means a
// 2xx answer.
func classify(command string, status int, body []byte, err error) error {
	switch {
	case err != nil:
		return newAPIError(ErrUpstreamUnavailable, command, 0, "", err)
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusNotFound:
		return newAPIError(ErrNotFound, command, status, string(body), nil)
	case status >= http.StatusInternalServerError:
		return newAPIError(ErrUpstreamError, command, status, string(body), nil)
	default:
		return newAPIError(ErrUpstreamBadResponse, command, status, string(body), nil)
	}
}

func retryable(status int, err error) bool {
	return err != nil || status >= http.StatusInternalServerError
}

// backoffFor doubles the base delay per retry up to the cap and adds up to
// 20% jitter.
func (c *Client) backoffFor(retry int) time.Duration {
	wait := c.maxBackoff
	if retry < 16 {
		wait = min(c.backoff<<retry, c.maxBackoff)
	}
	return wait + rand.N(wait/5+1)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// commandRoute reduces a command to its service/method part so metric labels
// stay bounded: "ArgusTV/Control/RecordingById/42" -> "ArgusTV/Control/RecordingById".
func commandRoute(command string) string {
	if i := strings.IndexByte(command, '?'); i >= 0 {
		command = command[:i]
	}
	parts := strings.SplitN(strings.TrimLeft(command, "/"), "/", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, "/")
}
