package argustv

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	s := httptest.NewServer(h)
	t.Cleanup(s.Close)
	return NewClient(s.URL+"/", Options{
		Timeout:    time.Second,
		MaxRetries: 2,
		Backoff:    time.Millisecond,
		MaxBackoff: 2 * time.Millisecond,
		RateLimit:  1000,
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestPing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/ArgusTV/Core/Ping/60", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte("0"))
	}))

	rc, err := c.Ping(context.Background(), APIVersion)
	require.NoError(t, err)
	assert.Zero(t, rc)
}

func TestCall_EmptyResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	_, err := c.Version(context.Background())
	require.ErrorIs(t, err, ErrEmptyResponse)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ArgusTV/Core/Version", apiErr.Command)
}

func TestCall_InvalidJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not-json"))
	}))

	_, err := c.Channels(context.Background(), Television)
	require.ErrorIs(t, err, ErrUpstreamBadResponse)
}

func TestCall_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such recording", http.StatusNotFound)
	}))

	_, err := c.RecordingByID(context.Background(), "42")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, StateClosed, c.BreakerState())
}

func TestCall_RetriesGetOn5xx(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`"2.3.0"`))
	}))

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.3.0", v)
	assert.Equal(t, int32(3), hits.Load())
}

func TestCall_GivesUpAfterRetries(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))

	_, err := c.Version(context.Background())
	require.ErrorIs(t, err, ErrUpstreamError)
	assert.Equal(t, int32(3), hits.Load())
}

func TestCall_DoesNotRetryPost(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))

	err := c.DeleteRecording(context.Background(), `\\argus\rec\show.ts`)
	require.ErrorIs(t, err, ErrUpstreamError)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCall_CircuitOpens(t *testing.T) {
	var hits atomic.Int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer s.Close()

	c := NewClient(s.URL, Options{
		MaxRetries:       1,
		Backoff:          time.Millisecond,
		MaxBackoff:       time.Millisecond,
		RateLimit:        1000,
		BreakerThreshold: 2,
	})

	for i := 0; i < 2; i++ {
		_, err := c.Version(context.Background())
		require.ErrorIs(t, err, ErrUpstreamError)
	}
	before := hits.Load()

	_, err := c.Version(context.Background())
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, hits.Load())
}

func TestCall_ContextCancelled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0"))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Ping(ctx, APIVersion)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestChannels(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ArgusTV/Scheduler/Channels/Radio", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("visibleOnly"))
		_, _ = w.Write([]byte(`[{"ChannelId":"c1","GuideChannelId":"g1","DisplayName":"Radio 1","ChannelType":1,"LogicalChannelNumber":7,"Id":3}]`))
	}))

	chans, err := c.Channels(context.Background(), Radio)
	require.NoError(t, err)
	require.Len(t, chans, 1)
	assert.Equal(t, "c1", chans[0].ChannelID)
	assert.Equal(t, Radio, chans[0].ChannelType)
	require.NotNil(t, chans[0].LogicalChannelNumber)
	assert.Equal(t, 7, *chans[0].LogicalChannelNumber)
}

func TestGuidePrograms(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ArgusTV/Guide/FullPrograms/g1/2024-03-01T20:00:00/2024-03-02T02:30:00/false", r.URL.Path)
		_, _ = w.Write([]byte(`[{"GuideProgramId":"p1","Title":"News","StartTime":"\/Date(1709323200000+0000)\/","StopTime":"\/Date(1709325000000+0000)\/"}]`))
	}))

	from := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 2, 30, 0, 0, time.UTC)
	progs, err := c.GuidePrograms(context.Background(), "g1", from, to)
	require.NoError(t, err)
	require.Len(t, progs, 1)
	assert.Equal(t, "News", progs[0].Title)
	assert.Equal(t, 30*time.Minute, progs[0].StopTime.Sub(progs[0].StartTime.Time))
}

func TestRecordingsForTitle(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ArgusTV/Control/GetFullRecordings/Television", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("includeNonExisting"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"ScheduleId": nil, "ProgramTitle": "Tatort", "Category": nil, "ChannelId": nil}, body)

		_, _ = w.Write([]byte(`[{"Id":1,"RecordingId":"r1","Title":"Tatort","RecordingFileName":"\\\\argus\\rec\\tatort.ts"}]`))
	}))

	recs, err := c.RecordingsForTitle(context.Background(), "Tatort")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, `\\argus\rec\tatort.ts`, recs[0].RecordingFileName)
}

func TestDeleteRecording_SendsRawFileName(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ArgusTV/Control/DeleteRecording", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("deleteRecordingFile"))
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, `\\argus\rec\show.ts`, string(b))
	}))

	require.NoError(t, c.DeleteRecording(context.Background(), `\\argus\rec\show.ts`))
}

func TestServiceEvents(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ArgusTV/Core/SubscribeServiceEvents/15":
			_, _ = w.Write([]byte(`"mon-1"`))
		case "/ArgusTV/Core/GetServiceEvents/mon-1":
			writeJSON(t, w, map[string]any{"Expired": false, "Events": []map[string]any{{"Name": EventRecordingStarted}}})
		case "/ArgusTV/Core/UnsubscribeServiceEvents/mon-1":
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	ctx := context.Background()
	id, err := c.SubscribeServiceEvents(ctx, AllEvents)
	require.NoError(t, err)
	assert.Equal(t, "mon-1", id)

	ev, err := c.ServiceEvents(ctx, id)
	require.NoError(t, err)
	assert.False(t, ev.Expired)
	require.Len(t, ev.Events, 1)
	assert.Equal(t, EventRecordingStarted, ev.Events[0].Name)

	require.NoError(t, c.UnsubscribeServiceEvents(ctx, id))
}

func TestCommandRoute(t *testing.T) {
	tests := map[string]string{
		"ArgusTV/Core/Ping/60":                                    "ArgusTV/Core/Ping",
		"ArgusTV/Control/ActiveRecordings":                        "ArgusTV/Control/ActiveRecordings",
		"ArgusTV/Control/UpcomingRecordings/7?includeActive=true": "ArgusTV/Control/UpcomingRecordings",
		"ArgusTV/Scheduler/Channels/Radio?visibleOnly=false":      "ArgusTV/Scheduler/Channels",
	}
	for in, want := range tests {
		assert.Equal(t, want, commandRoute(in), in)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		status int
		err    error
		want   string
	}{
		{0, context.DeadlineExceeded, "transport"},
		{200, nil, "2xx"},
		{404, nil, "4xx"},
		{503, nil, "5xx"},
		{0, nil, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outcome(tt.status, tt.err), "status %d", tt.status)
	}
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("c", http.StatusNoContent, nil, nil))
	assert.ErrorIs(t, classify("c", 0, nil, io.ErrUnexpectedEOF), ErrUpstreamUnavailable)
	assert.ErrorIs(t, classify("c", http.StatusNotFound, nil, nil), ErrNotFound)
	assert.ErrorIs(t, classify("c", http.StatusBadGateway, nil, nil), ErrUpstreamError)
	assert.ErrorIs(t, classify("c", http.StatusBadRequest, nil, nil), ErrUpstreamBadResponse)
}

func TestBackoffFor_Capped(t *testing.T) {
	c := NewClient("http://argus", Options{Backoff: 100 * time.Millisecond, MaxBackoff: time.Second})
	for retry := 0; retry < 64; retry++ {
		d := c.backoffFor(retry)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, time.Second+time.Second/5)
	}
}
