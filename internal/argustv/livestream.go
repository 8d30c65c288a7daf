// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package argustv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/codes"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
	"github.com/ManuGH/argustv-pvr/internal/telemetry"
)

const emptyGUID = "00000000-0000-0000-0000-000000000000"

type tuneChannel struct {
	BroadcastStart           string      `json:"BroadcastStart"`
	BroadcastStop            string      `json:"BroadcastStop"`
	ChannelID                string      `json:"ChannelId"`
	ChannelType              ChannelType `json:"ChannelType"`
	DefaultPostRecordSeconds int         `json:"DefaultPostRecordSeconds"`
	DefaultPreRecordSeconds  int         `json:"DefaultPreRecordSeconds"`
	DisplayName              string      `json:"DisplayName"`
	GuideChannelID           string      `json:"GuideChannelId"`
	LogicalChannelNumber     *int        `json:"LogicalChannelNumber"`
	Sequence                 int         `json:"Sequence"`
	Version                  int         `json:"Version"`
	VisibleInGuide           bool        `json:"VisibleInGuide"`
}

type tuneRequest struct {
	Channel    tuneChannel     `json:"Channel"`
	LiveStream json.RawMessage `json:"LiveStream"`
}

type tuneResponse struct {
	LiveStreamResult LiveStreamResult `json:"LiveStreamResult"`
	LiveStream       json.RawMessage  `json:"LiveStream"`
}

// TuneLiveStream asks the server to start (or move) the live stream to ch.
// The current live stream, if any, is sent along so the server can re-use the
// tuner. A result other than Succeed is returned as *LiveStreamError.
func (c *Client) TuneLiveStream(ctx context.Context, ch Channel) (LiveStream, error) {
	ctx, span := telemetry.Tracer("argustv.client").Start(ctx, "argustv.tune")
	defer span.End()
	span.SetAttributes(telemetry.LiveStreamAttributes(ch.ChannelID, ch.DisplayName, "")...)

	req := tuneRequest{
		Channel: tuneChannel{
			ChannelID:      ch.ChannelID,
			ChannelType:    ch.ChannelType,
			DisplayName:    ch.DisplayName,
			GuideChannelID: emptyGUID,
			VisibleInGuide: true,
		},
	}
	if cur, ok := c.CurrentLiveStream(); ok {
		req.LiveStream = cur.Raw
	}

	var resp tuneResponse
	if err := c.call(ctx, "ArgusTV/Control/TuneLiveStream", req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return LiveStream{}, err
	}
	span.SetAttributes(telemetry.LiveResultKey.Int(int(resp.LiveStreamResult)))
	tuneResults.WithLabelValues(resp.LiveStreamResult.String()).Inc()

	if resp.LiveStreamResult != Succeed {
		err := &LiveStreamError{ChannelID: ch.ChannelID, Result: resp.LiveStreamResult}
		span.SetStatus(codes.Error, err.Error())
		return LiveStream{}, err
	}

	ls, err := decodeLiveStream(resp.LiveStream)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return LiveStream{}, err
	}
	span.SetAttributes(telemetry.LiveStreamAttributes("", "", ls.TimeshiftFile)...)
	span.SetStatus(codes.Ok, "")

	c.liveMu.Lock()
	c.liveStream = &ls
	c.liveMu.Unlock()

	c.logger.Info().
		Str(xglog.FieldEvent, "argustv.tuned").
		Str(xglog.FieldChannelID, ch.ChannelID).
		Str(xglog.FieldPath, ls.TimeshiftFile).
		Msg("live stream tuned")
	return ls, nil
}

func decodeLiveStream(raw json.RawMessage) (LiveStream, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return LiveStream{}, newAPIError(ErrUpstreamBadResponse, "ArgusTV/Control/TuneLiveStream", 0, "", fmt.Errorf("no live stream in answer"))
	}
	var ls LiveStream
	if err := json.Unmarshal(trimmed, &ls); err != nil {
		return LiveStream{}, newAPIError(ErrUpstreamBadResponse, "ArgusTV/Control/TuneLiveStream", 0, string(trimmed), err)
	}
	ls.Raw = append(json.RawMessage(nil), trimmed...)
	return ls, nil
}

// CurrentLiveStream returns the live stream of the last successful tune.
func (c *Client) CurrentLiveStream() (LiveStream, bool) {
	c.liveMu.Lock()
	defer c.liveMu.Unlock()
	if c.liveStream == nil {
		return LiveStream{}, false
	}
	return *c.liveStream, true
}

// StopLiveStream ends the current live stream. The local handle is dropped
// even when the server call fails.
func (c *Client) StopLiveStream(ctx context.Context) error {
	c.liveMu.Lock()
	cur := c.liveStream
	c.liveStream = nil
	c.liveMu.Unlock()

	if cur == nil {
		return ErrNoLiveStream
	}
	return c.call(ctx, "ArgusTV/Control/StopLiveStream", cur.Raw, nil)
}

// KeepLiveStreamAlive tells the server the current live stream is still
// being watched.
func (c *Client) KeepLiveStreamAlive(ctx context.Context) (bool, error) {
	cur, ok := c.CurrentLiveStream()
	if !ok {
		return false, ErrNoLiveStream
	}
	var alive bool
	if err := c.call(ctx, "ArgusTV/Control/KeepLiveStreamAlive", cur.Raw, &alive); err != nil {
		return false, err
	}
	return alive, nil
}

// LiveStreamTuningDetails returns signal figures of the current live stream.
func (c *Client) LiveStreamTuningDetails(ctx context.Context) (TuningDetails, error) {
	cur, ok := c.CurrentLiveStream()
	if !ok {
		return TuningDetails{}, ErrNoLiveStream
	}
	var out TuningDetails
	if err := c.call(ctx, "ArgusTV/Control/GetLiveStreamTuningDetails", cur.Raw, &out); err != nil {
		return TuningDetails{}, err
	}
	return out, nil
}

// LiveStreams lists all live streams the server is running.
func (c *Client) LiveStreams(ctx context.Context) ([]LiveStream, error) {
	var raws []json.RawMessage
	if err := c.call(ctx, "ArgusTV/Control/GetLiveStreams", nil, &raws); err != nil {
		return nil, err
	}
	out := make([]LiveStream, 0, len(raws))
	for _, raw := range raws {
		var ls LiveStream
		if err := json.Unmarshal(raw, &ls); err != nil {
			return nil, newAPIError(ErrUpstreamBadResponse, "ArgusTV/Control/GetLiveStreams", 0, "", err)
		}
		ls.Raw = raw
		out = append(out, ls)
	}
	return out, nil
}
