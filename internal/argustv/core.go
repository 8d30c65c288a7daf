// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package argustv

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Ping asks the server whether it speaks apiVersion: 0 means compatible,
// -1 the client is too old and +1 the client is newer than the server.
func (c *Client) Ping(ctx context.Context, apiVersion int) (int, error) {
	var rc int
	if err := c.call(ctx, "ArgusTV/Core/Ping/"+strconv.Itoa(apiVersion), nil, &rc); err != nil {
		return 0, err
	}
	return rc, nil
}

// Version returns the server's display version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v string
	if err := c.call(ctx, "ArgusTV/Core/Version", nil, &v); err != nil {
		return "", err
	}
	return v, nil
}

// RecordingDisksInfo returns the total and free space of the recording disks.
func (c *Client) RecordingDisksInfo(ctx context.Context) (DisksInfo, error) {
	var info DisksInfo
	if err := c.call(ctx, "ArgusTV/Control/GetRecordingDisksInfo", nil, &info); err != nil {
		return DisksInfo{}, err
	}
	return info, nil
}

// SubscribeServiceEvents registers an event monitor for groups and returns
// its id.
func (c *Client) SubscribeServiceEvents(ctx context.Context, groups ServiceEventGroups) (string, error) {
	var id string
	if err := c.call(ctx, fmt.Sprintf("ArgusTV/Core/SubscribeServiceEvents/%d", groups), nil, &id); err != nil {
		return "", err
	}
	if id == "" {
		return "", newAPIError(ErrUpstreamBadResponse, "ArgusTV/Core/SubscribeServiceEvents", 0, "", fmt.Errorf("empty monitor id"))
	}
	return id, nil
}

// UnsubscribeServiceEvents drops the monitor.
func (c *Client) UnsubscribeServiceEvents(ctx context.Context, monitorID string) error {
	return c.call(ctx, "ArgusTV/Core/UnsubscribeServiceEvents/"+url.PathEscape(monitorID), nil, nil)
}

// ServiceEvents fetches the events queued for the monitor since the last
// call. Expired means the server forgot the subscription.
func (c *Client) ServiceEvents(ctx context.Context, monitorID string) (ServiceEvents, error) {
	var ev ServiceEvents
	if err := c.call(ctx, "ArgusTV/Core/GetServiceEvents/"+url.PathEscape(monitorID), nil, &ev); err != nil {
		return ServiceEvents{}, err
	}
	return ev, nil
}
