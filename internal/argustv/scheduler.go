// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package argustv

import (
	"context"
	"net/url"
	"time"
)

const guideTimeLayout = "2006-01-02T15:04:05"

// Channels lists all channels of the given type, including hidden ones.
func (c *Client) Channels(ctx context.Context, channelType ChannelType) ([]Channel, error) {
	var out []Channel
	if err := c.call(ctx, "ArgusTV/Scheduler/Channels/"+channelType.String()+"?visibleOnly=false", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChannelGroups lists all channel groups of the given type.
func (c *Client) ChannelGroups(ctx context.Context, channelType ChannelType) ([]ChannelGroup, error) {
	var out []ChannelGroup
	if err := c.call(ctx, "ArgusTV/Scheduler/ChannelGroups/"+channelType.String()+"?visibleOnly=false", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChannelsInGroup lists the members of a channel group.
func (c *Client) ChannelsInGroup(ctx context.Context, groupID string) ([]Channel, error) {
	var out []Channel
	if err := c.call(ctx, "ArgusTV/Scheduler/ChannelsInGroup/"+url.PathEscape(groupID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GuidePrograms returns the EPG of a guide channel between from and to. The
// bounds are sent as wall-clock times of their own location.
func (c *Client) GuidePrograms(ctx context.Context, guideChannelID string, from, to time.Time) ([]GuideProgram, error) {
	command := "ArgusTV/Guide/FullPrograms/" + url.PathEscape(guideChannelID) + "/" +
		from.Format(guideTimeLayout) + "/" + to.Format(guideTimeLayout) + "/false"
	var out []GuideProgram
	if err := c.call(ctx, command, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSchedule removes a schedule and its upcoming recordings.
func (c *Client) DeleteSchedule(ctx context.Context, scheduleID string) error {
	return c.call(ctx, "ArgusTV/Scheduler/DeleteSchedule/"+url.PathEscape(scheduleID), nil, nil)
}
