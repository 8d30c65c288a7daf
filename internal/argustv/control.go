// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package argustv

import (
	"context"
	"errors"
	"net/url"
)

// RecordingGroups lists television recordings grouped by program title.
func (c *Client) RecordingGroups(ctx context.Context) ([]RecordingGroup, error) {
	var out []RecordingGroup
	if err := c.call(ctx, "ArgusTV/Control/RecordingGroups/Television/GroupByProgramTitle", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type recordingFilter struct {
	ScheduleID   *string `json:"ScheduleId"`
	ProgramTitle string  `json:"ProgramTitle"`
	Category     *string `json:"Category"`
	ChannelID    *string `json:"ChannelId"`
}

// RecordingsForTitle returns the existing recordings of one program title.
func (c *Client) RecordingsForTitle(ctx context.Context, title string) ([]Recording, error) {
	var out []Recording
	args := recordingFilter{ProgramTitle: title}
	if err := c.call(ctx, "ArgusTV/Control/GetFullRecordings/Television?includeNonExisting=false", args, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordingByID fetches a single recording.
func (c *Client) RecordingByID(ctx context.Context, id string) (Recording, error) {
	var out Recording
	if err := c.call(ctx, "ArgusTV/Control/RecordingById/"+url.PathEscape(id), nil, &out); err != nil {
		return Recording{}, err
	}
	return out, nil
}

// DeleteRecording deletes a recording and its file. The server expects the
// file name as the raw request body.
func (c *Client) DeleteRecording(ctx context.Context, fileName string) error {
	return c.call(ctx, "ArgusTV/Control/DeleteRecording?deleteRecordingFile=true", plainBody(fileName), nil)
}

// UpcomingRecordings returns the recordings scheduled for the next seven
// days, including the active ones.
func (c *Client) UpcomingRecordings(ctx context.Context) ([]UpcomingRecording, error) {
	var out []UpcomingRecording
	if err := c.call(ctx, "ArgusTV/Control/UpcomingRecordings/7?includeActive=true", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveRecordings returns the recordings in progress.
func (c *Client) ActiveRecordings(ctx context.Context) ([]ActiveRecording, error) {
	var out []ActiveRecording
	if err := c.call(ctx, "ArgusTV/Control/ActiveRecordings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordingLastWatchedPosition returns the resume point of a recording in
// seconds. A recording never watched reports zero.
func (c *Client) RecordingLastWatchedPosition(ctx context.Context, fileName string) (int, error) {
	var out *int
	err := c.call(ctx, "ArgusTV/Control/RecordingLastWatchedPosition", fileName, &out)
	if errors.Is(err, ErrEmptyResponse) || (err == nil && out == nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return *out, nil
}

type lastWatchedArgs struct {
	LastWatchedPositionSeconds int    `json:"LastWatchedPositionSeconds"`
	RecordingFileName          string `json:"RecordingFileName"`
}

// SetRecordingLastWatchedPosition stores the resume point of a recording.
func (c *Client) SetRecordingLastWatchedPosition(ctx context.Context, fileName string, seconds int) error {
	args := lastWatchedArgs{LastWatchedPositionSeconds: seconds, RecordingFileName: fileName}
	return c.call(ctx, "ArgusTV/Control/SetRecordingLastWatchedPosition", args, nil)
}

type fullyWatchedArgs struct {
	RecordingFileName string `json:"RecordingFileName"`
	FullyWatchedCount int    `json:"FullyWatchedCount"`
}

// SetRecordingFullyWatchedCount stores how often a recording was watched to
// the end.
func (c *Client) SetRecordingFullyWatchedCount(ctx context.Context, fileName string, count int) error {
	args := fullyWatchedArgs{RecordingFileName: fileName, FullyWatchedCount: count}
	return c.call(ctx, "ArgusTV/Control/SetRecordingFullyWatchedCount", args, nil)
}
