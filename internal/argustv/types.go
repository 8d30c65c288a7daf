// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package argustv

import (
	"encoding/json"
	"strconv"
)

// APIVersion is the REST API level this client speaks (ARGUS TV 2.2).
const APIVersion = 60

// ChannelType selects television or radio channels.
type ChannelType int

const (
	Television ChannelType = 0
	Radio      ChannelType = 1
)

func (t ChannelType) String() string {
	if t == Radio {
		return "Radio"
	}
	return "Television"
}

// LiveStreamResult is the server's answer to TuneLiveStream.
type LiveStreamResult int

const (
	Succeed           LiveStreamResult = 0
	NoFreeCardFound   LiveStreamResult = 1
	ChannelTuneFailed LiveStreamResult = 2
	NoReTunePossible  LiveStreamResult = 3
	IsScrambled       LiveStreamResult = 4
	UnknownError      LiveStreamResult = 98
	NotSupported      LiveStreamResult = 99
)

func (r LiveStreamResult) String() string {
	switch r {
	case Succeed:
		return "succeed"
	case NoFreeCardFound:
		return "no free tuner found"
	case ChannelTuneFailed:
		return "tuning failed"
	case NoReTunePossible:
		return "no re-tune possible"
	case IsScrambled:
		return "scrambled channel"
	case NotSupported:
		return "not supported"
	case UnknownError:
		return "unknown error"
	}
	return "result " + strconv.Itoa(int(r))
}

// ServiceEventGroups is a bit set for SubscribeServiceEvents.
type ServiceEventGroups int

const (
	SystemEvents    ServiceEventGroups = 0x01
	GuideEvents     ServiceEventGroups = 0x02
	ScheduleEvents  ServiceEventGroups = 0x04
	RecordingEvents ServiceEventGroups = 0x08
	AllEvents       ServiceEventGroups = 0x0F
)

// Service event names the monitor reacts to.
const (
	EventUpcomingRecordingsChanged = "UpcomingRecordingsChanged"
	EventRecordingStarted          = "RecordingStarted"
	EventRecordingEnded            = "RecordingEnded"
)

// ScheduleType values used in scheduler commands.
type ScheduleType int

const (
	ScheduleRecording ScheduleType = 82
)

type KeepUntilMode int

const (
	KeepUntilSpaceIsNeeded KeepUntilMode = iota
	KeepUntilForever
	KeepUntilNumberOfDays
	KeepUntilNumberOfEpisodes
)

type SchedulePriority int

const (
	PriorityVeryLow SchedulePriority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
	PriorityVeryHigh
)

type RecordingGroupMode int

const (
	GroupByProgramTitle RecordingGroupMode = iota
	GroupBySchedule
	GroupByCategory
	GroupByChannel
	GroupByRecordingDay
)

type VideoAspect int

const (
	AspectUnknown VideoAspect = iota
	AspectStandard
	AspectWidescreen
)

// Channel as returned by the scheduler.
type Channel struct {
	ChannelID            string      `json:"ChannelId"`
	GuideChannelID       string      `json:"GuideChannelId,omitempty"`
	DisplayName          string      `json:"DisplayName"`
	ChannelType          ChannelType `json:"ChannelType"`
	LogicalChannelNumber *int        `json:"LogicalChannelNumber"`
	ID                   int         `json:"Id,omitempty"`
	VisibleInGuide       bool        `json:"VisibleInGuide,omitempty"`
}

// ChannelGroup as returned by the scheduler.
type ChannelGroup struct {
	ChannelGroupID string      `json:"ChannelGroupId"`
	GroupName      string      `json:"GroupName"`
	ChannelType    ChannelType `json:"ChannelType"`
	Sequence       int         `json:"Sequence"`
	VisibleInGuide bool        `json:"VisibleInGuide"`
}

// GuideProgram is one EPG entry.
type GuideProgram struct {
	GuideProgramID     string      `json:"GuideProgramId"`
	GuideChannelID     string      `json:"GuideChannelId"`
	Title              string      `json:"Title"`
	SubTitle           string      `json:"SubTitle"`
	Description        string      `json:"Description"`
	Category           string      `json:"Category"`
	Rating             string      `json:"Rating"`
	StarRating         float64     `json:"StarRating"`
	StartTime          WCFTime     `json:"StartTime"`
	StopTime           WCFTime     `json:"StopTime"`
	LastModifiedTime   WCFTime     `json:"LastModifiedTime"`
	SeriesNumber       *int        `json:"SeriesNumber"`
	EpisodeNumber      *int        `json:"EpisodeNumber"`
	EpisodeNumberTotal *int        `json:"EpisodeNumberTotal"`
	EpisodePart        *int        `json:"EpisodePart"`
	EpisodePartTotal   *int        `json:"EpisodePartTotal"`
	IsChanged          bool        `json:"IsChanged"`
	IsDeleted          bool        `json:"IsDeleted"`
	IsPremiere         bool        `json:"IsPremiere"`
	IsRepeat           bool        `json:"IsRepeat"`
	VideoAspect        VideoAspect `json:"VideoAspect"`
}

// RecordingGroup summarises the recordings sharing a program title.
type RecordingGroup struct {
	ProgramTitle           string             `json:"ProgramTitle"`
	Category               string             `json:"Category"`
	ChannelDisplayName     string             `json:"ChannelDisplayName"`
	ChannelID              string             `json:"ChannelId"`
	ChannelType            ChannelType        `json:"ChannelType"`
	IsRecording            bool               `json:"IsRecording"`
	LatestProgramStartTime WCFTime            `json:"LatestProgramStartTime"`
	RecordingGroupMode     RecordingGroupMode `json:"RecordingGroupMode"`
	RecordingsCount        int                `json:"RecordingsCount"`
	ScheduleID             string             `json:"ScheduleId"`
	ScheduleName           string             `json:"ScheduleName"`
	SchedulePriority       SchedulePriority   `json:"SchedulePriority"`
}

// Recording is a finished or in-progress recording.
type Recording struct {
	ID                    int              `json:"Id"`
	RecordingID           string           `json:"RecordingId"`
	RecordingFileName     string           `json:"RecordingFileName"`
	RecordingFileFormatID *string          `json:"RecordingFileFormatId"`
	Title                 string           `json:"Title"`
	SubTitle              string           `json:"SubTitle"`
	Description           string           `json:"Description"`
	Category              string           `json:"Category"`
	Actors                []string         `json:"Actors"`
	Director              string           `json:"Director"`
	Rating                string           `json:"Rating"`
	StarRating            float64          `json:"StarRating"`
	ChannelDisplayName    string           `json:"ChannelDisplayName"`
	ChannelID             string           `json:"ChannelId"`
	ChannelType           ChannelType      `json:"ChannelType"`
	ScheduleID            string           `json:"ScheduleId"`
	ScheduleName          string           `json:"ScheduleName"`
	SchedulePriority      SchedulePriority `json:"SchedulePriority"`
	ProgramStartTime      WCFTime          `json:"ProgramStartTime"`
	ProgramStopTime       WCFTime          `json:"ProgramStopTime"`
	RecordingStartTime    WCFTime          `json:"RecordingStartTime"`
	RecordingStopTime     *WCFTime         `json:"RecordingStopTime"`
	LastWatchedTime       *WCFTime         `json:"LastWatchedTime"`
	LastWatchedPosition   *int             `json:"LastWatchedPosition"`
	FullyWatchedCount     int              `json:"FullyWatchedCount"`
	IsFullyWatched        bool             `json:"IsFullyWatched"`
	IsPartOfSeries        bool             `json:"IsPartOfSeries"`
	IsPartialRecording    bool             `json:"IsPartialRecording"`
	IsPremiere            bool             `json:"IsPremiere"`
	IsRepeat              bool             `json:"IsRepeat"`
	KeepUntilMode         KeepUntilMode    `json:"KeepUntilMode"`
	KeepUntilValue        *int             `json:"KeepUntilValue"`
	SeriesNumber          *int             `json:"SeriesNumber"`
	EpisodeNumber         *int             `json:"EpisodeNumber"`
	EpisodeNumberDisplay  string           `json:"EpisodeNumberDisplay"`
	EpisodeNumberTotal    *int             `json:"EpisodeNumberTotal"`
	EpisodePart           *int             `json:"EpisodePart"`
	EpisodePartTotal      *int             `json:"EpisodePartTotal"`
}

// UpcomingProgram is the program part of an upcoming recording.
type UpcomingProgram struct {
	ID                int      `json:"Id"`
	UpcomingProgramID string   `json:"UpcomingProgramId"`
	GuideProgramID    *string  `json:"GuideProgramId"`
	ScheduleID        string   `json:"ScheduleId"`
	Title             string   `json:"Title"`
	StartTime         WCFTime  `json:"StartTime"`
	StopTime          WCFTime  `json:"StopTime"`
	PreRecordSeconds  int      `json:"PreRecordSeconds"`
	PostRecordSeconds int      `json:"PostRecordSeconds"`
	IsCancelled       bool     `json:"IsCancelled"`
	Channel           *Channel `json:"Channel"`
}

// CardChannelAllocation names the tuner card assigned to an upcoming recording.
type CardChannelAllocation struct {
	CardID    string `json:"CardId"`
	ChannelID string `json:"ChannelId"`
}

// UpcomingRecording is a scheduled recording in the next days.
type UpcomingRecording struct {
	Program               UpcomingProgram        `json:"Program"`
	CardChannelAllocation *CardChannelAllocation `json:"CardChannelAllocation"`
	ConflictingPrograms   []string               `json:"ConflictingPrograms"`
}

// ActiveRecording is an upcoming recording that is currently being recorded.
type ActiveRecording struct {
	Program            UpcomingProgram `json:"Program"`
	RecordingFileName  string          `json:"RecordingFileName"`
	RecordingStartTime WCFTime         `json:"RecordingStartTime"`
	RecordingStopTime  *WCFTime        `json:"RecordingStopTime"`
}

// LiveStream is the server's handle for a tuned channel. Raw keeps the
// exact server object so it can be posted back unchanged.
type LiveStream struct {
	TimeshiftFile       string   `json:"TimeshiftFile"`
	RtspURL             string   `json:"RtspUrl"`
	RecorderTunerID     string   `json:"RecorderTunerId"`
	CardID              string   `json:"CardId"`
	StreamStartedTime   *WCFTime `json:"StreamStartedTime"`
	StreamLastAliveTime *WCFTime `json:"StreamLastAliveTime"`
	Channel             *Channel `json:"Channel"`

	Raw json.RawMessage `json:"-"`
}

// TuningDetails carries the signal figures of a live stream.
type TuningDetails struct {
	CardID         string `json:"CardId"`
	SignalQuality  int    `json:"SignalQuality"`
	SignalStrength int    `json:"SignalStrength"`
	IsScrambled    bool   `json:"IsScrambled"`
}

// DisksInfo reports recording disk usage.
type DisksInfo struct {
	TotalSizeBytes float64 `json:"TotalSizeBytes"`
	FreeSpaceBytes float64 `json:"FreeSpaceBytes"`
}

// ServiceEvent is one notification from the event monitor queue.
type ServiceEvent struct {
	Name      string            `json:"Name"`
	Arguments []json.RawMessage `json:"Arguments,omitempty"`
	Time      *WCFTime          `json:"Time,omitempty"`
}

// ServiceEvents is the answer of GetServiceEvents.
type ServiceEvents struct {
	Expired bool           `json:"Expired"`
	Events  []ServiceEvent `json:"Events"`
}
