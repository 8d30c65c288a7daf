// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"
	FieldChannelID = "channel_id"
	FieldMonitorID = "monitor_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldAttempt   = "attempt"

	// Timeshift buffer fields
	FieldPath          = "path"
	FieldSegment       = "segment"
	FieldStartPosition = "start_position"
	FieldEndPosition   = "end_position"
	FieldReadPosition  = "read_position"
	FieldFilesAdded    = "files_added"
	FieldFilesRemoved  = "files_removed"

	// Network fields
	FieldBaseURL  = "base_url"
	FieldCommand  = "command"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
)
