// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package tsbuffer reads an ARGUS TV timeshift buffer: a growing logical byte
// stream stored as a rolling set of segment files, described by a small
// ".tsbuffer" control file that the recorder rewrites while we read it.
//
// Control file layout (little-endian):
//
//	int64  writePosition   bytes written to the last segment
//	int32  filesAdded      monotonic counter
//	int32  filesRemoved    monotonic counter
//	[]u16  file names      NUL-terminated UTF-16LE strings, oldest first
//	int32  filesAdded      repeated
//	int32  filesRemoved    repeated
//
// A snapshot is only trusted when both counter pairs agree. Anything else is a
// torn write and the descriptor is re-opened and re-read a bounded number of
// times.
//
// Writer precondition: the recorder only ever removes segments from the front
// of the list. The reader derives removals from the filesRemoved delta and
// drops that many segments from the front; it does not match file names, so a
// writer that removed a middle segment would silently shift boundaries.
package tsbuffer
