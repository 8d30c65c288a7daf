// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tsbuffer

// Segment is one physical file backing a contiguous slice of the logical stream.
type Segment struct {
	Filename      string
	StartPosition int64
	Length        int64
	// PositionID is the segment's absolute index in the recorder's history.
	// It only grows, so it identifies the open segment across refreshes.
	PositionID int64
}

// End returns the logical offset just past the segment.
func (s Segment) End() int64 {
	return s.StartPosition + s.Length
}

type segmentTable []Segment

// find returns the index of the segment holding pos.
func (t segmentTable) find(pos int64) (int, bool) {
	for i := range t {
		if pos >= t[i].StartPosition && pos < t[i].End() {
			return i, true
		}
	}
	return 0, false
}

// statFunc reports the current on-disk length of a segment file.
type statFunc func(path string) (int64, error)

// reconcileResult is the outcome of applying a snapshot to a table.
type reconcileResult struct {
	table   segmentTable
	removed int
	added   int
	// missing is set when the snapshot lists fewer files than the table retains.
	missing bool
	// reset is set when the counters went backwards and the table was rebuilt.
	reset bool
}

// reconcile applies a snapshot whose counters differ from (prevAdded, prevRemoved).
// Paths in snap.FileNames must already be resolved. prev is not modified.
//
// Removed segments are dropped from the front. Before appending, the former
// tail is re-stat'ed because it was still growing when last observed. New
// segments start where the previous tail ends. On stat failure nothing is
// committed, so the next refresh retries the whole delta.
func reconcile(prev segmentTable, prevAdded, prevRemoved int32, snap Snapshot, stat statFunc) (reconcileResult, error) {
	var res reconcileResult

	next := make(segmentTable, len(prev))
	copy(next, prev)

	var nextStart int64
	if snap.FilesAdded < prevAdded || snap.FilesRemoved < prevRemoved {
		// The recorder restarted its counters. Continue the logical stream after
		// the old end so positions handed out earlier stay meaningful.
		if len(next) > 0 {
			nextStart = next[len(next)-1].End()
		}
		res.reset = true
		res.removed = len(next)
		next = next[:0]
	} else {
		toRemove := int(snap.FilesRemoved - prevRemoved)
		if toRemove > len(next) {
			toRemove = len(next)
		}
		next = next[toRemove:]
		res.removed = toRemove

		if len(next) > 0 {
			last := &next[len(next)-1]
			if snap.FilesAdded > prevAdded {
				n, err := stat(last.Filename)
				if err != nil {
					return res, newError(ErrSegmentUnreachable, "stat", last.Filename, err)
				}
				last.Length = n
			}
			nextStart = last.End()
		}
	}

	if len(snap.FileNames) < len(next) {
		res.missing = true
	}

	id := int64(snap.FilesRemoved)
	for i, name := range snap.FileNames {
		id++
		if i < len(next) {
			continue
		}
		n, err := stat(name)
		if err != nil {
			return res, newError(ErrSegmentUnreachable, "stat", name, err)
		}
		next = append(next, Segment{
			Filename:      name,
			StartPosition: nextStart,
			Length:        n,
			PositionID:    id,
		})
		nextStart += n
		res.added++
	}

	res.table = next
	return res, nil
}
