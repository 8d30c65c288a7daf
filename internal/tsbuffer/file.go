// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tsbuffer

import (
	"io"

	"github.com/avfs/avfs"
)

// segmentFile is the single open handle a Stream holds on one segment.
type segmentFile struct {
	name string
	id   int64
	f    avfs.File
	pos  int64
}

func openSegment(vfs avfs.VFS, seg Segment) (*segmentFile, error) {
	f, err := vfs.Open(seg.Filename)
	if err != nil {
		return nil, newError(ErrSegmentUnreachable, "open", seg.Filename, err)
	}
	return &segmentFile{name: seg.Filename, id: seg.PositionID, f: f}, nil
}

func (sf *segmentFile) matches(seg Segment) bool {
	return sf != nil && sf.id == seg.PositionID && sf.name == seg.Filename
}

func (sf *segmentFile) seek(offset int64) error {
	if sf.pos == offset {
		return nil
	}
	pos, err := sf.f.Seek(offset, io.SeekStart)
	if err != nil {
		return newError(ErrSegmentUnreachable, "seek", sf.name, err)
	}
	sf.pos = pos
	return nil
}

// read fills p from the current position. A short count with io.EOF or
// io.ErrUnexpectedEOF means the recorder has not flushed those bytes yet.
func (sf *segmentFile) read(p []byte) (int, error) {
	n, err := io.ReadFull(sf.f, p)
	sf.pos += int64(n)
	return n, err
}

func (sf *segmentFile) length() (int64, error) {
	info, err := sf.f.Stat()
	if err != nil {
		return 0, newError(ErrSegmentUnreachable, "stat", sf.name, err)
	}
	return info.Size(), nil
}

func (sf *segmentFile) close() error {
	if sf == nil || sf.f == nil {
		return nil
	}
	err := sf.f.Close()
	sf.f = nil
	return err
}

// fileLength stats a path on the virtual filesystem.
func fileLength(vfs avfs.VFS) statFunc {
	return func(path string) (int64, error) {
		info, err := vfs.Stat(path)
		if err != nil {
			return 0, err
		}
		return info.Size(), nil
	}
}
