// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tsbuffer

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	headerSize = 8 + 4 + 4
	footerSize = 4 + 4
	// minDescriptorSize is a header, one UTF-16 code unit and a footer.
	minDescriptorSize = headerSize + 2 + footerSize
)

// Snapshot is one validated reading of the descriptor file.
type Snapshot struct {
	WritePosition int64
	FilesAdded    int32
	FilesRemoved  int32
	FileNames     []string
}

type header struct {
	writePosition int64
	filesAdded    int32
	filesRemoved  int32
}

func parseHeader(data []byte) (header, error) {
	if len(data) < headerSize {
		return header{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformedDescriptor, len(data))
	}
	return header{
		writePosition: int64(binary.LittleEndian.Uint64(data[0:8])),
		filesAdded:    int32(binary.LittleEndian.Uint32(data[8:12])),
		filesRemoved:  int32(binary.LittleEndian.Uint32(data[12:16])),
	}, nil
}

// ParseDescriptor decodes the full content of a descriptor file.
// It fails with ErrMalformedDescriptor on impossible sizes and with
// ErrTornWrite when the header and footer counters disagree.
func ParseDescriptor(data []byte) (Snapshot, error) {
	return parseDescriptor(data, MaxFileListBytes)
}

func parseDescriptor(data []byte, maxListBytes int64) (Snapshot, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return Snapshot{}, err
	}

	remaining := int64(len(data)) - headerSize - footerSize
	if remaining < 0 {
		return Snapshot{}, fmt.Errorf("%w: file list length %d is negative", ErrMalformedDescriptor, remaining)
	}
	if remaining > maxListBytes {
		return Snapshot{}, fmt.Errorf("%w: file list length %d exceeds %d bytes", ErrMalformedDescriptor, remaining, maxListBytes)
	}

	blob := data[headerSize : headerSize+remaining]
	footer := data[headerSize+remaining:]
	added2 := int32(binary.LittleEndian.Uint32(footer[0:4]))
	removed2 := int32(binary.LittleEndian.Uint32(footer[4:8]))

	if added2 != hdr.filesAdded || removed2 != hdr.filesRemoved {
		return Snapshot{}, fmt.Errorf("%w: header counters %d/%d, footer counters %d/%d",
			ErrTornWrite, hdr.filesAdded, hdr.filesRemoved, added2, removed2)
	}

	names, err := decodeFileNames(blob)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		WritePosition: hdr.writePosition,
		FilesAdded:    hdr.filesAdded,
		FilesRemoved:  hdr.filesRemoved,
		FileNames:     names,
	}, nil
}

// decodeFileNames splits a run of NUL-terminated UTF-16LE strings. An empty
// string or the end of the blob terminates the list.
func decodeFileNames(blob []byte) ([]string, error) {
	if len(blob)%2 != 0 {
		return nil, fmt.Errorf("%w: file list length %d is not a whole number of UTF-16 code units", ErrMalformedDescriptor, len(blob))
	}

	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	var names []string
	start := 0
	for i := 0; i <= len(blob); i += 2 {
		atEnd := i == len(blob)
		if !atEnd && (blob[i] != 0 || blob[i+1] != 0) {
			continue
		}
		if i == start {
			break
		}
		name, err := dec.Bytes(blob[start:i])
		if err != nil {
			return nil, fmt.Errorf("%w: decode file name: %v", ErrMalformedDescriptor, err)
		}
		names = append(names, string(name))
		start = i + 2
	}
	return names, nil
}

// SegmentPath keeps only the base name of a recorder-side file name and places
// it next to the descriptor. Both Windows and POSIX separators are stripped.
func SegmentPath(descriptorPath, name string) string {
	base := name
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		base = name[i+1:]
	}
	if base == "" {
		return name
	}
	return filepath.Join(filepath.Dir(descriptorPath), base)
}
