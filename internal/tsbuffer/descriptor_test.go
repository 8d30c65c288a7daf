package tsbuffer

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	data := descriptorBytes(t, 4096, 3, 1, `C:\Timeshift\live1-0.ts.tsbuffer1.ts`, `C:\Timeshift\live1-0.ts.tsbuffer2.ts`)

	snap, err := ParseDescriptor(data)
	require.NoError(t, err)

	want := Snapshot{
		WritePosition: 4096,
		FilesAdded:    3,
		FilesRemoved:  1,
		FileNames:     []string{`C:\Timeshift\live1-0.ts.tsbuffer1.ts`, `C:\Timeshift\live1-0.ts.tsbuffer2.ts`},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDescriptor_NonASCIINames(t *testing.T) {
	data := descriptorBytes(t, 1, 1, 0, `\\server\share\Fernsehen Österreich.ts`)

	snap, err := ParseDescriptor(data)
	require.NoError(t, err)
	assert.Equal(t, []string{`\\server\share\Fernsehen Österreich.ts`}, snap.FileNames)
}

func TestParseDescriptor_TornWrite(t *testing.T) {
	tests := []struct {
		name             string
		added2, removed2 int32
	}{
		{"added differs", 4, 1},
		{"removed differs", 3, 0},
		{"both differ", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := descriptorWithFooter(t, 10, 3, 1, tt.added2, tt.removed2, "a.ts")
			_, err := ParseDescriptor(data)
			require.ErrorIs(t, err, ErrTornWrite)
		})
	}
}

func TestParseDescriptor_Malformed(t *testing.T) {
	t.Run("shorter than header", func(t *testing.T) {
		_, err := ParseDescriptor(make([]byte, 10))
		require.ErrorIs(t, err, ErrMalformedDescriptor)
	})

	t.Run("header without footer", func(t *testing.T) {
		_, err := ParseDescriptor(make([]byte, headerSize+4))
		require.ErrorIs(t, err, ErrMalformedDescriptor)
	})

	t.Run("odd file list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int64(0)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(1)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(0)))
		buf.Write([]byte{'a', 0, 0})
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(1)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(0)))

		_, err := ParseDescriptor(buf.Bytes())
		require.ErrorIs(t, err, ErrMalformedDescriptor)
	})

	t.Run("file list above ceiling", func(t *testing.T) {
		data := make([]byte, headerSize+MaxFileListBytes+2+footerSize)
		_, err := ParseDescriptor(data)
		require.ErrorIs(t, err, ErrMalformedDescriptor)
	})
}

func TestDecodeFileNames(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
		want []string
	}{
		{"empty", nil, nil},
		{"only terminator", []byte{0, 0}, nil},
		{"unterminated tail", []byte{'a', 0, 'b', 0}, []string{"ab"}},
		{"stops at empty string", []byte{'a', 0, 0, 0, 0, 0, 'b', 0, 0, 0}, []string{"a"}},
		{"two names", []byte{'a', 0, 0, 0, 'b', 0, 0, 0, 0, 0}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeFileNames(tt.blob)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmentPath(t *testing.T) {
	dir := filepath.Join("/", "mnt", "timeshift")
	desc := filepath.Join(dir, "live3-0.ts.tsbuffer")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"windows path", `C:\Timeshift\live3-0.ts.tsbuffer1.ts`, filepath.Join(dir, "live3-0.ts.tsbuffer1.ts")},
		{"unc path", `\\argus\timeshift\live3-0.ts.tsbuffer2.ts`, filepath.Join(dir, "live3-0.ts.tsbuffer2.ts")},
		{"posix path", "/var/ts/live3-0.ts.tsbuffer3.ts", filepath.Join(dir, "live3-0.ts.tsbuffer3.ts")},
		{"bare name", "live3-0.ts.tsbuffer4.ts", filepath.Join(dir, "live3-0.ts.tsbuffer4.ts")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentPath(desc, tt.in))
		})
	}
}
