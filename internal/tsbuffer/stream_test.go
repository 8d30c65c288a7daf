package tsbuffer

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	seg1 = "live1-0.ts.tsbuffer1.ts"
	seg2 = "live1-0.ts.tsbuffer2.ts"
	seg3 = "live1-0.ts.tsbuffer3.ts"
)

func recorderName(name string) string {
	return `C:\ProgramData\ARGUS TV\Timeshift\` + name
}

func newOpenStream(t *testing.T) (*Stream, *countingFS) {
	t.Helper()
	vfs := newTestFS(t)
	writeSegment(t, vfs, seg1, 0xAA, 100)
	writeSegment(t, vfs, seg2, 0xBB, 50)
	writeFile(t, vfs, testDescriptor, descriptorBytes(t, 50, 2, 0, recorderName(seg1), recorderName(seg2)))

	cfs := &countingFS{VFS: vfs, path: testDescriptor}
	s := New(cfs, testDescriptor, testOptions())
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s, cfs
}

func TestStream_ReadAcrossSegmentBoundary(t *testing.T) {
	s, _ := newOpenStream(t)

	pos, err := s.Seek(90, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(90), pos)

	buf := make([]byte, 30)
	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 30, n)

	want := append(bytes.Repeat([]byte{0xAA}, 10), bytes.Repeat([]byte{0xBB}, 20)...)
	assert.Equal(t, want, buf)
	assert.Equal(t, int64(120), s.Tell())
}

func TestStream_StitchedReadEqualsSeparateReads(t *testing.T) {
	s, _ := newOpenStream(t)

	_, err := s.Seek(80, io.SeekStart)
	require.NoError(t, err)
	whole := make([]byte, 40)
	n, err := s.Read(whole)
	require.NoError(t, err)
	require.Equal(t, 40, n)

	_, err = s.Seek(80, io.SeekStart)
	require.NoError(t, err)
	left := make([]byte, 20)
	_, err = s.Read(left)
	require.NoError(t, err)
	right := make([]byte, 20)
	_, err = s.Read(right)
	require.NoError(t, err)

	assert.Equal(t, whole, append(left, right...))
}

func TestStream_ReadAtLiveEdgeReturnsNothing(t *testing.T) {
	s, _ := newOpenStream(t)

	_, err := s.Seek(0, io.SeekEnd)
	require.NoError(t, err)

	n, err := s.Read(make([]byte, 16))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStream_ShortReadAtEnd(t *testing.T) {
	s, _ := newOpenStream(t)

	_, err := s.Seek(140, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, bytes.Repeat([]byte{0xBB}, 10), buf[:n])
}

func TestStream_SizeTracksGrowthAndTailRestat(t *testing.T) {
	vfs := newTestFS(t)
	writeSegment(t, vfs, seg1, 0x01, 1000)
	writeSegment(t, vfs, seg2, 0x02, 500)
	writeFile(t, vfs, testDescriptor, descriptorBytes(t, 500, 2, 0, recorderName(seg1), recorderName(seg2)))

	s := New(vfs, testDescriptor, testOptions())
	require.NoError(t, s.Open(context.Background()))
	defer s.Close()

	assert.Equal(t, int64(1500), s.Size())

	// The second file kept growing before the recorder switched to a third.
	appendSegment(t, vfs, seg2, 0x02, 200)
	writeSegment(t, vfs, seg3, 0x03, 100)
	writeFile(t, vfs, testDescriptor, descriptorBytes(t, 0, 3, 0, recorderName(seg1), recorderName(seg2), recorderName(seg3)))

	assert.Equal(t, int64(1700), s.Size())
	segs := s.Segments()
	require.Len(t, segs, 3)
	assert.Equal(t, int64(700), segs[1].Length)
	assert.Equal(t, int64(1700), segs[2].StartPosition)

	writeFile(t, vfs, testDescriptor, descriptorBytes(t, 100, 3, 0, recorderName(seg1), recorderName(seg2), recorderName(seg3)))
	assert.Equal(t, int64(1800), s.Size())

	_, err := s.Seek(1690, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 20)
	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 20, n)
	assert.Equal(t, append(bytes.Repeat([]byte{0x02}, 10), bytes.Repeat([]byte{0x03}, 10)...), buf)
}

func TestStream_EndPositionNeverDecreases(t *testing.T) {
	s, _ := newOpenStream(t)
	before := s.Size()

	writeFile(t, s.vfs, testDescriptor, descriptorBytes(t, 20, 2, 0, recorderName(seg1), recorderName(seg2)))

	assert.Equal(t, before, s.Size())
	end, err := s.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(150), end)
}

func TestStream_PruningAdvancesStalledCursor(t *testing.T) {
	s, _ := newOpenStream(t)

	n, err := s.Read(make([]byte, 10))
	require.NoError(t, err)
	require.Equal(t, 10, n)

	writeSegment(t, s.vfs, seg3, 0xCC, 30)
	writeFile(t, s.vfs, testDescriptor, descriptorBytes(t, 30, 3, 1, recorderName(seg2), recorderName(seg3)))

	buf := make([]byte, 5)
	n, err = s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	assert.Equal(t, bytes.Repeat([]byte{0xBB}, 5), buf)
	assert.Equal(t, int64(105), s.Tell())
	assert.Equal(t, int64(80), s.Size())

	segs := s.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, int64(2), segs[0].PositionID)
	assert.Equal(t, int64(3), segs[1].PositionID)
}

func TestStream_SeekClampsToValidRange(t *testing.T) {
	s, _ := newOpenStream(t)

	pos, err := s.Seek(-10, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	pos, err = s.Seek(1000, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(150), pos)

	pos, err = s.Seek(-50, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(100), pos)

	_, err = s.Seek(0, 42)
	require.Error(t, err)
	assert.Equal(t, int64(100), s.Tell())
}

func TestStream_ZapRaisesFloor(t *testing.T) {
	s, _ := newOpenStream(t)

	require.NoError(t, s.Zap())
	assert.Equal(t, int64(150), s.Tell())
	assert.Zero(t, s.Size())

	pos, err := s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(150), pos)

	appendSegment(t, s.vfs, seg2, 0xDD, 25)
	writeFile(t, s.vfs, testDescriptor, descriptorBytes(t, 75, 2, 0, recorderName(seg1), recorderName(seg2)))

	assert.Equal(t, int64(25), s.Size())
	pos, err = s.Seek(-100, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(150), pos)

	buf := make([]byte, 25)
	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 25, n)
	assert.Equal(t, bytes.Repeat([]byte{0xDD}, 25), buf)
}

func TestStream_TornDescriptorIsRejected(t *testing.T) {
	s, cfs := newOpenStream(t)
	before := s.Segments()
	cfs.opens = 0

	writeSegment(t, s.vfs, seg3, 0xCC, 10)
	torn := descriptorWithFooter(t, 10, 3, 0, 2, 0, recorderName(seg1), recorderName(seg2), recorderName(seg3))
	writeFile(t, s.vfs, testDescriptor, torn)

	n, err := s.Read(make([]byte, 10))
	require.ErrorIs(t, err, ErrTornWrite)
	assert.Zero(t, n)
	assert.Equal(t, s.opts.MaxDescriptorRetries, cfs.opens)
	assert.Equal(t, before, s.Segments())

	// The writer finishes its update.
	writeFile(t, s.vfs, testDescriptor, descriptorBytes(t, 10, 3, 0, recorderName(seg1), recorderName(seg2), recorderName(seg3)))
	n, err = s.Read(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Len(t, s.Segments(), 3)
}

func TestStream_RecoversAfterDescriptorReopenFails(t *testing.T) {
	s, cfs := newOpenStream(t)
	n, err := s.Read(make([]byte, 10))
	require.NoError(t, err)
	require.Equal(t, 10, n)

	// A torn write forces a reopen while the share is down.
	writeSegment(t, s.vfs, seg3, 0xCC, 10)
	writeFile(t, s.vfs, testDescriptor, descriptorWithFooter(t, 10, 3, 0, 2, 0, recorderName(seg1), recorderName(seg2), recorderName(seg3)))
	cfs.unreachable = true

	n, err = s.Read(make([]byte, 10))
	require.ErrorIs(t, err, ErrTornWrite)
	assert.NotErrorIs(t, err, ErrClosed)
	assert.Zero(t, n)
	assert.Equal(t, int64(150), s.Size(), "last known state is kept during the outage")
	pos, err := s.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(10), pos)

	// The share is back and the writer finished its update.
	cfs.unreachable = false
	writeFile(t, s.vfs, testDescriptor, descriptorBytes(t, 10, 3, 0, recorderName(seg1), recorderName(seg2), recorderName(seg3)))

	buf := make([]byte, 10)
	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, bytes.Repeat([]byte{0xAA}, 10), buf)
	assert.Equal(t, int64(160), s.Size())
	assert.Len(t, s.Segments(), 3)
}

func TestStream_CounterResetStartsFreshSegment(t *testing.T) {
	s, _ := newOpenStream(t)

	n, err := s.Read(make([]byte, 10))
	require.NoError(t, err)
	require.Equal(t, 10, n)

	// The recorder restarted and reuses the first file name.
	writeSegment(t, s.vfs, seg1, 0xEE, 40)
	writeFile(t, s.vfs, testDescriptor, descriptorBytes(t, 40, 1, 0, recorderName(seg1)))

	buf := make([]byte, 40)
	n, err = s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 40, n)
	assert.Equal(t, bytes.Repeat([]byte{0xEE}, 40), buf)
	assert.Equal(t, int64(190), s.Tell())
	assert.Equal(t, int64(40), s.Size())
}

func TestStream_MissingSegmentFailsRead(t *testing.T) {
	s, _ := newOpenStream(t)

	writeFile(t, s.vfs, testDescriptor, descriptorBytes(t, 10, 3, 0, recorderName(seg1), recorderName(seg2), recorderName(seg3)))

	_, err := s.Read(make([]byte, 10))
	require.ErrorIs(t, err, ErrSegmentUnreachable)
	assert.Len(t, s.Segments(), 2)

	writeSegment(t, s.vfs, seg3, 0xCC, 10)
	n, err := s.Read(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestStream_OpenWaitsForDescriptor(t *testing.T) {
	t.Run("missing descriptor", func(t *testing.T) {
		s := New(newTestFS(t), testDescriptor, testOptions())
		err := s.Open(context.Background())
		require.ErrorIs(t, err, ErrBufferUnavailable)
		require.ErrorIs(t, err, ErrNotYetAvailable)
		require.ErrorIs(t, err, fs.ErrNotExist)
		require.NoError(t, s.Close())
	})

	t.Run("no files listed", func(t *testing.T) {
		vfs := newTestFS(t)
		writeFile(t, vfs, testDescriptor, descriptorBytes(t, 0, 0, 0))

		s := New(vfs, testDescriptor, testOptions())
		err := s.Open(context.Background())
		require.ErrorIs(t, err, ErrBufferUnavailable)
		require.NoError(t, s.Close())
	})

	t.Run("malformed fails immediately", func(t *testing.T) {
		vfs := newTestFS(t)
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int64(0)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(1)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(0)))
		buf.Write([]byte{'a', 0, 0})
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(1)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(0)))
		writeFile(t, vfs, testDescriptor, buf.Bytes())

		s := New(vfs, testDescriptor, testOptions())
		err := s.Open(context.Background())
		require.ErrorIs(t, err, ErrMalformedDescriptor)
		assert.NotErrorIs(t, err, ErrBufferUnavailable)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := New(newTestFS(t), testDescriptor, testOptions())
		require.ErrorIs(t, s.Open(ctx), context.Canceled)
	})
}

func TestStream_ClosedOperations(t *testing.T) {
	s := New(newTestFS(t), testDescriptor, testOptions())

	_, err := s.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.Seek(0, io.SeekStart)
	require.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, s.Size())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	opened, _ := newOpenStream(t)
	require.NoError(t, opened.Close())
	_, err = opened.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrClosed)
}
