package tsbuffer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/avfs/avfs"
	"github.com/avfs/avfs/vfs/memfs"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const testDir = "/buffer"

var testDescriptor = filepath.Join(testDir, "live1-0.ts.tsbuffer")

// descriptorBytes renders a descriptor the way the recorder writes it.
func descriptorBytes(t *testing.T, writePos int64, added, removed int32, names ...string) []byte {
	t.Helper()
	return descriptorWithFooter(t, writePos, added, removed, added, removed, names...)
}

func descriptorWithFooter(t *testing.T, writePos int64, added, removed, added2, removed2 int32, names ...string) []byte {
	t.Helper()
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, writePos))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, added))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, removed))
	for _, name := range names {
		b, err := enc.Bytes([]byte(name))
		require.NoError(t, err)
		buf.Write(b)
		buf.Write([]byte{0, 0})
	}
	buf.Write([]byte{0, 0})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, added2))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, removed2))
	return buf.Bytes()
}

func newTestFS(t *testing.T) avfs.VFS {
	t.Helper()
	vfs := memfs.New()
	require.NoError(t, vfs.MkdirAll(testDir, 0o755))
	return vfs
}

func writeFile(t *testing.T, vfs avfs.VFS, name string, data []byte) {
	t.Helper()
	require.NoError(t, vfs.WriteFile(name, data, 0o644))
}

func writeSegment(t *testing.T, vfs avfs.VFS, name string, b byte, n int) {
	t.Helper()
	writeFile(t, vfs, filepath.Join(testDir, name), bytes.Repeat([]byte{b}, n))
}

func appendSegment(t *testing.T, vfs avfs.VFS, name string, b byte, n int) {
	t.Helper()
	path := filepath.Join(testDir, name)
	data, err := vfs.ReadFile(path)
	require.NoError(t, err)
	writeFile(t, vfs, path, append(data, bytes.Repeat([]byte{b}, n)...))
}

func testOptions() Options {
	return Options{
		MaxDescriptorRetries: 10,
		RetryDelay:           time.Microsecond,
		OpenTimeout:          50 * time.Millisecond,
		OpenPollInterval:     5 * time.Millisecond,
		OpenStatRetries:      3,
		OpenStatRetryDelay:   time.Millisecond,
	}
}

var errShareDown = errors.New("host is down")

// countingFS records how often the descriptor is opened. While unreachable
// is set, opening the descriptor fails like a dropped network share.
type countingFS struct {
	avfs.VFS
	path        string
	opens       int
	unreachable bool
}

func (c *countingFS) Open(name string) (avfs.File, error) {
	if name == c.path {
		c.opens++
		if c.unreachable {
			return nil, &fs.PathError{Op: "open", Path: name, Err: errShareDown}
		}
	}
	return c.VFS.Open(name)
}

// contiguous reports whether every segment starts where the previous ends.
func (t segmentTable) contiguous() bool {
	for i := 1; i < len(t); i++ {
		if t[i-1].End() != t[i].StartPosition {
			return false
		}
	}
	return true
}
