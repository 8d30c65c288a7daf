package pvr

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/avfs/avfs"
	"github.com/avfs/avfs/vfs/memfs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/text/encoding/unicode"

	"github.com/ManuGH/argustv-pvr/internal/argustv"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	timeshiftDir  = "/timeshift"
	descriptorRel = "live1-0.ts.tsbuffer"
	segmentRel    = "live1-0.ts.tsbuffer1.ts"
)

func newBufferFS(t *testing.T, writePos int64, data []byte) avfs.VFS {
	t.Helper()
	vfs := memfs.New()
	require.NoError(t, vfs.MkdirAll(timeshiftDir, 0o755))
	require.NoError(t, vfs.WriteFile(timeshiftDir+"/"+segmentRel, data, 0o644))
	writeDescriptor(t, vfs, writePos)
	return vfs
}

// writeDescriptor publishes a one-segment descriptor the way the recorder does.
func writeDescriptor(t *testing.T, vfs avfs.VFS, writePos int64) {
	t.Helper()
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	name, err := enc.Bytes([]byte(`C:\ProgramData\ARGUS TV\Timeshift\` + segmentRel))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, writePos))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(0)))
	buf.Write(name)
	buf.Write([]byte{0, 0, 0, 0})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(0)))
	require.NoError(t, vfs.WriteFile(timeshiftDir+"/"+descriptorRel, buf.Bytes(), 0o644))
}

func sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// fakeClient scripts TuneLiveStream answers and counts calls.
type fakeClient struct {
	mu         sync.Mutex
	tuneErrs   []error
	timeshift  string
	tunes      []string
	stops      int
	keepAlives int
}

func (f *fakeClient) TuneLiveStream(_ context.Context, ch argustv.Channel) (argustv.LiveStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tunes = append(f.tunes, ch.ChannelID)
	if len(f.tuneErrs) > 0 {
		err := f.tuneErrs[0]
		f.tuneErrs = f.tuneErrs[1:]
		if err != nil {
			return argustv.LiveStream{}, err
		}
	}
	return argustv.LiveStream{TimeshiftFile: f.timeshift}, nil
}

func (f *fakeClient) StopLiveStream(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeClient) KeepLiveStreamAlive(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keepAlives++
	return true, nil
}

func (f *fakeClient) counts() (tunes []string, stops, keepAlives int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tunes...), f.stops, f.keepAlives
}
