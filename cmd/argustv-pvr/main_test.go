package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/argustv-pvr/internal/argustv"
	"github.com/ManuGH/argustv-pvr/internal/config"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), version+" (commit: "))
}

func TestDumpCmd_RequiresFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"dump"})
	assert.Error(t, cmd.Execute())
}

func TestCopyStream_Limit(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte{0x47}, 1000))
	var dst bytes.Buffer

	n, err := copyStream(context.Background(), &dst, src, dumpOptions{limit: 376, pollEvery: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, int64(376), n)
	assert.Equal(t, 376, dst.Len())
}

func TestCopyStream_StopsAtEnd(t *testing.T) {
	src := bytes.NewReader([]byte("transport stream"))
	var dst bytes.Buffer

	n, err := copyStream(context.Background(), &dst, src, dumpOptions{pollEvery: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, int64(16), n)
	assert.Equal(t, "transport stream", dst.String())
}

// growingReader returns one chunk per call, then nothing.
type growingReader struct {
	chunks [][]byte
	reads  int
}

func (g *growingReader) Read(p []byte) (int, error) {
	g.reads++
	if g.reads%2 == 0 || len(g.chunks) == 0 {
		return 0, nil
	}
	n := copy(p, g.chunks[0])
	g.chunks = g.chunks[1:]
	return n, nil
}

func TestCopyStream_FollowWaitsForGrowth(t *testing.T) {
	src := &growingReader{chunks: [][]byte{[]byte("a"), []byte("b"), []byte("c")}}
	var dst bytes.Buffer

	_, err := copyStream(context.Background(), &dst, src, dumpOptions{follow: 50 * time.Millisecond, pollEvery: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, "abc", dst.String())
}

func TestCopyStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := copyStream(ctx, &bytes.Buffer{}, &growingReader{}, dumpOptions{follow: time.Hour, pollEvery: time.Millisecond})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDumpToFile_Atomic(t *testing.T) {
	out := filepath.Join(t.TempDir(), "capture.ts")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))

	err := dumpToFile(context.Background(), dumpOptions{out: out, pollEvery: time.Millisecond}, bytes.NewReader([]byte("new capture")))
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "new capture", string(got))
}

func TestDumpToFile_KeepsOldFileOnError(t *testing.T) {
	out := filepath.Join(t.TempDir(), "capture.ts")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))

	err := dumpToFile(context.Background(), dumpOptions{out: out, pollEvery: time.Millisecond}, failingReader{})
	require.Error(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

type fakePinger struct {
	rc  int
	err error
}

func (f fakePinger) Ping(context.Context, int) (int, error)  { return f.rc, f.err }
func (f fakePinger) Version(context.Context) (string, error) { return "2.2.0", nil }
func (f fakePinger) BaseURL() string                         { return "http://argus:49943/" }

func TestPing(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, ping(context.Background(), fakePinger{}, &out))
	assert.Equal(t, "ARGUS TV 2.2.0 at http://argus:49943/ (API 60): ok\n", out.String())

	assert.ErrorContains(t, ping(context.Background(), fakePinger{rc: -1}, &out), "newer client")
	assert.ErrorContains(t, ping(context.Background(), fakePinger{rc: 1}, &out), "too old")
	assert.ErrorIs(t, ping(context.Background(), fakePinger{err: argustv.ErrUpstreamUnavailable}, &out), argustv.ErrUpstreamUnavailable)
}

func TestReaderOptions(t *testing.T) {
	cfg := config.Defaults()
	opts := readerOptions(cfg)
	assert.Equal(t, cfg.Timeshift.DescriptorRetries, opts.Buffer.MaxDescriptorRetries)
	assert.Equal(t, cfg.Timeshift.OpenTimeout, opts.Buffer.OpenTimeout)
	assert.Equal(t, cfg.Timeshift.StatRetryDelay, opts.Buffer.OpenStatRetryDelay)

	s := sessionOptions(cfg)
	assert.Equal(t, cfg.TuneDelay, s.TuneDelay)
	assert.Equal(t, cfg.KeepAliveInterval, s.KeepAliveInterval)
}

func TestWriteEffectiveConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Pass = "secret"

	var out bytes.Buffer
	require.NoError(t, writeEffectiveConfig(&out, cfg, "yaml"))
	assert.Contains(t, out.String(), "host: 127.0.0.1")
	assert.Contains(t, out.String(), "***")
	assert.NotContains(t, out.String(), "secret")

	out.Reset()
	require.NoError(t, writeEffectiveConfig(&out, cfg, "JSON"))
	assert.Contains(t, out.String(), `"Pass": "***"`)

	assert.Error(t, writeEffectiveConfig(&out, cfg, "toml"))
}

func TestConfigValidateCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: argus.lan\n"), 0o600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path, "config", "validate"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "✓ "+path+" is valid\n", out.String())
}
