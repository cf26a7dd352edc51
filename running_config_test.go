package pagestore

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pagestore/internal/compression"
	"github.com/hupe1980/pagestore/internal/heap"
)

func TestRunningConfig_HandlesShareSession(t *testing.T) {
	requireLocking(t)
	b := testBuilder(t)

	rc, err := b.Open()
	require.NoError(t, err)
	clone := rc.Clone()
	assert.Same(t, rc.File(), clone.File())
	assert.Same(t, rc.Heap(), clone.Heap())

	require.NoError(t, rc.Close())
	require.NoError(t, rc.Close(), "second close of a handle is a no-op")

	_, err = b.Open()
	assert.ErrorIs(t, err, ErrLocked, "the clone still holds the lock")

	require.NoError(t, clone.Close())
	reopened := mustOpen(t, b)
	assert.NotNil(t, reopened.Heap())
}

func TestRunningConfig_SharesGlobalError(t *testing.T) {
	rc := mustOpen(t, testBuilder(t))
	clone := rc.Clone()
	defer func() { _ = clone.Close() }()

	require.True(t, clone.SetGlobalError(os.ErrClosed))
	assert.ErrorIs(t, rc.GlobalError(), os.ErrClosed)
}

func TestRunningConfig_TemporaryRemovedOnLastClose(t *testing.T) {
	withMemoryLimit(t, 0, false)
	dir := filepath.Join(t.TempDir(), "tmpdb")
	rc, err := NewConfigBuilder().Path(dir).Temporary(true).Logger(NoopLogger()).Open()
	require.NoError(t, err)
	clone := rc.Clone()

	require.NoError(t, rc.Close())
	_, err = os.Stat(dir)
	require.NoError(t, err, "directory survives while a handle is open")

	require.NoError(t, clone.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestRunningConfig_SnapshotFiles(t *testing.T) {
	rc := mustOpen(t, testBuilder(t))

	files, err := rc.SnapshotFiles()
	require.NoError(t, err)
	assert.Empty(t, files)

	for _, name := range []string{"snap.000001", "snap.000002", "snap.000003.generating", "snapshot", "other"} {
		require.NoError(t, os.WriteFile(filepath.Join(rc.Path(), name), nil, 0o644))
	}

	files, err = rc.SnapshotFiles()
	require.NoError(t, err)

	abs, err := filepath.Abs(rc.Path())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(abs, "snap.000001"),
		filepath.Join(abs, "snap.000002"),
	}, files)
}

func TestRunningConfig_SnapshotFilesCreatesDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("open files cannot be removed on windows")
	}
	rc := mustOpen(t, testBuilder(t))
	require.NoError(t, os.RemoveAll(rc.Path()))

	files, err := rc.SnapshotFiles()
	require.NoError(t, err)
	assert.Empty(t, files)

	info, err := os.Stat(rc.Path())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRunningConfig_Compressor(t *testing.T) {
	tests := []struct {
		name  string
		b     func(ConfigBuilder[DefaultSegment]) ConfigBuilder[DefaultSegment]
		codec compression.Codec
		nilC  bool
	}{
		{"off", func(b ConfigBuilder[DefaultSegment]) ConfigBuilder[DefaultSegment] { return b }, compression.None, true},
		{"low space", func(b ConfigBuilder[DefaultSegment]) ConfigBuilder[DefaultSegment] {
			return b.UseCompression(true).CompressionFactor(3)
		}, compression.Zstd, false},
		{"high throughput", func(b ConfigBuilder[DefaultSegment]) ConfigBuilder[DefaultSegment] {
			return b.UseCompression(true).Mode(HighThroughput)
		}, compression.LZ4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := mustOpen(t, tt.b(testBuilder(t)))
			comp := rc.Compressor()
			if tt.nilC {
				assert.Nil(t, comp)
				return
			}
			require.NotNil(t, comp)
			assert.Equal(t, tt.codec, comp.Codec())

			page := make([]byte, 4096)
			for i := range page {
				page[i] = byte(i % 7)
			}
			block, err := comp.Compress(page)
			require.NoError(t, err)
			assert.Less(t, len(block), len(page))

			out, err := comp.Decompress(block)
			require.NoError(t, err)
			assert.Equal(t, page, out)
		})
	}
}

func TestRunningConfig_HeapSurvivesReopen(t *testing.T) {
	b := testBuilder(t)
	rc, err := b.Open()
	require.NoError(t, err)

	h := rc.Heap()
	assert.Equal(t, rc.HeapPath(), h.Dir())

	slot, err := h.Reserve()
	require.NoError(t, err)
	require.NoError(t, h.Write(context.Background(), slot, []byte("blob")))
	require.NoError(t, rc.Close())

	_, err = h.Read(slot)
	assert.ErrorIs(t, err, heap.ErrClosed)

	rc = mustOpen(t, b)
	got, err := rc.Heap().Read(slot)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), got)
}

func TestRunningConfig_Resources(t *testing.T) {
	rc := mustOpen(t, testBuilder(t).CacheCapacity(10<<20+123).BackgroundWorkers(2).IOLimit(1<<20))

	cfg := rc.Resources().Config()
	assert.Equal(t, int64(rc.Normalize(10<<20+123)), cfg.CacheCapacity)
	assert.Equal(t, int64(2), cfg.BackgroundWorkers)
	assert.Equal(t, int64(1<<20), cfg.IOBytesPerSec)
}

func TestRunningConfig_TruncateDataFile(t *testing.T) {
	rc := mustOpen(t, testBuilder(t))

	_, err := rc.File().Write(make([]byte, 1000))
	require.NoError(t, err)
	require.NoError(t, rc.TruncateDataFile(100))

	info, err := rc.File().Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(100), info.Size())
}

func TestRunningConfig_CloneAfterRelease(t *testing.T) {
	b := testBuilder(t)
	rc, err := b.Open()
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	clone := rc.Clone()
	assert.NoError(t, clone.Close(), "a released session is not released again")

	reopened := mustOpen(t, b)
	stale := rc.Clone()
	require.NoError(t, stale.Close())
	assert.NotNil(t, reopened.Heap())
	_, err = reopened.Heap().Reserve()
	assert.NoError(t, err)
}
