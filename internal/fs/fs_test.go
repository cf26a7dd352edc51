package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, lfs.MkdirAll(dir, 0755))

	fpath := filepath.Join(dir, "test.txt")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, f.Sync())
	assert.NoError(t, f.Truncate(3))

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())
	assert.NoError(t, f.Close())

	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	newPath := filepath.Join(dir, "renamed.txt")
	assert.NoError(t, lfs.Rename(fpath, newPath))
	_, err = lfs.Stat(fpath)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, lfs.Remove(newPath))
	assert.NoError(t, lfs.RemoveAll(dir))
	_, err = lfs.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestSyncDir(t *testing.T) {
	assert.NoError(t, SyncDir(Default, t.TempDir()))
	assert.Error(t, SyncDir(Default, filepath.Join(t.TempDir(), "missing")))
}

func TestFaultyFS_WriteLimit(t *testing.T) {
	ffs := NewFaultyFS(nil)
	ffs.AddRule("faulty", Fault{FailAfterBytes: 5})

	fpath := filepath.Join(t.TempDir(), "faulty.txt")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	n, err := f.Write([]byte("hel"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = f.Write([]byte("lo!!"))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 2, n)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(fpath)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFaultyFS_SyncAndRename(t *testing.T) {
	boom := errors.New("boom")
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule(".tmp", Fault{FailAfterBytes: -1, FailOnSync: true, FailOnRename: true, Err: boom})

	dir := t.TempDir()
	tmp := filepath.Join(dir, "conf.tmp")
	f, err := ffs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), boom)
	require.NoError(t, f.Close())

	assert.ErrorIs(t, ffs.Rename(tmp, filepath.Join(dir, "conf")), boom)

	// Unmatched paths pass straight through.
	other := filepath.Join(dir, "other")
	g, err := ffs.OpenFile(other, os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	assert.NoError(t, g.Sync())
	require.NoError(t, g.Close())
	assert.NoError(t, ffs.Rename(other, other+".renamed"))
}

func TestFaultyFS_Failpoints(t *testing.T) {
	ffs := NewFaultyFS(nil)

	assert.NoError(t, Failpoint(ffs, "step"))
	assert.NoError(t, Failpoint(Default, "step"))

	ffs.Arm("step", nil)
	assert.ErrorIs(t, Failpoint(ffs, "step"), ErrInjected)
	assert.Equal(t, 2, ffs.Hits("step"))

	ffs.Disarm("step")
	assert.NoError(t, Failpoint(ffs, "step"))
}

func TestLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	a, err := Default.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	defer a.Close()
	b, err := Default.OpenFile(path, os.O_RDWR, 0644)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, Lock(a, false))
	if err := Lock(b, false); err != nil {
		assert.ErrorIs(t, err, ErrWouldBlock)
	}
	require.NoError(t, Unlock(a))
	require.NoError(t, Lock(b, false))
	require.NoError(t, Unlock(b))
}
