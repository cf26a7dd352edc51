package pagestore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/pagestore/internal/compression"
	"github.com/hupe1980/pagestore/internal/fs"
	"github.com/hupe1980/pagestore/internal/heap"
	"github.com/hupe1980/pagestore/internal/resource"
)

// RunningConfig is one open session: a Config together with the locked data
// file, the started heap and the session budgets. Handles are reference
// counted; Clone adds a handle and Close drops one. The data file lock is
// released, and a temporary database removed, when the last handle closes.
type RunningConfig[S Segment] struct {
	Config[S]

	s      *session
	closed atomic.Bool
}

// session is the state shared by every handle of one RunningConfig.
type session struct {
	refs atomic.Int64
	file fs.File
	heap *heap.Heap
	rc   *resource.Controller
	comp *compression.Compressor
}

func newRunningConfig[S Segment](c Config[S], s *session) *RunningConfig[S] {
	s.refs.Store(1)
	return &RunningConfig[S]{Config: c, s: s}
}

// Clone returns a new handle to the same session. Once the session has been
// released by its last Close, Clone returns a handle that is already closed.
func (r *RunningConfig[S]) Clone() *RunningConfig[S] {
	clone := &RunningConfig[S]{Config: r.Config, s: r.s}
	for {
		n := r.s.refs.Load()
		if n <= 0 {
			clone.closed.Store(true)
			return clone
		}
		if r.s.refs.CompareAndSwap(n, n+1) {
			return clone
		}
	}
}

// File returns the locked primary data file.
func (r *RunningConfig[S]) File() fs.File { return r.s.file }

// Heap returns the heap started for this session.
func (r *RunningConfig[S]) Heap() *heap.Heap { return r.s.heap }

// Resources returns the session budgets.
func (r *RunningConfig[S]) Resources() *resource.Controller { return r.s.rc }

// Compressor returns the block compressor, or nil if compression is off.
func (r *RunningConfig[S]) Compressor() *compression.Compressor { return r.s.comp }

// Close drops this handle. Closing a handle twice is a no-op.
func (r *RunningConfig[S]) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	if r.s.refs.Add(-1) > 0 {
		return nil
	}

	err := r.s.release(r.settings.fsys)
	if r.Temporary() {
		r.Logger().WithPath(r.Path()).Debug("removing temporary storage directory")
		if rmErr := r.settings.fsys.RemoveAll(r.Path()); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

func (s *session) release(fsys fs.FileSystem) error {
	var errs []error
	if s.heap != nil {
		errs = append(errs, s.heap.Close())
	}
	if s.comp != nil {
		errs = append(errs, s.comp.Close())
	}
	if s.file != nil {
		errs = append(errs, fs.Unlock(s.file), s.file.Close())
	}
	return errors.Join(errs...)
}

// SnapshotFiles lists the snapshot files of the database: every entry whose
// absolute path starts with "<path>/snap." and that is not still being
// generated. The directory is created if it does not exist.
func (r *RunningConfig[S]) SnapshotFiles() ([]string, error) {
	fsys := r.settings.fsys

	prefix, err := filepath.Abs(filepath.Join(r.Path(), snapshotPrefix))
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(prefix)
	if _, err := fsys.Stat(dir); os.IsNotExist(err) {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if strings.HasPrefix(p, prefix) && !strings.HasSuffix(p, generatingSuffix) {
			files = append(files, p)
		}
	}
	return files, nil
}

// TruncateDataFile truncates the data file to size. It exists to simulate
// torn writes in corruption tests.
func (r *RunningConfig[S]) TruncateDataFile(size int64) error {
	return r.s.file.Truncate(size)
}
