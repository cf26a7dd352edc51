package pagestore

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"math/bits"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/pagestore/internal/compression"
	"github.com/hupe1980/pagestore/internal/fs"
	"github.com/hupe1980/pagestore/internal/hash"
	"github.com/hupe1980/pagestore/internal/heap"
	"github.com/hupe1980/pagestore/internal/resource"
)

// Config is an immutable, finalized configuration. Copies are cheap and
// share the same settings and global error register; Clone exists for
// readability at call sites that hand a Config to another goroutine.
type Config[S Segment] struct {
	settings *ConfigBuilder[S]
}

// DefaultConfig returns NewConfigBuilder().Build().
func DefaultConfig() Config[DefaultSegment] {
	return NewConfigBuilder().Build()
}

// Clone returns a Config sharing c's settings and global error register.
func (c Config[S]) Clone() Config[S] { return c }

// Path returns the database directory.
func (c Config[S]) Path() string { return c.settings.GetPath() }

// DBPath returns the path of the primary data file.
func (c Config[S]) DBPath() string { return c.settings.DBPath() }

// ConfigPath returns the path of the persisted configuration record.
func (c Config[S]) ConfigPath() string { return c.settings.ConfigPath() }

// HeapPath returns the heap subdirectory.
func (c Config[S]) HeapPath() string { return c.settings.HeapPath() }

// Normalize rounds value down to a multiple of the segment size.
func (c Config[S]) Normalize(value uint64) uint64 { return c.settings.Normalize(value) }

// SegmentSize returns the fixed segment size in bytes.
func (c Config[S]) SegmentSize() int { return segmentSize[S]() }

func (c Config[S]) CacheCapacity() uint64        { return c.settings.cacheCapacity }
func (c Config[S]) Mode() Mode                   { return c.settings.mode }
func (c Config[S]) Temporary() bool              { return c.settings.temporary }
func (c Config[S]) CreateNew() bool              { return c.settings.createNew }
func (c Config[S]) UseCompression() bool         { return c.settings.useCompression }
func (c Config[S]) CompressionFactor() int       { return c.settings.compressionFactor }
func (c Config[S]) IDGenPersistInterval() uint64 { return c.settings.idgenPersistInterval }
func (c Config[S]) SnapshotAfterOps() uint64     { return c.settings.snapshotAfterOps }
func (c Config[S]) Version() Version             { return c.settings.version }
func (c Config[S]) Logger() *Logger              { return c.settings.logger }

// FlushEvery returns the flush interval and whether periodic flushing is on.
func (c Config[S]) FlushEvery() (time.Duration, bool) {
	return c.settings.flushEvery, c.settings.flushEvery > 0
}

// StorageParameters returns the persisted subset of c.
func (c Config[S]) StorageParameters() StorageParameters {
	return StorageParameters{
		SegmentSize:    c.SegmentSize(),
		UseCompression: c.UseCompression(),
		Version:        c.Version(),
	}
}

// Codec returns the block codec implied by the compression flag and mode.
func (c Config[S]) Codec() compression.Codec {
	switch {
	case !c.UseCompression():
		return compression.None
	case c.Mode() == HighThroughput:
		return compression.LZ4
	default:
		return compression.Zstd
	}
}

// Open validates c, takes ownership of the database directory and returns
// the running session. Steps run in order and the first failure is
// returned; nothing after it touches the disk.
func (c Config[S]) Open() (*RunningConfig[S], error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	file, err := c.openFile()
	if err != nil {
		return nil, err
	}

	fsys := c.settings.fsys
	s := &session{file: file}
	fail := func(err error) (*RunningConfig[S], error) {
		_ = s.release(fsys)
		if c.Temporary() {
			_ = fsys.RemoveAll(c.Path())
		}
		return nil, err
	}

	s.rc = resource.NewController(resource.Config{
		CacheCapacity:     clampInt64(max(c.Normalize(c.CacheCapacity()), uint64(c.SegmentSize()))),
		BackgroundWorkers: int64(c.settings.backgroundWorkers),
		IOBytesPerSec:     c.settings.ioLimit,
	})

	if s.heap, err = heap.Start(fsys, c.HeapPath(), s.rc); err != nil {
		return fail(err)
	}
	if err := fs.SyncDir(fsys, c.HeapPath()); err != nil {
		return fail(err)
	}

	if c.UseCompression() {
		if s.comp, err = compression.New(c.Codec(), c.CompressionFactor()); err != nil {
			return fail(err)
		}
	}

	return newRunningConfig(c, s), nil
}

func (c Config[S]) validate() error {
	size := c.SegmentSize()
	if err := supported(size > 0 && bits.OnesCount(uint(size)) == 1,
		"segment_size should be a power of 2"); err != nil {
		return err
	}
	if err := supported(size >= 256,
		"segment_size should be hundreds of kb at minimum, and we won't start if below 256"); err != nil {
		return err
	}
	if err := supported(size <= 1<<24,
		"segment_size should be <= 16mb"); err != nil {
		return err
	}
	if c.UseCompression() {
		if err := supported(compression.Available,
			"this build was compiled with pagestore_nocompress, but use_compression is set"); err != nil {
			return err
		}
	}
	if err := supported(c.CompressionFactor() >= compression.MinLevel,
		"compression_factor must be >= 1"); err != nil {
		return err
	}
	if err := supported(c.CompressionFactor() <= compression.MaxLevel,
		"compression_factor must be <= 22"); err != nil {
		return err
	}
	return supported(c.IDGenPersistInterval() > 0,
		"idgen_persist_interval must be above 0")
}

func (c Config[S]) openFile() (fs.File, error) {
	fsys := c.settings.fsys

	if err := fsys.MkdirAll(c.HeapPath(), 0o755); err != nil {
		return nil, err
	}

	if err := c.verifyConfig(); err != nil {
		return nil, err
	}

	flags := os.O_CREATE | os.O_RDWR
	if c.CreateNew() {
		flags |= os.O_EXCL
	}

	if marker, err := fsys.OpenFile(filepath.Join(c.Path(), sentinelFileName), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644); err == nil {
		_ = marker.Close()
	}

	file, err := fsys.OpenFile(c.DBPath(), flags, 0o644)
	if err != nil {
		return nil, err
	}
	if err := c.tryLock(file); err != nil {
		_ = file.Close()
		return nil, err
	}
	if err := fs.SyncDir(fsys, c.Path()); err != nil {
		_ = fs.Unlock(file)
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

func (c Config[S]) tryLock(file fs.File) error {
	if err := fs.Lock(file, c.settings.blockOnLock); err != nil {
		return fmt.Errorf("%w: %w", ErrLocked, err)
	}
	return nil
}

// verifyConfig reconciles the requested configuration with the one a
// previous run persisted, writing it on first open.
func (c Config[S]) verifyConfig() error {
	old, found, err := c.readConfig()
	if err != nil {
		return err
	}
	if !found {
		return c.writeConfig()
	}

	if c.UseCompression() {
		if err := supported(old.UseCompression,
			"cannot change compression configuration across restarts. "+
				"this database was created without compression enabled."); err != nil {
			return err
		}
	} else {
		if err := supported(!old.UseCompression,
			"cannot change compression configuration across restarts. "+
				"this database was created with compression enabled."); err != nil {
			return err
		}
	}

	if err := supported(c.SegmentSize() == old.SegmentSize,
		"cannot change the io buffer size across restarts."); err != nil {
		return err
	}

	if c.Version() != old.Version {
		c.Logger().Error("database was created with a different format version; "+
			"perform an upgrade using export and import",
			"storedVersion", old.Version.String(),
			"currentVersion", c.Version().String(),
		)
		return supported(c.Version().Compatible(old.Version),
			"the stored database must use a compatible version. see error log for more details.")
	}
	return nil
}

// writeConfig durably replaces the conf file: write conf.tmp, fsync it,
// rename it over conf, fsync the directory. Every step is a named failpoint.
func (c Config[S]) writeConfig() error {
	fsys := c.settings.fsys
	bytes := c.StorageParameters().Serialize()
	crc := hash.PutTrailer(hash.CRC32(bytes))

	tempPath := filepath.Join(c.Path(), confTempFileName)
	finalPath := c.ConfigPath()

	f, err := fsys.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	closeOnErr := func(err error) error {
		_ = f.Close()
		return err
	}

	if err := fs.Failpoint(fsys, "write_config bytes"); err != nil {
		return closeOnErr(err)
	}
	if _, err := f.Write(bytes); err != nil {
		return closeOnErr(err)
	}
	if err := fs.Failpoint(fsys, "write_config crc"); err != nil {
		return closeOnErr(err)
	}
	if _, err := f.Write(crc[:]); err != nil {
		return closeOnErr(err)
	}
	if err := fs.Failpoint(fsys, "write_config fsync"); err != nil {
		return closeOnErr(err)
	}
	if err := f.Sync(); err != nil {
		return closeOnErr(err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := fs.Failpoint(fsys, "write_config rename"); err != nil {
		return err
	}
	if err := fsys.Rename(tempPath, finalPath); err != nil {
		return err
	}
	if err := fs.Failpoint(fsys, "write_config dir fsync"); err != nil {
		return err
	}
	if err := fs.SyncDir(fsys, c.Path()); err != nil {
		return err
	}
	if err := fs.Failpoint(fsys, "write_config post"); err != nil {
		return err
	}

	c.Logger().Debug("configuration written", "path", finalPath, "segmentSize", c.SegmentSize())
	return nil
}

// readConfig loads the persisted parameters. found is false when there is
// no usable record: the file is missing, or is too short to hold one.
// A checksum mismatch is logged but the contents are still returned.
func (c Config[S]) readConfig() (params StorageParameters, found bool, err error) {
	path := c.ConfigPath()

	f, err := c.settings.fsys.OpenFile(path, os.O_RDONLY, 0)
	if errors.Is(err, iofs.ErrNotExist) {
		return params, false, nil
	}
	if err != nil {
		return params, false, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return params, false, err
	}
	if info.Size() <= 8 {
		c.Logger().Warn("empty/corrupt configuration file found", "path", path, "size", info.Size())
		return params, false, nil
	}

	buf, err := io.ReadAll(f)
	if err != nil {
		return params, false, err
	}
	payload, expected, ok := hash.SplitTrailer(buf)
	if !ok {
		c.Logger().Warn("empty/corrupt configuration file found", "path", path, "size", len(buf))
		return params, false, nil
	}

	if actual := hash.CRC32(payload); actual != expected {
		c.Logger().Warn("crc for settings file failed, can't verify that config is safe",
			"path", path,
			"expected", expected,
			"actual", actual,
		)
	}

	params, err = DeserializeStorageParameters(payload)
	if err != nil {
		c.Logger().Error("failed to parse persisted configuration", "path", path, "error", err)
		var ce *CorruptionError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return params, false, err
	}
	return params, true, nil
}
