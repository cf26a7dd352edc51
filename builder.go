package pagestore

import (
	"math"
	"path/filepath"
	"time"

	"github.com/hupe1980/pagestore/internal/fs"
	"github.com/hupe1980/pagestore/internal/sysmem"
)

// DefaultPath is the database directory used when no path is set.
const DefaultPath = "default.sled"

// File and directory names inside a database directory.
const (
	dbFileName       = "db"
	confFileName     = "conf"
	confTempFileName = "conf.tmp"
	heapDirName      = "heap"
	sentinelFileName = "DO_NOT_USE_THIS_DIRECTORY_FOR_ANYTHING"
	snapshotPrefix   = "snap."
	generatingSuffix = ".generating"
)

// memoryLimit is replaced in tests.
var memoryLimit = sysmem.Limit

// ConfigBuilder accumulates tunables for a database. The segment size is
// part of the type: changing it with WithSegment yields a builder of a
// different type rather than mutating this one.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. Nothing is validated until Config.Open.
//
// Example:
//
//	cfg := pagestore.NewConfigBuilder().
//	    Path("/var/lib/app/db").
//	    CacheCapacity(256 << 20).
//	    UseCompression(true).
//	    Build()
type ConfigBuilder[S Segment] struct {
	path                 string
	tmpPath              string
	createNew            bool
	mode                 Mode
	temporary            bool
	cacheCapacity        uint64
	flushEvery           time.Duration
	useCompression       bool
	compressionFactor    int
	idgenPersistInterval uint64
	snapshotAfterOps     uint64
	version              Version
	blockOnLock          bool
	backgroundWorkers    int
	ioLimit              int64
	logger               *Logger
	fsys                 fs.FileSystem
	globalError          *errorRegister
}

// NewConfigBuilder returns a builder with default settings and the default
// segment size. Its temporary path comes from the process-wide generator.
func NewConfigBuilder() ConfigBuilder[DefaultSegment] {
	return NewConfigBuilderWith[DefaultSegment](defaultTempPaths)
}

// NewConfigBuilderWith returns a builder with default settings whose
// temporary path is drawn from gen.
func NewConfigBuilderWith[S Segment](gen *TempPathGenerator) ConfigBuilder[S] {
	return ConfigBuilder[S]{
		path:                 DefaultPath,
		tmpPath:              gen.Next(),
		mode:                 LowSpace,
		cacheCapacity:        1 << 30,
		flushEvery:           500 * time.Millisecond,
		compressionFactor:    5,
		idgenPersistInterval: 1_000_000,
		snapshotAfterOps:     1_000_000,
		version:              CurrentVersion,
		backgroundWorkers:    1,
		logger:               NewLogger(nil),
		fsys:                 fs.Default,
		globalError:          new(errorRegister),
	}
}

// WithSegment converts b into a builder with segment size T, keeping every
// other setting (including the shared global error register).
func WithSegment[T Segment, S Segment](b ConfigBuilder[S]) ConfigBuilder[T] {
	return ConfigBuilder[T]{
		path:                 b.path,
		tmpPath:              b.tmpPath,
		createNew:            b.createNew,
		mode:                 b.mode,
		temporary:            b.temporary,
		cacheCapacity:        b.cacheCapacity,
		flushEvery:           b.flushEvery,
		useCompression:       b.useCompression,
		compressionFactor:    b.compressionFactor,
		idgenPersistInterval: b.idgenPersistInterval,
		snapshotAfterOps:     b.snapshotAfterOps,
		version:              b.version,
		blockOnLock:          b.blockOnLock,
		backgroundWorkers:    b.backgroundWorkers,
		ioLimit:              b.ioLimit,
		logger:               b.logger,
		fsys:                 b.fsys,
		globalError:          b.globalError,
	}
}

// Build finalizes the builder into an immutable Config. The cache capacity
// is clamped to the host memory limit if one is discoverable and lower.
func (b ConfigBuilder[S]) Build() Config[S] {
	if b.path == "" {
		b.path = DefaultPath
	}
	if b.logger == nil {
		b.logger = NoopLogger()
	}
	if b.fsys == nil {
		b.fsys = fs.Default
	}
	if b.globalError == nil {
		b.globalError = new(errorRegister)
	}
	b.limitCacheMaxMemory()
	return Config[S]{settings: &b}
}

// Open is shorthand for b.Build().Open().
func (b ConfigBuilder[S]) Open() (*RunningConfig[S], error) {
	return b.Build().Open()
}

func (b *ConfigBuilder[S]) limitCacheMaxMemory() {
	limit, ok := memoryLimit()
	if !ok || b.cacheCapacity <= limit {
		return
	}
	b.cacheCapacity = limit
	b.logger.Error("cache capacity is limited to the cgroup memory limit",
		"cacheCapacity", b.cacheCapacity,
	)
}

// GetPath returns the database directory: the explicit path, or the
// generated temporary path when Temporary is set and no path was given.
func (b ConfigBuilder[S]) GetPath() string {
	if b.temporary && b.path == DefaultPath {
		return b.tmpPath
	}
	return b.path
}

// DBPath returns the path of the primary data file.
func (b ConfigBuilder[S]) DBPath() string { return filepath.Join(b.GetPath(), dbFileName) }

// ConfigPath returns the path of the persisted configuration record.
func (b ConfigBuilder[S]) ConfigPath() string { return filepath.Join(b.GetPath(), confFileName) }

// HeapPath returns the heap subdirectory.
func (b ConfigBuilder[S]) HeapPath() string { return filepath.Join(b.GetPath(), heapDirName) }

// Normalize rounds value down to a multiple of the segment size.
func (b ConfigBuilder[S]) Normalize(value uint64) uint64 {
	seg := uint64(segmentSize[S]())
	if seg == 0 {
		return value
	}
	return value / seg * seg
}

// Path sets the database directory.
func (b ConfigBuilder[S]) Path(path string) ConfigBuilder[S] {
	b.path = path
	return b
}

// CreateNew makes Open fail if the data file already exists.
func (b ConfigBuilder[S]) CreateNew(createNew bool) ConfigBuilder[S] {
	b.createNew = createNew
	return b
}

// Mode selects the space/throughput trade-off.
func (b ConfigBuilder[S]) Mode(mode Mode) ConfigBuilder[S] {
	b.mode = mode
	return b
}

// Temporary deletes the database directory when the last session closes.
// Without an explicit path, a generated path (under /dev/shm on Linux) is used.
func (b ConfigBuilder[S]) Temporary(temporary bool) ConfigBuilder[S] {
	b.temporary = temporary
	return b
}

// CacheCapacity sets the maximum size in bytes of the page cache.
// Default: 1 GiB.
func (b ConfigBuilder[S]) CacheCapacity(bytes uint64) ConfigBuilder[S] {
	b.cacheCapacity = bytes
	return b
}

// FlushEvery sets the background flush interval. Zero disables periodic
// flushing. Default: 500ms.
func (b ConfigBuilder[S]) FlushEvery(every time.Duration) ConfigBuilder[S] {
	if every < 0 {
		every = 0
	}
	b.flushEvery = every
	return b
}

// UseCompression enables block compression. This setting is persisted and
// cannot be changed for an existing database.
func (b ConfigBuilder[S]) UseCompression(enabled bool) ConfigBuilder[S] {
	b.useCompression = enabled
	return b
}

// CompressionFactor sets the zstd level, 1 through 22. Levels >= 20 are
// "ultra". Default: 5.
func (b ConfigBuilder[S]) CompressionFactor(level int) ConfigBuilder[S] {
	b.compressionFactor = level
	return b
}

// IDGenPersistInterval sets how many ids are handed out between id generator
// checkpoints. Must be above 0. Default: 1,000,000.
func (b ConfigBuilder[S]) IDGenPersistInterval(interval uint64) ConfigBuilder[S] {
	b.idgenPersistInterval = interval
	return b
}

// SnapshotAfterOps takes a fuzzy snapshot of page cache metadata after this
// many operations. Default: 1,000,000.
func (b ConfigBuilder[S]) SnapshotAfterOps(ops uint64) ConfigBuilder[S] {
	b.snapshotAfterOps = ops
	return b
}

// BlockOnLock makes Open wait for the data file lock instead of failing
// fast. Test harnesses that reopen a path while a previous session is still
// tearing down use this.
func (b ConfigBuilder[S]) BlockOnLock(block bool) ConfigBuilder[S] {
	b.blockOnLock = block
	return b
}

// BackgroundWorkers bounds concurrent background jobs. Default: 1.
func (b ConfigBuilder[S]) BackgroundWorkers(n int) ConfigBuilder[S] {
	b.backgroundWorkers = n
	return b
}

// IOLimit throttles background IO to bytesPerSec. Zero means unlimited.
func (b ConfigBuilder[S]) IOLimit(bytesPerSec int64) ConfigBuilder[S] {
	b.ioLimit = bytesPerSec
	return b
}

// Logger sets the structured logger. Pass nil to disable logging.
func (b ConfigBuilder[S]) Logger(logger *Logger) ConfigBuilder[S] {
	if logger == nil {
		logger = NoopLogger()
	}
	b.logger = logger
	return b
}

// fileSystem swaps the filesystem; used for fault injection in tests.
func (b ConfigBuilder[S]) fileSystem(fsys fs.FileSystem) ConfigBuilder[S] {
	b.fsys = fsys
	return b
}

// withVersion overrides the format version; used to simulate upgrades in tests.
func (b ConfigBuilder[S]) withVersion(v Version) ConfigBuilder[S] {
	b.version = v
	return b
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
