// Package pagestore is the session and configuration layer of an embedded
// storage engine. It turns tunables into a validated configuration, takes
// exclusive ownership of a database directory, reconciles the requested
// configuration with the one a previous run persisted and offers a lock-free
// register through which background workers report fatal errors.
//
// # Quick Start
//
//	rc, err := pagestore.NewConfigBuilder().
//	    Path("./data").
//	    CacheCapacity(256 << 20).
//	    Open()
//	if err != nil { ... }
//	defer rc.Close()
//
// # Directory Layout
//
//	db                                     primary data file (advisory-locked)
//	conf                                   persisted StorageParameters + CRC32
//	conf.tmp                               staging file for atomic replacement
//	heap/                                  heap slot files
//	DO_NOT_USE_THIS_DIRECTORY_FOR_ANYTHING sentinel dropped on every open
//	snap.*                                 snapshot files
//
// # Persisted Configuration
//
// Only the segment size, the compression flag and the format version are
// persisted. They must match on every later open; everything else (cache
// capacity, compression level, flush interval, ...) is session-local:
//
//	segment_size: 524288
//	use_compression: false
//	version: 0.34
//	<4-byte little-endian CRC32 of the text above>
//
// The record is replaced with write-temp, fsync, rename, fsync-directory, so
// a crash leaves either the previous record or the new one. A checksum
// mismatch is logged and the contents are used anyway; a record of 8 bytes
// or less is treated as absent.
//
// # Segment Size
//
// The segment size is a type parameter of ConfigBuilder and Config, so one
// configuration value can never change it:
//
//	b := pagestore.WithSegment[pagestore.Segment1MiB](pagestore.NewConfigBuilder())
//
// # Global Error
//
// Every Config built from the same builder shares one error slot.
// SetGlobalError installs an error only if none is present (first writer
// wins); GlobalError reads it without blocking; ResetGlobalError clears it.
// The register is advisory: callers poll it at safe points.
//
// # Process Exclusivity
//
// Open takes an exclusive advisory lock on the data file and fails with
// ErrLocked if another process holds it. The lock is released when the last
// RunningConfig handle is closed.
package pagestore
