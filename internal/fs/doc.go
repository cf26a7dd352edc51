// Package fs provides the filesystem seam used by the session layer.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with read/write/sync capabilities and a descriptor
//     that can carry an advisory lock
//   - [FileSystem]: the directory-level operations (open, rename, mkdir, ...)
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test wrapper that injects I/O errors
//
// # Failpoints
//
// Multi-step durable updates (write temp file, fsync, rename, fsync directory)
// call [Failpoint] between steps with a stable name. Production filesystems
// ignore these calls. [FaultyFS] can arm any name so tests can abort the
// sequence at exactly that point:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.Arm("write_config rename", errBoom)
//
// # Locking
//
// [Lock] and [Unlock] take a process-level advisory exclusive lock on an open
// file (flock on unix, LockFileEx on windows). The lock does not coordinate
// goroutines inside one process that share a descriptor.
package fs
