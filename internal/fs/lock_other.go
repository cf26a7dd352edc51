//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd) && !windows

package fs

import "errors"

// ErrWouldBlock is returned by Lock when another process holds the lock and
// blocking was not requested.
var ErrWouldBlock = errors.New("lock is held by another process")

// Lock is a no-op on platforms without advisory file locks.
func Lock(File, bool) error { return nil }

// Unlock is a no-op on platforms without advisory file locks.
func Unlock(File) error { return nil }
