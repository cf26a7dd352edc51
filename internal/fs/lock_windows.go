//go:build windows

package fs

import (
	"errors"

	"golang.org/x/sys/windows"
)

// ErrWouldBlock is returned by Lock when another process holds the lock and
// blocking was not requested.
var ErrWouldBlock = errors.New("lock is held by another process")

// Lock takes an exclusive advisory lock on the first byte range of f.
func Lock(f File, block bool) error {
	flags := uint32(windows.LOCKFILE_EXCLUSIVE_LOCK)
	if !block {
		flags |= windows.LOCKFILE_FAIL_IMMEDIATELY
	}
	ol := new(windows.Overlapped)
	err := windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, ol)
	if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
		return ErrWouldBlock
	}
	return err
}

// Unlock releases a lock taken with Lock.
func Unlock(f File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
}
