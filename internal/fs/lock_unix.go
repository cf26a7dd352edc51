//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package fs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by Lock when another process holds the lock and
// blocking was not requested.
var ErrWouldBlock = errors.New("lock is held by another process")

// Lock takes an exclusive advisory lock on f. If block is false and the lock
// is held elsewhere, it fails with ErrWouldBlock instead of waiting.
func Lock(f File, block bool) error {
	how := unix.LOCK_EX
	if !block {
		how |= unix.LOCK_NB
	}
	for {
		err := unix.Flock(int(f.Fd()), how)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EWOULDBLOCK):
			return ErrWouldBlock
		default:
			return err
		}
	}
}

// Unlock releases a lock taken with Lock.
func Unlock(f File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
