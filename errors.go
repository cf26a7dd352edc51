package pagestore

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is matched by every *UnsupportedError.
	ErrUnsupported = errors.New("unsupported configuration")

	// ErrCorruption is matched by every *CorruptionError.
	ErrCorruption = errors.New("corrupted configuration")

	// ErrLocked is returned by Open when another process holds the data
	// file lock.
	ErrLocked = errors.New("could not acquire database file lock")
)

// UnsupportedError reports a configuration that this build refuses to open,
// either on its own or against what a previous run persisted.
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported configuration: %s", e.Reason)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// CorruptionError reports a persisted configuration record that could not be
// parsed.
type CorruptionError struct {
	Path   string
	Reason string
}

func (e *CorruptionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("corrupted configuration: %s", e.Reason)
	}
	return fmt.Sprintf("corrupted configuration %s: %s", e.Path, e.Reason)
}

func (e *CorruptionError) Unwrap() error { return ErrCorruption }

// supported returns an *UnsupportedError carrying reason unless cond holds.
func supported(cond bool, reason string) error {
	if cond {
		return nil
	}
	return &UnsupportedError{Reason: reason}
}
