package pagestore

import "sync/atomic"

// errorRegister is a single slot shared by every Config built from the same
// builder. The first error stored wins until the slot is reset.
//
// Boxes are never mutated after publication, so a reader that loaded a box
// before a reset keeps a valid value; the garbage collector reclaims it once
// the last such reader drops it.
type errorRegister struct {
	slot atomic.Pointer[errorBox]
}

type errorBox struct {
	err error
}

func (r *errorRegister) load() error {
	if box := r.slot.Load(); box != nil {
		return box.err
	}
	return nil
}

// set installs err if the slot is empty and reports whether it did.
func (r *errorRegister) set(err error) bool {
	return r.slot.CompareAndSwap(nil, &errorBox{err: err})
}

// reset empties the slot and returns the previous error, if any.
func (r *errorRegister) reset() error {
	if old := r.slot.Swap(nil); old != nil {
		return old.err
	}
	return nil
}

// GlobalError returns the error a background task reported through
// SetGlobalError, or nil. It never blocks.
func (c Config[S]) GlobalError() error {
	return c.settings.globalError.load()
}

// SetGlobalError records err as the fatal asynchronous error of the
// database. If an error is already recorded the call does nothing: the
// first reporter wins and later, likely derivative, reports are dropped.
// A nil err is ignored. It reports whether err was installed.
func (c Config[S]) SetGlobalError(err error) bool {
	if err == nil {
		return false
	}
	return c.settings.globalError.set(err)
}

// ResetGlobalError clears the recorded error and returns it.
func (c Config[S]) ResetGlobalError() error {
	return c.settings.globalError.reset()
}
