// Package heap is the slot store that lives in the heap/ subdirectory of a
// database. Each slot is one file holding a payload followed by a CRC32C
// trailer; freed slot ids are tracked in a roaring bitmap and recycled
// lowest-first.
//
// The free-list is persisted to heap/freelist with the same write-temp,
// fsync, rename, fsync-directory sequence used for the configuration record.
package heap
