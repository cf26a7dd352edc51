package heap

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/pagestore/internal/fs"
	"github.com/hupe1980/pagestore/internal/hash"
	"github.com/hupe1980/pagestore/internal/resource"
)

const (
	freelistName = "freelist"
	slotSuffix   = ".slot"
)

var (
	// ErrClosed is returned by operations on a closed heap.
	ErrClosed = errors.New("heap closed")
	// ErrCorruptSlot is returned when a slot's checksum does not match.
	ErrCorruptSlot = errors.New("corrupt heap slot")
	// ErrUnknownSlot is returned for slot ids that were never reserved or
	// have been freed.
	ErrUnknownSlot = errors.New("unknown heap slot")
)

// Heap manages slot files inside one directory.
type Heap struct {
	fsys fs.FileSystem
	dir  string
	rc   *resource.Controller

	mu     sync.Mutex
	free   *roaring.Bitmap
	next   uint32
	dirty  bool
	closed bool
}

// Start opens the heap in dir, creating the directory if needed and loading
// the persisted free-list. rc may be nil.
func Start(fsys fs.FileSystem, dir string, rc *resource.Controller) (*Heap, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	h := &Heap{
		fsys: fsys,
		dir:  dir,
		rc:   rc,
		free: roaring.New(),
	}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

// Dir returns the heap directory.
func (h *Heap) Dir() string { return h.dir }

func (h *Heap) slotPath(slot uint32) string {
	return filepath.Join(h.dir, strconv.FormatUint(uint64(slot), 10)+slotSuffix)
}

// Reserve returns an unused slot id.
func (h *Heap) Reserve() (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrClosed
	}
	h.dirty = true
	if !h.free.IsEmpty() {
		slot := h.free.Minimum()
		h.free.Remove(slot)
		return slot, nil
	}
	slot := h.next
	h.next++
	return slot, nil
}

func (h *Heap) live(slot uint32) bool {
	return slot < h.next && !h.free.Contains(slot)
}

// Write stores data in slot. Background IO budgets of the resource
// controller apply.
func (h *Heap) Write(ctx context.Context, slot uint32, data []byte) error {
	h.mu.Lock()
	ok, closed := h.live(slot), h.closed
	h.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSlot, slot)
	}

	if err := h.rc.WaitIO(ctx, len(data)+hash.Size); err != nil {
		return err
	}
	trailer := hash.PutTrailer(hash.CRC32C(data))
	return h.replace(h.slotPath(slot), data, trailer[:])
}

// Read returns the contents of slot.
func (h *Heap) Read(slot uint32) ([]byte, error) {
	h.mu.Lock()
	ok, closed := h.live(slot), h.closed
	h.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSlot, slot)
	}

	buf, err := h.readFile(h.slotPath(slot))
	if err != nil {
		return nil, err
	}
	payload, sum, ok := hash.SplitTrailer(buf)
	if !ok || hash.CRC32C(payload) != sum {
		return nil, fmt.Errorf("%w: %d", ErrCorruptSlot, slot)
	}
	return payload, nil
}

// Free releases slot for reuse and removes its file.
func (h *Heap) Free(slot uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if !h.live(slot) {
		return fmt.Errorf("%w: %d", ErrUnknownSlot, slot)
	}
	if err := h.fsys.Remove(h.slotPath(slot)); err != nil && !os.IsNotExist(err) {
		return err
	}
	h.free.Add(slot)
	h.dirty = true
	return nil
}

// Sync persists the free-list if it changed since the last sync.
func (h *Heap) Sync() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	return h.syncLocked()
}

// Close syncs the free-list and rejects further use.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	err := h.syncLocked()
	h.closed = true
	return err
}

func (h *Heap) syncLocked() error {
	if !h.dirty {
		return nil
	}
	var buf bytes.Buffer
	sum := hash.NewCRC32C()
	w := io.MultiWriter(&buf, sum)

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], h.next)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := h.free.WriteTo(w); err != nil {
		return err
	}
	trailer := hash.PutTrailer(sum.Sum32())
	if err := h.replace(filepath.Join(h.dir, freelistName), buf.Bytes(), trailer[:]); err != nil {
		return err
	}
	h.dirty = false
	return nil
}

func (h *Heap) load() error {
	buf, err := h.readFile(filepath.Join(h.dir, freelistName))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return err
	default:
		payload, sum, ok := hash.SplitTrailer(buf)
		if !ok || len(payload) < 4 || hash.CRC32C(payload) != sum {
			return fmt.Errorf("%w: free-list", ErrCorruptSlot)
		}
		h.next = binary.LittleEndian.Uint32(payload)
		if _, err := h.free.ReadFrom(bytes.NewReader(payload[4:])); err != nil {
			return fmt.Errorf("%w: free-list: %w", ErrCorruptSlot, err)
		}
	}
	return h.reconcile()
}

// reconcile folds slot files written after the last free-list sync back
// into the in-memory state, so a crash between Write and Sync cannot hand
// out a live slot again.
func (h *Heap) reconcile() error {
	entries, err := h.fsys.ReadDir(h.dir)
	if err != nil {
		return err
	}
	persisted := h.next
	onDisk := roaring.New()
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), slotSuffix)
		if !ok || e.IsDir() {
			continue
		}
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			continue
		}
		slot := uint32(n)
		onDisk.Add(slot)
		if h.free.CheckedRemove(slot) {
			h.dirty = true
		}
		if slot >= h.next {
			h.next = slot + 1
			h.dirty = true
		}
	}
	// Slots reserved but never written before the crash go back to the pool.
	for slot := persisted; slot < h.next; slot++ {
		if !onDisk.Contains(slot) {
			h.free.Add(slot)
		}
	}
	return nil
}

func (h *Heap) readFile(path string) ([]byte, error) {
	f, err := h.fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// replace atomically swaps path for data||trailer.
func (h *Heap) replace(path string, data, trailer []byte) error {
	tmp := path + ".tmp"
	f, err := h.fsys.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(trailer); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := h.fsys.Rename(tmp, path); err != nil {
		return err
	}
	return fs.SyncDir(h.fsys, h.dir)
}
