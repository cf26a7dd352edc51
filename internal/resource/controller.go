package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrCacheFull is returned when a cache reservation would exceed the capacity.
var ErrCacheFull = errors.New("cache capacity exceeded")

// Config holds the session budgets.
type Config struct {
	// CacheCapacity is the byte budget of the page cache. 0 means unlimited.
	CacheCapacity int64

	// BackgroundWorkers bounds concurrent background jobs. Values < 1 mean 1.
	BackgroundWorkers int64

	// IOBytesPerSec throttles background IO. 0 means unlimited.
	IOBytesPerSec int64
}

// Controller enforces the budgets of one session.
type Controller struct {
	cfg Config

	cacheSem  *semaphore.Weighted // nil if unlimited
	cacheUsed atomic.Int64

	bgSem *semaphore.Weighted

	io *rate.Limiter // nil if unlimited
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	if cfg.BackgroundWorkers < 1 {
		cfg.BackgroundWorkers = 1
	}

	c := &Controller{
		cfg:   cfg,
		bgSem: semaphore.NewWeighted(cfg.BackgroundWorkers),
	}
	if cfg.CacheCapacity > 0 {
		c.cacheSem = semaphore.NewWeighted(cfg.CacheCapacity)
	}
	if cfg.IOBytesPerSec > 0 {
		c.io = rate.NewLimiter(rate.Limit(cfg.IOBytesPerSec), int(cfg.IOBytesPerSec))
	}
	return c
}

// Config returns the budgets the controller was built with.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// ReserveCache reserves n bytes of cache without blocking.
func (c *Controller) ReserveCache(n int64) error {
	if c == nil || n <= 0 {
		return nil
	}
	if c.cacheSem != nil && !c.cacheSem.TryAcquire(n) {
		return ErrCacheFull
	}
	c.cacheUsed.Add(n)
	return nil
}

// ReleaseCache returns n bytes reserved with ReserveCache.
func (c *Controller) ReleaseCache(n int64) {
	if c == nil || n <= 0 {
		return
	}
	if c.cacheSem != nil {
		c.cacheSem.Release(n)
	}
	c.cacheUsed.Add(-n)
}

// CacheUsage returns the bytes currently reserved.
func (c *Controller) CacheUsage() int64 {
	if c == nil {
		return 0
	}
	return c.cacheUsed.Load()
}

// AcquireBackground blocks until a background slot is free or ctx is done.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.bgSem.Acquire(ctx, 1)
}

// TryAcquireBackground reserves a background slot if one is free.
func (c *Controller) TryAcquireBackground() bool {
	if c == nil {
		return true
	}
	return c.bgSem.TryAcquire(1)
}

// ReleaseBackground frees a slot taken with AcquireBackground.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.bgSem.Release(1)
}

// WaitIO blocks until n bytes of background IO are allowed. Requests larger
// than the burst are split so they never fail outright.
func (c *Controller) WaitIO(ctx context.Context, n int) error {
	if c == nil || c.io == nil {
		return nil
	}
	burst := c.io.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.io.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
