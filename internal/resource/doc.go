// Package resource holds the per-session budgets handed to background work.
//
// A Controller is built once per opened session from the session-local
// tunables (cache capacity, background workers, IO limit) and shared by every
// collaborator that allocates cache memory or issues background IO:
//
//   - Cache: fail-fast reservation against the cache capacity
//   - Background: a weighted semaphore bounding concurrent background jobs
//   - IO: a token bucket throttling background writes
//
// All methods are safe on a nil *Controller, which imposes no limits.
//
//	rc := resource.NewController(resource.Config{CacheCapacity: 1 << 30})
//	if err := rc.ReserveCache(n); err != nil {
//	    // resource.ErrCacheFull
//	}
//	defer rc.ReleaseCache(n)
package resource
