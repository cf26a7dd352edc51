package pagestore

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"
)

// TempPathGenerator hands out directory paths for temporary databases.
// Paths combine the process id, a nanosecond timestamp and a counter owned by
// the generator, so they are unique across processes started in the same
// nanosecond and across builders created concurrently in one process.
type TempPathGenerator struct {
	seq  atomic.Uint64
	pid  int
	base string
	now  func() time.Time
}

// NewTempPathGenerator creates a generator rooted at /dev/shm on Linux
// (when present) and at os.TempDir elsewhere.
func NewTempPathGenerator() *TempPathGenerator {
	base := os.TempDir()
	if runtime.GOOS == "linux" {
		if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
			base = "/dev/shm"
		}
	}
	return &TempPathGenerator{
		pid:  os.Getpid(),
		base: base,
		now:  time.Now,
	}
}

// Next returns a fresh path. It never returns the same path twice.
func (g *TempPathGenerator) Next() string {
	seq := g.seq.Add(1) - 1
	name := fmt.Sprintf("pagecache.tmp.%d.%d.%d", g.pid, g.now().UnixNano(), seq)
	return filepath.Join(g.base, name)
}

// defaultTempPaths backs NewConfigBuilder.
var defaultTempPaths = NewTempPathGenerator()
