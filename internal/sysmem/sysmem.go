// Package sysmem discovers the memory ceiling imposed on the process.
package sysmem

import (
	"bytes"
	"strconv"
)

// unlimitedThreshold is the cgroup v1 "no limit" sentinel region: the kernel
// reports PAGE_COUNTER_MAX rounded to pages, which is far above 2^60.
const unlimitedThreshold = 1 << 60

// Limit returns the effective memory limit in bytes, the smaller of the
// cgroup limit and physical memory. ok is false when neither is known.
func Limit() (limit uint64, ok bool) {
	return limitFrom(readFile, totalMemory)
}

func limitFrom(read func(string) ([]byte, error), total func() (uint64, bool)) (uint64, bool) {
	limit, ok := cgroupLimit(read)
	if phys, physOK := total(); physOK && (!ok || phys < limit) {
		return phys, true
	}
	return limit, ok
}

var cgroupFiles = []string{
	"/sys/fs/cgroup/memory.max",                   // v2
	"/sys/fs/cgroup/memory/memory.limit_in_bytes", // v1
}

func cgroupLimit(read func(string) ([]byte, error)) (uint64, bool) {
	for _, path := range cgroupFiles {
		raw, err := read(path)
		if err != nil {
			continue
		}
		return parseLimit(raw)
	}
	return 0, false
}

func parseLimit(raw []byte) (uint64, bool) {
	s := string(bytes.TrimSpace(raw))
	if s == "" || s == "max" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 || n >= unlimitedThreshold {
		return 0, false
	}
	return n, true
}
