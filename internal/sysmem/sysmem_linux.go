//go:build linux

package sysmem

import (
	"os"

	"golang.org/x/sys/unix"
)

func readFile(path string) ([]byte, error) { return os.ReadFile(path) }

func totalMemory() (uint64, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, false
	}
	return uint64(info.Totalram) * uint64(info.Unit), true
}
