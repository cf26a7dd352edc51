package sysmem

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func files(m map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		if v, ok := m[path]; ok {
			return []byte(v), nil
		}
		return nil, os.ErrNotExist
	}
}

func physical(n uint64, ok bool) func() (uint64, bool) {
	return func() (uint64, bool) { return n, ok }
}

func TestLimitFrom(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		phys   uint64
		physOK bool
		want   uint64
		wantOK bool
	}{
		{"nothing known", nil, 0, false, 0, false},
		{"physical only", nil, 8 << 30, true, 8 << 30, true},
		{"cgroup v2 below physical", map[string]string{"/sys/fs/cgroup/memory.max": "1073741824\n"}, 8 << 30, true, 1 << 30, true},
		{"cgroup v2 max", map[string]string{"/sys/fs/cgroup/memory.max": "max\n"}, 8 << 30, true, 8 << 30, true},
		{"cgroup v1", map[string]string{"/sys/fs/cgroup/memory/memory.limit_in_bytes": "536870912"}, 0, false, 512 << 20, true},
		{"cgroup v1 unlimited", map[string]string{"/sys/fs/cgroup/memory/memory.limit_in_bytes": "9223372036854771712"}, 4 << 30, true, 4 << 30, true},
		{"cgroup above physical", map[string]string{"/sys/fs/cgroup/memory.max": "17179869184"}, 8 << 30, true, 8 << 30, true},
		{"garbage", map[string]string{"/sys/fs/cgroup/memory.max": "lots"}, 0, false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := limitFrom(files(tt.files), physical(tt.phys, tt.physOK))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLimitDoesNotPanic(t *testing.T) {
	_, _ = Limit()
}
