package pagestore

import "fmt"

// Mode is the high-level trade-off the engine optimizes for.
type Mode uint8

const (
	// LowSpace favours using less space over the highest write throughput.
	// Data is rewritten more often to reduce fragmentation and blocks are
	// compressed with zstd when compression is enabled.
	LowSpace Mode = iota

	// HighThroughput maximizes write throughput at the cost of disk space.
	// Compressed blocks use lz4.
	HighThroughput
)

func (m Mode) String() string {
	switch m {
	case LowSpace:
		return "low_space"
	case HighThroughput:
		return "high_throughput"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "low_space", "small":
		*m = LowSpace
	case "high_throughput", "fast":
		*m = HighThroughput
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}
