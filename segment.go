package pagestore

// Segment fixes the I/O buffer size of a configuration at compile time.
// Implementations are zero-size types whose SegmentSize returns a constant.
//
// The segment size is baked into the on-disk layout; it is the one setting
// that must stay identical across restarts. Custom sizes can be declared by
// the caller:
//
//	type Segment2MiB struct{}
//
//	func (Segment2MiB) SegmentSize() int { return 2 << 20 }
//
// Sizes are validated when the configuration is opened: they must be a
// power of two in [256, 16 MiB].
type Segment interface {
	SegmentSize() int
}

// Predefined segment sizes.
type (
	Segment256B   struct{}
	Segment4KiB   struct{}
	Segment64KiB  struct{}
	Segment512KiB struct{}
	Segment1MiB   struct{}
	Segment8MiB   struct{}
	Segment16MiB  struct{}
)

func (Segment256B) SegmentSize() int   { return 256 }
func (Segment4KiB) SegmentSize() int   { return 4 << 10 }
func (Segment64KiB) SegmentSize() int  { return 64 << 10 }
func (Segment512KiB) SegmentSize() int { return 512 << 10 }
func (Segment1MiB) SegmentSize() int   { return 1 << 20 }
func (Segment8MiB) SegmentSize() int   { return 8 << 20 }
func (Segment16MiB) SegmentSize() int  { return 16 << 20 }

// DefaultSegment is the segment size used by NewConfigBuilder.
type DefaultSegment = Segment512KiB

func segmentSize[S Segment]() int {
	var s S
	return s.SegmentSize()
}
