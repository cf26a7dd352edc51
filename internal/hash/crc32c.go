package hash

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
)

// Size is the encoded length of a checksum trailer.
const Size = 4

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32 computes the IEEE CRC32 of data.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new streaming CRC32-Castagnoli hash.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// PutTrailer encodes sum as a little-endian trailer.
func PutTrailer(sum uint32) [Size]byte {
	var b [Size]byte
	binary.LittleEndian.PutUint32(b[:], sum)
	return b
}

// SplitTrailer splits a buffer into its payload and the trailing checksum.
// ok is false when buf is too short to carry a trailer.
func SplitTrailer(buf []byte) (payload []byte, sum uint32, ok bool) {
	if len(buf) < Size {
		return nil, 0, false
	}
	n := len(buf) - Size
	return buf[:n], binary.LittleEndian.Uint32(buf[n:]), true
}
