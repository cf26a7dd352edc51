// Package hash provides the checksums used for on-disk integrity.
//
// Two polynomials are in use:
//
//   - CRC32 (IEEE) protects the persisted configuration record. The record
//     format predates this package and other tools read it, so the polynomial
//     is fixed.
//   - CRC32-Castagnoli (CRC32C) protects heap slot files and the heap
//     free-list. Go's crc32 package uses SSE4.2 / ARM CRC instructions for it.
//
// One-shot use:
//
//	sum := hash.CRC32(record)
//	sum := hash.CRC32C(slot)
package hash
