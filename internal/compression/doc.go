// Package compression implements the self-describing block codec used when
// compression is enabled for a database.
//
// Every block starts with a 9-byte header:
//
//	[codec uint8][uncompressed size uint32][stored size uint32][payload]
//
// A stored size of 0 means the payload was kept raw because compressing it
// did not pay off. Because the codec id travels with each block, a database
// can switch between the zstd (space-favouring) and lz4 (throughput-favouring)
// codecs across restarts; only turning compression on or off is a layout
// change.
package compression
