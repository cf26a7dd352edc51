//go:build !pagestore_nocompress

package compression

// Available reports whether this build can compress blocks.
const Available = true
