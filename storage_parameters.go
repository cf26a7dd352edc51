package pagestore

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// StorageParameters is the subset of the configuration that is persisted in
// the conf file and must match on every subsequent open.
type StorageParameters struct {
	SegmentSize    int
	UseCompression bool
	Version        Version
}

// Serialize encodes p as newline-terminated "key: value" lines.
func (p StorageParameters) Serialize() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "segment_size: %d\n", p.SegmentSize)
	fmt.Fprintf(&buf, "use_compression: %t\n", p.UseCompression)
	fmt.Fprintf(&buf, "version: %d.%d\n", p.Version.Major, p.Version.Minor)
	return buf.Bytes()
}

// DeserializeStorageParameters parses the output of Serialize. Unknown keys
// are ignored; a later duplicate key overrides an earlier one.
//
// A payload that is not valid UTF-8 comes from the binary format used before
// 0.29 and is reported as *UnsupportedError. Any other malformation is a
// *CorruptionError.
func DeserializeStorageParameters(data []byte) (StorageParameters, error) {
	if !utf8.Valid(data) {
		return StorageParameters{}, &UnsupportedError{
			Reason: "failed to open database that may have been created using a version earlier than 0.29",
		}
	}

	lines := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		k, v, ok := strings.Cut(line, ": ")
		if !ok {
			return StorageParameters{}, corrupt("failed to parse persisted config line: %q", line)
		}
		// "a: b: c" keeps only "b", matching how older builds split lines.
		v, _, _ = strings.Cut(v, ": ")
		lines[k] = v
	}
	if err := sc.Err(); err != nil {
		return StorageParameters{}, corrupt("failed to scan persisted config: %v", err)
	}

	var p StorageParameters

	raw, ok := lines["segment_size"]
	if !ok {
		return p, corrupt("failed to retrieve required configuration parameter: segment_size")
	}
	size, err := strconv.ParseUint(raw, 10, strconv.IntSize-1)
	if err != nil {
		return p, corrupt("failed to parse segment_size value: %q", raw)
	}
	p.SegmentSize = int(size)

	raw, ok = lines["use_compression"]
	if !ok {
		return p, corrupt("failed to retrieve required configuration parameter: use_compression")
	}
	switch raw {
	case "true":
		p.UseCompression = true
	case "false":
		p.UseCompression = false
	default:
		return p, corrupt("failed to parse use_compression value: %q", raw)
	}

	raw, ok = lines["version"]
	if !ok {
		return p, corrupt("failed to retrieve required configuration parameter: version")
	}
	if p.Version, err = ParseVersion(raw); err != nil {
		return p, corrupt("failed to parse version value: %v", err)
	}

	return p, nil
}

func corrupt(format string, args ...any) *CorruptionError {
	return &CorruptionError{Reason: fmt.Sprintf(format, args...)}
}
