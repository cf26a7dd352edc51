package pagestore

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Options is the file form of the session tunables. Unset fields leave the
// builder untouched. The segment size is part of the builder type and
// cannot be set from a file.
//
//	path: /var/lib/app/db
//	mode: high_throughput
//	cache_capacity: 268435456
//	flush_every_ms: 1000
//	use_compression: true
//	compression_factor: 9
type Options struct {
	Path                 *string `yaml:"path"`
	CreateNew            *bool   `yaml:"create_new"`
	Mode                 *Mode   `yaml:"mode"`
	Temporary            *bool   `yaml:"temporary"`
	CacheCapacity        *uint64 `yaml:"cache_capacity"`
	FlushEveryMS         *uint64 `yaml:"flush_every_ms"` // 0 disables
	UseCompression       *bool   `yaml:"use_compression"`
	CompressionFactor    *int    `yaml:"compression_factor"`
	IDGenPersistInterval *uint64 `yaml:"idgen_persist_interval"`
	SnapshotAfterOps     *uint64 `yaml:"snapshot_after_ops"`
	BackgroundWorkers    *int    `yaml:"background_workers"`
	IOLimit              *int64  `yaml:"io_limit_bytes_per_sec"`
}

// ParseOptions decodes YAML options. Unknown keys are rejected.
func ParseOptions(data []byte) (Options, error) {
	var o Options
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, err
	}
	return o, nil
}

// LoadOptions reads YAML options from path. A missing file yields empty
// Options.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Options{}, nil
	}
	if err != nil {
		return Options{}, err
	}
	return ParseOptions(data)
}

// Apply returns b with every field set in o replaced.
func (b ConfigBuilder[S]) Apply(o Options) ConfigBuilder[S] {
	if o.Path != nil {
		b = b.Path(*o.Path)
	}
	if o.CreateNew != nil {
		b = b.CreateNew(*o.CreateNew)
	}
	if o.Mode != nil {
		b = b.Mode(*o.Mode)
	}
	if o.Temporary != nil {
		b = b.Temporary(*o.Temporary)
	}
	if o.CacheCapacity != nil {
		b = b.CacheCapacity(*o.CacheCapacity)
	}
	if o.FlushEveryMS != nil {
		b = b.FlushEvery(time.Duration(*o.FlushEveryMS) * time.Millisecond)
	}
	if o.UseCompression != nil {
		b = b.UseCompression(*o.UseCompression)
	}
	if o.CompressionFactor != nil {
		b = b.CompressionFactor(*o.CompressionFactor)
	}
	if o.IDGenPersistInterval != nil {
		b = b.IDGenPersistInterval(*o.IDGenPersistInterval)
	}
	if o.SnapshotAfterOps != nil {
		b = b.SnapshotAfterOps(*o.SnapshotAfterOps)
	}
	if o.BackgroundWorkers != nil {
		b = b.BackgroundWorkers(*o.BackgroundWorkers)
	}
	if o.IOLimit != nil {
		b = b.IOLimit(*o.IOLimit)
	}
	return b
}
