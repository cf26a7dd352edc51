package pagestore_test

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hupe1980/pagestore"
)

func ExampleConfigBuilder() {
	dir, err := os.MkdirTemp("", "pagestore-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	rc, err := pagestore.NewConfigBuilder().
		Path(filepath.Join(dir, "db")).
		CacheCapacity(64 << 20).
		UseCompression(true).
		Logger(pagestore.NoopLogger()).
		Open()
	if err != nil {
		log.Fatal(err)
	}
	defer rc.Close()

	fmt.Println(rc.SegmentSize())
	fmt.Println(rc.Codec())
	// Output:
	// 524288
	// zstd
}

func ExampleWithSegment() {
	b := pagestore.WithSegment[pagestore.Segment4KiB](pagestore.NewConfigBuilder())
	fmt.Println(b.Build().SegmentSize())
	fmt.Println(b.Normalize(10_000))
	// Output:
	// 4096
	// 8192
}

func ExampleConfig_Open_reconciliation() {
	dir, err := os.MkdirTemp("", "pagestore-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	b := pagestore.NewConfigBuilder().
		Path(filepath.Join(dir, "db")).
		CacheCapacity(64 << 20).
		Logger(pagestore.NoopLogger())

	rc, err := b.Open()
	if err != nil {
		log.Fatal(err)
	}
	_ = rc.Close()

	_, err = b.UseCompression(true).Open()
	fmt.Println(errors.Is(err, pagestore.ErrUnsupported))
	// Output: true
}

func ExampleConfig_SetGlobalError() {
	cfg := pagestore.NewConfigBuilder().Logger(pagestore.NoopLogger()).Build()

	fmt.Println(cfg.SetGlobalError(errors.New("flusher: disk full")))
	fmt.Println(cfg.SetGlobalError(errors.New("follow-up failure")))
	fmt.Println(cfg.GlobalError())
	fmt.Println(cfg.ResetGlobalError() != nil, cfg.GlobalError())
	// Output:
	// true
	// false
	// flusher: disk full
	// true <nil>
}
