package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the algorithm of a block.
type Codec uint8

const (
	// None stores blocks raw.
	None Codec = 0
	// LZ4 favours throughput.
	LZ4 Codec = 1
	// Zstd favours space and honours the configured level.
	Zstd Codec = 2
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// MinLevel and MaxLevel bound the zstd compression level.
const (
	MinLevel = 1
	MaxLevel = 22
)

// HeaderSize is the length of a block header.
const HeaderSize = 9

var (
	// ErrUnavailable is returned when compression was compiled out.
	ErrUnavailable = errors.New("compression is not available in this build")
	// ErrInvalidLevel is returned for levels outside [MinLevel, MaxLevel].
	ErrInvalidLevel = errors.New("compression level out of range")
	// ErrCorruptBlock is returned when a block cannot be decoded.
	ErrCorruptBlock = errors.New("corrupt compressed block")
)

// ValidLevel reports whether level is an accepted zstd level.
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// Compressor encodes and decodes blocks. It is safe for concurrent use.
type Compressor struct {
	codec Codec
	level int
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// New returns a compressor writing codec blocks. level only applies to Zstd.
// Any compressor can read blocks written by any codec.
func New(codec Codec, level int) (*Compressor, error) {
	if codec != None && !Available {
		return nil, ErrUnavailable
	}
	if codec == Zstd && !ValidLevel(level) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	c := &Compressor{codec: codec, level: level}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, err
	}
	c.dec = dec

	if codec == Zstd {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			dec.Close()
			return nil, err
		}
		c.enc = enc
	}
	return c, nil
}

// Codec returns the codec used for new blocks.
func (c *Compressor) Codec() Codec { return c.codec }

// Level returns the configured zstd level.
func (c *Compressor) Level() int { return c.level }

// Close releases encoder and decoder resources.
func (c *Compressor) Close() error {
	if c.enc != nil {
		if err := c.enc.Close(); err != nil {
			return err
		}
	}
	c.dec.Close()
	return nil
}

// Compress encodes src as a single block.
func (c *Compressor) Compress(src []byte) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	switch c.codec {
	case LZ4:
		payload, err = compressLZ4(src)
	case Zstd:
		payload = c.enc.EncodeAll(src, nil)
	}
	if err != nil {
		return nil, err
	}

	// Keep incompressible data raw.
	if len(payload) == 0 || float64(len(payload)) > float64(len(src))*0.9 {
		return appendBlock(c.codec, src, nil), nil
	}
	return appendBlock(c.codec, src, payload), nil
}

func appendBlock(codec Codec, src, payload []byte) []byte {
	stored := payload
	if stored == nil {
		stored = src
	}
	out := make([]byte, HeaderSize+len(stored))
	out[0] = byte(codec)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(src)))
	if payload != nil {
		binary.LittleEndian.PutUint32(out[5:], uint32(len(payload)))
	}
	copy(out[HeaderSize:], stored)
	return out
}

func compressLZ4(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return dst[:n], nil
}

// Decompress decodes a block produced by any Compressor.
func (c *Compressor) Decompress(block []byte) ([]byte, error) {
	if len(block) < HeaderSize {
		return nil, fmt.Errorf("%w: short header", ErrCorruptBlock)
	}
	codec := Codec(block[0])
	size := binary.LittleEndian.Uint32(block[1:])
	stored := binary.LittleEndian.Uint32(block[5:])
	body := block[HeaderSize:]

	if stored == 0 {
		if uint32(len(body)) < size {
			return nil, fmt.Errorf("%w: truncated raw block", ErrCorruptBlock)
		}
		return body[:size], nil
	}
	if uint32(len(body)) < stored {
		return nil, fmt.Errorf("%w: truncated payload", ErrCorruptBlock)
	}
	body = body[:stored]

	switch codec {
	case LZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptBlock, err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("%w: size mismatch", ErrCorruptBlock)
		}
		return out, nil
	case Zstd:
		out, err := c.dec.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptBlock, err)
		}
		if uint32(len(out)) != size {
			return nil, fmt.Errorf("%w: size mismatch", ErrCorruptBlock)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown %s", ErrCorruptBlock, codec)
	}
}
