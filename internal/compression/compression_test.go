package compression

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("segment page "), 4096)
	random := make([]byte, 4096)
	_, _ = rand.Read(random)

	for _, codec := range []Codec{None, LZ4, Zstd} {
		t.Run(codec.String(), func(t *testing.T) {
			c, err := New(codec, 5)
			require.NoError(t, err)
			defer c.Close()

			for _, src := range [][]byte{compressible, random, {}} {
				block, err := c.Compress(src)
				require.NoError(t, err)
				got, err := c.Decompress(block)
				require.NoError(t, err)
				assert.Equal(t, len(src), len(got))
				assert.True(t, bytes.Equal(src, got))
			}
		})
	}
}

func TestCompressibleDataShrinks(t *testing.T) {
	src := bytes.Repeat([]byte{0xAB}, 64*1024)
	for _, codec := range []Codec{LZ4, Zstd} {
		c, err := New(codec, 3)
		require.NoError(t, err)
		block, err := c.Compress(src)
		require.NoError(t, err)
		assert.Less(t, len(block), len(src)/10, codec.String())
		require.NoError(t, c.Close())
	}
}

func TestCrossCodecDecode(t *testing.T) {
	src := bytes.Repeat([]byte("cross codec "), 1000)

	lz, err := New(LZ4, 0)
	require.NoError(t, err)
	defer lz.Close()
	zs, err := New(Zstd, 19)
	require.NoError(t, err)
	defer zs.Close()

	block, err := lz.Compress(src)
	require.NoError(t, err)
	got, err := zs.Decompress(block)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	block, err = zs.Compress(src)
	require.NoError(t, err)
	got, err = lz.Decompress(block)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestLevelValidation(t *testing.T) {
	assert.False(t, ValidLevel(0))
	assert.True(t, ValidLevel(1))
	assert.True(t, ValidLevel(22))
	assert.False(t, ValidLevel(23))

	_, err := New(Zstd, 0)
	assert.ErrorIs(t, err, ErrInvalidLevel)
	_, err = New(Zstd, 23)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestCorruptBlocks(t *testing.T) {
	c, err := New(Zstd, 3)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Decompress([]byte{1, 2})
	assert.ErrorIs(t, err, ErrCorruptBlock)

	block, err := c.Compress(bytes.Repeat([]byte("x"), 1024))
	require.NoError(t, err)
	_, err = c.Decompress(block[:len(block)-1])
	assert.ErrorIs(t, err, ErrCorruptBlock)

	block[0] = 9
	_, err = c.Decompress(block)
	assert.ErrorIs(t, err, ErrCorruptBlock)
}
