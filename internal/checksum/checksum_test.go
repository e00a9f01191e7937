package checksum

import (
	"hash/crc32"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitives_IncrementalMatchesOneShot(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, segment by segment")

	tests := []struct {
		name string
		want uint64
	}{
		{AlgorithmXXHash, xxhash.Sum64(data)},
		{AlgorithmCRC32, uint64(crc32.ChecksumIEEE(data))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.name)
			require.NoError(t, err)

			s := p.Initial()
			for off := 0; off < len(data); off += 7 {
				end := min(off+7, len(data))
				s = p.Fold(s, data[off:end])
			}
			assert.Equal(t, tt.want, p.Finalize(s))
		})
	}
}

func TestXXHash_FoldDoesNotMutateInput(t *testing.T) {
	p := XXHash{}
	base := p.Fold(p.Initial(), []byte("abc"))
	before := p.Finalize(base)

	_ = p.Fold(base, []byte("def"))
	assert.Equal(t, before, p.Finalize(base))
}

func TestNew_UnknownAlgorithm(t *testing.T) {
	_, err := New("md4")
	require.Error(t, err)

	p, err := New("")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmXXHash, p.Name())
}
