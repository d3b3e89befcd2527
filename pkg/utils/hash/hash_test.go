package hash

import (
	"encoding/binary"
	"math/bits"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			h, err := New(name, 42)
			require.NoError(t, err)
			assert.Equal(t, uint64(42), SeedOf(h))
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := New("md5", 0)
		assert.ErrorIs(t, err, ErrUnknownHasher)
	})
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"fnv", "murmur3", "xxhash"}, Names())
}

func TestDeterministic(t *testing.T) {
	data := []byte("ACGTACGTACGTACGTACGTACGTACGTACG")
	hashers := []Hasher{NewXXHash(7), NewMurmur3(7), NewFNV(7)}

	for _, h := range hashers {
		assert.Equal(t, h.Sum64(data), h.Sum64(data))
		assert.Equal(t, h.Sum64(data), h.Sum64(append([]byte(nil), data...)))
	}
}

func TestSeedChangesOutput(t *testing.T) {
	data := []byte("GATTACA")
	tests := []struct {
		name string
		a, b Hasher
	}{
		{"xxhash", NewXXHash(1), NewXXHash(2)},
		{"murmur3", NewMurmur3(1), NewMurmur3(2)},
		{"fnv", NewFNV(1), NewFNV(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, tt.a.Sum64(data), tt.b.Sum64(data))
		})
	}
}

func TestXXHashZeroSeedIsPlain(t *testing.T) {
	data := []byte("TTTT")
	assert.Equal(t, xxhash.Sum64(data), NewXXHash(0).Sum64(data))
}

func TestMix64(t *testing.T) {
	assert.Equal(t, uint64(0), Mix64(0))
	assert.NotEqual(t, Mix64(1), Mix64(2))
}

// Sequential inputs should land on roughly half of the output bits.
func TestBitBalance(t *testing.T) {
	const n = 20000
	hashers := map[string]Hasher{
		"xxhash":  NewXXHash(0),
		"murmur3": NewMurmur3(0),
		"fnv":     NewFNV(0),
	}

	var buf [8]byte
	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			ones := 0
			for i := uint64(0); i < n; i++ {
				binary.LittleEndian.PutUint64(buf[:], i)
				ones += bits.OnesCount64(h.Sum64(buf[:]))
			}
			mean := float64(ones) / n
			assert.InDelta(t, 32.0, mean, 0.5)
		})
	}
}
