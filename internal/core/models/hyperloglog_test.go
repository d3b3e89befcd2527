package models

import (
	"math"
	"testing"

	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHyperLogLog(t *testing.T) {
	for _, p := range []uint8{0, 3, 19} {
		_, err := NewHyperLogLog(hash.NewXXHash(0), p)
		assert.ErrorIs(t, err, ErrInvalidConfig, "p=%d", p)
	}

	tests := []struct {
		p     uint8
		alpha float64
	}{
		{4, 0.673},
		{5, 0.697},
		{6, 0.709},
		{14, 0.7213 / (1.0 + 1.079/16384)},
	}
	for _, tt := range tests {
		h, err := NewHyperLogLog(hash.NewXXHash(0), tt.p)
		require.NoError(t, err)
		assert.InDelta(t, tt.alpha, h.alpha, 1e-12)
		assert.Len(t, h.Registers(), 1<<tt.p)
	}
}

func TestHyperLogLogRank(t *testing.T) {
	h, err := NewHyperLogLog(hash.NewXXHash(0), 4)
	require.NoError(t, err)

	// Bucket 3, two leading zeros after the index bits.
	h.InsertHash(3<<60 | 1<<57)
	assert.Equal(t, uint8(3), h.registers[3])

	// A smaller rank never lowers a register.
	h.InsertHash(3<<60 | 1<<59)
	assert.Equal(t, uint8(3), h.registers[3])

	// All remaining bits zero: rank is capped at the remaining width.
	h.InsertHash(5 << 60)
	assert.Equal(t, uint8(60), h.registers[5])
}

func TestHyperLogLogEmpty(t *testing.T) {
	h, err := NewHyperLogLog(hash.NewXXHash(0), 10)
	require.NoError(t, err)

	e, err := h.Estimate()
	require.NoError(t, err)
	assert.Equal(t, 0.0, e)
}

func TestHyperLogLogSmallRange(t *testing.T) {
	h, err := NewHyperLogLog(hash.NewXXHash(0), 4)
	require.NoError(t, err)

	// One register at rank 1 leaves 15 zero registers.
	h.InsertHash(1 << 59)
	e, err := h.Estimate()
	require.NoError(t, err)
	assert.InDelta(t, 16*math.Log(16.0/15.0), e, 1e-9)
}

func TestHyperLogLogLargeRange(t *testing.T) {
	h, err := NewHyperLogLog(hash.NewXXHash(0), 4)
	require.NoError(t, err)

	fill := func(r uint8) float64 {
		for i := range h.registers {
			h.registers[i] = r
		}
		return 0.673 * 16 * 16 / (16 * math.Ldexp(1, -int(r)))
	}

	raw := fill(58)
	require.Greater(t, raw, two64/30)
	e, err := h.Estimate()
	require.NoError(t, err)
	assert.InEpsilon(t, -two64*math.Log(1-raw/two64), e, 1e-12)
	assert.Greater(t, e, raw)

	raw = fill(54)
	require.Less(t, raw, two64/30)
	e, err = h.Estimate()
	require.NoError(t, err)
	assert.InEpsilon(t, raw, e, 1e-12)

	raw = fill(60)
	e, err = h.Estimate()
	require.NoError(t, err)
	assert.Less(t, raw, two64)
	assert.False(t, math.IsInf(e, 0) || math.IsNaN(e))
}

func TestHyperLogLogErrorBound(t *testing.T) {
	const n = 100000
	for _, p := range []uint8{10, 12, 14} {
		for seed := uint64(1); seed <= 3; seed++ {
			h, err := NewHyperLogLog(hash.NewXXHash(seed), p)
			require.NoError(t, err)
			insertRange(h, 0, n)

			e, err := h.Estimate()
			require.NoError(t, err)
			bound := 3 * h.RelativeError() * n
			assert.InDelta(t, float64(n), e, bound, "p=%d seed=%d", p, seed)
		}
	}
}

func TestHyperLogLogPrecisionMismatch(t *testing.T) {
	a, err := NewHyperLogLog(hash.NewXXHash(0), 10)
	require.NoError(t, err)
	b, err := NewHyperLogLog(hash.NewXXHash(0), 12)
	require.NoError(t, err)

	assert.False(t, a.Compatible(b))
	assert.ErrorIs(t, a.Merge(b), ErrConfigMismatch)
}

func TestHyperLogLogUnmarshalAdoptsPrecision(t *testing.T) {
	src, err := NewHyperLogLog(hash.NewXXHash(0), 12)
	require.NoError(t, err)
	insertRange(src, 0, 1000)
	data, err := src.MarshalBinary()
	require.NoError(t, err)

	dst, err := NewHyperLogLog(hash.NewXXHash(0), 4)
	require.NoError(t, err)
	require.NoError(t, dst.UnmarshalBinary(data))
	assert.Equal(t, uint8(12), dst.Precision())
	assert.Equal(t, src.Registers(), dst.Registers())
	assert.Equal(t, src.alpha, dst.alpha)
}

func TestPrecisionForError(t *testing.T) {
	p, err := PrecisionForError(0.0163)
	require.NoError(t, err)
	assert.Equal(t, uint8(12), p)

	p, err = PrecisionForError(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(MinPrecision), p)

	_, err = PrecisionForError(0.0001)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
