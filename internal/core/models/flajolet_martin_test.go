package models

import (
	"math"
	"testing"

	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlajoletMartinCounter(t *testing.T) {
	for _, l := range []uint{0, 65} {
		_, err := NewFlajoletMartinCounter(hash.NewXXHash(0), l)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
}

func TestFlajoletMartinFirstGap(t *testing.T) {
	f, err := NewFlajoletMartinCounter(hash.NewXXHash(0), 32)
	require.NoError(t, err)
	assert.Equal(t, uint(0), f.R())

	f.InsertHash(0b1)    // rho 0
	f.InsertHash(0b10)   // rho 1
	f.InsertHash(0b1000) // rho 3, leaves a gap at 2
	assert.Equal(t, uint(2), f.R())

	e, err := f.Estimate()
	require.NoError(t, err)
	assert.InDelta(t, 4/Phi, e, 1e-9)
}

func TestFlajoletMartinClampsRho(t *testing.T) {
	f, err := NewFlajoletMartinCounter(hash.NewXXHash(0), 8)
	require.NoError(t, err)

	f.InsertHash(0) // 64 trailing zeros
	assert.True(t, f.bitmap.Test(7))

	for i := 0; i < 8; i++ {
		f.InsertHash(1 << i)
	}
	assert.Equal(t, uint(7), f.R())
}

func TestFlajoletMartinMean(t *testing.T) {
	const n = 1 << 16
	var counters []*FlajoletMartinCounter[hash.Murmur3]
	for seed := uint64(1); seed <= 16; seed++ {
		f, err := NewFlajoletMartinCounter(hash.NewMurmur3(seed), 32)
		require.NoError(t, err)
		insertRange(f, 0, n)
		counters = append(counters, f)
	}

	e, err := FlajoletMartinMean(counters...)
	require.NoError(t, err)
	// Averaging R over 16 bitmaps keeps the estimate within a factor of two.
	assert.Greater(t, e, n/2.0)
	assert.Less(t, e, n*2.0)

	_, err = FlajoletMartinMean[hash.Murmur3]()
	assert.ErrorIs(t, err, ErrNoSketches)

	short, err := NewFlajoletMartinCounter(hash.NewMurmur3(99), 16)
	require.NoError(t, err)
	_, err = FlajoletMartinMean(counters[0], short)
	assert.ErrorIs(t, err, ErrConfigMismatch)
}

func TestFlajoletMartinSingleCounterOrderOfMagnitude(t *testing.T) {
	f, err := NewFlajoletMartinCounter(hash.NewXXHash(3), 32)
	require.NoError(t, err)
	insertRange(f, 0, 10000)

	e, err := f.Estimate()
	require.NoError(t, err)
	assert.InDelta(t, math.Log2(10000), math.Log2(e), 4)
}
