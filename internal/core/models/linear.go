package models

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/pkg/errors"
)

// LinearCounter implements linear counting ("A Linear-Time Probabilistic
// Counting Algorithm for Database Applications", Whang et al. 1990).
//
// Every item sets bit hash mod m of an m-bit map; bits are never cleared. With V
// zero bits left the estimate is -m * ln(V/m). Accuracy is good while the map is
// far from full, so m should be about twice the expected cardinality. Once every
// bit is set the formula is undefined and Estimate reports
// ErrEstimateOutOfRange.
type LinearCounter[H hash.Hasher] struct {
	hasher H
	size   uint
	bitmap *bitset.BitSet
}

// NewLinearCounter creates a counter with an m-bit map.
func NewLinearCounter[H hash.Hasher](hasher H, m uint) (*LinearCounter[H], error) {
	if m == 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "linear counter size must be greater than zero")
	}
	return &LinearCounter[H]{
		hasher: hasher,
		size:   m,
		bitmap: bitset.New(m),
	}, nil
}

// NewLinearCounterForCardinality sizes the bit map at twice the expected
// number of distinct items.
func NewLinearCounterForCardinality[H hash.Hasher](hasher H, expected uint) (*LinearCounter[H], error) {
	return NewLinearCounter(hasher, max(2*expected, 1))
}

func (l *LinearCounter[H]) Kind() Kind { return KindLinear }

// Size returns m, the length of the bit map.
func (l *LinearCounter[H]) Size() uint { return l.size }

func (l *LinearCounter[H]) Insert(item []byte) {
	l.InsertHash(l.hasher.Sum64(item))
}

func (l *LinearCounter[H]) InsertHash(h uint64) {
	l.bitmap.Set(uint(h % uint64(l.size)))
}

// ZeroBits returns V, the number of bits still unset.
func (l *LinearCounter[H]) ZeroBits() uint {
	return l.size - l.bitmap.Count()
}

// Estimate returns -m * ln(V/m). A saturated map (V = 0) yields the lower
// bound m * ln(m), computed as if one bit were still clear, together with
// ErrEstimateOutOfRange.
func (l *LinearCounter[H]) Estimate() (float64, error) {
	m := float64(l.size)
	v := l.ZeroBits()
	if v == 0 {
		return m * math.Log(m), errors.Wrapf(ErrEstimateOutOfRange, "linear counter of %d bits is saturated", l.size)
	}
	return m * math.Log(m/float64(v)), nil
}

func (l *LinearCounter[H]) Compatible(other *LinearCounter[H]) bool {
	return l.size == other.size && hash.SeedOf(l.hasher) == hash.SeedOf(other.hasher)
}

// Merge ORs the bit maps, which is the map a single counter would hold after
// seeing both input streams.
func (l *LinearCounter[H]) Merge(other *LinearCounter[H]) error {
	if l.size != other.size {
		return mismatch(KindLinear, "size %d != %d", l.size, other.size)
	}
	if !l.Compatible(other) {
		return mismatch(KindLinear, "hasher seed %d != %d", hash.SeedOf(l.hasher), hash.SeedOf(other.hasher))
	}
	l.bitmap.InPlaceUnion(other.bitmap)
	return nil
}

func (l *LinearCounter[H]) Clone() *LinearCounter[H] {
	return &LinearCounter[H]{hasher: l.hasher, size: l.size, bitmap: l.bitmap.Clone()}
}

func (l *LinearCounter[H]) Reset() {
	l.bitmap.ClearAll()
}

func (l *LinearCounter[H]) MarshalBinary() ([]byte, error) {
	payload, err := l.bitmap.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshal linear counter")
	}
	e := envelope{
		kind:    KindLinear,
		seed:    hash.SeedOf(l.hasher),
		params:  []uint64{uint64(l.size)},
		payload: payload,
	}
	return e.encode(), nil
}

// UnmarshalBinary replaces the receiver's state, size included, with the
// encoded counter. The encoded seed must match the receiver's hasher.
func (l *LinearCounter[H]) UnmarshalBinary(data []byte) error {
	e, err := decodeEnvelope(data, KindLinear, 1)
	if err != nil {
		return err
	}
	if seed := hash.SeedOf(l.hasher); e.seed != seed {
		return mismatch(KindLinear, "encoded seed %d, hasher seed %d", e.seed, seed)
	}

	size := uint(e.params[0])
	if size == 0 {
		return errors.Wrap(ErrCorruptSketch, "linear counter size is zero")
	}
	bm := &bitset.BitSet{}
	if err := bm.UnmarshalBinary(e.payload); err != nil {
		return errors.Wrap(ErrCorruptSketch, err.Error())
	}
	if bm.Len() != size {
		return errors.Wrapf(ErrCorruptSketch, "bit map length %d, want %d", bm.Len(), size)
	}

	l.size = size
	l.bitmap = bm
	return nil
}
