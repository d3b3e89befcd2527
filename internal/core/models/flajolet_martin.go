package models

import (
	"math"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/pkg/errors"
)

// Phi is the Flajolet-Martin bias correction constant.
const Phi = 0.77351

// MaxFlajoletMartinBits bounds the bitmap length; a 64-bit hash cannot have
// more trailing zeros than that.
const MaxFlajoletMartinBits = 64

// FlajoletMartinCounter is a single probabilistic counting bitmap (Flajolet and
// Martin, 1985). Bit i is set once some item hashes to a value with exactly i
// trailing zeros. If R is the lowest unset bit, 2^R / Phi estimates the
// cardinality.
//
// One bitmap has high variance. Run several counters with independent seeds
// and combine them with FlajoletMartinMean.
type FlajoletMartinCounter[H hash.Hasher] struct {
	hasher H
	size   uint
	bitmap *bitset.BitSet
}

// NewFlajoletMartinCounter creates a counter with an L-bit bitmap. L should
// exceed log2 of the largest expected cardinality by a few bits.
func NewFlajoletMartinCounter[H hash.Hasher](hasher H, l uint) (*FlajoletMartinCounter[H], error) {
	if l == 0 || l > MaxFlajoletMartinBits {
		return nil, errors.Wrapf(ErrInvalidConfig, "flajolet-martin bitmap length %d not in [1,%d]", l, MaxFlajoletMartinBits)
	}
	return &FlajoletMartinCounter[H]{
		hasher: hasher,
		size:   l,
		bitmap: bitset.New(l),
	}, nil
}

func (f *FlajoletMartinCounter[H]) Kind() Kind { return KindFlajoletMartin }

// Size returns L, the bitmap length.
func (f *FlajoletMartinCounter[H]) Size() uint { return f.size }

func (f *FlajoletMartinCounter[H]) Insert(item []byte) {
	f.InsertHash(f.hasher.Sum64(item))
}

func (f *FlajoletMartinCounter[H]) InsertHash(h uint64) {
	rho := uint(bits.TrailingZeros64(h))
	f.bitmap.Set(min(rho, f.size-1))
}

// R returns the index of the lowest unset bit. A full bitmap reports L-1.
func (f *FlajoletMartinCounter[H]) R() uint {
	var r uint
	for r < f.size && f.bitmap.Test(r) {
		r++
	}
	return min(r, f.size-1)
}

func (f *FlajoletMartinCounter[H]) Estimate() (float64, error) {
	return math.Exp2(float64(f.R())) / Phi, nil
}

func (f *FlajoletMartinCounter[H]) Compatible(other *FlajoletMartinCounter[H]) bool {
	return f.size == other.size && hash.SeedOf(f.hasher) == hash.SeedOf(other.hasher)
}

// Merge ORs the bitmaps.
func (f *FlajoletMartinCounter[H]) Merge(other *FlajoletMartinCounter[H]) error {
	if f.size != other.size {
		return mismatch(KindFlajoletMartin, "bitmap length %d != %d", f.size, other.size)
	}
	if !f.Compatible(other) {
		return mismatch(KindFlajoletMartin, "hasher seed %d != %d", hash.SeedOf(f.hasher), hash.SeedOf(other.hasher))
	}
	f.bitmap.InPlaceUnion(other.bitmap)
	return nil
}

func (f *FlajoletMartinCounter[H]) Clone() *FlajoletMartinCounter[H] {
	return &FlajoletMartinCounter[H]{hasher: f.hasher, size: f.size, bitmap: f.bitmap.Clone()}
}

func (f *FlajoletMartinCounter[H]) Reset() {
	f.bitmap.ClearAll()
}

func (f *FlajoletMartinCounter[H]) MarshalBinary() ([]byte, error) {
	payload, err := f.bitmap.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshal flajolet-martin counter")
	}
	e := envelope{
		kind:    KindFlajoletMartin,
		seed:    hash.SeedOf(f.hasher),
		params:  []uint64{uint64(f.size)},
		payload: payload,
	}
	return e.encode(), nil
}

func (f *FlajoletMartinCounter[H]) UnmarshalBinary(data []byte) error {
	e, err := decodeEnvelope(data, KindFlajoletMartin, 1)
	if err != nil {
		return err
	}
	if seed := hash.SeedOf(f.hasher); e.seed != seed {
		return mismatch(KindFlajoletMartin, "encoded seed %d, hasher seed %d", e.seed, seed)
	}

	size := uint(e.params[0])
	if size == 0 || size > MaxFlajoletMartinBits {
		return errors.Wrapf(ErrCorruptSketch, "bitmap length %d", size)
	}
	bm := &bitset.BitSet{}
	if err := bm.UnmarshalBinary(e.payload); err != nil {
		return errors.Wrap(ErrCorruptSketch, err.Error())
	}
	if bm.Len() != size {
		return errors.Wrapf(ErrCorruptSketch, "bitmap length %d, want %d", bm.Len(), size)
	}

	f.size = size
	f.bitmap = bm
	return nil
}

// FlajoletMartinMean combines independent counters (same L, different seeds)
// by averaging R and returning 2^mean(R) / Phi, as in the PCSA paper.
func FlajoletMartinMean[H hash.Hasher](counters ...*FlajoletMartinCounter[H]) (float64, error) {
	if len(counters) == 0 {
		return 0, ErrNoSketches
	}
	var sum float64
	for _, c := range counters {
		if c.size != counters[0].size {
			return 0, mismatch(KindFlajoletMartin, "bitmap length %d != %d", c.size, counters[0].size)
		}
		sum += float64(c.R())
	}
	return math.Exp2(sum/float64(len(counters))) / Phi, nil
}
