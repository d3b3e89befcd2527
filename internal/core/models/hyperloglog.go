package models

import (
	"math"
	"math/bits"

	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/pkg/errors"
)

const (
	MinPrecision = 4  // Smallest supported precision
	MaxPrecision = 18 // Largest supported precision
)

// two64 is the size of the hash space.
var two64 = math.Exp2(64)

// alphaTable holds the published bias constants for small register counts.
// Larger counts use 0.7213 / (1 + 1.079/m).
var alphaTable = map[uint64]float64{
	16: 0.673,
	32: 0.697,
	64: 0.709,
}

func alpha(m uint64) float64 {
	if a, ok := alphaTable[m]; ok {
		return a
	}
	return 0.7213 / (1.0 + 1.079/float64(m))
}

// HyperLogLog implements the estimator from Flajolet, Fusy, Gandouet and
// Meunier, "HyperLogLog: the analysis of a near-optimal cardinality
// estimation algorithm" (2007), over 64-bit hashes.
//
// The top p bits of a hash select one of m = 2^p registers. The register keeps
// the largest rank seen, where rank is one plus the number of leading zeros in
// the remaining 64-p bits. The relative standard error is about 1.04/sqrt(m).
type HyperLogLog[H hash.Hasher] struct {
	hasher    H
	p         uint8
	m         uint64
	alpha     float64
	registers []uint8
}

// NewHyperLogLog creates a sketch with 2^p registers, p in [4,18].
func NewHyperLogLog[H hash.Hasher](hasher H, p uint8) (*HyperLogLog[H], error) {
	if p < MinPrecision || p > MaxPrecision {
		return nil, errors.Wrapf(ErrInvalidConfig, "precision %d not in [%d,%d]", p, MinPrecision, MaxPrecision)
	}
	m := uint64(1) << p
	return &HyperLogLog[H]{
		hasher:    hasher,
		p:         p,
		m:         m,
		alpha:     alpha(m),
		registers: make([]uint8, m),
	}, nil
}

// PrecisionForError returns the smallest precision whose standard error
// 1.04/sqrt(2^p) does not exceed e.
func PrecisionForError(e float64) (uint8, error) {
	for p := uint8(MinPrecision); p <= MaxPrecision; p++ {
		if 1.04/math.Sqrt(math.Exp2(float64(p))) <= e {
			return p, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidConfig, "relative error %g needs precision above %d", e, MaxPrecision)
}

func (h *HyperLogLog[H]) Kind() Kind { return KindHyperLogLog }

// Precision returns p.
func (h *HyperLogLog[H]) Precision() uint8 { return h.p }

// RelativeError returns the standard error 1.04/sqrt(m).
func (h *HyperLogLog[H]) RelativeError() float64 {
	return 1.04 / math.Sqrt(float64(h.m))
}

func (h *HyperLogLog[H]) Insert(item []byte) {
	h.InsertHash(h.hasher.Sum64(item))
}

func (h *HyperLogLog[H]) InsertHash(x uint64) {
	idx := x >> (64 - h.p)
	width := 64 - h.p
	rank := min(uint8(bits.LeadingZeros64(x<<h.p))+1, width)
	if rank > h.registers[idx] {
		h.registers[idx] = rank
	}
}

// Registers returns a copy of the register array.
func (h *HyperLogLog[H]) Registers() []uint8 {
	out := make([]uint8, len(h.registers))
	copy(out, h.registers)
	return out
}

// Estimate applies the raw harmonic-mean estimate with the small-range
// (linear counting) and large-range corrections from the paper.
func (h *HyperLogLog[H]) Estimate() (float64, error) {
	m := float64(h.m)

	sum := 0.0
	zeros := 0
	for _, r := range h.registers {
		sum += math.Ldexp(1, -int(r))
		if r == 0 {
			zeros++
		}
	}

	estimate := h.alpha * m * m / sum

	switch {
	case estimate <= 2.5*m:
		if zeros > 0 {
			estimate = m * math.Log(m/float64(zeros))
		}
	case estimate > two64/30:
		// Registers are capped at 64-p, so estimate < alpha*2^64.
		estimate = -two64 * math.Log(1-estimate/two64)
	}

	return estimate, nil
}

func (h *HyperLogLog[H]) Compatible(other *HyperLogLog[H]) bool {
	return h.p == other.p && hash.SeedOf(h.hasher) == hash.SeedOf(other.hasher)
}

// Merge takes the element-wise register maximum.
func (h *HyperLogLog[H]) Merge(other *HyperLogLog[H]) error {
	if h.p != other.p {
		return mismatch(KindHyperLogLog, "precision %d != %d", h.p, other.p)
	}
	if !h.Compatible(other) {
		return mismatch(KindHyperLogLog, "hasher seed %d != %d", hash.SeedOf(h.hasher), hash.SeedOf(other.hasher))
	}
	for i, r := range other.registers {
		if r > h.registers[i] {
			h.registers[i] = r
		}
	}
	return nil
}

func (h *HyperLogLog[H]) Clone() *HyperLogLog[H] {
	c := *h
	c.registers = h.Registers()
	return &c
}

func (h *HyperLogLog[H]) Reset() {
	clear(h.registers)
}

func (h *HyperLogLog[H]) MarshalBinary() ([]byte, error) {
	e := envelope{
		kind:    KindHyperLogLog,
		seed:    hash.SeedOf(h.hasher),
		params:  []uint64{uint64(h.p)},
		payload: h.registers,
	}
	return e.encode(), nil
}

// UnmarshalBinary replaces the receiver's state, precision included, with the
// encoded sketch.
func (h *HyperLogLog[H]) UnmarshalBinary(data []byte) error {
	e, err := decodeEnvelope(data, KindHyperLogLog, 1)
	if err != nil {
		return err
	}
	if seed := hash.SeedOf(h.hasher); e.seed != seed {
		return mismatch(KindHyperLogLog, "encoded seed %d, hasher seed %d", e.seed, seed)
	}

	p := e.params[0]
	if p < MinPrecision || p > MaxPrecision {
		return errors.Wrapf(ErrCorruptSketch, "precision %d", p)
	}
	m := uint64(1) << p
	if uint64(len(e.payload)) != m {
		return errors.Wrapf(ErrCorruptSketch, "%d registers, want %d", len(e.payload), m)
	}
	for _, r := range e.payload {
		if r > 64-uint8(p) {
			return errors.Wrapf(ErrCorruptSketch, "register value %d", r)
		}
	}

	h.p = uint8(p)
	h.m = m
	h.alpha = alpha(m)
	h.registers = e.payload
	return nil
}
