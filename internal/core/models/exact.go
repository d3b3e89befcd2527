package models

import (
	"encoding/binary"
	"slices"

	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/pkg/errors"
)

// ExactCounter keeps every distinct hash it has seen. Its estimate is exact up
// to 64-bit hash collisions, which makes it the ground-truth baseline for the
// probabilistic sketches. Memory grows linearly with the cardinality.
type ExactCounter[H hash.Hasher] struct {
	hasher H
	set    map[uint64]struct{}
}

func NewExactCounter[H hash.Hasher](hasher H) *ExactCounter[H] {
	return &ExactCounter[H]{
		hasher: hasher,
		set:    make(map[uint64]struct{}),
	}
}

func (c *ExactCounter[H]) Kind() Kind { return KindExact }

func (c *ExactCounter[H]) Insert(item []byte) {
	c.set[c.hasher.Sum64(item)] = struct{}{}
}

func (c *ExactCounter[H]) InsertHash(h uint64) {
	c.set[h] = struct{}{}
}

func (c *ExactCounter[H]) Estimate() (float64, error) {
	return float64(len(c.set)), nil
}

// Len returns the number of distinct hashes held.
func (c *ExactCounter[H]) Len() int {
	return len(c.set)
}

// Compatible only requires both counters to hash with the same seed; the
// exact counter has no capacity parameter.
func (c *ExactCounter[H]) Compatible(other *ExactCounter[H]) bool {
	return hash.SeedOf(c.hasher) == hash.SeedOf(other.hasher)
}

// Merge forms the set union of both counters.
func (c *ExactCounter[H]) Merge(other *ExactCounter[H]) error {
	if !c.Compatible(other) {
		return mismatch(KindExact, "hasher seed %d != %d", hash.SeedOf(c.hasher), hash.SeedOf(other.hasher))
	}
	for h := range other.set {
		c.set[h] = struct{}{}
	}
	return nil
}

func (c *ExactCounter[H]) Clone() *ExactCounter[H] {
	set := make(map[uint64]struct{}, len(c.set))
	for h := range c.set {
		set[h] = struct{}{}
	}
	return &ExactCounter[H]{hasher: c.hasher, set: set}
}

func (c *ExactCounter[H]) Reset() {
	clear(c.set)
}

// MarshalBinary stores the hashes in ascending order so equal sets always
// encode to equal bytes.
func (c *ExactCounter[H]) MarshalBinary() ([]byte, error) {
	hashes := make([]uint64, 0, len(c.set))
	for h := range c.set {
		hashes = append(hashes, h)
	}
	slices.Sort(hashes)

	payload := make([]byte, 8*len(hashes))
	for i, h := range hashes {
		binary.LittleEndian.PutUint64(payload[8*i:], h)
	}

	e := envelope{kind: KindExact, seed: hash.SeedOf(c.hasher), payload: payload}
	return e.encode(), nil
}

func (c *ExactCounter[H]) UnmarshalBinary(data []byte) error {
	e, err := decodeEnvelope(data, KindExact, 0)
	if err != nil {
		return err
	}
	if seed := hash.SeedOf(c.hasher); e.seed != seed {
		return mismatch(KindExact, "encoded seed %d, hasher seed %d", e.seed, seed)
	}
	if len(e.payload)%8 != 0 {
		return errors.Wrapf(ErrCorruptSketch, "exact payload of %d bytes", len(e.payload))
	}

	set := make(map[uint64]struct{}, len(e.payload)/8)
	for i := 0; i < len(e.payload); i += 8 {
		set[binary.LittleEndian.Uint64(e.payload[i:])] = struct{}{}
	}
	c.set = set
	return nil
}
