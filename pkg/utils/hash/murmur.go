package hash

import (
	"github.com/twmb/murmur3"
)

// Murmur3 hashes with the first 64 bits of MurmurHash3 x64-128.
// Reference: https://github.com/aappleby/smhasher/wiki/MurmurHash3
type Murmur3 struct {
	seed uint64
}

func NewMurmur3(seed uint64) Murmur3 {
	return Murmur3{seed: seed}
}

func (m Murmur3) Sum64(data []byte) uint64 {
	return murmur3.SeedSum64(m.seed, data)
}

func (m Murmur3) Seed() uint64 {
	return m.seed
}

// Mix64 is the MurmurHash3 finalizer. It turns a sequential or otherwise
// poorly distributed integer into a well mixed one.
func Mix64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}
