package hash

import (
	"encoding/binary"
	"hash/fnv"
)

// FNV is FNV-1a over the seed bytes followed by the data. It is slower and
// weaker than the other hashers and mostly useful as a baseline.
type FNV struct {
	seed   uint64
	prefix [8]byte
}

func NewFNV(seed uint64) FNV {
	f := FNV{seed: seed}
	binary.LittleEndian.PutUint64(f.prefix[:], seed)
	return f
}

func (f FNV) Sum64(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(f.prefix[:])
	h.Write(data)
	return Mix64(h.Sum64())
}

func (f FNV) Seed() uint64 {
	return f.seed
}
