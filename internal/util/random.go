package util

import (
	"fmt"
	"math/rand"

	"github.com/genc-murat/kmersketch/internal/core/ports"
)

const Bases = "ACGT"

// RandomSequence returns n bases drawn uniformly from Bases.
func RandomSequence(rng *rand.Rand, n int) []byte {
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = Bases[rng.Intn(len(Bases))]
	}
	return seq
}

// RandomRecords returns count records with lengths in [minLen, maxLen]. The
// same seed always yields the same records.
func RandomRecords(seed int64, count, minLen, maxLen int) []ports.Record {
	if maxLen < minLen {
		panic("maxLen must not be less than minLen")
	}
	rng := rand.New(rand.NewSource(seed))
	records := make([]ports.Record, count)
	for i := range records {
		n := minLen + rng.Intn(maxLen-minLen+1)
		records[i] = ports.Record{
			ID:  fmt.Sprintf("read%d", i+1),
			Seq: RandomSequence(rng, n),
		}
	}
	return records
}

// Mutate returns a copy of seq with each base replaced by a random base with
// probability rate.
func Mutate(rng *rand.Rand, seq []byte, rate float64) []byte {
	out := append([]byte(nil), seq...)
	for i := range out {
		if rng.Float64() < rate {
			out[i] = Bases[rng.Intn(len(Bases))]
		}
	}
	return out
}
