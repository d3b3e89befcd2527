package bench

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/genc-murat/kmersketch/internal/core/models"
	"github.com/genc-murat/kmersketch/internal/core/ports"
	"github.com/genc-murat/kmersketch/internal/util"
	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Seeds:       3,
		MaxExponent: 12,
		Precision:   12,
		LinearSize:  1 << 16,
		FMBits:      32,
		Workers:     2,
		Hasher:      "xxhash",
	}
}

func TestSynthetic(t *testing.T) {
	runs, err := Synthetic(context.Background(), syntheticConfig())
	require.NoError(t, err)
	require.Len(t, runs, 3)

	for i, run := range runs {
		assert.Equal(t, uint64(i+1), run.Seed)
		require.Len(t, run.Points, 13)
		for e, pt := range run.Points {
			assert.Equal(t, uint64(1)<<e, pt.N)
		}

		last := run.Points[12]
		assert.InDelta(t, 4096, last.HLL, 4096*0.1)
		assert.InDelta(t, 4096, last.Linear, 4096*0.05)
		assert.InDelta(t, 4096, last.Reference, 4096*0.1)
		assert.False(t, last.LinearSaturated)
		assert.Greater(t, last.FM, 0.0)
	}
}

func TestSyntheticDeterministic(t *testing.T) {
	cfg := syntheticConfig()
	a, err := Synthetic(context.Background(), cfg)
	require.NoError(t, err)

	cfg.Workers = 1
	b, err := Synthetic(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSyntheticLinearSaturates(t *testing.T) {
	cfg := syntheticConfig()
	cfg.Seeds = 1
	cfg.LinearSize = 64

	runs, err := Synthetic(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, runs[0].Points[12].LinearSaturated)
}

func TestSyntheticHasher(t *testing.T) {
	cfg := syntheticConfig()
	cfg.Seeds = 1
	xx, err := Synthetic(context.Background(), cfg)
	require.NoError(t, err)

	cfg.Hasher = "murmur3"
	mm, err := Synthetic(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, xx[0].Points[12].HLL, mm[0].Points[12].HLL)
	assert.InDelta(t, 4096, mm[0].Points[12].HLL, 4096*0.1)

	cfg.HashSeed = 7
	seeded, err := Synthetic(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, mm[0].Points[12].HLL, seeded[0].Points[12].HLL)

	cfg.Hasher = "sha1"
	_, err = Synthetic(context.Background(), cfg)
	assert.ErrorIs(t, err, hash.ErrUnknownHasher)
}

func TestSyntheticInvalidConfig(t *testing.T) {
	cfg := syntheticConfig()
	cfg.Seeds = 0
	_, err := Synthetic(context.Background(), cfg)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)

	cfg = syntheticConfig()
	cfg.Precision = 30
	_, err = Synthetic(context.Background(), cfg)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestWriteSyntheticTable(t *testing.T) {
	runs := []SyntheticRun{
		{Seed: 1, Points: []Point{{N: 1, Linear: 1, FM: 2, HLL: 1, Reference: 1}, {N: 2, Linear: 2, FM: 1, HLL: 3, Reference: 2, LinearSaturated: true}}},
		{Seed: 2, Points: []Point{{N: 1, Linear: 1, FM: 1, HLL: 1, Reference: 1}, {N: 2, Linear: 2, FM: 2, HLL: 2, Reference: 2}}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSyntheticTable(&buf, runs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"n", "linear", "fm", "hll", "reference"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "0.0000", "0.5000", "0.0000", "0.0000"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "0.0000*", "0.2500", "0.2500", "0.0000"}, strings.Fields(lines[2]))
}

func TestParseGroundTruth(t *testing.T) {
	truth, err := ParseGroundTruth([]byte(`{"datasets":[{"name":"ecoli","distinct_kmers":4567890},{"name":"phage.fa","distinct_kmers":12}]}`))
	require.NoError(t, err)

	n, ok := truth.Lookup("/data/ecoli.fasta")
	assert.True(t, ok)
	assert.Equal(t, uint64(4567890), n)

	n, ok = truth.Lookup("phage.fa")
	assert.True(t, ok)
	assert.Equal(t, uint64(12), n)

	_, ok = truth.Lookup("other.fa")
	assert.False(t, ok)
}

func TestParseGroundTruthErrors(t *testing.T) {
	for _, input := range []string{
		`not json`,
		`{"sets":[]}`,
		`{"datasets":[{"name":"x"}]}`,
		`{"datasets":[{"name":1,"distinct_kmers":2}]}`,
	} {
		_, err := ParseGroundTruth([]byte(input))
		assert.ErrorIs(t, err, ErrBadGroundTruth, input)
	}
}

func TestLoadGroundTruth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truth.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"datasets":[{"name":"a","distinct_kmers":3}]}`), 0o644))

	truth, err := LoadGroundTruth(path)
	require.NoError(t, err)
	assert.Equal(t, GroundTruth{"a": 3}, truth)

	_, err = LoadGroundTruth(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func compareConfig() CompareConfig {
	return CompareConfig{
		K:           15,
		Workers:     4,
		Precision:   12,
		LinearSize:  1 << 16,
		FMBits:      32,
		FMInstances: 8,
		Hasher:      "xxhash",
		Seed:        1,
	}
}

func randomRecords(count, length int) []ports.Record {
	return util.RandomRecords(42, count, length, length)
}

func TestCompareRecords(t *testing.T) {
	records := randomRecords(20, 500)

	cmp, err := CompareRecords(context.Background(), "random.fa", records, compareConfig())
	require.NoError(t, err)

	assert.Equal(t, uint64(20*(500-15+1)), cmp.TotalKmers)
	assert.Equal(t, "exact", cmp.TruthSource)
	require.Len(t, cmp.Rows, 4)
	assert.Equal(t, "Exact", cmp.Rows[0].Counter)
	assert.Zero(t, cmp.Rows[0].RelError)
	assert.Less(t, cmp.Rows[1].RelError, 0.05)
	assert.Less(t, cmp.Rows[3].RelError, 0.1)
	for _, r := range cmp.Rows {
		assert.False(t, math.IsNaN(r.Estimate), r.Counter)
		assert.LessOrEqual(t, r.Complexity, 1.0, r.Counter)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteComparisonTable(&buf, cmp))
	assert.Contains(t, buf.String(), "random.fa (k=15)")
	assert.Contains(t, buf.String(), "FM x8")
}

func TestCompareUsesGroundTruth(t *testing.T) {
	cfg := compareConfig()
	cfg.Truth = GroundTruth{"random": 1000}

	cmp, err := CompareRecords(context.Background(), "data/random.fa", randomRecords(2, 100), cfg)
	require.NoError(t, err)
	assert.Equal(t, "ground truth", cmp.TruthSource)
	assert.Equal(t, 1000.0, cmp.Distinct)
}

func TestCompareInvalidConfig(t *testing.T) {
	cfg := compareConfig()
	cfg.Hasher = "sha9"
	_, err := CompareRecords(context.Background(), "x", nil, cfg)
	assert.Error(t, err)

	cfg = compareConfig()
	cfg.LinearSize = 0
	_, err = CompareRecords(context.Background(), "x", nil, cfg)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestCompareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.fa")
	require.NoError(t, os.WriteFile(path, []byte(">r1\nAAACGTTT\n>r2\nacgtac\n"), 0o644))

	cfg := compareConfig()
	cfg.K = 3
	cmp, err := Compare(context.Background(), path, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(6+4), cmp.TotalKmers)
}
