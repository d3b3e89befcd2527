package bench

import (
	"context"
	"fmt"
	"io"
	"log"
	"text/tabwriter"
	"time"

	"github.com/genc-murat/kmersketch/internal/core/models"
	"github.com/genc-murat/kmersketch/internal/core/ports"
	"github.com/genc-murat/kmersketch/internal/fasta"
	"github.com/genc-murat/kmersketch/internal/pipeline"
	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/pkg/errors"
)

type CompareConfig struct {
	K           int
	Workers     int
	SkipInvalid bool
	Precision   uint8
	LinearSize  uint
	FMBits      uint
	FMInstances int
	Hasher      string
	Seed        uint64
	// Truth, when it has an entry for the file, replaces the exact counter
	// as the reference for relative errors.
	Truth  GroundTruth
	Logger *log.Logger
}

type Row struct {
	Counter    string
	Estimate   float64
	Complexity float64
	RelError   float64
	Elapsed    time.Duration
	// Note is set when the estimate is outside the sketch's reliable range.
	Note string
}

type Comparison struct {
	File        string
	K           int
	TotalKmers  uint64
	Distinct    float64
	TruthSource string
	Rows        []Row
}

// Compare counts the k-mers of one FASTA file with every sketch and reports
// each estimate against the exact distinct count.
func Compare(ctx context.Context, path string, cfg CompareConfig) (*Comparison, error) {
	records, err := fasta.ReadAll(path)
	if err != nil {
		return nil, err
	}
	return CompareRecords(ctx, path, records, cfg)
}

// CompareRecords is Compare over records already in memory; name is used for
// the report and the ground truth lookup.
func CompareRecords(ctx context.Context, name string, records []ports.Record, cfg CompareConfig) (*Comparison, error) {
	hasher, err := hash.New(cfg.Hasher, cfg.Seed)
	if err != nil {
		return nil, err
	}
	if _, err := models.NewLinearCounter(hasher, cfg.LinearSize); err != nil {
		return nil, err
	}
	if _, err := models.NewFlajoletMartinCounter(hasher, cfg.FMBits); err != nil {
		return nil, err
	}
	if _, err := models.NewHyperLogLog(hasher, cfg.Precision); err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Workers:     cfg.Workers,
		K:           cfg.K,
		SkipInvalid: cfg.SkipInvalid,
		Logger:      cfg.Logger,
	}

	cmp := &Comparison{File: name, K: cfg.K}
	var rows []Row

	exact, err := pipeline.Run(ctx, records, func() *models.ExactCounter[hash.Hasher] {
		return models.NewExactCounter(hasher)
	}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "exact")
	}
	cmp.TotalKmers = exact.TotalKmers
	cmp.Distinct = float64(exact.Sketch.Len())
	cmp.TruthSource = "exact"
	if n, ok := cfg.Truth.Lookup(name); ok {
		cmp.Distinct = float64(n)
		cmp.TruthSource = "ground truth"
	}
	rows = append(rows, row(cmp, "Exact", exact))

	linear, err := pipeline.Run(ctx, records, func() *models.LinearCounter[hash.Hasher] {
		l, _ := models.NewLinearCounter(hasher, cfg.LinearSize)
		return l
	}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "linear")
	}
	rows = append(rows, row(cmp, "Linear", linear))

	fm, err := compareFM(ctx, records, cfg, opts)
	if err != nil {
		return nil, errors.Wrap(err, "fm")
	}
	fm.Complexity = ratio(fm.Estimate, cmp.TotalKmers)
	fm.RelError = relErr(fm.Estimate, cmp.Distinct)
	rows = append(rows, fm)

	hll, err := pipeline.Run(ctx, records, func() *models.HyperLogLog[hash.Hasher] {
		h, _ := models.NewHyperLogLog(hasher, cfg.Precision)
		return h
	}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "hll")
	}
	rows = append(rows, row(cmp, "HLL", hll))

	cmp.Rows = rows
	return cmp, nil
}

// compareFM averages FMInstances counters seeded cfg.Seed, cfg.Seed+1, ...
func compareFM(ctx context.Context, records []ports.Record, cfg CompareConfig, opts pipeline.Options) (Row, error) {
	if cfg.FMInstances <= 0 {
		return Row{}, errors.Wrapf(models.ErrInvalidConfig, "fm instances %d", cfg.FMInstances)
	}

	start := time.Now()
	counters := make([]*models.FlajoletMartinCounter[hash.Hasher], cfg.FMInstances)
	for i := range counters {
		hasher, err := hash.New(cfg.Hasher, cfg.Seed+uint64(i))
		if err != nil {
			return Row{}, err
		}
		res, err := pipeline.Run(ctx, records, func() *models.FlajoletMartinCounter[hash.Hasher] {
			f, _ := models.NewFlajoletMartinCounter(hasher, cfg.FMBits)
			return f
		}, opts)
		if err != nil {
			return Row{}, err
		}
		counters[i] = res.Sketch
	}

	estimate, err := models.FlajoletMartinMean(counters...)
	if err != nil {
		return Row{}, err
	}
	return Row{
		Counter:  fmt.Sprintf("FM x%d", cfg.FMInstances),
		Estimate: estimate,
		Elapsed:  time.Since(start),
	}, nil
}

func row[S models.Sketch[S]](cmp *Comparison, name string, res pipeline.Result[S]) Row {
	estimate, err := res.Estimate()
	r := Row{
		Counter:    name,
		Estimate:   estimate,
		Complexity: ratio(estimate, res.TotalKmers),
		RelError:   relErr(estimate, cmp.Distinct),
		Elapsed:    res.Elapsed,
	}
	if errors.Is(err, models.ErrEstimateOutOfRange) {
		r.Note = "saturated"
	}
	return r
}

func ratio(estimate float64, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return min(max(estimate/float64(total), 0), 1)
}

func WriteComparisonTable(w io.Writer, cmp *Comparison) error {
	fmt.Fprintf(w, "%s (k=%d): %d k-mers, %.0f distinct (%s)\n", cmp.File, cmp.K, cmp.TotalKmers, cmp.Distinct, cmp.TruthSource)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Counter\tComplexity\tEstimate\tRel Error (%)\tTime\t")
	for _, r := range cmp.Rows {
		fmt.Fprintf(tw, "%s\t%.6f\t%.0f\t%.4f\t%s\t%s\n", r.Counter, r.Complexity, r.Estimate, r.RelError*100, r.Elapsed.Round(time.Millisecond), r.Note)
	}
	return tw.Flush()
}
