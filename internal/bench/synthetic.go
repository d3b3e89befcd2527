// Package bench measures how the sketches track true cardinality, both on
// synthetic streams of distinct integers and on real sequence files.
package bench

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/axiomhq/hyperloglog"
	"github.com/genc-murat/kmersketch/internal/core/models"
	"github.com/genc-murat/kmersketch/internal/pool"
	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/pkg/errors"
)

type SyntheticConfig struct {
	Seeds       int
	MaxExponent int
	Precision   uint8
	LinearSize  uint
	FMBits      uint
	Workers     int
	Hasher      string
	HashSeed    uint64
}

// Point holds each sketch's estimate after the first N distinct values.
// Reference comes from an independent HLL++ implementation at precision 14.
type Point struct {
	N               uint64
	Linear          float64
	LinearSaturated bool
	FM              float64
	HLL             float64
	Reference       float64
}

type SyntheticRun struct {
	Seed   uint64
	Points []Point
}

// Synthetic feeds i^seed for i in [0, 2^MaxExponent) as 8-byte little-endian
// values into fresh sketches, one run per seed, and records every estimate at
// n = 2^0, 2^1, ... 2^MaxExponent. Runs are spread over a worker pool and
// returned in seed order.
func Synthetic(ctx context.Context, cfg SyntheticConfig) ([]SyntheticRun, error) {
	if cfg.Seeds <= 0 || cfg.MaxExponent < 0 || cfg.MaxExponent > 40 {
		return nil, errors.Wrapf(models.ErrInvalidConfig, "seeds=%d max_exponent=%d", cfg.Seeds, cfg.MaxExponent)
	}

	if _, err := hash.New(cfg.Hasher, cfg.HashSeed); err != nil {
		return nil, err
	}

	runs := make([]SyntheticRun, cfg.Seeds)
	p := pool.NewWorkerPool(ctx, pool.Config{Workers: cfg.Workers})
	for i := range runs {
		seed := uint64(i + 1)
		err := p.Go(func(ctx context.Context) error {
			run, err := syntheticRun(ctx, seed, cfg)
			runs[i] = run
			return err
		})
		if err != nil {
			if waitErr := p.Wait(); waitErr != nil {
				return nil, waitErr
			}
			return nil, err
		}
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

func syntheticRun(ctx context.Context, seed uint64, cfg SyntheticConfig) (SyntheticRun, error) {
	hasher, err := hash.New(cfg.Hasher, cfg.HashSeed)
	if err != nil {
		return SyntheticRun{}, err
	}

	linear, err := models.NewLinearCounter(hasher, cfg.LinearSize)
	if err != nil {
		return SyntheticRun{}, err
	}
	fm, err := models.NewFlajoletMartinCounter(hasher, cfg.FMBits)
	if err != nil {
		return SyntheticRun{}, err
	}
	hll, err := models.NewHyperLogLog(hasher, cfg.Precision)
	if err != nil {
		return SyntheticRun{}, err
	}
	reference := hyperloglog.New14()

	run := SyntheticRun{Seed: seed, Points: make([]Point, 0, cfg.MaxExponent+1)}
	var buf [8]byte
	var next uint64
	for e := range cfg.MaxExponent + 1 {
		if err := ctx.Err(); err != nil {
			return SyntheticRun{}, err
		}

		n := uint64(1) << e
		for ; next < n; next++ {
			binary.LittleEndian.PutUint64(buf[:], next^seed)
			h := hasher.Sum64(buf[:])
			linear.InsertHash(h)
			fm.InsertHash(h)
			hll.InsertHash(h)
			reference.InsertHash(h)
		}

		point := Point{N: n, Reference: float64(reference.Estimate())}
		point.Linear, err = linear.Estimate()
		if errors.Is(err, models.ErrEstimateOutOfRange) {
			point.LinearSaturated = true
		}
		point.FM, _ = fm.Estimate()
		point.HLL, _ = hll.Estimate()
		run.Points = append(run.Points, point)
	}
	return run, nil
}

func relErr(estimate, truth float64) float64 {
	if truth == 0 {
		return math.Abs(estimate)
	}
	return math.Abs(estimate-truth) / truth
}

// WriteSyntheticTable prints, for each n, the mean relative error of each
// sketch across all runs. A "*" marks rows where the linear counter
// saturated in at least one run.
func WriteSyntheticTable(w io.Writer, runs []SyntheticRun) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "n\tlinear\tfm\thll\treference\t")
	if len(runs) == 0 {
		return tw.Flush()
	}

	for i := range runs[0].Points {
		var linear, fm, hll, ref float64
		saturated := ""
		n := float64(runs[0].Points[i].N)
		for _, run := range runs {
			pt := run.Points[i]
			linear += relErr(pt.Linear, n)
			fm += relErr(pt.FM, n)
			hll += relErr(pt.HLL, n)
			ref += relErr(pt.Reference, n)
			if pt.LinearSaturated {
				saturated = "*"
			}
		}
		k := float64(len(runs))
		fmt.Fprintf(tw, "%d\t%.4f%s\t%.4f\t%.4f\t%.4f\t\n", runs[0].Points[i].N, linear/k, saturated, fm/k, hll/k, ref/k)
	}
	return tw.Flush()
}
