package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/genc-murat/kmersketch/internal/config"
	"github.com/genc-murat/kmersketch/internal/core/models"
	"github.com/genc-murat/kmersketch/internal/core/ports"
	"github.com/genc-murat/kmersketch/internal/fasta"
	"github.com/genc-murat/kmersketch/internal/metrics"
	"github.com/genc-murat/kmersketch/internal/pipeline"
	util "github.com/genc-murat/kmersketch/pkg/utils"
	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func countCommand(s *settings) *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   "count FILE...",
		Short: "Estimate distinct k-mers in sequence files",
		Long: `Estimate the number of distinct k-mers across one or more FASTA/FASTQ
files (plain or gzipped) and report the k-mer complexity, the ratio of
distinct to total k-mers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}
			return runCount(cmd.Context(), cmd.OutOrStdout(), cfg, args, save)
		},
	}
	s.pipelineFlags(cmd)
	s.sketchFlags(cmd)
	cmd.Flags().StringVar(&save, "save", "", "Save the sketch in the store under this name")
	return cmd
}

func runCount(ctx context.Context, out io.Writer, cfg *config.Config, files []string, save string) error {
	hasher, err := hash.New(cfg.Sketch.Hasher, cfg.Sketch.Seed)
	if err != nil {
		return err
	}
	kind, err := models.ParseKind(cfg.Sketch.Kind)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	opts := pipelineOptions(cfg, m)
	opts.Logger.Printf("Counting %d file(s) with %s (k=%d)", len(files), kind, cfg.Pipeline.KmerLength)

	if cfg.Logging.Verbose && cfg.Logging.Progress {
		bar := pb.Full.Start64(totalSize(files))
		bar.Set(pb.Bytes, true)
		defer bar.Finish()
		opts.OnRecord = func(rec ports.Record, _ uint64) {
			bar.Add(len(rec.ID) + len(rec.Seq) + 2)
		}
	}

	c := counter{ctx: ctx, out: out, cfg: cfg, files: files, save: save, opts: opts}
	switch kind {
	case models.KindExact:
		err = count(c, func() *models.ExactCounter[hash.Hasher] {
			return models.NewExactCounter(hasher)
		})
	case models.KindLinear:
		if _, err := models.NewLinearCounter(hasher, cfg.Sketch.LinearSize); err != nil {
			return err
		}
		err = count(c, func() *models.LinearCounter[hash.Hasher] {
			l, _ := models.NewLinearCounter(hasher, cfg.Sketch.LinearSize)
			return l
		})
	case models.KindFlajoletMartin:
		if _, err := models.NewFlajoletMartinCounter(hasher, cfg.Sketch.FMBits); err != nil {
			return err
		}
		err = count(c, func() *models.FlajoletMartinCounter[hash.Hasher] {
			f, _ := models.NewFlajoletMartinCounter(hasher, cfg.Sketch.FMBits)
			return f
		})
	case models.KindHyperLogLog:
		if _, err := models.NewHyperLogLog(hasher, cfg.Sketch.Precision); err != nil {
			return err
		}
		err = count(c, func() *models.HyperLogLog[hash.Hasher] {
			h, _ := models.NewHyperLogLog(hasher, cfg.Sketch.Precision)
			return h
		})
	}
	if err != nil {
		return err
	}

	opts.Logger.Printf("Metrics:\n%s", util.FormatStats(m.GetStats()))
	return nil
}

type counter struct {
	ctx   context.Context
	out   io.Writer
	cfg   *config.Config
	files []string
	save  string
	opts  pipeline.Options
}

func count[S models.Sketch[S]](c counter, newSketch func() S) error {
	src := fasta.NewMultiReader(c.files...)
	defer src.Close()

	res, err := pipeline.RunSource(c.ctx, src, newSketch, c.opts)
	if err != nil {
		return err
	}

	estimate, estErr := res.Estimate()
	complexity, _ := res.Complexity()

	fmt.Fprintf(c.out, "Counter:      %s\n", res.Sketch.Kind())
	fmt.Fprintf(c.out, "Records:      %d\n", res.Records)
	fmt.Fprintf(c.out, "Total k-mers: %d\n", res.TotalKmers)
	fmt.Fprintf(c.out, "Estimate:     %.0f\n", estimate)
	fmt.Fprintf(c.out, "Complexity:   %.6f\n", complexity)
	fmt.Fprintf(c.out, "Workers:      %d\n", res.Workers)
	fmt.Fprintf(c.out, "Elapsed:      %s\n", res.Elapsed.Round(time.Millisecond))
	if errors.Is(estErr, models.ErrEstimateOutOfRange) {
		fmt.Fprintf(c.out, "Warning:      %v; increase --linear-size\n", estErr)
	}

	if c.save == "" {
		return nil
	}
	store, err := openStore(c.cfg)
	if err != nil {
		return err
	}
	if err := store.Save(c.save, res.Sketch); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Saved:        %s\n", c.save)
	return nil
}

func totalSize(files []string) int64 {
	var total int64
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			total += info.Size()
		}
	}
	return total
}
