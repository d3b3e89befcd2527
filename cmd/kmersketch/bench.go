package main

import (
	"github.com/genc-murat/kmersketch/internal/bench"
	"github.com/genc-murat/kmersketch/internal/config"
	"github.com/spf13/cobra"
)

func benchCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure sketch accuracy",
	}
	cmd.AddCommand(syntheticCommand(s))
	cmd.AddCommand(compareCommand(s))
	return cmd
}

func syntheticCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthetic",
		Short: "Track estimates on streams of 2^0..2^N distinct integers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}

			logger(cfg).Printf("Running %d seeds up to n=2^%d", cfg.Bench.Seeds, cfg.Bench.MaxExponent)
			runs, err := bench.Synthetic(cmd.Context(), bench.SyntheticConfig{
				Seeds:       cfg.Bench.Seeds,
				MaxExponent: cfg.Bench.MaxExponent,
				Precision:   cfg.Bench.Precision,
				LinearSize:  cfg.Sketch.LinearSize,
				FMBits:      cfg.Sketch.FMBits,
				Workers:     cfg.Pipeline.Workers,
				Hasher:      cfg.Sketch.Hasher,
				HashSeed:    cfg.Sketch.Seed,
			})
			if err != nil {
				return err
			}
			return bench.WriteSyntheticTable(cmd.OutOrStdout(), runs)
		},
	}
	defaults := config.DefaultConfig()
	cmd.Flags().IntVar(&s.seeds, "seeds", defaults.Bench.Seeds, "Number of independent runs")
	cmd.Flags().IntVar(&s.maxExponent, "max-exp", defaults.Bench.MaxExponent, "Largest n is 2^max-exp")
	cmd.Flags().IntVarP(&s.workers, "workers", "j", defaults.Pipeline.Workers, "Runs in parallel (0 = one per CPU)")
	s.sketchFlags(cmd)
	return cmd
}

func compareCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare FILE...",
		Short: "Compare every counter against the exact count on sequence files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}

			var truth bench.GroundTruth
			if cfg.Bench.GroundTruth != "" {
				if truth, err = bench.LoadGroundTruth(cfg.Bench.GroundTruth); err != nil {
					return err
				}
			}

			for _, path := range args {
				logger(cfg).Printf("Processing dataset: %s", path)
				cmp, err := bench.Compare(cmd.Context(), path, bench.CompareConfig{
					K:           cfg.Pipeline.KmerLength,
					Workers:     cfg.Pipeline.Workers,
					SkipInvalid: cfg.Pipeline.SkipInvalid,
					Precision:   cfg.Sketch.Precision,
					LinearSize:  cfg.Sketch.LinearSize,
					FMBits:      cfg.Sketch.FMBits,
					FMInstances: cfg.Sketch.FMInstances,
					Hasher:      cfg.Sketch.Hasher,
					Seed:        cfg.Sketch.Seed,
					Truth:       truth,
					Logger:      logger(cfg),
				})
				if err != nil {
					return err
				}
				if err := bench.WriteComparisonTable(cmd.OutOrStdout(), cmp); err != nil {
					return err
				}
			}
			return nil
		},
	}
	s.pipelineFlags(cmd)
	s.sketchFlags(cmd)
	cmd.Flags().StringVar(&s.groundTruth, "truth", "", "JSON file with exact distinct k-mer counts per dataset")
	return cmd
}
