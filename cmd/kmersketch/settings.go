package main

import (
	"io"
	"log"
	"os"

	"github.com/genc-murat/kmersketch/internal/config"
	"github.com/genc-murat/kmersketch/internal/metrics"
	"github.com/genc-murat/kmersketch/internal/pipeline"
	"github.com/genc-murat/kmersketch/internal/storage"
	"github.com/spf13/cobra"
)

// profileEnv names the profile used when --profile is not given.
const profileEnv = "KMERSKETCH_PROFILE"

// settings holds the values of every command line flag. Flags only override
// the configuration when they are set explicitly.
type settings struct {
	configPath string
	profile    string
	verbose    bool
	storeDir   string

	k           int
	workers     int
	queueSize   int
	skipInvalid bool

	kind        string
	precision   uint8
	linearSize  uint
	fmBits      uint
	fmInstances int
	hasher      string
	seed        uint64

	seeds       int
	maxExponent int
	groundTruth string
}

func newSettings() *settings {
	return &settings{}
}

func (s *settings) persistentFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	cmd.PersistentFlags().StringVarP(&s.configPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&s.profile, "profile", os.Getenv(profileEnv), "Configuration profile looked up as config/<name>.yaml in this or a parent directory")
	cmd.MarkFlagsMutuallyExclusive("config", "profile")
	cmd.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "Log progress and timings to stderr")
	cmd.PersistentFlags().StringVar(&s.storeDir, "store", defaults.Storage.Dir, "Directory for saved sketches")
}

func (s *settings) pipelineFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	cmd.Flags().IntVarP(&s.k, "kmer-size", "k", defaults.Pipeline.KmerLength, "K-mer size")
	cmd.Flags().IntVarP(&s.workers, "workers", "j", defaults.Pipeline.Workers, "Number of workers (0 = one per CPU)")
	cmd.Flags().IntVar(&s.queueSize, "queue-size", defaults.Pipeline.QueueSize, "Records buffered between reader and workers")
	cmd.Flags().BoolVar(&s.skipInvalid, "skip-invalid", defaults.Pipeline.SkipInvalid, "Skip k-mers containing bases other than ACGT")
}

func (s *settings) hasherFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	cmd.Flags().StringVar(&s.hasher, "hasher", defaults.Sketch.Hasher, "Hash function: fnv, murmur3 or xxhash")
	cmd.Flags().Uint64Var(&s.seed, "seed", defaults.Sketch.Seed, "Hash seed")
}

func (s *settings) sketchFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	cmd.Flags().StringVar(&s.kind, "kind", defaults.Sketch.Kind, "Counter: exact, linear, fm or hll")
	cmd.Flags().Uint8VarP(&s.precision, "precision", "p", defaults.Sketch.Precision, "HyperLogLog precision (4-18)")
	cmd.Flags().UintVar(&s.linearSize, "linear-size", defaults.Sketch.LinearSize, "Linear counter bitmap size in bits")
	cmd.Flags().UintVar(&s.fmBits, "fm-bits", defaults.Sketch.FMBits, "Flajolet-Martin bitmap length (1-64)")
	cmd.Flags().IntVar(&s.fmInstances, "fm-instances", defaults.Sketch.FMInstances, "Flajolet-Martin counters averaged in reports")
	s.hasherFlags(cmd)
}

// load reads the configuration file, if any, and applies explicitly set
// flags on top of it.
func (s *settings) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	var err error
	switch {
	case s.configPath != "":
		cfg, err = config.LoadConfig(s.configPath)
	case s.profile != "":
		cfg, err = config.LoadProfile(s.profile)
	}
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("verbose") {
		cfg.Logging.Verbose = s.verbose
	}
	if changed("store") {
		cfg.Storage.Dir = s.storeDir
	}
	if changed("kmer-size") {
		cfg.Pipeline.KmerLength = s.k
	}
	if changed("workers") {
		cfg.Pipeline.Workers = s.workers
	}
	if changed("queue-size") {
		cfg.Pipeline.QueueSize = s.queueSize
	}
	if changed("skip-invalid") {
		cfg.Pipeline.SkipInvalid = s.skipInvalid
	}
	if changed("kind") {
		cfg.Sketch.Kind = s.kind
	}
	if changed("precision") {
		cfg.Sketch.Precision = s.precision
		cfg.Bench.Precision = s.precision
	}
	if changed("linear-size") {
		cfg.Sketch.LinearSize = s.linearSize
	}
	if changed("fm-bits") {
		cfg.Sketch.FMBits = s.fmBits
	}
	if changed("fm-instances") {
		cfg.Sketch.FMInstances = s.fmInstances
	}
	if changed("hasher") {
		cfg.Sketch.Hasher = s.hasher
	}
	if changed("seed") {
		cfg.Sketch.Seed = s.seed
	}
	if changed("seeds") {
		cfg.Bench.Seeds = s.seeds
	}
	if changed("max-exp") {
		cfg.Bench.MaxExponent = s.maxExponent
	}
	if changed("truth") {
		cfg.Bench.GroundTruth = s.groundTruth
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func logger(cfg *config.Config) *log.Logger {
	if !cfg.Logging.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "", log.LstdFlags)
}

func pipelineOptions(cfg *config.Config, m *metrics.Metrics) pipeline.Options {
	return pipeline.Options{
		Workers:     cfg.Pipeline.Workers,
		K:           cfg.Pipeline.KmerLength,
		SkipInvalid: cfg.Pipeline.SkipInvalid,
		QueueSize:   cfg.Pipeline.QueueSize,
		Logger:      logger(cfg),
		Metrics:     m,
	}
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	return storage.NewStore(cfg.Storage.Dir, cfg.Storage.LockTimeout)
}
