package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Sketch   SketchConfig   `yaml:"sketch"`
	Storage  StorageConfig  `yaml:"storage"`
	Bench    BenchConfig    `yaml:"bench"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type PipelineConfig struct {
	Workers     int  `yaml:"workers"`
	KmerLength  int  `yaml:"kmer_length"`
	QueueSize   int  `yaml:"queue_size"`
	SkipInvalid bool `yaml:"skip_invalid"`
}

type SketchConfig struct {
	Kind        string `yaml:"kind"`
	Precision   uint8  `yaml:"precision"`
	LinearSize  uint   `yaml:"linear_size"`
	FMBits      uint   `yaml:"fm_bits"`
	FMInstances int    `yaml:"fm_instances"`
	Hasher      string `yaml:"hasher"`
	Seed        uint64 `yaml:"seed"`
}

type StorageConfig struct {
	Dir         string        `yaml:"dir"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

type BenchConfig struct {
	Seeds       int    `yaml:"seeds"`
	MaxExponent int    `yaml:"max_exponent"`
	Precision   uint8  `yaml:"precision"`
	GroundTruth string `yaml:"ground_truth"`
}

type LoggingConfig struct {
	Verbose  bool `yaml:"verbose"`
	Progress bool `yaml:"progress"`
}

func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			KmerLength: 31,
			QueueSize:  64,
		},
		Sketch: SketchConfig{
			Kind:        "hll",
			Precision:   14,
			LinearSize:  1_000_000,
			FMBits:      32,
			FMInstances: 8,
			Hasher:      "xxhash",
		},
		Storage: StorageConfig{
			Dir:         "sketches",
			LockTimeout: 5 * time.Second,
		},
		Bench: BenchConfig{
			Seeds:       9,
			MaxExponent: 24,
			Precision:   14,
		},
		Logging: LoggingConfig{
			Progress: true,
		},
	}
}

// findProfile walks up from the working directory until it finds
// config/<env>.yaml or config/<env>.yml.
func findProfile(env string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "config", env+ext)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find config profile %q", env)
		}
		dir = parent
	}
}

// LoadProfile loads a named profile from the project's config directory.
func LoadProfile(env string) (*Config, error) {
	path, err := findProfile(env)
	if err != nil {
		return nil, fmt.Errorf("error finding project root: %w", err)
	}
	return LoadConfig(path)
}

// LoadConfig reads a YAML file on top of DefaultConfig, so a file only needs
// the keys it changes.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Pipeline.Workers < 0:
		return fmt.Errorf("%w: pipeline.workers must not be negative", ErrInvalidConfig)
	case c.Pipeline.KmerLength <= 0:
		return fmt.Errorf("%w: pipeline.kmer_length must be positive", ErrInvalidConfig)
	case c.Sketch.Precision < 4 || c.Sketch.Precision > 18:
		return fmt.Errorf("%w: sketch.precision %d outside 4..18", ErrInvalidConfig, c.Sketch.Precision)
	case c.Sketch.LinearSize == 0:
		return fmt.Errorf("%w: sketch.linear_size must be positive", ErrInvalidConfig)
	case c.Sketch.FMBits == 0 || c.Sketch.FMBits > 64:
		return fmt.Errorf("%w: sketch.fm_bits %d outside 1..64", ErrInvalidConfig, c.Sketch.FMBits)
	case c.Sketch.FMInstances <= 0:
		return fmt.Errorf("%w: sketch.fm_instances must be positive", ErrInvalidConfig)
	case c.Bench.Seeds <= 0:
		return fmt.Errorf("%w: bench.seeds must be positive", ErrInvalidConfig)
	case c.Bench.MaxExponent < 0 || c.Bench.MaxExponent > 40:
		return fmt.Errorf("%w: bench.max_exponent %d outside 0..40", ErrInvalidConfig, c.Bench.MaxExponent)
	case c.Bench.Precision < 4 || c.Bench.Precision > 18:
		return fmt.Errorf("%w: bench.precision %d outside 4..18", ErrInvalidConfig, c.Bench.Precision)
	}
	return nil
}
