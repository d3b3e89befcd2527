package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/genc-murat/kmersketch/internal/config"
	"github.com/genc-murat/kmersketch/internal/core/models"
	"github.com/genc-murat/kmersketch/internal/storage"
	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/genc-murat/kmersketch/pkg/utils/pattern"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// kindProbe decodes only the header of a saved sketch.
type kindProbe struct {
	kind models.Kind
}

func (p *kindProbe) UnmarshalBinary(data []byte) error {
	kind, err := models.PeekKind(data)
	p.kind = kind
	return err
}

func mergeCommand(s *settings) *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   "merge NAME...",
		Short: "Merge saved sketches and estimate the size of their union",
		Long: `Merge saved sketches of the same counter and parameters. Names may be
globs such as 'sample-*'. The sketches must have been built with the same
hash function and seed; pass them with --hasher and --seed if they differ
from the configuration.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}
			return runMerge(cmd.OutOrStdout(), cfg, args, save)
		},
	}
	s.hasherFlags(cmd)
	cmd.Flags().StringVar(&save, "save", "", "Save the merged sketch under this name")
	return cmd
}

func runMerge(out io.Writer, cfg *config.Config, names []string, save string) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	hasher, err := hash.New(cfg.Sketch.Hasher, cfg.Sketch.Seed)
	if err != nil {
		return err
	}
	if names, err = expand(store, names); err != nil {
		return err
	}

	var kind models.Kind
	for i, name := range names {
		var probe kindProbe
		if err := store.Load(name, &probe); err != nil {
			return err
		}
		if i > 0 && probe.kind != kind {
			return errors.Wrapf(models.ErrConfigMismatch, "%s is %s, %s is %s", names[0], kind, name, probe.kind)
		}
		kind = probe.kind
	}

	m := merger{out: out, store: store, names: names, save: save}
	// Decoding adopts the encoded size, so the constructor parameters below
	// only need to be valid.
	switch kind {
	case models.KindExact:
		return mergeSaved(m, func() *models.ExactCounter[hash.Hasher] {
			return models.NewExactCounter(hasher)
		})
	case models.KindLinear:
		return mergeSaved(m, func() *models.LinearCounter[hash.Hasher] {
			l, _ := models.NewLinearCounter(hasher, 1)
			return l
		})
	case models.KindFlajoletMartin:
		return mergeSaved(m, func() *models.FlajoletMartinCounter[hash.Hasher] {
			f, _ := models.NewFlajoletMartinCounter(hasher, 1)
			return f
		})
	case models.KindHyperLogLog:
		return mergeSaved(m, func() *models.HyperLogLog[hash.Hasher] {
			h, _ := models.NewHyperLogLog(hasher, models.MinPrecision)
			return h
		})
	}
	return errors.Wrapf(models.ErrUnknownKind, "%d", uint8(kind))
}

type merger struct {
	out   io.Writer
	store *storage.Store
	names []string
	save  string
}

func mergeSaved[S models.Sketch[S]](m merger, newSketch func() S) error {
	sketches := make([]S, len(m.names))
	for i, name := range m.names {
		sketches[i] = newSketch()
		if err := m.store.Load(name, sketches[i]); err != nil {
			return err
		}
	}

	merged, err := models.MergeAll(sketches...)
	if err != nil {
		return err
	}

	estimate, estErr := merged.Estimate()
	fmt.Fprintf(m.out, "Merged %d %s sketches: %.0f distinct\n", len(sketches), merged.Kind(), estimate)
	if errors.Is(estErr, models.ErrEstimateOutOfRange) {
		fmt.Fprintf(m.out, "Warning: %v\n", estErr)
	}

	if m.save != "" {
		if err := m.store.Save(m.save, merged); err != nil {
			return err
		}
		fmt.Fprintf(m.out, "Saved %s\n", m.save)
	}
	return nil
}

// expand resolves globs in args against the saved sketch names.
func expand(store *storage.Store, args []string) ([]string, error) {
	saved, err := store.List()
	if err != nil {
		return nil, err
	}
	names := pattern.Expand(args, saved)
	if len(names) == 0 {
		return nil, errors.Wrapf(storage.ErrNotFound, "no sketch matches %v", args)
	}
	return names, nil
}

func listCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list [GLOB...]",
		Short: "List saved sketches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			for _, name := range pattern.Filter(args, names) {
				var probe kindProbe
				kind := "corrupt"
				if err := store.Load(name, &probe); err == nil {
					kind = probe.kind.String()
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, kind)
			}
			return tw.Flush()
		},
	}
}

func removeCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME...",
		Short: "Remove saved sketches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			names, err := expand(store, args)
			if err != nil {
				return err
			}
			for _, name := range names {
				if err := store.Remove(name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
