package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	s := newSettings()

	rootCmd := &cobra.Command{
		Use:   "kmersketch",
		Short: "Estimate k-mer complexity of sequence data with cardinality sketches",
		Long: `kmersketch counts distinct k-mers in FASTA/FASTQ files.

Four counters are available:
  - exact   hash set of k-mer hashes (memory grows with the answer)
  - linear  linear counting bitmap
  - fm      Flajolet-Martin probabilistic counting
  - hll     HyperLogLog (default)

Sketches can be saved, listed and merged later.`,
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	s.persistentFlags(rootCmd)

	rootCmd.AddCommand(countCommand(s))
	rootCmd.AddCommand(mergeCommand(s))
	rootCmd.AddCommand(listCommand(s))
	rootCmd.AddCommand(removeCommand(s))
	rootCmd.AddCommand(benchCommand(s))
	rootCmd.AddCommand(versionCommand())
	return rootCmd
}
