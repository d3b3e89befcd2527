package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "kmersketch %s\n", version)
			return nil
		},
	}
}
