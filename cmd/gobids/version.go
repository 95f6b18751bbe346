package main

import (
	"github.com/spf13/cobra"

	"github.com/pvandyken/gobids/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			version.FprintVersion(cmd.OutOrStdout())
			return nil
		},
	}
}
