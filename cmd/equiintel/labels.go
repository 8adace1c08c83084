package main

import (
	"fmt"

	"equiintel/pkg/core/extract"

	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List the line items the extractor looks for",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, l := range extract.Required {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}
