package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meigma/pak/registry"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the built-in formats in probing order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EXTENSION\tFORMAT")
			for _, reg := range registry.Default().Registrations() {
				ext := "." + reg.Ext
				if reg.Ext == registry.Any {
					ext = "(none)"
				}
				fmt.Fprintf(tw, "%s\t%s\n", ext, reg.Parser.Format())
			}
			return tw.Flush()
		},
	}
}
