package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meigma/pak/internal/namehash"
)

func newHashCmd() *cobra.Command {
	var algo string

	cmd := &cobra.Command{
		Use:   "hash NAME...",
		Short: "Print the name hashes used by hashed-name formats",
		Long: `Hash prints the name hash of each argument.

Algorithm "a" is the CRC used by TAB archives, "b" the multiplicative hash
used by CLU archives. The output matches the names given to members whose
name could not be recovered.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fn func(string) uint32
			switch strings.ToLower(algo) {
			case "a":
				fn = namehash.HashA
			case "b":
				fn = namehash.HashB
			default:
				return fmt.Errorf("unknown hash algorithm %q (want a or b)", algo)
			}
			for _, name := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%08x  %s\n", fn(name), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&algo, "algo", "a", "b", "hash algorithm: a (TAB) or b (CLU)")
	return cmd
}
