package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	digest "github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var withDigest bool

	cmd := &cobra.Command{
		Use:     "list ARCHIVE...",
		Aliases: []string{"ls"},
		Short:   "List the members of one or more archives",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, path := range args {
				if len(args) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "==> %s <==\n", path)
				}
				if err := a.list(out, path, withDigest); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withDigest, "digest", false, "read every member and print its sha256 digest")
	return cmd
}

func (a *app) list(out io.Writer, path string, withDigest bool) error {
	p, err := a.open(path)
	if err != nil {
		return err
	}
	defer p.Close()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := "INDEX\tNAME\tSIZE\tPACKED\tMETHOD\tSTREAM"
	if withDigest {
		header += "\tDIGEST"
	}
	fmt.Fprintln(tw, header)

	for i, e := range p.Entries() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%d", i, e.Name, e.Size, e.StoredSize(), e.Compression, e.Stream)
		if withDigest {
			data, err := p.Get(i)
			if err != nil {
				a.logger.Warn("read member", "archive", path, "name", e.Name, "error", err)
				fmt.Fprint(tw, "\t-")
			} else {
				fmt.Fprintf(tw, "\t%s", digest.FromBytes(data))
			}
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	a.logger.Info("listed archive", "path", path, "format", p.Format(), "entries", p.Len())
	return nil
}
