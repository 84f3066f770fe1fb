package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/pak"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		output          string
		jobs            int
		skipExisting    bool
		continueOnError bool
	)

	cmd := &cobra.Command{
		Use:   "extract ARCHIVE...",
		Short: "Extract archives into a directory",
		Long: `Extract writes every member of each archive under the output directory.

With a single archive the members go directly into the output directory.
With several, each archive gets a subdirectory named after its file name
without the extension. Archives are extracted in parallel.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				mu    sync.Mutex
				total pak.ExtractStats
			)
			g := new(errgroup.Group)
			g.SetLimit(max(jobs, 1))
			for _, path := range args {
				dest := output
				if len(args) > 1 {
					dest = filepath.Join(output, archiveStem(path))
				}
				g.Go(func() error {
					stats, err := a.extract(path, dest, skipExisting, continueOnError)
					mu.Lock()
					total.Files += stats.Files
					total.Bytes += stats.Bytes
					total.Skipped += stats.Skipped
					total.Failed += stats.Failed
					mu.Unlock()
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					return nil
				})
			}
			err := g.Wait()
			fmt.Fprintf(cmd.OutOrStdout(), "%d files, %d bytes written, %d skipped, %d failed\n",
				total.Files, total.Bytes, total.Skipped, total.Failed)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", ".", "destination directory")
	flags.IntVarP(&jobs, "jobs", "j", 4, "archives to extract in parallel")
	flags.BoolVar(&skipExisting, "skip-existing", false, "leave existing files untouched")
	flags.BoolVar(&continueOnError, "continue-on-error", false, "keep going after a member fails")
	return cmd
}

func (a *app) extract(path, dest string, skipExisting, continueOnError bool) (pak.ExtractStats, error) {
	p, err := a.open(path)
	if err != nil {
		return pak.ExtractStats{}, err
	}
	defer p.Close()

	a.logger.Info("extracting", "archive", path, "format", p.Format(), "entries", p.Len(), "dest", dest)
	return p.Extract(dest,
		pak.ExtractWithSkipExisting(skipExisting),
		pak.ExtractWithContinueOnError(continueOnError),
	)
}

// archiveStem returns the file name of path without its extension.
func archiveStem(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	if stem := strings.TrimSuffix(path, filepath.Ext(path)); stem != "" {
		return stem
	}
	return path
}
