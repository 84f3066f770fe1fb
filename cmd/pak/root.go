package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/pak"
	"github.com/meigma/pak/cache"
	"github.com/meigma/pak/cache/disk"
	"github.com/meigma/pak/source"
)

// app holds the state shared by all subcommands.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
	cache  cache.Cache
	closer io.Closer
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "pak",
		Short: "Inspect and extract legacy game archives",
		Long: `pak reads WAD, PAK, GRP, HOG, CLU, VPP, AFS, LST, DAT, TAB, DFS,
ZIP, RAR and 7z containers through one interface.

Every flag can also be set with a PAK_ environment variable, for example
PAK_LOG_LEVEL=debug or PAK_CACHE_DIR=~/.cache/pak. A .env file in the
working directory is loaded first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("mmap", false, "memory-map local archives")
	flags.Uint64("max-member-size", pak.DefaultMaxMemberSize, "largest member size to read, 0 for no limit")
	flags.Uint64("max-entries", 0, "largest entry count a container may declare, 0 for no limit")
	flags.String("cache-dir", "", "directory for a persistent member cache")
	flags.Bool("cache-compress", true, "zstd-compress cached members")
	flags.Int64("cache-max-bytes", 0, "prune the cache to this size after writes, 0 for no limit")
	flags.StringSlice("header", nil, "extra HTTP header for remote archives (Key: Value)")

	a.v.SetEnvPrefix("PAK")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags) //nolint:errcheck // flags are defined above

	root.AddCommand(
		newListCmd(a),
		newExtractCmd(a),
		newFormatsCmd(),
		newHashCmd(),
	)
	return root, a
}

// execute runs root and then releases the cache. Cobra skips post-run hooks
// when a command fails, so the release happens here.
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	return errors.Join(err, a.close())
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	c := a.closer
	a.closer, a.cache = nil, nil
	if err := c.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}
	return nil
}

// setup builds the logger and optional cache from the resolved settings.
func (a *app) setup(stderr io.Writer) error {
	level, err := log.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	handler := log.NewWithOptions(stderr, log.Options{
		Level:  level,
		Prefix: "pak",
	})
	a.logger = slog.New(handler)

	if dir := a.v.GetString("cache-dir"); dir != "" {
		c, err := disk.New(dir,
			disk.WithCompression(a.v.GetBool("cache-compress")),
			disk.WithMaxBytes(a.v.GetInt64("cache-max-bytes")),
		)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		a.cache, a.closer = c, c
		a.logger.Debug("using disk cache", "dir", dir)
	}
	return nil
}

// options returns the pak options for opening one archive.
func (a *app) options() ([]pak.Option, error) {
	opts := []pak.Option{
		pak.WithLogger(a.logger),
		pak.WithMmap(a.v.GetBool("mmap")),
		pak.WithMaxMemberSize(a.v.GetUint64("max-member-size")),
		pak.WithMaxEntries(a.v.GetUint64("max-entries")),
	}
	if a.cache != nil {
		opts = append(opts, pak.WithCache(a.cache))
	}
	for _, h := range a.v.GetStringSlice("header") {
		key, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("header %q: want Key: Value", h)
		}
		opts = append(opts, pak.WithHTTPOptions(source.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value))))
	}
	return opts, nil
}

func (a *app) open(path string) (*pak.Package, error) {
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	return pak.Open(path, opts...)
}
