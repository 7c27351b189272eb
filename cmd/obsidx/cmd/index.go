package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/output"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	incremental bool
	jsonOut     bool
}

func newIndexCmd(root *rootOptions) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or update the vault index",
		Long: `Index every markdown note in the vault into both stores.

A full run rebuilds from scratch. With --incremental only notes whose
modification time is newer than the stored one are reprocessed; notes
deleted from disk keep their entries until the next full run.

Examples:
  obsidx index
  obsidx index --incremental
  obsidx -c work index --incremental`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.incremental, "incremental", "i", false, "Only reprocess notes changed since the last run")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Emit run statistics as JSON")
	return cmd
}

func runIndex(cmd *cobra.Command, root *rootOptions, opts indexOptions) error {
	out := output.New(cmd.OutOrStdout())

	c, err := root.openCoordinator()
	if err != nil {
		return err
	}
	defer c.Close()

	run := c.Build
	if opts.incremental {
		run = c.Update
	}
	stats, err := run(cmd.Context())
	if err != nil {
		return err
	}

	if opts.jsonOut {
		return out.JSON(stats)
	}
	out.Success("scanned %d, indexed %d, skipped %d, failed %d in %s",
		stats.Scanned, stats.Indexed, stats.Skipped, stats.Failed,
		stats.Elapsed.Round(time.Millisecond))
	return nil
}
