package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/config"
	"github.com/obsidx/obsidx/internal/index"
	"github.com/obsidx/obsidx/internal/output"
	"github.com/obsidx/obsidx/internal/watcher"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and keep the index current",
		Long: `Watch the vault for changes and run an incremental index pass after
each burst of edits. The debounce window is fixed: it opens on the
first change and closes once, so a long editing session still lands in
the index one window at a time.

Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, root, debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Debounce window (0 uses the configured default)")
	return cmd
}

func runWatch(cmd *cobra.Command, root *rootOptions, debounce time.Duration) error {
	out := output.New(cmd.OutOrStdout())

	vaultRoot, coll, err := root.resolveVault()
	if err != nil {
		return err
	}
	cfg, err := config.Load(vaultRoot)
	if err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = cfg.DebounceWindow()
	}

	c, err := index.Open(vaultRoot, cfg, index.Options{Collection: coll, IndexDir: root.indexDir})
	if err != nil {
		return err
	}
	defer c.Close()

	// Catch up before watching so edits made while obsidx was not
	// running are not missed.
	if _, err := c.Update(cmd.Context()); err != nil {
		return err
	}

	w, err := watcher.New(vaultRoot, debounce, func(ctx context.Context) error {
		stats, err := c.Update(ctx)
		if err != nil {
			return err
		}
		if stats.Indexed > 0 {
			out.Printf("reindexed %d notes", stats.Indexed)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out.Printf("watching %s (debounce %s)", vaultRoot, debounce)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	out.Printf("stopped")
	return nil
}
