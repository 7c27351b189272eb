package cmd

import (
	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/output"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			c, err := root.openCoordinator()
			if err != nil {
				return err
			}
			defer c.Close()

			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return out.JSON(stats)
			}
			out.Printf("vault:       %s", stats.VaultRoot)
			if stats.Collection != "" {
				out.Printf("collection:  %s", stats.Collection)
			}
			out.Printf("index:       %s", stats.IndexDir)
			out.Printf("notes:       %d", stats.Notes)
			out.Printf("chunks:      %d (across %d notes)", stats.Chunks, stats.ChunkNotes)
			out.Newline()
			out.Printf("note: incremental runs do not detect deleted files; run a full 'obsidx index' to purge them")
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit statistics as JSON")
	return cmd
}
