package cmd

import (
	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/output"
)

func newLinksCmd(root *rootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "links <path>",
		Short: "List the outgoing links of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			c, err := root.openCoordinator()
			if err != nil {
				return err
			}
			defer c.Close()

			links, err := c.Links(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return out.JSON(links)
			}
			if len(links) == 0 {
				out.Printf("no links recorded for %s", args[0])
				return nil
			}
			out.List(links)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit links as JSON")
	return cmd
}

func newBacklinksCmd(root *rootOptions) *cobra.Command {
	var jsonOut bool
	var limit int

	cmd := &cobra.Command{
		Use:   "backlinks <target>",
		Short: "List the notes that link to a target",
		Long: `List the paths of notes whose links include the target, matched
exactly against the link text as written. A wikilink [[b]] is found
with target "b", a markdown link to notes/b.md with that path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			c, err := root.openCoordinator()
			if err != nil {
				return err
			}
			defer c.Close()

			paths, err := c.Backlinks(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			if jsonOut {
				return out.JSON(paths)
			}
			if len(paths) == 0 {
				out.Printf("no backlinks to %s", args[0])
				return nil
			}
			out.List(paths)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit backlinks as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of backlinks (0 uses the configured default)")
	return cmd
}
