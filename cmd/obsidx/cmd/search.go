package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit   int
	jsonOut bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed vault",
		Long: `Run a hybrid query over the vault: full-text ranking and embedding
similarity are fused into one result list.

The query supports field syntax from the lexical index, e.g.
tags:golang or title:draft.

Examples:
  obsidx search "error handling"
  obsidx search tags:cooking --limit 5
  obsidx -c work search "quarterly plan" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, root, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 uses the configured default)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Emit results as JSON")
	return cmd
}

func runSearch(cmd *cobra.Command, root *rootOptions, query string, opts searchOptions) error {
	out := output.New(cmd.OutOrStdout())

	c, err := root.openCoordinator()
	if err != nil {
		return err
	}
	defer c.Close()

	results, err := c.Search(cmd.Context(), query, opts.limit, root.collection)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		return out.JSON(results)
	}
	if len(results) == 0 {
		out.Printf("no results for %q", query)
		return nil
	}
	for i, r := range results {
		out.Hit(i+1, r.Path, r.Title, r.Snippet, r.Score)
	}
	return nil
}
