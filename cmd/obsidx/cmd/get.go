package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/output"
)

func newGetCmd(root *rootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Show one indexed note by its vault-relative path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, root, args[0], jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the note as JSON")
	return cmd
}

func runGet(cmd *cobra.Command, root *rootOptions, path string, jsonOut bool) error {
	out := output.New(cmd.OutOrStdout())

	c, err := root.openCoordinator()
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := c.Get(cmd.Context(), path)
	if err != nil {
		return err
	}
	if n == nil {
		// A miss is an answer, not a failure.
		if jsonOut {
			return out.JSON(map[string]any{"found": false, "path": path})
		}
		out.Printf("not found: %s", path)
		return nil
	}

	if jsonOut {
		return out.JSON(n)
	}

	out.Printf("path:        %s", n.Path)
	out.Printf("collection:  %s", n.Collection)
	out.Printf("title:       %s", n.Title)
	if len(n.Tags) > 0 {
		out.Printf("tags:        %s", strings.Join(n.Tags, ", "))
	}
	if len(n.Headings) > 0 {
		out.Printf("headings:    %s", strings.Join(n.Headings, " / "))
	}
	if len(n.Links) > 0 {
		out.Printf("links:       %s", strings.Join(n.Links, ", "))
	}
	out.Printf("modified:    %s", time.UnixMilli(n.MtimeMillis).Format(time.RFC3339))
	out.Newline()
	out.Printf("%s", n.Body)
	return nil
}
