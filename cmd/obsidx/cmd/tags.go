package cmd

import (
	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/output"
)

func newTagsCmd(root *rootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List every tag in the vault with its note count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			c, err := root.openCoordinator()
			if err != nil {
				return err
			}
			defer c.Close()

			tags, err := c.Tags(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return out.JSON(tags)
			}
			if len(tags) == 0 {
				out.Printf("no tags")
				return nil
			}
			for _, tc := range tags {
				out.Printf("%4d  %s", tc.Count, tc.Tag)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit tags as JSON")
	return cmd
}
