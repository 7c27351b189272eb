package cmd

import (
	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/output"
	"github.com/obsidx/obsidx/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			if jsonOut {
				return out.JSON(version.GetInfo())
			}
			out.Printf("%s", version.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit version info as JSON")
	return cmd
}
