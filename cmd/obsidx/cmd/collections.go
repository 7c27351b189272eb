package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/collection"
	"github.com/obsidx/obsidx/internal/output"
)

func newCollectionsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Manage the named collection registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollectionsList(cmd, root)
		},
	}

	cmd.AddCommand(newCollectionsAddCmd(root))
	cmd.AddCommand(newCollectionsRemoveCmd(root))
	return cmd
}

func runCollectionsList(cmd *cobra.Command, root *rootOptions) error {
	out := output.New(cmd.OutOrStdout())

	reg, err := collection.LoadRegistry(root.registry)
	if err != nil {
		return err
	}
	names := reg.Names()
	if len(names) == 0 {
		out.Printf("no collections registered")
		return nil
	}
	for _, name := range names {
		out.Printf("%-20s %s", name, reg.Root(name))
	}
	return nil
}

func newCollectionsAddCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <root>",
		Short: "Register a vault root under a collection name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			abs, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			reg, err := collection.LoadRegistry(root.registry)
			if err != nil {
				return err
			}
			roots := reg.All()
			roots[args[0]] = abs
			if err := collection.SaveRegistry(root.registry, roots); err != nil {
				return err
			}
			out.Success("registered %q -> %s", args[0], abs)
			return nil
		},
	}
}

func newCollectionsRemoveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a collection from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			reg, err := collection.LoadRegistry(root.registry)
			if err != nil {
				return err
			}
			roots := reg.All()
			if _, ok := roots[args[0]]; !ok {
				return fmt.Errorf("collection %q is not registered", args[0])
			}
			delete(roots, args[0])
			if err := collection.SaveRegistry(root.registry, roots); err != nil {
				return err
			}
			out.Success("removed %q", args[0])
			return nil
		},
	}
}
