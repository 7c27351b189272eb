// Package cmd provides the CLI commands for obsidx.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/collection"
	"github.com/obsidx/obsidx/internal/config"
	"github.com/obsidx/obsidx/internal/index"
	"github.com/obsidx/obsidx/internal/logging"
	"github.com/obsidx/obsidx/internal/output"
	"github.com/obsidx/obsidx/pkg/version"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	vault      string
	collection string
	registry   string
	indexDir   string
	debug      bool
}

var loggingCleanup func()

// NewRootCmd creates the root command for the obsidx CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "obsidx",
		Short: "Hybrid search over a vault of markdown notes",
		Long: `obsidx indexes a directory tree of markdown notes and answers
queries by fusing full-text ranking with embedding similarity.

Point it at a vault with --vault, or register named collections once
and address them with --collection from anywhere.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("obsidx version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.vault, "vault", "v", ".", "Vault root directory")
	cmd.PersistentFlags().StringVarP(&opts.collection, "collection", "c", "", "Named collection from the registry")
	cmd.PersistentFlags().StringVar(&opts.registry, "registry", collection.DefaultRegistryPath(), "Collection registry file")
	cmd.PersistentFlags().StringVar(&opts.indexDir, "index", "", "Index directory (default: .obsidx inside the vault)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := ""
		if opts.debug {
			level = "debug"
		}
		cleanup, err := logging.SetupDefault(level)
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		loggingCleanup = cleanup
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
	}

	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newGetCmd(opts))
	cmd.AddCommand(newNewCmd(opts))
	cmd.AddCommand(newTagsCmd(opts))
	cmd.AddCommand(newLinksCmd(opts))
	cmd.AddCommand(newBacklinksCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newCollectionsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		output.New(cmd.ErrOrStderr()).Error("%v", err)
		return err
	}
	return nil
}

// resolveVault turns the persistent flags into a vault root and the
// collection tag to stamp on indexed notes.
func (o *rootOptions) resolveVault() (root, coll string, err error) {
	reg, err := collection.LoadRegistry(o.registry)
	if err != nil {
		return "", "", err
	}
	return reg.Resolve(o.collection, o.vault)
}

// openCoordinator resolves the vault, loads its config, and opens both
// stores. The caller must Close the returned coordinator.
func (o *rootOptions) openCoordinator() (*index.Coordinator, error) {
	root, coll, err := o.resolveVault()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	return index.Open(root, cfg, index.Options{Collection: coll, IndexDir: o.indexDir})
}
