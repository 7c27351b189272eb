package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/obsidx/obsidx/internal/collection"
	"github.com/obsidx/obsidx/internal/config"
	"github.com/obsidx/obsidx/internal/index"
	"github.com/obsidx/obsidx/internal/output"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a vault for indexing",
		Long: `Write a default .obsidx.yaml into the vault root and build the
initial index. With --name the vault is also registered as a named
collection so later commands can address it with --collection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Register the vault under this collection name")
	return cmd
}

func runInit(cmd *cobra.Command, opts *rootOptions, name string) error {
	out := output.New(cmd.OutOrStdout())

	root, err := filepath.Abs(opts.vault)
	if err != nil {
		return err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("vault root %s is not a directory", root)
	}

	cfgPath := filepath.Join(root, config.ConfigFileName)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		data, err := yaml.Marshal(config.Default())
		if err != nil {
			return fmt.Errorf("encode default config: %w", err)
		}
		if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		out.Success("wrote %s", cfgPath)
	} else {
		out.Printf("config already present at %s", cfgPath)
	}

	if name != "" {
		reg, err := collection.LoadRegistry(opts.registry)
		if err != nil {
			return err
		}
		roots := reg.All()
		roots[name] = root
		if err := collection.SaveRegistry(opts.registry, roots); err != nil {
			return err
		}
		out.Success("registered collection %q -> %s", name, root)
	}

	coordOpts := index.Options{Collection: name}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	c, err := index.Open(root, cfg, coordOpts)
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.Build(cmd.Context())
	if err != nil {
		return err
	}
	out.Success("indexed %d notes in %s", stats.Indexed, stats.Elapsed.Round(time.Millisecond))
	return nil
}
