package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/obsidx/obsidx/internal/output"
)

// newNoteOptions holds CLI flags for new.
type newNoteOptions struct {
	tags []string
	dir  string
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func newNewCmd(root *rootOptions) *cobra.Command {
	var opts newNoteOptions

	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a note and index it",
		Long: `Create a markdown note with frontmatter from the title, then run an
incremental index pass so the note is searchable immediately.

Examples:
  obsidx new "Meeting notes 2026-08-30"
  obsidx new "Pasta carbonara" --tag cooking --dir recipes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd, root, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "Tag for the new note (repeatable)")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Vault-relative directory for the note")
	return cmd
}

func runNew(cmd *cobra.Command, root *rootOptions, title string, opts newNoteOptions) error {
	out := output.New(cmd.OutOrStdout())

	vaultRoot, _, err := root.resolveVault()
	if err != nil {
		return err
	}

	rel := slugify(title) + ".md"
	if opts.dir != "" {
		rel = filepath.ToSlash(filepath.Join(opts.dir, rel))
	}
	abs := filepath.Join(vaultRoot, filepath.FromSlash(rel))
	if _, err := os.Stat(abs); err == nil {
		return fmt.Errorf("note already exists: %s", rel)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", title)
	fmt.Fprintf(&b, "created: %s\n", time.Now().Format(time.RFC3339))
	if len(opts.tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(opts.tags, ", "))
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n", title)

	if err := os.WriteFile(abs, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	out.Success("created %s", rel)

	c, err := root.openCoordinator()
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.Update(cmd.Context()); err != nil {
		return err
	}
	out.Success("indexed %s", rel)
	return nil
}

// slugify lowercases the title and collapses everything that is not a
// letter or digit into single hyphens.
func slugify(title string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
