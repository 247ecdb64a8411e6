package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/config"
	"github.com/cleared-dev/folio/internal/gitops"
	"github.com/cleared-dev/folio/internal/keywords"
	"github.com/cleared-dev/folio/internal/splits"
)

func newInitCommand() *cobra.Command {
	var account string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new folio workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, account, !noGit)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "target account label, e.g. \"Fidelity Individual\" (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not create a git repository")

	return cmd
}

func runInit(cmd *cobra.Command, dir, account string, useGit bool) error {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	// Create directory structure.
	dirs := []string{
		"data",
		"ledger",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write folio.yaml.
	cfg := config.Default(account)
	cfg.Data.KeywordsFile = "data/keywords.yaml"
	cfg.Git.AutoCommit = useGit
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Seed the editable reference tables.
	if err := os.WriteFile(filepath.Join(dir, cfg.Data.SplitsFile), []byte(splits.DefaultCSV()), 0o644); err != nil {
		return fmt.Errorf("writing split table: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, cfg.Data.KeywordsFile), keywords.DefaultYAML(), 0o644); err != nil {
		return fmt.Errorf("writing keyword table: %w", err)
	}

	// Write .gitkeep files so empty directories are tracked.
	for _, d := range []string{"ledger", "import", filepath.Join("import", "processed")} {
		if err := os.WriteFile(filepath.Join(dir, d, ".gitkeep"), []byte{}, 0o644); err != nil {
			return fmt.Errorf("writing .gitkeep: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if !useGit {
		fmt.Fprintf(out, "Initialized folio workspace at %s\n", dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(dir, "init: folio workspace for "+account, author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized folio workspace at %s (%s)\n", dir, hash)
	return nil
}
