package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/gitops"
	"github.com/cleared-dev/folio/internal/importer"
	"github.com/cleared-dev/folio/internal/importlog"
	"github.com/cleared-dev/folio/internal/ledger"
	"github.com/cleared-dev/folio/internal/model"
)

func newImportCommand(g *globalFlags) *cobra.Command {
	var account string
	var acquired string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import every export waiting in import/ into the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, g, account, acquired, dryRun)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "target account label (default from folio.yaml)")
	cmd.Flags().StringVar(&acquired, "acquired", "", "acquisition date (YYYY-MM-DD) for undated position rows")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without writing anything")

	return cmd
}

func runImport(cmd *cobra.Command, g *globalFlags, account, acquired string, dryRun bool) error {
	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}

	opts, err := parseOptions(acquired, nil)
	if err != nil {
		return err
	}
	p := ws.parser(opts)
	target := ws.account(account)

	files, err := importer.Scan(ws.root)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "Nothing to import.")
		return nil
	}

	svc := ledger.NewService(ws.root)
	var logEntries []importlog.Entry
	var failed []string

	for _, file := range files {
		res, err := parseFile(p, file, target)
		if err != nil {
			ws.log.Warn().Str("file", file.Name).Err(err).Msg("skipping file")
			fmt.Fprintf(out, "%s: %v\n", file.Name, err)
			failed = append(failed, file.Name)
			continue
		}

		fmt.Fprintf(out, "%s: %s (%s), %d imported, %d skipped, %d external, %d split-corrected\n",
			file.Name, res.Format, res.Dialect, res.Summary.Imported, res.Summary.Skipped,
			res.Summary.ExternalFiltered, res.Summary.SplitCorrected)
		if dryRun {
			continue
		}

		entry, err := recordFile(ws.root, svc, file, res)
		if entry != nil {
			logEntries = append(logEntries, *entry)
		}
		if err != nil {
			ws.log.Error().Str("file", file.Name).Err(err).Msg("import failed")
			fmt.Fprintf(out, "%s: %v\n", file.Name, err)
			failed = append(failed, file.Name)
		}
	}

	if dryRun || len(logEntries) == 0 {
		return failedErr(failed)
	}

	// Log and commit whatever reached the ledger, even when a later file failed.
	if err := importlog.Append(ws.root, logEntries); err != nil {
		return fmt.Errorf("writing import log: %w", err)
	}

	if ws.cfg.Git.AutoCommit && gitops.IsRepo(ws.root) {
		n := len(logEntries)
		author := gitops.Author{Name: ws.cfg.Git.AuthorName, Email: ws.cfg.Git.AuthorEmail}
		msg := fmt.Sprintf("import: %d %s", n, plural(n, "file", "files"))
		hash, err := gitops.Commit(ws.root, msg, author, "ledger", "logs", filepath.Join("import", "processed"))
		if err != nil && !errors.Is(err, gitops.ErrNothingToCommit) {
			return fmt.Errorf("committing import: %w", err)
		}
		if hash != "" {
			fmt.Fprintf(out, "Committed %s\n", hash)
		}
	}
	return failedErr(failed)
}

func parseFile(p *importer.Parser, file importer.FileInfo, target string) (*model.ParseResult, error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}
	return p.Parse(string(data), target)
}

// recordFile appends a parsed export to its ledger and moves it to processed/. The log
// entry is returned whenever the ledger was written, even if the move then failed.
func recordFile(root string, svc *ledger.Service, file importer.FileInfo, res *model.ParseResult) (*importlog.Entry, error) {
	ledgerPath := ""
	if len(res.Entries) > 0 {
		path, err := svc.Append(file.Name, res.Entries)
		if err != nil {
			return nil, fmt.Errorf("writing ledger: %w", err)
		}
		ledgerPath, _ = filepath.Rel(root, path)
	}
	entry := importlog.FromResult(file.Name, ledgerPath, res)
	if err := importer.MarkProcessed(root, file.Name); err != nil {
		return &entry, err
	}
	return &entry, nil
}

func failedErr(failed []string) error {
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d %s could not be imported: %v", len(failed), plural(len(failed), "file", "files"), failed)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
