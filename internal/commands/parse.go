package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/folio/internal/importer"
	"github.com/cleared-dev/folio/internal/ledger"
	"github.com/cleared-dev/folio/internal/model"
)

type parseFlags struct {
	account   string
	format    string
	out       string
	acquired  string
	watchList []string
}

func newParseCommand(g *globalFlags) *cobra.Command {
	var f parseFlags

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a brokerage export and print the result",
		Long: "Parse a brokerage export without touching the workspace. The result is printed\n" +
			"as a summary table (text), the full parse result (json, yaml) or ledger CSV (csv).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, g, f, args[0])
		},
	}

	cmd.Flags().StringVar(&f.account, "account", "", "target account label (default from folio.yaml)")
	cmd.Flags().StringVar(&f.format, "format", "text", "output format: text, json, yaml or csv")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write output to a file instead of stdout")
	cmd.Flags().StringVar(&f.acquired, "acquired", "", "acquisition date (YYYY-MM-DD) for undated position rows")
	cmd.Flags().StringSliceVar(&f.watchList, "watch", nil, "symbols for the concentration watch list (adds to folio.yaml)")

	return cmd
}

func runParse(cmd *cobra.Command, g *globalFlags, f parseFlags, path string) error {
	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}

	opts, err := parseOptions(f.acquired, append(ws.cfg.Parse.WatchList, f.watchList...))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	res, err := ws.parser(opts).Parse(string(data), ws.account(f.account))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	w := cmd.OutOrStdout()
	if f.out != "" {
		file, err := os.Create(f.out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", f.out, err)
		}
		defer file.Close()
		w = file
	}
	return writeResult(w, res, f.format)
}

func parseOptions(acquired string, watchList []string) (importer.Options, error) {
	var opts importer.Options
	if acquired != "" {
		d, err := time.Parse(model.DateFormat, acquired)
		if err != nil {
			return opts, fmt.Errorf("parsing --acquired %q: %w", acquired, err)
		}
		opts.AcquiredOn = d
	}
	opts.WatchList = watchList
	return opts, nil
}

func writeResult(w io.Writer, res *model.ParseResult, format string) error {
	switch strings.ToLower(format) {
	case "text", "":
		return writeText(w, res)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "csv":
		return ledger.WriteEntries(w, res.Entries)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, res *model.ParseResult) error {
	s := res.Summary
	fmt.Fprintf(w, "Format:   %s (%s dialect)\n", res.Format, res.Dialect)
	if res.Account != "" {
		fmt.Fprintf(w, "Account:  %s\n", res.Account)
	}
	fmt.Fprintf(w, "Rows:     %d total, %d imported, %d skipped, %d external, %d split-corrected, %d cost-basis issues\n",
		s.TotalRows, s.Imported, s.Skipped, s.ExternalFiltered, s.SplitCorrected, s.CostBasisDegraded)

	if len(res.Entries) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tACTION\tSYMBOL\tQUANTITY\tPRICE\tFEES\tCOST BASIS\tSPLIT")
		for _, e := range res.Entries {
			split := ""
			if e.SplitInfo.Applied {
				split = "×" + e.SplitInfo.CumulativeRatio.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Date.Format(model.DateFormat), e.Action, e.Symbol,
				e.Quantity.String(), e.Price.StringFixed(4), e.Fees.StringFixed(2),
				e.Provenance.CostBasisMethod, split)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintln(w, "\nSkipped:")
		for _, sk := range res.Skipped {
			fmt.Fprintf(w, "  row %d %s: %s\n", sk.Row, sk.Symbol, sk.Reason)
		}
	}

	if len(res.Diagnostics) > 0 {
		fmt.Fprintln(w, "\nDiagnostics:")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(w, "  [%s] %s\n", d.Severity, d.Message)
		}
	}
	return nil
}
