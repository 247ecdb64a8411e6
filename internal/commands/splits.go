package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/model"
)

func newSplitsCommand(g *globalFlags) *cobra.Command {
	splitsCmd := &cobra.Command{
		Use:   "splits",
		Short: "Inspect the stock-split table",
	}
	splitsCmd.AddCommand(newSplitsListCommand(g))
	splitsCmd.AddCommand(newSplitsRatioCommand(g))
	return splitsCmd
}

func newSplitsListCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list [symbol]",
		Short: "List split events, optionally for one symbol",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(g)
			if err != nil {
				return err
			}

			events := ws.splits.All()
			if len(args) > 0 {
				events = ws.splits.Events(args[0])
				if len(events) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No splits recorded for %s\n", strings.ToUpper(args[0]))
					return nil
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tEFFECTIVE\tRATIO\tLABEL")
			for _, ev := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ev.Symbol, ev.EffectiveDate.Format(model.DateFormat), ev.Ratio, ev.Label)
			}
			return tw.Flush()
		},
	}
}

func newSplitsRatioCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ratio <symbol> <acquired>",
		Short: "Show the cumulative split ratio for shares acquired on a date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(g)
			if err != nil {
				return err
			}

			acquired, err := time.Parse(model.DateFormat, args[1])
			if err != nil {
				return fmt.Errorf("parsing date %q: %w", args[1], err)
			}

			ratio, events := ws.splits.CumulativeRatio(args[0], acquired)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s acquired %s: cumulative ratio %s\n", strings.ToUpper(args[0]), args[1], ratio)
			for _, ev := range events {
				fmt.Fprintf(out, "  %s %s on %s\n", ev.Symbol, ev.Label, ev.EffectiveDate.Format(model.DateFormat))
			}
			return nil
		},
	}
}
