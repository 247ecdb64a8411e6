package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/ledger"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <ledger.csv>",
		Short: "Check a ledger file against the ledger invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening ledger: %w", err)
			}
			defer f.Close()

			entries, err := ledger.ReadEntries(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verrs := ledger.ValidateEntries(entries)
			for _, ve := range verrs {
				fmt.Fprintln(out, ve.Error())
			}
			if len(verrs) > 0 {
				return fmt.Errorf("%d %s in %s", len(verrs), plural(len(verrs), "violation", "violations"), args[0])
			}
			fmt.Fprintf(out, "%s: %d entries OK\n", args[0], len(entries))
			return nil
		},
	}
}
