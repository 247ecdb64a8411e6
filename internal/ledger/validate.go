package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// notionalTolerance bounds the drift a split rescale may introduce into quantity × price.
var notionalTolerance = decimal.New(1, -6)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant int
	Row       int
	Symbol    string
	Detail    string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [row %d %s]: %s", e.Invariant, e.Row, e.Symbol, e.Detail)
}

// ValidateEntries enforces the ledger invariants. Row numbers are 1-based positions in
// entries, not source rows.
func ValidateEntries(entries []model.LedgerEntry) []ValidationError {
	var errs []ValidationError
	for i, e := range entries {
		fail := func(inv int, format string, args ...any) {
			errs = append(errs, ValidationError{
				Invariant: inv,
				Row:       i + 1,
				Symbol:    e.Symbol,
				Detail:    fmt.Sprintf(format, args...),
			})
		}

		// Invariant 1: positive quantity and price, non-negative fees.
		if !e.Quantity.IsPositive() {
			fail(1, "quantity %s is not positive", e.Quantity)
		}
		if !e.Price.IsPositive() {
			fail(1, "price %s is not positive", e.Price)
		}
		if e.Fees.IsNegative() {
			fail(1, "fees %s are negative", e.Fees)
		}

		// Invariant 2: known action.
		if e.Action != model.ActionBuy && e.Action != model.ActionSell {
			fail(2, "unknown action %q", e.Action)
		}

		// Invariant 3: symbol and date present.
		if e.Symbol == "" {
			fail(3, "missing symbol")
		}
		if e.Date.IsZero() {
			fail(3, "missing date")
		}

		// Invariant 4: only native positions reach a ledger.
		if !e.Provenance.NativePosition || e.Provenance.IsExternal {
			fail(4, "entry is not native to the account")
		}

		// Invariant 5: a split rescale preserves notional value.
		if e.SplitInfo.Applied {
			if !e.SplitInfo.CumulativeRatio.GreaterThan(decimal.NewFromInt(1)) {
				fail(5, "split applied with ratio %s", e.SplitInfo.CumulativeRatio)
			}
			raw := e.SplitInfo.RawQuantity.Mul(e.SplitInfo.RawPrice)
			if raw.Sub(e.Notional()).Abs().GreaterThan(notionalTolerance) {
				fail(5, "notional %s differs from pre-split %s", e.Notional().StringFixed(6), raw.StringFixed(6))
			}
			if !e.SplitInfo.RawQuantity.Mul(e.SplitInfo.CumulativeRatio).Equal(e.Quantity) {
				fail(5, "quantity %s is not %s × %s", e.Quantity, e.SplitInfo.RawQuantity, e.SplitInfo.CumulativeRatio)
			}
		}
	}
	return errs
}
