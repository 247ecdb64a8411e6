package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/folio/internal/model"
)

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, ValidateEntries([]model.LedgerEntry{splitEntry(), plainEntry()}))
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.LedgerEntry)
		invariant int
	}{
		{"zero quantity", func(e *model.LedgerEntry) { e.Quantity = dec("0") }, 1},
		{"negative price", func(e *model.LedgerEntry) { e.Price = dec("-1") }, 1},
		{"negative fees", func(e *model.LedgerEntry) { e.Fees = dec("-0.01") }, 1},
		{"unknown action", func(e *model.LedgerEntry) { e.Action = "DIVIDEND" }, 2},
		{"missing symbol", func(e *model.LedgerEntry) { e.Symbol = "" }, 3},
		{"external", func(e *model.LedgerEntry) { e.Provenance.IsExternal = true }, 4},
		{"not native", func(e *model.LedgerEntry) { e.Provenance.NativePosition = false }, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := plainEntry()
			tt.mutate(&e)
			errs := ValidateEntries([]model.LedgerEntry{e})
			require.Len(t, errs, 1)
			assert.Equal(t, tt.invariant, errs[0].Invariant)
			assert.Equal(t, 1, errs[0].Row)
		})
	}
}

func TestValidate_SplitNotionalDrift(t *testing.T) {
	e := splitEntry()
	e.Price = dec("86")

	errs := ValidateEntries([]model.LedgerEntry{plainEntry(), e})
	require.Len(t, errs, 1)
	assert.Equal(t, 5, errs[0].Invariant)
	assert.Equal(t, 2, errs[0].Row)
	assert.Contains(t, errs[0].Error(), "NVDA")
}

func TestValidate_SplitQuantityMismatch(t *testing.T) {
	e := splitEntry()
	e.Quantity = dec("200")
	e.Price = dec("170")

	errs := ValidateEntries([]model.LedgerEntry{e})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Detail, "quantity 200 is not 40 × 10")
}
