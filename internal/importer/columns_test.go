package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/folio/internal/model"
)

func TestMapColumns_AverageCostBasis(t *testing.T) {
	cmap := MapColumns([]string{"Symbol", "Quantity", "Average Cost Basis", "Account"}, model.FormatPositionSnapshot, kw())

	assert.Equal(t, model.ColumnMap{
		model.FieldSymbol:   0,
		model.FieldQuantity: 1,
		model.FieldAvgCost:  2,
		model.FieldAccount:  3,
	}, cmap)
	assert.False(t, cmap.Has(model.FieldCostBasisTotal))
}

func TestMapColumns_FidelityHeader(t *testing.T) {
	rows := readRows(t, readTestdata(t, "fidelity_positions.csv"))
	cmap := MapColumns(rows[0].Cells, model.FormatPositionSnapshot, kw())

	want := map[model.Field]int{
		model.FieldAccount:        0,
		model.FieldSymbol:         2,
		model.FieldDescription:    3,
		model.FieldQuantity:       4,
		model.FieldPrice:          5,
		model.FieldCurrentValue:   7,
		model.FieldCostBasisTotal: 11,
		model.FieldAvgCost:        12,
	}
	for f, i := range want {
		got, ok := cmap.Index(f)
		assert.True(t, ok, f)
		assert.Equal(t, i, got, f)
	}
}

func TestMapColumns_SourceBeforeAccount(t *testing.T) {
	cmap := MapColumns([]string{"Symbol", "Quantity", "Account Source", "Account Name"}, model.FormatPositionSnapshot, kw())

	assert.Equal(t, 2, cmap[model.FieldSourceAccount])
	assert.Equal(t, 3, cmap[model.FieldAccount])
}

func TestMapColumns_LedgerOnlyFields(t *testing.T) {
	header := []string{"Date", "Action", "Symbol", "Quantity", "Price", "Fees & Comm", "Amount"}

	snapshot := MapColumns(header, model.FormatPositionSnapshot, kw())
	assert.False(t, snapshot.Has(model.FieldAction))
	assert.False(t, snapshot.Has(model.FieldFees))
	assert.False(t, snapshot.Has(model.FieldAmount))

	ledger := MapColumns(header, model.FormatTransactionLedger, kw())
	assert.Equal(t, 1, ledger[model.FieldAction])
	assert.Equal(t, 5, ledger[model.FieldFees])
	assert.Equal(t, 6, ledger[model.FieldAmount])
	assert.Equal(t, 0, ledger[model.FieldDate])
}

func TestMapColumns_ColumnClaimedOnce(t *testing.T) {
	for _, name := range []string{"fidelity_positions.csv", "aggregated_positions.csv"} {
		rows := readRows(t, readTestdata(t, name))
		cmap := MapColumns(rows[0].Cells, model.FormatPositionSnapshot, kw())

		seen := make(map[int]model.Field)
		for f, i := range cmap {
			prev, dup := seen[i]
			assert.False(t, dup, "%s: column %d claimed by %s and %s", name, i, prev, f)
			seen[i] = f
		}
	}
}

func TestMapColumns_CaseAndQuotes(t *testing.T) {
	cmap := MapColumns([]string{` "TICKER" `, "SHARES", "'Cost Basis Total'"}, model.FormatPositionSnapshot, kw())

	assert.Equal(t, 0, cmap[model.FieldSymbol])
	assert.Equal(t, 1, cmap[model.FieldQuantity])
	assert.Equal(t, 2, cmap[model.FieldCostBasisTotal])
}

func TestMapColumns_OriginalCost(t *testing.T) {
	cmap := MapColumns([]string{"Symbol", "Quantity", "Original Cost"}, model.FormatPositionSnapshot, kw())

	assert.Equal(t, model.ColumnMap{
		model.FieldSymbol:         0,
		model.FieldQuantity:       1,
		model.FieldCostBasisTotal: 2,
	}, cmap)
}

func TestMapColumns_ConfirmationNumberIsNotInstitution(t *testing.T) {
	header := []string{"Date", "Action", "Symbol", "Quantity", "Price", "Confirmation Number"}
	cmap := MapColumns(header, model.FormatTransactionLedger, kw())

	assert.False(t, cmap.Has(model.FieldInstitution))
	assert.False(t, cmap.Has(model.FieldSourceAccount))
	assert.Equal(t, 4, cmap[model.FieldPrice])
}
