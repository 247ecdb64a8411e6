package model

import "strings"

// Field names a semantic column of a brokerage export.
type Field string

const (
	FieldSymbol         Field = "symbol"
	FieldQuantity       Field = "quantity"
	FieldPrice          Field = "price"
	FieldAvgCost        Field = "avgCost"
	FieldCostBasisTotal Field = "costBasisTotal"
	FieldCurrentValue   Field = "currentValue"
	FieldAccount        Field = "account"
	FieldInstitution    Field = "institution"
	FieldExternalFlag   Field = "externalFlag"
	FieldSourceAccount  Field = "sourceAccount"
	FieldStatus         Field = "status"
	FieldDate           Field = "date"
	FieldAction         Field = "action"
	FieldFees           Field = "fees"
	FieldAmount         Field = "amount"
	FieldDescription    Field = "description"
)

// RawRow is one delimited record as read from the source text.
type RawRow struct {
	Index int // zero-based record index in the source
	Cells []string
}

// Cell returns the trimmed cell at i. A missing or blank cell is reported absent.
func (r RawRow) Cell(i int) (string, bool) {
	if i < 0 || i >= len(r.Cells) {
		return "", false
	}
	v := strings.TrimSpace(r.Cells[i])
	if v == "" {
		return "", false
	}
	return v, true
}

// IsBlank reports whether every cell is empty.
func (r RawRow) IsBlank() bool {
	for i := range r.Cells {
		if _, ok := r.Cell(i); ok {
			return false
		}
	}
	return true
}

// Sample returns up to n leading cells, used to echo the source row in diagnostics.
func (r RawRow) Sample(n int) []string {
	if len(r.Cells) < n {
		n = len(r.Cells)
	}
	out := make([]string, n)
	copy(out, r.Cells[:n])
	return out
}

// ColumnMap maps semantic fields to column indexes of the detected header.
type ColumnMap map[Field]int

// Index returns the column for f.
func (m ColumnMap) Index(f Field) (int, bool) {
	i, ok := m[f]
	return i, ok
}

// Has reports whether f was mapped.
func (m ColumnMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Value projects f out of row.
func (m ColumnMap) Value(row RawRow, f Field) (string, bool) {
	i, ok := m[f]
	if !ok {
		return "", false
	}
	return row.Cell(i)
}
