package importer

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// Number is a parsed numeric cell. Valid is false when the cell was absent or unreadable.
type Number struct {
	decimal.Decimal
	Valid bool
}

// RowFields is a raw row projected through the column map into named fields.
// Business rules read RowFields only, never column positions.
type RowFields struct {
	Row            model.RawRow
	Symbol         string
	RawSymbol      string
	Description    string
	Quantity       Number
	Price          Number
	AvgCost        Number
	CostBasisTotal Number
	CurrentValue   Number
	Fees           Number
	Amount         Number
	Account        string
	Institution    string
	ExternalFlag   string
	SourceAccount  string
	Status         string
	Action         string
	Date           string
}

// Project reads the mapped cells of row.
func Project(row model.RawRow, cmap model.ColumnMap) RowFields {
	text := func(f model.Field) string {
		v, _ := cmap.Value(row, f)
		return v
	}
	num := func(f model.Field) Number {
		v, ok := cmap.Value(row, f)
		if !ok {
			return Number{}
		}
		d, ok := parseNumber(v)
		return Number{Decimal: d, Valid: ok}
	}

	raw := text(model.FieldSymbol)
	return RowFields{
		Row:            row,
		Symbol:         cleanSymbol(raw),
		RawSymbol:      raw,
		Description:    text(model.FieldDescription),
		Quantity:       num(model.FieldQuantity),
		Price:          num(model.FieldPrice),
		AvgCost:        num(model.FieldAvgCost),
		CostBasisTotal: num(model.FieldCostBasisTotal),
		CurrentValue:   num(model.FieldCurrentValue),
		Fees:           num(model.FieldFees),
		Amount:         num(model.FieldAmount),
		Account:        text(model.FieldAccount),
		Institution:    text(model.FieldInstitution),
		ExternalFlag:   text(model.FieldExternalFlag),
		SourceAccount:  text(model.FieldSourceAccount),
		Status:         text(model.FieldStatus),
		Action:         text(model.FieldAction),
		Date:           text(model.FieldDate),
	}
}

// parseNumber reads broker-formatted numbers: "$1,234.56", "(12.00)", "+3", "12%".
func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(s)

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "+")

	switch strings.ToLower(s) {
	case "", "-", "--", "n/a", "na":
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,5}([./-][A-Z0-9]{1,3})?$`)

// cleanSymbol upper-cases a ticker and strips quotes and trailing markers such as "**".
func cleanSymbol(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimRight(s, "* ")
	return strings.ToUpper(strings.TrimSpace(s))
}

func validSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}

var dateLayouts = []string{
	model.DateFormat,
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006/01/02",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseDate reads the trade or acquisition dates brokers print. Schwab's
// "06/03/2024 as of 05/31/2024" yields the first date.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if before, _, found := strings.Cut(strings.ToLower(s), " as of "); found {
		s = strings.TrimSpace(s[:len(before)])
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
