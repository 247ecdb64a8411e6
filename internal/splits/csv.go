package splits

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// Header is the CSV header for a split table.
const Header = "symbol,effective_date,ratio,label"

const (
	numFields  = 4
	dateFormat = model.DateFormat
	colSymbol  = 0
	colDate    = 1
	colRatio   = 2
	colLabel   = 3
)

// ReadEvents reads a split table CSV.
func ReadEvents(r io.Reader) ([]model.SplitEvent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.Comment = '#'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading splits CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var events []model.SplitEvent
	for i, rec := range records[1:] {
		ev, err := UnmarshalEvent(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// WriteEvents writes a split table CSV (including header).
func WriteEvents(w io.Writer, events []model.SplitEvent) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, ev := range events {
		if err := cw.Write(MarshalEvent(ev)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEvent converts a SplitEvent to a CSV row.
func MarshalEvent(ev model.SplitEvent) []string {
	row := make([]string, numFields)
	row[colSymbol] = ev.Symbol
	row[colDate] = ev.EffectiveDate.Format(dateFormat)
	row[colRatio] = ev.Ratio.String()
	row[colLabel] = ev.Label
	return row
}

// UnmarshalEvent converts a CSV row to a SplitEvent.
// The ratio is either a plain number ("10") or "new:old" ("3:2").
func UnmarshalEvent(record []string) (model.SplitEvent, error) {
	if len(record) != numFields {
		return model.SplitEvent{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	symbol := strings.ToUpper(strings.TrimSpace(record[colSymbol]))
	if symbol == "" {
		return model.SplitEvent{}, fmt.Errorf("empty symbol")
	}

	date, err := time.Parse(dateFormat, strings.TrimSpace(record[colDate]))
	if err != nil {
		return model.SplitEvent{}, fmt.Errorf("parsing effective_date %q: %w", record[colDate], err)
	}

	ratio, err := parseRatio(record[colRatio])
	if err != nil {
		return model.SplitEvent{}, fmt.Errorf("parsing ratio %q: %w", record[colRatio], err)
	}
	if !ratio.GreaterThan(decimal.NewFromInt(1)) {
		return model.SplitEvent{}, fmt.Errorf("ratio %s for %s is not a forward split", ratio, symbol)
	}

	return model.SplitEvent{
		Symbol:        symbol,
		EffectiveDate: date,
		Ratio:         ratio,
		Label:         strings.TrimSpace(record[colLabel]),
	}, nil
}

func parseRatio(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	num, den, found := strings.Cut(s, ":")
	if !found {
		return decimal.NewFromString(s)
	}
	n, err := decimal.NewFromString(strings.TrimSpace(num))
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(den))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("denominator must be positive")
	}
	return n.Div(d), nil
}
