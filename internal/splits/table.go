// Package splits holds the static stock-split table and the value-preserving
// adjustment that rescales historical quantities and prices into post-split terms.
package splits

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// Method identifies the split source in SplitInfo.
const Method = "database"

// Table is an immutable, symbol-indexed set of split events. Safe for concurrent reads.
type Table struct {
	events   []model.SplitEvent
	bySymbol map[string][]model.SplitEvent // ascending by effective date
}

// Adjustment is the result of applying the table to one holding.
type Adjustment struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Info     model.SplitInfo
	Events   []model.SplitEvent
}

// NewTable indexes events by symbol. The slice is copied.
func NewTable(events []model.SplitEvent) *Table {
	t := &Table{
		events:   make([]model.SplitEvent, len(events)),
		bySymbol: make(map[string][]model.SplitEvent),
	}
	copy(t.events, events)
	for _, ev := range t.events {
		key := normalizeSymbol(ev.Symbol)
		t.bySymbol[key] = append(t.bySymbol[key], ev)
	}
	for _, evs := range t.bySymbol {
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].EffectiveDate.Before(evs[j].EffectiveDate)
		})
	}
	return t
}

// Load reads a split table CSV from path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening split table: %w", err)
	}
	defer f.Close()

	events, err := ReadEvents(f)
	if err != nil {
		return nil, fmt.Errorf("reading split table: %w", err)
	}
	return NewTable(events), nil
}

// All returns every event in table order.
func (t *Table) All() []model.SplitEvent {
	out := make([]model.SplitEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Events returns the events for symbol, oldest first.
func (t *Table) Events(symbol string) []model.SplitEvent {
	evs := t.bySymbol[normalizeSymbol(symbol)]
	out := make([]model.SplitEvent, len(evs))
	copy(out, evs)
	return out
}

// HasHistory reports whether symbol has any split on record.
func (t *Table) HasHistory(symbol string) bool {
	return len(t.bySymbol[normalizeSymbol(symbol)]) > 0
}

// CumulativeRatio returns the product of the ratios of every split effective strictly
// after the acquisition day, and the events that qualified. No qualifying split yields 1.
func (t *Table) CumulativeRatio(symbol string, acquired time.Time) (decimal.Decimal, []model.SplitEvent) {
	day := truncateDay(acquired)
	ratio := decimal.NewFromInt(1)
	var applied []model.SplitEvent
	for _, ev := range t.bySymbol[normalizeSymbol(symbol)] {
		if !truncateDay(ev.EffectiveDate).After(day) {
			continue
		}
		ratio = ratio.Mul(ev.Ratio)
		applied = append(applied, ev)
	}
	return ratio, applied
}

// Adjust rescales a raw quantity and price by the cumulative ratio for the acquisition date.
// quantity × price is preserved.
func (t *Table) Adjust(symbol string, quantity, price decimal.Decimal, acquired time.Time) Adjustment {
	ratio, events := t.CumulativeRatio(symbol, acquired)
	adj := Adjustment{
		Quantity: quantity,
		Price:    price,
		Events:   events,
		Info: model.SplitInfo{
			Applied:         ratio.GreaterThan(decimal.NewFromInt(1)),
			CumulativeRatio: ratio,
			Method:          Method,
			RawQuantity:     quantity,
			RawPrice:        price,
		},
	}
	if !adj.Info.Applied {
		return adj
	}
	adj.Quantity = quantity.Mul(ratio)
	adj.Price = price.Div(ratio)
	for _, ev := range events {
		adj.Info.Events = append(adj.Info.Events, describe(ev))
	}
	return adj
}

func describe(ev model.SplitEvent) string {
	label := ev.Label
	if label == "" {
		label = ev.Ratio.String() + "-for-1"
	}
	return fmt.Sprintf("%s %s on %s", ev.Symbol, label, ev.EffectiveDate.Format(model.DateFormat))
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
