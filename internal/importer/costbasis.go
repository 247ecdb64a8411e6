package importer

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// Cost-basis methods, in the order the snapshot chain tries them.
const (
	MethodAvgCost    = "avgCost"
	MethodCalculated = "calculated"
	MethodFallback   = "fallback"
	MethodTradePrice = "tradePrice"
)

// CostBasis is a resolved price per share.
type CostBasis struct {
	PricePerShare decimal.Decimal
	Method        string
	Confidence    model.Confidence
}

// Degraded reports whether the price is a market-value proxy rather than a cost basis.
func (c CostBasis) Degraded() bool {
	return c.Confidence == model.ConfidenceLow
}

type costStep struct {
	method     string
	confidence model.Confidence
	resolve    func(f RowFields, qty decimal.Decimal) (decimal.Decimal, bool)
}

var (
	avgCostStep = costStep{MethodAvgCost, model.ConfidenceHigh, func(f RowFields, _ decimal.Decimal) (decimal.Decimal, bool) {
		return f.AvgCost.Decimal, f.AvgCost.Valid && f.AvgCost.IsPositive()
	}}
	totalCostStep = costStep{MethodCalculated, model.ConfidenceHigh, func(f RowFields, qty decimal.Decimal) (decimal.Decimal, bool) {
		return perShare(f.CostBasisTotal, qty)
	}}
	marketValueStep = costStep{MethodFallback, model.ConfidenceLow, func(f RowFields, qty decimal.Decimal) (decimal.Decimal, bool) {
		return perShare(f.CurrentValue, qty)
	}}
	tradePriceStep = costStep{MethodTradePrice, model.ConfidenceHigh, func(f RowFields, _ decimal.Decimal) (decimal.Decimal, bool) {
		return f.Price.Decimal, f.Price.Valid && f.Price.IsPositive()
	}}
	amountStep = costStep{MethodCalculated, model.ConfidenceHigh, func(f RowFields, qty decimal.Decimal) (decimal.Decimal, bool) {
		return perShare(Number{Decimal: f.Amount.Abs(), Valid: f.Amount.Valid}, qty)
	}}
)

var (
	snapshotChain = []costStep{avgCostStep, totalCostStep, marketValueStep}
	ledgerChain   = []costStep{avgCostStep, tradePriceStep, amountStep, totalCostStep, marketValueStep}
)

// ResolveCostBasis walks the fallback chain for the format and returns the first price
// that resolves. qty must be the positive share count of the row.
func ResolveCostBasis(f RowFields, qty decimal.Decimal, format model.Format) (CostBasis, bool) {
	chain := snapshotChain
	if format == model.FormatTransactionLedger {
		chain = ledgerChain
	}
	for _, step := range chain {
		if p, ok := step.resolve(f, qty); ok {
			return CostBasis{PricePerShare: p, Method: step.method, Confidence: step.confidence}, true
		}
	}
	return CostBasis{}, false
}

func perShare(total Number, qty decimal.Decimal) (decimal.Decimal, bool) {
	if !total.Valid || !total.IsPositive() || !qty.IsPositive() {
		return decimal.Zero, false
	}
	return total.Div(qty), true
}
