package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the ISO-8601 date layout used on every ledger boundary.
const DateFormat = "2006-01-02"

// Action is the trade direction of a ledger entry.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Confidence grades a heuristic decision.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// SplitEvent is one forward stock split.
type SplitEvent struct {
	Symbol        string
	EffectiveDate time.Time
	Ratio         decimal.Decimal // > 1
	Label         string
}

// SplitInfo records what the split engine did to an entry.
type SplitInfo struct {
	Applied         bool            `json:"applied" yaml:"applied"`
	CumulativeRatio decimal.Decimal `json:"cumulativeRatio" yaml:"cumulative_ratio"`
	Method          string          `json:"method" yaml:"method"`
	Events          []string        `json:"events,omitempty" yaml:"events,omitempty"`
	RawQuantity     decimal.Decimal `json:"rawQuantity" yaml:"raw_quantity"`
	RawPrice        decimal.Decimal `json:"rawPrice" yaml:"raw_price"`
}

// Provenance records how an entry was derived.
type Provenance struct {
	NativePosition      bool       `json:"nativePosition" yaml:"native_position"`
	IsExternal          bool       `json:"isExternal" yaml:"is_external"`
	IsPositionImport    bool       `json:"isPositionImport" yaml:"is_position_import"`
	SplitAdjusted       bool       `json:"splitAdjusted" yaml:"split_adjusted"`
	CostBasisMethod     string     `json:"costBasisMethod,omitempty" yaml:"cost_basis_method,omitempty"`
	CostBasisConfidence Confidence `json:"costBasisConfidence,omitempty" yaml:"cost_basis_confidence,omitempty"`
	OriginReason        string     `json:"originReason,omitempty" yaml:"origin_reason,omitempty"`
}

// LedgerEntry is the canonical unit handed to the batch-import collaborator.
type LedgerEntry struct {
	Date              time.Time
	Action            Action
	Symbol            string
	Quantity          decimal.Decimal // > 0
	Price             decimal.Decimal // > 0
	Fees              decimal.Decimal // >= 0
	Account           string
	Provenance        Provenance
	SplitInfo         SplitInfo
	OriginalRowSample []string
	SourceRow         int
}

// Notional returns quantity × price.
func (e LedgerEntry) Notional() decimal.Decimal {
	return e.Quantity.Mul(e.Price)
}

// entryView is the wire shape of a LedgerEntry: the date travels as an ISO-8601 string.
type entryView struct {
	Date              string          `json:"date" yaml:"date"`
	Action            Action          `json:"action" yaml:"action"`
	Symbol            string          `json:"symbol" yaml:"symbol"`
	Quantity          decimal.Decimal `json:"quantity" yaml:"quantity"`
	Price             decimal.Decimal `json:"price" yaml:"price"`
	Fees              decimal.Decimal `json:"fees" yaml:"fees"`
	Account           string          `json:"account" yaml:"account"`
	Provenance        Provenance      `json:"provenance" yaml:"provenance"`
	SplitInfo         SplitInfo       `json:"splitInfo" yaml:"split_info"`
	OriginalRowSample []string        `json:"originalRowSample,omitempty" yaml:"original_row_sample,omitempty"`
	SourceRow         int             `json:"sourceRow" yaml:"source_row"`
}

func (e LedgerEntry) view() entryView {
	return entryView{
		Date:              e.Date.Format(DateFormat),
		Action:            e.Action,
		Symbol:            e.Symbol,
		Quantity:          e.Quantity,
		Price:             e.Price,
		Fees:              e.Fees,
		Account:           e.Account,
		Provenance:        e.Provenance,
		SplitInfo:         e.SplitInfo,
		OriginalRowSample: e.OriginalRowSample,
		SourceRow:         e.SourceRow,
	}
}

// MarshalJSON implements json.Marshaler.
func (e LedgerEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.view())
}

// MarshalYAML implements yaml.Marshaler.
func (e LedgerEntry) MarshalYAML() (any, error) {
	return e.view(), nil
}
