package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Format classifies a brokerage export.
type Format string

const (
	FormatPositionSnapshot  Format = "position_snapshot"
	FormatTransactionLedger Format = "transaction_ledger"
	FormatUnrecognized      Format = "unrecognized"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// DiagnosticType categorizes diagnostics by the condition that raised them.
type DiagnosticType string

const (
	DiagFormatDetected         DiagnosticType = "format_detected"
	DiagRowSkipped             DiagnosticType = "row_skipped"
	DiagExternalFiltered       DiagnosticType = "external_filtered"
	DiagCostBasisDegraded      DiagnosticType = "cost_basis_degraded"
	DiagSplitAdjustmentApplied DiagnosticType = "split_adjustment_applied"
	DiagSplitCheckSkipped      DiagnosticType = "split_check_skipped"
	DiagMultipleInstitutions   DiagnosticType = "multiple_institutions"
	DiagNoEntries              DiagnosticType = "no_entries"
)

// Diagnostic is a non-fatal observation returned verbatim to the user.
type Diagnostic struct {
	Type     DiagnosticType `json:"type" yaml:"type"`
	Message  string         `json:"message" yaml:"message"`
	Severity Severity       `json:"severity" yaml:"severity"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// SkippedRow explains why a source row produced no entry.
type SkippedRow struct {
	Row    int    `json:"row" yaml:"row"`
	Symbol string `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
}

// SplitAdjustment records one value-preserving rescale.
type SplitAdjustment struct {
	Row              int             `json:"row" yaml:"row"`
	Symbol           string          `json:"symbol" yaml:"symbol"`
	RawQuantity      decimal.Decimal `json:"rawQuantity" yaml:"raw_quantity"`
	RawPrice         decimal.Decimal `json:"rawPrice" yaml:"raw_price"`
	AdjustedQuantity decimal.Decimal `json:"adjustedQuantity" yaml:"adjusted_quantity"`
	AdjustedPrice    decimal.Decimal `json:"adjustedPrice" yaml:"adjusted_price"`
	CumulativeRatio  decimal.Decimal `json:"cumulativeRatio" yaml:"cumulative_ratio"`
	Events           []string        `json:"events" yaml:"events"`
}

// AccountAnalysis summarizes the institutions and account sources observed in a sample of rows.
type AccountAnalysis struct {
	SampleSize              int      `json:"sampleSize" yaml:"sample_size"`
	Institutions            []string `json:"institutions,omitempty" yaml:"institutions,omitempty"`
	AccountSources          []string `json:"accountSources,omitempty" yaml:"account_sources,omitempty"`
	TargetBrokerage         string   `json:"targetBrokerage,omitempty" yaml:"target_brokerage,omitempty"`
	TargetInstitution       string   `json:"targetInstitution,omitempty" yaml:"target_institution,omitempty"`
	NonMatchingInstitutions []string `json:"nonMatchingInstitutions,omitempty" yaml:"non_matching_institutions,omitempty"`
}

// MultipleInstitutions reports whether the sample mixes institutions.
func (a AccountAnalysis) MultipleInstitutions() bool {
	return len(a.Institutions) >= 2
}

// Summary counts what happened to the data rows of a parse.
type Summary struct {
	TotalRows         int `json:"totalRows" yaml:"total_rows"`
	Imported          int `json:"imported" yaml:"imported"`
	Skipped           int `json:"skipped" yaml:"skipped"`
	ExternalFiltered  int `json:"externalFiltered" yaml:"external_filtered"`
	SplitCorrected    int `json:"splitCorrected" yaml:"split_corrected"`
	CostBasisDegraded int `json:"costBasisDegraded" yaml:"cost_basis_degraded"`
}

// ParseResult is the immutable outcome of one parse.
type ParseResult struct {
	ID               uuid.UUID         `json:"id" yaml:"id"`
	Format           Format            `json:"format" yaml:"format"`
	Dialect          string            `json:"dialect" yaml:"dialect"`
	Account          string            `json:"account" yaml:"account"`
	ParsedAt         time.Time         `json:"parsedAt" yaml:"parsed_at"`
	Entries          []LedgerEntry     `json:"entries" yaml:"entries"`
	Summary          Summary           `json:"summary" yaml:"summary"`
	Diagnostics      []Diagnostic      `json:"diagnostics" yaml:"diagnostics"`
	Skipped          []SkippedRow      `json:"skipped" yaml:"skipped"`
	SplitAdjustments []SplitAdjustment `json:"splitAdjustments" yaml:"split_adjustments"`
	AccountAnalysis  AccountAnalysis   `json:"accountAnalysis" yaml:"account_analysis"`
}

// DiagnosticsOf returns the diagnostics of type t.
func (r *ParseResult) DiagnosticsOf(t DiagnosticType) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}
