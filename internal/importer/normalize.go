package importer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/keywords"
	"github.com/cleared-dev/folio/internal/model"
	"github.com/cleared-dev/folio/internal/splits"
)

// Skip reasons.
const (
	ReasonInvalidSymbol   = "Invalid symbol"
	ReasonPositionClosed  = "Position closed"
	ReasonZeroQuantity    = "Zero or negative quantity"
	ReasonUnsupportedAct  = "Unsupported action"
	ReasonInvalidDate     = "Invalid trade date"
	ReasonNoCostBasis     = "No valid cost basis data"
	ReasonExternalAccount = "External account"
)

const originalRowSampleCells = 8

// Options tune a Parser.
type Options struct {
	ScanLines    int             // rows searched for the header
	SampleRows   int             // data rows sampled for the account analysis
	PriceCeiling decimal.Decimal // per-share cost above this is flagged for review
	WatchList    []string        // symbols the low-confidence origin rule watches
	AcquiredOn   time.Time       // acquisition date for undated snapshot rows; zero means the parse date
	Now          func() time.Time
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		ScanLines:    10,
		SampleRows:   50,
		PriceCeiling: decimal.NewFromInt(10000),
		Now:          time.Now,
	}
}

// Parser turns brokerage exports into canonical ledgers. Its tables are read-only,
// so one Parser serves concurrent Parse calls.
type Parser struct {
	splits *splits.Table
	kw     *keywords.Table
	opts   Options
	log    zerolog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithSplits replaces the built-in split table.
func WithSplits(t *splits.Table) Option { return func(p *Parser) { p.splits = t } }

// WithKeywords replaces the built-in vocabulary.
func WithKeywords(kw *keywords.Table) Option { return func(p *Parser) { p.kw = kw } }

// WithOptions sets the tuning options. Zero fields keep their defaults.
func WithOptions(o Options) Option {
	return func(p *Parser) {
		if o.ScanLines > 0 {
			p.opts.ScanLines = o.ScanLines
		}
		if o.SampleRows > 0 {
			p.opts.SampleRows = o.SampleRows
		}
		if o.PriceCeiling.IsPositive() {
			p.opts.PriceCeiling = o.PriceCeiling
		}
		if o.WatchList != nil {
			p.opts.WatchList = append([]string(nil), o.WatchList...)
		}
		if !o.AcquiredOn.IsZero() {
			p.opts.AcquiredOn = o.AcquiredOn
		}
		if o.Now != nil {
			p.opts.Now = o.Now
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(p *Parser) { p.log = l } }

// NewParser returns a Parser over the built-in tables unless options replace them.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		splits: splits.Default(),
		kw:     keywords.Default(),
		opts:   DefaultOptions(),
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse reads one export for the target account label. Only a missing header is
// fatal (ErrFormatUnrecognized); every row-level problem is reported in the result.
func (p *Parser) Parse(text, account string) (*model.ParseResult, error) {
	rows, err := ReadRows(text, p.opts.ScanLines)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	det, err := Detect(rows, p.kw, p.opts.ScanLines)
	if err != nil {
		p.log.Warn().Err(err).Msg("format unrecognized")
		return nil, err
	}

	data := rows[det.HeaderIndex+1:]
	cmap := MapColumns(det.Header, det.Format, p.kw)
	analysis := Analyze(data, cmap, account, p.kw, p.opts.SampleRows)
	now := p.opts.Now()

	r := &run{
		p:          p,
		det:        det,
		cmap:       cmap,
		account:    strings.TrimSpace(account),
		today:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		classifier: NewClassifier(account, analysis, p.kw, p.opts.WatchList),
		result: &model.ParseResult{
			ID:              uuid.New(),
			Format:          det.Format,
			Dialect:         det.Dialect,
			Account:         strings.TrimSpace(account),
			ParsedAt:        now,
			AccountAnalysis: analysis,

			Entries:          []model.LedgerEntry{},
			Diagnostics:      []model.Diagnostic{},
			Skipped:          []model.SkippedRow{},
			SplitAdjustments: []model.SplitAdjustment{},
		},
	}

	r.diag(model.DiagFormatDetected, model.SeverityInfo,
		fmt.Sprintf("Detected %s (%s dialect) from header row %d", det.Format, det.Dialect, det.HeaderIndex+1),
		map[string]any{"rule": det.Rule, "header": det.Header})

	for _, row := range data {
		r.processRow(row)
	}
	r.summarize()

	s := r.result.Summary
	p.log.Info().
		Str("parse_id", r.result.ID.String()).
		Str("format", string(det.Format)).
		Str("dialect", det.Dialect).
		Int("rows", s.TotalRows).
		Int("imported", s.Imported).
		Int("skipped", s.Skipped).
		Int("external", s.ExternalFiltered).
		Int("split_corrected", s.SplitCorrected).
		Msg("parsed brokerage export")

	return r.result, nil
}

// run accumulates the state of one Parse call.
type run struct {
	p          *Parser
	det        Detection
	cmap       model.ColumnMap
	account    string
	today      time.Time
	classifier *Classifier
	result     *model.ParseResult

	external      []string // symbols
	externalWhy   []string
	degraded      []string // symbols
	undated       []string // symbols with split history but no acquisition date
	skipsByReason map[string][]int
	reasonOrder   []string
}

func (r *run) processRow(row model.RawRow) {
	if row.IsBlank() {
		return
	}
	r.result.Summary.TotalRows++
	f := Project(row, r.cmap)
	isLedger := r.det.Format == model.FormatTransactionLedger

	if f.RawSymbol == "" || r.p.kw.IsNonSecurity(f.RawSymbol) || !validSymbol(f.Symbol) {
		r.skip(row, f.Symbol, ReasonInvalidSymbol, "")
		return
	}
	if f.Status != "" && r.p.kw.IsClosedStatus(f.Status) {
		r.skip(row, f.Symbol, ReasonPositionClosed, f.Status)
		return
	}
	action := model.ActionBuy
	if isLedger {
		a, ok := r.actionOf(f)
		if !ok {
			r.skip(row, f.Symbol, ReasonUnsupportedAct, f.Action)
			return
		}
		action = a
	}

	if !f.Quantity.Valid || f.Quantity.IsZero() || (!isLedger && f.Quantity.IsNegative()) {
		r.skip(row, f.Symbol, ReasonZeroQuantity, "")
		return
	}
	// A sell may carry a negative quantity; a buy may not.
	if action == model.ActionBuy && f.Quantity.IsNegative() {
		r.skip(row, f.Symbol, ReasonZeroQuantity, fmt.Sprintf("%s on a %s row", f.Quantity.String(), action))
		return
	}
	qty := f.Quantity.Abs()

	origin := r.classifier.Classify(f)
	r.p.log.Debug().Int("row", row.Index+1).Str("symbol", f.Symbol).
		Bool("external", origin.IsExternal).Str("rule", origin.Rule).Msg("origin classified")
	if origin.IsExternal {
		r.result.Summary.ExternalFiltered++
		r.external = append(r.external, f.Symbol)
		r.externalWhy = append(r.externalWhy, fmt.Sprintf("%s: %s", f.Symbol, origin.Reason))
		r.skip(row, f.Symbol, ReasonExternalAccount, origin.Reason)
		return
	}

	cb, ok := ResolveCostBasis(f, qty, r.det.Format)
	if !ok {
		r.skip(row, f.Symbol, ReasonNoCostBasis, "")
		return
	}

	date, dated := r.dateOf(f)
	if !dated && isLedger {
		r.skip(row, f.Symbol, ReasonInvalidDate, f.Date)
		return
	}
	r.checkCostBasis(row, f.Symbol, cb)
	assumedToday := false
	if !dated {
		date = r.today
		if !r.p.opts.AcquiredOn.IsZero() {
			date = r.p.opts.AcquiredOn
		} else {
			assumedToday = true
		}
	}

	adj := r.p.splits.Adjust(f.Symbol, qty, cb.PricePerShare, date)
	if assumedToday && !adj.Info.Applied && r.p.splits.HasHistory(f.Symbol) {
		r.undated = append(r.undated, f.Symbol)
	}
	if adj.Info.Applied {
		r.result.Summary.SplitCorrected++
		r.result.SplitAdjustments = append(r.result.SplitAdjustments, model.SplitAdjustment{
			Row:              row.Index + 1,
			Symbol:           f.Symbol,
			RawQuantity:      qty,
			RawPrice:         cb.PricePerShare,
			AdjustedQuantity: adj.Quantity,
			AdjustedPrice:    adj.Price,
			CumulativeRatio:  adj.Info.CumulativeRatio,
			Events:           adj.Info.Events,
		})
	}

	fees := decimal.Zero
	if f.Fees.Valid {
		fees = f.Fees.Abs()
	}
	account := r.account
	if account == "" {
		account = f.Account
	}

	r.result.Entries = append(r.result.Entries, model.LedgerEntry{
		Date:     date,
		Action:   action,
		Symbol:   f.Symbol,
		Quantity: adj.Quantity,
		Price:    adj.Price,
		Fees:     fees,
		Account:  account,
		Provenance: model.Provenance{
			NativePosition:      true,
			IsPositionImport:    !isLedger,
			SplitAdjusted:       adj.Info.Applied,
			CostBasisMethod:     cb.Method,
			CostBasisConfidence: cb.Confidence,
			OriginReason:        origin.Reason,
		},
		SplitInfo:         adj.Info,
		OriginalRowSample: row.Sample(originalRowSampleCells),
		SourceRow:         row.Index + 1,
	})
	r.result.Summary.Imported++
}

// actionOf reads the trade direction from the action cell, then the description.
// Without an action column the sign of the quantity decides.
func (r *run) actionOf(f RowFields) (model.Action, bool) {
	if a, ok := r.p.kw.Action(f.Action); ok {
		return a, true
	}
	if f.Action == "" {
		if a, ok := r.p.kw.Action(f.Description); ok {
			return a, true
		}
	}
	if r.cmap.Has(model.FieldAction) {
		return "", false
	}
	if f.Quantity.IsNegative() {
		return model.ActionSell, true
	}
	return model.ActionBuy, true
}

func (r *run) dateOf(f RowFields) (time.Time, bool) {
	if f.Date == "" {
		return time.Time{}, false
	}
	return parseDate(f.Date)
}

func (r *run) checkCostBasis(row model.RawRow, symbol string, cb CostBasis) {
	flagged := false
	if cb.Degraded() {
		flagged = true
		r.diag(model.DiagCostBasisDegraded, model.SeverityWarning,
			fmt.Sprintf("%s: no cost basis in row %d, using market value per share %s as a proxy",
				symbol, row.Index+1, cb.PricePerShare.StringFixed(2)),
			map[string]any{"row": row.Index + 1, "symbol": symbol, "method": cb.Method})
	}
	if cb.PricePerShare.GreaterThan(r.p.opts.PriceCeiling) {
		flagged = true
		r.diag(model.DiagCostBasisDegraded, model.SeverityWarning,
			fmt.Sprintf("%s: verify cost basis, %s per share in row %d exceeds %s",
				symbol, cb.PricePerShare.StringFixed(2), row.Index+1, r.p.opts.PriceCeiling.StringFixed(2)),
			map[string]any{"row": row.Index + 1, "symbol": symbol, "price": cb.PricePerShare.String()})
	}
	if flagged {
		r.result.Summary.CostBasisDegraded++
		r.degraded = append(r.degraded, symbol)
	}
}

func (r *run) skip(row model.RawRow, symbol, reason, detail string) {
	full := reason
	if detail != "" {
		full = reason + ": " + detail
	}
	r.result.Summary.Skipped++
	r.result.Skipped = append(r.result.Skipped, model.SkippedRow{
		Row:    row.Index + 1,
		Symbol: symbol,
		Reason: full,
	})
	if r.skipsByReason == nil {
		r.skipsByReason = make(map[string][]int)
	}
	if _, seen := r.skipsByReason[reason]; !seen {
		r.reasonOrder = append(r.reasonOrder, reason)
	}
	r.skipsByReason[reason] = append(r.skipsByReason[reason], row.Index+1)
	r.p.log.Debug().Int("row", row.Index+1).Str("symbol", symbol).Str("reason", full).Msg("row skipped")
}

func (r *run) diag(t model.DiagnosticType, sev model.Severity, msg string, data map[string]any) {
	r.result.Diagnostics = append(r.result.Diagnostics, model.Diagnostic{
		Type:     t,
		Severity: sev,
		Message:  msg,
		Data:     data,
	})
}

// summarize appends the roll-up diagnostics shown to the user.
func (r *run) summarize() {
	a := r.result.AccountAnalysis
	if a.MultipleInstitutions() {
		r.diag(model.DiagMultipleInstitutions, model.SeverityInfo,
			fmt.Sprintf("File lists %d institutions: %s", len(a.Institutions), strings.Join(a.Institutions, ", ")),
			map[string]any{"institutions": a.Institutions, "targetInstitution": a.TargetInstitution})
	}

	if n := r.result.Summary.ExternalFiltered; n > 0 {
		r.diag(model.DiagExternalFiltered, model.SeverityWarning,
			fmt.Sprintf("%d %s filtered as external", n, plural(n, "position", "positions")),
			map[string]any{"symbols": unique(r.external), "reasons": r.externalWhy})
	}

	for _, reason := range r.reasonOrder {
		if reason == ReasonExternalAccount {
			continue
		}
		rows := r.skipsByReason[reason]
		r.diag(model.DiagRowSkipped, model.SeverityWarning,
			fmt.Sprintf("%d %s skipped: %s", len(rows), plural(len(rows), "row", "rows"), reason),
			map[string]any{"reason": reason, "rows": rows})
	}

	if len(r.degraded) > 0 {
		syms := unique(r.degraded)
		r.diag(model.DiagCostBasisDegraded, model.SeverityWarning,
			fmt.Sprintf("Cost-basis issues on symbols %s", strings.Join(syms, ", ")),
			map[string]any{"symbols": syms})
	}

	if n := len(r.result.SplitAdjustments); n > 0 {
		var parts []string
		for _, adj := range r.result.SplitAdjustments {
			parts = append(parts, fmt.Sprintf("%s ×%s", adj.Symbol, adj.CumulativeRatio))
		}
		r.diag(model.DiagSplitAdjustmentApplied, model.SeverityInfo,
			fmt.Sprintf("Split adjustment applied to %d %s: %s", n, plural(n, "entry", "entries"), strings.Join(parts, ", ")),
			map[string]any{"count": n})
	}

	if len(r.undated) > 0 {
		syms := unique(r.undated)
		r.diag(model.DiagSplitCheckSkipped, model.SeverityInfo,
			fmt.Sprintf("No acquisition date for %s; split history was not applied", strings.Join(syms, ", ")),
			map[string]any{"symbols": syms})
	}

	if r.result.Summary.Imported == 0 {
		r.diag(model.DiagNoEntries, model.SeverityWarning, "No rows could be imported", nil)
	}
}

func unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
