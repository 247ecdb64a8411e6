package importer

import (
	"strings"

	"github.com/cleared-dev/folio/internal/keywords"
	"github.com/cleared-dev/folio/internal/model"
)

// DialectGeneric is reported when no brokerage can be recognized.
const DialectGeneric = "generic"

// Detection is the Format Detector's verdict.
type Detection struct {
	Format      model.Format
	Dialect     string
	HeaderIndex int
	Header      []string
	Rule        string // the rule that decided the format
}

// formatSignals are the facts the format rules decide on.
type formatSignals struct {
	actionColumn       bool
	positionIndicators []string
	transactionTokens  bool
}

type formatRule struct {
	name   string
	decide func(formatSignals) (model.Format, bool)
}

// formatRules run in order; the first rule with an opinion decides.
var formatRules = []formatRule{
	{
		name: "explicit action column",
		decide: func(s formatSignals) (model.Format, bool) {
			return model.FormatTransactionLedger, s.actionColumn
		},
	},
	{
		name: "transaction tokens without position indicators",
		decide: func(s formatSignals) (model.Format, bool) {
			return model.FormatTransactionLedger, s.transactionTokens && len(s.positionIndicators) == 0
		},
	},
	{
		name: "position indicators",
		decide: func(s formatSignals) (model.Format, bool) {
			return model.FormatPositionSnapshot, len(s.positionIndicators) > 0
		},
	},
	{
		name: "symbol and quantity columns only",
		decide: func(formatSignals) (model.Format, bool) {
			return model.FormatPositionSnapshot, true
		},
	},
}

// Detect classifies rows as a position snapshot or a transaction ledger. The header is
// the first row within scanLines that has both a symbol-like and a quantity-like column.
// It returns *FormatUnrecognizedError when there is no such row.
func Detect(rows []model.RawRow, kw *keywords.Table, scanLines int) (Detection, error) {
	headerIdx := -1
	limit := min(scanLines, len(rows))
	for i := 0; i < limit; i++ {
		if isCandidateHeader(rows[i].Cells, kw) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		scanned := make([][]string, limit)
		for i := range scanned {
			scanned[i] = rows[i].Sample(len(rows[i].Cells))
		}
		return Detection{Format: model.FormatUnrecognized}, &FormatUnrecognizedError{
			ScanWindow: scanLines,
			Scanned:    scanned,
		}
	}

	header := make([]string, len(rows[headerIdx].Cells))
	for i, c := range rows[headerIdx].Cells {
		header[i] = normalizeHeader(c)
	}

	signals := formatSignals{
		actionColumn:       anyHeaderMatches(header, kw.Synonyms(model.FieldAction)),
		positionIndicators: matchedIndicators(header, kw.PositionIndicators),
		transactionTokens:  hasTransactionTokens(rows, kw),
	}

	det := Detection{
		Dialect:     detectDialect(rows[:headerIdx], header, kw),
		HeaderIndex: headerIdx,
		Header:      rows[headerIdx].Sample(len(rows[headerIdx].Cells)),
	}
	for _, rule := range formatRules {
		if f, ok := rule.decide(signals); ok {
			det.Format, det.Rule = f, rule.name
			break
		}
	}
	return det, nil
}

func isCandidateHeader(cells []string, kw *keywords.Table) bool {
	symbolCol, quantityCol := -1, -1
	for i, c := range cells {
		h := normalizeHeader(c)
		if symbolCol < 0 && headerMatches(h, kw.Synonyms(model.FieldSymbol)) {
			symbolCol = i
			continue
		}
		if quantityCol < 0 && headerMatches(h, kw.Synonyms(model.FieldQuantity)) {
			quantityCol = i
		}
	}
	return symbolCol >= 0 && quantityCol >= 0
}

func matchedIndicators(header []string, indicators []string) []string {
	var found []string
	for _, ind := range indicators {
		for _, h := range header {
			if strings.Contains(h, ind) {
				found = append(found, ind)
				break
			}
		}
	}
	return found
}

func anyHeaderMatches(header []string, synonyms []string) bool {
	for _, h := range header {
		if headerMatches(h, synonyms) {
			return true
		}
	}
	return false
}

func hasTransactionTokens(rows []model.RawRow, kw *keywords.Table) bool {
	for _, r := range rows {
		for _, c := range r.Cells {
			if kw.HasTransactionTokens(c) {
				return true
			}
		}
	}
	return false
}

// detectDialect names the brokerage from preamble lines first, then from header
// signatures. A signature match needs at least two signature columns.
func detectDialect(preamble []model.RawRow, header []string, kw *keywords.Table) string {
	for _, r := range preamble {
		if b, ok := kw.MatchBrokerage(strings.Join(r.Cells, " ")); ok {
			return b.Key
		}
	}

	best, bestScore := DialectGeneric, 1
	for _, b := range kw.Brokerages {
		score := len(matchedIndicators(header, b.HeaderSignatures))
		if score > bestScore {
			best, bestScore = b.Key, score
		}
	}
	return best
}
