package importer

import (
	"strings"

	"github.com/cleared-dev/folio/internal/keywords"
	"github.com/cleared-dev/folio/internal/model"
)

// claimOrder is the order in which fields pick their column. A column claimed by an
// earlier field is not offered to later ones, so "Average Cost Basis" goes to avgCost
// and never to costBasisTotal, and "Account Source" never to account.
var claimOrder = []model.Field{
	model.FieldAvgCost,
	model.FieldCostBasisTotal,
	model.FieldCurrentValue,
	model.FieldSourceAccount,
	model.FieldExternalFlag,
	model.FieldSymbol,
	model.FieldQuantity,
	model.FieldPrice,
	model.FieldAccount,
	model.FieldInstitution,
	model.FieldStatus,
	model.FieldDate,
	model.FieldAction,
	model.FieldFees,
	model.FieldAmount,
	model.FieldDescription,
}

// ledgerOnly fields are not mapped for position snapshots.
var ledgerOnly = map[model.Field]bool{
	model.FieldAction: true,
	model.FieldFees:   true,
	model.FieldAmount: true,
}

// MapColumns builds the field-to-column mapping for a header row. Matching is a
// case-insensitive substring match against each field's synonyms; the first matching
// header wins. Fields with no matching header are absent.
func MapColumns(header []string, format model.Format, kw *keywords.Table) model.ColumnMap {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	cmap := make(model.ColumnMap)
	claimed := make(map[int]bool)
	for _, f := range claimOrder {
		if format == model.FormatPositionSnapshot && ledgerOnly[f] {
			continue
		}
		syns := kw.Synonyms(f)
		for i, h := range normalized {
			if claimed[i] || h == "" {
				continue
			}
			if headerMatches(h, syns) {
				cmap[f] = i
				claimed[i] = true
				break
			}
		}
	}
	return cmap
}

// normalizeHeader lower-cases a header cell and strips surrounding quotes and whitespace.
func normalizeHeader(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.ToLower(strings.TrimSpace(s))
}

func headerMatches(h string, synonyms []string) bool {
	for _, syn := range synonyms {
		if strings.Contains(h, syn) {
			return true
		}
	}
	return false
}
