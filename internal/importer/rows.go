package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/folio/internal/model"
)

var delimiters = []rune{',', '\t', ';', '|'}

// ReadRows splits delimited text into raw rows. The delimiter is sniffed from the
// first scanLines non-empty lines; quotes are handled leniently since broker exports
// are not always well-formed CSV.
func ReadRows(text string, scanLines int) ([]model.RawRow, error) {
	text = strings.TrimPrefix(text, "\ufeff")

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = sniffDelimiter(text, scanLines)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows []model.RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, model.RawRow{Index: len(rows), Cells: rec})
	}
	return rows, nil
}

// sniffDelimiter picks the candidate that splits the most of the leading lines into
// more than one cell, breaking ties by total occurrences and then candidate order.
func sniffDelimiter(text string, scanLines int) rune {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
		if len(lines) == scanLines {
			break
		}
	}

	best, bestLines, bestCount := ',', 0, 0
	for _, d := range delimiters {
		n, total := 0, 0
		for _, l := range lines {
			c := strings.Count(l, string(d))
			if c > 0 {
				n++
			}
			total += c
		}
		if n > bestLines || (n == bestLines && total > bestCount) {
			best, bestLines, bestCount = d, n, total
		}
	}
	return best
}
