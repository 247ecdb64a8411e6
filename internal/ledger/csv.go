package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// Header is the CSV header of a canonical ledger file.
const Header = "date,action,symbol,quantity,price,fees,account,cost_basis_method,cost_basis_confidence,position_import,split_ratio,raw_quantity,raw_price,split_method,source_row,origin_reason"

const (
	numFields     = 16
	colDate       = 0
	colAction     = 1
	colSymbol     = 2
	colQuantity   = 3
	colPrice      = 4
	colFees       = 5
	colAccount    = 6
	colCostMethod = 7
	colCostConf   = 8
	colPosImport  = 9
	colRatio      = 10
	colRawQty     = 11
	colRawPrice   = 12
	colSplitMeth  = 13
	colSourceRow  = 14
	colOrigin     = 15
)

// ReadEntries reads all entries from a ledger CSV reader.
func ReadEntries(r io.Reader) ([]model.LedgerEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var entries []model.LedgerEntry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes entries to a ledger CSV writer (including header).
func WriteEntries(w io.Writer, entries []model.LedgerEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendEntries appends entries to an existing ledger writer (no header).
func AppendEntries(w io.Writer, entries []model.LedgerEntry) error {
	cw := csv.NewWriter(w)

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts an entry to a CSV row. Split fields are blank when no
// split was applied.
func MarshalEntry(e model.LedgerEntry) []string {
	row := make([]string, numFields)
	row[colDate] = e.Date.Format(model.DateFormat)
	row[colAction] = string(e.Action)
	row[colSymbol] = e.Symbol
	row[colQuantity] = e.Quantity.String()
	row[colPrice] = e.Price.String()
	row[colFees] = e.Fees.StringFixed(2)
	row[colAccount] = e.Account
	row[colCostMethod] = e.Provenance.CostBasisMethod
	row[colCostConf] = string(e.Provenance.CostBasisConfidence)
	row[colPosImport] = strconv.FormatBool(e.Provenance.IsPositionImport)

	if e.SplitInfo.Applied {
		row[colRatio] = e.SplitInfo.CumulativeRatio.String()
		row[colRawQty] = e.SplitInfo.RawQuantity.String()
		row[colRawPrice] = e.SplitInfo.RawPrice.String()
		row[colSplitMeth] = e.SplitInfo.Method
	}

	if e.SourceRow > 0 {
		row[colSourceRow] = strconv.Itoa(e.SourceRow)
	}
	row[colOrigin] = e.Provenance.OriginReason

	return row
}

// UnmarshalEntry converts a CSV row to an entry. Every entry in a ledger file is
// native to its account.
func UnmarshalEntry(record []string) (model.LedgerEntry, error) {
	if len(record) != numFields {
		return model.LedgerEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(model.DateFormat, record[colDate])
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	qty, err := decimal.NewFromString(record[colQuantity])
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing quantity %q: %w", record[colQuantity], err)
	}

	price, err := decimal.NewFromString(record[colPrice])
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing price %q: %w", record[colPrice], err)
	}

	fees := decimal.Zero
	if record[colFees] != "" {
		fees, err = decimal.NewFromString(record[colFees])
		if err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing fees %q: %w", record[colFees], err)
		}
	}

	var posImport bool
	if record[colPosImport] != "" {
		posImport, err = strconv.ParseBool(record[colPosImport])
		if err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing position_import %q: %w", record[colPosImport], err)
		}
	}

	info := model.SplitInfo{CumulativeRatio: decimal.NewFromInt(1), RawQuantity: qty, RawPrice: price}
	if record[colRatio] != "" {
		if info, err = unmarshalSplit(record); err != nil {
			return model.LedgerEntry{}, err
		}
	}

	var sourceRow int
	if record[colSourceRow] != "" {
		sourceRow, err = strconv.Atoi(record[colSourceRow])
		if err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing source_row %q: %w", record[colSourceRow], err)
		}
	}

	return model.LedgerEntry{
		Date:     date,
		Action:   model.Action(record[colAction]),
		Symbol:   record[colSymbol],
		Quantity: qty,
		Price:    price,
		Fees:     fees,
		Account:  record[colAccount],
		Provenance: model.Provenance{
			NativePosition:      true,
			IsPositionImport:    posImport,
			SplitAdjusted:       info.Applied,
			CostBasisMethod:     record[colCostMethod],
			CostBasisConfidence: model.Confidence(record[colCostConf]),
			OriginReason:        record[colOrigin],
		},
		SplitInfo: info,
		SourceRow: sourceRow,
	}, nil
}

func unmarshalSplit(record []string) (model.SplitInfo, error) {
	ratio, err := decimal.NewFromString(record[colRatio])
	if err != nil {
		return model.SplitInfo{}, fmt.Errorf("parsing split_ratio %q: %w", record[colRatio], err)
	}
	rawQty, err := decimal.NewFromString(record[colRawQty])
	if err != nil {
		return model.SplitInfo{}, fmt.Errorf("parsing raw_quantity %q: %w", record[colRawQty], err)
	}
	rawPrice, err := decimal.NewFromString(record[colRawPrice])
	if err != nil {
		return model.SplitInfo{}, fmt.Errorf("parsing raw_price %q: %w", record[colRawPrice], err)
	}
	return model.SplitInfo{
		Applied:         true,
		CumulativeRatio: ratio,
		Method:          record[colSplitMeth],
		RawQuantity:     rawQty,
		RawPrice:        rawPrice,
	}, nil
}
