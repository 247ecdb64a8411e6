// Package importlog keeps the append-only record of import runs in logs/import-log.csv.
package importlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/folio/internal/model"
)

// Entry is one import run.
type Entry struct {
	Timestamp      time.Time
	ParseID        uuid.UUID
	File           string
	Account        string
	Format         model.Format
	Dialect        string
	Imported       int
	Skipped        int
	External       int
	SplitCorrected int
	Ledger         string
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,parse_id,file,account,format,dialect,imported,skipped,external,split_corrected,ledger"

const (
	numFields    = 11
	logDir       = "logs"
	logFile      = "logs/import-log.csv"
	colTimestamp = 0
	colParseID   = 1
	colFile      = 2
	colAccount   = 3
	colFormat    = 4
	colDialect   = 5
	colImported  = 6
	colSkipped   = 7
	colExternal  = 8
	colSplit     = 9
	colLedger    = 10
)

// FromResult builds the log entry for a parse of file written to ledgerPath.
func FromResult(file, ledgerPath string, res *model.ParseResult) Entry {
	return Entry{
		Timestamp:      res.ParsedAt,
		ParseID:        res.ID,
		File:           file,
		Account:        res.Account,
		Format:         res.Format,
		Dialect:        res.Dialect,
		Imported:       res.Summary.Imported,
		Skipped:        res.Summary.Skipped,
		External:       res.Summary.ExternalFiltered,
		SplitCorrected: res.Summary.SplitCorrected,
		Ledger:         ledgerPath,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colParseID] = e.ParseID.String()
	row[colFile] = e.File
	row[colAccount] = e.Account
	row[colFormat] = string(e.Format)
	row[colDialect] = e.Dialect
	row[colImported] = strconv.Itoa(e.Imported)
	row[colSkipped] = strconv.Itoa(e.Skipped)
	row[colExternal] = strconv.Itoa(e.External)
	row[colSplit] = strconv.Itoa(e.SplitCorrected)
	row[colLedger] = e.Ledger
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	id, err := uuid.Parse(record[colParseID])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing parse_id %q: %w", record[colParseID], err)
	}

	counts := make([]int, 4)
	for i, col := range []int{colImported, colSkipped, colExternal, colSplit} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[col], err)
		}
		counts[i] = n
	}

	return Entry{
		Timestamp:      ts,
		ParseID:        id,
		File:           record[colFile],
		Account:        record[colAccount],
		Format:         model.Format(record[colFormat]),
		Dialect:        record[colDialect],
		Imported:       counts[0],
		Skipped:        counts[1],
		External:       counts[2],
		SplitCorrected: counts[3],
		Ledger:         record[colLedger],
	}, nil
}

// Append writes entries to <repoRoot>/logs/import-log.csv, creating the file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(repoRoot, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/import-log.csv.
// Returns nil if the file does not exist.
func Read(repoRoot string) ([]Entry, error) {
	path := filepath.Join(repoRoot, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
