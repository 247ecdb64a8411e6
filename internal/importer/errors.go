package importer

import (
	"errors"
	"fmt"
)

// ErrFormatUnrecognized is the only error that aborts a whole parse.
var ErrFormatUnrecognized = errors.New("format unrecognized")

// FormatUnrecognizedError carries the rows that were scanned for a header.
type FormatUnrecognizedError struct {
	ScanWindow int
	Scanned    [][]string
}

func (e *FormatUnrecognizedError) Error() string {
	return fmt.Sprintf("%s: no header with symbol and quantity columns in the first %d rows (%d scanned)",
		ErrFormatUnrecognized, e.ScanWindow, len(e.Scanned))
}

func (e *FormatUnrecognizedError) Unwrap() error {
	return ErrFormatUnrecognized
}
