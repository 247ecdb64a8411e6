package splits

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed default_splits.csv
var defaultCSV string

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in split table. It is parsed once per process.
// Panics if the embedded data is malformed.
func Default() *Table {
	defaultOnce.Do(func() {
		events, err := ReadEvents(strings.NewReader(defaultCSV))
		if err != nil {
			panic("embedded split table: " + err.Error())
		}
		defaultTable = NewTable(events)
	})
	return defaultTable
}

// DefaultCSV returns the embedded split table as CSV text, for seeding a workspace.
func DefaultCSV() string {
	return defaultCSV
}
