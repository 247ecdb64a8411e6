package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/folio/internal/keywords"
	"github.com/cleared-dev/folio/internal/model"
)

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("../../testdata", name))
	require.NoError(t, err)
	return string(data)
}

func readRows(t *testing.T, text string) []model.RawRow {
	t.Helper()
	rows, err := ReadRows(text, 10)
	require.NoError(t, err)
	return rows
}

func day(s string) time.Time {
	d, err := time.Parse(model.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedNow(s string) func() time.Time {
	return func() time.Time { return day(s).Add(15 * time.Hour) }
}

func kw() *keywords.Table { return keywords.Default() }
