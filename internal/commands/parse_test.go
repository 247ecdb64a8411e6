package commands_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/folio/internal/ledger"
)

func testdataPath(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func writeExport(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestParse_Text(t *testing.T) {
	out, err := runFolioStdout(t, "parse", testdataPath("schwab_transactions.csv"), "--repo", t.TempDir(), "--account", "Schwab")
	require.NoError(t, err)

	assert.Contains(t, out, "Format:   transaction_ledger (schwab dialect)")
	assert.Contains(t, out, "Rows:     7 total, 4 imported, 3 skipped, 0 external, 1 split-corrected")
	assert.Contains(t, out, "NVDA")
	assert.Contains(t, out, "×10")
	assert.Contains(t, out, "Unsupported action: Qualified Dividend")
}

func TestParse_JSON(t *testing.T) {
	path := writeExport(t, "Symbol,Quantity,Average Cost Basis,Account\nNVDA,40,850.00,Fidelity\n")

	out, err := runFolioStdout(t, "parse", path, "--repo", t.TempDir(),
		"--account", "Fidelity", "--acquired", "2024-01-01", "--format", "json")
	require.NoError(t, err)

	var res struct {
		Format  string `json:"format"`
		Entries []struct {
			Date     string `json:"date"`
			Symbol   string `json:"symbol"`
			Quantity string `json:"quantity"`
			Price    string `json:"price"`
		} `json:"entries"`
		Summary struct {
			Imported       int `json:"imported"`
			SplitCorrected int `json:"splitCorrected"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "position_snapshot", res.Format)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "2024-01-01", res.Entries[0].Date)
	assert.Equal(t, "400", res.Entries[0].Quantity)
	assert.Equal(t, "85", res.Entries[0].Price)
	assert.Equal(t, 1, res.Summary.SplitCorrected)
}

func TestParse_YAML(t *testing.T) {
	out, err := runFolioStdout(t, "parse", testdataPath("aggregated_positions.csv"), "--repo", t.TempDir(),
		"--account", "Fidelity", "--watch", "TSLA", "--format", "yaml")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	summary, ok := res["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, summary["imported"])
	assert.Equal(t, 4, summary["external_filtered"])
}

func TestParse_CSVToFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "ledger.csv")
	_, err := runFolio(t, "parse", testdataPath("fidelity_positions.csv"), "--repo", t.TempDir(),
		"--account", "Fidelity", "--format", "csv", "--out", outPath)
	require.NoError(t, err)

	entries, err := ledger.ReadFile(outPath)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Empty(t, ledger.ValidateEntries(entries))
}

func TestParse_Unrecognized(t *testing.T) {
	path := writeExport(t, "Date,Description,Amount\n01/03/2025,GITHUB,-4.00\n")

	out, err := runFolio(t, "parse", path, "--repo", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, out, "format unrecognized")
}

func TestParse_BadFlags(t *testing.T) {
	path := testdataPath("fidelity_positions.csv")

	out, err := runFolio(t, "parse", path, "--repo", t.TempDir(), "--acquired", "01/01/2024")
	require.Error(t, err)
	assert.Contains(t, out, "parsing --acquired")

	out, err = runFolio(t, "parse", path, "--repo", t.TempDir(), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, out, `unknown output format "xml"`)
}
