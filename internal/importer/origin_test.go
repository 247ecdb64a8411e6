package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/folio/internal/model"
)

// aggregatedFixture returns the data rows and column map of aggregated_positions.csv.
func aggregatedFixture(t *testing.T) ([]model.RawRow, model.ColumnMap) {
	t.Helper()
	rows := readRows(t, readTestdata(t, "aggregated_positions.csv"))
	det, err := Detect(rows, kw(), 10)
	require.NoError(t, err)
	return rows[det.HeaderIndex+1:], MapColumns(det.Header, det.Format, kw())
}

func TestAnalyze(t *testing.T) {
	data, cmap := aggregatedFixture(t)

	a := Analyze(data, cmap, "Fidelity", kw(), 50)
	assert.Equal(t, 7, a.SampleSize)
	assert.Equal(t, []string{"Fidelity Investments", "Charles Schwab", "Chase Bank", "Wells Fargo"}, a.Institutions)
	assert.Equal(t, []string{"Brokerage", "Aggregated", "Linked"}, a.AccountSources)
	assert.Equal(t, "fidelity", a.TargetBrokerage)
	assert.Equal(t, "Fidelity Investments", a.TargetInstitution)
	assert.Equal(t, []string{"Charles Schwab", "Chase Bank", "Wells Fargo"}, a.NonMatchingInstitutions)
	assert.True(t, a.MultipleInstitutions())
}

func TestAnalyze_SampleSize(t *testing.T) {
	data, cmap := aggregatedFixture(t)

	a := Analyze(data, cmap, "Fidelity", kw(), 2)
	assert.Equal(t, 2, a.SampleSize)
	assert.Equal(t, []string{"Fidelity Investments", "Charles Schwab"}, a.Institutions)
}

func TestClassify_AggregatedRows(t *testing.T) {
	data, cmap := aggregatedFixture(t)
	analysis := Analyze(data, cmap, "Fidelity", kw(), 50)
	c := NewClassifier("Fidelity", analysis, kw(), []string{"tsla"})

	tests := []struct {
		symbol     string
		external   bool
		rule       string
		confidence model.Confidence
	}{
		{"NVDA", false, "native", model.ConfidenceHigh},
		{"AAPL", true, "institution brokerage", model.ConfidenceHigh},
		{"MSFT", true, "account source", model.ConfidenceHigh},
		{"AMZN", true, "mixed institutions", model.ConfidenceHigh},
		{"TSLA", true, "watch list", model.ConfidenceLow},
	}
	bySymbol := make(map[string]RowFields)
	for _, r := range data {
		f := Project(r, cmap)
		bySymbol[f.Symbol] = f
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			d := c.Classify(bySymbol[tt.symbol])
			assert.Equal(t, tt.external, d.IsExternal)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.confidence, d.Confidence)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestClassify_OtherBrokerageInstitution(t *testing.T) {
	c := NewClassifier("Fidelity", model.AccountAnalysis{}, kw(), nil)

	d := c.Classify(RowFields{Symbol: "AAPL", Institution: "Charles Schwab"})
	assert.True(t, d.IsExternal)
	assert.Contains(t, d.Reason, "institution")
	assert.Contains(t, d.Reason, "Schwab")

	d = c.Classify(RowFields{Symbol: "AAPL", Institution: "Fidelity Investments"})
	assert.False(t, d.IsExternal)
}

func TestClassify_ExternalFlag(t *testing.T) {
	c := NewClassifier("Fidelity", model.AccountAnalysis{}, kw(), nil)

	for _, flag := range []string{"Yes", "External", "TRUE", "linked"} {
		d := c.Classify(RowFields{Symbol: "AAPL", ExternalFlag: flag})
		assert.True(t, d.IsExternal, flag)
		assert.Equal(t, "external flag", d.Rule, flag)
	}
	for _, flag := range []string{"No", "false", ""} {
		assert.False(t, c.Classify(RowFields{Symbol: "AAPL", ExternalFlag: flag}).IsExternal, flag)
	}
}

func TestClassify_SourceNamesOtherBrokerage(t *testing.T) {
	c := NewClassifier("Schwab Brokerage", model.AccountAnalysis{}, kw(), nil)

	d := c.Classify(RowFields{Symbol: "VTI", SourceAccount: "Vanguard"})
	assert.True(t, d.IsExternal)
	assert.Equal(t, "account source", d.Rule)
}

func TestClassify_NoTargetBrokerage(t *testing.T) {
	c := NewClassifier("My Account", model.AccountAnalysis{}, kw(), nil)

	d := c.Classify(RowFields{Symbol: "AAPL", Institution: "Charles Schwab"})
	assert.False(t, d.IsExternal)
	assert.Equal(t, "native", d.Rule)
}

func TestClassify_WatchListYieldsToOwnInstitution(t *testing.T) {
	analysis := model.AccountAnalysis{
		Institutions:            []string{"Fidelity Investments", "Chase Bank"},
		TargetInstitution:       "Fidelity Investments",
		NonMatchingInstitutions: []string{"Chase Bank"},
	}
	c := NewClassifier("Fidelity", analysis, kw(), []string{"NVDA"})

	d := c.Classify(RowFields{Symbol: "NVDA", Institution: "Fidelity Investments"})
	assert.False(t, d.IsExternal)

	d = c.Classify(RowFields{Symbol: "NVDA"})
	assert.True(t, d.IsExternal)
	assert.Equal(t, model.ConfidenceLow, d.Confidence)
	assert.Contains(t, d.Reason, "Chase Bank")
}

func TestClassify_WatchListNeedsOtherInstitutions(t *testing.T) {
	c := NewClassifier("Fidelity", model.AccountAnalysis{}, kw(), []string{"NVDA"})

	assert.False(t, c.Classify(RowFields{Symbol: "NVDA"}).IsExternal)
}
