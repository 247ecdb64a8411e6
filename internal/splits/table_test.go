package splits

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/folio/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAdjust_NVDATenForOne(t *testing.T) {
	tbl := Default()

	adj := tbl.Adjust("NVDA", dec("40"), dec("850.00"), day("2024-01-01"))

	assert.True(t, adj.Info.Applied)
	assert.Equal(t, "10", adj.Info.CumulativeRatio.String())
	assert.Equal(t, "database", adj.Info.Method)
	assert.Equal(t, "400", adj.Quantity.String())
	assert.Equal(t, "85.00", adj.Price.StringFixed(2))
	require.Len(t, adj.Events, 1)
	assert.Equal(t, day("2024-06-07"), adj.Events[0].EffectiveDate)
	assert.Equal(t, []string{"NVDA 10-for-1 on 2024-06-07"}, adj.Info.Events)
}

func TestAdjust_CompoundsEveryLaterSplit(t *testing.T) {
	tbl := Default()

	ratio, events := tbl.CumulativeRatio("NVDA", day("2020-01-15"))
	assert.Equal(t, "40", ratio.String())
	assert.Len(t, events, 2)

	ratio, _ = tbl.CumulativeRatio("aapl", day("2010-01-01"))
	assert.Equal(t, "28", ratio.String())
}

func TestAdjust_NoQualifyingSplit(t *testing.T) {
	tbl := Default()

	adj := tbl.Adjust("NVDA", dec("10"), dec("120"), day("2025-01-01"))
	assert.False(t, adj.Info.Applied)
	assert.Equal(t, "1", adj.Info.CumulativeRatio.String())
	assert.Equal(t, "10", adj.Quantity.String())
	assert.Equal(t, "120", adj.Price.String())
	assert.Empty(t, adj.Events)

	adj = tbl.Adjust("MSFT", dec("10"), dec("300"), day("2001-01-01"))
	assert.False(t, adj.Info.Applied)
}

func TestCumulativeRatio_StrictlyAfter(t *testing.T) {
	tbl := Default()

	// Acquired on the effective day: already post-split.
	ratio, _ := tbl.CumulativeRatio("NVDA", day("2024-06-07"))
	assert.Equal(t, "1", ratio.String())

	ratio, _ = tbl.CumulativeRatio("NVDA", day("2024-06-06"))
	assert.Equal(t, "10", ratio.String())

	// Time of day on the acquisition date does not matter.
	ratio, _ = tbl.CumulativeRatio("NVDA", day("2024-06-07").Add(23*time.Hour))
	assert.Equal(t, "1", ratio.String())
}

func TestCumulativeRatio_TodayNeverQualifies(t *testing.T) {
	tbl := Default()
	for _, ev := range tbl.All() {
		ratio, _ := tbl.CumulativeRatio(ev.Symbol, time.Now())
		assert.Equal(t, "1", ratio.String(), ev.Symbol)
	}
}

func TestCumulativeRatio_MonotonicAsDateMovesEarlier(t *testing.T) {
	tbl := Default()
	symbols := map[string]bool{}
	for _, ev := range tbl.All() {
		symbols[ev.Symbol] = true
	}

	for symbol := range symbols {
		later := day("2026-01-01")
		prev, _ := tbl.CumulativeRatio(symbol, later)
		for d := later.AddDate(0, 0, -7); d.After(day("2010-01-01")); d = d.AddDate(0, 0, -7) {
			cur, _ := tbl.CumulativeRatio(symbol, d)
			assert.True(t, cur.GreaterThanOrEqual(prev), "%s: ratio at %s (%s) < later ratio (%s)",
				symbol, d.Format(model.DateFormat), cur, prev)
			prev = cur
		}
	}
}

func TestAdjust_PreservesNotionalValue(t *testing.T) {
	tbl := Default()
	rng := rand.New(rand.NewSource(42))
	symbols := []string{"NVDA", "AAPL", "TSLA", "CMG", "PANW", "WMT", "GOOGL", "XYZ"}
	tolerance := dec("0.000001")

	for i := 0; i < 2000; i++ {
		symbol := symbols[rng.Intn(len(symbols))]
		qty := decimal.NewFromInt(rng.Int63n(1_000_000) + 1).Div(decimal.NewFromInt(100))
		price := decimal.NewFromInt(rng.Int63n(500_000) + 1).Div(decimal.NewFromInt(100))
		acquired := day("2010-01-01").AddDate(0, 0, rng.Intn(16*365))

		adj := tbl.Adjust(symbol, qty, price, acquired)

		raw := qty.Mul(price)
		got := adj.Quantity.Mul(adj.Price)
		assert.True(t, got.Sub(raw).Abs().LessThanOrEqual(tolerance),
			"%s %s×%s on %s: %s != %s", symbol, qty, price, acquired.Format(model.DateFormat), got, raw)
		assert.True(t, adj.Info.CumulativeRatio.GreaterThanOrEqual(decimal.NewFromInt(1)))
	}
}

func TestNewTable_SortsAndCopies(t *testing.T) {
	events := []model.SplitEvent{
		{Symbol: "abc", EffectiveDate: day("2023-05-01"), Ratio: dec("2")},
		{Symbol: "ABC", EffectiveDate: day("2021-05-01"), Ratio: dec("3")},
	}
	tbl := NewTable(events)
	events[0].Ratio = dec("100")

	got := tbl.Events("Abc")
	require.Len(t, got, 2)
	assert.Equal(t, day("2021-05-01"), got[0].EffectiveDate)
	assert.Equal(t, "2", got[1].Ratio.String())
	assert.True(t, tbl.HasHistory("abc"))
	assert.False(t, tbl.HasHistory("XYZ"))

	ratio, _ := tbl.CumulativeRatio("ABC", day("2020-01-01"))
	assert.Equal(t, "6", ratio.String())
}

func TestAdjust_FractionalRatio(t *testing.T) {
	tbl := NewTable([]model.SplitEvent{
		{Symbol: "ABC", EffectiveDate: day("2022-01-10"), Ratio: dec("1.5"), Label: "3-for-2"},
	})
	adj := tbl.Adjust("ABC", dec("100"), dec("30"), day("2021-01-01"))
	assert.Equal(t, "150", adj.Quantity.String())
	assert.Equal(t, "20", adj.Price.String())
	assert.Equal(t, []string{"ABC 3-for-2 on 2022-01-10"}, adj.Info.Events)
}
