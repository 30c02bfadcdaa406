package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(y int, m time.Month, d int, price float64) PriceRecord {
	return PriceRecord{Date: Date(y, m, d), Price: decimal.NewFromFloat(price)}
}

func TestNewFundHistorySortsAndDedupes(t *testing.T) {
	t.Parallel()

	h := NewFundHistory("AAA", []PriceRecord{
		rec(2024, 1, 3, 12),
		rec(2024, 1, 1, 10),
		rec(2024, 1, 2, 11),
		rec(2024, 1, 2, 11.5), // later duplicate wins
	})

	assert.Equal(t, "AAA", h.Symbol())
	require.Equal(t, 3, h.Len())

	recs := h.Records()
	assert.True(t, recs[0].Date.Equal(Date(2024, 1, 1)))
	assert.True(t, recs[2].Date.Equal(Date(2024, 1, 3)))

	r, ok := h.Lookup(Date(2024, 1, 2))
	require.True(t, ok)
	assert.Equal(t, "11.5", r.Price.String())
}

func TestLookupNormalizesTime(t *testing.T) {
	t.Parallel()

	h := NewFundHistory("AAA", []PriceRecord{rec(2024, 5, 10, 1)})

	_, ok := h.Lookup(time.Date(2024, 5, 10, 17, 30, 0, 0, time.UTC))
	assert.True(t, ok)
	_, ok = h.Lookup(Date(2024, 5, 11))
	assert.False(t, ok)
}

func TestLatestAndNeighbours(t *testing.T) {
	t.Parallel()

	h := NewFundHistory("AAA", []PriceRecord{
		rec(2024, 1, 1, 10),
		rec(2024, 1, 5, 15),
		rec(2024, 1, 10, 20),
	})

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, 20.0, latest.Float())

	r, ok := h.LatestOnOrBefore(Date(2024, 1, 7))
	require.True(t, ok)
	assert.Equal(t, 15.0, r.Float())

	_, ok = h.LatestOnOrBefore(Date(2023, 12, 31))
	assert.False(t, ok)

	r, ok = h.FirstOnOrAfter(Date(2024, 1, 6))
	require.True(t, ok)
	assert.Equal(t, 20.0, r.Float())

	_, ok = h.FirstOnOrAfter(Date(2024, 1, 11))
	assert.False(t, ok)
}

func TestConsecutiveBeforeStopsAtGap(t *testing.T) {
	t.Parallel()

	h := NewFundHistory("AAA", []PriceRecord{
		rec(2024, 1, 1, 1),
		// Jan 2 missing
		rec(2024, 1, 3, 3),
		rec(2024, 1, 4, 4),
		rec(2024, 1, 5, 5),
	})

	assert.Equal(t, []float64{3, 4, 5}, h.ConsecutiveBefore(Date(2024, 1, 5), 10))
	assert.Equal(t, []float64{4, 5}, h.ConsecutiveBefore(Date(2024, 1, 5), 2))
	assert.Empty(t, h.ConsecutiveBefore(Date(2024, 1, 2), 2))
}

func TestWindowSkipsGaps(t *testing.T) {
	t.Parallel()

	h := NewFundHistory("AAA", []PriceRecord{
		rec(2024, 1, 1, 1),
		rec(2024, 1, 3, 3),
		rec(2024, 1, 8, 8),
		rec(2024, 1, 9, 9),
	})

	w, ok := h.Window(Date(2024, 1, 8), 3)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 3, 8}, w)

	_, ok = h.Window(Date(2024, 1, 3), 3)
	assert.False(t, ok)

	_, ok = h.Window(Date(2024, 1, 9), 0)
	assert.False(t, ok)
}

func TestSinceAndBetween(t *testing.T) {
	t.Parallel()

	h := NewFundHistory("AAA", []PriceRecord{
		rec(2024, 1, 1, 1),
		rec(2024, 1, 2, 2),
		rec(2024, 1, 3, 3),
		rec(2024, 1, 4, 4),
	})

	assert.Len(t, h.Since(Date(2024, 1, 3)), 2)
	assert.Len(t, h.Between(Date(2024, 1, 2), Date(2024, 1, 3)), 2)
	assert.Empty(t, h.Between(Date(2024, 1, 4), Date(2024, 1, 1)))
}

func TestNilHistoryIsEmpty(t *testing.T) {
	t.Parallel()

	var h *FundHistory
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Records())
	_, ok := h.Latest()
	assert.False(t, ok)
	_, ok = h.Window(Date(2024, 1, 1), 1)
	assert.False(t, ok)
}

func TestPeriodFilter(t *testing.T) {
	t.Parallel()

	now := Date(2024, 6, 15)
	h := NewFundHistory("AAA", []PriceRecord{
		rec(2023, 6, 1, 1),
		rec(2024, 1, 2, 2),
		rec(2024, 6, 10, 3),
	})

	tests := []struct {
		period Period
		want   int
	}{
		{PeriodWeek, 1},
		{PeriodMonth, 1},
		{PeriodSinceNewYear, 2},
		{PeriodYear, 2},
		{PeriodThreeYears, 3},
		{PeriodAll, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			recs, err := h.Filter(tt.period, now)
			require.NoError(t, err)
			assert.Len(t, recs, tt.want)
		})
	}

	_, err := h.Filter("fortnight", now)
	assert.Error(t, err)
}

func TestPeriodFilterFallsBackToAll(t *testing.T) {
	t.Parallel()

	h := NewFundHistory("AAA", []PriceRecord{rec(2020, 1, 1, 1), rec(2020, 1, 2, 2)})

	recs, err := h.Filter(PeriodWeek, Date(2024, 6, 15))
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("29.02.2024")
	assert.Error(t, err)
}
