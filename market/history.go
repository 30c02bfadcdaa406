package market

import (
	"sort"
	"time"
)

// FundHistory is the daily price history of one fund, keyed by calendar day.
//
// Source data need not be sorted; the history keeps its own ascending index
// so every consumer sees the same order. When the source carries the same
// date twice the record read last wins. A FundHistory is read-only once built.
type FundHistory struct {
	symbol string
	byDate map[time.Time]PriceRecord
	dates  []time.Time
}

// NewFundHistory indexes records for symbol.
func NewFundHistory(symbol string, records []PriceRecord) *FundHistory {
	h := &FundHistory{
		symbol: symbol,
		byDate: make(map[time.Time]PriceRecord, len(records)),
	}
	for _, r := range records {
		r.Date = Day(r.Date)
		h.byDate[r.Date] = r
	}
	h.dates = make([]time.Time, 0, len(h.byDate))
	for d := range h.byDate {
		h.dates = append(h.dates, d)
	}
	sort.Slice(h.dates, func(i, j int) bool { return h.dates[i].Before(h.dates[j]) })
	return h
}

func (h *FundHistory) Symbol() string { return h.symbol }

// Len returns the number of trading days in the history.
func (h *FundHistory) Len() int {
	if h == nil {
		return 0
	}
	return len(h.dates)
}

// Dates returns the trading days in ascending order.
func (h *FundHistory) Dates() []time.Time {
	out := make([]time.Time, h.Len())
	if h != nil {
		copy(out, h.dates)
	}
	return out
}

// Records returns every record in ascending date order.
func (h *FundHistory) Records() []PriceRecord {
	return h.slice(0, h.Len())
}

// Lookup returns the record for the calendar day containing d.
func (h *FundHistory) Lookup(d time.Time) (PriceRecord, bool) {
	if h == nil {
		return PriceRecord{}, false
	}
	r, ok := h.byDate[Day(d)]
	return r, ok
}

// Latest returns the newest record.
func (h *FundHistory) Latest() (PriceRecord, bool) {
	if h.Len() == 0 {
		return PriceRecord{}, false
	}
	return h.byDate[h.dates[len(h.dates)-1]], true
}

// LatestOnOrBefore returns the newest record dated d or earlier.
func (h *FundHistory) LatestOnOrBefore(d time.Time) (PriceRecord, bool) {
	i := h.upper(Day(d))
	if i == 0 {
		return PriceRecord{}, false
	}
	return h.byDate[h.dates[i-1]], true
}

// FirstOnOrAfter returns the oldest record dated d or later.
func (h *FundHistory) FirstOnOrAfter(d time.Time) (PriceRecord, bool) {
	i := h.lower(Day(d))
	if i >= h.Len() {
		return PriceRecord{}, false
	}
	return h.byDate[h.dates[i]], true
}

// ConsecutiveBefore walks backward from asOf one calendar day at a time and
// collects prices until n are collected or a day has no record. The result is
// in chronological order and may be shorter than n.
func (h *FundHistory) ConsecutiveBefore(asOf time.Time, n int) []float64 {
	var prices []float64
	for d := Day(asOf); len(prices) < n; d = d.AddDate(0, 0, -1) {
		r, ok := h.Lookup(d)
		if !ok {
			break
		}
		prices = append(prices, r.Float())
	}
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}
	return prices
}

// Window returns the last n available prices dated asOf or earlier, oldest
// first. Missing days are skipped. ok is false when fewer than n exist.
func (h *FundHistory) Window(asOf time.Time, n int) ([]float64, bool) {
	if n <= 0 {
		return nil, false
	}
	end := h.upper(Day(asOf))
	if end < n {
		return nil, false
	}
	out := make([]float64, 0, n)
	for _, d := range h.dates[end-n : end] {
		out = append(out, h.byDate[d].Float())
	}
	return out, true
}

// Since returns the records dated from or later, ascending.
func (h *FundHistory) Since(from time.Time) []PriceRecord {
	return h.slice(h.lower(Day(from)), h.Len())
}

// Between returns the records in [from, to], ascending.
func (h *FundHistory) Between(from, to time.Time) []PriceRecord {
	lo, hi := h.lower(Day(from)), h.upper(Day(to))
	if hi < lo {
		hi = lo
	}
	return h.slice(lo, hi)
}

func (h *FundHistory) slice(lo, hi int) []PriceRecord {
	if h == nil {
		return nil
	}
	out := make([]PriceRecord, 0, hi-lo)
	for _, d := range h.dates[lo:hi] {
		out = append(out, h.byDate[d])
	}
	return out
}

// lower is the index of the first date >= d.
func (h *FundHistory) lower(d time.Time) int {
	if h == nil {
		return 0
	}
	return sort.Search(len(h.dates), func(i int) bool { return !h.dates[i].Before(d) })
}

// upper is the index of the first date > d.
func (h *FundHistory) upper(d time.Time) int {
	if h == nil {
		return 0
	}
	return sort.Search(len(h.dates), func(i int) bool { return h.dates[i].After(d) })
}
