package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk calendar date format.
const DateLayout = "2006-01-02"

// PriceRecord is the closing price of a fund on one trading day.
type PriceRecord struct {
	Date  time.Time
	Price decimal.Decimal
}

// Float returns the price as a float64 for indicator math.
func (r PriceRecord) Float() float64 {
	return r.Price.InexactFloat64()
}

// Day truncates t to midnight UTC of its calendar date. Every date used as
// a history key goes through Day so map lookups compare equal.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
