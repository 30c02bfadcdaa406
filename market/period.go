package market

import (
	"fmt"
	"time"
)

// Period names a chart time filter.
type Period string

const (
	PeriodWeek         Period = "week"
	PeriodMonth        Period = "month"
	PeriodThreeMonths  Period = "3_months"
	PeriodSixMonths    Period = "6_months"
	PeriodYear         Period = "year"
	PeriodThreeYears   Period = "3_years"
	PeriodSinceNewYear Period = "since_new_year"
	PeriodAll          Period = "all"
)

// PeriodStart returns the first day covered by p relative to now.
// ok is false for PeriodAll (and the empty period), meaning no lower bound.
func PeriodStart(p Period, now time.Time) (start time.Time, ok bool, err error) {
	today := Day(now)
	switch p {
	case PeriodWeek:
		return today.AddDate(0, 0, -7), true, nil
	case PeriodMonth:
		return today.AddDate(0, 0, -30), true, nil
	case PeriodThreeMonths:
		return today.AddDate(0, 0, -90), true, nil
	case PeriodSixMonths:
		return today.AddDate(0, 0, -180), true, nil
	case PeriodYear:
		return today.AddDate(0, 0, -365), true, nil
	case PeriodThreeYears:
		return today.AddDate(0, 0, -3*365), true, nil
	case PeriodSinceNewYear:
		return Date(today.Year(), time.January, 1), true, nil
	case PeriodAll, "":
		return time.Time{}, false, nil
	}
	return time.Time{}, false, fmt.Errorf("unknown period %q", p)
}

// Filter returns the records covered by p. When the period holds no data
// the full history is returned instead.
func (h *FundHistory) Filter(p Period, now time.Time) ([]PriceRecord, error) {
	start, ok, err := PeriodStart(p, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return h.Records(), nil
	}
	recs := h.Since(start)
	if len(recs) == 0 {
		return h.Records(), nil
	}
	return recs, nil
}
