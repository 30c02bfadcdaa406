// Package journal records simulated trades and per-fund run results.
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeRecord is one simulated buy or sell.
type TradeRecord struct {
	TradeID   string
	RunID     string
	Symbol    string
	Side      Side
	Date      time.Time
	Shares    int64
	Price     decimal.Decimal
	Amount    decimal.Decimal // Shares * Price
	CashAfter decimal.Decimal
	Reason    string
}

// ResultRecord is the outcome of simulating one fund within a run.
// Skipped is non-empty when the fund did not complete.
type ResultRecord struct {
	RunID        string
	Created      time.Time
	Strategy     string
	Symbol       string
	Start        time.Time
	End          time.Time
	StartingCash decimal.Decimal
	EndingCash   decimal.Decimal
	GainLoss     decimal.Decimal
	GainLossPct  decimal.Decimal
	Trades       int
	Skipped      string
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordResult(ResultRecord) error
	Close() error
}

// Discard is a Journal that drops everything.
var Discard Journal = discard{}

type discard struct{}

func (discard) RecordTrade(TradeRecord) error   { return nil }
func (discard) RecordResult(ResultRecord) error { return nil }
func (discard) Close() error                    { return nil }
