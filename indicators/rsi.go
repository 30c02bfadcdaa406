// Package indicators computes technical indicators over fund price histories.
package indicators

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/fundtrader/market"
)

// ErrInsufficientWindow means there are not enough consecutive prices to
// compute the indicator. It is the undefined result, never a zero value.
var ErrInsufficientWindow = errors.New("insufficient window")

// RSI computes the simple (unsmoothed) Relative Strength Index of h at asOf.
//
// Prices are collected walking backward from asOf one calendar day at a time
// until period+1 are found or a day has no record.
func RSI(h *market.FundHistory, asOf time.Time, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	prices := h.ConsecutiveBefore(asOf, period+1)
	if len(prices) < period+1 {
		return 0, fmt.Errorf("rsi(%d) at %s: %w: have %d consecutive days",
			period, market.FormatDate(asOf), ErrInsufficientWindow, len(prices))
	}
	return RSIFromPrices(prices, period)
}

// RSIFromPrices computes RSI over the last period+1 chronological prices.
//
// Averages divide by period regardless of how many deltas were gains or
// losses. When there are no losses RS is taken as 0, so the result is 0.
func RSIFromPrices(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("need %d prices, got %d: %w", period+1, len(prices), ErrInsufficientWindow)
	}

	prices = prices[len(prices)-period-1:]

	var gain, loss float64
	for i := 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	rs := 0.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100 - 100/(1+rs), nil
}
