package indicators

import (
	"fmt"

	"github.com/rustyeddy/fundtrader/market"
)

// SMA calculates the Simple Moving Average of the last period prices.
func SMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(prices) < period {
		return 0, fmt.Errorf("not enough prices: need %d, got %d", period, len(prices))
	}

	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average for the given period,
// seeded with the SMA of the first period prices.
func EMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(prices) < period {
		return 0, fmt.Errorf("not enough prices: need %d, got %d", period, len(prices))
	}

	multiplier := 2.0 / float64(period+1)

	sma := 0.0
	for i := 0; i < period; i++ {
		sma += prices[i]
	}
	ema := sma / float64(period)

	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
	}
	return ema, nil
}

// SMASeries returns the simple moving average ending at each record.
// Entries before the first full window are omitted.
func SMASeries(recs []market.PriceRecord, period int) ([]Point, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	prices := floats(recs)
	var out []Point
	for i := period; i <= len(prices); i++ {
		v, err := SMA(prices[i-period:i], period)
		if err != nil {
			return nil, err
		}
		out = append(out, Point{Date: recs[i-1].Date, Value: v})
	}
	return out, nil
}

// EMASeries returns the exponential moving average ending at each record,
// seeded like EMA from the first period records. Entries before the seed
// are omitted.
func EMASeries(recs []market.PriceRecord, period int) ([]Point, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	prices := floats(recs)
	if len(prices) < period {
		return nil, nil
	}

	ema, err := EMA(prices[:period], period)
	if err != nil {
		return nil, err
	}
	multiplier := 2.0 / float64(period+1)

	out := make([]Point, 0, len(prices)-period+1)
	out = append(out, Point{Date: recs[period-1].Date, Value: ema})
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		out = append(out, Point{Date: recs[i].Date, Value: ema})
	}
	return out, nil
}

func floats(recs []market.PriceRecord) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		out[i] = r.Float()
	}
	return out
}
