package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/fundtrader/indicators"
	"github.com/rustyeddy/fundtrader/market"
	"github.com/rustyeddy/fundtrader/predictor"
	"github.com/shopspring/decimal"
)

type Action int

const (
	Hold Action = iota
	Buy
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "hold"
}

// Signal is a strategy's decision for one day. Value carries the number the
// decision was based on; Defined is false when it could not be computed.
type Signal struct {
	Action  Action
	Value   float64
	Defined bool
	Reason  string
}

// Day is what a strategy sees on a simulated day that has a price.
type Day struct {
	Date      time.Time
	Price     decimal.Decimal
	History   *market.FundHistory
	Portfolio Portfolio
}

// Strategy decides what to do with one fund, one day at a time.
type Strategy interface {
	Name() string
	// Prepare is called once per fund before its first day.
	Prepare(h *market.FundHistory) error
	Decide(d Day) Signal
}

// RSIWatch computes the RSI of each day and reports it. It never trades.
type RSIWatch struct {
	Period int
}

func (s *RSIWatch) Name() string { return "rsi" }

func (s *RSIWatch) Prepare(*market.FundHistory) error {
	if s.Period <= 0 {
		return fmt.Errorf("rsi period must be positive, got %d", s.Period)
	}
	return nil
}

func (s *RSIWatch) Decide(d Day) Signal {
	sym := d.History.Symbol()
	v, err := indicators.RSI(d.History, d.Date, s.Period)
	if err != nil {
		if errors.Is(err, indicators.ErrInsufficientWindow) {
			return Signal{Action: Hold, Reason: fmt.Sprintf("Unable to calculate RSI for %s on %s", sym, market.FormatDate(d.Date))}
		}
		return Signal{Action: Hold, Reason: err.Error()}
	}
	return Signal{Action: Hold, Value: v, Defined: true, Reason: fmt.Sprintf("%s RSI: %.2f", sym, v)}
}

// PredictorStrategy buys when the model expects the price to rise and sells
// when it expects a fall. The model is refit for every fund on the prices
// up to TrainEnd.
type PredictorStrategy struct {
	Model    predictor.Predictor
	Window   int
	TrainEnd time.Time
}

func (s *PredictorStrategy) Name() string { return "predictor" }

func (s *PredictorStrategy) window() int {
	if s.Window <= 0 {
		return predictor.DefaultWindow
	}
	return s.Window
}

func (s *PredictorStrategy) Prepare(h *market.FundHistory) error {
	if s.Model == nil {
		return errors.New("predictor strategy has no model")
	}
	X, y, err := predictor.PrepareWindows(h, s.window(), s.TrainEnd)
	if err != nil {
		return err
	}
	if err := s.Model.Fit(X, y); err != nil {
		return fmt.Errorf("fit %s: %w", h.Symbol(), err)
	}
	return nil
}

func (s *PredictorStrategy) Decide(d Day) Signal {
	w, ok := d.History.Window(d.Date, s.window())
	if !ok {
		return Signal{Action: Hold, Reason: fmt.Sprintf("fewer than %d prices", s.window())}
	}
	pred, err := s.Model.Predict(w)
	if err != nil {
		return Signal{Action: Hold, Reason: err.Error()}
	}

	sig := Signal{Value: pred, Defined: true, Reason: fmt.Sprintf("Predicted Price: %.4f", pred)}
	price := d.Price.InexactFloat64()
	switch {
	case pred > price:
		sig.Action = Buy
	case pred < price:
		sig.Action = Sell
	default:
		sig.Action = Hold
	}
	return sig
}
