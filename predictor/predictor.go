// Package predictor defines the fit/predict contract used by the predictor
// strategy and provides the built-in regression models.
package predictor

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/fundtrader/market"
)

// DefaultWindow is the number of trailing prices fed to a model.
const DefaultWindow = 20

var (
	ErrEmptyTrainingSet = errors.New("empty training set")
	ErrNotFitted        = errors.New("model not fitted")
)

// Predictor maps a window of prices to an estimate of the next price.
type Predictor interface {
	// Fit trains on rows of X, each a window of prices, with y holding the
	// price that followed each window.
	Fit(X [][]float64, y []float64) error

	// Predict estimates the price that follows window.
	Predict(window []float64) (float64, error)
}

// PrepareWindows builds training samples from h: each sample is window
// consecutive available prices and its target is the next available price.
// Only samples whose target is dated trainEnd or earlier are used.
func PrepareWindows(h *market.FundHistory, window int, trainEnd time.Time) ([][]float64, []float64, error) {
	if window <= 0 {
		return nil, nil, fmt.Errorf("window must be positive, got %d", window)
	}

	recs := h.Between(time.Time{}, trainEnd)
	if len(recs) <= window {
		return nil, nil, fmt.Errorf("%s: %d prices for window %d: %w",
			h.Symbol(), len(recs), window, ErrEmptyTrainingSet)
	}

	prices := make([]float64, len(recs))
	for i, r := range recs {
		prices[i] = r.Float()
	}

	X := make([][]float64, 0, len(prices)-window)
	y := make([]float64, 0, len(prices)-window)
	for i := window; i < len(prices); i++ {
		X = append(X, prices[i-window:i])
		y = append(y, prices[i])
	}
	return X, y, nil
}

// checkTraining validates the common Fit preconditions and returns the
// feature width.
func checkTraining(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 || len(y) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("have %d samples but %d targets", len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return 0, ErrEmptyTrainingSet
	}
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("sample %d has %d features, want %d", i, len(row), width)
		}
	}
	return width, nil
}

type factory func(lambda float64) Predictor

var models = map[string]factory{
	"ridge": func(lambda float64) Predictor { return &Ridge{Lambda: lambda} },
	"last":  func(float64) Predictor { return &LastValue{} },
}

// New returns the model registered under name. lambda is the ridge penalty
// and is ignored by models without one.
func New(name string, lambda float64) (Predictor, error) {
	f, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q (have %v)", name, Names())
	}
	return f(lambda), nil
}

// Names lists the registered model names.
func Names() []string {
	out := make([]string, 0, len(models))
	for n := range models {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
