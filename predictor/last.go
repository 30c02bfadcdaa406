package predictor

import "errors"

// LastValue predicts that the next price equals the last one in the window.
type LastValue struct {
	fitted bool
}

func (l *LastValue) Fit(X [][]float64, y []float64) error {
	if _, err := checkTraining(X, y); err != nil {
		return err
	}
	l.fitted = true
	return nil
}

func (l *LastValue) Predict(window []float64) (float64, error) {
	if !l.fitted {
		return 0, ErrNotFitted
	}
	if len(window) == 0 {
		return 0, errors.New("last: empty window")
	}
	return window[len(window)-1], nil
}
