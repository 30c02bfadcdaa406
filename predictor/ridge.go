package predictor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultLambda is the ridge penalty used when none is configured.
const DefaultLambda = 1e-3

// Ridge is linear regression with an L2 penalty on the window weights.
// The intercept is not penalized.
type Ridge struct {
	Lambda float64

	coef []float64 // intercept first
}

func (r *Ridge) Fit(X [][]float64, y []float64) error {
	width, err := checkTraining(X, y)
	if err != nil {
		return err
	}
	lambda := r.Lambda
	if lambda <= 0 {
		lambda = DefaultLambda
	}

	n, p := len(X), width+1
	a := mat.NewDense(n, p, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}

	var ata mat.SymDense
	ata.SymOuterK(1, a.T())
	for j := 1; j < p; j++ {
		ata.SetSym(j, j, ata.At(j, j)+lambda)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&ata); !ok {
		return errors.New("ridge: normal equations are not positive definite")
	}

	aty := mat.NewVecDense(p, nil)
	aty.MulVec(a.T(), mat.NewVecDense(n, append([]float64(nil), y...)))

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, aty); err != nil {
		return fmt.Errorf("ridge: solve: %w", err)
	}

	r.coef = make([]float64, p)
	for j := range r.coef {
		r.coef[j] = beta.AtVec(j)
	}
	return nil
}

func (r *Ridge) Predict(window []float64) (float64, error) {
	if len(r.coef) == 0 {
		return 0, ErrNotFitted
	}
	if len(window) != len(r.coef)-1 {
		return 0, fmt.Errorf("ridge: window has %d prices, want %d", len(window), len(r.coef)-1)
	}
	out := r.coef[0]
	for i, v := range window {
		out += r.coef[i+1] * v
	}
	return out, nil
}
