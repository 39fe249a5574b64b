package model

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RidgeConfig configures L2-regularized linear regression.
type RidgeConfig struct {
	Alpha float64 `json:"alpha"`
}

// DefaultRidgeConfig returns alpha = 1.
func DefaultRidgeConfig() RidgeConfig {
	return RidgeConfig{Alpha: 1}
}

// Ridge is linear least squares with an L2 penalty on the coefficients. The
// intercept is fitted on centered data and is not penalized.
type Ridge struct {
	Config    RidgeConfig `json:"config"`
	Coef      []float64   `json:"coef"`
	Intercept float64     `json:"intercept"`
}

// NewRidge returns an untrained ridge regressor.
func NewRidge(cfg RidgeConfig) *Ridge {
	if cfg.Alpha < 0 {
		cfg.Alpha = DefaultRidgeConfig().Alpha
	}
	return &Ridge{Config: cfg}
}

func (r *Ridge) Algorithm() Algorithm { return AlgorithmRidge }

func (r *Ridge) Fitted() bool { return r.Coef != nil }

func (r *Ridge) Importances() ([]float64, bool) { return nil, false }

// Fit solves (XcᵀXc + αI) w = Xcᵀyc by Cholesky factorization.
func (r *Ridge) Fit(X [][]float64, y []float64) error {
	p, err := checkDesign(X, y)
	if err != nil {
		return fmt.Errorf("fit ridge: %w", err)
	}

	xMean := make([]float64, p)
	for j := range p {
		xMean[j] = floats.Sum(column(X, j)) / float64(len(X))
	}
	yMean := floats.Sum(y) / float64(len(y))

	gram := make([]float64, p*p)
	rhs := make([]float64, p)
	centered := make([]float64, p)
	for i, row := range X {
		floats.SubTo(centered, row, xMean)
		yc := y[i] - yMean
		for j := range p {
			rhs[j] += centered[j] * yc
			for k := j; k < p; k++ {
				gram[j*p+k] += centered[j] * centered[k]
			}
		}
	}
	for j := range p {
		gram[j*p+j] += r.Config.Alpha
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(p, gram)); !ok {
		return errors.New("fit ridge: normal equations are not positive definite")
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, mat.NewVecDense(p, rhs)); err != nil {
		return fmt.Errorf("fit ridge: %w", err)
	}

	coef := make([]float64, p)
	for j := range coef {
		coef[j] = w.AtVec(j)
	}
	r.Coef = coef
	r.Intercept = yMean - floats.Dot(xMean, coef)
	return nil
}

func (r *Ridge) Predict(X [][]float64) ([]float64, error) {
	if !r.Fitted() {
		return nil, fmt.Errorf("ridge predict: %w", domain.ErrModelNotTrained)
	}
	if err := checkWidth(X, len(r.Coef)); err != nil {
		return nil, fmt.Errorf("ridge predict: %w", err)
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = r.Intercept + floats.Dot(row, r.Coef)
	}
	return out, nil
}
