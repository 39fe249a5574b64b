package model

import (
	"context"
	"fmt"
	"math"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
)

// Options configures SelectAndFit.
type Options struct {
	Config Config
	// Workers bounds concurrent cross-validation jobs. Zero uses all CPUs.
	Workers int
}

// Selection is the outcome of model selection.
type Selection struct {
	Algorithm Algorithm
	Score     float64 // mean CV R² of the winner
	Results   []CVResult
	Scaler    *Scaler
	Model     Regressor
}

// SelectAndFit standardizes X, cross-validates every candidate, and refits the
// best one on all standardized rows.
func SelectAndFit(ctx context.Context, X [][]float64, y []float64, opts Options) (*Selection, error) {
	if _, err := checkDesign(X, y); err != nil {
		return nil, fmt.Errorf("select model: %w", err)
	}
	if len(X) < Folds {
		return nil, fmt.Errorf("select model: %d rows for %d folds: %w", len(X), Folds, domain.ErrInsufficientData)
	}

	scaler, err := FitScaler(X)
	if err != nil {
		return nil, fmt.Errorf("select model: %w", err)
	}
	scaled, err := scaler.Transform(X)
	if err != nil {
		return nil, fmt.Errorf("select model: %w", err)
	}

	results, err := CrossValidate(ctx, Candidates, opts.Config, scaled, y, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("select model: %w", err)
	}

	best := bestResult(results)
	winner := results[best]
	reg, err := winner.Algorithm.New(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("select model: %w", err)
	}
	if err := reg.Fit(scaled, y); err != nil {
		return nil, fmt.Errorf("refit %s: %w", winner.Algorithm, err)
	}

	return &Selection{
		Algorithm: winner.Algorithm,
		Score:     winner.Mean,
		Results:   results,
		Scaler:    scaler,
		Model:     reg,
	}, nil
}

// bestResult returns the index of the highest mean. Earlier entries win ties
// and NaN never beats a number.
func bestResult(results []CVResult) int {
	best := 0
	for i := 1; i < len(results); i++ {
		cur, top := results[i].Mean, results[best].Mean
		if math.IsNaN(cur) {
			continue
		}
		if math.IsNaN(top) || cur > top {
			best = i
		}
	}
	return best
}
