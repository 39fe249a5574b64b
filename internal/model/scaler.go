package model

import (
	"fmt"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// minScale is the population std below which a column is treated as constant.
const minScale = 1e-12

// Scaler standardizes each column to zero mean and unit variance using
// population statistics. Constant columns keep a scale of 1.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-column mean and scale over X.
func FitScaler(X [][]float64) (*Scaler, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("fit scaler: no rows: %w", domain.ErrInsufficientData)
	}
	p := len(X[0])
	if err := checkWidth(X, p); err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}

	s := &Scaler{Mean: make([]float64, p), Scale: make([]float64, p)}
	for j := range p {
		mean, std := stat.PopMeanStdDev(column(X, j), nil)
		if std <= minScale {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// Width returns the number of columns the scaler was fitted on.
func (s *Scaler) Width() int { return len(s.Mean) }

// Transform returns a standardized copy of X.
func (s *Scaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("scale row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

// TransformRow returns a standardized copy of a single row.
func (s *Scaler) TransformRow(row []float64) ([]float64, error) {
	if len(row) != s.Width() {
		return nil, fmt.Errorf("%d features, scaler fitted on %d: %w", len(row), s.Width(), domain.ErrDimensionMismatch)
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}
