package model

import (
	"fmt"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
)

// checkDesign validates a feature matrix against its targets and returns the
// feature width.
func checkDesign(X [][]float64, y []float64) (int, error) {
	if len(X) != len(y) {
		return 0, fmt.Errorf("%d feature rows, %d targets: %w", len(X), len(y), domain.ErrDimensionMismatch)
	}
	if len(X) == 0 {
		return 0, fmt.Errorf("no rows: %w", domain.ErrInsufficientData)
	}
	p := len(X[0])
	if err := checkWidth(X, p); err != nil {
		return 0, err
	}
	return p, nil
}

// checkWidth reports a row whose length differs from p.
func checkWidth(X [][]float64, p int) error {
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("row %d has %d features, want %d: %w", i, len(row), p, domain.ErrDimensionMismatch)
		}
	}
	return nil
}

func column(X [][]float64, j int) []float64 {
	col := make([]float64, len(X))
	for i, row := range X {
		col[i] = row[j]
	}
	return col
}

func pick[T any](s []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, k := range idx {
		out[i] = s[k]
	}
	return out
}
