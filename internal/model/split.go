package model

import (
	"fmt"
	"math"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
)

// TrainTestSplit shuffles the row indices [0, n) and holds out
// ceil(testFraction·n) of them. Both sides are guaranteed non-empty.
func TrainTestSplit(n int, testFraction float64, rng *domain.RandomSource) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 || math.IsNaN(testFraction) {
		return nil, nil, fmt.Errorf("test fraction %v outside (0, 1): %w", testFraction, domain.ErrInvalidArgument)
	}
	if rng == nil {
		return nil, nil, fmt.Errorf("split: nil random source: %w", domain.ErrInvalidArgument)
	}
	testN := int(math.Ceil(testFraction * float64(n)))
	if n < 2 || testN >= n {
		return nil, nil, fmt.Errorf("split %d rows with test fraction %v: %w", n, testFraction, domain.ErrInsufficientData)
	}
	perm := rng.Perm(n)
	return perm[testN:], perm[:testN], nil
}

// Rows returns the rows of X at idx.
func Rows(X [][]float64, idx []int) [][]float64 { return pick(X, idx) }

// Values returns the values of y at idx.
func Values(y []float64, idx []int) []float64 { return pick(y, idx) }
