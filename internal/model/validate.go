package model

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Folds is the number of cross-validation folds.
const Folds = 5

// CVResult holds one candidate's fold scores.
type CVResult struct {
	Algorithm Algorithm `json:"algorithm"`
	Scores    []float64 `json:"scores"`
	Mean      float64   `json:"mean"`
	Std       float64   `json:"std"` // population std of Scores
}

// Fold is a contiguous validation block [Start, End) of the row range.
type Fold struct {
	Start, End int
}

// KFold partitions n rows into k contiguous folds. The first n%k folds hold
// one extra row.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k-fold with k=%d: %w", k, domain.ErrInvalidArgument)
	}
	if n < k {
		return nil, fmt.Errorf("%d rows for %d folds: %w", n, k, domain.ErrInsufficientData)
	}
	folds := make([]Fold, k)
	start := 0
	for i := range folds {
		size := n / k
		if i < n%k {
			size++
		}
		folds[i] = Fold{Start: start, End: start + size}
		start += size
	}
	return folds, nil
}

// CrossValidate scores each algorithm on every fold with R². Fold jobs run on
// up to workers goroutines; every job writes its own slot, so results do not
// depend on scheduling.
func CrossValidate(ctx context.Context, algs []Algorithm, cfg Config, X [][]float64, y []float64, workers int) ([]CVResult, error) {
	if _, err := checkDesign(X, y); err != nil {
		return nil, fmt.Errorf("cross-validate: %w", err)
	}
	folds, err := KFold(len(X), Folds)
	if err != nil {
		return nil, fmt.Errorf("cross-validate: %w", err)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	scores := make([][]float64, len(algs))
	for a := range scores {
		scores[a] = make([]float64, len(folds))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for a, alg := range algs {
		for f, fold := range folds {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				score, err := scoreFold(alg, cfg, X, y, fold)
				if err != nil {
					return fmt.Errorf("%s fold %d: %w", alg, f+1, err)
				}
				scores[a][f] = score
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cross-validate: %w", err)
	}

	results := make([]CVResult, len(algs))
	for a, alg := range algs {
		mean, std := stat.PopMeanStdDev(scores[a], nil)
		results[a] = CVResult{Algorithm: alg, Scores: scores[a], Mean: mean, Std: std}
	}
	return results, nil
}

func scoreFold(alg Algorithm, cfg Config, X [][]float64, y []float64, fold Fold) (float64, error) {
	trainX := make([][]float64, 0, len(X)-(fold.End-fold.Start))
	trainY := make([]float64, 0, cap(trainX))
	trainX = append(append(trainX, X[:fold.Start]...), X[fold.End:]...)
	trainY = append(append(trainY, y[:fold.Start]...), y[fold.End:]...)

	reg, err := alg.New(cfg)
	if err != nil {
		return 0, err
	}
	if err := reg.Fit(trainX, trainY); err != nil {
		return 0, err
	}
	pred, err := reg.Predict(X[fold.Start:fold.End])
	if err != nil {
		return 0, err
	}
	return rSquared(pred, y[fold.Start:fold.End]), nil
}

// rSquared is 1 − SS_res/SS_tot. A constant target gives NaN or −Inf.
func rSquared(pred, actual []float64) float64 {
	r2 := stat.RSquaredFrom(pred, actual, nil)
	if math.IsInf(r2, 0) {
		return math.NaN()
	}
	return r2
}
