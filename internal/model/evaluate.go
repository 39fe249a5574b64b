package model

import (
	"fmt"
	"math"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
)

// Evaluation holds held-out error metrics and the raw predictions.
type Evaluation struct {
	MAE         float64   `json:"mae"`
	RMSE        float64   `json:"rmse"`
	R2          float64   `json:"r2"`
	Predictions []float64 `json:"-"`
}

// Evaluate scores reg on unscaled test rows, standardizing them with the
// scaler fitted during selection. Predictions are reported unclamped.
func Evaluate(scaler *Scaler, reg Regressor, X [][]float64, y []float64) (*Evaluation, error) {
	if scaler == nil || reg == nil || !reg.Fitted() {
		return nil, fmt.Errorf("evaluate: %w", domain.ErrModelNotTrained)
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("evaluate: %d feature rows, %d targets: %w", len(X), len(y), domain.ErrDimensionMismatch)
	}
	if len(X) == 0 {
		return nil, fmt.Errorf("evaluate: no test rows: %w", domain.ErrInvalidArgument)
	}

	scaled, err := scaler.Transform(X)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	pred, err := reg.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	var absSum, sqSum float64
	for i, p := range pred {
		d := p - y[i]
		absSum += math.Abs(d)
		sqSum += d * d
	}
	n := float64(len(y))
	return &Evaluation{
		MAE:         absSum / n,
		RMSE:        math.Sqrt(sqSum / n),
		R2:          rSquared(pred, y),
		Predictions: pred,
	}, nil
}
