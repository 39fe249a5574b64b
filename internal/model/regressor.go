package model

import (
	"fmt"
)

// Regressor is a trainable single-output regression model.
type Regressor interface {
	Algorithm() Algorithm
	// Fit trains on standardized rows X with targets y, replacing any prior state.
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
	// Importances returns one normalized weight per feature when the model
	// exposes them. Linear and kernel models report false.
	Importances() ([]float64, bool)
	Fitted() bool
}

// Algorithm identifies one of the candidate regressors.
type Algorithm int

const (
	AlgorithmRidge Algorithm = iota
	AlgorithmRandomForest
	AlgorithmGradientBoosting
	AlgorithmSVR
)

// Candidates is the fixed candidate set in declaration order. Ties in model
// selection go to the earlier entry.
var Candidates = []Algorithm{
	AlgorithmRidge,
	AlgorithmRandomForest,
	AlgorithmGradientBoosting,
	AlgorithmSVR,
}

var algorithmNames = map[Algorithm][2]string{
	AlgorithmRidge:            {"ridge", "Ridge"},
	AlgorithmRandomForest:     {"random_forest", "Random Forest"},
	AlgorithmGradientBoosting: {"gradient_boosting", "Gradient Boosting"},
	AlgorithmSVR:              {"svr", "SVR"},
}

// String returns the display name.
func (a Algorithm) String() string {
	if n, ok := algorithmNames[a]; ok {
		return n[1]
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Key returns the stable identifier used in persisted pipelines and metrics.
func (a Algorithm) Key() string {
	if n, ok := algorithmNames[a]; ok {
		return n[0]
	}
	return fmt.Sprintf("algorithm_%d", int(a))
}

// MarshalText encodes the algorithm as its key.
func (a Algorithm) MarshalText() ([]byte, error) {
	if _, ok := algorithmNames[a]; !ok {
		return nil, fmt.Errorf("unknown algorithm %d", int(a))
	}
	return []byte(a.Key()), nil
}

// UnmarshalText decodes an algorithm key.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAlgorithm resolves a key such as "random_forest".
func ParseAlgorithm(key string) (Algorithm, error) {
	for a, n := range algorithmNames {
		if n[0] == key {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown algorithm %q", key)
}

// Config holds the hyperparameters of every candidate.
type Config struct {
	Ridge    RidgeConfig
	Forest   ForestConfig
	Boosting BoostingConfig
	SVR      SVRConfig
	// Seed drives bootstrap sampling; fits with equal seeds are identical.
	Seed uint64
}

// DefaultConfig returns the fixed hyperparameters of the candidate set.
func DefaultConfig() Config {
	return Config{
		Ridge:    DefaultRidgeConfig(),
		Forest:   DefaultForestConfig(),
		Boosting: DefaultBoostingConfig(),
		SVR:      DefaultSVRConfig(),
	}
}

// New returns an untrained regressor for a.
func (a Algorithm) New(cfg Config) (Regressor, error) {
	switch a {
	case AlgorithmRidge:
		return NewRidge(cfg.Ridge), nil
	case AlgorithmRandomForest:
		return NewForest(cfg.Forest, cfg.Seed), nil
	case AlgorithmGradientBoosting:
		return NewBoosting(cfg.Boosting), nil
	case AlgorithmSVR:
		return NewSVR(cfg.SVR), nil
	default:
		return nil, fmt.Errorf("unknown algorithm %d", int(a))
	}
}
