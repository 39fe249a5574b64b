package model

import (
	"fmt"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
)

// ForestConfig configures the bagged tree ensemble.
type ForestConfig struct {
	Trees int        `json:"trees"`
	Tree  TreeConfig `json:"tree"`
}

// DefaultForestConfig returns 50 fully featured trees of depth at most 12.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees: 50,
		Tree:  TreeConfig{MaxDepth: 12, MinSamplesSplit: 2, MinSamplesLeaf: 1},
	}
}

// Forest averages CART trees fitted on bootstrap resamples. Tree t draws its
// bootstrap from a stream derived from Seed and t, so fits are reproducible.
type Forest struct {
	Config     ForestConfig `json:"config"`
	Seed       uint64       `json:"seed"`
	Trees      []*Tree      `json:"trees"`
	Importance []float64    `json:"importance"`
	Width      int          `json:"width"`
}

// NewForest returns an untrained forest.
func NewForest(cfg ForestConfig, seed uint64) *Forest {
	def := DefaultForestConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.Tree.MaxDepth <= 0 {
		cfg.Tree.MaxDepth = def.Tree.MaxDepth
	}
	return &Forest{Config: cfg, Seed: seed}
}

func (f *Forest) Algorithm() Algorithm { return AlgorithmRandomForest }

func (f *Forest) Fitted() bool { return len(f.Trees) > 0 }

func (f *Forest) Importances() ([]float64, bool) {
	if !f.Fitted() {
		return nil, false
	}
	return append([]float64(nil), f.Importance...), true
}

func (f *Forest) Fit(X [][]float64, y []float64) error {
	p, err := checkDesign(X, y)
	if err != nil {
		return fmt.Errorf("fit random forest: %w", err)
	}

	root := domain.NewRandomSource(f.Seed)
	n := len(X)
	trees := make([]*Tree, f.Config.Trees)
	importance := make([]float64, p)
	for t := range trees {
		rng := root.Derive(uint64(t))
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.IntN(n)
		}
		tree, gain := growTree(X, y, sample, f.Config.Tree, rng)
		trees[t] = tree
		for j, g := range normalize(gain) {
			importance[j] += g
		}
	}

	f.Trees = trees
	f.Importance = normalize(importance)
	f.Width = p
	return nil
}

func (f *Forest) Predict(X [][]float64) ([]float64, error) {
	if !f.Fitted() {
		return nil, fmt.Errorf("random forest predict: %w", domain.ErrModelNotTrained)
	}
	if err := checkWidth(X, f.Width); err != nil {
		return nil, fmt.Errorf("random forest predict: %w", err)
	}
	out := make([]float64, len(X))
	for i, row := range X {
		var sum float64
		for _, t := range f.Trees {
			sum += t.predict(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}
