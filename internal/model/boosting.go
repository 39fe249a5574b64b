package model

import (
	"fmt"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// BoostingConfig configures gradient boosting with squared loss.
type BoostingConfig struct {
	Stages       int        `json:"stages"`
	LearningRate float64    `json:"learning_rate"`
	Tree         TreeConfig `json:"tree"`
}

// DefaultBoostingConfig returns 100 depth-3 stages with shrinkage 0.1.
func DefaultBoostingConfig() BoostingConfig {
	return BoostingConfig{
		Stages:       100,
		LearningRate: 0.1,
		Tree:         TreeConfig{MaxDepth: 3, MinSamplesSplit: 2, MinSamplesLeaf: 1},
	}
}

// Boosting fits each stage's tree to the residuals of the stages before it,
// starting from the target mean.
type Boosting struct {
	Config     BoostingConfig `json:"config"`
	Init       float64        `json:"init"`
	Stages     []*Tree        `json:"stages"`
	Importance []float64      `json:"importance"`
	Width      int            `json:"width"`
}

// NewBoosting returns an untrained boosted ensemble.
func NewBoosting(cfg BoostingConfig) *Boosting {
	def := DefaultBoostingConfig()
	if cfg.Stages <= 0 {
		cfg.Stages = def.Stages
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.Tree.MaxDepth <= 0 {
		cfg.Tree.MaxDepth = def.Tree.MaxDepth
	}
	return &Boosting{Config: cfg}
}

func (b *Boosting) Algorithm() Algorithm { return AlgorithmGradientBoosting }

func (b *Boosting) Fitted() bool { return len(b.Stages) > 0 }

func (b *Boosting) Importances() ([]float64, bool) {
	if !b.Fitted() {
		return nil, false
	}
	return append([]float64(nil), b.Importance...), true
}

func (b *Boosting) Fit(X [][]float64, y []float64) error {
	p, err := checkDesign(X, y)
	if err != nil {
		return fmt.Errorf("fit gradient boosting: %w", err)
	}

	n := len(X)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	init := floats.Sum(y) / float64(n)
	current := make([]float64, n)
	for i := range current {
		current[i] = init
	}
	residual := make([]float64, n)
	stages := make([]*Tree, 0, b.Config.Stages)
	importance := make([]float64, p)

	for range b.Config.Stages {
		floats.SubTo(residual, y, current)
		tree, gain := growTree(X, residual, idx, b.Config.Tree, nil)
		for i, row := range X {
			current[i] += b.Config.LearningRate * tree.predict(row)
		}
		for j, g := range normalize(gain) {
			importance[j] += g
		}
		stages = append(stages, tree)
	}

	b.Init = init
	b.Stages = stages
	b.Importance = normalize(importance)
	b.Width = p
	return nil
}

func (b *Boosting) Predict(X [][]float64) ([]float64, error) {
	if !b.Fitted() {
		return nil, fmt.Errorf("gradient boosting predict: %w", domain.ErrModelNotTrained)
	}
	if err := checkWidth(X, b.Width); err != nil {
		return nil, fmt.Errorf("gradient boosting predict: %w", err)
	}
	out := make([]float64, len(X))
	for i, row := range X {
		v := b.Init
		for _, t := range b.Stages {
			v += b.Config.LearningRate * t.predict(row)
		}
		out[i] = v
	}
	return out, nil
}
