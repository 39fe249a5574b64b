package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/goccy/go-json"
)

// pipelineVersion is bumped when the persisted layout changes.
const pipelineVersion = 1

// TrainedPipeline bundles everything needed to score new records: the
// feature order, fitted vocabularies, fitted scaler and fitted regressor.
// It is read-only once built and safe for concurrent use.
type TrainedPipeline struct {
	Features     []string
	Vocabularies domain.Vocabularies
	Scaler       *Scaler
	Model        Regressor
}

// NewTrainedPipeline bundles a selection with the feature state it was fitted on.
func NewTrainedPipeline(features []string, vocabs domain.Vocabularies, sel *Selection) *TrainedPipeline {
	return &TrainedPipeline{
		Features:     slices.Clone(features),
		Vocabularies: vocabs,
		Scaler:       sel.Scaler,
		Model:        sel.Model,
	}
}

// Trained reports whether the pipeline can predict.
func (p *TrainedPipeline) Trained() bool {
	return p != nil && p.Scaler != nil && p.Model != nil && p.Model.Fitted()
}

// Predict scales and scores a feature table whose columns must match Features.
func (p *TrainedPipeline) Predict(table domain.FeatureTable) ([]float64, error) {
	if !p.Trained() {
		return nil, fmt.Errorf("predict: %w", domain.ErrModelNotTrained)
	}
	if !slices.Equal(table.Names, p.Features) {
		return nil, fmt.Errorf("predict: feature columns differ from training order: %w", domain.ErrDimensionMismatch)
	}
	scaled, err := p.Scaler.Transform(table.Rows)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return p.Model.Predict(scaled)
}

// FeatureImportance is one named importance weight.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// RankedImportances returns features by descending importance, or false when
// the model does not expose importances.
func (p *TrainedPipeline) RankedImportances() ([]FeatureImportance, bool) {
	if !p.Trained() {
		return nil, false
	}
	w, ok := p.Model.Importances()
	if !ok || len(w) != len(p.Features) {
		return nil, false
	}
	ranked := make([]FeatureImportance, len(w))
	for i, v := range w {
		ranked[i] = FeatureImportance{Feature: p.Features[i], Importance: v}
	}
	slices.SortStableFunc(ranked, func(a, b FeatureImportance) int {
		return cmp.Compare(b.Importance, a.Importance)
	})
	return ranked, true
}

type pipelineEnvelope struct {
	Version      int                 `json:"version"`
	Features     []string            `json:"features"`
	Vocabularies domain.Vocabularies `json:"vocabularies"`
	Scaler       *Scaler             `json:"scaler"`
	Algorithm    Algorithm           `json:"algorithm"`
	Model        json.RawMessage     `json:"model"`
}

// MarshalJSON writes the pipeline as one document so the four parts always
// travel together.
func (p *TrainedPipeline) MarshalJSON() ([]byte, error) {
	if !p.Trained() {
		return nil, fmt.Errorf("encode pipeline: %w", domain.ErrModelNotTrained)
	}
	model, err := json.Marshal(p.Model)
	if err != nil {
		return nil, fmt.Errorf("encode %s model: %w", p.Model.Algorithm(), err)
	}
	return json.Marshal(pipelineEnvelope{
		Version:      pipelineVersion,
		Features:     p.Features,
		Vocabularies: p.Vocabularies,
		Scaler:       p.Scaler,
		Algorithm:    p.Model.Algorithm(),
		Model:        model,
	})
}

// UnmarshalJSON restores a pipeline written by MarshalJSON.
func (p *TrainedPipeline) UnmarshalJSON(data []byte) error {
	var env pipelineEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode pipeline: %w", err)
	}
	if env.Version != pipelineVersion {
		return fmt.Errorf("decode pipeline: unsupported version %d", env.Version)
	}
	if env.Scaler == nil || len(env.Model) == 0 {
		return errors.New("decode pipeline: missing scaler or model")
	}
	if env.Scaler.Width() != len(env.Features) {
		return fmt.Errorf("decode pipeline: scaler width %d for %d features: %w",
			env.Scaler.Width(), len(env.Features), domain.ErrDimensionMismatch)
	}

	reg, err := env.Algorithm.New(DefaultConfig())
	if err != nil {
		return fmt.Errorf("decode pipeline: %w", err)
	}
	if err := json.Unmarshal(env.Model, reg); err != nil {
		return fmt.Errorf("decode %s model: %w", env.Algorithm, err)
	}
	if !reg.Fitted() {
		return fmt.Errorf("decode pipeline: %w", domain.ErrModelNotTrained)
	}

	*p = TrainedPipeline{
		Features:     env.Features,
		Vocabularies: env.Vocabularies,
		Scaler:       env.Scaler,
		Model:        reg,
	}
	return nil
}
