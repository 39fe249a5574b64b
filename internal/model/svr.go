package model

import (
	"fmt"
	"math"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SVRConfig configures epsilon-insensitive support vector regression with an
// RBF kernel. A zero Gamma selects the "scale" heuristic 1 / (p · Var(X)).
type SVRConfig struct {
	C       float64 `json:"c"`
	Epsilon float64 `json:"epsilon"`
	Gamma   float64 `json:"gamma,omitempty"`
	MaxIter int     `json:"max_iter"`
	Tol     float64 `json:"tol"`
}

// DefaultSVRConfig returns C = 1, ε = 0.1 and gamma "scale".
func DefaultSVRConfig() SVRConfig {
	return SVRConfig{C: 1, Epsilon: 0.1, MaxIter: 200, Tol: 1e-3}
}

// SVR solves the dual problem by coordinate descent over β = α − α*, with
// β_i ∈ [−C, C]. The bias is absorbed by adding 1 to the kernel, so the
// decision function is f(x) = Σ β_i (K(x_i, x) + 1).
type SVR struct {
	Config  SVRConfig   `json:"config"`
	Gamma   float64     `json:"gamma"`
	Support [][]float64 `json:"support"`
	Beta    []float64   `json:"beta"`
	Width   int         `json:"width"`
}

// NewSVR returns an untrained support vector regressor.
func NewSVR(cfg SVRConfig) *SVR {
	def := DefaultSVRConfig()
	if cfg.C <= 0 {
		cfg.C = def.C
	}
	if cfg.Epsilon < 0 {
		cfg.Epsilon = def.Epsilon
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = def.MaxIter
	}
	if cfg.Tol <= 0 {
		cfg.Tol = def.Tol
	}
	return &SVR{Config: cfg}
}

func (s *SVR) Algorithm() Algorithm { return AlgorithmSVR }

func (s *SVR) Fitted() bool { return s.Width > 0 }

func (s *SVR) Importances() ([]float64, bool) { return nil, false }

func (s *SVR) Fit(X [][]float64, y []float64) error {
	p, err := checkDesign(X, y)
	if err != nil {
		return fmt.Errorf("fit svr: %w", err)
	}

	gamma := s.Config.Gamma
	if gamma <= 0 {
		gamma = scaleGamma(X, p)
	}

	n := len(X)
	kernel := make([][]float64, n)
	for i := range kernel {
		kernel[i] = make([]float64, n)
	}
	for i := range n {
		kernel[i][i] = 2
		for j := i + 1; j < n; j++ {
			k := rbf(X[i], X[j], gamma) + 1
			kernel[i][j] = k
			kernel[j][i] = k
		}
	}

	c, eps := s.Config.C, s.Config.Epsilon
	beta := make([]float64, n)
	fitted := make([]float64, n) // f(x_i) under the current beta
	for range s.Config.MaxIter {
		var maxStep float64
		for i := range n {
			kii := kernel[i][i]
			z := beta[i] + (y[i]-fitted[i])/kii
			next := clampBox(softThreshold(z, eps/kii), c)
			step := next - beta[i]
			if step == 0 {
				continue
			}
			beta[i] = next
			floats.AddScaled(fitted, step, kernel[i])
			maxStep = math.Max(maxStep, math.Abs(step))
		}
		if maxStep < s.Config.Tol {
			break
		}
	}

	var support [][]float64
	var coef []float64
	for i, b := range beta {
		if b != 0 {
			support = append(support, append([]float64(nil), X[i]...))
			coef = append(coef, b)
		}
	}
	s.Gamma = gamma
	s.Support = support
	s.Beta = coef
	s.Width = p
	return nil
}

func (s *SVR) Predict(X [][]float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, fmt.Errorf("svr predict: %w", domain.ErrModelNotTrained)
	}
	if err := checkWidth(X, s.Width); err != nil {
		return nil, fmt.Errorf("svr predict: %w", err)
	}
	out := make([]float64, len(X))
	for i, row := range X {
		var v float64
		for k, sv := range s.Support {
			v += s.Beta[k] * (rbf(sv, row, s.Gamma) + 1)
		}
		out[i] = v
	}
	return out, nil
}

// scaleGamma is 1 / (p · Var(X)) over every element of X.
func scaleGamma(X [][]float64, p int) float64 {
	flat := make([]float64, 0, len(X)*p)
	for _, row := range X {
		flat = append(flat, row...)
	}
	v := stat.PopVariance(flat, nil)
	if v <= 0 {
		return 1 / float64(p)
	}
	return 1 / (float64(p) * v)
}

func rbf(a, b []float64, gamma float64) float64 {
	var d float64
	for j := range a {
		diff := a[j] - b[j]
		d += diff * diff
	}
	return math.Exp(-gamma * d)
}

func softThreshold(z, t float64) float64 {
	switch {
	case z > t:
		return z - t
	case z < -t:
		return z + t
	default:
		return 0
	}
}

func clampBox(v, c float64) float64 {
	return math.Min(math.Max(v, -c), c)
}
