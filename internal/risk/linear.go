package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// LinearParams describes a logistic regression.
type LinearParams struct {
	Coef      []float64 `yaml:"coef"`
	Intercept float64   `yaml:"intercept"`
}

type logistic struct {
	base
	coef      []float64
	intercept float64
}

func newLogistic(b base, p LinearParams) (*logistic, error) {
	if len(p.Coef) != VectorLen {
		return nil, fmt.Errorf("logistic needs %d coefficients, got %d", VectorLen, len(p.Coef))
	}
	return &logistic{base: b, coef: p.Coef, intercept: p.Intercept}, nil
}

func (m *logistic) PredictProba(x []float64) (float64, error) {
	z, err := m.prepare(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(dot(m.coef, z) + m.intercept), nil
}

// SVCParams describes a support vector classifier calibrated with Platt scaling.
type SVCParams struct {
	Kernel         string      `yaml:"kernel"`
	Gamma          float64     `yaml:"gamma"`
	SupportVectors [][]float64 `yaml:"support_vectors"`
	DualCoef       []float64   `yaml:"dual_coef"`
	Intercept      float64     `yaml:"intercept"`
	ProbA          float64     `yaml:"prob_a"`
	ProbB          float64     `yaml:"prob_b"`
}

type svc struct {
	base
	rbf    bool
	params SVCParams
}

func newSVC(b base, p SVCParams) (*svc, error) {
	kernel := strings.ToLower(strings.TrimSpace(p.Kernel))
	if kernel == "" {
		kernel = "rbf"
	}
	if kernel != "rbf" && kernel != "linear" {
		return nil, fmt.Errorf("unsupported svc kernel %q", p.Kernel)
	}
	if len(p.SupportVectors) == 0 {
		return nil, errors.New("svc needs at least one support vector")
	}
	if len(p.DualCoef) != len(p.SupportVectors) {
		return nil, fmt.Errorf("svc has %d support vectors but %d dual coefficients", len(p.SupportVectors), len(p.DualCoef))
	}
	for i, sv := range p.SupportVectors {
		if len(sv) != VectorLen {
			return nil, fmt.Errorf("support vector %d has %d features", i, len(sv))
		}
	}
	if kernel == "rbf" && p.Gamma <= 0 {
		return nil, errors.New("rbf kernel needs a positive gamma")
	}
	return &svc{base: b, rbf: kernel == "rbf", params: p}, nil
}

func (m *svc) PredictProba(x []float64) (float64, error) {
	z, err := m.prepare(x)
	if err != nil {
		return 0, err
	}
	decision := m.params.Intercept
	for i, sv := range m.params.SupportVectors {
		decision += m.params.DualCoef[i] * m.kernel(sv, z)
	}
	// Platt scaling, as libsvm applies it.
	return sigmoid(-(m.params.ProbA*decision + m.params.ProbB)), nil
}

func (m *svc) kernel(a, b []float64) float64 {
	if !m.rbf {
		return dot(a, b)
	}
	return math.Exp(-m.params.Gamma * sqDist(a, b))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
