package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MLPParams describes a feed-forward network. Weights are stored row-major as
// [outputs][inputs]; the final layer has a single logistic output unit.
type MLPParams struct {
	Activation string     `yaml:"activation"`
	Layers     []MLPLayer `yaml:"layers"`
}

// MLPLayer is one dense layer.
type MLPLayer struct {
	Weights [][]float64 `yaml:"weights"`
	Bias    []float64   `yaml:"bias"`
}

type mlp struct {
	base
	activation func(float64) float64
	layers     []MLPLayer
}

func newMLP(b base, p MLPParams) (*mlp, error) {
	if len(p.Layers) == 0 {
		return nil, errors.New("mlp needs at least one layer")
	}
	act, err := activation(p.Activation)
	if err != nil {
		return nil, err
	}
	in := VectorLen
	for i, l := range p.Layers {
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Bias) {
			return nil, fmt.Errorf("mlp layer %d has %d weight rows and %d biases", i, len(l.Weights), len(l.Bias))
		}
		for j, row := range l.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("mlp layer %d row %d expects %d inputs, got %d", i, j, in, len(row))
			}
		}
		in = len(l.Weights)
	}
	if in != 1 {
		return nil, fmt.Errorf("mlp output layer must have 1 unit, got %d", in)
	}
	return &mlp{base: b, activation: act, layers: p.Layers}, nil
}

func (m *mlp) PredictProba(x []float64) (float64, error) {
	a, err := m.prepare(x)
	if err != nil {
		return 0, err
	}
	last := len(m.layers) - 1
	for i, l := range m.layers {
		next := make([]float64, len(l.Weights))
		for j, row := range l.Weights {
			v := dot(row, a) + l.Bias[j]
			if i < last {
				v = m.activation(v)
			}
			next[j] = v
		}
		a = next
	}
	return sigmoid(a[0]), nil
}

func activation(name string) (func(float64) float64, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "relu":
		return func(v float64) float64 { return math.Max(0, v) }, nil
	case "tanh":
		return math.Tanh, nil
	case "logistic":
		return sigmoid, nil
	case "identity":
		return func(v float64) float64 { return v }, nil
	default:
		return nil, fmt.Errorf("unsupported mlp activation %q", name)
	}
}
