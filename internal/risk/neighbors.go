package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// KNNParams describes a k-nearest-neighbours classifier over stored samples.
type KNNParams struct {
	K       int         `yaml:"k"`
	Weights string      `yaml:"weights"`
	Points  [][]float64 `yaml:"points"`
	Labels  []int       `yaml:"labels"`
}

type knn struct {
	base
	k        int
	distance bool
	points   [][]float64
	labels   []int
}

func newKNN(b base, p KNNParams) (*knn, error) {
	if len(p.Points) == 0 {
		return nil, errors.New("knn needs at least one sample")
	}
	if len(p.Labels) != len(p.Points) {
		return nil, fmt.Errorf("knn has %d samples but %d labels", len(p.Points), len(p.Labels))
	}
	if p.K <= 0 || p.K > len(p.Points) {
		return nil, fmt.Errorf("knn k=%d out of range for %d samples", p.K, len(p.Points))
	}
	for i, pt := range p.Points {
		if len(pt) != VectorLen {
			return nil, fmt.Errorf("knn sample %d has %d features", i, len(pt))
		}
		if p.Labels[i] != 0 && p.Labels[i] != 1 {
			return nil, fmt.Errorf("knn label %d must be 0 or 1", i)
		}
	}
	weights := strings.ToLower(strings.TrimSpace(p.Weights))
	if weights != "" && weights != "uniform" && weights != "distance" {
		return nil, fmt.Errorf("unsupported knn weights %q", p.Weights)
	}
	return &knn{base: b, k: p.K, distance: weights == "distance", points: p.Points, labels: p.Labels}, nil
}

type neighbour struct {
	idx  int
	dist float64
}

func (m *knn) PredictProba(x []float64) (float64, error) {
	z, err := m.prepare(x)
	if err != nil {
		return 0, err
	}
	ns := make([]neighbour, len(m.points))
	for i, pt := range m.points {
		ns[i] = neighbour{idx: i, dist: math.Sqrt(sqDist(pt, z))}
	}
	// Stable on index so ties resolve the same way every call.
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].dist < ns[j].dist })
	ns = ns[:m.k]

	if !m.distance {
		var pos int
		for _, n := range ns {
			pos += m.labels[n.idx]
		}
		return float64(pos) / float64(m.k), nil
	}

	// Exact matches take all the weight.
	var exact, exactPos int
	for _, n := range ns {
		if n.dist == 0 {
			exact++
			exactPos += m.labels[n.idx]
		}
	}
	if exact > 0 {
		return float64(exactPos) / float64(exact), nil
	}
	var total, pos float64
	for _, n := range ns {
		w := 1 / n.dist
		total += w
		pos += w * float64(m.labels[n.idx])
	}
	return pos / total, nil
}
