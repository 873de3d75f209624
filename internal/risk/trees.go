package risk

import (
	"errors"
	"fmt"
	"strings"
)

// TreeNode is one node of a flattened binary decision tree. A negative
// Feature marks a leaf whose Value is the node output.
type TreeNode struct {
	Feature   int     `yaml:"feature"`
	Threshold float64 `yaml:"threshold"`
	Left      int     `yaml:"left"`
	Right     int     `yaml:"right"`
	Value     float64 `yaml:"value"`
}

// Tree is a decision tree rooted at Nodes[0].
type Tree struct {
	Nodes []TreeNode `yaml:"nodes"`
}

// ForestParams describes a bagged forest whose leaves hold the fraction of
// positive samples; the prediction is the mean over trees.
type ForestParams struct {
	Trees []Tree `yaml:"trees"`
}

// BoostedParams describes gradient-boosted trees whose leaves hold margins; the
// prediction is sigmoid(base_margin + sum of leaves). Split selects how a
// sample is routed at a node: "le" sends x <= threshold left, "lt" sends
// x < threshold left.
type BoostedParams struct {
	BaseMargin float64 `yaml:"base_margin"`
	Split      string  `yaml:"split"`
	Trees      []Tree  `yaml:"trees"`
}

func validateTrees(trees []Tree) error {
	if len(trees) == 0 {
		return errors.New("at least one tree is required")
	}
	for t, tree := range trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", t)
		}
		for i, n := range tree.Nodes {
			if n.Feature < 0 {
				continue
			}
			if n.Feature >= VectorLen {
				return fmt.Errorf("tree %d node %d splits on feature %d", t, i, n.Feature)
			}
			// Children must come after their parent so evaluation always terminates.
			if n.Left <= i || n.Left >= len(tree.Nodes) || n.Right <= i || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children %d/%d", t, i, n.Left, n.Right)
			}
		}
	}
	return nil
}

func (t Tree) eval(x []float64, strict bool) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		v := x[n.Feature]
		if v < n.Threshold || (!strict && v == n.Threshold) {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type forest struct {
	base
	trees []Tree
}

func newForest(b base, p ForestParams) (*forest, error) {
	if err := validateTrees(p.Trees); err != nil {
		return nil, err
	}
	for t, tree := range p.Trees {
		for i, n := range tree.Nodes {
			if n.Feature < 0 && (n.Value < 0 || n.Value > 1) {
				return nil, fmt.Errorf("forest tree %d leaf %d value %v outside [0,1]", t, i, n.Value)
			}
		}
	}
	return &forest{base: b, trees: p.Trees}, nil
}

func (m *forest) PredictProba(x []float64) (float64, error) {
	z, err := m.prepare(x)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, t := range m.trees {
		sum += t.eval(z, false)
	}
	return sum / float64(len(m.trees)), nil
}

type boosted struct {
	base
	strict bool
	params BoostedParams
}

func newBoosted(b base, p BoostedParams) (*boosted, error) {
	if err := validateTrees(p.Trees); err != nil {
		return nil, err
	}
	split := strings.ToLower(strings.TrimSpace(p.Split))
	if split != "" && split != "le" && split != "lt" {
		return nil, fmt.Errorf("unsupported split %q", p.Split)
	}
	return &boosted{base: b, strict: split == "lt", params: p}, nil
}

func (m *boosted) PredictProba(x []float64) (float64, error) {
	z, err := m.prepare(x)
	if err != nil {
		return 0, err
	}
	margin := m.params.BaseMargin
	for _, t := range m.params.Trees {
		margin += t.eval(z, m.strict)
	}
	return sigmoid(margin), nil
}
