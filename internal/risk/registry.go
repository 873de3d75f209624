package risk

import (
	"errors"
	"fmt"
	"strings"
)

// Model is a pre-trained binary classifier.
type Model interface {
	Name() string
	// PredictProba returns the probability of the positive class for x.
	PredictProba(x []float64) (float64, error)
}

// ErrEmptyRegistry is returned when a registry is built without models.
var ErrEmptyRegistry = errors.New("model registry is empty")

// Registry is an ordered, immutable set of models.
type Registry struct {
	entries []entry
}

// entry pairs a model with its trimmed name, the key of its outcome.
type entry struct {
	name  string
	model Model
}

// NewRegistry validates names and freezes the model list.
func NewRegistry(ms ...Model) (*Registry, error) {
	if len(ms) == 0 {
		return nil, ErrEmptyRegistry
	}
	seen := make(map[string]struct{}, len(ms))
	frozen := make([]entry, 0, len(ms))
	for _, m := range ms {
		if m == nil {
			return nil, errors.New("model registry: nil model")
		}
		name := strings.TrimSpace(m.Name())
		if name == "" {
			return nil, errors.New("model registry: model name is required")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("model registry: duplicate model %q", name)
		}
		seen[name] = struct{}{}
		frozen = append(frozen, entry{name: name, model: m})
	}
	return &Registry{entries: frozen}, nil
}

// Names lists model names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Len reports the number of models.
func (r *Registry) Len() int {
	return len(r.entries)
}
