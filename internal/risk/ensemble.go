package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/hongminglow/health-risk-be/internal/models"
)

// ErrInvalidProbability is returned when a model yields NaN or a value outside [0, 1].
var ErrInvalidProbability = errors.New("model returned invalid probability")

// Ensemble scores features against every model of a Registry.
type Ensemble struct {
	registry *Registry
}

// New constructs an Ensemble over reg.
func New(reg *Registry) *Ensemble {
	return &Ensemble{registry: reg}
}

// Models lists the names of the loaded models.
func (e *Ensemble) Models() []string {
	return e.registry.Names()
}

// ScoreInput checks that every raw input is present, then scores it. The
// completed features are returned alongside the outcomes.
func (e *Ensemble) ScoreInput(in models.FeatureInput) (models.Features, models.Outcomes, error) {
	f, err := in.Complete()
	if err != nil {
		return models.Features{}, nil, err
	}
	out, err := e.Score(f)
	if err != nil {
		return models.Features{}, nil, err
	}
	return f, out, nil
}

// Score feeds the feature vector to each model and collects labelled outcomes.
func (e *Ensemble) Score(f models.Features) (models.Outcomes, error) {
	x, err := Vector(f)
	if err != nil {
		return nil, err
	}
	out := make(models.Outcomes, e.registry.Len())
	for _, m := range e.registry.entries {
		p, err := m.model.PredictProba(x)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.name, err)
		}
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("model %s: %w: %v", m.name, ErrInvalidProbability, p)
		}
		out[m.name] = models.Outcome{Label: Label(p), Probability: Percent(p)}
	}
	return out, nil
}
