package risk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// Artifact kinds understood by DecodeArtifact.
const (
	KindLogistic = "logistic"
	KindSVC      = "svc"
	KindKNN      = "knn"
	KindMLP      = "mlp"
	KindForest   = "forest"
	KindBoosted  = "boosted"
)

// ErrInvalidArtifact wraps every artifact decoding or shape error.
var ErrInvalidArtifact = errors.New("invalid model artifact")

// Artifact is the serialized form of a trained model. Exactly one parameter
// block matching Kind must be present.
type Artifact struct {
	Kind    string         `yaml:"kind"`
	Scaler  *Scaler        `yaml:"scaler,omitempty"`
	Linear  *LinearParams  `yaml:"logistic,omitempty"`
	SVC     *SVCParams     `yaml:"svc,omitempty"`
	KNN     *KNNParams     `yaml:"knn,omitempty"`
	MLP     *MLPParams     `yaml:"mlp,omitempty"`
	Forest  *ForestParams  `yaml:"forest,omitempty"`
	Boosted *BoostedParams `yaml:"boosted,omitempty"`
}

// Scaler standardizes each feature as (x - mean) / scale before prediction.
type Scaler struct {
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

func (s *Scaler) validate() error {
	if len(s.Mean) != VectorLen || len(s.Scale) != VectorLen {
		return fmt.Errorf("scaler needs %d means and scales, got %d and %d", VectorLen, len(s.Mean), len(s.Scale))
	}
	for i, v := range s.Scale {
		if v == 0 {
			return fmt.Errorf("scaler scale[%d] is zero", i)
		}
	}
	return nil
}

func (s *Scaler) apply(x []float64) []float64 {
	if s == nil {
		return x
	}
	out := make([]float64, len(x))
	for i := range x {
		out[i] = (x[i] - s.Mean[i]) / s.Scale[i]
	}
	return out
}

// DecodeArtifact parses a YAML or JSON artifact and builds the model it describes.
func DecodeArtifact(name string, data []byte) (Model, error) {
	var a Artifact
	if err := yaml.UnmarshalWithOptions(data, &a, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidArtifact, name, err)
	}
	m, err := a.Build(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidArtifact, name, err)
	}
	return m, nil
}

// Build validates the artifact and returns a ready model.
func (a Artifact) Build(name string) (Model, error) {
	if a.Scaler != nil {
		if err := a.Scaler.validate(); err != nil {
			return nil, err
		}
	}
	b := base{name: name, scaler: a.Scaler}
	switch strings.ToLower(strings.TrimSpace(a.Kind)) {
	case KindLogistic:
		if a.Linear == nil {
			return nil, errors.New("logistic parameters are required")
		}
		return newLogistic(b, *a.Linear)
	case KindSVC:
		if a.SVC == nil {
			return nil, errors.New("svc parameters are required")
		}
		return newSVC(b, *a.SVC)
	case KindKNN:
		if a.KNN == nil {
			return nil, errors.New("knn parameters are required")
		}
		return newKNN(b, *a.KNN)
	case KindMLP:
		if a.MLP == nil {
			return nil, errors.New("mlp parameters are required")
		}
		return newMLP(b, *a.MLP)
	case KindForest:
		if a.Forest == nil {
			return nil, errors.New("forest parameters are required")
		}
		return newForest(b, *a.Forest)
	case KindBoosted:
		if a.Boosted == nil {
			return nil, errors.New("boosted parameters are required")
		}
		return newBoosted(b, *a.Boosted)
	default:
		return nil, fmt.Errorf("unknown kind %q", a.Kind)
	}
}

// base carries what every model kind shares.
type base struct {
	name   string
	scaler *Scaler
}

func (b base) Name() string { return b.name }

func (b base) prepare(x []float64) ([]float64, error) {
	if len(x) != VectorLen {
		return nil, fmt.Errorf("expected %d features, got %d", VectorLen, len(x))
	}
	return b.scaler.apply(x), nil
}
