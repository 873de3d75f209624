package risk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/health-risk-be/internal/models"
)

var origin = []float64{0, 0, 0, 0, 0, 0, 0, 0}

func decode(t *testing.T, doc string) Model {
	t.Helper()
	m, err := DecodeArtifact("m", []byte(doc))
	require.NoError(t, err)
	return m
}

func predict(t *testing.T, m Model, x []float64) float64 {
	t.Helper()
	p, err := m.PredictProba(x)
	require.NoError(t, err)
	return p
}

func TestLogisticArtifact(t *testing.T) {
	m := decode(t, `
kind: logistic
logistic:
  coef: [1, 0, 0, 0, 0, 0, 0, 0]
  intercept: 0
`)
	assert.Equal(t, "m", m.Name())
	assert.InDelta(t, 0.5, predict(t, m, origin), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-2)), predict(t, m, []float64{2, 0, 0, 0, 0, 0, 0, 0}), 1e-12)
}

func TestScalerIsApplied(t *testing.T) {
	m := decode(t, `
kind: logistic
scaler:
  mean: [2, 0, 0, 0, 0, 0, 0, 0]
  scale: [2, 1, 1, 1, 1, 1, 1, 1]
logistic:
  coef: [1, 0, 0, 0, 0, 0, 0, 0]
  intercept: 0
`)
	assert.InDelta(t, 0.5, predict(t, m, []float64{2, 0, 0, 0, 0, 0, 0, 0}), 1e-12)
}

func TestLinearSVCWithPlattScaling(t *testing.T) {
	m := decode(t, `
kind: svc
svc:
  kernel: linear
  support_vectors:
    - [1, 0, 0, 0, 0, 0, 0, 0]
  dual_coef: [1]
  intercept: 0
  prob_a: -1
  prob_b: 0
`)
	// decision = x0, p = 1/(1+exp(-x0))
	assert.InDelta(t, 1/(1+math.Exp(-3)), predict(t, m, []float64{3, 0, 0, 0, 0, 0, 0, 0}), 1e-12)
}

func TestKNNUniformAndDistance(t *testing.T) {
	doc := func(weights string) string {
		return `
kind: knn
knn:
  k: 3
  weights: ` + weights + `
  points:
    - [0, 0, 0, 0, 0, 0, 0, 0]
    - [1, 0, 0, 0, 0, 0, 0, 0]
    - [3, 0, 0, 0, 0, 0, 0, 0]
    - [10, 0, 0, 0, 0, 0, 0, 0]
  labels: [1, 0, 1, 1]
`
	}
	x := []float64{0.5, 0, 0, 0, 0, 0, 0, 0}

	uniform := decode(t, doc("uniform"))
	assert.InDelta(t, 2.0/3.0, predict(t, uniform, x), 1e-12)

	distance := decode(t, doc("distance"))
	// weights 1/0.5, 1/0.5, 1/2.5 with labels 1, 0, 1
	want := (2 + 0.4) / (2 + 2 + 0.4)
	assert.InDelta(t, want, predict(t, distance, x), 1e-12)

	// an exact match takes all the weight
	assert.Equal(t, 1.0, predict(t, distance, origin))
}

func TestMLPArtifact(t *testing.T) {
	m := decode(t, `
kind: mlp
mlp:
  activation: relu
  layers:
    - weights:
        - [1, 0, 0, 0, 0, 0, 0, 0]
        - [-1, 0, 0, 0, 0, 0, 0, 0]
      bias: [0, 0]
    - weights:
        - [1, 1]
      bias: [0]
`)
	// relu(x0) + relu(-x0) = |x0|
	assert.InDelta(t, 1/(1+math.Exp(-2)), predict(t, m, []float64{-2, 0, 0, 0, 0, 0, 0, 0}), 1e-12)
}

func TestForestAveragesTrees(t *testing.T) {
	m := decode(t, `
kind: forest
forest:
  trees:
    - nodes:
        - {feature: 0, threshold: 1, left: 1, right: 2}
        - {feature: -1, value: 0.2}
        - {feature: -1, value: 0.8}
    - nodes:
        - {feature: -1, value: 0.4}
`)
	assert.InDelta(t, 0.3, predict(t, m, []float64{1, 0, 0, 0, 0, 0, 0, 0}), 1e-12)
	assert.InDelta(t, 0.6, predict(t, m, []float64{2, 0, 0, 0, 0, 0, 0, 0}), 1e-12)
}

func TestBoostedSplitModes(t *testing.T) {
	doc := func(split string) string {
		return `
kind: boosted
boosted:
  base_margin: 0
  split: ` + split + `
  trees:
    - nodes:
        - {feature: 0, threshold: 1, left: 1, right: 2}
        - {feature: -1, value: -1}
        - {feature: -1, value: 1}
`
	}
	atThreshold := []float64{1, 0, 0, 0, 0, 0, 0, 0}
	assert.InDelta(t, sigmoid(-1), predict(t, decode(t, doc("le")), atThreshold), 1e-12)
	assert.InDelta(t, sigmoid(1), predict(t, decode(t, doc("lt")), atThreshold), 1e-12)
}

func TestDecodeArtifactRejectsBadShapes(t *testing.T) {
	cases := map[string]string{
		"unknown kind":    "kind: perceptron\n",
		"missing block":   "kind: logistic\n",
		"short coef":      "kind: logistic\nlogistic:\n  coef: [1, 2]\n",
		"unknown field":   "kind: logistic\nlogistic:\n  coef: [0,0,0,0,0,0,0,0]\n  bias: 1\n",
		"zero scale":      "kind: logistic\nscaler:\n  mean: [0,0,0,0,0,0,0,0]\n  scale: [0,1,1,1,1,1,1,1]\nlogistic:\n  coef: [0,0,0,0,0,0,0,0]\n",
		"cyclic tree":     "kind: forest\nforest:\n  trees:\n    - nodes:\n        - {feature: 0, threshold: 1, left: 0, right: 0}\n",
		"leaf out of 0-1": "kind: forest\nforest:\n  trees:\n    - nodes:\n        - {feature: -1, value: 2}\n",
		"knn k too big":   "kind: knn\nknn:\n  k: 2\n  points: [[0,0,0,0,0,0,0,0]]\n  labels: [1]\n",
		"mlp two outputs": "kind: mlp\nmlp:\n  layers:\n    - weights: [[0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0]]\n      bias: [0, 0]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeArtifact("m", []byte(doc))
			assert.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}

func TestPredictRejectsWrongWidth(t *testing.T) {
	m := decode(t, "kind: logistic\nlogistic:\n  coef: [0,0,0,0,0,0,0,0]\n")
	_, err := m.PredictProba([]float64{1, 2})
	assert.Error(t, err)
}

func TestLoadShippedRegistry(t *testing.T) {
	reg, err := Load(context.Background(), "../../models/registry.yaml", S3Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"logisticregression", "randomforest", "svc", "knn", "mlp", "xgboost"}, reg.Names())

	out, err := New(reg).Score(sampleFeatures())
	require.NoError(t, err)
	require.Len(t, out, 6)
	for name, o := range out {
		assert.GreaterOrEqual(t, o.Probability, 0.0, name)
		assert.LessOrEqual(t, o.Probability, 100.0, name)
		assert.Contains(t, []string{models.LowRisk, models.MediumRisk, models.HighRisk}, o.Label, name)
	}
}

func TestDirSourceRejectsEscapes(t *testing.T) {
	src := DirSource{Dir: t.TempDir()}
	_, err := src.Read(context.Background(), "../secret.yaml")
	assert.Error(t, err)
	_, err = src.Read(context.Background(), "..")
	assert.Error(t, err)
	_, err = src.Read(context.Background(), "nested/../../secret.yaml")
	assert.Error(t, err)
}

func TestDirSourceAllowsDottedNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "..v2.yaml"), []byte("kind: logistic\n"), 0o600))

	data, err := DirSource{Dir: dir}.Read(context.Background(), "..v2.yaml")
	require.NoError(t, err)
	assert.Equal(t, "kind: logistic\n", string(data))
}

type fakeObjects struct {
	objects map[string]string
	keys    []string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := *in.Bucket + "/" + *in.Key
	f.keys = append(f.keys, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func TestLoadRegistryFromS3Source(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{
		"models/v1/registry.yaml": "models:\n  - name: lr\n    artifact: lr.yaml\n",
		"models/v1/lr.yaml":       "kind: logistic\nlogistic:\n  coef: [0,0,0,0,0,0,0,0]\n  intercept: 0\n",
	}}
	reg, err := LoadRegistry(context.Background(), S3Source{Client: objects, Bucket: "models", Prefix: "v1"}, "registry.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"lr"}, reg.Names())
	assert.Equal(t, []string{"models/v1/registry.yaml", "models/v1/lr.yaml"}, objects.keys)
}

func TestLoadRegistryMissingArtifact(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{
		"b/registry.yaml": "models:\n  - name: lr\n    artifact: lr.yaml\n",
	}}
	_, err := LoadRegistry(context.Background(), S3Source{Client: objects, Bucket: "b"}, "registry.yaml")
	assert.Error(t, err)
}
