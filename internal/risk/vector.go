package risk

import (
	"errors"

	"github.com/hongminglow/health-risk-be/internal/models"
)

// VectorLen is the width of the feature vector fed to every model.
const VectorLen = 8

var (
	// ErrMissingFeature is returned when a raw input is absent.
	ErrMissingFeature = models.ErrMissingFeature
	// ErrDivisionUndefined is returned when age is zero.
	ErrDivisionUndefined = errors.New("bmi/age ratio undefined: age is zero")
)

// Vector lays out features in model order and appends the derived bmi/age ratio.
func Vector(f models.Features) ([]float64, error) {
	if f.Age == 0 {
		return nil, ErrDivisionUndefined
	}
	return []float64{
		float64(f.Pregnancies),
		f.Glucose,
		f.BloodPressure,
		f.Insulin,
		f.BMI,
		float64(f.DiabeticFamily),
		float64(f.Age),
		f.BMI / float64(f.Age),
	}, nil
}
