package risk

import (
	"math"

	"github.com/hongminglow/health-risk-be/internal/models"
)

// Label thresholds, inclusive on the upper bound of each band.
const (
	lowUpper    = 0.33
	mediumUpper = 0.66
)

// Label maps a positive-class probability onto a risk band.
func Label(p float64) string {
	switch {
	case p <= lowUpper:
		return models.LowRisk
	case p <= mediumUpper:
		return models.MediumRisk
	default:
		return models.HighRisk
	}
}

// Percent converts a probability to a percentage with two decimals.
func Percent(p float64) float64 {
	return math.Round(p*10000) / 100
}
