package dto

import (
	"time"

	"github.com/hongminglow/health-risk-be/internal/models"
)

// RecordRequest carries clinical inputs; absent fields are nil.
type RecordRequest struct {
	models.FeatureInput
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type PredictResponse struct {
	Features models.Features `json:"features"`
	Outcomes models.Outcomes `json:"outcomes"`
}
