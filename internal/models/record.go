package models

import (
	"time"

	"github.com/google/uuid"
)

// Risk labels shared by every scoring model.
const (
	LowRisk    = "Low Risk"
	MediumRisk = "Medium Risk"
	HighRisk   = "High Risk"
)

// Features is the fixed clinical input set scored by the risk ensemble.
type Features struct {
	Pregnancies    int     `json:"pregnancies"`
	Glucose        float64 `json:"glucose"`
	BloodPressure  float64 `json:"blood_pressure"`
	Insulin        float64 `json:"insulin"`
	BMI            float64 `json:"bmi"`
	DiabeticFamily int     `json:"diabetic_family"`
	Age            int     `json:"age"`
}

// Outcome is a single model's verdict: its label and the positive-class
// probability as a percentage rounded to two decimals.
type Outcome struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Outcomes maps a model name to its Outcome.
type Outcomes map[string]Outcome

// HealthRecord is a scored submission owned by exactly one user.
type HealthRecord struct {
	ID     uuid.UUID `json:"record_id"`
	UserID uuid.UUID `json:"user_id"`
	Features
	Outcomes  Outcomes  `json:"outcomes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
