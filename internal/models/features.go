package models

import (
	"errors"
	"fmt"
)

// ErrMissingFeature is matched by every MissingFeatureError.
var ErrMissingFeature = errors.New("missing feature")

// MissingFeatureError names the first absent clinical input.
type MissingFeatureError struct {
	Field string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing feature: %s", e.Field)
}

func (e *MissingFeatureError) Is(target error) bool {
	return target == ErrMissingFeature
}

// FeatureInput is the wire shape of Features. Nil fields are absent, which lets
// the same type carry full submissions and partial updates.
type FeatureInput struct {
	Pregnancies    *int     `json:"pregnancies,omitempty"`
	Glucose        *float64 `json:"glucose,omitempty"`
	BloodPressure  *float64 `json:"blood_pressure,omitempty"`
	Insulin        *float64 `json:"insulin,omitempty"`
	BMI            *float64 `json:"bmi,omitempty"`
	DiabeticFamily *int     `json:"diabetic_family,omitempty"`
	Age            *int     `json:"age,omitempty"`
}

// Complete converts the input into Features, failing on the first absent field
// in vector order.
func (in FeatureInput) Complete() (Features, error) {
	switch {
	case in.Pregnancies == nil:
		return Features{}, &MissingFeatureError{Field: "pregnancies"}
	case in.Glucose == nil:
		return Features{}, &MissingFeatureError{Field: "glucose"}
	case in.BloodPressure == nil:
		return Features{}, &MissingFeatureError{Field: "blood_pressure"}
	case in.Insulin == nil:
		return Features{}, &MissingFeatureError{Field: "insulin"}
	case in.BMI == nil:
		return Features{}, &MissingFeatureError{Field: "bmi"}
	case in.DiabeticFamily == nil:
		return Features{}, &MissingFeatureError{Field: "diabetic_family"}
	case in.Age == nil:
		return Features{}, &MissingFeatureError{Field: "age"}
	}
	return Features{
		Pregnancies:    *in.Pregnancies,
		Glucose:        *in.Glucose,
		BloodPressure:  *in.BloodPressure,
		Insulin:        *in.Insulin,
		BMI:            *in.BMI,
		DiabeticFamily: *in.DiabeticFamily,
		Age:            *in.Age,
	}, nil
}

// MergeOnto overlays the present fields onto base.
func (in FeatureInput) MergeOnto(base Features) Features {
	out := base
	if in.Pregnancies != nil {
		out.Pregnancies = *in.Pregnancies
	}
	if in.Glucose != nil {
		out.Glucose = *in.Glucose
	}
	if in.BloodPressure != nil {
		out.BloodPressure = *in.BloodPressure
	}
	if in.Insulin != nil {
		out.Insulin = *in.Insulin
	}
	if in.BMI != nil {
		out.BMI = *in.BMI
	}
	if in.DiabeticFamily != nil {
		out.DiabeticFamily = *in.DiabeticFamily
	}
	if in.Age != nil {
		out.Age = *in.Age
	}
	return out
}

