package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func validSignup() Signup {
	return Signup{
		Username:    "ada_l",
		Email:       "ada@example.com",
		Password:    "secret123",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Phone:       "(555) 010-0123",
		DateOfBirth: time.Date(1990, time.May, 4, 0, 0, 0, 0, time.UTC),
	}
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verrs *Errors
	require.True(t, errors.As(err, &verrs), "expected *Errors, got %v", err)
	return verrs.Fields
}

func TestValidateSignupAccepts(t *testing.T) {
	require.NoError(t, ValidateSignup(validSignup(), now))
}

func TestValidateSignupRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Signup)
		field  string
	}{
		{"bad email", func(s *Signup) { s.Email = "not-an-email" }, "email"},
		{"undotted domain", func(s *Signup) { s.Email = "ada@localhost" }, "email"},
		{"display name form", func(s *Signup) { s.Email = "Ada <ada@example.com>" }, "email"},
		{"short username", func(s *Signup) { s.Username = "ab" }, "username"},
		{"username symbols", func(s *Signup) { s.Username = "ada-l" }, "username"},
		{"short password", func(s *Signup) { s.Password = "abc1" }, "password"},
		{"password without digit", func(s *Signup) { s.Password = "abcdefgh" }, "password"},
		{"password without letter", func(s *Signup) { s.Password = "12345678" }, "password"},
		{"empty first name", func(s *Signup) { s.FirstName = " " }, "first_name"},
		{"long last name", func(s *Signup) { s.LastName = string(make([]byte, 51)) }, "last_name"},
		{"short phone", func(s *Signup) { s.Phone = "555-0101" }, "phone_number"},
		{"phone letters", func(s *Signup) { s.Phone = "555010012a" }, "phone_number"},
		{"future birth date", func(s *Signup) { s.DateOfBirth = now.Add(24 * time.Hour) }, "date_of_birth"},
		{"ancient birth date", func(s *Signup) { s.DateOfBirth = now.AddDate(-121, 0, 0) }, "date_of_birth"},
		{"missing birth date", func(s *Signup) { s.DateOfBirth = time.Time{} }, "date_of_birth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validSignup()
			tt.mutate(&in)
			fields := fieldsOf(t, ValidateSignup(in, now))
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidateSignupCollectsEveryField(t *testing.T) {
	fields := fieldsOf(t, ValidateSignup(Signup{}, now))
	for _, f := range []string{"email", "username", "password", "first_name", "last_name", "phone_number", "date_of_birth"} {
		assert.Contains(t, fields, f)
	}
	assert.Len(t, fields["password"], 3)
}

func ptr[T any](v T) *T { return &v }

func TestValidateFeatures(t *testing.T) {
	in := models.FeatureInput{
		Pregnancies:    ptr(2),
		Glucose:        ptr(120.0),
		BloodPressure:  ptr(70.0),
		Insulin:        ptr(80.0),
		BMI:            ptr(28.5),
		DiabeticFamily: ptr(1),
		Age:            ptr(33),
	}
	require.NoError(t, ValidateFeatures(in))
	require.NoError(t, ValidateFeatures(models.FeatureInput{}), "absent fields are not range errors")

	in.BMI = ptr(5.0)
	in.Age = ptr(0)
	in.DiabeticFamily = ptr(2)
	fields := fieldsOf(t, ValidateFeatures(in))
	assert.Equal(t, []string{"must be between 10 and 70"}, fields["bmi"])
	assert.Contains(t, fields, "age")
	assert.Contains(t, fields, "diabetic_family")
	assert.NotContains(t, fields, "glucose")
}

func TestErrorsMessageIsSorted(t *testing.T) {
	var errs Errors
	errs.add("username", "bad")
	errs.add("email", "bad")
	assert.Equal(t, "validation failed: email: bad; username: bad", errs.Error())
}
