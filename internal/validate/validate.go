// Package validate checks request payloads before they reach the services.
package validate

import (
	"fmt"
	netmail "net/mail"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hongminglow/health-risk-be/internal/models"
)

// Errors collects validation failures keyed by JSON field name.
type Errors struct {
	Fields map[string][]string
}

func (e *Errors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Errors) add(field, format string, args ...any) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], fmt.Sprintf(format, args...))
}

// err returns nil when nothing was collected.
func (e *Errors) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
	letterPattern   = regexp.MustCompile(`[A-Za-z]`)
	digitPattern    = regexp.MustCompile(`\d`)
	phoneDigits     = regexp.MustCompile(`^\d{10,15}$`)
	phoneStrip      = strings.NewReplacer("-", "", " ", "", "(", "", ")", "")
)

// Signup holds the fields of a registration request.
type Signup struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	DateOfBirth time.Time
}

// ValidateSignup checks a registration request as of now.
func ValidateSignup(in Signup, now time.Time) error {
	var errs Errors

	if err := ValidateEmail(in.Email); err != nil {
		errs.add("email", "%s", err.Error())
	}
	if !usernamePattern.MatchString(in.Username) {
		errs.add("username", "must be 3-30 letters, digits or underscores")
	}
	if len(in.Password) < 8 {
		errs.add("password", "must be at least 8 characters long")
	}
	if !letterPattern.MatchString(in.Password) {
		errs.add("password", "must contain at least one letter")
	}
	if !digitPattern.MatchString(in.Password) {
		errs.add("password", "must contain at least one digit")
	}
	checkName(&errs, "first_name", in.FirstName)
	checkName(&errs, "last_name", in.LastName)
	if !phoneDigits.MatchString(phoneStrip.Replace(in.Phone)) {
		errs.add("phone_number", "must contain 10 to 15 digits")
	}
	switch {
	case in.DateOfBirth.IsZero():
		errs.add("date_of_birth", "is required")
	case !in.DateOfBirth.Before(now):
		errs.add("date_of_birth", "must be in the past")
	case in.DateOfBirth.Before(now.AddDate(-120, 0, 0)):
		errs.add("date_of_birth", "must be within the last 120 years")
	}

	return errs.err()
}

// ValidateEmail requires a bare address with a dotted domain.
func ValidateEmail(email string) error {
	addr, err := netmail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("must be a valid email address")
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return fmt.Errorf("must be a valid email address")
	}
	return nil
}

func checkName(errs *Errors, field, value string) {
	n := len([]rune(strings.TrimSpace(value)))
	if n < 1 || n > 50 {
		errs.add(field, "must be between 1 and 50 characters")
	}
}

type bound struct {
	field    string
	min, max float64
}

var featureBounds = []bound{
	{"pregnancies", 0, 20},
	{"glucose", 0, 300},
	{"blood_pressure", 0, 200},
	{"insulin", 0, 1000},
	{"bmi", 10, 70},
	{"diabetic_family", 0, 1},
	{"age", 1, 120},
}

// ValidateFeatures range-checks every present field. Absent fields are left to
// the caller, which decides whether the input must be complete.
func ValidateFeatures(in models.FeatureInput) error {
	values := []*float64{
		intPtr(in.Pregnancies),
		in.Glucose,
		in.BloodPressure,
		in.Insulin,
		in.BMI,
		intPtr(in.DiabeticFamily),
		intPtr(in.Age),
	}

	var errs Errors
	for i, v := range values {
		if v == nil {
			continue
		}
		b := featureBounds[i]
		if *v < b.min || *v > b.max {
			errs.add(b.field, "must be between %g and %g", b.min, b.max)
		}
	}
	return errs.err()
}

func intPtr(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
