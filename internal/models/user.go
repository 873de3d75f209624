package models

import (
	"time"

	"github.com/google/uuid"
)

// User captures application-facing fields for a registered identity.
type User struct {
	ID                      uuid.UUID  `json:"user_id"`
	Username                string     `json:"username"`
	Email                   string     `json:"email"`
	FirstName               string     `json:"first_name"`
	LastName                string     `json:"last_name"`
	Phone                   string     `json:"phone_number"`
	DateOfBirth             time.Time  `json:"date_of_birth"`
	PasswordHash            string     `json:"-"`
	IsVerified              bool       `json:"is_verified"`
	VerificationToken       *string    `json:"-"`
	VerificationTokenExpiry *time.Time `json:"-"`
	CreatedAt               time.Time  `json:"created_at"`
}

// DisplayName is the name used when addressing the user in outbound mail.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
