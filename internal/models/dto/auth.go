package dto

import (
	"strings"
	"time"

	"github.com/hongminglow/health-risk-be/internal/models"
)

// Date accepts "2006-01-02" or RFC 3339 and renders as "2006-01-02".
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	y, m, day := t.Date()
	d.Time = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	PhoneNumber string `json:"phone_number"`
	DateOfBirth Date   `json:"date_of_birth"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type ResendRequest struct {
	Email string `json:"email"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID          string    `json:"user_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone_number"`
	DateOfBirth Date      `json:"date_of_birth"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		DateOfBirth: Date{u.DateOfBirth},
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
	}
}

type SignupResponse struct {
	User             UserResponse `json:"user"`
	VerificationLink string       `json:"verification_link,omitempty"`
	EmailSent        bool         `json:"email_sent"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

type VerifyResponse struct {
	AlreadyVerified bool         `json:"already_verified"`
	User            UserResponse `json:"user"`
}

type ResendResponse struct {
	VerificationLink string `json:"verification_link,omitempty"`
	EmailSent        bool   `json:"email_sent"`
}
