package identity

import (
	"errors"

	"github.com/hongminglow/health-risk-be/internal/auth"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrTokenNotFound      = errors.New("verification token not found")
	ErrTokenExpired       = errors.New("verification token expired")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrTooManyRequests    = errors.New("too many verification requests")

	// ErrInvalidToken is returned for session tokens that fail to resolve.
	ErrInvalidToken = auth.ErrInvalidToken
)
