// Package identity registers users, verifies their email addresses and issues
// session tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hongminglow/health-risk-be/internal/auth"
	"github.com/hongminglow/health-risk-be/internal/mail"
	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/hongminglow/health-risk-be/internal/storage"
	"github.com/hongminglow/health-risk-be/internal/throttle"
	"github.com/hongminglow/health-risk-be/internal/validate"
	"golang.org/x/text/cases"
)

// DefaultVerificationTTL is how long a verification link stays valid.
const DefaultVerificationTTL = 24 * time.Hour

// Options tunes a Service. Zero values select defaults.
type Options struct {
	VerificationTTL time.Duration
	Resend          throttle.Limiter
	Logger          *slog.Logger
	Now             func() time.Time
}

// Service owns the identity lifecycle.
type Service struct {
	users           storage.UserStore
	tokens          *auth.TokenManager
	mailer          mail.Sender
	resend          throttle.Limiter
	verificationTTL time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// NewService wires a Service.
func NewService(users storage.UserStore, tokens *auth.TokenManager, mailer mail.Sender, opts Options) *Service {
	s := &Service{
		users:           users,
		tokens:          tokens,
		mailer:          mailer,
		resend:          opts.Resend,
		verificationTTL: opts.VerificationTTL,
		logger:          opts.Logger,
		now:             opts.Now,
	}
	if s.resend == nil {
		s.resend = throttle.Unlimited{}
	}
	if s.verificationTTL <= 0 {
		s.verificationTTL = DefaultVerificationTTL
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RegisterInput is a signup request.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	DateOfBirth time.Time
}

// Registration is the outcome of a successful signup.
type Registration struct {
	User     models.User
	Delivery VerificationDelivery
}

// NormalizeEmail trims and case-folds an email address.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// Register validates the request, rejects taken emails before taken usernames,
// stores the unverified user and sends the verification email. A failed
// delivery does not undo the registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Registration, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)

	now := s.now().UTC()
	if err := validate.ValidateSignup(validate.Signup{
		Username:    in.Username,
		Email:       in.Email,
		Password:    in.Password,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Phone:       in.Phone,
		DateOfBirth: in.DateOfBirth,
	}, now); err != nil {
		return Registration{}, err
	}

	if err := s.ensureFree(ctx, s.users.FindByEmail, in.Email, ErrDuplicateEmail); err != nil {
		return Registration{}, err
	}
	if err := s.ensureFree(ctx, s.users.FindByUsername, in.Username, ErrDuplicateUsername); err != nil {
		return Registration{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Registration{}, fmt.Errorf("hash password: %w", err)
	}
	token, err := newVerificationToken()
	if err != nil {
		return Registration{}, err
	}
	expiresAt := now.Add(s.verificationTTL)

	created, err := s.users.CreateUser(ctx, models.User{
		ID:                      uuid.New(),
		Username:                in.Username,
		Email:                   in.Email,
		FirstName:               in.FirstName,
		LastName:                in.LastName,
		Phone:                   in.Phone,
		DateOfBirth:             in.DateOfBirth,
		PasswordHash:            hash,
		VerificationToken:       &token,
		VerificationTokenExpiry: &expiresAt,
		CreatedAt:               now,
	})
	switch {
	case errors.Is(err, storage.ErrEmailExists):
		return Registration{}, ErrDuplicateEmail
	case errors.Is(err, storage.ErrUsernameExists):
		return Registration{}, ErrDuplicateUsername
	case err != nil:
		return Registration{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", created.ID)
	return Registration{User: created, Delivery: s.deliver(ctx, created, token)}, nil
}

func (s *Service) ensureFree(ctx context.Context, find func(context.Context, string) (models.User, error), key string, taken error) error {
	_, err := find(ctx, key)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, storage.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup user: %w", err)
	}
}
