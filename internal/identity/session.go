package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hongminglow/health-risk-be/internal/auth"
	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/hongminglow/health-risk-be/internal/storage"
)

// Session is a bearer token handed out on login.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        models.User
}

// Login checks credentials for an email or username. Unverified users are
// only told so after their password matched.
func (s *Service) Login(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.findLoginUser(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return Session{}, ErrNotVerified
	}

	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}
	return Session{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt, User: user}, nil
}

// findLoginUser matches the identifier against the stored, folded email first
// and falls back to the exact username.
func (s *Service) findLoginUser(ctx context.Context, identifier string) (models.User, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(identifier))
	if err == nil || !errors.Is(err, storage.ErrNotFound) {
		return user, err
	}
	return s.users.FindByUsername(ctx, identifier)
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.Resolve(token)
	if err != nil {
		return models.User{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return models.User{}, ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return models.User{}, ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrIdentityNotFound
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
