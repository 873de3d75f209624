package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/hongminglow/health-risk-be/internal/storage"
)

// VerificationDelivery reports what happened to the verification email.
type VerificationDelivery struct {
	Link      string
	EmailSent bool
}

// VerifyResult is the outcome of consuming a verification token.
type VerifyResult struct {
	User            models.User
	AlreadyVerified bool
}

func newVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IssueVerification replaces any pending token of user with a fresh one and
// emails it.
func (s *Service) IssueVerification(ctx context.Context, user models.User) (VerificationDelivery, error) {
	token, err := newVerificationToken()
	if err != nil {
		return VerificationDelivery{}, err
	}
	expiresAt := s.now().UTC().Add(s.verificationTTL)
	if err := s.users.SetVerificationToken(ctx, user.ID, token, expiresAt); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return VerificationDelivery{}, ErrIdentityNotFound
		}
		return VerificationDelivery{}, fmt.Errorf("store verification token: %w", err)
	}
	return s.deliver(ctx, user, token), nil
}

func (s *Service) deliver(ctx context.Context, user models.User, token string) VerificationDelivery {
	link, err := s.mailer.SendVerification(ctx, user.Email, user.DisplayName(), token)
	if err != nil {
		s.logger.Warn("verification email failed", "user_id", user.ID, "error", err)
		return VerificationDelivery{Link: link}
	}
	return VerificationDelivery{Link: link, EmailSent: true}
}

// ConsumeVerification marks the holder of token verified. Consuming a token
// of an already verified user succeeds without changes. Expired tokens are
// left in place.
func (s *Service) ConsumeVerification(ctx context.Context, token string) (VerifyResult, error) {
	if token == "" {
		return VerifyResult{}, ErrTokenNotFound
	}
	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return VerifyResult{}, ErrTokenNotFound
		}
		return VerifyResult{}, fmt.Errorf("lookup verification token: %w", err)
	}
	if user.IsVerified {
		return VerifyResult{User: user, AlreadyVerified: true}, nil
	}
	if user.VerificationTokenExpiry == nil || s.now().After(*user.VerificationTokenExpiry) {
		return VerifyResult{}, ErrTokenExpired
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return VerifyResult{}, fmt.Errorf("mark verified: %w", err)
	}

	user.IsVerified = true
	user.VerificationToken = nil
	user.VerificationTokenExpiry = nil
	s.logger.Info("email verified", "user_id", user.ID)
	return VerifyResult{User: user}, nil
}

// ResendVerification issues a new token to the unverified owner of email.
func (s *Service) ResendVerification(ctx context.Context, email string) (VerificationDelivery, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return VerificationDelivery{}, ErrIdentityNotFound
		}
		return VerificationDelivery{}, fmt.Errorf("lookup user: %w", err)
	}
	if user.IsVerified {
		return VerificationDelivery{}, ErrAlreadyVerified
	}
	allowed, err := s.resend.Allow(ctx, user.ID.String())
	if err != nil {
		return VerificationDelivery{}, err
	}
	if !allowed {
		return VerificationDelivery{}, ErrTooManyRequests
	}
	return s.IssueVerification(ctx, user)
}
