package auth

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hongminglow/health-risk-be/internal/models"
)

// ErrInvalidToken covers every reason a token fails to resolve: bad signature,
// wrong algorithm, malformed payload, missing or past expiry.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and resolves HS256-signed JWTs.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and session lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the manager that reads time from now.
func (t *TokenManager) WithClock(now func() time.Time) *TokenManager {
	cp := *t
	cp.now = now
	return &cp
}

// Issue signs claims with an expiry of now+ttl. Registered time claims in the
// input are overwritten.
func (t *TokenManager) Issue(claims map[string]any, ttl time.Duration) (string, error) {
	return t.issueAt(t.now(), claims, ttl)
}

func (t *TokenManager) issueAt(now time.Time, claims map[string]any, ttl time.Duration) (string, error) {
	out := jwt.MapClaims{}
	maps.Copy(out, claims)
	if t.issuer != "" {
		out["iss"] = t.issuer
	}
	out["iat"] = now.Unix()
	out["nbf"] = now.Unix()
	out["exp"] = now.Add(ttl).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, out)
	return token.SignedString(t.secret)
}

// Resolve verifies the signature and expiry of token and returns its claims.
func (t *TokenManager) Resolve(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Generate issues a session token whose subject is the user's ID.
func (t *TokenManager) Generate(user models.User) (string, time.Time, error) {
	now := t.now()
	token, err := t.issueAt(now, map[string]any{"sub": user.ID.String()}, t.ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Unix(now.Add(t.ttl).Unix(), 0).UTC(), nil
}
