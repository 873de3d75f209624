package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/health-risk-be/internal/http/respond"
	"github.com/hongminglow/health-risk-be/internal/identity"
	"github.com/hongminglow/health-risk-be/internal/models"
)

type contextKey string

const contextUserKey contextKey = "user"

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// Bearer rejects requests without a valid "Authorization: Bearer" token and
// stores the resolved user in the request context.
func Bearer(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, identity.ErrInvalidToken) || errors.Is(err, identity.ErrIdentityNotFound) {
					respond.Error(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				slog.ErrorContext(r.Context(), "authenticate request", "error", err)
				respond.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

// UserFrom returns the user stored by Bearer.
func UserFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(contextUserKey).(models.User)
	return user, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
