package identity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hongminglow/health-risk-be/internal/auth"
	"github.com/hongminglow/health-risk-be/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginWithFoldedEmail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	verifiedUser(t, f, "strasse", "Straße@example.com")

	for _, identifier := range []string{"Straße@example.com", "STRASSE@example.com", "strasse"} {
		s, err := f.svc.Login(ctx, identifier, "secret123")
		require.NoError(t, err, identifier)
		assert.Equal(t, "strasse", s.User.Username)
	}
}

func TestLoginNonASCIIEmailOnSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sent := newSentMail()
	tokens := auth.NewTokenManager("test-secret", "health-risk", 30*time.Minute)
	svc := NewService(store, tokens, sent, Options{})

	users := []struct {
		username string
		email    string
	}{
		{"strasse", "Straße@example.com"},
		{"omer", "Ömer@example.com"},
		{"bob", "Bob@Example.com"},
	}
	for _, tc := range users {
		reg, err := svc.Register(ctx, signup(tc.username, tc.email))
		require.NoError(t, err, tc.email)
		_, err = svc.ConsumeVerification(ctx, sent.last(reg.User.Email))
		require.NoError(t, err, tc.email)
	}

	for _, tc := range users {
		s, err := svc.Login(ctx, tc.email, "secret123")
		require.NoError(t, err, tc.email)
		assert.Equal(t, tc.username, s.User.Username)
	}
}
