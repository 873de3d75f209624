package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/hongminglow/health-risk-be/internal/models/dto"
	"github.com/hongminglow/health-risk-be/internal/storage/postgres"
)

// TestAuthIntegration runs the signup, verify, login and record flow against a live Postgres.
func TestAuthIntegration(t *testing.T) {
	if os.Getenv("RUN_AUTH_INTEGRATION") != "true" {
		t.Skip("set RUN_AUTH_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dbURL)
	require.NoError(t, err, "init store")
	t.Cleanup(func() { _ = store.Close() })

	h := newHarness(t, store)

	username := fmt.Sprintf("apitest_%d", time.Now().UnixNano())
	email := fmt.Sprintf("%s@example.com", username)

	status, env := h.do(t, http.MethodPost, "/auth/signup", "", signupBody(username, email))
	require.Equal(t, http.StatusCreated, status)
	user := decode[dto.SignupResponse](t, env.Data).User
	assert.Equal(t, username, user.Username)
	assert.Equal(t, email, user.Email)

	status, _ = h.do(t, http.MethodPost, "/auth/login", "", map[string]string{"identifier": username, "password": "secret123"})
	assert.Equal(t, http.StatusForbidden, status)

	token := h.verifiedLoginExisting(t, username, email)

	status, env = h.do(t, http.MethodPost, "/records", token, sampleFeatures())
	require.Equal(t, http.StatusCreated, status)
	rec := decode[models.HealthRecord](t, env.Data)

	status, env = h.do(t, http.MethodGet, "/records/"+rec.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, rec.Outcomes, decode[models.HealthRecord](t, env.Data).Outcomes)

	status, _ = h.do(t, http.MethodDelete, "/records/"+rec.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, status)

	t.Logf("created user %s (id=%s), verified, logged in and round-tripped a record", username, user.ID)
}

func (h *harness) verifiedLoginExisting(t *testing.T, username, email string) string {
	t.Helper()
	status, _ := h.do(t, http.MethodGet, "/auth/verify-email?token="+h.mail.token(email), "", nil)
	require.Equal(t, http.StatusOK, status)
	status, env := h.do(t, http.MethodPost, "/auth/login", "", map[string]string{"identifier": username, "password": "secret123"})
	require.Equal(t, http.StatusOK, status)
	return decode[dto.LoginResponse](t, env.Data).AccessToken
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
