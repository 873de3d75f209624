package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/hongminglow/health-risk-be/internal/auth"
	"github.com/hongminglow/health-risk-be/internal/config"
	"github.com/hongminglow/health-risk-be/internal/identity"
	"github.com/hongminglow/health-risk-be/internal/mail"
	"github.com/hongminglow/health-risk-be/internal/records"
	"github.com/hongminglow/health-risk-be/internal/risk"
	"github.com/hongminglow/health-risk-be/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reg, err := risk.Load(context.Background(), "../../models/registry.yaml", risk.S3Options{})
	require.NoError(t, err)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ids := identity.NewService(store,
		auth.NewTokenManager("server-test", "", 30*time.Minute),
		mail.NewSendGridSender(mail.SendGridConfig{FrontendURL: "http://front.test"}, quiet),
		identity.Options{Logger: quiet})

	return NewHandler([]string{"http://front.test"}, Deps{
		Identity:      ids,
		Authenticator: ids,
		Records:       records.NewService(store, risk.New(reg)),
		Models:        reg.Names(),
		Logger:        quiet,
	})
}

func TestRoutes(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/health/", http.StatusOK},
		{http.MethodGet, "/records", http.StatusUnauthorized},
		{http.MethodGet, "/records/", http.StatusUnauthorized},
		{http.MethodGet, "/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/auth/verify-email?token=nope", http.StatusBadRequest},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
		{http.MethodDelete, "/predict", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPreflight(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/records", nil)
	req.Header.Set("Origin", "http://front.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://front.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewUsesConfiguredAddress(t *testing.T) {
	srv := New(config.Config{Port: "9999"}, Deps{})
	assert.Equal(t, ":9999", srv.inner.Addr)
}
