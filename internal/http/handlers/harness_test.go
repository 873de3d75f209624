package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hongminglow/health-risk-be/internal/auth"
	"github.com/hongminglow/health-risk-be/internal/identity"
	"github.com/hongminglow/health-risk-be/internal/mail"
	"github.com/hongminglow/health-risk-be/internal/middleware"
	"github.com/hongminglow/health-risk-be/internal/records"
	"github.com/hongminglow/health-risk-be/internal/risk"
	"github.com/hongminglow/health-risk-be/internal/storage"
	"github.com/hongminglow/health-risk-be/internal/storage/sqlite"
	"github.com/hongminglow/health-risk-be/internal/throttle"
	"github.com/stretchr/testify/require"
)

// capturingSender remembers the last token mailed to each address.
type capturingSender struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (c *capturingSender) SendVerification(_ context.Context, to, _, token string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		c.tokens = make(map[string]string)
	}
	c.tokens[to] = token
	return mail.BuildLink("http://front.test", token)
}

func (c *capturingSender) token(to string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens[to]
}

type harness struct {
	url    string
	mail   *capturingSender
	models []string
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func openSQLite(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newHarness(t *testing.T, store storage.Store) *harness {
	t.Helper()
	reg, err := risk.Load(context.Background(), "../../../models/registry.yaml", risk.S3Options{})
	require.NoError(t, err)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	sender := &capturingSender{}
	tokens := auth.NewTokenManager("handler-test-secret", "health-risk-test", 30*time.Minute)
	ids := identity.NewService(store, tokens, sender, identity.Options{
		Resend: throttle.NewMemory(2, time.Hour),
		Logger: quiet,
	})
	recs := records.NewService(store, risk.New(reg))

	r := chi.NewRouter()
	r.Use(chimw.StripSlashes)
	authed := middleware.Bearer(ids)
	NewHealthHandler(time.Now(), reg.Names()).Routes(r)
	NewAuthHandler(ids).Routes(r, authed)
	NewRecordHandler(recs).Routes(r, authed)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return &harness{url: ts.URL, mail: sender, models: reg.Names()}
}

// do sends body as JSON (raw strings are sent verbatim) and decodes the envelope.
func (h *harness) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.url+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.Equal(t, resp.StatusCode, env.Code)
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func signupBody(username, email string) map[string]any {
	return map[string]any{
		"username":      username,
		"email":         email,
		"password":      "secret123",
		"first_name":    "Ada",
		"last_name":     "Lovelace",
		"phone_number":  "555-010-0123",
		"date_of_birth": "1990-05-04",
	}
}

func sampleFeatures() map[string]any {
	return map[string]any{
		"pregnancies":     2,
		"glucose":         148,
		"blood_pressure":  72,
		"insulin":         94,
		"bmi":             33.6,
		"diabetic_family": 1,
		"age":             50,
	}
}

// verifiedLogin signs a user up, verifies them and returns a bearer token.
func (h *harness) verifiedLogin(t *testing.T, username, email string) string {
	t.Helper()
	status, _ := h.do(t, http.MethodPost, "/auth/signup", "", signupBody(username, email))
	require.Equal(t, http.StatusCreated, status)
	return h.verifiedLoginExisting(t, username, email)
}
