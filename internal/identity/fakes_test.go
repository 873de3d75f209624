package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/hongminglow/health-risk-be/internal/storage"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]models.User)}
}

func (m *memUsers) CreateUser(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return models.User{}, storage.ErrEmailExists
		}
		if u.Username == user.Username {
			return models.User{}, storage.ErrUsernameExists
		}
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) find(match func(models.User) bool) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (models.User, error) {
	return m.find(func(u models.User) bool { return u.ID == id })
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.Username == username })
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == email })
}

func (m *memUsers) FindByVerificationToken(_ context.Context, token string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.VerificationToken != nil && *u.VerificationToken == token })
}

func (m *memUsers) SetVerificationToken(_ context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.VerificationToken = &token
	u.VerificationTokenExpiry = &expiresAt
	m.users[id] = u
	return nil
}

func (m *memUsers) MarkVerified(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.IsVerified = true
	u.VerificationToken = nil
	u.VerificationTokenExpiry = nil
	m.users[id] = u
	return nil
}

// sentMail records verification emails and hands back a predictable link.
type sentMail struct {
	mu     sync.Mutex
	tokens map[string]string
	err    error
}

func newSentMail() *sentMail {
	return &sentMail{tokens: make(map[string]string)}
}

func (s *sentMail) SendVerification(_ context.Context, to, _, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link := "http://front/verify-email?token=" + token
	if s.err != nil {
		return link, s.err
	}
	s.tokens[to] = token
	return link, nil
}

func (s *sentMail) last(to string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[to]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
