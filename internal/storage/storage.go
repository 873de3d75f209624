package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hongminglow/health-risk-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Uniqueness conflicts on users, both matching ErrAlreadyExists.
var (
	ErrEmailExists    = fmt.Errorf("email: %w", ErrAlreadyExists)
	ErrUsernameExists = fmt.Errorf("username: %w", ErrAlreadyExists)
)

// UserStore captures identity persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (models.User, error)
	// SetVerificationToken replaces any pending token of the user.
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	// MarkVerified sets is_verified and clears the token and its expiry.
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

// RecordStore captures health record persistence. Owner scoping is the
// caller's job; methods taking an owner also constrain on it.
type RecordStore interface {
	CreateRecord(ctx context.Context, record models.HealthRecord) (models.HealthRecord, error)
	GetRecord(ctx context.Context, id uuid.UUID) (models.HealthRecord, error)
	ListRecords(ctx context.Context, owner uuid.UUID) ([]models.HealthRecord, error)
	UpdateRecord(ctx context.Context, record models.HealthRecord) (models.HealthRecord, error)
	DeleteRecord(ctx context.Context, owner, id uuid.UUID) error
}

// Store is the full persistence surface of the service.
type Store interface {
	UserStore
	RecordStore
	Close() error
}
