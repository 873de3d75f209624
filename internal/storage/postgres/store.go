package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/hongminglow/health-risk-be/internal/storage"
	"github.com/hongminglow/health-risk-be/internal/storage/postgres/migrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for users and health records.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if err := migrate(ctx, databaseURL); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func migrate(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()
	return storage.Migrate(ctx, db, migrations.FS, "postgres")
}

const userColumns = `id, username, email, first_name, last_name, phone, date_of_birth, password_hash,
	is_verified, verification_token, verification_token_expiry, created_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
		INSERT INTO users (id, username, email, first_name, last_name, phone, date_of_birth, password_hash,
			is_verified, verification_token, verification_token_expiry)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.Phone, user.DateOfBirth,
		user.PasswordHash, user.IsVerified, user.VerificationToken, user.VerificationTokenExpiry)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return models.User{}, storage.ErrEmailExists
			case "users_username_key":
				return models.User{}, storage.ErrUsernameExists
			}
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByVerificationToken fetches the user holding exactly token.
func (s *Store) FindByVerificationToken(ctx context.Context, token string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token)
	return scanUser(row)
}

// SetVerificationToken stores a fresh token and expiry for the user.
func (s *Store) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET verification_token = $2, verification_token_expiry = $3 WHERE id = $1`,
		id, token, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkVerified flags the user verified and clears the pending token.
func (s *Store) MarkVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_verified = TRUE, verification_token = NULL, verification_token_expiry = NULL WHERE id = $1`,
		id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName, &user.Phone,
		&user.DateOfBirth, &user.PasswordHash, &user.IsVerified, &user.VerificationToken,
		&user.VerificationTokenExpiry, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

const recordColumns = `id, user_id, pregnancies, glucose, blood_pressure, insulin, bmi, diabetic_family, age,
	outcomes, created_at, updated_at`

// CreateRecord inserts a scored health record.
func (s *Store) CreateRecord(ctx context.Context, rec models.HealthRecord) (models.HealthRecord, error) {
	outcomes, err := json.Marshal(rec.Outcomes)
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("encode outcomes: %w", err)
	}
	query := `
		INSERT INTO health_records (id, user_id, pregnancies, glucose, blood_pressure, insulin, bmi,
			diabetic_family, age, outcomes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + recordColumns
	row := s.pool.QueryRow(ctx, query,
		rec.ID, rec.UserID, rec.Pregnancies, rec.Glucose, rec.BloodPressure, rec.Insulin, rec.BMI,
		rec.DiabeticFamily, rec.Age, outcomes, rec.CreatedAt, rec.UpdatedAt)
	return scanRecord(row)
}

// GetRecord fetches a record by id regardless of owner.
func (s *Store) GetRecord(ctx context.Context, id uuid.UUID) (models.HealthRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM health_records WHERE id = $1`, id)
	return scanRecord(row)
}

// ListRecords returns the owner's records oldest first.
func (s *Store) ListRecords(ctx context.Context, owner uuid.UUID) ([]models.HealthRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM health_records WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.HealthRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateRecord overwrites features and outcomes of a record owned by rec.UserID.
func (s *Store) UpdateRecord(ctx context.Context, rec models.HealthRecord) (models.HealthRecord, error) {
	outcomes, err := json.Marshal(rec.Outcomes)
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("encode outcomes: %w", err)
	}
	query := `
		UPDATE health_records
		SET pregnancies = $3, glucose = $4, blood_pressure = $5, insulin = $6, bmi = $7,
			diabetic_family = $8, age = $9, outcomes = $10, updated_at = $11
		WHERE id = $1 AND user_id = $2
		RETURNING ` + recordColumns
	row := s.pool.QueryRow(ctx, query,
		rec.ID, rec.UserID, rec.Pregnancies, rec.Glucose, rec.BloodPressure, rec.Insulin, rec.BMI,
		rec.DiabeticFamily, rec.Age, outcomes, rec.UpdatedAt)
	return scanRecord(row)
}

// DeleteRecord removes a record owned by owner.
func (s *Store) DeleteRecord(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM health_records WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (models.HealthRecord, error) {
	var (
		rec      models.HealthRecord
		outcomes []byte
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Pregnancies, &rec.Glucose, &rec.BloodPressure, &rec.Insulin,
		&rec.BMI, &rec.DiabeticFamily, &rec.Age, &outcomes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.HealthRecord{}, storage.ErrNotFound
		}
		return models.HealthRecord{}, err
	}
	if err := json.Unmarshal(outcomes, &rec.Outcomes); err != nil {
		return models.HealthRecord{}, fmt.Errorf("decode outcomes: %w", err)
	}
	return rec, nil
}
