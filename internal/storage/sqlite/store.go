// Package sqlite provides a SQLite-backed storage implementation for local
// development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/hongminglow/health-risk-be/internal/storage"
	"github.com/hongminglow/health-risk-be/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var _ storage.Store = (*Store)(nil)

const dateLayout = "2006-01-02"

// Store persists users and health records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := storage.Migrate(context.Background(), sqlDB, migrations.FS, "sqlite3"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const userColumns = `id, username, email, first_name, last_name, phone, date_of_birth, password_hash,
	is_verified, verification_token, verification_token_expiry, created_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	var expiry sql.NullInt64
	if user.VerificationTokenExpiry != nil {
		expiry = sql.NullInt64{Int64: toMillis(*user.VerificationTokenExpiry), Valid: true}
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID.String(), user.Username, user.Email, user.FirstName, user.LastName, user.Phone,
		user.DateOfBirth.Format(dateLayout), user.PasswordHash, user.IsVerified,
		nullString(user.VerificationToken), expiry, toMillis(user.CreatedAt))
	if err != nil {
		if field := uniqueViolation(err); field != "" {
			switch field {
			case "users.email":
				return models.User{}, storage.ErrEmailExists
			case "users.username":
				return models.User{}, storage.ErrUsernameExists
			}
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.FindByID(ctx, user.ID)
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// FindByVerificationToken fetches the user holding exactly token.
func (s *Store) FindByVerificationToken(ctx context.Context, token string) (models.User, error) {
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = ?`, token)
}

// SetVerificationToken stores a fresh token and expiry for the user.
func (s *Store) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE users SET verification_token = ?, verification_token_expiry = ? WHERE id = ?`,
		token, toMillis(expiresAt), id.String())
	if err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}
	return requireAffected(res)
}

// MarkVerified flags the user verified and clears the pending token.
func (s *Store) MarkVerified(ctx context.Context, id uuid.UUID) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE users SET is_verified = 1, verification_token = NULL, verification_token_expiry = NULL WHERE id = ?`,
		id.String())
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) queryUser(ctx context.Context, query string, args ...any) (models.User, error) {
	var (
		user      models.User
		id        string
		dob       string
		token     sql.NullString
		expiry    sql.NullInt64
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&id, &user.Username, &user.Email, &user.FirstName,
		&user.LastName, &user.Phone, &dob, &user.PasswordHash, &user.IsVerified, &token, &expiry, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	if user.ID, err = uuid.Parse(id); err != nil {
		return models.User{}, fmt.Errorf("parse user id: %w", err)
	}
	if user.DateOfBirth, err = time.Parse(dateLayout, dob); err != nil {
		return models.User{}, fmt.Errorf("parse date of birth: %w", err)
	}
	if token.Valid {
		user.VerificationToken = &token.String
	}
	if expiry.Valid {
		at := fromMillis(expiry.Int64)
		user.VerificationTokenExpiry = &at
	}
	user.CreatedAt = fromMillis(createdAt)
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
	createdAt, updatedAt := rec.CreatedAt, rec.UpdatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO health_records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.UserID.String(), rec.Pregnancies, rec.Glucose, rec.BloodPressure, rec.Insulin,
		rec.BMI, rec.DiabeticFamily, rec.Age, string(outcomes), toMillis(createdAt), toMillis(updatedAt))
	if err != nil {
		if uniqueViolation(err) != "" {
			return models.HealthRecord{}, storage.ErrAlreadyExists
		}
		return models.HealthRecord{}, fmt.Errorf("insert health record: %w", err)
	}
	return s.GetRecord(ctx, rec.ID)
}

// GetRecord fetches a record by id regardless of owner.
func (s *Store) GetRecord(ctx context.Context, id uuid.UUID) (models.HealthRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM health_records WHERE id = ?`, id.String())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.HealthRecord{}, storage.ErrNotFound
	}
	return rec, err
}

// ListRecords returns the owner's records oldest first.
func (s *Store) ListRecords(ctx context.Context, owner uuid.UUID) ([]models.HealthRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM health_records WHERE user_id = ? ORDER BY created_at ASC, id ASC`,
		owner.String())
	if err != nil {
		return nil, fmt.Errorf("list health records: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list health records: %w", err)
	}
	return records, nil
}

// UpdateRecord overwrites features and outcomes of a record owned by rec.UserID.
func (s *Store) UpdateRecord(ctx context.Context, rec models.HealthRecord) (models.HealthRecord, error) {
	outcomes, err := json.Marshal(rec.Outcomes)
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("encode outcomes: %w", err)
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	res, err := s.sqlDB.ExecContext(ctx, `UPDATE health_records
		SET pregnancies = ?, glucose = ?, blood_pressure = ?, insulin = ?, bmi = ?,
			diabetic_family = ?, age = ?, outcomes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		rec.Pregnancies, rec.Glucose, rec.BloodPressure, rec.Insulin, rec.BMI, rec.DiabeticFamily, rec.Age,
		string(outcomes), toMillis(updatedAt), rec.ID.String(), rec.UserID.String())
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("update health record: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return models.HealthRecord{}, err
	}
	return s.GetRecord(ctx, rec.ID)
}

// DeleteRecord removes a record owned by owner.
func (s *Store) DeleteRecord(ctx context.Context, owner, id uuid.UUID) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM health_records WHERE id = ? AND user_id = ?`,
		id.String(), owner.String())
	if err != nil {
		return fmt.Errorf("delete health record: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.HealthRecord, error) {
	var (
		rec                  models.HealthRecord
		id, owner, outcomes  string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &owner, &rec.Pregnancies, &rec.Glucose, &rec.BloodPressure, &rec.Insulin, &rec.BMI,
		&rec.DiabeticFamily, &rec.Age, &outcomes, &createdAt, &updatedAt); err != nil {
		return models.HealthRecord{}, err
	}
	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return models.HealthRecord{}, fmt.Errorf("parse record id: %w", err)
	}
	if rec.UserID, err = uuid.Parse(owner); err != nil {
		return models.HealthRecord{}, fmt.Errorf("parse record owner: %w", err)
	}
	if err := json.Unmarshal([]byte(outcomes), &rec.Outcomes); err != nil {
		return models.HealthRecord{}, fmt.Errorf("decode outcomes: %w", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

// uniqueViolation returns the "table.column" named by a unique constraint
// failure, or "" when err is not one.
func uniqueViolation(err error) string {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		default:
			return ""
		}
	}
	message := err.Error()
	const marker = "UNIQUE constraint failed: "
	idx := strings.Index(message, marker)
	if idx < 0 {
		if sqliteErr != nil {
			return "unknown"
		}
		return ""
	}
	field := message[idx+len(marker):]
	if end := strings.IndexAny(field, " ,)"); end >= 0 {
		field = field[:end]
	}
	return field
}
