// Package records scores health submissions and keeps them private to their
// owner.
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/hongminglow/health-risk-be/internal/storage"
	"github.com/hongminglow/health-risk-be/internal/validate"
)

// ErrRecordNotFound is returned for missing records and for records owned by
// someone else.
var ErrRecordNotFound = errors.New("record not found")

// Scorer turns features into per-model outcomes.
type Scorer interface {
	Score(f models.Features) (models.Outcomes, error)
	ScoreInput(in models.FeatureInput) (models.Features, models.Outcomes, error)
}

// Service guards record access by owner.
type Service struct {
	store  storage.RecordStore
	scorer Scorer
	now    func() time.Time
}

// NewService wires a Service.
func NewService(store storage.RecordStore, scorer Scorer) *Service {
	return &Service{store: store, scorer: scorer, now: time.Now}
}

// CreateOptions carries optional overrides for Create.
type CreateOptions struct {
	CreatedAt *time.Time
}

// Prediction is an unsaved scoring result.
type Prediction struct {
	Features models.Features
	Outcomes models.Outcomes
}

// Predict scores a complete input without persisting it.
func (s *Service) Predict(_ context.Context, in models.FeatureInput) (Prediction, error) {
	f, outcomes, err := s.scoreInput(in)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Features: f, Outcomes: outcomes}, nil
}

// Create scores a complete input and stores it for owner.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, in models.FeatureInput, opts CreateOptions) (models.HealthRecord, error) {
	f, outcomes, err := s.scoreInput(in)
	if err != nil {
		return models.HealthRecord{}, err
	}

	now := s.now().UTC()
	createdAt := now
	if opts.CreatedAt != nil {
		createdAt = opts.CreatedAt.UTC()
	}
	rec, err := s.store.CreateRecord(ctx, models.HealthRecord{
		ID:        uuid.New(),
		UserID:    owner,
		Features:  f,
		Outcomes:  outcomes,
		CreatedAt: createdAt,
		UpdatedAt: now,
	})
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// List returns every record of owner, oldest first.
func (s *Service) List(ctx context.Context, owner uuid.UUID) ([]models.HealthRecord, error) {
	recs, err := s.store.ListRecords(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

// Get returns the record id if owner holds it.
func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (models.HealthRecord, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.HealthRecord{}, ErrRecordNotFound
		}
		return models.HealthRecord{}, fmt.Errorf("get record: %w", err)
	}
	if rec.UserID != owner {
		return models.HealthRecord{}, ErrRecordNotFound
	}
	return rec, nil
}

// Update merges the present fields of in onto the record, re-scores it and
// replaces every outcome.
func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, in models.FeatureInput) (models.HealthRecord, error) {
	if err := validate.ValidateFeatures(in); err != nil {
		return models.HealthRecord{}, err
	}
	rec, err := s.Get(ctx, owner, id)
	if err != nil {
		return models.HealthRecord{}, err
	}

	rec.Features = in.MergeOnto(rec.Features)
	if rec.Outcomes, err = s.scorer.Score(rec.Features); err != nil {
		return models.HealthRecord{}, err
	}
	rec.UpdatedAt = s.now().UTC()

	updated, err := s.store.UpdateRecord(ctx, rec)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.HealthRecord{}, ErrRecordNotFound
		}
		return models.HealthRecord{}, fmt.Errorf("update record: %w", err)
	}
	return updated, nil
}

// Delete removes the record id if owner holds it.
func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.store.DeleteRecord(ctx, owner, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// scoreInput range-checks the present fields, then scores the input, failing
// on the first absent field.
func (s *Service) scoreInput(in models.FeatureInput) (models.Features, models.Outcomes, error) {
	if err := validate.ValidateFeatures(in); err != nil {
		return models.Features{}, nil, err
	}
	return s.scorer.ScoreInput(in)
}
