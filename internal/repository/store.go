package repository

import (
	"context"
	"errors"
	"strings"

	"agriland/internal/apperr"
	"agriland/internal/model"

	"gorm.io/gorm"
)

// Store groups the repositories sharing one database handle
type Store struct {
	db          *gorm.DB
	Lands       LandRepository
	Requests    RequestRepository
	Technicians TechnicianRepository
	Missions    MissionRepository
	Analytics   AnalyticsRepository
}

// NewStore creates a store whose repositories all use db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Lands:       NewLandRepository(db),
		Requests:    NewRequestRepository(db),
		Technicians: NewTechnicianRepository(db),
		Missions:    NewMissionRepository(db),
		Analytics:   NewAnalyticsRepository(db),
	}
}

// DB returns the underlying gorm handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn with repositories bound to a single database transaction.
// Any error returned by fn rolls back every write made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// AutoMigrate creates or updates the tables of every entity
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Land{},
		&model.SoilAnalysisRequest{},
		&model.Technician{},
		&model.Mission{},
	)
}

// wrapErr classifies a gorm error. Missing rows become not-found for entity/id,
// errors already classified pass through, anything else is a store failure.
func wrapErr(op, entity, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
		return apperr.Conflict("%s already exists", entity)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Unavailable(op, err)
}

// isDuplicate recognizes unique violations from drivers that do not translate them
func isDuplicate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
