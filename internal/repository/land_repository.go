package repository

import (
	"context"

	"agriland/internal/filter"
	"agriland/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LandQuery selects lands. Scalar predicates of Filters are evaluated by the
// database; soil and crop predicates are left to filter.Apply.
type LandQuery struct {
	Filters filter.LandFilters
	IDs     []string
	OwnerID string
}

// LandRepository defines the interface for land persistence
type LandRepository interface {
	Create(ctx context.Context, land *model.Land) error
	Upsert(ctx context.Context, lands []model.Land) error
	FindByID(ctx context.Context, id string) (*model.Land, error)
	Find(ctx context.Context, q LandQuery) ([]model.Land, error)
	Patch(ctx context.Context, id string, values *model.Land, columns ...string) error
	UpdateStatusIf(ctx context.Context, id string, from []model.LandStatus, to model.LandStatus) (bool, error)
	Delete(ctx context.Context, id string) error
}

// landRepository implements LandRepository
type landRepository struct {
	db *gorm.DB
}

// NewLandRepository creates a new land repository
func NewLandRepository(db *gorm.DB) LandRepository {
	return &landRepository{db: db}
}

func (r *landRepository) Create(ctx context.Context, land *model.Land) error {
	if err := r.db.WithContext(ctx).Create(land).Error; err != nil {
		return wrapErr("create land", "land", land.ID, err)
	}
	land.Derive()
	return nil
}

// Upsert inserts lands, replacing every column of rows whose id already exists
func (r *landRepository) Upsert(ctx context.Context, lands []model.Land) error {
	if len(lands) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&lands).Error
	return wrapErr("upsert lands", "land", "", err)
}

func (r *landRepository) FindByID(ctx context.Context, id string) (*model.Land, error) {
	var land model.Land
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&land).Error; err != nil {
		return nil, wrapErr("find land", "land", id, err)
	}
	return &land, nil
}

// Find returns the lands matching q, newest first
func (r *landRepository) Find(ctx context.Context, q LandQuery) ([]model.Land, error) {
	tx := r.db.WithContext(ctx).Model(&model.Land{})

	f := q.Filters
	if f.Type != nil {
		tx = tx.Where("type = ?", *f.Type)
	}
	if f.Status != nil {
		tx = tx.Where("status = ?", *f.Status)
	}
	if f.Region != nil {
		tx = tx.Where("address_region = ?", *f.Region)
	}
	if f.MinSurface != nil {
		tx = tx.Where("surface >= ?", *f.MinSurface)
	}
	if f.MaxSurface != nil {
		tx = tx.Where("surface <= ?", *f.MaxSurface)
	}
	if f.MinPrice != nil {
		tx = tx.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		tx = tx.Where("price <= ?", *f.MaxPrice)
	}
	if len(q.IDs) > 0 {
		tx = tx.Where("id IN ?", q.IDs)
	}
	if q.OwnerID != "" {
		tx = tx.Where("owner_id = ?", q.OwnerID)
	}

	var lands []model.Land
	if err := tx.Order("created_at DESC").Order("id ASC").Find(&lands).Error; err != nil {
		return nil, wrapErr("find lands", "land", "", err)
	}
	return filter.Apply(lands, f), nil
}

// Patch writes only the named columns of values onto the land with id.
// Columns that are not named keep whatever a concurrent writer stored.
func (r *landRepository) Patch(ctx context.Context, id string, values *model.Land, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.Land{}).Where("id = ?", id).Select(columns).Updates(values)
	if res.Error != nil {
		return wrapErr("patch land", "land", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("patch land", "land", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// UpdateStatusIf sets the status only when the current status is one of from.
// It reports whether the row changed.
func (r *landRepository) UpdateStatusIf(ctx context.Context, id string, from []model.LandStatus, to model.LandStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Land{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, wrapErr("update land status", "land", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *landRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Land{})
	if res.Error != nil {
		return wrapErr("delete land", "land", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("delete land", "land", id, gorm.ErrRecordNotFound)
	}
	return nil
}
