package repository

import (
	"context"

	"agriland/internal/model"

	"gorm.io/gorm"
)

// technicianColumns are the columns an admin edit may write.
// completed_missions is only ever changed by IncrementCompletedMissions.
var technicianColumns = []string{
	"full_name", "email", "phone", "whatsapp", "avatar", "specialization",
	"coverage_regions", "status", "notes",
}

// TechnicianRepository defines the interface for technician persistence
type TechnicianRepository interface {
	Create(ctx context.Context, t *model.Technician) error
	FindByID(ctx context.Context, id string) (*model.Technician, error)
	Find(ctx context.Context, status *model.TechnicianStatus) ([]model.Technician, error)
	Update(ctx context.Context, t *model.Technician) error
	IncrementCompletedMissions(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// technicianRepository implements TechnicianRepository
type technicianRepository struct {
	db *gorm.DB
}

// NewTechnicianRepository creates a new technician repository
func NewTechnicianRepository(db *gorm.DB) TechnicianRepository {
	return &technicianRepository{db: db}
}

func (r *technicianRepository) Create(ctx context.Context, t *model.Technician) error {
	err := r.db.WithContext(ctx).Create(t).Error
	return wrapErr("create technician", "technician", t.ID, err)
}

func (r *technicianRepository) FindByID(ctx context.Context, id string) (*model.Technician, error) {
	var t model.Technician
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, wrapErr("find technician", "technician", id, err)
	}
	return &t, nil
}

// Find returns technicians ordered by name, optionally restricted to one status
func (r *technicianRepository) Find(ctx context.Context, status *model.TechnicianStatus) ([]model.Technician, error) {
	tx := r.db.WithContext(ctx).Model(&model.Technician{})
	if status != nil {
		tx = tx.Where("status = ?", *status)
	}
	var out []model.Technician
	if err := tx.Order("full_name ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, wrapErr("find technicians", "technician", "", err)
	}
	return out, nil
}

// Update writes the admin-editable columns of t
func (r *technicianRepository) Update(ctx context.Context, t *model.Technician) error {
	values := *t
	values.ID = ""
	res := r.db.WithContext(ctx).Model(&model.Technician{}).Where("id = ?", t.ID).
		Select(technicianColumns).Updates(&values)
	if res.Error != nil {
		return wrapErr("update technician", "technician", t.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("update technician", "technician", t.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// IncrementCompletedMissions adds one to the counter in a single statement
func (r *technicianRepository) IncrementCompletedMissions(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.Technician{}).Where("id = ?", id).
		Update("completed_missions", gorm.Expr("completed_missions + ?", 1))
	if res.Error != nil {
		return wrapErr("increment completed missions", "technician", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("increment completed missions", "technician", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *technicianRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Technician{})
	if res.Error != nil {
		return wrapErr("delete technician", "technician", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("delete technician", "technician", id, gorm.ErrRecordNotFound)
	}
	return nil
}
