package repository

import (
	"context"
	"time"

	"agriland/internal/model"

	"gorm.io/gorm"
)

// MissionQuery filters the mission list
type MissionQuery struct {
	Status       *model.MissionStatus
	TechnicianID string
	RequestID    string
	Page         model.PageRequest
}

// MissionRepository defines the interface for mission persistence
type MissionRepository interface {
	Create(ctx context.Context, m *model.Mission) error
	FindByID(ctx context.Context, id string) (*model.Mission, error)
	List(ctx context.Context, q MissionQuery) ([]model.Mission, int64, error)
	FindActiveByRequest(ctx context.Context, requestID string) (*model.Mission, error)
	CountByTechnician(ctx context.Context, technicianID string) (int64, error)
	FindOrphaned(ctx context.Context) ([]model.Mission, error)
	FindOverdue(ctx context.Context, before time.Time) ([]model.Mission, error)
	Patch(ctx context.Context, id string, values *model.Mission, columns ...string) error
	UpdateStatusIf(ctx context.Context, id string, from []model.MissionStatus, to model.MissionStatus) (bool, error)
	Delete(ctx context.Context, id string) error
}

// missionRepository implements MissionRepository
type missionRepository struct {
	db *gorm.DB
}

// NewMissionRepository creates a new mission repository
func NewMissionRepository(db *gorm.DB) MissionRepository {
	return &missionRepository{db: db}
}

func (r *missionRepository) Create(ctx context.Context, m *model.Mission) error {
	err := r.db.WithContext(ctx).Create(m).Error
	return wrapErr("create mission", "mission", m.ID, err)
}

func (r *missionRepository) FindByID(ctx context.Context, id string) (*model.Mission, error) {
	var m model.Mission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, wrapErr("find mission", "mission", id, err)
	}
	return &m, nil
}

// List returns one page of missions ordered by scheduled date, and the total match count
func (r *missionRepository) List(ctx context.Context, q MissionQuery) ([]model.Mission, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Mission{})
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.TechnicianID != "" {
		tx = tx.Where("technician_id = ?", q.TechnicianID)
	}
	if q.RequestID != "" {
		tx = tx.Where("request_id = ?", q.RequestID)
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, wrapErr("count missions", "mission", "", err)
	}

	page := q.Page.Normalize()
	var out []model.Mission
	err := tx.Order("scheduled_date DESC").Order("id ASC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, wrapErr("list missions", "mission", "", err)
	}
	return out, total, nil
}

// FindActiveByRequest returns the assigned or in-progress mission of a request, or nil
func (r *missionRepository) FindActiveByRequest(ctx context.Context, requestID string) (*model.Mission, error) {
	var out []model.Mission
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND status IN ?", requestID, model.ActiveMissionStatuses).
		Limit(1).Find(&out).Error
	if err != nil {
		return nil, wrapErr("find active mission", "mission", "", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *missionRepository) CountByTechnician(ctx context.Context, technicianID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Mission{}).Where("technician_id = ?", technicianID).Count(&n).Error
	if err != nil {
		return 0, wrapErr("count technician missions", "mission", "", err)
	}
	return n, nil
}

// FindOrphaned returns missions whose request no longer exists
func (r *missionRepository) FindOrphaned(ctx context.Context) ([]model.Mission, error) {
	var out []model.Mission
	err := r.db.WithContext(ctx).
		Joins("LEFT JOIN soil_analysis_requests ON soil_analysis_requests.id = missions.request_id").
		Where("soil_analysis_requests.id IS NULL").
		Order("missions.created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, wrapErr("find orphaned missions", "mission", "", err)
	}
	return out, nil
}

// FindOverdue returns missions still assigned whose scheduled date is before the given time
func (r *missionRepository) FindOverdue(ctx context.Context, before time.Time) ([]model.Mission, error) {
	var out []model.Mission
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_date < ?", model.MissionAssigned, before).
		Order("scheduled_date ASC").
		Find(&out).Error
	if err != nil {
		return nil, wrapErr("find overdue missions", "mission", "", err)
	}
	return out, nil
}

// Patch writes only the named columns of values onto the mission with id
func (r *missionRepository) Patch(ctx context.Context, id string, values *model.Mission, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.Mission{}).Where("id = ?", id).Select(columns).Updates(values)
	if res.Error != nil {
		return wrapErr("patch mission", "mission", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("patch mission", "mission", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// UpdateStatusIf sets the status only when the current status is one of from
func (r *missionRepository) UpdateStatusIf(ctx context.Context, id string, from []model.MissionStatus, to model.MissionStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Mission{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, wrapErr("update mission status", "mission", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *missionRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Mission{})
	if res.Error != nil {
		return wrapErr("delete mission", "mission", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("delete mission", "mission", id, gorm.ErrRecordNotFound)
	}
	return nil
}
