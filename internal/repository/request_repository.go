package repository

import (
	"context"
	"strings"

	"agriland/internal/model"

	"gorm.io/gorm"
)

// RequestQuery filters the soil-analysis request list
type RequestQuery struct {
	Status *model.RequestStatus
	Origin *model.RequestOrigin
	Region string
	LandID string
	Search string // matches full name or email, case-insensitive
	Page   model.PageRequest
}

// RequestRepository defines the interface for soil-analysis request persistence
type RequestRepository interface {
	Create(ctx context.Context, req *model.SoilAnalysisRequest) error
	FindByID(ctx context.Context, id string) (*model.SoilAnalysisRequest, error)
	List(ctx context.Context, q RequestQuery) ([]model.SoilAnalysisRequest, int64, error)
	UpdateStatusIf(ctx context.Context, id string, from []model.RequestStatus, to model.RequestStatus) (bool, error)
	Delete(ctx context.Context, id string) error
}

// requestRepository implements RequestRepository
type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.SoilAnalysisRequest) error {
	err := r.db.WithContext(ctx).Create(req).Error
	return wrapErr("create request", "request", req.ID, err)
}

func (r *requestRepository) FindByID(ctx context.Context, id string) (*model.SoilAnalysisRequest, error) {
	var req model.SoilAnalysisRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, wrapErr("find request", "request", id, err)
	}
	return &req, nil
}

// List returns one page of requests, newest first, and the total match count
func (r *requestRepository) List(ctx context.Context, q RequestQuery) ([]model.SoilAnalysisRequest, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.SoilAnalysisRequest{})
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.Origin != nil {
		tx = tx.Where("origin = ?", *q.Origin)
	}
	if q.Region != "" {
		tx = tx.Where("region = ?", q.Region)
	}
	if q.LandID != "" {
		tx = tx.Where("land_id = ?", q.LandID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, wrapErr("count requests", "request", "", err)
	}

	page := q.Page.Normalize()
	var out []model.SoilAnalysisRequest
	err := tx.Order("created_at DESC").Order("id ASC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, wrapErr("list requests", "request", "", err)
	}
	return out, total, nil
}

// UpdateStatusIf sets the status only when the current status is one of from.
// It reports whether the row changed; false means another writer got there first.
func (r *requestRepository) UpdateStatusIf(ctx context.Context, id string, from []model.RequestStatus, to model.RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.SoilAnalysisRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, wrapErr("update request status", "request", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *requestRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.SoilAnalysisRequest{})
	if res.Error != nil {
		return wrapErr("delete request", "request", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("delete request", "request", id, gorm.ErrRecordNotFound)
	}
	return nil
}
