package repository

import (
	"context"
	"strings"
	"time"

	"agriland/internal/model"

	"gorm.io/gorm"
)

// MissionActivity is one mission reduced to what the analytics aggregate
type MissionActivity struct {
	MissionID     string
	Status        model.MissionStatus
	ScheduledDate time.Time
	CompletedDate *time.Time
	// Region of the request the mission serves, empty when the request is gone
	Region string
	// Ph is the measured soil pH of a completed mission
	Ph *float64
}

// AnalyticsRepository defines the interface for mission activity reads
type AnalyticsRepository interface {
	MissionActivity(ctx context.Context, startDate, endDate time.Time, region string) ([]MissionActivity, error)
	YearOverYearActivity(ctx context.Context, startDate, endDate time.Time, region string, yearsBack int) ([]MissionActivity, error)
}

// analyticsRepository implements AnalyticsRepository
type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// MissionActivity returns the missions scheduled in [startDate, endDate),
// optionally limited to requests of one region (any letter case)
func (r *analyticsRepository) MissionActivity(ctx context.Context, startDate, endDate time.Time, region string) ([]MissionActivity, error) {
	db := r.db.WithContext(ctx)

	tx := db.Model(&model.Mission{}).
		Where("scheduled_date >= ? AND scheduled_date < ?", startDate.UTC(), endDate.UTC())
	if region = strings.TrimSpace(region); region != "" {
		regionRequests := r.db.Model(&model.SoilAnalysisRequest{}).
			Select("id").
			Where("LOWER(region) = ?", strings.ToLower(region))
		tx = tx.Where("request_id IN (?)", regionRequests)
	}

	var missions []model.Mission
	if err := tx.Order("scheduled_date ASC").Order("id ASC").Find(&missions).Error; err != nil {
		return nil, wrapErr("load mission activity", "mission", "", err)
	}
	if len(missions) == 0 {
		return []MissionActivity{}, nil
	}

	requestIDs := make([]string, 0, len(missions))
	seen := make(map[string]bool, len(missions))
	for _, m := range missions {
		if !seen[m.RequestID] {
			seen[m.RequestID] = true
			requestIDs = append(requestIDs, m.RequestID)
		}
	}

	var requests []model.SoilAnalysisRequest
	if err := db.Select("id", "region").Where("id IN ?", requestIDs).Find(&requests).Error; err != nil {
		return nil, wrapErr("load request regions", "request", "", err)
	}
	regions := make(map[string]string, len(requests))
	for _, req := range requests {
		regions[req.ID] = req.Region
	}

	out := make([]MissionActivity, 0, len(missions))
	for _, m := range missions {
		a := MissionActivity{
			MissionID:     m.ID,
			Status:        m.Status,
			ScheduledDate: m.ScheduledDate,
			CompletedDate: m.CompletedDate,
			Region:        regions[m.RequestID],
		}
		if m.Status == model.MissionCompleted && m.SoilMeasurement != nil {
			ph := m.SoilMeasurement.SoilParameters.Ph
			a.Ph = &ph
		}
		out = append(out, a)
	}
	return out, nil
}

// YearOverYearActivity returns the activity of the same period N years back
func (r *analyticsRepository) YearOverYearActivity(ctx context.Context, startDate, endDate time.Time, region string, yearsBack int) ([]MissionActivity, error) {
	return r.MissionActivity(ctx, startDate.AddDate(-yearsBack, 0, 0), endDate.AddDate(-yearsBack, 0, 0), region)
}
