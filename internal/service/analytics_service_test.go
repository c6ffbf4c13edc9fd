package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"agriland/internal/apperr"
	"agriland/internal/model"
	"agriland/internal/repository"
)

// TestCalculateChangePercent tests the calculateChangePercent function
func TestCalculateChangePercent(t *testing.T) {
	tests := []struct {
		name           string
		current        float64
		previous       float64
		expectedResult float64
	}{
		{name: "positive change", current: 110.0, previous: 100.0, expectedResult: 10.0},
		{name: "negative change", current: 90.0, previous: 100.0, expectedResult: -10.0},
		{name: "no change", current: 100.0, previous: 100.0, expectedResult: 0.0},
		{name: "doubled", current: 200.0, previous: 100.0, expectedResult: 100.0},
		{name: "both zero", current: 0.0, previous: 0.0, expectedResult: 0.0},
		{name: "growth from zero", current: 12.0, previous: 0.0, expectedResult: 100.0},
		{name: "drop to zero", current: 0.0, previous: 100.0, expectedResult: -100.0},
		{name: "rounds to 2 decimal places", current: 111.111, previous: 100.0, expectedResult: 11.11},
		{name: "small values", current: 0.11, previous: 0.10, expectedResult: 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculateChangePercent(tt.current, tt.previous)
			if result != tt.expectedResult {
				t.Errorf("calculateChangePercent(%f, %f) = %f, expected %f",
					tt.current, tt.previous, result, tt.expectedResult)
			}
		})
	}
}

func TestPeriodStart(t *testing.T) {
	// a Wednesday afternoon
	at := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		aggregation string
		want        time.Time
	}{
		{AggregationDaily, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)},
		{AggregationWeekly, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{AggregationMonthly, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"hourly", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.aggregation, func(t *testing.T) {
			if got := periodStart(at, tt.aggregation); !got.Equal(tt.want) {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	sunday := time.Date(2025, 3, 16, 23, 0, 0, 0, time.UTC)
	if got := periodStart(sunday, AggregationWeekly); !got.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected Sunday to fall in the week starting Monday 10th, got %s", got)
	}
}

// seedMissionActivity stores missions across two regions and two years
func seedMissionActivity(t *testing.T, store *repository.Store) {
	t.Helper()
	ctx := context.Background()
	thies := createRequest(t, store, "Thies", nil)
	kaolack := createRequest(t, store, "Kaolack", nil)

	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	measured := func(ph float64) *model.SoilMeasurement {
		m := validMeasurement(ph)
		return &m
	}

	missions := []model.Mission{
		{RequestID: thies.ID, Status: model.MissionCompleted, ScheduledDate: day(2025, 3, 3), SoilMeasurement: measured(6.0)},
		{RequestID: thies.ID, Status: model.MissionCompleted, ScheduledDate: day(2025, 3, 5), SoilMeasurement: measured(7.0)},
		{RequestID: kaolack.ID, Status: model.MissionCancelled, ScheduledDate: day(2025, 3, 12)},
		{RequestID: kaolack.ID, Status: model.MissionAssigned, ScheduledDate: day(2025, 3, 14)},
		// outside the period
		{RequestID: thies.ID, Status: model.MissionCompleted, ScheduledDate: day(2025, 4, 2), SoilMeasurement: measured(5.5)},
		// one year back
		{RequestID: thies.ID, Status: model.MissionCompleted, ScheduledDate: day(2024, 3, 4), SoilMeasurement: measured(5.0)},
	}
	for i := range missions {
		missions[i].TechnicianID = "tech-1"
		if err := store.Missions.Create(ctx, &missions[i]); err != nil {
			t.Fatalf("create mission: %v", err)
		}
	}
}

func TestMissionAnalytics_Weekly(t *testing.T) {
	store := newTestStore(t)
	seedMissionActivity(t, store)
	svc := NewAnalyticsService(store.Analytics, testLogger())

	resp, err := svc.MissionAnalytics(context.Background(), AnalyticsQuery{
		StartDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Aggregation: AggregationWeekly,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(resp.Data) != 2 {
		t.Fatalf("Expected 2 weekly buckets, got %+v", resp.Data)
	}
	first, second := resp.Data[0], resp.Data[1]
	if !first.Period.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) || first.Missions != 2 || first.Completed != 2 {
		t.Errorf("Unexpected first bucket: %+v", first)
	}
	if first.AveragePh == nil || *first.AveragePh != 6.5 {
		t.Errorf("Expected average pH 6.5 in the first week, got %v", first.AveragePh)
	}
	if second.Cancelled != 1 || second.Active != 1 || second.CompletionRate != 0 || second.AveragePh != nil {
		t.Errorf("Unexpected second bucket: %+v", second)
	}

	s := resp.Summary
	if s.TotalMissions != 4 || s.Completed != 2 || s.Cancelled != 1 || s.Active != 1 || s.CompletionRate != 0.5 {
		t.Errorf("Unexpected summary: %+v", s)
	}

	if len(resp.RegionBreakdown) != 2 {
		t.Fatalf("Expected 2 regions, got %+v", resp.RegionBreakdown)
	}
	if resp.RegionBreakdown[0].Region != "Kaolack" || resp.RegionBreakdown[1].Region != "Thies" {
		t.Errorf("Expected regions ordered by name, got %+v", resp.RegionBreakdown)
	}
	if resp.RegionBreakdown[1].Completed != 2 || resp.RegionBreakdown[1].CompletionRate != 1 {
		t.Errorf("Unexpected Thies breakdown: %+v", resp.RegionBreakdown[1])
	}

	yoy := resp.YearOverYear
	if yoy.OneYearAgo == nil {
		t.Fatal("Expected a comparison with one year ago")
	}
	if yoy.OneYearAgo.TotalMissions != 1 || yoy.OneYearAgo.MissionsChangePercent != 300 || yoy.OneYearAgo.CompletedChangePercent != 100 {
		t.Errorf("Unexpected one year comparison: %+v", yoy.OneYearAgo)
	}
	if yoy.TwoYearsAgo != nil {
		t.Errorf("Expected no comparison for an empty period, got %+v", yoy.TwoYearsAgo)
	}
}

func TestMissionAnalytics_RegionFilter(t *testing.T) {
	store := newTestStore(t)
	seedMissionActivity(t, store)
	svc := NewAnalyticsService(store.Analytics, testLogger())

	resp, err := svc.MissionAnalytics(context.Background(), AnalyticsQuery{
		StartDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Aggregation: AggregationMonthly,
		Region:      "thies",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Summary.TotalMissions != 2 || resp.Summary.Completed != 2 {
		t.Errorf("Expected only the Thies missions, got %+v", resp.Summary)
	}
	if len(resp.Data) != 1 || !resp.Data[0].Period.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected a single March bucket, got %+v", resp.Data)
	}
	if resp.RegionBreakdown != nil {
		t.Errorf("Expected no breakdown when filtering by region, got %+v", resp.RegionBreakdown)
	}
}

func TestMissionAnalytics_EmptyPeriod(t *testing.T) {
	svc := NewAnalyticsService(newTestStore(t).Analytics, testLogger())

	resp, err := svc.MissionAnalytics(context.Background(), AnalyticsQuery{
		StartDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Aggregation: "yearly",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Aggregation != AggregationDaily {
		t.Errorf("Expected an unknown aggregation to fall back to daily, got %q", resp.Aggregation)
	}
	if resp.Data == nil || len(resp.Data) != 0 || resp.Summary.TotalMissions != 0 {
		t.Errorf("Expected an empty, non-nil series, got %+v", resp)
	}
}

func TestMissionAnalytics_InvalidRange(t *testing.T) {
	svc := NewAnalyticsService(newTestStore(t).Analytics, testLogger())
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.MissionAnalytics(context.Background(), AnalyticsQuery{StartDate: day, EndDate: day})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}
