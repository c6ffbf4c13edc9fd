package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"agriland/internal/service"

	"github.com/gin-gonic/gin"
	"log/slog"
)

// mockAnalyticsService is a mock implementation of AnalyticsService for testing
type mockAnalyticsService struct {
	analytics *service.AnalyticsResponse
	err       error
	query     service.AnalyticsQuery
	called    bool
}

func (m *mockAnalyticsService) MissionAnalytics(_ context.Context, q service.AnalyticsQuery) (*service.AnalyticsResponse, error) {
	m.called = true
	m.query = q
	if m.err != nil {
		return nil, m.err
	}
	return m.analytics, nil
}

func setupAnalyticsRouter(controller *AnalyticsController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/analytics/missions", controller.MissionAnalytics)
	return r
}

func TestMissionAnalytics_Success(t *testing.T) {
	ph := 6.5
	mockService := &mockAnalyticsService{
		analytics: &service.AnalyticsResponse{
			Aggregation: "weekly",
			Period: service.PeriodInfo{
				StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			},
			Data: []service.AggregatedDataPoint{
				{Period: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), Missions: 2, Completed: 2, CompletionRate: 1, AveragePh: &ph},
			},
			Summary: service.AnalyticsSummary{TotalMissions: 2, Completed: 2, CompletionRate: 1, AveragePh: &ph},
		},
	}
	router := setupAnalyticsRouter(NewAnalyticsController(mockService, slog.Default()))

	w := serve(router, "GET", "/api/analytics/missions?startDate=2025-03-01&endDate=2025-04-01&aggregation=weekly&region=Thies", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	q := mockService.query
	if !q.StartDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) || !q.EndDate.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected period passed to the service: %+v", q)
	}
	if q.Aggregation != "weekly" || q.Region != "Thies" {
		t.Errorf("Unexpected query passed to the service: %+v", q)
	}

	var response service.AnalyticsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Data) != 1 || response.Summary.TotalMissions != 2 {
		t.Errorf("Unexpected response: %+v", response)
	}
}

func TestMissionAnalytics_DefaultsToDaily(t *testing.T) {
	mockService := &mockAnalyticsService{analytics: &service.AnalyticsResponse{}}
	router := setupAnalyticsRouter(NewAnalyticsController(mockService, slog.Default()))

	w := serve(router, "GET", "/api/analytics/missions?startDate=2025-03-01T00:00:00Z&endDate=2025-03-08T00:00:00Z", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}
	if mockService.query.Aggregation != "daily" {
		t.Errorf("Expected daily aggregation, got %q", mockService.query.Aggregation)
	}
}

func TestMissionAnalytics_BadRequests(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantError string
	}{
		{"missing startDate", "endDate=2025-04-01", "Missing required parameter"},
		{"missing endDate", "startDate=2025-03-01", "Missing required parameter"},
		{"invalid startDate", "startDate=01/03/2025&endDate=2025-04-01", "Invalid startDate"},
		{"invalid endDate", "startDate=2025-03-01&endDate=tomorrow", "Invalid endDate"},
		{"end before start", "startDate=2025-04-01&endDate=2025-03-01", "Invalid date range"},
		{"empty range", "startDate=2025-03-01&endDate=2025-03-01", "Invalid date range"},
		{"invalid aggregation", "startDate=2025-03-01&endDate=2025-04-01&aggregation=hourly", "Invalid aggregation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockAnalyticsService{analytics: &service.AnalyticsResponse{}}
			router := setupAnalyticsRouter(NewAnalyticsController(mockService, slog.Default()))

			w := serve(router, "GET", "/api/analytics/missions?"+tt.query, "")

			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status code %d, got %d", http.StatusBadRequest, w.Code)
			}
			if resp := decodeError(t, w); resp.Error != tt.wantError {
				t.Errorf("Expected error %q, got %q", tt.wantError, resp.Error)
			}
			if mockService.called {
				t.Error("Service must not be called for a rejected query")
			}
		})
	}
}

func TestMissionAnalytics_ServiceError(t *testing.T) {
	mockService := &mockAnalyticsService{err: errors.New("database connection lost")}
	router := setupAnalyticsRouter(NewAnalyticsController(mockService, slog.Default()))

	w := serve(router, "GET", "/api/analytics/missions?startDate=2025-03-01&endDate=2025-04-01", "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status code %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if resp := decodeError(t, w); resp.Message != "An unexpected error occurred" {
		t.Errorf("Expected internal details to be hidden, got %q", resp.Message)
	}
}
