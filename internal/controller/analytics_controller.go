package controller

import (
	"log/slog"
	"net/http"
	"time"

	"agriland/internal/service"

	"github.com/gin-gonic/gin"
)

// AnalyticsController handles analytics-related HTTP requests
type AnalyticsController struct {
	analyticsService service.AnalyticsService
	logger           *slog.Logger
}

// NewAnalyticsController creates a new analytics controller
func NewAnalyticsController(analyticsService service.AnalyticsService, logger *slog.Logger) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// MissionAnalytics handles GET /api/analytics/missions
// Query parameters:
//   - startDate (required): ISO 8601 (RFC3339 or YYYY-MM-DD), inclusive
//   - endDate (required): ISO 8601 (RFC3339 or YYYY-MM-DD), exclusive
//   - aggregation (optional): daily, weekly, or monthly (default: daily)
//   - region (optional): only missions of requests in this region
func (c *AnalyticsController) MissionAnalytics(ctx *gin.Context) {
	startTime := time.Now()

	startDateStr := ctx.Query("startDate")
	if startDateStr == "" {
		badRequest(ctx, "Missing required parameter", "startDate is required")
		return
	}
	startDate, err := parseISO8601Date(startDateStr)
	if err != nil {
		c.logger.Warn("invalid startDate", "startDate", startDateStr, "error", err.Error())
		badRequest(ctx, "Invalid startDate", "startDate must be in ISO 8601 format (RFC3339 or YYYY-MM-DD)")
		return
	}

	endDateStr := ctx.Query("endDate")
	if endDateStr == "" {
		badRequest(ctx, "Missing required parameter", "endDate is required")
		return
	}
	endDate, err := parseISO8601Date(endDateStr)
	if err != nil {
		c.logger.Warn("invalid endDate", "endDate", endDateStr, "error", err.Error())
		badRequest(ctx, "Invalid endDate", "endDate must be in ISO 8601 format (RFC3339 or YYYY-MM-DD)")
		return
	}

	if !endDate.After(startDate) {
		badRequest(ctx, "Invalid date range", "endDate must be after startDate")
		return
	}

	aggregation := ctx.DefaultQuery("aggregation", service.AggregationDaily)
	if !service.ValidAggregation(aggregation) {
		badRequest(ctx, "Invalid aggregation", "aggregation must be one of: daily, weekly, monthly")
		return
	}
	region := ctx.Query("region")

	c.logger.Info("processing analytics request",
		"start_date", startDate.Format(time.RFC3339),
		"end_date", endDate.Format(time.RFC3339),
		"aggregation", aggregation,
		"region", region,
	)

	analytics, err := c.analyticsService.MissionAnalytics(ctx.Request.Context(), service.AnalyticsQuery{
		StartDate:   startDate,
		EndDate:     endDate,
		Aggregation: aggregation,
		Region:      region,
	})
	if err != nil {
		respondError(ctx, c.logger, "failed to retrieve analytics", err,
			"aggregation", aggregation,
			"region", region,
			"latency_ms", time.Since(startTime).Milliseconds(),
		)
		return
	}

	c.logger.Info("analytics request completed",
		"aggregation", aggregation,
		"region", region,
		"data_points", len(analytics.Data),
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusOK, analytics)
}
