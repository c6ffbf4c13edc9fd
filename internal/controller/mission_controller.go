package controller

import (
	"log/slog"
	"net/http"
	"time"

	"agriland/internal/apperr"
	"agriland/internal/model"
	"agriland/internal/repository"
	"agriland/internal/service"

	"github.com/gin-gonic/gin"
)

// MissionController handles field mission HTTP requests
type MissionController struct {
	missionService service.MissionService
	logger         *slog.Logger
}

// NewMissionController creates a new mission controller
func NewMissionController(missionService service.MissionService, logger *slog.Logger) *MissionController {
	return &MissionController{
		missionService: missionService,
		logger:         logger,
	}
}

type assignMissionRequest struct {
	RequestID     string          `json:"requestId" binding:"required"`
	TechnicianID  string          `json:"technicianId" binding:"required"`
	ScheduledDate string          `json:"scheduledDate" binding:"required"`
	Instructions  string          `json:"instructions"`
	LandInfo      *model.LandInfo `json:"landInfo"`
}

type updateMissionRequest struct {
	ScheduledDate   *string         `json:"scheduledDate"`
	Instructions    *string         `json:"instructions"`
	TechnicianNotes *string         `json:"technicianNotes"`
	Attachments     []string        `json:"attachments"`
	LandInfo        *model.LandInfo `json:"landInfo"`
}

// List handles GET /api/missions
// Query parameters: status, technicianId, requestId, page, limit
func (c *MissionController) List(ctx *gin.Context) {
	q := repository.MissionQuery{
		TechnicianID: ctx.Query("technicianId"),
		RequestID:    ctx.Query("requestId"),
	}
	if s := optionalString(ctx, "status"); s != nil {
		st, ok := model.ParseMissionStatus(*s)
		if !ok {
			respondError(ctx, c.logger, "invalid mission filter", apperr.Validation("status", "unknown status %q", *s))
			return
		}
		q.Status = &st
	}
	page, err := parsePage(ctx)
	if err != nil {
		respondError(ctx, c.logger, "invalid pagination", err)
		return
	}
	q.Page = page

	result, err := c.missionService.List(ctx.Request.Context(), q)
	if err != nil {
		respondError(ctx, c.logger, "failed to list missions", err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Orphaned handles GET /api/missions/orphaned
func (c *MissionController) Orphaned(ctx *gin.Context) {
	missions, err := c.missionService.Orphaned(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.logger, "failed to list orphaned missions", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": missions, "total": len(missions)})
}

// Get handles GET /api/missions/:id
func (c *MissionController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	mission, err := c.missionService.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.logger, "failed to get mission", err, "mission_id", id)
		return
	}
	ctx.JSON(http.StatusOK, mission)
}

// Assign handles POST /api/missions
func (c *MissionController) Assign(ctx *gin.Context) {
	startTime := time.Now()
	var body assignMissionRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}
	scheduled, err := parseISO8601Date(body.ScheduledDate)
	if err != nil {
		c.logger.Warn("invalid scheduledDate format",
			"scheduled_date", body.ScheduledDate,
			"error", err.Error(),
		)
		badRequest(ctx, "Invalid scheduledDate format", "scheduledDate must be in ISO 8601 format (e.g., 2024-01-15 or 2024-01-15T10:00:00Z)")
		return
	}

	mission, err := c.missionService.Assign(ctx.Request.Context(), service.AssignInput{
		RequestID:     body.RequestID,
		TechnicianID:  body.TechnicianID,
		ScheduledDate: scheduled,
		Instructions:  body.Instructions,
		LandInfo:      body.LandInfo,
	})
	if err != nil {
		respondError(ctx, c.logger, "failed to assign mission", err,
			"request_id", body.RequestID, "technician_id", body.TechnicianID)
		return
	}

	c.logger.Info("mission assigned",
		"mission_id", mission.ID,
		"request_id", mission.RequestID,
		"technician_id", mission.TechnicianID,
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusCreated, mission)
}

// Update handles PATCH /api/missions/:id
func (c *MissionController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	var body updateMissionRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}

	in := service.MissionUpdate{
		Instructions:    body.Instructions,
		TechnicianNotes: body.TechnicianNotes,
		Attachments:     body.Attachments,
		LandInfo:        body.LandInfo,
	}
	if body.ScheduledDate != nil {
		scheduled, err := parseISO8601Date(*body.ScheduledDate)
		if err != nil {
			badRequest(ctx, "Invalid scheduledDate format", "scheduledDate must be in ISO 8601 format (e.g., 2024-01-15 or 2024-01-15T10:00:00Z)")
			return
		}
		in.ScheduledDate = &scheduled
	}

	mission, err := c.missionService.Update(ctx.Request.Context(), id, in)
	if err != nil {
		respondError(ctx, c.logger, "failed to update mission", err, "mission_id", id)
		return
	}
	ctx.JSON(http.StatusOK, mission)
}

// Start handles POST /api/missions/:id/start
func (c *MissionController) Start(ctx *gin.Context) {
	id := ctx.Param("id")
	mission, err := c.missionService.Start(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.logger, "failed to start mission", err, "mission_id", id)
		return
	}
	ctx.JSON(http.StatusOK, mission)
}

// Complete handles POST /api/missions/:id/complete with the soil measurement
func (c *MissionController) Complete(ctx *gin.Context) {
	startTime := time.Now()
	id := ctx.Param("id")
	var body service.CompleteInput
	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}

	mission, err := c.missionService.Complete(ctx.Request.Context(), id, body)
	if err != nil {
		respondError(ctx, c.logger, "failed to complete mission", err, "mission_id", id)
		return
	}

	landID := ""
	if mission.LandID != nil {
		landID = *mission.LandID
	}
	c.logger.Info("mission completed",
		"mission_id", mission.ID,
		"land_id", landID,
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusOK, mission)
}

// Cancel handles POST /api/missions/:id/cancel
func (c *MissionController) Cancel(ctx *gin.Context) {
	id := ctx.Param("id")
	mission, err := c.missionService.Cancel(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.logger, "failed to cancel mission", err, "mission_id", id)
		return
	}
	ctx.JSON(http.StatusOK, mission)
}

// Delete handles DELETE /api/missions/:id
func (c *MissionController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.missionService.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, c.logger, "failed to delete mission", err, "mission_id", id)
		return
	}
	ctx.Status(http.StatusNoContent)
}
