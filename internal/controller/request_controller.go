package controller

import (
	"log/slog"
	"net/http"

	"agriland/internal/apperr"
	"agriland/internal/model"
	"agriland/internal/repository"
	"agriland/internal/service"

	"github.com/gin-gonic/gin"
)

// RequestController handles soil-analysis request HTTP requests
type RequestController struct {
	requestService service.RequestService
	logger         *slog.Logger
}

// NewRequestController creates a new request controller
func NewRequestController(requestService service.RequestService, logger *slog.Logger) *RequestController {
	return &RequestController{
		requestService: requestService,
		logger:         logger,
	}
}

// createRequestBody is the public intake form
type createRequestBody struct {
	FullName    string             `json:"fullName" binding:"required"`
	Email       string             `json:"email" binding:"required,email"`
	Phone       string             `json:"phone" binding:"required"`
	Region      string             `json:"region" binding:"required"`
	Commune     string             `json:"commune"`
	Surface     float64            `json:"surface" binding:"required"`
	Description string             `json:"description"`
	Coordinates *model.Coordinates `json:"coordinates"`
	LandID      *string            `json:"landId"`
	Origin      string             `json:"origin"`
}

type updateRequestStatusBody struct {
	Status string `json:"status" binding:"required"`
}

// Create handles POST /api/soil-requests
func (c *RequestController) Create(ctx *gin.Context) {
	var body createRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		c.logger.Warn("invalid soil-analysis request body", "error", err.Error())
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}

	req := &model.SoilAnalysisRequest{
		FullName:    body.FullName,
		Email:       body.Email,
		Phone:       body.Phone,
		Region:      body.Region,
		Commune:     body.Commune,
		Surface:     body.Surface,
		Description: body.Description,
		Coordinates: body.Coordinates,
		LandID:      body.LandID,
		Origin:      model.RequestOrigin(body.Origin),
	}
	created, err := c.requestService.Create(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, c.logger, "failed to create soil-analysis request", err, "region", body.Region)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// List handles GET /api/soil-requests
// Query parameters: status, origin, region, landId, search, page, limit
func (c *RequestController) List(ctx *gin.Context) {
	q := repository.RequestQuery{
		Region: ctx.Query("region"),
		LandID: ctx.Query("landId"),
		Search: ctx.Query("search"),
	}
	if s := optionalString(ctx, "status"); s != nil {
		st, ok := model.ParseRequestStatus(*s)
		if !ok {
			respondError(ctx, c.logger, "invalid request filter", apperr.Validation("status", "unknown status %q", *s))
			return
		}
		q.Status = &st
	}
	if s := optionalString(ctx, "origin"); s != nil {
		origin := model.RequestOrigin(*s)
		if origin != model.OriginStandalone && origin != model.OriginLandListing {
			respondError(ctx, c.logger, "invalid request filter", apperr.Validation("origin", "unknown origin %q", *s))
			return
		}
		q.Origin = &origin
	}
	page, err := parsePage(ctx)
	if err != nil {
		respondError(ctx, c.logger, "invalid pagination", err)
		return
	}
	q.Page = page

	result, err := c.requestService.List(ctx.Request.Context(), q)
	if err != nil {
		respondError(ctx, c.logger, "failed to list soil-analysis requests", err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Get handles GET /api/soil-requests/:id
func (c *RequestController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	req, err := c.requestService.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.logger, "failed to get soil-analysis request", err, "request_id", id)
		return
	}
	ctx.JSON(http.StatusOK, req)
}

// UpdateStatus handles PATCH /api/soil-requests/:id/status
func (c *RequestController) UpdateStatus(ctx *gin.Context) {
	id := ctx.Param("id")
	var body updateRequestStatusBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Invalid request body", "status is required")
		return
	}

	req, err := c.requestService.UpdateStatus(ctx.Request.Context(), id, model.RequestStatus(body.Status))
	if err != nil {
		respondError(ctx, c.logger, "failed to update soil-analysis request status", err,
			"request_id", id, "status", body.Status)
		return
	}
	ctx.JSON(http.StatusOK, req)
}

// Delete handles DELETE /api/soil-requests/:id
func (c *RequestController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.requestService.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, c.logger, "failed to delete soil-analysis request", err, "request_id", id)
		return
	}
	ctx.Status(http.StatusNoContent)
}
