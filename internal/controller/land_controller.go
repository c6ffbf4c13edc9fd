package controller

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"agriland/internal/filter"
	"agriland/internal/model"
	"agriland/internal/service"

	"github.com/gin-gonic/gin"
)

// maxImportBatch bounds the records accepted by one import call
const maxImportBatch = 500

// LandController handles land listing HTTP requests
type LandController struct {
	landService service.LandService
	logger      *slog.Logger
}

// NewLandController creates a new land controller
func NewLandController(landService service.LandService, logger *slog.Logger) *LandController {
	return &LandController{
		landService: landService,
		logger:      logger,
	}
}

// createLandRequest is the body of POST /api/lands
type createLandRequest struct {
	OwnerID          string                `json:"ownerId" binding:"required"`
	Title            string                `json:"title" binding:"required"`
	Description      string                `json:"description"`
	Surface          float64               `json:"surface" binding:"required"`
	Type             model.LandType        `json:"type" binding:"required"`
	Price            float64               `json:"price"`
	PriceUnit        string                `json:"priceUnit"`
	Status           model.LandStatus      `json:"status"`
	Address          model.Address         `json:"address"`
	Location         *model.GeoPoint       `json:"location"`
	SoilParameters   *model.SoilParameters `json:"soilParameters"`
	RecommendedCrops []string              `json:"recommendedCrops"`
	Images           []string              `json:"images"`
	// Contact is used for the soil-analysis request opened with the listing
	Contact *model.OwnerInfo `json:"contact"`
}

func (r *createLandRequest) toLand() *model.Land {
	return &model.Land{
		OwnerID:          r.OwnerID,
		Title:            strings.TrimSpace(r.Title),
		Description:      r.Description,
		Surface:          r.Surface,
		Type:             r.Type,
		Price:            r.Price,
		PriceUnit:        r.PriceUnit,
		Status:           r.Status,
		Address:          r.Address,
		Location:         r.Location,
		SoilParameters:   r.SoilParameters,
		RecommendedCrops: r.RecommendedCrops,
		Images:           r.Images,
	}
}

// updateLandStatusRequest is the body of PATCH /api/lands/:id/status
type updateLandStatusRequest struct {
	Status         string  `json:"status" binding:"required"`
	ExpectedStatus *string `json:"expectedStatus"`
}

// List handles GET /api/lands
// Query parameters: type, status, region, recommendedCrop, texture,
// minSurface, maxSurface, minPrice, maxPrice, minPh, maxPh, page, limit
func (c *LandController) List(ctx *gin.Context) {
	startTime := time.Now()
	filters, err := parseLandFilters(ctx)
	if err != nil {
		respondError(ctx, c.logger, "invalid land filters", err)
		return
	}
	page, err := parsePage(ctx)
	if err != nil {
		respondError(ctx, c.logger, "invalid pagination", err)
		return
	}

	result, err := c.landService.List(ctx.Request.Context(), filters, page)
	if err != nil {
		respondError(ctx, c.logger, "failed to list lands", err)
		return
	}

	c.logger.Info("lands listed",
		"total", result.Total,
		"page", result.Page,
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusOK, result)
}

// Nearby handles GET /api/lands/nearby?lat=&lng=&radiusKm= plus the list filters
func (c *LandController) Nearby(ctx *gin.Context) {
	lat, err := requiredFloat(ctx, "lat")
	if err != nil {
		respondError(ctx, c.logger, "invalid nearby query", err)
		return
	}
	lng, err := requiredFloat(ctx, "lng")
	if err != nil {
		respondError(ctx, c.logger, "invalid nearby query", err)
		return
	}
	radius, err := requiredFloat(ctx, "radiusKm")
	if err != nil {
		respondError(ctx, c.logger, "invalid nearby query", err)
		return
	}
	filters, err := parseLandFilters(ctx)
	if err != nil {
		respondError(ctx, c.logger, "invalid land filters", err)
		return
	}
	page, err := parsePage(ctx)
	if err != nil {
		respondError(ctx, c.logger, "invalid pagination", err)
		return
	}

	result, err := c.landService.SearchNearby(ctx.Request.Context(), filter.Point{Lat: lat, Lng: lng}, radius, filters, page)
	if err != nil {
		respondError(ctx, c.logger, "failed to search nearby lands", err,
			"lat", lat, "lng", lng, "radius_km", radius)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Search handles GET /api/lands/search?q= plus the list filters
func (c *LandController) Search(ctx *gin.Context) {
	query := ctx.Query("q")
	filters, err := parseLandFilters(ctx)
	if err != nil {
		respondError(ctx, c.logger, "invalid land filters", err)
		return
	}
	page, err := parsePage(ctx)
	if err != nil {
		respondError(ctx, c.logger, "invalid pagination", err)
		return
	}

	result, err := c.landService.Search(ctx.Request.Context(), query, filters, page)
	if err != nil {
		respondError(ctx, c.logger, "failed to search lands", err, "query", query)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Import handles POST /api/lands/import with a JSON array of upstream records
func (c *LandController) Import(ctx *gin.Context) {
	var records []model.RawLand
	if err := ctx.ShouldBindJSON(&records); err != nil {
		badRequest(ctx, "Invalid request body", "body must be a JSON array of land records")
		return
	}
	if len(records) == 0 || len(records) > maxImportBatch {
		badRequest(ctx, "Invalid request body", "between 1 and 500 records are accepted per import")
		return
	}

	result, err := c.landService.Import(ctx.Request.Context(), records)
	if err != nil {
		respondError(ctx, c.logger, "failed to import lands", err, "records", len(records))
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Get handles GET /api/lands/:id
func (c *LandController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	land, err := c.landService.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.logger, "failed to get land", err, "land_id", id)
		return
	}
	ctx.JSON(http.StatusOK, land)
}

// Create handles POST /api/lands
func (c *LandController) Create(ctx *gin.Context) {
	var body createLandRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		c.logger.Warn("invalid land body", "error", err.Error())
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}

	land, err := c.landService.Create(ctx.Request.Context(), body.toLand(), body.Contact)
	if err != nil {
		respondError(ctx, c.logger, "failed to create land", err, "owner_id", body.OwnerID)
		return
	}
	ctx.JSON(http.StatusCreated, land)
}

// Patch handles PATCH /api/lands/:id with the owner-editable fields
func (c *LandController) Patch(ctx *gin.Context) {
	id := ctx.Param("id")
	var patch service.LandPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}

	land, err := c.landService.Patch(ctx.Request.Context(), id, patch)
	if err != nil {
		respondError(ctx, c.logger, "failed to patch land", err, "land_id", id)
		return
	}
	ctx.JSON(http.StatusOK, land)
}

// UpdateStatus handles PATCH /api/lands/:id/status.
// With expectedStatus, the change only applies if the land still has that status.
func (c *LandController) UpdateStatus(ctx *gin.Context) {
	id := ctx.Param("id")
	var body updateLandStatusRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Invalid request body", "status is required")
		return
	}

	var expected *model.LandStatus
	if body.ExpectedStatus != nil {
		st, ok := model.ParseLandStatus(*body.ExpectedStatus)
		if !ok {
			badRequest(ctx, "Invalid expectedStatus", "expectedStatus must be AVAILABLE, PENDING, SOLD or RENTED")
			return
		}
		expected = &st
	}

	land, err := c.landService.UpdateStatus(ctx.Request.Context(), id, model.LandStatus(body.Status), expected)
	if err != nil {
		respondError(ctx, c.logger, "failed to update land status", err,
			"land_id", id, "status", body.Status)
		return
	}
	ctx.JSON(http.StatusOK, land)
}

// Delete handles DELETE /api/lands/:id
func (c *LandController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.landService.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, c.logger, "failed to delete land", err, "land_id", id)
		return
	}
	ctx.Status(http.StatusNoContent)
}
