package controller

import (
	"log/slog"
	"net/http"

	"agriland/internal/apperr"
	"agriland/internal/model"
	"agriland/internal/service"

	"github.com/gin-gonic/gin"
)

// TechnicianController handles technician HTTP requests
type TechnicianController struct {
	technicianService service.TechnicianService
	logger            *slog.Logger
}

// NewTechnicianController creates a new technician controller
func NewTechnicianController(technicianService service.TechnicianService, logger *slog.Logger) *TechnicianController {
	return &TechnicianController{
		technicianService: technicianService,
		logger:            logger,
	}
}

// technicianBody is the payload of create and update
type technicianBody struct {
	FullName        string   `json:"fullName" binding:"required"`
	Email           string   `json:"email" binding:"required,email"`
	Phone           string   `json:"phone" binding:"required"`
	WhatsApp        string   `json:"whatsapp"`
	Avatar          string   `json:"avatar"`
	Specialization  string   `json:"specialization"`
	CoverageRegions []string `json:"coverageRegions" binding:"required,min=1"`
	Status          string   `json:"status"`
	Notes           string   `json:"notes"`
}

func (b *technicianBody) toTechnician() *model.Technician {
	return &model.Technician{
		FullName:        b.FullName,
		Email:           b.Email,
		Phone:           b.Phone,
		WhatsApp:        b.WhatsApp,
		Avatar:          b.Avatar,
		Specialization:  b.Specialization,
		CoverageRegions: b.CoverageRegions,
		Status:          model.TechnicianStatus(b.Status),
		Notes:           b.Notes,
	}
}

// List handles GET /api/technicians?status=
func (c *TechnicianController) List(ctx *gin.Context) {
	var status *model.TechnicianStatus
	if s := optionalString(ctx, "status"); s != nil {
		st, ok := model.ParseTechnicianStatus(*s)
		if !ok {
			respondError(ctx, c.logger, "invalid technician filter", apperr.Validation("status", "unknown status %q", *s))
			return
		}
		status = &st
	}

	techs, err := c.technicianService.List(ctx.Request.Context(), status)
	if err != nil {
		respondError(ctx, c.logger, "failed to list technicians", err)
		return
	}
	if techs == nil {
		techs = []model.Technician{}
	}
	ctx.JSON(http.StatusOK, gin.H{"data": techs, "total": len(techs)})
}

// Available handles GET /api/technicians/available?region=
// With all=true every active technician is returned whatever the region.
func (c *TechnicianController) Available(ctx *gin.Context) {
	region := ctx.Query("region")
	widen := ctx.Query("all") == "true"

	var (
		techs []model.Technician
		err   error
	)
	if widen {
		techs, err = c.technicianService.AllActiveTechnicians(ctx.Request.Context())
	} else {
		techs, err = c.technicianService.AvailableTechnicians(ctx.Request.Context(), region)
	}
	if err != nil {
		respondError(ctx, c.logger, "failed to select technicians", err, "region", region, "all", widen)
		return
	}

	c.logger.Info("technicians selected",
		"region", region,
		"all", widen,
		"count", len(techs),
	)
	ctx.JSON(http.StatusOK, gin.H{"data": techs, "total": len(techs)})
}

// Get handles GET /api/technicians/:id
func (c *TechnicianController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	tech, err := c.technicianService.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.logger, "failed to get technician", err, "technician_id", id)
		return
	}
	ctx.JSON(http.StatusOK, tech)
}

// Create handles POST /api/technicians
func (c *TechnicianController) Create(ctx *gin.Context) {
	var body technicianBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}
	tech, err := c.technicianService.Create(ctx.Request.Context(), body.toTechnician())
	if err != nil {
		respondError(ctx, c.logger, "failed to create technician", err)
		return
	}
	ctx.JSON(http.StatusCreated, tech)
}

// Update handles PUT /api/technicians/:id
func (c *TechnicianController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	var body technicianBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}
	tech, err := c.technicianService.Update(ctx.Request.Context(), id, body.toTechnician())
	if err != nil {
		respondError(ctx, c.logger, "failed to update technician", err, "technician_id", id)
		return
	}
	ctx.JSON(http.StatusOK, tech)
}

// Delete handles DELETE /api/technicians/:id
func (c *TechnicianController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.technicianService.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, c.logger, "failed to delete technician", err, "technician_id", id)
		return
	}
	ctx.Status(http.StatusNoContent)
}
