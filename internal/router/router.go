package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"agriland/internal/controller"
	"agriland/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether the database answers
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds everything the HTTP surface is built from
type Deps struct {
	Lands       *controller.LandController
	Requests    *controller.RequestController
	Technicians *controller.TechnicianController
	Missions    *controller.MissionController
	Analytics   *controller.AnalyticsController

	Metrics *middleware.Metrics
	// IntakeLimiter guards the public soil-analysis intake; nil disables it
	IntakeLimiter middleware.Limiter
	DB            Pinger
	CORSOrigins   []string
	Logger        *slog.Logger
}

// New builds the gin engine with every route
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.StructuredLoggingMiddleware(d.Logger, d.Metrics))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", healthCheck(d.DB))
	r.GET("/metrics", middleware.MetricsHandler(d.Metrics))

	api := r.Group("/api")

	lands := api.Group("/lands")
	{
		lands.GET("", d.Lands.List)
		lands.GET("/nearby", d.Lands.Nearby)
		lands.GET("/search", d.Lands.Search)
		lands.POST("/import", d.Lands.Import)
		lands.GET("/:id", d.Lands.Get)
		lands.POST("", d.Lands.Create)
		lands.PATCH("/:id", d.Lands.Patch)
		lands.PATCH("/:id/status", d.Lands.UpdateStatus)
		lands.DELETE("/:id", d.Lands.Delete)
	}

	requests := api.Group("/soil-requests")
	{
		intake := []gin.HandlerFunc{d.Requests.Create}
		if d.IntakeLimiter != nil {
			intake = append([]gin.HandlerFunc{middleware.IntakeRateLimiter(d.IntakeLimiter, d.Logger)}, intake...)
		}
		requests.POST("", intake...)
		requests.GET("", d.Requests.List)
		requests.GET("/:id", d.Requests.Get)
		requests.PATCH("/:id/status", d.Requests.UpdateStatus)
		requests.DELETE("/:id", d.Requests.Delete)
	}

	technicians := api.Group("/technicians")
	{
		technicians.GET("", d.Technicians.List)
		technicians.GET("/available", d.Technicians.Available)
		technicians.GET("/:id", d.Technicians.Get)
		technicians.POST("", d.Technicians.Create)
		technicians.PUT("/:id", d.Technicians.Update)
		technicians.DELETE("/:id", d.Technicians.Delete)
	}

	missions := api.Group("/missions")
	{
		missions.GET("", d.Missions.List)
		missions.GET("/orphaned", d.Missions.Orphaned)
		missions.GET("/:id", d.Missions.Get)
		missions.POST("", d.Missions.Assign)
		missions.PATCH("/:id", d.Missions.Update)
		missions.POST("/:id/start", d.Missions.Start)
		missions.POST("/:id/complete", d.Missions.Complete)
		missions.POST("/:id/cancel", d.Missions.Cancel)
		missions.DELETE("/:id", d.Missions.Delete)
	}

	api.GET("/analytics/missions", d.Analytics.MissionAnalytics)

	return r
}

func healthCheck(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().UTC()})
	}
}
