package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agriland/internal/config"
	"agriland/internal/controller"
	"agriland/internal/database"
	"agriland/internal/middleware"
	"agriland/internal/repository"
	"agriland/internal/router"
	"agriland/internal/scheduler"
	"agriland/internal/search"
	"agriland/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	configPath := getEnv("CONFIG_PATH", config.DefaultPath)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		"path", configPath,
		"database", cfg.Database.Driver,
		"search_enabled", cfg.Search.Meilisearch.Host != "",
		"redis_enabled", cfg.Redis.Address != "",
	)

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if cfg.Database.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	if cfg.Database.Seed {
		if err := repository.NewSeedRepository(db, logger).SeedDatabase(context.Background()); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	var index search.LandIndex = search.NoopIndex{}
	if host := cfg.Search.Meilisearch.Host; host != "" {
		meili := search.NewMeiliIndex(host, cfg.Search.Meilisearch.APIKey, cfg.Search.Meilisearch.Index, logger)
		if err := meili.InitIndex(); err != nil {
			logger.Warn("failed to initialize search index", "host", host, "error", err.Error())
		}
		index = meili
	}

	// the scheduler only sweeps limiter state held in this process
	var (
		intakeLimiter middleware.Limiter
		sweeper       scheduler.Sweeper
	)
	if cfg.RateLimit.Enabled {
		window := cfg.RateLimit.GetRateLimitWindow()
		if cfg.Redis.Address != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Address,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()
			if err := client.Ping(context.Background()).Err(); err != nil {
				logger.Warn("redis unreachable, rate limiter will fail open", "address", cfg.Redis.Address, "error", err.Error())
			}
			intakeLimiter = middleware.NewRedisLimiter(client, "ratelimit:soil-requests:", cfg.RateLimit.Requests, window)
		} else {
			memory := middleware.NewMemoryLimiter(cfg.RateLimit.Requests, window)
			intakeLimiter, sweeper = memory, memory
		}
	}

	store := repository.NewStore(db)
	requestService := service.NewRequestService(store, logger)
	landService := service.NewLandService(store, index, requestService,
		service.LandServiceConfig{AutoRequestOnListing: cfg.Workflow.AutoRequestOnListing}, logger)
	technicianService := service.NewTechnicianService(store, logger)
	missionService := service.NewMissionService(store, index, logger)
	analyticsService := service.NewAnalyticsService(store.Analytics, logger)

	jobs := scheduler.NewScheduler(cfg.Scheduler, landService, missionService, sweeper, logger)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	engine := router.New(router.Deps{
		Lands:         controller.NewLandController(landService, logger),
		Requests:      controller.NewRequestController(requestService, logger),
		Technicians:   controller.NewTechnicianController(technicianService, logger),
		Missions:      controller.NewMissionController(missionService, logger),
		Analytics:     controller.NewAnalyticsController(analyticsService, logger),
		Metrics:       middleware.NewMetrics(),
		IntakeLimiter: intakeLimiter,
		DB:            sqlDB,
		CORSOrigins:   cfg.Server.CORSOrigins,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.GetShutdownTimeout().String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLogger builds the process logger from the logging section
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
