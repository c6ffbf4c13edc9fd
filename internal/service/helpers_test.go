package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"agriland/internal/model"
	"agriland/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testNow is the fixed clock of the workflow tests
var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore opens a private in-memory database with every table migrated
func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := "file:" + name + "?mode=memory&cache=shared"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewStore(db)
}

func newTestMissionService(store *repository.Store) *missionService {
	svc := NewMissionService(store, nil, testLogger()).(*missionService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func createTechnician(t *testing.T, store *repository.Store, email string, status model.TechnicianStatus, regions ...string) *model.Technician {
	t.Helper()
	tech := &model.Technician{
		FullName:        "Tech " + email,
		Email:           email,
		Phone:           "+221770000000",
		CoverageRegions: regions,
		Status:          status,
	}
	if err := store.Technicians.Create(context.Background(), tech); err != nil {
		t.Fatalf("create technician: %v", err)
	}
	return tech
}

func createLand(t *testing.T, store *repository.Store, title string) *model.Land {
	t.Helper()
	defaults := model.DefaultSoilParameters()
	land := &model.Land{
		OwnerID:          "owner-1",
		Title:            title,
		Surface:          5,
		Type:             model.LandTypeRent,
		Price:            500000,
		PriceUnit:        "FCFA",
		Address:          model.Address{City: "Thies", Region: "Thies", Commune: "Pout"},
		SoilParameters:   &defaults,
		RecommendedCrops: []string{"Mil"},
		Images:           []string{"front.jpg"},
	}
	if err := store.Lands.Create(context.Background(), land); err != nil {
		t.Fatalf("create land: %v", err)
	}
	return land
}

func createRequest(t *testing.T, store *repository.Store, region string, landID *string) *model.SoilAnalysisRequest {
	t.Helper()
	req := &model.SoilAnalysisRequest{
		FullName: "Aminata Sow",
		Email:    "aminata@example.sn",
		Phone:    "+221780000000",
		Region:   region,
		Surface:  5,
		LandID:   landID,
	}
	if landID != nil {
		req.Origin = model.OriginLandListing
	}
	if err := store.Requests.Create(context.Background(), req); err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

func validMeasurement(ph float64) model.SoilMeasurement {
	params := model.DefaultSoilParameters()
	params.Ph = ph
	return model.SoilMeasurement{
		Sensor:         model.Sensor{Type: "multiparameter", Model: "SM-300"},
		Location:       &model.MeasurementLocation{Lat: 14.79, Lng: -16.93},
		SoilParameters: params,
		Photos:         []string{"sample.jpg"},
	}
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
