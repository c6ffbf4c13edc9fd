package router

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agriland/internal/controller"
	"agriland/internal/middleware"
	"agriland/internal/model"
	"agriland/internal/repository"
	"agriland/internal/search"
	"agriland/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer wires the real services over an in-memory database
func newTestServer(t *testing.T, intakeLimit int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
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

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewStore(db)
	index := search.NoopIndex{}
	requests := service.NewRequestService(store, log)
	lands := service.NewLandService(store, index, requests, service.LandServiceConfig{AutoRequestOnListing: true}, log)
	technicians := service.NewTechnicianService(store, log)
	missions := service.NewMissionService(store, index, log)

	return New(Deps{
		Lands:         controller.NewLandController(lands, log),
		Requests:      controller.NewRequestController(requests, log),
		Technicians:   controller.NewTechnicianController(technicians, log),
		Missions:      controller.NewMissionController(missions, log),
		Analytics:     controller.NewAnalyticsController(service.NewAnalyticsService(store.Analytics, log), log),
		Metrics:       middleware.NewMetrics(),
		IntakeLimiter: middleware.NewMemoryLimiter(intakeLimit, time.Hour),
		DB:            sqlDB,
		CORSOrigins:   []string{"http://localhost:3000"},
		Logger:        log,
	})
}

func do(t *testing.T, r *gin.Engine, method, target, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, target, w.Body.String(), err)
		}
	}
	return w.Code
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestServer(t, 10)

	var health map[string]any
	if code := do(t, r, "GET", "/health", "", &health); code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, code)
	}
	if health["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", health["status"])
	}

	do(t, r, "GET", "/api/lands/missing-id", "", nil)

	var snap middleware.MetricsSnapshot
	if code := do(t, r, "GET", "/metrics", "", &snap); code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, code)
	}
	if snap.RequestsByEndpoint["GET /api/lands/:id"] != 1 {
		t.Errorf("Expected the land lookup under its route template, got %v", snap.RequestsByEndpoint)
	}
}

func TestSoilRequestIntakeIsRateLimited(t *testing.T) {
	r := newTestServer(t, 2)
	body := `{"fullName":"Aminata Sow","email":"aminata@example.sn","phone":"+221771234567","region":"Kaolack","surface":4}`

	for i := 0; i < 2; i++ {
		if code := do(t, r, "POST", "/api/soil-requests", body, nil); code != http.StatusCreated {
			t.Fatalf("Request %d: expected %d, got %d", i+1, http.StatusCreated, code)
		}
	}
	if code := do(t, r, "POST", "/api/soil-requests", body, nil); code != http.StatusTooManyRequests {
		t.Errorf("Expected %d once the limit is reached, got %d", http.StatusTooManyRequests, code)
	}

	// reads are not limited
	var page model.Page[model.SoilAnalysisRequest]
	if code := do(t, r, "GET", "/api/soil-requests", "", &page); code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, code)
	}
	if page.Total != 2 {
		t.Errorf("Expected 2 requests, got %d", page.Total)
	}
}

func TestListingToMeasuredLandWorkflow(t *testing.T) {
	r := newTestServer(t, 10)

	var tech model.Technician
	code := do(t, r, "POST", "/api/technicians",
		`{"fullName":"Moussa Diop","email":"moussa@example.sn","phone":"+221770000001","coverageRegions":["Thies"]}`, &tech)
	if code != http.StatusCreated {
		t.Fatalf("Create technician: expected %d, got %d", http.StatusCreated, code)
	}

	// a listing without soil data opens a soil-analysis request
	var land model.Land
	code = do(t, r, "POST", "/api/lands", `{"ownerId":"owner-1","title":"Parcelle de Pout","surface":2.5,"type":"RENT",
		"price":150000,"address":{"region":"Thies","commune":"Pout"},
		"contact":{"fullName":"Awa Ndiaye","email":"awa@example.sn","phone":"+221770000002"}}`, &land)
	if code != http.StatusCreated {
		t.Fatalf("Create land: expected %d, got %d", http.StatusCreated, code)
	}

	var requests model.Page[model.SoilAnalysisRequest]
	do(t, r, "GET", "/api/soil-requests?landId="+land.ID, "", &requests)
	if len(requests.Data) != 1 || requests.Data[0].Origin != model.OriginLandListing {
		t.Fatalf("Expected one land_listing request, got %+v", requests.Data)
	}
	requestID := requests.Data[0].ID

	var available struct {
		Data []model.Technician `json:"data"`
	}
	do(t, r, "GET", "/api/technicians/available?region=Thies", "", &available)
	if len(available.Data) != 1 || available.Data[0].ID != tech.ID {
		t.Fatalf("Expected the Thies technician, got %+v", available.Data)
	}

	var mission model.Mission
	scheduled := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")
	code = do(t, r, "POST", "/api/missions",
		fmt.Sprintf(`{"requestId":%q,"technicianId":%q,"scheduledDate":%q}`, requestID, tech.ID, scheduled), &mission)
	if code != http.StatusCreated {
		t.Fatalf("Assign: expected %d, got %d", http.StatusCreated, code)
	}

	// the request is now taken
	code = do(t, r, "POST", "/api/missions",
		fmt.Sprintf(`{"requestId":%q,"technicianId":%q,"scheduledDate":%q}`, requestID, tech.ID, scheduled), nil)
	if code != http.StatusConflict {
		t.Errorf("Second assignment: expected %d, got %d", http.StatusConflict, code)
	}

	if code := do(t, r, "POST", "/api/missions/"+mission.ID+"/start", "", nil); code != http.StatusOK {
		t.Fatalf("Start: expected %d, got %d", http.StatusOK, code)
	}

	complete := `{"soilMeasurement":{"sensor":{"type":"multiparameter","model":"SM-200"},
		"location":{"lat":14.79,"lng":-16.93},"photos":["plot.jpg"],
		"soilParameters":{"ph":6.4,"moisture":18,"texture":"loamy","drainage":"good","npk":{"nitrogen":20,"phosphorus":15,"potassium":30}}}}`
	for i := 0; i < 2; i++ {
		if code := do(t, r, "POST", "/api/missions/"+mission.ID+"/complete", complete, &mission); code != http.StatusOK {
			t.Fatalf("Complete attempt %d: expected %d, got %d", i+1, http.StatusOK, code)
		}
	}
	if mission.Status != model.MissionCompleted || mission.SoilMeasurement == nil {
		t.Fatalf("Expected a completed mission with its measurement, got %+v", mission)
	}

	var measured model.Land
	do(t, r, "GET", "/api/lands/"+land.ID, "", &measured)
	if measured.SoilParameters == nil || measured.SoilParameters.Ph != 6.4 {
		t.Errorf("Expected the land to carry pH 6.4, got %+v", measured.SoilParameters)
	}
	if measured.Title != "Parcelle de Pout" {
		t.Errorf("Owner fields must be untouched, got title %q", measured.Title)
	}

	var request model.SoilAnalysisRequest
	do(t, r, "GET", "/api/soil-requests/"+requestID, "", &request)
	if request.Status != model.RequestCompleted {
		t.Errorf("Expected completed request, got %q", request.Status)
	}

	do(t, r, "GET", "/api/technicians/"+tech.ID, "", &tech)
	if tech.CompletedMissions != 1 {
		t.Errorf("Expected one completed mission after a replayed completion, got %d", tech.CompletedMissions)
	}

	var analytics service.AnalyticsResponse
	from := time.Now().UTC().Format("2006-01-02")
	to := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	if code := do(t, r, "GET", "/api/analytics/missions?startDate="+from+"&endDate="+to, "", &analytics); code != http.StatusOK {
		t.Fatalf("Analytics: expected %d, got %d", http.StatusOK, code)
	}
	if analytics.Summary.Completed != 1 || len(analytics.RegionBreakdown) != 1 || analytics.RegionBreakdown[0].Region != "Thies" {
		t.Errorf("Expected one completed Thies mission in the analytics, got %+v", analytics)
	}

	var nearby model.Page[service.NearbyLand]
	do(t, r, "GET", "/api/lands/nearby?lat=14.79&lng=-16.93&radiusKm=5", "", &nearby)
	if nearby.Total != 1 || nearby.Data[0].ID != land.ID {
		t.Errorf("Expected the measured land nearby, got %+v", nearby.Data)
	}
}

func TestHugePageNumberReturnsEmptyPage(t *testing.T) {
	r := newTestServer(t, 10)

	for _, target := range []string{
		"/api/lands?page=922337203685477581",
		"/api/lands/nearby?lat=14.79&lng=-16.93&radiusKm=5&page=922337203685477581",
		"/api/soil-requests?page=922337203685477581",
	} {
		var page model.Page[json.RawMessage]
		if code := do(t, r, "GET", target, "", &page); code != http.StatusOK {
			t.Errorf("%s: expected status code %d, got %d", target, http.StatusOK, code)
			continue
		}
		if len(page.Data) != 0 || page.Page != model.MaxPage {
			t.Errorf("%s: expected an empty last page, got %+v", target, page)
		}
	}
}
