package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agriland/internal/apperr"
	"agriland/internal/filter"
	"agriland/internal/model"
	"agriland/internal/service"

	"github.com/gin-gonic/gin"
	"log/slog"
)

// mockLandService records the arguments it was called with.
// Methods a test does not stub fall through to the nil embedded interface.
type mockLandService struct {
	service.LandService

	land    *model.Land
	page    model.Page[model.Land]
	nearby  model.Page[service.NearbyLand]
	result  *service.ImportResult
	err     error
	filters filter.LandFilters
	req     model.PageRequest
	center  filter.Point
	radius  float64
	query   string
	status  model.LandStatus
	expect  *model.LandStatus
	contact *model.OwnerInfo
}

func (m *mockLandService) List(_ context.Context, f filter.LandFilters, page model.PageRequest) (model.Page[model.Land], error) {
	m.filters, m.req = f, page
	return m.page, m.err
}

func (m *mockLandService) Get(_ context.Context, id string) (*model.Land, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.land, nil
}

func (m *mockLandService) Create(_ context.Context, land *model.Land, contact *model.OwnerInfo) (*model.Land, error) {
	m.contact = contact
	if m.err != nil {
		return nil, m.err
	}
	land.ID = "land-1"
	return land, nil
}

func (m *mockLandService) UpdateStatus(_ context.Context, id string, to model.LandStatus, expected *model.LandStatus) (*model.Land, error) {
	m.status, m.expect = to, expected
	if m.err != nil {
		return nil, m.err
	}
	return m.land, nil
}

func (m *mockLandService) Delete(_ context.Context, id string) error {
	return m.err
}

func (m *mockLandService) SearchNearby(_ context.Context, center filter.Point, radiusKm float64, f filter.LandFilters, page model.PageRequest) (model.Page[service.NearbyLand], error) {
	m.center, m.radius, m.filters = center, radiusKm, f
	return m.nearby, m.err
}

func (m *mockLandService) Search(_ context.Context, query string, f filter.LandFilters, page model.PageRequest) (model.Page[model.Land], error) {
	m.query = query
	return m.page, m.err
}

func (m *mockLandService) Import(_ context.Context, records []model.RawLand) (*service.ImportResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func setupLandRouter(controller *LandController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	lands := r.Group("/api/lands")
	{
		lands.GET("", controller.List)
		lands.GET("/nearby", controller.Nearby)
		lands.GET("/search", controller.Search)
		lands.POST("/import", controller.Import)
		lands.GET("/:id", controller.Get)
		lands.POST("", controller.Create)
		lands.PATCH("/:id/status", controller.UpdateStatus)
		lands.DELETE("/:id", controller.Delete)
	}
	return r
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, target, nil)
	} else {
		req, _ = http.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal error response: %v", err)
	}
	return resp
}

func TestListLands_ParsesFilters(t *testing.T) {
	mockService := &mockLandService{page: model.NewPage([]model.Land{{ID: "a"}}, 1, model.PageRequest{Page: 1, Limit: 10})}
	router := setupLandRouter(NewLandController(mockService, slog.Default()))

	w := serve(router, "GET", "/api/lands?type=rent&minPh=6&maxPh=7.5&texture=clay,loamy&texture=sandy&region=Thies&page=1&limit=10", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	f := mockService.filters
	if f.Type == nil || *f.Type != model.LandTypeRent {
		t.Errorf("Expected type RENT, got %v", f.Type)
	}
	if f.MinPh == nil || *f.MinPh != 6 || f.MaxPh == nil || *f.MaxPh != 7.5 {
		t.Errorf("Expected pH range [6, 7.5], got %v %v", f.MinPh, f.MaxPh)
	}
	if len(f.Texture) != 3 {
		t.Errorf("Expected 3 textures, got %v", f.Texture)
	}
	if f.Region == nil || *f.Region != "Thies" {
		t.Errorf("Expected region Thies, got %v", f.Region)
	}
	if mockService.req.Limit != 10 {
		t.Errorf("Expected limit 10, got %d", mockService.req.Limit)
	}

	var page model.Page[model.Land]
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if page.Total != 1 || len(page.Data) != 1 {
		t.Errorf("Expected one land, got %+v", page)
	}
}

func TestListLands_InvalidQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"unknown type", "type=LEASE", "type"},
		{"unknown texture", "texture=gravel", "texture"},
		{"non-numeric price", "minPrice=cheap", "minPrice"},
		{"non-numeric page", "page=two", "page"},
		{"negative limit", "limit=-1", "page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupLandRouter(NewLandController(&mockLandService{}, slog.Default()))
			w := serve(router, "GET", "/api/lands?"+tt.query, "")

			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status code %d, got %d", http.StatusBadRequest, w.Code)
			}
			if resp := decodeError(t, w); resp.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, resp.Field)
			}
		})
	}
}

func TestNearbyLands(t *testing.T) {
	mockService := &mockLandService{}
	router := setupLandRouter(NewLandController(mockService, slog.Default()))

	w := serve(router, "GET", "/api/lands/nearby?lat=14.69&lng=-17.44&radiusKm=25&type=SALE", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}
	if mockService.center.Lat != 14.69 || mockService.center.Lng != -17.44 || mockService.radius != 25 {
		t.Errorf("Unexpected center/radius: %+v %v", mockService.center, mockService.radius)
	}
	if mockService.filters.Type == nil || *mockService.filters.Type != model.LandTypeSale {
		t.Errorf("Expected SALE filter, got %v", mockService.filters.Type)
	}

	w = serve(router, "GET", "/api/lands/nearby?lat=14.69&radiusKm=25", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Missing lng: expected %d, got %d", http.StatusBadRequest, w.Code)
	}
	if resp := decodeError(t, w); resp.Field != "lng" {
		t.Errorf("Expected field lng, got %q", resp.Field)
	}
}

func TestSearchLands_Unavailable(t *testing.T) {
	mockService := &mockLandService{err: apperr.Unavailable("search lands", errors.New("dial tcp: connection refused"))}
	router := setupLandRouter(NewLandController(mockService, slog.Default()))

	w := serve(router, "GET", "/api/lands/search?q=arachide", "")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status code %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
	if mockService.query != "arachide" {
		t.Errorf("Expected query arachide, got %q", mockService.query)
	}
	if resp := decodeError(t, w); strings.Contains(resp.Message, "dial tcp") {
		t.Errorf("Upstream error leaked to the client: %q", resp.Message)
	}
}

func TestCreateLand(t *testing.T) {
	mockService := &mockLandService{}
	router := setupLandRouter(NewLandController(mockService, slog.Default()))

	body := `{"ownerId":"owner-1","title":"Parcelle de Pout","surface":2.5,"type":"RENT","price":150000,
		"address":{"region":"Thies"},"contact":{"fullName":"Awa Ndiaye","email":"awa@example.sn","phone":"+221770000000"}}`
	w := serve(router, "POST", "/api/lands", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if mockService.contact == nil || mockService.contact.Email != "awa@example.sn" {
		t.Errorf("Expected contact to reach the service, got %+v", mockService.contact)
	}

	var land model.Land
	if err := json.Unmarshal(w.Body.Bytes(), &land); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if land.ID != "land-1" || land.Title != "Parcelle de Pout" {
		t.Errorf("Unexpected land: %+v", land)
	}
}

func TestCreateLand_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantField  string
	}{
		{
			name:       "missing title",
			body:       `{"ownerId":"o","surface":1,"type":"SALE"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"ownerId":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "service validation",
			body:       `{"ownerId":"o","title":"t","surface":1,"type":"SALE"}`,
			err:        apperr.Validation("price", "must not be negative"),
			wantStatus: http.StatusBadRequest,
			wantField:  "price",
		},
		{
			name:       "store failure",
			body:       `{"ownerId":"o","title":"t","surface":1,"type":"SALE"}`,
			err:        errors.New("database connection failed"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupLandRouter(NewLandController(&mockLandService{err: tt.err}, slog.Default()))
			w := serve(router, "POST", "/api/lands", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status code %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantField != "" {
				if resp := decodeError(t, w); resp.Field != tt.wantField {
					t.Errorf("Expected field %q, got %q", tt.wantField, resp.Field)
				}
			}
		})
	}
}

func TestUpdateLandStatus(t *testing.T) {
	mockService := &mockLandService{land: &model.Land{ID: "land-1", Status: model.LandStatusSold}}
	router := setupLandRouter(NewLandController(mockService, slog.Default()))

	w := serve(router, "PATCH", "/api/lands/land-1/status", `{"status":"SOLD","expectedStatus":"pending"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}
	if mockService.status != model.LandStatusSold {
		t.Errorf("Expected SOLD, got %q", mockService.status)
	}
	if mockService.expect == nil || *mockService.expect != model.LandStatusPending {
		t.Errorf("Expected expectedStatus PENDING, got %v", mockService.expect)
	}

	w = serve(router, "PATCH", "/api/lands/land-1/status", `{"status":"SOLD","expectedStatus":"GONE"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Unknown expectedStatus: expected %d, got %d", http.StatusBadRequest, w.Code)
	}

	mockService.err = apperr.Conflict("land is SOLD, cannot become AVAILABLE")
	w = serve(router, "PATCH", "/api/lands/land-1/status", `{"status":"AVAILABLE"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Conflict: expected %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestGetLand_NotFound(t *testing.T) {
	router := setupLandRouter(NewLandController(&mockLandService{err: apperr.NotFound("land", "nope")}, slog.Default()))

	w := serve(router, "GET", "/api/lands/nope", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestImportLands(t *testing.T) {
	mockService := &mockLandService{result: &service.ImportResult{Imported: 1, Rejected: []service.ImportError{}}}
	router := setupLandRouter(NewLandController(mockService, slog.Default()))

	w := serve(router, "POST", "/api/lands/import", `[{"id":"ext-1","title":"Champ","surface":"3"}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	for _, body := range []string{`[]`, `{"id":"ext-1"}`} {
		w = serve(router, "POST", "/api/lands/import", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Body %s: expected %d, got %d", body, http.StatusBadRequest, w.Code)
		}
	}
}

func TestDeleteLand(t *testing.T) {
	router := setupLandRouter(NewLandController(&mockLandService{}, slog.Default()))

	w := serve(router, "DELETE", "/api/lands/land-1", "")

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status code %d, got %d", http.StatusNoContent, w.Code)
	}
}
