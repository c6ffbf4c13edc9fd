package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"agriland/internal/apperr"
	"agriland/internal/model"
	"agriland/internal/repository"
	"agriland/internal/service"

	"github.com/gin-gonic/gin"
	"log/slog"
)

type mockRequestService struct {
	service.RequestService

	err     error
	created *model.SoilAnalysisRequest
	query   repository.RequestQuery
	status  model.RequestStatus
}

func (m *mockRequestService) Create(_ context.Context, req *model.SoilAnalysisRequest) (*model.SoilAnalysisRequest, error) {
	m.created = req
	if m.err != nil {
		return nil, m.err
	}
	req.ID = "req-1"
	req.Status = model.RequestPending
	return req, nil
}

func (m *mockRequestService) List(_ context.Context, q repository.RequestQuery) (model.Page[model.SoilAnalysisRequest], error) {
	m.query = q
	return model.NewPage[model.SoilAnalysisRequest](nil, 0, q.Page), m.err
}

func (m *mockRequestService) UpdateStatus(_ context.Context, id string, to model.RequestStatus) (*model.SoilAnalysisRequest, error) {
	m.status = to
	if m.err != nil {
		return nil, m.err
	}
	return &model.SoilAnalysisRequest{ID: id, Status: to}, nil
}

func (m *mockRequestService) Delete(_ context.Context, id string) error {
	return m.err
}

func setupRequestRouter(controller *RequestController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	requests := r.Group("/api/soil-requests")
	{
		requests.POST("", controller.Create)
		requests.GET("", controller.List)
		requests.PATCH("/:id/status", controller.UpdateStatus)
		requests.DELETE("/:id", controller.Delete)
	}
	return r
}

func TestCreateSoilRequest(t *testing.T) {
	mockService := &mockRequestService{}
	router := setupRequestRouter(NewRequestController(mockService, slog.Default()))

	body := `{"fullName":"Aminata Sow","email":"aminata@example.sn","phone":"+221771234567",
		"region":"Kaolack","commune":"Ndoffane","surface":4,"coordinates":{"lat":14.1,"lng":-16.07}}`
	w := serve(router, "POST", "/api/soil-requests", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if mockService.created.Coordinates == nil || mockService.created.Coordinates.Lat != 14.1 {
		t.Errorf("Expected coordinates to reach the service, got %+v", mockService.created.Coordinates)
	}

	var resp model.SoilAnalysisRequest
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Status != model.RequestPending {
		t.Errorf("Expected pending, got %q", resp.Status)
	}
}

func TestCreateSoilRequest_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid email", `{"fullName":"A","email":"not-an-email","phone":"1","region":"Thies","surface":1}`},
		{"missing region", `{"fullName":"A","email":"a@example.sn","phone":"1","surface":1}`},
		{"missing surface", `{"fullName":"A","email":"a@example.sn","phone":"1","region":"Thies"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockRequestService{}
			router := setupRequestRouter(NewRequestController(mockService, slog.Default()))
			w := serve(router, "POST", "/api/soil-requests", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, w.Code)
			}
			if mockService.created != nil {
				t.Error("Service should not be called for an invalid body")
			}
		})
	}
}

func TestListSoilRequests_Filters(t *testing.T) {
	mockService := &mockRequestService{}
	router := setupRequestRouter(NewRequestController(mockService, slog.Default()))

	w := serve(router, "GET", "/api/soil-requests?status=Pending&origin=land_listing&search=sow&page=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}
	q := mockService.query
	if q.Status == nil || *q.Status != model.RequestPending {
		t.Errorf("Expected pending filter, got %v", q.Status)
	}
	if q.Origin == nil || *q.Origin != model.OriginLandListing {
		t.Errorf("Expected land_listing origin, got %v", q.Origin)
	}
	if q.Search != "sow" || q.Page.Page != 2 {
		t.Errorf("Unexpected query: %+v", q)
	}

	w = serve(router, "GET", "/api/soil-requests?origin=mobile", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Unknown origin: expected %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestUpdateSoilRequestStatus(t *testing.T) {
	mockService := &mockRequestService{}
	router := setupRequestRouter(NewRequestController(mockService, slog.Default()))

	w := serve(router, "PATCH", "/api/soil-requests/req-1/status", `{"status":"cancelled"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}
	if mockService.status != model.RequestCancelled {
		t.Errorf("Expected cancelled, got %q", mockService.status)
	}

	w = serve(router, "PATCH", "/api/soil-requests/req-1/status", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Missing status: expected %d, got %d", http.StatusBadRequest, w.Code)
	}

	mockService.err = apperr.Conflict("request is completed, cannot become cancelled")
	w = serve(router, "PATCH", "/api/soil-requests/req-1/status", `{"status":"cancelled"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Terminal request: expected %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestDeleteSoilRequest_ActiveMission(t *testing.T) {
	mockService := &mockRequestService{err: apperr.Conflict("request has an active mission")}
	router := setupRequestRouter(NewRequestController(mockService, slog.Default()))

	w := serve(router, "DELETE", "/api/soil-requests/req-1", "")

	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status code %d, got %d", http.StatusConflict, w.Code)
	}
	if resp := decodeError(t, w); resp.Message != "request has an active mission" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
}
