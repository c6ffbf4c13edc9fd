package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"agriland/internal/apperr"
	"agriland/internal/model"
	"agriland/internal/repository"
)

// RequestService defines the interface for soil-analysis request operations
type RequestService interface {
	Create(ctx context.Context, req *model.SoilAnalysisRequest) (*model.SoilAnalysisRequest, error)
	Get(ctx context.Context, id string) (*model.SoilAnalysisRequest, error)
	List(ctx context.Context, q repository.RequestQuery) (model.Page[model.SoilAnalysisRequest], error)
	UpdateStatus(ctx context.Context, id string, to model.RequestStatus) (*model.SoilAnalysisRequest, error)
	Delete(ctx context.Context, id string) error
}

// requestService implements RequestService
type requestService struct {
	store  *repository.Store
	logger *slog.Logger
}

// NewRequestService creates a new request service
func NewRequestService(store *repository.Store, logger *slog.Logger) RequestService {
	return &requestService{store: store, logger: logger}
}

// Create submits a new request; it always starts pending
func (s *requestService) Create(ctx context.Context, req *model.SoilAnalysisRequest) (*model.SoilAnalysisRequest, error) {
	req.ID = ""
	req.Status = model.RequestPending
	req.Email = strings.TrimSpace(req.Email)
	if req.LandID != nil && *req.LandID == "" {
		req.LandID = nil
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.LandID != nil {
		if _, err := s.store.Lands.FindByID(ctx, *req.LandID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.Validation("landId", "land %q does not exist", *req.LandID)
			}
			return nil, err
		}
	}

	if err := s.store.Requests.Create(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info("soil-analysis request created",
		"request_id", req.ID,
		"origin", req.Origin,
		"region", req.Region,
	)
	return req, nil
}

func (s *requestService) Get(ctx context.Context, id string) (*model.SoilAnalysisRequest, error) {
	return s.store.Requests.FindByID(ctx, id)
}

func (s *requestService) List(ctx context.Context, q repository.RequestQuery) (model.Page[model.SoilAnalysisRequest], error) {
	q.Page = q.Page.Normalize()
	requests, total, err := s.store.Requests.List(ctx, q)
	if err != nil {
		return model.Page[model.SoilAnalysisRequest]{}, err
	}
	return model.NewPage(requests, total, q.Page), nil
}

// UpdateStatus applies an admin status change. Only cancellation can be
// requested directly; processing and completed are set by the mission workflow.
// Cancelling a request cancels its active mission in the same transaction.
func (s *requestService) UpdateStatus(ctx context.Context, id string, to model.RequestStatus) (*model.SoilAnalysisRequest, error) {
	status, ok := model.ParseRequestStatus(string(to))
	if !ok {
		return nil, apperr.Validation("status", "unknown status %q", to)
	}
	if status != model.RequestCancelled {
		return nil, apperr.Validation("status", "only %s can be set directly; %s follows mission assignment and completion", model.RequestCancelled, status)
	}

	var cancelledMission string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		req, err := tx.Requests.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(req.Status, status) {
			return apperr.Conflict("request %s is %s and cannot become %s", id, req.Status, status)
		}
		changed, err := tx.Requests.UpdateStatusIf(ctx, id, []model.RequestStatus{req.Status}, status)
		if err != nil {
			return err
		}
		if !changed {
			return apperr.Conflict("request %s changed status concurrently", id)
		}

		mission, err := tx.Missions.FindActiveByRequest(ctx, id)
		if err != nil {
			return err
		}
		if mission != nil {
			if _, err := tx.Missions.UpdateStatusIf(ctx, mission.ID, model.ActiveMissionStatuses, model.MissionCancelled); err != nil {
				return err
			}
			cancelledMission = mission.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("soil-analysis request cancelled",
		"request_id", id,
		"mission_id", cancelledMission,
	)
	return s.store.Requests.FindByID(ctx, id)
}

// Delete removes a request. A request with an active mission must be cancelled first;
// missions of finished requests are kept and reported as orphaned.
func (s *requestService) Delete(ctx context.Context, id string) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Requests.FindByID(ctx, id); err != nil {
			return err
		}
		mission, err := tx.Missions.FindActiveByRequest(ctx, id)
		if err != nil {
			return err
		}
		if mission != nil {
			return apperr.Conflict("request %s has active mission %s; cancel it before deleting", id, mission.ID)
		}
		return tx.Requests.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("soil-analysis request deleted", "request_id", id)
	return nil
}
