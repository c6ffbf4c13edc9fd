package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agriland/internal/apperr"
	"agriland/internal/model"
	"agriland/internal/repository"
	"agriland/internal/search"
)

// MissionService defines the interface for the mission workflow
type MissionService interface {
	Assign(ctx context.Context, in AssignInput) (*model.Mission, error)
	Get(ctx context.Context, id string) (*model.Mission, error)
	List(ctx context.Context, q repository.MissionQuery) (model.Page[model.Mission], error)
	Update(ctx context.Context, id string, in MissionUpdate) (*model.Mission, error)
	Start(ctx context.Context, id string) (*model.Mission, error)
	Complete(ctx context.Context, id string, in CompleteInput) (*model.Mission, error)
	Cancel(ctx context.Context, id string) (*model.Mission, error)
	Delete(ctx context.Context, id string) error
	Orphaned(ctx context.Context) ([]model.Mission, error)
	Overdue(ctx context.Context) ([]model.Mission, error)
}

// AssignInput creates a mission for a pending request
type AssignInput struct {
	RequestID     string          `json:"requestId"`
	TechnicianID  string          `json:"technicianId"`
	ScheduledDate time.Time       `json:"scheduledDate"`
	Instructions  string          `json:"instructions"`
	LandInfo      *model.LandInfo `json:"landInfo"`
}

// MissionUpdate holds the editable fields of an active mission; nil fields are left untouched
type MissionUpdate struct {
	ScheduledDate   *time.Time      `json:"scheduledDate"`
	Instructions    *string         `json:"instructions"`
	TechnicianNotes *string         `json:"technicianNotes"`
	Attachments     []string        `json:"attachments"`
	LandInfo        *model.LandInfo `json:"landInfo"`
}

// CompleteInput is the technician's report closing a mission
type CompleteInput struct {
	SoilMeasurement model.SoilMeasurement `json:"soilMeasurement"`
	TechnicianNotes string                `json:"technicianNotes"`
	// LandInfo replaces the parcel description given at assignment, if any
	LandInfo *model.LandInfo `json:"landInfo"`
}

// missionService implements MissionService
type missionService struct {
	store  *repository.Store
	index  search.LandIndex
	logger *slog.Logger
	now    func() time.Time
}

// NewMissionService creates a new mission service
func NewMissionService(store *repository.Store, index search.LandIndex, logger *slog.Logger) MissionService {
	if index == nil {
		index = search.NoopIndex{}
	}
	return &missionService{
		store:  store,
		index:  index,
		logger: logger,
		now:    time.Now,
	}
}

// startOfDay truncates t to midnight UTC
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// validateSchedule rejects missing dates and days already gone
func (s *missionService) validateSchedule(date time.Time) error {
	if date.IsZero() {
		return apperr.Validation("scheduledDate", "is required")
	}
	if date.UTC().Before(startOfDay(s.now())) {
		return apperr.Validation("scheduledDate", "must not be in the past")
	}
	return nil
}

// Assign binds a technician to a pending request. The mission is created and
// the request moves to processing in one transaction; a request that is no
// longer pending rejects the assignment and nothing is written.
func (s *missionService) Assign(ctx context.Context, in AssignInput) (*model.Mission, error) {
	if strings.TrimSpace(in.RequestID) == "" {
		return nil, apperr.Validation("requestId", "is required")
	}
	if strings.TrimSpace(in.TechnicianID) == "" {
		return nil, apperr.Validation("technicianId", "is required")
	}
	if err := s.validateSchedule(in.ScheduledDate); err != nil {
		return nil, err
	}
	if in.LandInfo != nil {
		if err := in.LandInfo.Validate(); err != nil {
			return nil, err
		}
	}

	var mission *model.Mission
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		req, err := tx.Requests.FindByID(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if req.Status != model.RequestPending {
			return apperr.Conflict("request %s is %s; only pending requests can be assigned", req.ID, req.Status)
		}

		tech, err := tx.Technicians.FindByID(ctx, in.TechnicianID)
		if err != nil {
			return err
		}
		if !tech.IsActive() {
			return apperr.Conflict("technician %s is %s and cannot take missions", tech.ID, tech.Status)
		}

		changed, err := tx.Requests.UpdateStatusIf(ctx, req.ID, []model.RequestStatus{model.RequestPending}, model.RequestProcessing)
		if err != nil {
			return err
		}
		if !changed {
			return apperr.Conflict("request %s was assigned concurrently", req.ID)
		}

		owner := &model.OwnerInfo{FullName: req.FullName, Email: req.Email, Phone: req.Phone}
		landID := req.LandID
		if landID != nil {
			land, err := tx.Lands.FindByID(ctx, *landID)
			switch {
			case err == nil:
				owner.ID = land.OwnerID
			case errors.Is(err, apperr.ErrNotFound):
				s.logger.Warn("request references a missing land",
					"request_id", req.ID,
					"land_id", *landID,
				)
				landID = nil
			default:
				return err
			}
		}

		mission = &model.Mission{
			RequestID:     req.ID,
			TechnicianID:  tech.ID,
			Status:        model.MissionAssigned,
			ScheduledDate: in.ScheduledDate.UTC(),
			Instructions:  in.Instructions,
			Attachments:   []string{},
			OwnerInfo:     owner,
			LandInfo:      in.LandInfo,
			LandID:        landID,
		}
		return tx.Missions.Create(ctx, mission)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("mission assigned",
		"mission_id", mission.ID,
		"request_id", mission.RequestID,
		"technician_id", mission.TechnicianID,
		"scheduled_date", mission.ScheduledDate.Format(time.RFC3339),
	)
	return mission, nil
}

func (s *missionService) Get(ctx context.Context, id string) (*model.Mission, error) {
	return s.store.Missions.FindByID(ctx, id)
}

func (s *missionService) List(ctx context.Context, q repository.MissionQuery) (model.Page[model.Mission], error) {
	q.Page = q.Page.Normalize()
	missions, total, err := s.store.Missions.List(ctx, q)
	if err != nil {
		return model.Page[model.Mission]{}, err
	}
	return model.NewPage(missions, total, q.Page), nil
}

// Update edits schedule, instructions, notes or attachments of an active mission
func (s *missionService) Update(ctx context.Context, id string, in MissionUpdate) (*model.Mission, error) {
	mission, err := s.store.Missions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !mission.Status.IsActive() {
		return nil, apperr.Conflict("mission %s is %s and can no longer be edited", id, mission.Status)
	}

	var columns []string
	values := model.Mission{}
	if in.ScheduledDate != nil {
		if err := s.validateSchedule(*in.ScheduledDate); err != nil {
			return nil, err
		}
		values.ScheduledDate = in.ScheduledDate.UTC()
		columns = append(columns, "scheduled_date")
	}
	if in.Instructions != nil {
		values.Instructions = *in.Instructions
		columns = append(columns, "instructions")
	}
	if in.TechnicianNotes != nil {
		values.TechnicianNotes = *in.TechnicianNotes
		columns = append(columns, "technician_notes")
	}
	if in.Attachments != nil {
		values.Attachments = in.Attachments
		columns = append(columns, "attachments")
	}
	if in.LandInfo != nil {
		if err := in.LandInfo.Validate(); err != nil {
			return nil, err
		}
		values.LandInfo = in.LandInfo
		columns = append(columns, "land_info")
	}
	if len(columns) == 0 {
		return nil, apperr.Validation("", "no editable field given")
	}

	if err := s.store.Missions.Patch(ctx, id, &values, columns...); err != nil {
		return nil, err
	}
	s.logger.Info("mission updated", "mission_id", id, "columns", columns)
	return s.store.Missions.FindByID(ctx, id)
}

// Start moves an assigned mission to in_progress
func (s *missionService) Start(ctx context.Context, id string) (*model.Mission, error) {
	changed, err := s.store.Missions.UpdateStatusIf(ctx, id, []model.MissionStatus{model.MissionAssigned}, model.MissionInProgress)
	if err != nil {
		return nil, err
	}
	mission, err := s.store.Missions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperr.Conflict("mission %s is %s; only assigned missions can be started", id, mission.Status)
	}
	s.logger.Info("mission started", "mission_id", id)
	return mission, nil
}

// Complete closes a mission with the technician's soil measurement. In one
// transaction the mission is completed, its request is completed, the target
// land receives the measured soil, GPS fix and photos, and the technician's
// counter is incremented. Completing an already completed mission returns it
// unchanged.
func (s *missionService) Complete(ctx context.Context, id string, in CompleteInput) (*model.Mission, error) {
	measurement := in.SoilMeasurement
	if err := measurement.Validate(); err != nil {
		return nil, err
	}
	if in.LandInfo != nil {
		if err := in.LandInfo.Validate(); err != nil {
			return nil, err
		}
	}

	var (
		out         *model.Mission
		touchedLand string
		replayed    bool
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		mission, err := tx.Missions.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if mission.Status == model.MissionCompleted {
			out, replayed = mission, true
			return nil
		}
		if !mission.Status.IsActive() {
			return apperr.Conflict("mission %s is %s and cannot be completed", id, mission.Status)
		}

		changed, err := tx.Missions.UpdateStatusIf(ctx, id, model.ActiveMissionStatuses, model.MissionCompleted)
		if err != nil {
			return err
		}
		if !changed {
			current, err := tx.Missions.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if current.Status == model.MissionCompleted {
				out, replayed = current, true
				return nil
			}
			return apperr.Conflict("mission %s is %s and cannot be completed", id, current.Status)
		}

		tech, err := tx.Technicians.FindByID(ctx, mission.TechnicianID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if measurement.MeasuredAt.IsZero() {
			measurement.MeasuredAt = now
		}
		if measurement.PerformedBy.TechnicianID == "" {
			measurement.PerformedBy = model.PerformedBy{
				TechnicianID: tech.ID,
				FullName:     tech.FullName,
				Phone:        tech.Phone,
			}
		}

		landInfo := mission.LandInfo
		if in.LandInfo != nil {
			landInfo = in.LandInfo
		}
		landID, err := s.syncLand(ctx, tx, mission, landInfo, &measurement)
		if err != nil {
			return err
		}
		touchedLand = landID

		values := model.Mission{
			CompletedDate:   &now,
			SoilMeasurement: &measurement,
			TechnicianNotes: mission.TechnicianNotes,
			LandInfo:        landInfo,
		}
		if in.TechnicianNotes != "" {
			values.TechnicianNotes = in.TechnicianNotes
		}
		columns := []string{"completed_date", "soil_measurement", "technician_notes", "land_info"}
		if landID != "" {
			values.LandID = &landID
			columns = append(columns, "land_id")
		}
		if err := tx.Missions.Patch(ctx, id, &values, columns...); err != nil {
			return err
		}

		changed, err = tx.Requests.UpdateStatusIf(ctx, mission.RequestID,
			[]model.RequestStatus{model.RequestProcessing}, model.RequestCompleted)
		if err != nil {
			return err
		}
		if !changed {
			return apperr.Conflict("request %s of mission %s is not processing", mission.RequestID, id)
		}

		if err := tx.Technicians.IncrementCompletedMissions(ctx, tech.ID); err != nil {
			return err
		}

		out, err = tx.Missions.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		s.logger.Info("mission already completed", "mission_id", id)
		return out, nil
	}

	s.logger.Info("mission completed",
		"mission_id", id,
		"request_id", out.RequestID,
		"technician_id", out.TechnicianID,
		"land_id", touchedLand,
	)
	if touchedLand != "" {
		s.reindexLand(ctx, touchedLand)
	}
	return out, nil
}

// syncLand writes the measurement into the mission's land. A mission without a
// land gets one created from landInfo; with neither, no land is written.
// The measurement has been validated, so its GPS fix is present.
// It returns the id of the land written, or "".
func (s *missionService) syncLand(ctx context.Context, tx *repository.Store, mission *model.Mission, landInfo *model.LandInfo, m *model.SoilMeasurement) (string, error) {
	soil := m.SoilParameters
	location := model.NewGeoPoint(m.Location.Lat, m.Location.Lng)

	if mission.LandID != nil {
		land, err := tx.Lands.FindByID(ctx, *mission.LandID)
		switch {
		case err == nil:
			images := append([]string{}, land.Images...)
			images = append(images, m.Photos...)
			values := model.Land{
				SoilParameters: &soil,
				Location:       location,
				Images:         images,
			}
			if err := tx.Lands.Patch(ctx, land.ID, &values, "soil_parameters", "location", "images"); err != nil {
				return "", err
			}
			return land.ID, nil
		case errors.Is(err, apperr.ErrNotFound):
			s.logger.Warn("mission land no longer exists",
				"mission_id", mission.ID,
				"land_id", *mission.LandID,
			)
		default:
			return "", err
		}
	}

	if landInfo == nil {
		return "", nil
	}

	ownerID := ""
	if mission.OwnerInfo != nil {
		ownerID = mission.OwnerInfo.ID
		if ownerID == "" {
			ownerID = mission.OwnerInfo.Email
		}
	}
	if ownerID == "" {
		req, err := tx.Requests.FindByID(ctx, mission.RequestID)
		if err != nil {
			return "", err
		}
		ownerID = req.Email
	}

	images := append([]string{}, m.Photos...)
	land := &model.Land{
		OwnerID:          ownerID,
		Title:            landInfo.Title,
		Surface:          landInfo.Surface,
		Type:             landInfo.Type,
		Price:            landInfo.Price,
		PriceUnit:        landInfo.PriceUnit,
		Status:           model.LandStatusAvailable,
		Address:          landInfo.Address,
		Location:         location,
		SoilParameters:   &soil,
		RecommendedCrops: []string{},
		Images:           images,
	}
	if err := land.Validate(); err != nil {
		return "", err
	}
	if err := tx.Lands.Create(ctx, land); err != nil {
		return "", err
	}
	return land.ID, nil
}

// Cancel stops an active mission and puts its request back to pending so it can be reassigned
func (s *missionService) Cancel(ctx context.Context, id string) (*model.Mission, error) {
	var out *model.Mission
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		mission, err := tx.Missions.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !mission.Status.IsActive() {
			return apperr.Conflict("mission %s is %s and cannot be cancelled", id, mission.Status)
		}
		changed, err := tx.Missions.UpdateStatusIf(ctx, id, model.ActiveMissionStatuses, model.MissionCancelled)
		if err != nil {
			return err
		}
		if !changed {
			return apperr.Conflict("mission %s changed status concurrently", id)
		}
		if err := s.releaseRequest(ctx, tx, mission); err != nil {
			return err
		}
		out, err = tx.Missions.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("mission cancelled", "mission_id", id, "request_id", out.RequestID)
	return out, nil
}

// Delete removes a mission. Deleting an active mission releases its request like Cancel.
func (s *missionService) Delete(ctx context.Context, id string) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		mission, err := tx.Missions.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if mission.Status.IsActive() {
			if err := s.releaseRequest(ctx, tx, mission); err != nil {
				return err
			}
		}
		return tx.Missions.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("mission deleted", "mission_id", id)
	return nil
}

// releaseRequest moves the mission's request back to pending when the state
// machine allows it. A finished or missing request is left as it is.
func (s *missionService) releaseRequest(ctx context.Context, tx *repository.Store, mission *model.Mission) error {
	req, err := tx.Requests.FindByID(ctx, mission.RequestID)
	if errors.Is(err, apperr.ErrNotFound) {
		s.logger.Warn("request not released: it no longer exists",
			"mission_id", mission.ID,
			"request_id", mission.RequestID,
		)
		return nil
	}
	if err != nil {
		return err
	}
	if !model.CanTransition(req.Status, model.RequestPending) {
		s.logger.Warn("request not released",
			"mission_id", mission.ID,
			"request_id", req.ID,
			"status", req.Status,
		)
		return nil
	}

	changed, err := tx.Requests.UpdateStatusIf(ctx, req.ID, []model.RequestStatus{req.Status}, model.RequestPending)
	if err != nil {
		return err
	}
	if !changed {
		return apperr.Conflict("request %s changed status concurrently", req.ID)
	}
	return nil
}

// Orphaned lists missions whose request was deleted
func (s *missionService) Orphaned(ctx context.Context) ([]model.Mission, error) {
	missions, err := s.store.Missions.FindOrphaned(ctx)
	if err != nil {
		return nil, err
	}
	if missions == nil {
		missions = []model.Mission{}
	}
	return missions, nil
}

// Overdue lists missions still assigned after their scheduled day
func (s *missionService) Overdue(ctx context.Context) ([]model.Mission, error) {
	return s.store.Missions.FindOverdue(ctx, startOfDay(s.now()))
}

func (s *missionService) reindexLand(ctx context.Context, id string) {
	land, err := s.store.Lands.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("failed to reload land for indexing", "land_id", id, "error", err.Error())
		return
	}
	if err := s.index.IndexLand(ctx, land); err != nil {
		s.logger.Warn("failed to index land", "land_id", id, "error", err.Error())
	}
}
