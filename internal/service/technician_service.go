package service

import (
	"context"
	"log/slog"
	"strings"

	"agriland/internal/apperr"
	"agriland/internal/model"
	"agriland/internal/repository"
)

// TechnicianService defines the interface for technician management and selection
type TechnicianService interface {
	List(ctx context.Context, status *model.TechnicianStatus) ([]model.Technician, error)
	Get(ctx context.Context, id string) (*model.Technician, error)
	Create(ctx context.Context, t *model.Technician) (*model.Technician, error)
	Update(ctx context.Context, id string, t *model.Technician) (*model.Technician, error)
	Delete(ctx context.Context, id string) error
	AvailableTechnicians(ctx context.Context, region string) ([]model.Technician, error)
	AllActiveTechnicians(ctx context.Context) ([]model.Technician, error)
}

// technicianService implements TechnicianService
type technicianService struct {
	store  *repository.Store
	logger *slog.Logger
}

// NewTechnicianService creates a new technician service
func NewTechnicianService(store *repository.Store, logger *slog.Logger) TechnicianService {
	return &technicianService{store: store, logger: logger}
}

func (s *technicianService) List(ctx context.Context, status *model.TechnicianStatus) ([]model.Technician, error) {
	return s.store.Technicians.Find(ctx, status)
}

func (s *technicianService) Get(ctx context.Context, id string) (*model.Technician, error) {
	return s.store.Technicians.FindByID(ctx, id)
}

// Create registers a technician; the mission counter always starts at zero
func (s *technicianService) Create(ctx context.Context, t *model.Technician) (*model.Technician, error) {
	t.ID = ""
	t.CompletedMissions = 0
	t.Email = strings.TrimSpace(t.Email)
	t.CoverageRegions = trimRegions(t.CoverageRegions)
	if t.Status == "" {
		t.Status = model.TechnicianActive
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Technicians.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("technician created",
		"technician_id", t.ID,
		"regions", []string(t.CoverageRegions),
	)
	return t, nil
}

// Update replaces the editable profile of a technician. The completed
// missions counter is kept as stored.
func (s *technicianService) Update(ctx context.Context, id string, t *model.Technician) (*model.Technician, error) {
	current, err := s.store.Technicians.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.ID = id
	t.CompletedMissions = current.CompletedMissions
	t.Email = strings.TrimSpace(t.Email)
	t.CoverageRegions = trimRegions(t.CoverageRegions)
	if t.Status == "" {
		t.Status = current.Status
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Technicians.Update(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("technician updated", "technician_id", id, "status", t.Status)
	return s.store.Technicians.FindByID(ctx, id)
}

// Delete removes a technician that no mission references
func (s *technicianService) Delete(ctx context.Context, id string) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Technicians.FindByID(ctx, id); err != nil {
			return err
		}
		n, err := tx.Missions.CountByTechnician(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("technician %s is referenced by %d mission(s); set them inactive instead", id, n)
		}
		return tx.Technicians.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("technician deleted", "technician_id", id)
	return nil
}

// AvailableTechnicians returns the active technicians covering region
func (s *technicianService) AvailableTechnicians(ctx context.Context, region string) ([]model.Technician, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, apperr.Validation("region", "is required")
	}
	active, err := s.AllActiveTechnicians(ctx)
	if err != nil {
		return nil, err
	}
	return SelectAvailable(active, region), nil
}

// AllActiveTechnicians widens the pool to every active technician
func (s *technicianService) AllActiveTechnicians(ctx context.Context) ([]model.Technician, error) {
	status := model.TechnicianActive
	techs, err := s.store.Technicians.Find(ctx, &status)
	if err != nil {
		return nil, err
	}
	if techs == nil {
		techs = []model.Technician{}
	}
	return techs, nil
}

// SelectAvailable keeps the technicians that are active and cover region, in order
func SelectAvailable(techs []model.Technician, region string) []model.Technician {
	out := make([]model.Technician, 0, len(techs))
	for i := range techs {
		if techs[i].IsActive() && techs[i].Covers(region) {
			out = append(out, techs[i])
		}
	}
	return out
}

func trimRegions(regions []string) []string {
	out := make([]string, 0, len(regions))
	for _, r := range regions {
		out = append(out, strings.TrimSpace(r))
	}
	return out
}
