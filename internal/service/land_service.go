package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"agriland/internal/apperr"
	"agriland/internal/filter"
	"agriland/internal/model"
	"agriland/internal/repository"
	"agriland/internal/search"
)

// maxSearchHits bounds the ids fetched from the search index for one query
const maxSearchHits = 1000

// LandService defines the interface for land listing operations
type LandService interface {
	List(ctx context.Context, f filter.LandFilters, page model.PageRequest) (model.Page[model.Land], error)
	Get(ctx context.Context, id string) (*model.Land, error)
	Create(ctx context.Context, land *model.Land, contact *model.OwnerInfo) (*model.Land, error)
	Patch(ctx context.Context, id string, patch LandPatch) (*model.Land, error)
	UpdateStatus(ctx context.Context, id string, to model.LandStatus, expected *model.LandStatus) (*model.Land, error)
	Delete(ctx context.Context, id string) error
	SearchNearby(ctx context.Context, center filter.Point, radiusKm float64, f filter.LandFilters, page model.PageRequest) (model.Page[NearbyLand], error)
	Search(ctx context.Context, query string, f filter.LandFilters, page model.PageRequest) (model.Page[model.Land], error)
	Import(ctx context.Context, records []model.RawLand) (*ImportResult, error)
	ReindexAll(ctx context.Context) (int, error)
}

// LandPatch holds the owner-editable fields of a land; nil fields are left untouched.
// Soil, location and images belong to mission completion and cannot be patched here.
type LandPatch struct {
	Title            *string         `json:"title"`
	Description      *string         `json:"description"`
	Surface          *float64        `json:"surface"`
	Type             *model.LandType `json:"type"`
	Price            *float64        `json:"price"`
	PriceUnit        *string         `json:"priceUnit"`
	Address          *model.Address  `json:"address"`
	RecommendedCrops []string        `json:"recommendedCrops"`
}

// IsEmpty reports whether the patch changes nothing
func (p LandPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Surface == nil && p.Type == nil &&
		p.Price == nil && p.PriceUnit == nil && p.Address == nil && p.RecommendedCrops == nil
}

// NearbyLand is a land returned by a radius search with its distance to the center
type NearbyLand struct {
	model.Land
	DistanceKm float64 `json:"distanceKm"`
}

// ImportError describes an upstream record that could not be normalized
type ImportError struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportResult summarizes a batch import
type ImportResult struct {
	Imported int           `json:"imported"`
	Rejected []ImportError `json:"rejected"`
}

// LandServiceConfig toggles land workflow side effects
type LandServiceConfig struct {
	// AutoRequestOnListing submits a soil-analysis request for every new land without soil data
	AutoRequestOnListing bool
}

// landService implements LandService
type landService struct {
	store    *repository.Store
	index    search.LandIndex
	requests RequestService
	cfg      LandServiceConfig
	logger   *slog.Logger
}

// NewLandService creates a new land service
func NewLandService(store *repository.Store, index search.LandIndex, requests RequestService, cfg LandServiceConfig, logger *slog.Logger) LandService {
	if index == nil {
		index = search.NoopIndex{}
	}
	return &landService{
		store:    store,
		index:    index,
		requests: requests,
		cfg:      cfg,
		logger:   logger,
	}
}

// List returns one page of the lands matching f, newest first
func (s *landService) List(ctx context.Context, f filter.LandFilters, page model.PageRequest) (model.Page[model.Land], error) {
	lands, err := s.store.Lands.Find(ctx, repository.LandQuery{Filters: f})
	if err != nil {
		return model.Page[model.Land]{}, err
	}
	return model.Paginate(lands, page), nil
}

func (s *landService) Get(ctx context.Context, id string) (*model.Land, error) {
	return s.store.Lands.FindByID(ctx, id)
}

// Create stores a new listing. When enabled, a soil-analysis request is then
// submitted for it; that submission never fails the listing.
func (s *landService) Create(ctx context.Context, land *model.Land, contact *model.OwnerInfo) (*model.Land, error) {
	land.ID = ""
	if t, ok := model.ParseLandType(string(land.Type)); ok {
		land.Type = t
	}
	if land.Status == "" {
		land.Status = model.LandStatusAvailable
	}
	if st, ok := model.ParseLandStatus(string(land.Status)); ok {
		land.Status = st
	}
	if land.Status != model.LandStatusAvailable && land.Status != model.LandStatusPending {
		return nil, apperr.Validation("status", "a new listing must be AVAILABLE or PENDING")
	}
	if land.RecommendedCrops == nil {
		land.RecommendedCrops = []string{}
	}
	if land.Images == nil {
		land.Images = []string{}
	}
	if err := land.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Lands.Create(ctx, land); err != nil {
		return nil, err
	}
	s.logger.Info("land created",
		"land_id", land.ID,
		"owner_id", land.OwnerID,
		"region", land.Address.Region,
	)
	s.indexLand(ctx, land)

	if s.cfg.AutoRequestOnListing && !land.HasSoilData() {
		s.submitListingRequest(ctx, land, contact)
	}
	return land, nil
}

// submitListingRequest opens a soil-analysis request for a new listing.
// Without a complete owner contact the request is skipped. Failures are
// logged and swallowed.
func (s *landService) submitListingRequest(ctx context.Context, land *model.Land, contact *model.OwnerInfo) {
	if s.requests == nil {
		return
	}
	if missing := missingContactField(contact); missing != "" {
		s.logger.Warn("automatic soil-analysis request skipped: listing has no owner contact",
			"land_id", land.ID,
			"owner_id", land.OwnerID,
			"missing_field", missing,
		)
		return
	}
	landID := land.ID
	req := &model.SoilAnalysisRequest{
		FullName:    contact.FullName,
		Email:       contact.Email,
		Phone:       contact.Phone,
		Region:      land.Address.Region,
		Commune:     land.Address.Commune,
		Surface:     land.Surface,
		Description: fmt.Sprintf("Soil analysis for listing %q", land.Title),
		LandID:      &landID,
		Origin:      model.OriginLandListing,
	}
	if land.Location != nil {
		req.Coordinates = &model.Coordinates{Lat: land.Location.Lat(), Lng: land.Location.Lng()}
	}

	created, err := s.requests.Create(ctx, req)
	if err != nil {
		s.logger.Warn("automatic soil-analysis request failed",
			"land_id", land.ID,
			"error", err.Error(),
		)
		return
	}
	s.logger.Info("automatic soil-analysis request submitted",
		"land_id", land.ID,
		"request_id", created.ID,
	)
}

// missingContactField names the first contact field a request cannot do without
func missingContactField(contact *model.OwnerInfo) string {
	switch {
	case contact == nil:
		return "contact"
	case strings.TrimSpace(contact.FullName) == "":
		return "fullName"
	case strings.TrimSpace(contact.Email) == "":
		return "email"
	case strings.TrimSpace(contact.Phone) == "":
		return "phone"
	}
	return ""
}

// Patch applies owner edits. Only the edited columns are written so a
// concurrent mission completion keeps its soil, location and images.
func (s *landService) Patch(ctx context.Context, id string, patch LandPatch) (*model.Land, error) {
	if patch.IsEmpty() {
		return nil, apperr.Validation("", "no editable field given")
	}
	land, err := s.store.Lands.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if patch.Title != nil {
		land.Title = strings.TrimSpace(*patch.Title)
		columns = append(columns, "title")
	}
	if patch.Description != nil {
		land.Description = *patch.Description
		columns = append(columns, "description")
	}
	if patch.Surface != nil {
		land.Surface = *patch.Surface
		columns = append(columns, "surface")
	}
	if patch.Type != nil {
		t, ok := model.ParseLandType(string(*patch.Type))
		if !ok {
			return nil, apperr.Validation("type", "must be RENT or SALE")
		}
		land.Type = t
		columns = append(columns, "type")
	}
	if patch.Price != nil {
		land.Price = *patch.Price
		columns = append(columns, "price")
	}
	if patch.PriceUnit != nil {
		land.PriceUnit = *patch.PriceUnit
		columns = append(columns, "price_unit")
	}
	if patch.Address != nil {
		land.Address = *patch.Address
		columns = append(columns,
			"address_city", "address_region", "address_commune",
			"address_village", "address_full_address", "address_country",
		)
	}
	if patch.RecommendedCrops != nil {
		land.RecommendedCrops = patch.RecommendedCrops
		columns = append(columns, "recommended_crops")
	}

	if err := land.Validate(); err != nil {
		return nil, err
	}

	values := *land
	values.ID = ""
	if err := s.store.Lands.Patch(ctx, id, &values, columns...); err != nil {
		return nil, err
	}

	updated, err := s.store.Lands.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("land patched", "land_id", id, "columns", columns)
	s.indexLand(ctx, updated)
	return updated, nil
}

// UpdateStatus moves a land to status to. With expected set, the update only
// happens if the stored status still equals it.
func (s *landService) UpdateStatus(ctx context.Context, id string, to model.LandStatus, expected *model.LandStatus) (*model.Land, error) {
	status, ok := model.ParseLandStatus(string(to))
	if !ok {
		return nil, apperr.Validation("status", "unknown status %q", to)
	}

	land, err := s.store.Lands.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current := land.Status
	if expected != nil && *expected != current {
		return nil, apperr.Conflict("land %s is %s, expected %s", id, current, *expected)
	}
	if !land.CanTransitionTo(status) {
		return nil, apperr.Conflict("a %s land cannot move from %s to %s", land.Type, current, status)
	}

	changed, err := s.store.Lands.UpdateStatusIf(ctx, id, []model.LandStatus{current}, status)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperr.Conflict("land %s changed status concurrently", id)
	}

	updated, err := s.store.Lands.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("land status updated",
		"land_id", id,
		"from", current,
		"to", status,
	)
	s.indexLand(ctx, updated)
	return updated, nil
}

func (s *landService) Delete(ctx context.Context, id string) error {
	if err := s.store.Lands.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("land deleted", "land_id", id)
	if err := s.index.DeleteLand(ctx, id); err != nil {
		s.logger.Warn("failed to remove land from search index",
			"land_id", id,
			"error", err.Error(),
		)
	}
	return nil
}

// SearchNearby prunes by distance to center, then applies f
func (s *landService) SearchNearby(ctx context.Context, center filter.Point, radiusKm float64, f filter.LandFilters, page model.PageRequest) (model.Page[NearbyLand], error) {
	if err := model.NewGeoPoint(center.Lat, center.Lng).Validate(); err != nil {
		return model.Page[NearbyLand]{}, err
	}
	if radiusKm < 0 {
		return model.Page[NearbyLand]{}, apperr.Validation("radiusKm", "must not be negative")
	}

	lands, err := s.store.Lands.Find(ctx, repository.LandQuery{})
	if err != nil {
		return model.Page[NearbyLand]{}, err
	}

	found := filter.SearchNearby(lands, center, radiusKm, f)
	out := make([]NearbyLand, 0, len(found))
	for i := range found {
		d, _ := filter.DistanceTo(center, &found[i])
		out = append(out, NearbyLand{Land: found[i], DistanceKm: d})
	}
	return model.Paginate(out, page), nil
}

// Search runs a text query through the search index and keeps its ranking.
// Without an index, a case-insensitive substring match over the database is used.
func (s *landService) Search(ctx context.Context, query string, f filter.LandFilters, page model.PageRequest) (model.Page[model.Land], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, f, page)
	}

	ids, err := s.index.Search(ctx, query, maxSearchHits)
	if errors.Is(err, search.ErrDisabled) {
		lands, err := s.store.Lands.Find(ctx, repository.LandQuery{Filters: f})
		if err != nil {
			return model.Page[model.Land]{}, err
		}
		return model.Paginate(matchText(lands, query), page), nil
	}
	if err != nil {
		return model.Page[model.Land]{}, apperr.Unavailable("search lands", err)
	}
	if len(ids) == 0 {
		return model.Paginate([]model.Land{}, page), nil
	}

	lands, err := s.store.Lands.Find(ctx, repository.LandQuery{Filters: f, IDs: ids})
	if err != nil {
		return model.Page[model.Land]{}, err
	}
	return model.Paginate(orderByRank(lands, ids), page), nil
}

// Import normalizes upstream records and upserts the valid ones.
// Invalid records are reported and skipped.
func (s *landService) Import(ctx context.Context, records []model.RawLand) (*ImportResult, error) {
	result := &ImportResult{Rejected: []ImportError{}}
	lands := make([]model.Land, 0, len(records))

	for i, raw := range records {
		land, err := model.NormalizeLand(raw)
		if err != nil {
			rejected := ImportError{Index: i, Message: err.Error()}
			if id, ok := raw["id"].(string); ok {
				rejected.ID = id
			}
			var appErr *apperr.Error
			if errors.As(err, &appErr) {
				rejected.Field = appErr.Field
				rejected.Message = appErr.Message
			}
			result.Rejected = append(result.Rejected, rejected)
			continue
		}
		lands = append(lands, *land)
	}

	if err := s.store.Lands.Upsert(ctx, lands); err != nil {
		return nil, err
	}
	result.Imported = len(lands)

	for i := range lands {
		s.indexLand(ctx, &lands[i])
	}
	s.logger.Info("lands imported",
		"imported", result.Imported,
		"rejected", len(result.Rejected),
	)
	return result, nil
}

// ReindexAll rebuilds the search index from the database
func (s *landService) ReindexAll(ctx context.Context) (int, error) {
	lands, err := s.store.Lands.Find(ctx, repository.LandQuery{})
	if err != nil {
		return 0, err
	}
	if err := s.index.Reindex(ctx, lands); err != nil {
		return 0, apperr.Unavailable("reindex lands", err)
	}
	return len(lands), nil
}

// indexLand pushes land to the search index; failures only log
func (s *landService) indexLand(ctx context.Context, land *model.Land) {
	if err := s.index.IndexLand(ctx, land); err != nil {
		s.logger.Warn("failed to index land",
			"land_id", land.ID,
			"error", err.Error(),
		)
	}
}

// matchText keeps the lands whose title, description, region, commune or city contains query
func matchText(lands []model.Land, query string) []model.Land {
	q := strings.ToLower(query)
	out := make([]model.Land, 0, len(lands))
	for _, l := range lands {
		fields := []string{l.Title, l.Description, l.Address.Region, l.Address.Commune, l.Address.City}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// orderByRank returns lands in the order of ids, dropping ids with no land
func orderByRank(lands []model.Land, ids []string) []model.Land {
	byID := make(map[string]model.Land, len(lands))
	for _, l := range lands {
		byID[l.ID] = l
	}
	out := make([]model.Land, 0, len(lands))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out
}
