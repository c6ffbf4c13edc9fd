package search

import (
	"context"
	"errors"

	"agriland/internal/model"
)

// ErrDisabled is returned by Search when no search engine is configured
var ErrDisabled = errors.New("search index disabled")

// LandIndex keeps a full-text copy of the land listings
type LandIndex interface {
	IndexLand(ctx context.Context, land *model.Land) error
	DeleteLand(ctx context.Context, id string) error
	Reindex(ctx context.Context, lands []model.Land) error
	// Search returns matching land ids, best match first
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// geoPoint is the _geo attribute of a document
type geoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// landDocument is the indexed form of a land
type landDocument struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Region           string    `json:"region"`
	Commune          string    `json:"commune"`
	City             string    `json:"city"`
	Type             string    `json:"type"`
	Status           string    `json:"status"`
	Surface          float64   `json:"surface"`
	Price            float64   `json:"price"`
	Texture          string    `json:"texture,omitempty"`
	RecommendedCrops []string  `json:"recommended_crops"`
	Geo              *geoPoint `json:"_geo,omitempty"`
}

func newLandDocument(l *model.Land) landDocument {
	doc := landDocument{
		ID:               l.ID,
		Title:            l.Title,
		Description:      l.Description,
		Region:           l.Address.Region,
		Commune:          l.Address.Commune,
		City:             l.Address.City,
		Type:             string(l.Type),
		Status:           string(l.Status),
		Surface:          l.Surface,
		Price:            l.Price,
		RecommendedCrops: []string(l.RecommendedCrops),
	}
	if doc.RecommendedCrops == nil {
		doc.RecommendedCrops = []string{}
	}
	if l.SoilParameters != nil {
		doc.Texture = string(l.SoilParameters.Texture)
	}
	if l.Location != nil {
		doc.Geo = &geoPoint{Lat: l.Location.Lat(), Lng: l.Location.Lng()}
	}
	return doc
}

// NoopIndex is used when no search engine is configured.
// Search finds nothing so callers fall back to the database.
type NoopIndex struct{}

func (NoopIndex) IndexLand(ctx context.Context, land *model.Land) error { return nil }
func (NoopIndex) DeleteLand(ctx context.Context, id string) error       { return nil }
func (NoopIndex) Reindex(ctx context.Context, lands []model.Land) error { return nil }
func (NoopIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	return nil, ErrDisabled
}
