// Package filter selects land listings by attribute and by distance.
// Every function here is pure and safe for concurrent use.
package filter

import (
	"strings"

	"agriland/internal/model"
)

// LandFilters is a partial set of predicates. A nil field does not filter.
// All set predicates must hold for a land to pass.
type LandFilters struct {
	Type            *model.LandType     `json:"type,omitempty"`
	MinSurface      *float64            `json:"minSurface,omitempty"`
	MaxSurface      *float64            `json:"maxSurface,omitempty"`
	MinPrice        *float64            `json:"minPrice,omitempty"`
	MaxPrice        *float64            `json:"maxPrice,omitempty"`
	MinPh           *float64            `json:"minPh,omitempty"`
	MaxPh           *float64            `json:"maxPh,omitempty"`
	Texture         []model.SoilTexture `json:"texture,omitempty"`
	Region          *string             `json:"region,omitempty"`
	RecommendedCrop *string             `json:"recommendedCrop,omitempty"`
	Status          *model.LandStatus   `json:"status,omitempty"`
}

// Key names one filter predicate
type Key string

const (
	KeyType            Key = "type"
	KeyMinSurface      Key = "minSurface"
	KeyMaxSurface      Key = "maxSurface"
	KeyMinPrice        Key = "minPrice"
	KeyMaxPrice        Key = "maxPrice"
	KeyMinPh           Key = "minPh"
	KeyMaxPh           Key = "maxPh"
	KeyTexture         Key = "texture"
	KeyRegion          Key = "region"
	KeyRecommendedCrop Key = "recommendedCrop"
	KeyStatus          Key = "status"
)

// Merge returns f with every predicate set in patch overriding f's.
// Predicates absent from patch are kept as they are.
func (f LandFilters) Merge(patch LandFilters) LandFilters {
	if patch.Type != nil {
		f.Type = patch.Type
	}
	if patch.MinSurface != nil {
		f.MinSurface = patch.MinSurface
	}
	if patch.MaxSurface != nil {
		f.MaxSurface = patch.MaxSurface
	}
	if patch.MinPrice != nil {
		f.MinPrice = patch.MinPrice
	}
	if patch.MaxPrice != nil {
		f.MaxPrice = patch.MaxPrice
	}
	if patch.MinPh != nil {
		f.MinPh = patch.MinPh
	}
	if patch.MaxPh != nil {
		f.MaxPh = patch.MaxPh
	}
	if patch.Texture != nil {
		f.Texture = append([]model.SoilTexture(nil), patch.Texture...)
	}
	if patch.Region != nil {
		f.Region = patch.Region
	}
	if patch.RecommendedCrop != nil {
		f.RecommendedCrop = patch.RecommendedCrop
	}
	if patch.Status != nil {
		f.Status = patch.Status
	}
	return f
}

// Clear returns f without the named predicates
func (f LandFilters) Clear(keys ...Key) LandFilters {
	for _, k := range keys {
		switch k {
		case KeyType:
			f.Type = nil
		case KeyMinSurface:
			f.MinSurface = nil
		case KeyMaxSurface:
			f.MaxSurface = nil
		case KeyMinPrice:
			f.MinPrice = nil
		case KeyMaxPrice:
			f.MaxPrice = nil
		case KeyMinPh:
			f.MinPh = nil
		case KeyMaxPh:
			f.MaxPh = nil
		case KeyTexture:
			f.Texture = nil
		case KeyRegion:
			f.Region = nil
		case KeyRecommendedCrop:
			f.RecommendedCrop = nil
		case KeyStatus:
			f.Status = nil
		}
	}
	return f
}

// Reset returns an empty filter set
func (LandFilters) Reset() LandFilters {
	return LandFilters{}
}

// IsEmpty reports whether no predicate is set
func (f LandFilters) IsEmpty() bool {
	return f.Type == nil && f.MinSurface == nil && f.MaxSurface == nil &&
		f.MinPrice == nil && f.MaxPrice == nil && f.MinPh == nil && f.MaxPh == nil &&
		len(f.Texture) == 0 && f.Region == nil && f.RecommendedCrop == nil && f.Status == nil
}

// needsSoil reports whether a soil predicate is set
func (f LandFilters) needsSoil() bool {
	return f.MinPh != nil || f.MaxPh != nil || len(f.Texture) > 0
}

// Apply returns the lands matching every predicate of f, in their original order
func Apply(lands []model.Land, f LandFilters) []model.Land {
	out := make([]model.Land, 0, len(lands))
	for i := range lands {
		if Match(&lands[i], f) {
			out = append(out, lands[i])
		}
	}
	return out
}

// Match reports whether one land satisfies f.
// A land without soil data fails any soil predicate.
func Match(l *model.Land, f LandFilters) bool {
	if f.Type != nil && l.Type != *f.Type {
		return false
	}
	if !inRange(l.Surface, f.MinSurface, f.MaxSurface) {
		return false
	}
	if !inRange(l.Price, f.MinPrice, f.MaxPrice) {
		return false
	}
	if f.needsSoil() {
		if l.SoilParameters == nil {
			return false
		}
		if !inRange(l.SoilParameters.Ph, f.MinPh, f.MaxPh) {
			return false
		}
		if len(f.Texture) > 0 && !containsTexture(f.Texture, l.SoilParameters.Texture) {
			return false
		}
	}
	if f.Region != nil && l.Address.Region != *f.Region {
		return false
	}
	if f.RecommendedCrop != nil && !hasCrop(l.RecommendedCrops, *f.RecommendedCrop) {
		return false
	}
	if f.Status != nil && l.Status != *f.Status {
		return false
	}
	return true
}

// inRange fails only when v is strictly below min or strictly above max
func inRange(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}

func containsTexture(set []model.SoilTexture, t model.SoilTexture) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

func hasCrop(crops []string, want string) bool {
	for _, c := range crops {
		if strings.EqualFold(c, want) {
			return true
		}
	}
	return false
}
