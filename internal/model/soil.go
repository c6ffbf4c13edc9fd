package model

import (
	"strings"

	"agriland/internal/apperr"
)

// SoilTexture is the dominant particle class of a soil sample
type SoilTexture string

const (
	TextureSandy  SoilTexture = "sandy"
	TextureClay   SoilTexture = "clay"
	TextureLoamy  SoilTexture = "loamy"
	TextureSilty  SoilTexture = "silty"
	TexturePeaty  SoilTexture = "peaty"
	TextureChalky SoilTexture = "chalky"
)

// Drainage is how quickly water leaves the soil
type Drainage string

const (
	DrainageExcellent Drainage = "excellent"
	DrainageGood      Drainage = "good"
	DrainageModerate  Drainage = "moderate"
	DrainagePoor      Drainage = "poor"
)

// ParseTexture accepts any letter case ("LOAMY", "Loamy", "loamy")
func ParseTexture(s string) (SoilTexture, bool) {
	t := SoilTexture(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TextureSandy, TextureClay, TextureLoamy, TextureSilty, TexturePeaty, TextureChalky:
		return t, true
	}
	return "", false
}

// ParseDrainage accepts any letter case
func ParseDrainage(s string) (Drainage, bool) {
	d := Drainage(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DrainageExcellent, DrainageGood, DrainageModerate, DrainagePoor:
		return d, true
	}
	return "", false
}

// NPK holds nitrogen, phosphorus and potassium contents in mg/kg
type NPK struct {
	Nitrogen   float64 `json:"nitrogen"`
	Phosphorus float64 `json:"phosphorus"`
	Potassium  float64 `json:"potassium"`
}

// SoilParameters is the measured soil profile of a land parcel
type SoilParameters struct {
	Ph            float64     `json:"ph"`
	NPK           NPK         `json:"npk"`
	Texture       SoilTexture `json:"texture"`
	Moisture      float64     `json:"moisture"` // percent
	Drainage      Drainage    `json:"drainage"`
	OrganicMatter *float64    `json:"organicMatter,omitempty"`
	Salinity      *float64    `json:"salinity,omitempty"`
	CEC           *float64    `json:"cec,omitempty"`
}

// DefaultSoilParameters is the placeholder profile used for upstream records
// that carry no soil data
func DefaultSoilParameters() SoilParameters {
	return SoilParameters{
		Ph:       7,
		NPK:      NPK{},
		Texture:  TextureLoamy,
		Moisture: 50,
		Drainage: DrainageGood,
	}
}

// Validate rejects out-of-range values. Nothing is clamped.
func (p SoilParameters) Validate() error {
	if p.Ph < 0 || p.Ph > 14 {
		return apperr.Validation("soilParameters.ph", "must be between 0 and 14, got %g", p.Ph)
	}
	if p.Moisture < 0 || p.Moisture > 100 {
		return apperr.Validation("soilParameters.moisture", "must be between 0 and 100, got %g", p.Moisture)
	}
	if p.NPK.Nitrogen < 0 || p.NPK.Phosphorus < 0 || p.NPK.Potassium < 0 {
		return apperr.Validation("soilParameters.npk", "values must not be negative")
	}
	if _, ok := ParseTexture(string(p.Texture)); !ok {
		return apperr.Validation("soilParameters.texture", "unknown texture %q", p.Texture)
	}
	if _, ok := ParseDrainage(string(p.Drainage)); !ok {
		return apperr.Validation("soilParameters.drainage", "unknown drainage %q", p.Drainage)
	}
	for name, v := range map[string]*float64{"organicMatter": p.OrganicMatter, "salinity": p.Salinity, "cec": p.CEC} {
		if v != nil && *v < 0 {
			return apperr.Validation("soilParameters."+name, "must not be negative")
		}
	}
	return nil
}
