package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"agriland/internal/apperr"
)

// RawLand is an upstream land record decoded from JSON as-is
type RawLand map[string]any

// Field aliases accepted from upstream records, first match wins
var (
	surfaceKeys = []string{"surface", "surfaceHectares", "surface_hectares"}
	ownerKeys   = []string{"ownerId", "owner_id", "owner"}
	titleKeys   = []string{"title", "name"}
	soilKeys    = []string{"soilParameters", "soil_parameters", "soil"}
	priceKeys   = []string{"price", "priceAmount"}
)

// NormalizeLand maps an upstream record onto the canonical Land shape.
//
// Both historical naming conventions are accepted: surface or surfaceHectares,
// nested npk or flat nitrogen/phosphorus/potassium, upper or lower case enums.
// Missing soil data is replaced by DefaultSoilParameters. Records without an
// id, title, owner, surface, price or type are rejected.
func NormalizeLand(raw RawLand) (*Land, error) {
	id := firstString(raw, "id", "_id")
	if id == "" {
		return nil, apperr.Validation("id", "is required")
	}
	title := firstString(raw, titleKeys...)
	if title == "" {
		return nil, apperr.Validation("title", "is required")
	}
	ownerID := ownerReference(raw)
	if ownerID == "" {
		return nil, apperr.Validation("ownerId", "is required")
	}
	surface, ok := firstNumber(raw, surfaceKeys...)
	if !ok {
		return nil, apperr.Validation("surface", "is required")
	}
	price, ok := firstNumber(raw, priceKeys...)
	if !ok {
		return nil, apperr.Validation("price", "is required")
	}
	landType, ok := ParseLandType(firstString(raw, "type"))
	if !ok {
		return nil, apperr.Validation("type", "must be RENT or SALE")
	}

	land := &Land{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: firstString(raw, "description"),
		Surface:     surface,
		Type:        landType,
		Price:       price,
		PriceUnit:   firstString(raw, "priceUnit", "price_unit"),
		Status:      LandStatusAvailable,
		Address:     normalizeAddress(raw),
		Location:    normalizeLocation(raw),
	}
	if s := firstString(raw, "status"); s != "" {
		status, ok := ParseLandStatus(s)
		if !ok {
			return nil, apperr.Validation("status", "unknown status %q", s)
		}
		land.Status = status
	}

	soil, err := normalizeSoil(raw)
	if err != nil {
		return nil, err
	}
	land.SoilParameters = &soil
	land.RecommendedCrops = stringList(raw["recommendedCrops"])
	land.Images = stringList(raw["images"])

	if err := land.Validate(); err != nil {
		return nil, err
	}
	land.Derive()
	return land, nil
}

func normalizeSoil(raw RawLand) (SoilParameters, error) {
	soil := DefaultSoilParameters()
	src := firstObject(raw, soilKeys...)
	if src == nil {
		return soil, nil
	}
	if v, ok := number(src["ph"]); ok {
		soil.Ph = v
	} else if v, ok := number(src["pH"]); ok {
		soil.Ph = v
	}
	if npk := firstObject(src, "npk", "NPK"); npk != nil {
		soil.NPK = readNPK(npk)
	} else {
		soil.NPK = readNPK(src)
	}
	if s := firstString(src, "texture"); s != "" {
		t, ok := ParseTexture(s)
		if !ok {
			return soil, apperr.Validation("soilParameters.texture", "unknown texture %q", s)
		}
		soil.Texture = t
	}
	if v, ok := number(src["moisture"]); ok {
		soil.Moisture = v
	}
	if s := firstString(src, "drainage"); s != "" {
		d, ok := ParseDrainage(s)
		if !ok {
			return soil, apperr.Validation("soilParameters.drainage", "unknown drainage %q", s)
		}
		soil.Drainage = d
	}
	soil.OrganicMatter = optionalNumber(src, "organicMatter", "organic_matter")
	soil.Salinity = optionalNumber(src, "salinity")
	soil.CEC = optionalNumber(src, "cec", "CEC")
	return soil, soil.Validate()
}

func readNPK(m map[string]any) NPK {
	var out NPK
	out.Nitrogen, _ = firstNumber(m, "nitrogen", "n", "N")
	out.Phosphorus, _ = firstNumber(m, "phosphorus", "p", "P")
	out.Potassium, _ = firstNumber(m, "potassium", "k", "K")
	return out
}

func normalizeAddress(raw RawLand) Address {
	src := firstObject(raw, "address", "location")
	if src == nil || firstString(src, "region", "city", "commune") == "" {
		src = raw
	}
	return Address{
		City:        firstString(src, "city"),
		Region:      firstString(src, "region"),
		Commune:     firstString(src, "commune"),
		Village:     firstString(src, "village"),
		FullAddress: firstString(src, "fullAddress", "full_address"),
		Country:     firstString(src, "country"),
	}
}

func normalizeLocation(raw RawLand) *GeoPoint {
	for _, key := range []string{"location", "coordinates", "gps"} {
		switch v := raw[key].(type) {
		case map[string]any:
			if coords, ok := v["coordinates"].([]any); ok && len(coords) == 2 {
				lng, okLng := number(coords[0])
				lat, okLat := number(coords[1])
				if okLng && okLat {
					return NewGeoPoint(lat, lng)
				}
			}
			lat, okLat := firstNumber(v, "lat", "latitude")
			lng, okLng := firstNumber(v, "lng", "lon", "longitude")
			if okLat && okLng {
				return NewGeoPoint(lat, lng)
			}
		case []any:
			if len(v) == 2 {
				lng, okLng := number(v[0])
				lat, okLat := number(v[1])
				if okLng && okLat {
					return NewGeoPoint(lat, lng)
				}
			}
		}
	}
	lat, okLat := firstNumber(raw, "latitude", "lat")
	lng, okLng := firstNumber(raw, "longitude", "lng")
	if okLat && okLng {
		return NewGeoPoint(lat, lng)
	}
	return nil
}

func ownerReference(raw RawLand) string {
	for _, key := range ownerKeys {
		switch v := raw[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			if s := firstString(v, "id", "_id"); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := number(m[k]); ok {
			return v, true
		}
	}
	return 0, false
}

func optionalNumber(m map[string]any, keys ...string) *float64 {
	if v, ok := firstNumber(m, keys...); ok {
		return &v
	}
	return nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func firstObject(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if obj, ok := m[k].(map[string]any); ok {
			return obj
		}
	}
	return nil
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
