package filter

import (
	"math"

	"agriland/internal/model"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Haversine returns the great-circle distance between a and b in kilometres
func Haversine(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h slightly past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceTo returns the distance from center to a land, and false when the land has no location
func DistanceTo(center Point, l *model.Land) (float64, bool) {
	if l.Location == nil {
		return 0, false
	}
	return Haversine(center, Point{Lat: l.Location.Lat(), Lng: l.Location.Lng()}), true
}

// WithinRadius keeps the lands located at most radiusKm from center, in their original order.
// Lands without a location are dropped.
func WithinRadius(lands []model.Land, center Point, radiusKm float64) []model.Land {
	out := make([]model.Land, 0, len(lands))
	for i := range lands {
		d, ok := DistanceTo(center, &lands[i])
		if ok && d <= radiusKm {
			out = append(out, lands[i])
		}
	}
	return out
}

// SearchNearby prunes by distance first, then applies the attribute filters
func SearchNearby(lands []model.Land, center Point, radiusKm float64, f LandFilters) []model.Land {
	return Apply(WithinRadius(lands, center, radiusKm), f)
}
