package controller

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"agriland/internal/apperr"
	"agriland/internal/filter"
	"agriland/internal/model"

	"github.com/gin-gonic/gin"
)

// parseISO8601Date parses a date string in ISO 8601 format (RFC3339 is ISO 8601 compliant)
// Supports:
//   - RFC3339 (e.g., "2006-01-02T15:04:05Z07:00")
//   - RFC3339Nano (e.g., "2006-01-02T15:04:05.999999999Z07:00")
//   - YYYY-MM-DD (e.g., "2006-01-02"), read as midnight UTC
//   - YYYY-MM-DDTHH:MM:SS (e.g., "2006-01-02T15:04:05"), read as UTC
func parseISO8601Date(dateStr string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, dateStr); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", dateStr); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", dateStr); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unable to parse ISO 8601 date: %s (expected RFC3339 or YYYY-MM-DD format)", dateStr)
}

// parsePage reads page and limit; absent values take the defaults
func parsePage(ctx *gin.Context) (model.PageRequest, error) {
	var page model.PageRequest
	var err error
	if page.Page, err = optionalInt(ctx, "page"); err != nil {
		return page, err
	}
	if page.Limit, err = optionalInt(ctx, "limit"); err != nil {
		return page, err
	}
	if page.Page < 0 || page.Limit < 0 {
		return page, apperr.Validation("page", "page and limit must be positive")
	}
	return page.Normalize(), nil
}

func optionalInt(ctx *gin.Context, key string) (int, error) {
	s := strings.TrimSpace(ctx.Query(key))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Validation(key, "must be an integer")
	}
	return v, nil
}

func optionalFloat(ctx *gin.Context, key string) (*float64, error) {
	s := strings.TrimSpace(ctx.Query(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperr.Validation(key, "must be a number")
	}
	return &v, nil
}

func requiredFloat(ctx *gin.Context, key string) (float64, error) {
	v, err := optionalFloat(ctx, key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, apperr.Validation(key, "is required")
	}
	return *v, nil
}

func optionalString(ctx *gin.Context, key string) *string {
	s := strings.TrimSpace(ctx.Query(key))
	if s == "" {
		return nil
	}
	return &s
}

// parseLandFilters reads the land filter predicates from the query string.
// texture may be repeated or comma separated.
func parseLandFilters(ctx *gin.Context) (filter.LandFilters, error) {
	var f filter.LandFilters
	var err error

	if s := optionalString(ctx, "type"); s != nil {
		t, ok := model.ParseLandType(*s)
		if !ok {
			return f, apperr.Validation("type", "must be RENT or SALE")
		}
		f.Type = &t
	}
	if s := optionalString(ctx, "status"); s != nil {
		st, ok := model.ParseLandStatus(*s)
		if !ok {
			return f, apperr.Validation("status", "unknown status %q", *s)
		}
		f.Status = &st
	}

	ranges := []struct {
		key string
		dst **float64
	}{
		{"minSurface", &f.MinSurface},
		{"maxSurface", &f.MaxSurface},
		{"minPrice", &f.MinPrice},
		{"maxPrice", &f.MaxPrice},
		{"minPh", &f.MinPh},
		{"maxPh", &f.MaxPh},
	}
	for _, r := range ranges {
		if *r.dst, err = optionalFloat(ctx, r.key); err != nil {
			return f, err
		}
	}

	for _, raw := range ctx.QueryArray("texture") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, ok := model.ParseTexture(part)
			if !ok {
				return f, apperr.Validation("texture", "unknown texture %q", part)
			}
			f.Texture = append(f.Texture, t)
		}
	}

	f.Region = optionalString(ctx, "region")
	f.RecommendedCrop = optionalString(ctx, "recommendedCrop")
	return f, nil
}
